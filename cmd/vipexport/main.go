package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/lib/pq"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/locations"
)

// Exports stored polling places as VIP polling locations, for handing to
// downstream civic data consumers without going through the API.

var (
	dsn     = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	state   = flag.String("state", "", "Only export one state, e.g. VA")
	outFile = flag.String("out", "", "Output file (default: stdout)")
)

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	query := `
        SELECT id, name, location_name, address_line1, address_line2, address_line3,
               city, state, zip_code, latitude, longitude,
               polling_hours, notes, voter_services, start_date, end_date
        FROM locations.polling_places`
	args := []any{}
	if *state != "" {
		query += ` WHERE state = $1`
		args = append(args, *state)
	}
	query += ` ORDER BY state, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		fatalf("query: %v", err)
	}
	defer rows.Close()

	var out []locations.VIPPollingLocation
	for rows.Next() {
		var pp locations.PollingPlace
		var services pq.StringArray
		if err := rows.Scan(&pp.ID, &pp.Name, &pp.LocationName,
			&pp.AddressLine1, &pp.AddressLine2, &pp.AddressLine3,
			&pp.City, &pp.State, &pp.ZipCode, &pp.Latitude, &pp.Longitude,
			&pp.PollingHours, &pp.Notes, &services, &pp.StartDate, &pp.EndDate); err != nil {
			fatalf("scan: %v", err)
		}
		pp.VoterServices = services
		out = append(out, locations.ToVIP(pp))
	}
	if err := rows.Err(); err != nil {
		fatalf("rows: %v", err)
	}

	w := os.Stdout
	if *outFile != "" {
		f, err := os.Create(*outFile)
		if err != nil {
			fatalf("create %s: %v", *outFile, err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fatalf("encode: %v", err)
	}
	fmt.Fprintf(os.Stderr, "Exported %d polling locations\n", len(out))
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
