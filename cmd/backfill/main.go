package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/db"
	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/locations"
	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/syncer"
)

var (
	source  = flag.String("source", "", "Adapter whose election archive to import (required)")
	timeout = flag.Duration("timeout", 2*time.Hour, "Overall run timeout")
)

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *source == "" {
		log.Fatal("--source is required")
	}

	db.Connect()
	store := locations.Init()
	runner := syncer.Init(store)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := runner.RunHistorical(ctx, *source)
	if err != nil {
		log.Fatalf("historical import for %s: %v", *source, err)
	}

	fmt.Printf("Imported %d elections for %s in %s\n",
		len(result.Units), *source, result.FinishedAt.Sub(result.StartedAt).Round(time.Second))
	failed := 0
	for _, unit := range result.Units {
		status := "OK"
		if !unit.Success {
			status = "FAILED"
			failed++
		}
		fmt.Printf("%s  %-28s %-6s created=%d updated=%d unchanged=%d failed=%d skipped=%d\n",
			unit.ElectionDate, unit.ElectionName, status,
			unit.Created, unit.Updated, unit.Unchanged, unit.Failed, unit.SkippedInvalid)
		if unit.Error != "" {
			fmt.Printf("            %s\n", unit.Error)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}
