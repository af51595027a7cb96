package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/db"
	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/locations"
	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/sources"
	"github.com/EmpoweredVote/PollingPlaces-Backend/internal/syncer"
)

var (
	source  = flag.String("source", "", "Adapter to sync (default: all registered adapters)")
	timeout = flag.Duration("timeout", 45*time.Minute, "Overall run timeout")
	asJSON  = flag.Bool("json", false, "Print full results as JSON")
)

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()

	db.Connect()
	store := locations.Init()
	runner := syncer.Init(store)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var results []syncer.SyncResult
	if *source != "" {
		res, err := runner.Run(ctx, *source)
		if err != nil {
			log.Fatalf("sync %s: %v", *source, err)
		}
		results = []syncer.SyncResult{res}
	} else {
		fmt.Printf("Syncing all adapters: %v\n", sources.Names())
		results = runner.RunAll(ctx)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(results)
		return
	}

	failed := 0
	for _, res := range results {
		status := "OK"
		if !res.Success {
			status = "FAILED"
			failed++
		}
		fmt.Printf("%-12s %-6s created=%d updated=%d unchanged=%d failed=%d skipped=%d geocoded=%d (%s)\n",
			res.Adapter, status, res.Created, res.Updated, res.Unchanged,
			res.Failed, res.SkippedInvalid, res.Geocoded, res.Duration().Round(time.Millisecond))
		if res.Message != "" {
			fmt.Printf("             %s\n", res.Message)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}
