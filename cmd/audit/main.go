package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/meditriage/triage-core/internal/adapters/storage"
	"github.com/meditriage/triage-core/internal/application/services"
	"github.com/meditriage/triage-core/internal/infrastructure/observability"
	"github.com/meditriage/triage-core/pkg/config"
)

func main() {
	caseID := flag.String("case", "", "print the audit entry for one case id")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)

	store, err := storage.NewFileStore(cfg.Storage.AuditDir)
	if err != nil {
		log.Fatalf("Failed to open audit store: %v", err)
	}
	audit := services.NewAuditService(store, nil)

	ctx := context.Background()

	if *caseID != "" {
		entry, err := audit.Load(ctx, *caseID)
		if err != nil {
			log.Fatalf("Failed to load audit entry: %v", err)
		}
		printJSON(entry)
		return
	}

	entries, err := audit.LoadAll(ctx)
	if err != nil {
		log.Fatalf("Failed to list audit entries: %v", err)
	}
	printJSON(entries)
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
	fmt.Println(string(out))
}
