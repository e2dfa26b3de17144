package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meditriage/triage-core/internal/adapters/cache"
	"github.com/meditriage/triage-core/internal/adapters/database"
	"github.com/meditriage/triage-core/internal/adapters/events"
	"github.com/meditriage/triage-core/internal/adapters/storage"
	"github.com/meditriage/triage-core/internal/application/services"
	"github.com/meditriage/triage-core/internal/domain/entities"
	"github.com/meditriage/triage-core/internal/domain/providers"
	"github.com/meditriage/triage-core/internal/domain/repositories"
	anthropicclient "github.com/meditriage/triage-core/internal/infrastructure/clients/anthropic"
	openaiclient "github.com/meditriage/triage-core/internal/infrastructure/clients/openai"
	"github.com/meditriage/triage-core/internal/infrastructure/clients/postgres"
	redisclient "github.com/meditriage/triage-core/internal/infrastructure/clients/redis"
	"github.com/meditriage/triage-core/internal/infrastructure/observability"
	"github.com/meditriage/triage-core/pkg/config"
)

func main() {
	intakePath := flag.String("intake", "", "path to a patient intake JSON file")
	flag.Parse()

	if *intakePath == "" {
		log.Fatal("usage: triage -intake <intake.json>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Printf("Warning: OpenTelemetry shutdown failed: %v", err)
				}
			}()
		}
	}

	data, err := os.ReadFile(*intakePath)
	if err != nil {
		log.Fatalf("Failed to read intake file: %v", err)
	}
	var intake entities.PatientIntake
	if err := json.Unmarshal(data, &intake); err != nil {
		log.Fatalf("Failed to parse intake file: %v", err)
	}

	generator, analyzer, err := buildBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize AI backend: %v", err)
	}

	workflow := services.NewWorkflowService(generator, services.NewSafetyGuard())
	if analyzer != nil {
		workflow.SetImageAnalyzer(analyzer)
	}

	var metrics *observability.Metrics
	if m, err := observability.InitMetrics(); err == nil {
		metrics = m
		workflow.SetMetrics(m)
	}

	auditStore, err := storage.NewFileStore(cfg.Storage.AuditDir)
	if err != nil {
		log.Fatalf("Failed to open audit store: %v", err)
	}
	audit := services.NewAuditService(auditStore, buildArchive(cfg, metrics))
	workflow.SetAuditService(audit)

	if cfg.Redis.Enabled {
		rdb, err := redisclient.NewClient(&cfg.Redis)
		if err != nil {
			log.Printf("Warning: Redis unavailable, running without cache and events: %v", err)
		} else {
			defer rdb.Close()
			workflow.SetCache(cache.NewRedisAdapter(rdb))
			workflow.SetEventBus(events.NewRedisEventBus(rdb))
		}
	}

	result, err := workflow.Execute(ctx, &intake, func(stepNumber int, stepTitle string) {
		fmt.Fprintf(os.Stderr, "[%d/5] %s...\n", stepNumber, stepTitle)
	})
	if err != nil {
		log.Fatalf("Workflow failed: %v", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
	fmt.Println(string(out))
}

func buildBackend(cfg *config.Config) (providers.TextGenerator, providers.ImageAnalyzer, error) {
	switch cfg.AI.Provider {
	case "anthropic":
		client, err := anthropicclient.NewClient(&cfg.AI)
		if err != nil {
			return nil, nil, err
		}
		return client, nil, nil
	default:
		client, err := openaiclient.NewClient(&cfg.AI)
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	}
}

func buildArchive(cfg *config.Config, metrics *observability.Metrics) repositories.AuditArchiveRepository {
	if cfg.Database.Password == "" {
		return nil
	}
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Printf("Warning: audit archive unavailable: %v", err)
		return nil
	}
	archive := database.NewAuditArchiveAdapter(pgClient)
	if metrics != nil {
		archive.SetMetrics(metrics)
	}
	return archive
}
