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

	"github.com/meditriage/triage-core/internal/adapters/events"
	"github.com/meditriage/triage-core/internal/adapters/storage"
	"github.com/meditriage/triage-core/internal/application/services"
	"github.com/meditriage/triage-core/internal/domain/entities"
	"github.com/meditriage/triage-core/internal/domain/providers"
	"github.com/meditriage/triage-core/internal/evaluation"
	anthropicclient "github.com/meditriage/triage-core/internal/infrastructure/clients/anthropic"
	openaiclient "github.com/meditriage/triage-core/internal/infrastructure/clients/openai"
	redisclient "github.com/meditriage/triage-core/internal/infrastructure/clients/redis"
	"github.com/meditriage/triage-core/internal/infrastructure/observability"
	"github.com/meditriage/triage-core/pkg/config"
)

func main() {
	vignettePath := flag.String("vignettes", "", "optional path to a supplemental vignette JSON or YAML file")
	latest := flag.Bool("latest", false, "print the most recent stored report instead of running")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := storage.NewFileStore(cfg.Storage.BenchmarkDir)
	if err != nil {
		log.Fatalf("Failed to open benchmark store: %v", err)
	}

	if *latest {
		report, err := evaluation.LoadLatestReport(ctx, store)
		if err != nil {
			log.Fatalf("Failed to load latest report: %v", err)
		}
		printJSON(report)
		return
	}

	generator, err := buildBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize AI backend: %v", err)
	}

	workflow := services.NewWorkflowService(generator, services.NewSafetyGuard())

	runner := evaluation.NewRunner(workflow, store)
	if *vignettePath != "" {
		vignettes, err := evaluation.LoadVignettes(*vignettePath)
		if err != nil {
			log.Fatalf("Failed to load vignettes: %v", err)
		}
		if err := evaluation.ValidateVignettes(vignettes); err != nil {
			log.Fatalf("Invalid vignettes: %v", err)
		}
		runner.SetVignettes(vignettes)
	}

	// The completion cache is deliberately not wired here: cached
	// completions would skew benchmark timings and scores.
	var progress <-chan *entities.ProgressEvent
	if cfg.Redis.Enabled {
		rdb, err := redisclient.NewClient(&cfg.Redis)
		if err != nil {
			log.Printf("Warning: Redis unavailable, running without progress events: %v", err)
		} else {
			defer rdb.Close()
			bus := events.NewRedisEventBus(rdb)
			defer bus.Close()
			runner.SetEventBus(bus)
			if progress, err = bus.Subscribe(ctx, providers.EventChannelBenchmark); err != nil {
				log.Printf("Warning: failed to subscribe to benchmark events: %v", err)
			}
		}
	}

	if err := runner.Start(ctx); err != nil {
		log.Fatalf("Failed to start benchmark: %v", err)
	}

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "cancelling benchmark run...")
		runner.Cancel()
	}()

	if progress != nil {
		streamProgress(runner, progress)
	} else {
		pollProgress(runner)
	}

	report := runner.LastReport()
	if report == nil {
		log.Fatal("Benchmark run produced no report")
	}
	printJSON(report)
}

// streamProgress follows the run through bus events when Redis is available.
func streamProgress(runner *evaluation.Runner, progress <-chan *entities.ProgressEvent) {
	for runner.Status().Running {
		select {
		case event, ok := <-progress:
			if !ok {
				pollProgress(runner)
				return
			}
			switch event.Kind {
			case entities.ProgressVignetteStarted:
				fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", event.VignetteIndex+1, runner.Status().Total, event.VignetteName)
			case entities.ProgressRunCompleted, entities.ProgressRunCancelled:
				return
			}
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// pollProgress follows the run by sampling Status.
func pollProgress(runner *evaluation.Runner) {
	var lastName string
	for {
		state := runner.Status()
		if !state.Running {
			return
		}
		if state.CurrentName != lastName && state.CurrentName != "" {
			lastName = state.CurrentName
			fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", state.CurrentIndex+1, state.Total, state.CurrentName)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func buildBackend(cfg *config.Config) (providers.TextGenerator, error) {
	if cfg.AI.Provider == "anthropic" {
		return anthropicclient.NewClient(&cfg.AI)
	}
	return openaiclient.NewClient(&cfg.AI)
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
	fmt.Println(string(out))
}
