package providers

import (
	"context"

	"github.com/meditriage/triage-core/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to progress
// events emitted by the workflow engine and the benchmark harness.
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ProgressEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ProgressEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for the progress streams
const (
	// EventChannelWorkflow is the channel for workflow stage progress
	EventChannelWorkflow = "triage:workflow"

	// EventChannelBenchmark is the channel for benchmark run progress
	EventChannelBenchmark = "triage:benchmark"

	// EventChannelCasePrefix is the prefix for case-specific channels
	EventChannelCasePrefix = "triage:case:"
)

// GetCaseChannel returns the channel name for a specific case
func GetCaseChannel(caseID string) string {
	return EventChannelCasePrefix + caseID
}
