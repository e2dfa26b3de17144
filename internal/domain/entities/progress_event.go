package entities

import (
	"time"

	"github.com/google/uuid"
)

// ProgressEventKind represents the kind of progress event
type ProgressEventKind string

const (
	ProgressWorkflowStarted   ProgressEventKind = "workflow_started"
	ProgressStepStarted       ProgressEventKind = "step_started"
	ProgressStepCompleted     ProgressEventKind = "step_completed"
	ProgressWorkflowCompleted ProgressEventKind = "workflow_completed"
	ProgressVignetteStarted   ProgressEventKind = "vignette_started"
	ProgressVignetteCompleted ProgressEventKind = "vignette_completed"
	ProgressRunCompleted      ProgressEventKind = "run_completed"
	ProgressRunCancelled      ProgressEventKind = "run_cancelled"
)

// ProgressEvent is a real-time update emitted by the workflow engine and the
// benchmark harness at stage and vignette boundaries.
type ProgressEvent struct {
	ID            string            `json:"id"`
	CaseID        string            `json:"case_id,omitempty"`
	Kind          ProgressEventKind `json:"kind"`
	StepNumber    int               `json:"step_number,omitempty"`
	StepTitle     string            `json:"step_title,omitempty"`
	VignetteIndex int               `json:"vignette_index,omitempty"`
	VignetteName  string            `json:"vignette_name,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// NewProgressEvent creates a new progress event with a fresh id.
func NewProgressEvent(kind ProgressEventKind) *ProgressEvent {
	return &ProgressEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		Timestamp: time.Now(),
	}
}
