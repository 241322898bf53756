package pipeline

import (
	"encoding/json"
)

// Kind is the type field of a wire message.
type Kind string

const (
	KindProgress   Kind = "progress_update"
	KindError      Kind = "error"
	KindConnection Kind = "connection_status"
)

// Status is the state a message reports.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusConnected  Status = "connected"
)

// Message is the progress payload delivered to live subscribers.
type Message struct {
	Type            Kind    `json:"type"`
	Step            StageID `json:"step,omitempty"`
	Status          Status  `json:"status"`
	Message         string  `json:"message"`
	OverallProgress *int    `json:"overall_progress,omitempty"`
	RunID           string  `json:"run_id,omitempty"`
}

// ProgressMessage builds a progress_update for step.
func ProgressMessage(runID string, step StageID, status Status, text string, progress int) Message {
	return Message{
		Type:            KindProgress,
		Step:            step,
		Status:          status,
		Message:         text,
		OverallProgress: &progress,
		RunID:           runID,
	}
}

// ErrorMessage builds the terminal error message of a failed run.
func ErrorMessage(runID string, step StageID, text string) Message {
	return Message{
		Type:    KindError,
		Step:    step,
		Status:  StatusFailed,
		Message: text,
		RunID:   runID,
	}
}

// ConnectionMessage builds the acknowledgement a session sends on connect.
func ConnectionMessage(text string) Message {
	return Message{
		Type:    KindConnection,
		Status:  StatusConnected,
		Message: text,
	}
}

// Encode returns the JSON form of m.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Progress returns the overall progress, or -1 when the message has none.
func (m Message) Progress() int {
	if m.OverallProgress == nil {
		return -1
	}
	return *m.OverallProgress
}
