package streaming

import (
	"context"

	"github.com/voltlint/voltlint/pkg/schema"
)

// ResultEvent is a real-time event emitted when a validation session
// produces a compliance result.
type ResultEvent struct {
	SessionID   string                   `json:"session_id"`
	DiagramID   string                   `json:"diagram_id,omitempty"`
	ContentHash string                   `json:"content_hash"`
	FromCache   bool                     `json:"from_cache"`
	Result      *schema.ComplianceResult `json:"result"`
}

// EventFilter specifies which events a subscriber wants to receive.
type EventFilter struct {
	SessionID string `json:"session_id,omitempty"`
	DiagramID string `json:"diagram_id,omitempty"`
}

// ResultHub provides pub/sub for real-time validation results.
type ResultHub interface {
	Publish(ctx context.Context, event ResultEvent) error
	Subscribe(ctx context.Context, filter EventFilter) (<-chan ResultEvent, func(), error)
}
