package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Stream is the mutable projection of one logical stream: a stable stream id,
// the tip pointing at the currently accepted latest event, and the content
// folded from genesis to tip.
type Stream struct {
	StreamID string          `json:"streamId"`
	DappID   uuid.UUID       `json:"dappId"`
	Tip      string          `json:"tip"`
	Account  *string         `json:"account,omitempty"`
	ModelID  *string         `json:"modelId,omitempty"`
	Content  json.RawMessage `json:"content"`
}

// IndexFolder is the secondary lookup row for a stream. Its tip is written in
// the same transaction as the stream tip and must never diverge from it.
type IndexFolder struct {
	StreamID string          `json:"streamId"`
	Tip      string          `json:"tip"`
	Signal   json.RawMessage `json:"signal,omitempty"`
}

// SubmitResult reports the outcome of an event submission. Applied is false
// when the event was durably stored but lost the tip race; Tip then carries
// the stream's current tip so the caller can rebase and resubmit.
type SubmitResult struct {
	Applied  bool   `json:"applied"`
	Tip      string `json:"tip"`
	StreamID string `json:"streamId"`
}
