package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// StreamHeader is the metadata block carried by a genesis payload. It binds
// the stream to its owning dapp and optionally an account and a declared
// model.
type StreamHeader struct {
	DappID  uuid.UUID `json:"dappId"`
	Account *string   `json:"account,omitempty"`
	Model   *string   `json:"model,omitempty"`
}

// EventPayload is the decoded form of an event's first block. Genesis
// payloads carry the header plus the initial content; later payloads carry a
// content patch.
type EventPayload struct {
	Header  *StreamHeader   `json:"header,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
}

// DecodePayload parses an event's first block. Blocks that are not valid
// JSON objects fold as an opaque raw document so projection stays total and
// deterministic.
func DecodePayload(block []byte) EventPayload {
	var p EventPayload
	if err := json.Unmarshal(block, &p); err == nil && (p.Header != nil || p.Content != nil) {
		return p
	}
	raw, _ := json.Marshal(map[string]interface{}{"raw": block})
	return EventPayload{Content: raw}
}
