// Package indexer maintains the secondary lookup structures derived from a
// stream's tip: the signal document persisted with the tip, and an optional
// search mirror.
package indexer

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/streamhub-systems/streamhub/internal/models"
)

// Signal is the derived summary document stored in index_folders.signal.
// It is intentionally flat so jsonb containment predicates stay cheap.
type Signal struct {
	StreamID  string  `json:"streamId"`
	Tip       string  `json:"tip"`
	DappID    string  `json:"dappId,omitempty"`
	Account   *string `json:"account,omitempty"`
	ModelID   *string `json:"modelId,omitempty"`
	ContentID string  `json:"contentId,omitempty"`
}

// DeriveSignal builds the signal document for a stream at its current tip.
// The contentId field is lifted out of the folded content when present,
// matching how index files are located by content id.
func DeriveSignal(stream *models.Stream) json.RawMessage {
	sig := Signal{
		StreamID: stream.StreamID,
		Tip:      stream.Tip,
		Account:  stream.Account,
		ModelID:  stream.ModelID,
	}
	if stream.DappID != uuid.Nil {
		sig.DappID = stream.DappID.String()
	}

	if len(stream.Content) > 0 {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(stream.Content, &doc); err == nil {
			if raw, ok := doc["contentId"]; ok {
				var contentID string
				if err := json.Unmarshal(raw, &contentID); err == nil {
					sig.ContentID = contentID
				}
			}
		}
	}

	data, _ := json.Marshal(sig)
	return data
}
