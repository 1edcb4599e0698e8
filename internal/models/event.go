// Package models defines the persisted data model of the stream resolution
// engine: immutable content-addressed events, the mutable stream projection,
// and the index folder rows derived from it.
package models

// Event is an immutable, content-addressed record in a stream's chain.
// The cid is assumed to be correctly derived from the event content by the
// producer; the engine never recomputes it.
type Event struct {
	CID     string   `json:"cid"`
	Prev    *string  `json:"prev,omitempty"`
	Genesis string   `json:"genesis"`
	Blocks  [][]byte `json:"blocks"`
}

// IsGenesis reports whether the event claims to be the first event of its
// stream. A genesis event must be self-referential: cid == genesis.
func (e *Event) IsGenesis() bool {
	return e.Prev == nil
}

// PrevCID returns the declared predecessor cid, or empty string for genesis.
func (e *Event) PrevCID() string {
	if e.Prev == nil {
		return ""
	}
	return *e.Prev
}

// Payload returns the first block of the event, which carries the JSON
// payload folded into the stream content. Validation guarantees at least one
// block exists before this is called.
func (e *Event) Payload() []byte {
	if len(e.Blocks) == 0 {
		return nil
	}
	return e.Blocks[0]
}
