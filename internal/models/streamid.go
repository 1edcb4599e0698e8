package models

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// streamIDPrefix distinguishes stream ids from event cids at a glance.
const streamIDPrefix = "ks"

// StreamIDFromGenesis derives the stable stream identifier from the genesis
// cid. The id is recomputable from any event of the stream (every event
// carries the genesis cid) and is never equal to an event cid.
func StreamIDFromGenesis(genesis string) string {
	sum := blake2b.Sum256([]byte("streamhub/stream/" + genesis))
	return streamIDPrefix + hex.EncodeToString(sum[:20])
}
