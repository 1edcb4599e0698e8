// Package publisher announces accepted stream transitions on the NATS
// message bus. Publishing is best-effort: a failed publish is logged and
// never rolls back the committed transition.
package publisher

// Subject constants for the streamhub message bus.
// Follow the pattern: {domain}.{resource}.{action}
const (
	// SubjectStreamsCreated announces a stream created from a genesis event.
	SubjectStreamsCreated = "streamhub.streams.created"

	// SubjectStreamsTips announces an accepted tip advancement.
	SubjectStreamsTips = "streamhub.streams.tips"

	// SubjectDappsDeployed announces a newly deployed dapp.
	SubjectDappsDeployed = "streamhub.dapps.deployed"
)

// StreamTipSubject returns the per-stream tip subject so consumers can
// subscribe to one stream's advancements.
// Example: streamhub.streams.tips.ksabc123
func StreamTipSubject(streamID string) string {
	return SubjectStreamsTips + "." + streamID
}
