package publisher

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/streamhub-systems/streamhub/common/logging"
	"github.com/streamhub-systems/streamhub/internal/models"
)

// StreamCreatedEvent is the payload announced when a genesis event creates a
// stream.
type StreamCreatedEvent struct {
	StreamID  string    `json:"streamId"`
	DappID    string    `json:"dappId,omitempty"`
	Tip       string    `json:"tip"`
	Account   *string   `json:"account,omitempty"`
	ModelID   *string   `json:"modelId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TipAdvancedEvent is the payload announced when a stream's tip moves.
type TipAdvancedEvent struct {
	StreamID  string    `json:"streamId"`
	PrevTip   string    `json:"prevTip"`
	Tip       string    `json:"tip"`
	Timestamp time.Time `json:"timestamp"`
}

// DappDeployedEvent is the payload announced when a dapp is deployed.
type DappDeployedEvent struct {
	DappID    string    `json:"dappId"`
	Name      string    `json:"name"`
	Network   string    `json:"network"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher announces stream transitions to NATS. It satisfies the engine's
// Announcer contract; failures are logged and swallowed.
type Publisher struct {
	client *Client
	logger *logging.Logger
}

// NewPublisher creates a publisher over an established client.
func NewPublisher(client *Client, logger *logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{client: client, logger: logger}
}

// StreamCreated announces a newly created stream.
func (p *Publisher) StreamCreated(ctx context.Context, stream *models.Stream) {
	event := StreamCreatedEvent{
		StreamID:  stream.StreamID,
		Tip:       stream.Tip,
		Account:   stream.Account,
		ModelID:   stream.ModelID,
		Timestamp: time.Now().UTC(),
	}
	if stream.DappID != uuid.Nil {
		event.DappID = stream.DappID.String()
	}
	p.publish(ctx, SubjectStreamsCreated, event)
}

// TipAdvanced announces an accepted tip advancement on both the shared tips
// subject and the per-stream subject.
func (p *Publisher) TipAdvanced(ctx context.Context, streamID, prevTip, tip string) {
	event := TipAdvancedEvent{
		StreamID:  streamID,
		PrevTip:   prevTip,
		Tip:       tip,
		Timestamp: time.Now().UTC(),
	}
	p.publish(ctx, SubjectStreamsTips, event)
	p.publish(ctx, StreamTipSubject(streamID), event)
}

// DappDeployed announces a newly deployed dapp.
func (p *Publisher) DappDeployed(ctx context.Context, dappID, name, network string) {
	event := DappDeployedEvent{
		DappID:    dappID,
		Name:      name,
		Network:   network,
		Timestamp: time.Now().UTC(),
	}
	p.publish(ctx, SubjectDappsDeployed, event)
}

func (p *Publisher) publish(ctx context.Context, subject string, data interface{}) {
	if p == nil || p.client == nil {
		return
	}
	if err := p.client.PublishJSON(ctx, subject, data); err != nil {
		p.logger.WarnContext(ctx, "publish failed", "subject", subject, "error", err)
	}
}
