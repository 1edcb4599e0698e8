// Package engine implements the stream resolution core: chain linking,
// deterministic content projection and compare-and-swap tip advancement.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/streamhub-systems/streamhub/common/logging"
	"github.com/streamhub-systems/streamhub/internal/indexer"
	"github.com/streamhub-systems/streamhub/internal/metrics"
	"github.com/streamhub-systems/streamhub/internal/models"
	"github.com/streamhub-systems/streamhub/internal/repository"
	"github.com/streamhub-systems/streamhub/internal/validator"
)

// Announcer receives notifications about accepted stream transitions.
// Implementations must tolerate being called after the transaction committed;
// delivery is at-most-once and best-effort.
type Announcer interface {
	StreamCreated(ctx context.Context, stream *models.Stream)
	TipAdvanced(ctx context.Context, streamID, prevTip, tip string)
}

// SignalMirror receives signal documents for secondary search indexing.
type SignalMirror interface {
	IndexSignal(ctx context.Context, streamID string, signal json.RawMessage) error
}

// ResolverConfig wires the resolver's collaborators. Cache, Announcer,
// Mirror and Logger are optional.
type ResolverConfig struct {
	Repo      repository.Repository
	Validator validator.Validator
	Cache     *FoldCache
	Announcer Announcer
	Mirror    SignalMirror
	Logger    *logging.Logger
}

// Resolver accepts event submissions and advances stream state. Each
// submission is validated, linked against the stored chain, projected into
// content, and applied with a single-slot compare-and-swap on the stream tip.
// Events that lose the race are stored but not applied.
type Resolver struct {
	repo      repository.Repository
	validator validator.Validator
	linker    *Linker
	projector *Projector
	announcer Announcer
	mirror    SignalMirror
	logger    *logging.Logger
}

// NewResolver constructs a Resolver from cfg.
func NewResolver(cfg ResolverConfig) *Resolver {
	v := cfg.Validator
	if v == nil {
		v = validator.BasicValidator{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{
		repo:      cfg.Repo,
		validator: v,
		linker:    NewLinker(cfg.Repo),
		projector: NewProjector(cfg.Repo, cfg.Cache),
		announcer: cfg.Announcer,
		mirror:    cfg.Mirror,
		logger:    logger,
	}
}

// SubmitEvent processes one event submission end to end. Malformed events and
// chain integrity violations return errors and persist nothing. A lost tip
// race is not an error: the event is stored and the result reports the
// surviving tip.
func (r *Resolver) SubmitEvent(ctx context.Context, event *models.Event) (*models.SubmitResult, error) {
	if err := r.validator.Validate(ctx, event); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("malformed").Inc()
		return nil, err
	}

	if err := r.linker.Link(ctx, event); err != nil {
		if errors.Is(err, models.ErrChainIntegrity) {
			metrics.SubmissionsTotal.WithLabelValues("chain_integrity").Inc()
		} else {
			metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	projStart := time.Now()
	proj, err := r.projector.Project(ctx, event)
	metrics.ProjectionDuration.Observe(time.Since(projStart).Seconds())
	if err != nil {
		if errors.Is(err, models.ErrChainIntegrity) {
			metrics.SubmissionsTotal.WithLabelValues("chain_integrity").Inc()
		} else {
			metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	if event.IsGenesis() {
		return r.applyGenesis(ctx, event, proj)
	}
	return r.applyAdvance(ctx, event, proj)
}

func (r *Resolver) applyGenesis(ctx context.Context, event *models.Event, proj *Projection) (*models.SubmitResult, error) {
	streamID := models.StreamIDFromGenesis(event.Genesis)

	stream := &models.Stream{
		StreamID: streamID,
		DappID:   proj.Header.DappID,
		Tip:      event.CID,
		Account:  proj.Header.Account,
		ModelID:  proj.Header.Model,
		Content:  proj.Content,
	}
	signal := indexer.DeriveSignal(stream)
	folder := &models.IndexFolder{StreamID: streamID, Tip: event.CID, Signal: signal}

	applyStart := time.Now()
	err := r.repo.CreateStream(ctx, stream, event, folder)
	metrics.ApplyDuration.Observe(time.Since(applyStart).Seconds())

	if err != nil {
		if errors.Is(err, repository.ErrStreamExists) {
			// Duplicate genesis submission. Idempotent when the tip is
			// still the genesis event, otherwise report the current tip.
			existing, getErr := r.repo.GetStream(ctx, streamID)
			if getErr != nil {
				metrics.SubmissionsTotal.WithLabelValues("error").Inc()
				return nil, fmt.Errorf("load existing stream %s: %w", streamID, getErr)
			}
			if existing.Tip == event.CID {
				metrics.SubmissionsTotal.WithLabelValues("applied").Inc()
				return &models.SubmitResult{Applied: true, Tip: existing.Tip, StreamID: streamID}, nil
			}
			metrics.SubmissionsTotal.WithLabelValues("conflict").Inc()
			return &models.SubmitResult{Applied: false, Tip: existing.Tip, StreamID: streamID}, nil
		}
		metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("create stream %s: %w", streamID, err)
	}

	metrics.StreamsCreatedTotal.Inc()
	metrics.SubmissionsTotal.WithLabelValues("applied").Inc()
	r.logger.InfoContext(ctx, "stream created", "stream_id", streamID, "genesis", event.Genesis)

	if r.announcer != nil {
		r.announcer.StreamCreated(ctx, stream)
	}
	r.mirrorSignal(ctx, streamID, signal)

	return &models.SubmitResult{Applied: true, Tip: event.CID, StreamID: streamID}, nil
}

func (r *Resolver) applyAdvance(ctx context.Context, event *models.Event, proj *Projection) (*models.SubmitResult, error) {
	streamID := models.StreamIDFromGenesis(event.Genesis)

	stream, err := r.repo.GetStream(ctx, streamID)
	if err != nil {
		if errors.Is(err, repository.ErrStreamNotFound) {
			metrics.SubmissionsTotal.WithLabelValues("unknown_stream").Inc()
			return nil, fmt.Errorf("%w: no stream for genesis %s", models.ErrUnknownStream, event.Genesis)
		}
		metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load stream %s: %w", streamID, err)
	}

	if stream.Tip == event.CID {
		// Duplicate submission of the current tip.
		metrics.SubmissionsTotal.WithLabelValues("applied").Inc()
		return &models.SubmitResult{Applied: true, Tip: stream.Tip, StreamID: streamID}, nil
	}

	projected := &models.Stream{
		StreamID: streamID,
		DappID:   stream.DappID,
		Tip:      event.CID,
		Account:  stream.Account,
		ModelID:  stream.ModelID,
		Content:  proj.Content,
	}
	signal := indexer.DeriveSignal(projected)

	applyStart := time.Now()
	swap, err := r.repo.AdvanceTip(ctx, event, streamID, event.PrevCID(), proj.Content, signal)
	metrics.ApplyDuration.Observe(time.Since(applyStart).Seconds())
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("advance tip of %s: %w", streamID, err)
	}

	if !swap.Swapped {
		metrics.TipConflictsTotal.Inc()
		metrics.SubmissionsTotal.WithLabelValues("conflict").Inc()
		r.logger.InfoContext(ctx, "tip conflict", "stream_id", streamID, "event", event.CID, "tip", swap.Tip)
		return &models.SubmitResult{Applied: false, Tip: swap.Tip, StreamID: streamID}, nil
	}

	metrics.SubmissionsTotal.WithLabelValues("applied").Inc()
	r.logger.InfoContext(ctx, "tip advanced", "stream_id", streamID, "from", event.PrevCID(), "to", event.CID)

	if r.announcer != nil {
		r.announcer.TipAdvanced(ctx, streamID, event.PrevCID(), event.CID)
	}
	r.mirrorSignal(ctx, streamID, signal)

	return &models.SubmitResult{Applied: true, Tip: event.CID, StreamID: streamID}, nil
}

func (r *Resolver) mirrorSignal(ctx context.Context, streamID string, signal json.RawMessage) {
	if r.mirror == nil {
		return
	}
	if err := r.mirror.IndexSignal(ctx, streamID, signal); err != nil {
		r.logger.WarnContext(ctx, "signal mirror write failed", "stream_id", streamID, "error", err)
	}
}

// GetStream returns the current state of a stream.
func (r *Resolver) GetStream(ctx context.Context, streamID string) (*models.Stream, error) {
	stream, err := r.repo.GetStream(ctx, streamID)
	if err != nil {
		if errors.Is(err, repository.ErrStreamNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrUnknownStream, streamID)
		}
		return nil, err
	}
	return stream, nil
}

// QueryBySignal returns stream ids whose signal document contains predicate.
func (r *Resolver) QueryBySignal(ctx context.Context, predicate json.RawMessage, limit int) ([]string, error) {
	return r.repo.QueryBySignal(ctx, predicate, limit)
}
