package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/streamhub-systems/streamhub/internal/models"
	"github.com/streamhub-systems/streamhub/internal/repository"
)

// Linker verifies that an event's declared ancestry is consistent with the
// events already stored for its stream.
type Linker struct {
	repo repository.Repository
}

// NewLinker constructs a Linker over the given store.
func NewLinker(repo repository.Repository) *Linker {
	return &Linker{repo: repo}
}

// Link confirms the event extends a well-founded chain: either it is its own
// genesis, or its prev exists and shares the same genesis. Violations are
// chain-integrity errors and the event must not be persisted.
func (l *Linker) Link(ctx context.Context, event *models.Event) error {
	if event.IsGenesis() {
		if event.CID != event.Genesis {
			return fmt.Errorf("%w: genesis event %s does not reference itself", models.ErrChainIntegrity, event.CID)
		}
		return nil
	}

	prevCID := event.PrevCID()
	if prevCID == event.CID {
		return fmt.Errorf("%w: event %s references itself as prev", models.ErrChainIntegrity, event.CID)
	}

	prev, err := l.repo.GetEvent(ctx, prevCID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return fmt.Errorf("%w: unknown prev %s for event %s", models.ErrChainIntegrity, prevCID, event.CID)
		}
		return fmt.Errorf("load prev event: %w", err)
	}

	if prev.Genesis != event.Genesis {
		return fmt.Errorf("%w: prev %s belongs to stream %s, event %s claims %s",
			models.ErrChainIntegrity, prevCID, prev.Genesis, event.CID, event.Genesis)
	}
	return nil
}
