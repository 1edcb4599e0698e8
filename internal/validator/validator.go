// Package validator performs structural validation of candidate events
// before they are eligible for chain linkage.
package validator

import (
	"context"
	"fmt"

	"github.com/streamhub-systems/streamhub/internal/models"
)

// Validator defines the contract for event validation units.
type Validator interface {
	Validate(ctx context.Context, event *models.Event) error
}

// Chain applies a list of validators sequentially.
type Chain struct {
	validators []Validator
}

// NewChain constructs a validator chain.
func NewChain(validators ...Validator) *Chain {
	return &Chain{validators: validators}
}

// Validate executes validators in order until an error occurs.
func (c *Chain) Validate(ctx context.Context, event *models.Event) error {
	if c == nil {
		return nil
	}
	for _, v := range c.validators {
		if err := v.Validate(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// BasicValidator enforces the structural invariants every event must hold
// before storage: identifiers present, a non-empty block set with no null
// entries, and a consistent genesis self-reference.
type BasicValidator struct{}

// Validate performs structural validation. All failures wrap
// models.ErrMalformedEvent; the event is rejected before storage.
func (BasicValidator) Validate(ctx context.Context, event *models.Event) error {
	_ = ctx
	if event == nil {
		return fmt.Errorf("%w: nil event", models.ErrMalformedEvent)
	}
	if event.CID == "" {
		return fmt.Errorf("%w: missing cid", models.ErrMalformedEvent)
	}
	if event.Genesis == "" {
		return fmt.Errorf("%w: missing genesis", models.ErrMalformedEvent)
	}
	if len(event.Blocks) == 0 {
		return fmt.Errorf("%w: empty block set", models.ErrMalformedEvent)
	}
	for i, block := range event.Blocks {
		if block == nil {
			return fmt.Errorf("%w: null block at index %d", models.ErrMalformedEvent, i)
		}
	}
	if event.IsGenesis() {
		if event.Genesis != event.CID {
			return fmt.Errorf("%w: genesis event must be self-referential, cid=%s genesis=%s",
				models.ErrMalformedEvent, event.CID, event.Genesis)
		}
	} else if event.PrevCID() == "" {
		return fmt.Errorf("%w: empty prev", models.ErrMalformedEvent)
	}
	return nil
}
