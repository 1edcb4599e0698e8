package seeder

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/streamhub-systems/streamhub/common/logging"
	"github.com/streamhub-systems/streamhub/internal/engine"
	"github.com/streamhub-systems/streamhub/internal/models"
)

// Runner drives a scenario through the resolution engine.
type Runner struct {
	scenario Scenario
	resolver *engine.Resolver
	logger   *logging.Logger
	faker    *gofakeit.Faker
	rng      *rand.Rand
	dappID   uuid.UUID
}

// NewRunner creates a runner for the scenario.
func NewRunner(scenario Scenario, resolver *engine.Resolver, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Default()
	}
	seed := scenario.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Runner{
		scenario: scenario,
		resolver: resolver,
		logger:   logger,
		faker:    gofakeit.New(seed),
		rng:      rand.New(rand.NewSource(seed)),
		dappID:   uuid.New(),
	}
}

// Stats summarizes one seeding run.
type Stats struct {
	Streams   int
	Applied   int
	Conflicts int
	Failed    int
}

// Run creates the scenario's streams and advancement events. Intentional
// forks count as conflicts, not failures.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	for i := 0; i < r.scenario.Streams; i++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if err := r.seedStream(ctx, &stats); err != nil {
			return stats, err
		}

		if r.scenario.Interval > 0 && i < r.scenario.Streams-1 {
			time.Sleep(r.scenario.Interval)
		}
	}

	r.logger.InfoContext(ctx, "seeding complete",
		"streams", stats.Streams, "applied", stats.Applied,
		"conflicts", stats.Conflicts, "failed", stats.Failed)
	return stats, nil
}

func (r *Runner) seedStream(ctx context.Context, stats *Stats) error {
	account := fmt.Sprintf("did:pkh:%s", r.faker.Username())
	genesis := r.genesisEvent(account)

	res, err := r.resolver.SubmitEvent(ctx, genesis)
	if err != nil {
		return fmt.Errorf("failed to submit genesis: %w", err)
	}
	stats.Streams++
	stats.Applied++

	tip := res.Tip
	for j := 0; j < r.scenario.EventsPerStream; j++ {
		ev := r.advancementEvent(genesis.CID, tip)
		res, err := r.resolver.SubmitEvent(ctx, ev)
		if err != nil {
			stats.Failed++
			r.logger.WarnContext(ctx, "seed event rejected", "cid", ev.CID, "error", err)
			continue
		}
		if res.Applied {
			stats.Applied++
			tip = res.Tip
		} else {
			stats.Conflicts++
		}

		if r.scenario.ForkEvery > 0 && (j+1)%r.scenario.ForkEvery == 0 {
			// Competing event off the same parent; it must lose.
			fork := r.advancementEvent(genesis.CID, ev.PrevCID())
			forkRes, err := r.resolver.SubmitEvent(ctx, fork)
			if err != nil {
				stats.Failed++
				continue
			}
			if forkRes.Applied {
				stats.Applied++
				tip = forkRes.Tip
			} else {
				stats.Conflicts++
			}
		}
	}
	return nil
}

func (r *Runner) genesisEvent(account string) *models.Event {
	content := r.fakeContent()
	payload, _ := json.Marshal(map[string]interface{}{
		"header": map[string]interface{}{
			"dappId":  r.dappID,
			"account": account,
			"model":   r.scenario.Model,
		},
		"content": content,
	})

	cid := r.fakeCID(payload)
	return &models.Event{CID: cid, Genesis: cid, Blocks: [][]byte{payload}}
}

func (r *Runner) advancementEvent(genesis, prev string) *models.Event {
	payload, _ := json.Marshal(map[string]interface{}{
		"content": r.fakeContent(),
	})

	cid := r.fakeCID(append(payload, []byte(prev)...))
	return &models.Event{CID: cid, Prev: &prev, Genesis: genesis, Blocks: [][]byte{payload}}
}

func (r *Runner) fakeContent() map[string]interface{} {
	return map[string]interface{}{
		"contentId": r.faker.UUID(),
		"title":     r.faker.Sentence(3),
		"body":      r.faker.Paragraph(1, 2, 8, " "),
		"tags":      map[string]interface{}{"topic": r.faker.Word()},
		"revision":  r.rng.Intn(1000),
	}
}

// fakeCID derives a synthetic content hash. A nonce keeps repeated payloads
// distinct so chains never collide accidentally.
func (r *Runner) fakeCID(payload []byte) string {
	nonce := make([]byte, 8)
	r.rng.Read(nonce)
	sum := blake2b.Sum256(append(payload, nonce...))
	return "baf" + hex.EncodeToString(sum[:16])
}
