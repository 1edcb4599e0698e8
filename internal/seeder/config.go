// Package seeder generates synthetic stream activity for local development
// and load testing. Events carry fabricated content hashes; the engine treats
// cids as opaque so the chains resolve like real ones.
package seeder

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario describes one seeding run.
type Scenario struct {
	// Streams is the number of streams to create.
	Streams int `yaml:"streams"`

	// EventsPerStream is how many advancement events follow each genesis.
	EventsPerStream int `yaml:"events_per_stream"`

	// ForkEvery injects a competing event at every Nth advancement to
	// exercise tip conflicts. Zero disables forking.
	ForkEvery int `yaml:"fork_every"`

	// Model is the declared model id of the generated streams.
	Model string `yaml:"model"`

	// Interval is the pause between submissions.
	Interval time.Duration `yaml:"interval"`

	// Seed fixes the random source for reproducible runs. Zero picks a
	// time-based seed.
	Seed int64 `yaml:"seed"`
}

// DefaultScenario returns a small scenario suitable for local runs.
func DefaultScenario() Scenario {
	return Scenario{
		Streams:         10,
		EventsPerStream: 5,
		ForkEvery:       4,
		Model:           "note-v1",
	}
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario: %w", err)
	}

	s := DefaultScenario()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("failed to parse scenario: %w", err)
	}

	if s.Streams <= 0 {
		return Scenario{}, fmt.Errorf("scenario must create at least one stream")
	}
	if s.EventsPerStream < 0 {
		return Scenario{}, fmt.Errorf("events_per_stream must not be negative")
	}
	return s, nil
}
