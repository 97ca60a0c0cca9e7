// Package consensus implements a Delphi-style iterative consensus builder:
// rounds of independent estimates are aggregated, the aggregate is fed back
// to participants by the caller, and the process stops when round-over-round
// movement falls below tolerance or the round cap is reached.
package consensus

import (
	"math"

	"github.com/XiaoConstantine/evo-go/pkg/aggregation"
	"github.com/XiaoConstantine/evo-go/pkg/errors"
)

// Status reports how a consensus process ended.
type Status string

const (
	StatusInProgress       Status = "in_progress"
	StatusConverged        Status = "converged"
	StatusMaxRoundsReached Status = "max_rounds_reached"
)

// Config contains configuration options for the consensus builder.
type Config struct {
	// Tolerance is the round-over-round aggregate change below which the
	// process counts as converged.
	Tolerance float64 `json:"tolerance"` // Default: 0.01

	// MaxRounds caps the number of rounds.
	MaxRounds int `json:"max_rounds"` // Default: 10

	// Aggregation selects how each round's estimates are combined.
	Aggregation *aggregation.Config `json:"aggregation"`
}

// DefaultConfig returns the default configuration for the consensus builder.
func DefaultConfig() *Config {
	return &Config{
		Tolerance:   0.01,
		MaxRounds:   10,
		Aggregation: aggregation.DefaultConfig(),
	}
}

// RoundResult summarizes one completed round.
type RoundResult struct {
	Round     int                          `json:"round"` // 1-based
	Aggregate *aggregation.AggregateResult `json:"aggregate"`

	// Delta is the absolute aggregate change against the previous round;
	// NaN for the first round, which has nothing to compare against.
	Delta float64 `json:"delta"`
}

// Result is the final outcome of a consensus process.
type Result struct {
	Status  Status                       `json:"status"`
	Rounds  int                          `json:"rounds"`
	Final   *aggregation.AggregateResult `json:"final"`
	History []RoundResult                `json:"history"`
}

// Builder drives one consensus process. The caller owns the estimate
// collection and the feedback loop between rounds; the builder only
// aggregates and judges convergence.
type Builder struct {
	config  *Config
	history []RoundResult
	status  Status
}

// NewBuilder creates a consensus builder, validating the configuration.
func NewBuilder(config *Config) (*Builder, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Tolerance <= 0 {
		return nil, errors.New(errors.InvalidConfig, "tolerance must be positive")
	}
	if config.MaxRounds < 1 {
		return nil, errors.New(errors.InvalidConfig, "max rounds must be at least 1")
	}
	if config.Aggregation == nil {
		config.Aggregation = aggregation.DefaultConfig()
	}
	return &Builder{config: config, status: StatusInProgress}, nil
}

// SubmitRound aggregates one round of estimates and updates the convergence
// state. Calling it after the process has finished is an error.
func (b *Builder) SubmitRound(estimates []aggregation.Estimate) (*RoundResult, error) {
	if b.status != StatusInProgress {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "consensus process already finished"),
			errors.Fields{"status": b.status})
	}

	aggregate, err := aggregation.Aggregate(b.config.Aggregation, estimates)
	if err != nil {
		return nil, err
	}

	round := RoundResult{
		Round:     len(b.history) + 1,
		Aggregate: aggregate,
		Delta:     math.NaN(),
	}
	if len(b.history) > 0 {
		previous := b.history[len(b.history)-1].Aggregate.Value
		round.Delta = math.Abs(aggregate.Value - previous)
		if round.Delta < b.config.Tolerance {
			b.status = StatusConverged
		}
	}
	b.history = append(b.history, round)

	if b.status == StatusInProgress && len(b.history) >= b.config.MaxRounds {
		b.status = StatusMaxRoundsReached
	}

	return &round, nil
}

// Status returns the current process status.
func (b *Builder) Status() Status {
	return b.status
}

// Done reports whether the process has finished.
func (b *Builder) Done() bool {
	return b.status != StatusInProgress
}

// Result assembles the final outcome. It is an error to ask for a result
// while the process is still in progress.
func (b *Builder) Result() (*Result, error) {
	if b.status == StatusInProgress {
		return nil, errors.New(errors.InvalidInput, "consensus process still in progress")
	}
	history := make([]RoundResult, len(b.history))
	copy(history, b.history)
	return &Result{
		Status:  b.status,
		Rounds:  len(b.history),
		Final:   b.history[len(b.history)-1].Aggregate,
		History: history,
	}, nil
}
