// Package voting implements the collective-decision engine: multiple voting
// methods over weighted ballots, consensus-level computation, and an
// entropy-based diversity index. Every decision is a single pure call over
// caller-owned options and votes.
package voting

import (
	"math"

	"github.com/XiaoConstantine/evo-go/pkg/errors"
)

// Method identifies a voting method.
type Method string

const (
	MethodWeighted     Method = "weighted"
	MethodQuadratic    Method = "quadratic"
	MethodRankedChoice Method = "ranked_choice"
	MethodApproval     Method = "approval"
	MethodPlurality    Method = "plurality"
	MethodBorda        Method = "borda"
)

// Option is a stable choice identity with a display label.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Vote is one agent's ballot. Which fields matter depends on the method:
// OptionID for weighted/quadratic/plurality, Approvals for approval voting,
// Ranking (most preferred first) for ranked-choice and Borda. Weight defaults
// to 1.0 when zero; Credits feeds quadratic voting.
type Vote struct {
	AgentID   string   `json:"agent_id"`
	OptionID  string   `json:"option_id,omitempty"`
	Weight    float64  `json:"weight,omitempty"`
	Credits   float64  `json:"credits,omitempty"`
	Approvals []string `json:"approvals,omitempty"`
	Ranking   []string `json:"ranking,omitempty"`
}

// effectiveWeight applies the default-1.0 rule.
func (v Vote) effectiveWeight() float64 {
	if v.Weight == 0 {
		return 1.0
	}
	return v.Weight
}

// DecisionResult is the immutable outcome of one decision call.
type DecisionResult struct {
	Method   Method             `json:"method"`
	WinnerID string             `json:"winner_id"`
	Totals   map[string]float64 `json:"totals"`

	// ConsensusLevel is the winner's share of total vote weight, in [0, 1].
	ConsensusLevel float64 `json:"consensus_level"`

	// DiversityIndex is the normalized entropy of the vote-share
	// distribution: 0 when unanimous, 1 when maximally spread.
	DiversityIndex float64 `json:"diversity_index"`

	// Rounds records per-round totals for ranked-choice; nil otherwise.
	Rounds []map[string]float64 `json:"rounds,omitempty"`
}

// Decide runs one decision over the options and votes with the given method.
// Ties are broken deterministically by option insertion order: the earlier
// option wins. A decision with zero total weight fails with InsufficientInput.
func Decide(method Method, options []Option, votes []Vote) (*DecisionResult, error) {
	if err := validate(options, votes); err != nil {
		return nil, err
	}

	switch method {
	case MethodWeighted:
		return tallySingleChoice(method, options, votes, func(v Vote) float64 {
			return v.effectiveWeight()
		})
	case MethodPlurality:
		// One agent, one unit of influence, regardless of declared weight.
		return tallySingleChoice(method, options, votes, func(v Vote) float64 {
			return 1.0
		})
	case MethodQuadratic:
		for _, v := range votes {
			if v.Credits <= 0 {
				return nil, errors.WithFields(
					errors.New(errors.InvalidInput, "quadratic voting requires positive credits"),
					errors.Fields{"agent": v.AgentID, "credits": v.Credits})
			}
		}
		return tallySingleChoice(method, options, votes, func(v Vote) float64 {
			return math.Sqrt(v.Credits)
		})
	case MethodApproval:
		return tallyApproval(options, votes)
	case MethodBorda:
		return tallyBorda(options, votes)
	case MethodRankedChoice:
		return tallyRankedChoice(options, votes)
	default:
		return nil, errors.Newf(errors.InvalidConfig, "unknown voting method %q", method)
	}
}

// validate enforces the ballot invariants shared by every method.
func validate(options []Option, votes []Vote) error {
	if len(options) == 0 {
		return errors.New(errors.InsufficientInput, "no voting options supplied")
	}
	if len(votes) == 0 {
		return errors.New(errors.InsufficientInput, "no votes supplied")
	}

	known := make(map[string]struct{}, len(options))
	for _, o := range options {
		if _, dup := known[o.ID]; dup {
			return errors.WithFields(
				errors.New(errors.InvalidInput, "duplicate option id"),
				errors.Fields{"option": o.ID})
		}
		known[o.ID] = struct{}{}
	}

	agents := make(map[string]struct{}, len(votes))
	for _, v := range votes {
		if v.Weight < 0 {
			return errors.WithFields(
				errors.New(errors.InvalidInput, "vote weight must be positive"),
				errors.Fields{"agent": v.AgentID, "weight": v.Weight})
		}
		if _, dup := agents[v.AgentID]; dup {
			return errors.WithFields(
				errors.New(errors.InvalidInput, "agent cast more than one vote"),
				errors.Fields{"agent": v.AgentID})
		}
		agents[v.AgentID] = struct{}{}

		for _, list := range [][]string{v.Approvals, v.Ranking} {
			listed := make(map[string]struct{}, len(list))
			for _, id := range list {
				if _, ok := known[id]; !ok {
					return errors.WithFields(
						errors.New(errors.InvalidInput, "ballot references unknown option"),
						errors.Fields{"agent": v.AgentID, "option": id})
				}
				if _, dup := listed[id]; dup {
					return errors.WithFields(
						errors.New(errors.InvalidInput, "ballot lists an option more than once"),
						errors.Fields{"agent": v.AgentID, "option": id})
				}
				listed[id] = struct{}{}
			}
		}
		if v.OptionID != "" {
			if _, ok := known[v.OptionID]; !ok {
				return errors.WithFields(
					errors.New(errors.InvalidInput, "ballot references unknown option"),
					errors.Fields{"agent": v.AgentID, "option": v.OptionID})
			}
		}
	}
	return nil
}

// tallySingleChoice covers the methods where each ballot backs exactly one
// option with some effective weight.
func tallySingleChoice(method Method, options []Option, votes []Vote, weightOf func(Vote) float64) (*DecisionResult, error) {
	totals := zeroTotals(options)
	for _, v := range votes {
		if v.OptionID == "" {
			return nil, errors.WithFields(
				errors.New(errors.InvalidInput, "ballot is missing a chosen option"),
				errors.Fields{"agent": v.AgentID, "method": method})
		}
		totals[v.OptionID] += weightOf(v)
	}
	return finalize(method, options, totals, nil)
}

// tallyApproval credits the full ballot weight to every approved option.
func tallyApproval(options []Option, votes []Vote) (*DecisionResult, error) {
	totals := zeroTotals(options)
	for _, v := range votes {
		if len(v.Approvals) == 0 {
			return nil, errors.WithFields(
				errors.New(errors.InvalidInput, "approval ballot approves nothing"),
				errors.Fields{"agent": v.AgentID})
		}
		for _, id := range v.Approvals {
			totals[id] += v.effectiveWeight()
		}
	}
	return finalize(MethodApproval, options, totals, nil)
}

// tallyBorda scores m-1 points for a ballot's first preference down to 0 for
// its last; unranked options score 0. Points scale with ballot weight.
func tallyBorda(options []Option, votes []Vote) (*DecisionResult, error) {
	totals := zeroTotals(options)
	m := len(options)
	for _, v := range votes {
		if len(v.Ranking) == 0 {
			return nil, errors.WithFields(
				errors.New(errors.InvalidInput, "borda ballot has no ranking"),
				errors.Fields{"agent": v.AgentID})
		}
		for position, id := range v.Ranking {
			totals[id] += v.effectiveWeight() * float64(m-1-position)
		}
	}
	return finalize(MethodBorda, options, totals, nil)
}

// tallyRankedChoice runs instant-runoff rounds: eliminate the lowest-total
// option and transfer its ballots to their next surviving preference until
// one option holds a majority of the remaining weight.
func tallyRankedChoice(options []Option, votes []Vote) (*DecisionResult, error) {
	for _, v := range votes {
		if len(v.Ranking) == 0 {
			return nil, errors.WithFields(
				errors.New(errors.InvalidInput, "ranked-choice ballot has no ranking"),
				errors.Fields{"agent": v.AgentID})
		}
	}

	eliminated := make(map[string]bool)
	var rounds []map[string]float64

	for {
		totals := zeroTotals(options)
		active := 0.0
		for _, v := range votes {
			for _, id := range v.Ranking {
				if !eliminated[id] {
					totals[id] += v.effectiveWeight()
					active += v.effectiveWeight()
					break
				}
			}
		}
		for id := range eliminated {
			delete(totals, id)
		}
		rounds = append(rounds, totals)

		if active == 0 {
			return nil, errors.New(errors.InsufficientInput, "no remaining preferences carry any weight")
		}

		// Majority of remaining weight wins; with two options left the
		// leader wins outright.
		_, leaderTotal := leading(options, totals)
		if leaderTotal > active/2 || len(totals) <= 2 {
			return finalize(MethodRankedChoice, options, totals, rounds)
		}

		// Eliminate the lowest total; insertion-order tie-break keeps the
		// earlier option alive, so among tied losers the latest one goes.
		loser := ""
		loserTotal := math.Inf(1)
		for i := len(options) - 1; i >= 0; i-- {
			id := options[i].ID
			if eliminated[id] {
				continue
			}
			if totals[id] < loserTotal {
				loser = id
				loserTotal = totals[id]
			}
		}
		eliminated[loser] = true
	}
}

// zeroTotals initializes a totals map covering every option.
func zeroTotals(options []Option) map[string]float64 {
	totals := make(map[string]float64, len(options))
	for _, o := range options {
		totals[o.ID] = 0
	}
	return totals
}

// leading returns the option with the highest total, breaking ties by option
// insertion order.
func leading(options []Option, totals map[string]float64) (string, float64) {
	winner := ""
	best := math.Inf(-1)
	for _, o := range options {
		total, ok := totals[o.ID]
		if !ok {
			continue
		}
		if total > best {
			winner = o.ID
			best = total
		}
	}
	return winner, best
}

// finalize computes the winner, consensus level and diversity index from the
// final totals.
func finalize(method Method, options []Option, totals map[string]float64, rounds []map[string]float64) (*DecisionResult, error) {
	overall := 0.0
	for _, t := range totals {
		overall += t
	}
	if overall <= 0 {
		return nil, errors.New(errors.InsufficientInput, "decision carries zero total vote weight")
	}

	winner, winnerTotal := leading(options, totals)

	return &DecisionResult{
		Method:         method,
		WinnerID:       winner,
		Totals:         totals,
		ConsensusLevel: winnerTotal / overall,
		DiversityIndex: diversityIndex(totals, overall),
		Rounds:         rounds,
	}, nil
}

// diversityIndex computes the normalized Shannon entropy of the vote-share
// distribution. A single-option decision has no spread by definition.
func diversityIndex(totals map[string]float64, overall float64) float64 {
	if len(totals) < 2 {
		return 0
	}
	entropy := 0.0
	for _, t := range totals {
		if t <= 0 {
			continue
		}
		share := t / overall
		entropy -= share * math.Log(share)
	}
	return entropy / math.Log(float64(len(totals)))
}
