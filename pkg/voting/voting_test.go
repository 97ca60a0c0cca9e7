package voting

import (
	"testing"

	"github.com/XiaoConstantine/evo-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeOptions() []Option {
	return []Option{
		{ID: "a", Label: "Option A"},
		{ID: "b", Label: "Option B"},
		{ID: "c", Label: "Option C"},
	}
}

// TestWeightedVoting covers the reference scenario: weights 1.5/1.0/1.3 for
// A/B/C must elect A with consensus level 1.5/3.8.
func TestWeightedVoting(t *testing.T) {
	votes := []Vote{
		{AgentID: "agent-1", OptionID: "a", Weight: 1.5},
		{AgentID: "agent-2", OptionID: "b", Weight: 1.0},
		{AgentID: "agent-3", OptionID: "c", Weight: 1.3},
	}

	result, err := Decide(MethodWeighted, threeOptions(), votes)
	require.NoError(t, err)

	assert.Equal(t, "a", result.WinnerID)
	assert.InDelta(t, 1.5, result.Totals["a"], 1e-9)
	assert.InDelta(t, 1.5/3.8, result.ConsensusLevel, 1e-9)
	assert.Greater(t, result.DiversityIndex, 0.9, "nearly even three-way split")
}

// TestUnanimousDecision checks consensus 1.0 and diversity 0.0 when all
// weight lands on one option.
func TestUnanimousDecision(t *testing.T) {
	votes := []Vote{
		{AgentID: "agent-1", OptionID: "b", Weight: 2.0},
		{AgentID: "agent-2", OptionID: "b"},
		{AgentID: "agent-3", OptionID: "b", Weight: 0.5},
	}

	result, err := Decide(MethodWeighted, threeOptions(), votes)
	require.NoError(t, err)

	assert.Equal(t, "b", result.WinnerID)
	assert.Equal(t, 1.0, result.ConsensusLevel)
	assert.Equal(t, 0.0, result.DiversityIndex)
}

func TestDefaultWeight(t *testing.T) {
	votes := []Vote{
		{AgentID: "agent-1", OptionID: "a"},
		{AgentID: "agent-2", OptionID: "b"},
		{AgentID: "agent-3", OptionID: "a"},
	}

	result, err := Decide(MethodWeighted, threeOptions(), votes)
	require.NoError(t, err)
	assert.Equal(t, "a", result.WinnerID)
	assert.InDelta(t, 2.0, result.Totals["a"], 1e-9)
}

func TestPluralityIgnoresWeights(t *testing.T) {
	votes := []Vote{
		{AgentID: "agent-1", OptionID: "a", Weight: 100},
		{AgentID: "agent-2", OptionID: "b"},
		{AgentID: "agent-3", OptionID: "b"},
	}

	result, err := Decide(MethodPlurality, threeOptions(), votes)
	require.NoError(t, err)
	assert.Equal(t, "b", result.WinnerID)
	assert.Equal(t, 1.0, result.Totals["a"])
	assert.Equal(t, 2.0, result.Totals["b"])
}

func TestQuadraticVoting(t *testing.T) {
	// 100 credits buy only 10 units of influence; 16+16 credits buy 8.
	votes := []Vote{
		{AgentID: "whale", OptionID: "a", Credits: 100},
		{AgentID: "agent-2", OptionID: "b", Credits: 36},
		{AgentID: "agent-3", OptionID: "b", Credits: 36},
	}

	result, err := Decide(MethodQuadratic, threeOptions(), votes)
	require.NoError(t, err)
	assert.Equal(t, "b", result.WinnerID)
	assert.InDelta(t, 10.0, result.Totals["a"], 1e-9)
	assert.InDelta(t, 12.0, result.Totals["b"], 1e-9)

	_, err = Decide(MethodQuadratic, threeOptions(), []Vote{{AgentID: "x", OptionID: "a"}})
	require.Error(t, err)
	assert.Equal(t, errors.InvalidInput, errors.CodeOf(err))
}

func TestApprovalVoting(t *testing.T) {
	votes := []Vote{
		{AgentID: "agent-1", Approvals: []string{"a", "b"}},
		{AgentID: "agent-2", Approvals: []string{"b"}},
		{AgentID: "agent-3", Approvals: []string{"b", "c"}},
	}

	result, err := Decide(MethodApproval, threeOptions(), votes)
	require.NoError(t, err)
	assert.Equal(t, "b", result.WinnerID)
	assert.Equal(t, 3.0, result.Totals["b"])

	_, err = Decide(MethodApproval, threeOptions(), []Vote{{AgentID: "x"}})
	assert.Error(t, err, "empty approval ballot")
}

func TestBordaCount(t *testing.T) {
	votes := []Vote{
		{AgentID: "agent-1", Ranking: []string{"a", "b", "c"}},
		{AgentID: "agent-2", Ranking: []string{"b", "a", "c"}},
		{AgentID: "agent-3", Ranking: []string{"b", "c", "a"}},
	}

	result, err := Decide(MethodBorda, threeOptions(), votes)
	require.NoError(t, err)

	// b: 1+2+2 = 5, a: 2+1+0 = 3, c: 0+0+1 = 1
	assert.Equal(t, "b", result.WinnerID)
	assert.Equal(t, 5.0, result.Totals["b"])
	assert.Equal(t, 3.0, result.Totals["a"])
	assert.Equal(t, 1.0, result.Totals["c"])
}

func TestRankedChoice(t *testing.T) {
	// No first-round majority; c is eliminated and its ballot transfers to b.
	votes := []Vote{
		{AgentID: "agent-1", Ranking: []string{"a"}},
		{AgentID: "agent-2", Ranking: []string{"a"}},
		{AgentID: "agent-3", Ranking: []string{"b", "a"}},
		{AgentID: "agent-4", Ranking: []string{"b"}},
		{AgentID: "agent-5", Ranking: []string{"c", "b"}},
	}

	result, err := Decide(MethodRankedChoice, threeOptions(), votes)
	require.NoError(t, err)

	assert.Equal(t, "b", result.WinnerID)
	require.Len(t, result.Rounds, 2)
	assert.Equal(t, 1.0, result.Rounds[0]["c"])
	assert.Equal(t, 3.0, result.Rounds[1]["b"])
	assert.NotContains(t, result.Rounds[1], "c")
}

// TestRankedChoiceEliminationTieBreak pins the insertion-order rule to the
// elimination step: with a and b tied at the bottom, b (later) is eliminated,
// its ballot transfers to a, and a then takes the final tie against c.
func TestRankedChoiceEliminationTieBreak(t *testing.T) {
	votes := []Vote{
		{AgentID: "agent-1", Ranking: []string{"c"}},
		{AgentID: "agent-2", Ranking: []string{"c"}},
		{AgentID: "agent-3", Ranking: []string{"a", "c"}},
		{AgentID: "agent-4", Ranking: []string{"b", "a"}},
	}

	result, err := Decide(MethodRankedChoice, threeOptions(), votes)
	require.NoError(t, err)

	assert.Equal(t, "a", result.WinnerID)
	require.Len(t, result.Rounds, 2)
	assert.NotContains(t, result.Rounds[1], "b", "b loses the elimination tie, not a")
	assert.Equal(t, 2.0, result.Rounds[1]["a"])
	assert.Equal(t, 2.0, result.Rounds[1]["c"])
}

func TestRankedChoiceFirstRoundMajority(t *testing.T) {
	votes := []Vote{
		{AgentID: "agent-1", Ranking: []string{"a"}},
		{AgentID: "agent-2", Ranking: []string{"a"}},
		{AgentID: "agent-3", Ranking: []string{"b"}},
	}

	result, err := Decide(MethodRankedChoice, threeOptions(), votes)
	require.NoError(t, err)
	assert.Equal(t, "a", result.WinnerID)
	assert.Len(t, result.Rounds, 1)
}

// TestInsertionOrderTieBreak verifies the documented deterministic rule:
// on equal totals the earlier-inserted option wins.
func TestInsertionOrderTieBreak(t *testing.T) {
	for _, method := range []Method{MethodWeighted, MethodPlurality, MethodApproval} {
		t.Run(string(method), func(t *testing.T) {
			votes := []Vote{
				{AgentID: "agent-1", OptionID: "b", Approvals: []string{"b"}},
				{AgentID: "agent-2", OptionID: "c", Approvals: []string{"c"}},
			}
			result, err := Decide(method, threeOptions(), votes)
			require.NoError(t, err)
			assert.Equal(t, "b", result.WinnerID, "b precedes c in insertion order")
		})
	}
}

func TestDecideValidation(t *testing.T) {
	tests := []struct {
		name    string
		options []Option
		votes   []Vote
		code    errors.ErrorCode
	}{
		{"no options", nil, []Vote{{AgentID: "x", OptionID: "a"}}, errors.InsufficientInput},
		{"no votes", threeOptions(), nil, errors.InsufficientInput},
		{
			"negative weight",
			threeOptions(),
			[]Vote{{AgentID: "x", OptionID: "a", Weight: -1}},
			errors.InvalidInput,
		},
		{
			"duplicate agent",
			threeOptions(),
			[]Vote{{AgentID: "x", OptionID: "a"}, {AgentID: "x", OptionID: "b"}},
			errors.InvalidInput,
		},
		{
			"unknown option",
			threeOptions(),
			[]Vote{{AgentID: "x", OptionID: "z"}},
			errors.InvalidInput,
		},
		{
			"duplicate option id",
			[]Option{{ID: "a"}, {ID: "a"}},
			[]Vote{{AgentID: "x", OptionID: "a"}},
			errors.InvalidInput,
		},
		{
			"duplicate approval",
			threeOptions(),
			[]Vote{{AgentID: "x", Approvals: []string{"a", "a"}}},
			errors.InvalidInput,
		},
		{
			"duplicate ranking entry",
			threeOptions(),
			[]Vote{{AgentID: "x", Ranking: []string{"a", "b", "a"}}},
			errors.InvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decide(MethodWeighted, tt.options, tt.votes)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}
}

func TestUnknownMethod(t *testing.T) {
	_, err := Decide("alphabetical", threeOptions(), []Vote{{AgentID: "x", OptionID: "a"}})
	require.Error(t, err)
	assert.Equal(t, errors.InvalidConfig, errors.CodeOf(err))
}

func TestDiversityIndexBounds(t *testing.T) {
	// Perfectly even split across all options is maximally diverse.
	votes := []Vote{
		{AgentID: "agent-1", OptionID: "a"},
		{AgentID: "agent-2", OptionID: "b"},
		{AgentID: "agent-3", OptionID: "c"},
	}
	result, err := Decide(MethodWeighted, threeOptions(), votes)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, result.DiversityIndex, 1e-9)
	assert.Equal(t, "a", result.WinnerID, "tie broken by insertion order")
}
