package dao

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRulesEvaluate(t *testing.T) {
	t.Parallel()

	rules := Rules{Quorum: WholeWeight(1), Majority: 51}
	tests := []struct {
		name        string
		tally       Tally
		outstanding Weight
		deadline    bool
		want        Decision
	}{
		{"nothing cast", Tally{}, 300, false, Undecided},
		{"nothing cast at deadline", Tally{}, 300, true, DecidedReject},
		{"sole voter approves", Tally{Yes: 100}, 0, false, DecidedPass},
		{"sole voter rejects", Tally{No: 100}, 0, false, DecidedReject},
		{"yes could still be outvoted", Tally{Yes: 300}, 300, false, Undecided},
		{"yes holds against every outstanding reject", Tally{Yes: 700}, 600, false, DecidedPass},
		{"no cannot be overcome", Tally{No: 700}, 600, false, DecidedReject},
		{"three to one", Tally{Yes: 300, No: 100}, 0, false, DecidedPass},
		{"even split fails majority", Tally{Yes: 300, No: 300}, 0, false, DecidedReject},
		{"deadline with minority yes", Tally{Yes: 100, No: 200}, 300, true, DecidedReject},
		{"deadline with majority yes", Tally{Yes: 200, No: 100}, 300, true, DecidedPass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rules.Evaluate(tt.tally, tt.outstanding, tt.deadline))
		})
	}
}

func TestRulesQuorum(t *testing.T) {
	t.Parallel()

	rules := Rules{Quorum: WholeWeight(3), Majority: 51}
	assert.False(t, rules.Passes(Tally{Yes: 200}))
	assert.True(t, rules.Passes(Tally{Yes: 300}))
	// short of quorum with nobody left to vote waits for the deadline
	assert.Equal(t, Undecided, rules.Evaluate(Tally{Yes: 100}, 100, false))
	assert.Equal(t, Undecided, rules.Evaluate(Tally{Yes: 100}, 0, false))
	assert.Equal(t, DecidedReject, rules.Evaluate(Tally{Yes: 100}, 0, true))
	// a losing share is still rejected early without quorum
	assert.Equal(t, DecidedReject, rules.Evaluate(Tally{No: 100}, 0, false))
}

func TestSharePercentFloors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(0), SharePercent(1, 0))
	assert.Equal(t, uint64(50), SharePercent(101, 201))
	assert.Equal(t, uint64(75), SharePercent(300, 400))
}
