package dao

// Decision is the outcome of evaluating a tally.
type Decision uint8

const (
	Undecided Decision = iota
	DecidedPass
	DecidedReject
)

func (d Decision) String() string {
	switch d {
	case DecidedPass:
		return "pass"
	case DecidedReject:
		return "reject"
	default:
		return "undecided"
	}
}

type Tally struct {
	Yes Weight
	No  Weight
}

func (t Tally) Cast() Weight {
	return t.Yes + t.No
}

// Rules holds the thresholds a tally is evaluated against.
type Rules struct {
	Quorum   Weight
	Majority uint64
}

// Passes reports whether a final tally passes: some weight was cast, the cast
// weight meets the quorum and the floored yes share meets the majority.
func (r Rules) Passes(t Tally) bool {
	cast := t.Cast()
	return cast > 0 && cast >= r.Quorum && SharePercent(t.Yes, cast) >= r.Majority
}

// Evaluate decides a tally. outstanding is the largest weight that members
// who have not voted yet could still add. Before the deadline a decision is
// only taken when no way of casting the outstanding weight changes it. A
// quorum out of reach of the current members is left for the deadline.
func (r Rules) Evaluate(t Tally, outstanding Weight, deadlinePassed bool) Decision {
	if deadlinePassed {
		if r.Passes(t) {
			return DecidedPass
		}
		return DecidedReject
	}
	cast := t.Cast()
	if cast == 0 {
		return Undecided
	}
	total := uint64(cast + outstanding)
	// every outstanding vote is a reject and the share still holds
	if cast >= r.Quorum && uint64(t.Yes)*100 >= r.Majority*total {
		return DecidedPass
	}
	// every outstanding vote is an approve and the share still fails
	if uint64(t.Yes+outstanding)*100 < r.Majority*total {
		return DecidedReject
	}
	return Undecided
}
