package doormax

import "strings"

// Require is a hypothesis's constraint on a single term: it must be
// true, must be false, or is a don't-care.
type Require int

const (
	RequireNone Require = iota
	RequireTrue
	RequireFalse
)

func requireFrom(b bool) Require {
	if b {
		return RequireTrue
	}
	return RequireFalse
}

// Hypothesis is a ConditionLearner's best guess at the pattern of terms
// that produces its associated effect: a per-term {true, false,
// don't-care} requirement.
type Hypothesis [NumTerms]Require

// hypothesisFromCondition seeds an exact hypothesis from an observed
// condition, every term pinned to its observed value.
func hypothesisFromCondition(c Condition) Hypothesis {
	var h Hypothesis
	for t, v := range c {
		h[t] = requireFrom(v)
	}
	return h
}

// CombineCond relaxes every term where cond disagrees with h to
// don't-care, returning the generalized hypothesis. This is the only
// live combine operation; an analogous Hypothesis-to-Hypothesis combine
// exists in the reference implementation but is never exercised at
// runtime there, so it has no Go counterpart here.
func (h Hypothesis) CombineCond(cond Condition) Hypothesis {
	result := h
	for t, req := range h {
		switch req {
		case RequireTrue:
			if !cond[t] {
				result[t] = RequireNone
			}
		case RequireFalse:
			if cond[t] {
				result[t] = RequireNone
			}
		}
	}
	return result
}

// Matches reports whether every non-don't-care term of h agrees with
// other's corresponding term.
func (h Hypothesis) Matches(other Hypothesis) bool {
	for t, req := range h {
		if req != RequireNone && other[t] != req {
			return false
		}
	}
	return true
}

// MatchesCond reports whether cond satisfies every non-don't-care term
// of h.
func (h Hypothesis) MatchesCond(cond Condition) bool {
	for t, req := range h {
		switch req {
		case RequireTrue:
			if !cond[t] {
				return false
			}
		case RequireFalse:
			if cond[t] {
				return false
			}
		}
	}
	return true
}

func (h Hypothesis) String() string {
	var b strings.Builder
	b.WriteString("Condition(")
	show := func(r Require) byte {
		switch r {
		case RequireTrue:
			return '1'
		case RequireFalse:
			return '0'
		default:
			return '*'
		}
	}
	for i, r := range h {
		b.WriteByte(show(r))
		if i == 3 {
			b.WriteByte(' ')
		}
	}
	b.WriteByte(')')
	return b.String()
}
