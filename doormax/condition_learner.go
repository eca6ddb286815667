package doormax

// ConditionLearner tracks which relational conditions produce a single
// fixed effect: the conditions it has observed the effect under, the
// conditions it has observed the effect's absence under, and a best
// hypothesis generalized from the former.
type ConditionLearner struct {
	trueConditions  []Condition
	falseConditions []Condition
	best            *Hypothesis
}

// NewConditionLearner seeds a learner with every possible condition as
// both an initial true and false candidate, matching the reference
// implementation's "all conditions are plausible until observed
// otherwise" starting point.
func NewConditionLearner() *ConditionLearner {
	return &ConditionLearner{
		trueConditions:  EnumerateAll(),
		falseConditions: EnumerateAll(),
	}
}

// Predict reports whether this learner's effect is expected under
// condition: (true, true) if the effect is predicted to occur, (false,
// true) if it is predicted not to occur, and (_, false) if the learner
// cannot yet decide.
func (cl *ConditionLearner) Predict(cond Condition) (occurs bool, known bool) {
	hasFailure := containsCondition(cl.falseConditions, cond)
	hasTrue := containsCondition(cl.trueConditions, cond)

	if cl.best == nil {
		return !hasFailure, !hasFailure
	}

	if cl.best.MatchesCond(cond) {
		return !hasFailure, !hasFailure
	}

	if hasFailure && !hasTrue {
		return false, true
	}
	return false, false
}

// ApplyExperience folds one observation in: truth=true relaxes the best
// hypothesis to cover cond (or seeds it exactly, if this is the first
// observation); truth=false removes cond from the set of observed
// true-conditions.
func (cl *ConditionLearner) ApplyExperience(cond Condition, truth bool) {
	if truth {
		if cl.best == nil {
			h := hypothesisFromCondition(cond)
			cl.best = &h
		} else {
			combined := cl.best.CombineCond(cond)
			cl.best = &combined
		}

		best := *cl.best
		filtered := cl.falseConditions[:0]
		for _, c := range cl.falseConditions {
			if !best.MatchesCond(c) {
				filtered = append(filtered, c)
			}
		}
		cl.falseConditions = filtered
		return
	}

	filtered := cl.trueConditions[:0]
	for _, c := range cl.trueConditions {
		if c != cond {
			filtered = append(filtered, c)
		}
	}
	cl.trueConditions = filtered
}

// RemoveOverlap drops any of cl's observed true-conditions that
// other's best hypothesis also claims, used when a sibling learner is
// allocated for a newly distinguished effect.
func (cl *ConditionLearner) RemoveOverlap(other *ConditionLearner) {
	if other.best == nil {
		return
	}
	filtered := cl.trueConditions[:0]
	for _, c := range cl.trueConditions {
		if !other.best.MatchesCond(c) {
			filtered = append(filtered, c)
		}
	}
	cl.trueConditions = filtered
}

// Overlaps reports whether either best hypothesis matches the other
// (every constrained term of one is required identically by the other),
// a sign the relational assumption (one effect per condition) has been
// violated. Hypotheses that constrain disjoint terms are not reported.
func (cl *ConditionLearner) Overlaps(other *ConditionLearner) bool {
	if cl.best == nil || other.best == nil {
		return false
	}
	return cl.best.Matches(*other.best) || other.best.Matches(*cl.best)
}

func (cl *ConditionLearner) String() string {
	if cl.best == nil {
		return "None"
	}
	return cl.best.String()
}

func containsCondition(conds []Condition, target Condition) bool {
	for _, c := range conds {
		if c == target {
			return true
		}
	}
	return false
}
