package maxq

import (
	"fmt"
	"math"
	"math/rand"

	"taxi/runner"
	"taxi/world"
)

// MaxQ is the hierarchical learner: a fixed task Storage plus the
// hyperparameters driving its update rule.
type MaxQ struct {
	storage *Storage

	Alpha     float64
	Gamma     float64
	Epsilon   float64
	ShowTable bool
}

// New builds a MaxQ learner over w.
func New(w *world.World, alpha, gamma, epsilon float64, showTable bool) *MaxQ {
	return &MaxQ{
		storage:   NewStorage(w),
		Alpha:     alpha,
		Gamma:     gamma,
		Epsilon:   epsilon,
		ShowTable: showTable,
	}
}

// evaluateQNode returns (value, completion, action, ok) for a QNode:
// value/action come from recursively evaluating the greedy descent
// under its resolved child.
func (mq *MaxQ) evaluateQNode(qi int, w *world.World, s world.State) (float64, float64, world.Action, bool) {
	q := &mq.storage.QNodes[qi]

	completion := 0.0
	if idx, ok := q.GetCompletionIndex(w, s); ok {
		completion = q.Completion[idx]
	}

	child, ok := q.GetChild(mq.storage, s)
	if !ok {
		return 0, 0, 0, false
	}

	if child.Primitive {
		value, action := mq.storage.Primitives[child.PrimitiveIdx].Evaluate(w, s)
		return value, completion, action, true
	}

	value, _, action, ok := mq.evaluateMaxNode(child.MaxNodeIdx, w, s)
	if !ok {
		return 0, 0, 0, false
	}
	return value, completion, action, true
}

// evaluateMaxNode performs the greedy (non-learning) descent used by
// attempt/solves and by action value lookups during learning: the
// child maximizing value+completion.
func (mq *MaxQ) evaluateMaxNode(mi int, w *world.World, s world.State) (float64, int, world.Action, bool) {
	m := &mq.storage.MaxNodes[mi]
	if m.TerminalState(w, s) {
		return 0, 0, 0, false
	}

	bestQ := math.Inf(-1)
	found := false
	var bestValue float64
	var bestQNode int
	var bestAction world.Action

	for _, qi := range m.QNodes {
		value, completion, action, ok := mq.evaluateQNode(qi, w, s)
		if !ok {
			continue
		}
		q := value + completion
		if !found || q > bestQ {
			bestQ = q
			found = true
			bestValue = value
			bestQNode = qi
			bestAction = action
		}
	}

	return bestValue, bestQNode, bestAction, found
}

// evaluateQNodeLearning mirrors evaluateQNode but also surfaces the
// learning-completion value for this context.
func (mq *MaxQ) evaluateQNodeLearning(qi int, w *world.World, s world.State) (float64, float64, float64, bool) {
	q := &mq.storage.QNodes[qi]

	learningCompletion, completion := 0.0, 0.0
	if idx, ok := q.GetCompletionIndex(w, s); ok {
		learningCompletion = q.LearningCompletion[idx]
		completion = q.Completion[idx]
	}

	child, ok := q.GetChild(mq.storage, s)
	if !ok {
		return 0, 0, 0, false
	}

	var value float64
	if child.Primitive {
		value, _ = mq.storage.Primitives[child.PrimitiveIdx].Evaluate(w, s)
	} else {
		v, _, _, ok := mq.evaluateMaxNode(child.MaxNodeIdx, w, s)
		if !ok {
			return 0, 0, 0, false
		}
		value = v
	}

	return value, learningCompletion, completion, true
}

// resultStateValues picks the QNode of m maximizing value+learning
// completion, and returns the (learning, real) value pair at that
// choice -- used as the "best_next" values when folding a completed
// subtask back into its parent's completion tables.
func (mq *MaxQ) resultStateValues(mi int, w *world.World, s world.State) (float64, float64, bool) {
	m := &mq.storage.MaxNodes[mi]
	if m.TerminalState(w, s) {
		return 0, 0, false
	}

	bestQ := math.Inf(-1)
	found := false
	var bestLearning, bestReal float64

	for _, qi := range m.QNodes {
		value, learningCompletion, completion, ok := mq.evaluateQNodeLearning(qi, w, s)
		if !ok {
			continue
		}
		q := value + learningCompletion
		if !found || q > bestQ {
			bestQ = q
			found = true
			bestLearning = value + learningCompletion
			bestReal = value + completion
		}
	}

	return bestLearning, bestReal, found
}

// selectChildToLearn is the epsilon-greedy action-selection rule used
// while training: with probability epsilon, pick a uniformly random
// child QNode; otherwise pick the QNode maximizing value+learning
// completion.
func (mq *MaxQ) selectChildToLearn(mi int, w *world.World, s world.State, rng *rand.Rand) (int, bool) {
	m := &mq.storage.MaxNodes[mi]
	if len(m.QNodes) == 0 {
		return 0, false
	}

	if rng.Float64() < mq.Epsilon {
		return m.QNodes[rng.Intn(len(m.QNodes))], true
	}

	values := make([]float64, len(m.QNodes))
	anyOk := false
	for i, qi := range m.QNodes {
		value, learningCompletion, _, ok := mq.evaluateQNodeLearning(qi, w, s)
		if ok {
			values[i] = value + learningCompletion
			anyOk = true
		} else {
			values[i] = math.Inf(-1)
		}
	}
	if !anyOk {
		return 0, false
	}

	return m.QNodes[runner.ChooseTiedAction(values, rng)], true
}

// maxqQ is the recursive MaxQ-Q training procedure. It returns the
// state reached once node terminates (or the step budget runs out) and
// the sequence of states visited while inside node, oldest first.
func (mq *MaxQ) maxqQ(ref NodeRef, w *world.World, state world.State, maxSteps int, rng *rand.Rand) (world.State, []world.State) {
	if ref.Primitive {
		p := &mq.storage.Primitives[ref.PrimitiveIdx]
		reward, next := state.ApplyAction(w, p.Action)
		p.ApplyExperience(mq.Alpha, w, state, reward)
		return next, []world.State{state}
	}

	mi := ref.MaxNodeIdx
	m := &mq.storage.MaxNodes[mi]

	var seq []world.State

	for !m.TerminalState(w, state) && len(seq) < maxSteps {
		qi, ok := mq.selectChildToLearn(mi, w, state, rng)
		if !ok {
			break
		}
		q := &mq.storage.QNodes[qi]

		childRef, ok := q.GetChild(mq.storage, state)
		if !ok {
			break
		}

		nextState, childSeq := mq.maxqQ(childRef, w, state, maxSteps-len(seq), rng)

		finishedSuccessfully := true
		if !childRef.Primitive {
			finishedSuccessfully = mq.storage.MaxNodes[childRef.MaxNodeIdx].TerminalState(w, nextState)
		}

		if finishedSuccessfully {
			pseudoReward := m.LearningReward(nextState)
			bestNextLearning, bestNextReal, _ := mq.resultStateValues(mi, w, nextState)

			accumGamma := mq.Gamma
			for i := len(childSeq) - 1; i >= 0; i-- {
				idx, ok := q.GetCompletionIndex(w, childSeq[i])
				if !ok {
					continue
				}

				q.LearningCompletion[idx] = (1-mq.Alpha)*q.LearningCompletion[idx] +
					mq.Alpha*accumGamma*(pseudoReward+bestNextLearning)
				q.Completion[idx] = (1-mq.Alpha)*q.Completion[idx] +
					mq.Alpha*accumGamma*bestNextReal

				accumGamma *= mq.Gamma
			}
		}

		seq = append(seq, childSeq...)
		state = nextState
	}

	return state, seq
}

func rootRef() NodeRef {
	return NodeRef{MaxNodeIdx: 0}
}

// Learn runs one training episode starting from Root.
func (mq *MaxQ) Learn(w *world.World, state world.State, maxSteps int, rng *rand.Rand) *int {
	final, seq := mq.maxqQ(rootRef(), w, state, maxSteps, rng)
	if final.IsTerminal() {
		result := len(seq)
		return &result
	}
	return nil
}

// Attempt runs a greedy rollout from state, recording the action
// sequence taken.
func (mq *MaxQ) Attempt(w *world.World, state world.State, maxSteps int, rng *rand.Rand) runner.Attempt {
	attempt := runner.Attempt{InitialState: state}

	for step := 0; step < maxSteps; step++ {
		if state.IsTerminal() {
			attempt.Success = true
			return attempt
		}

		_, _, action, ok := mq.evaluateMaxNode(0, w, state)
		if !ok {
			break
		}
		attempt.Actions = append(attempt.Actions, action)
		_, state = state.ApplyAction(w, action)
	}

	attempt.Success = state.IsTerminal()
	return attempt
}

// Solves runs a greedy rollout and reports only success/failure.
func (mq *MaxQ) Solves(w *world.World, state world.State, maxSteps int, rng *rand.Rand) bool {
	for step := 0; step < maxSteps; step++ {
		if state.IsTerminal() {
			return true
		}
		_, _, action, ok := mq.evaluateMaxNode(0, w, state)
		if !ok {
			break
		}
		_, state = state.ApplyAction(w, action)
	}
	return state.IsTerminal()
}

// ReportTrainingResult prints the total training steps and, when
// ShowTable is set, each MaxNode's kind and child QNode indices.
func (mq *MaxQ) ReportTrainingResult(w *world.World, totalSteps int) {
	fmt.Printf("maxq: total training steps = %d\n", totalSteps)
	if !mq.ShowTable {
		return
	}
	for i, m := range mq.storage.MaxNodes {
		fmt.Printf("  node %d kind=%v qnodes=%v\n", i, m.Kind, m.QNodes)
	}
}
