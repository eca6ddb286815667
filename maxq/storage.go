// Package maxq implements MaxQ-Q: hierarchical reinforcement learning
// over a fixed task decomposition (Root -> {Get, Put}, Get ->
// {Navigate(site)..., PickUp}, Put -> {Navigate(site)..., DropOff},
// Navigate(id) -> {N, S, E, W}).
package maxq

import "taxi/world"

// InitialPrimitiveValue is the mild optimism constant primitive node
// values are seeded with.
const InitialPrimitiveValue = 0.123

// MaxNodeKind discriminates the four composite task types.
type MaxNodeKind int

const (
	NodeRoot MaxNodeKind = iota
	NodeGet
	NodePut
	NodeNavigate
)

// MaxNode is a composite task: a termination predicate plus an ordered
// list of child QNode indices.
type MaxNode struct {
	Kind    MaxNodeKind
	SiteID  rune // only meaningful when Kind == NodeNavigate
	QNodes  []int
}

// QNodeKind discriminates the ten QNode mediator types.
type QNodeKind int

const (
	QGet QNodeKind = iota
	QNavigateForGet
	QPickUp
	QPut
	QNavigateForPut
	QDropOff
	QNorth
	QSouth
	QEast
	QWest
)

// QNode mediates a parent->child edge: it owns the completion and
// learning-completion tables, indexed by a child-specific context.
type QNode struct {
	Kind               QNodeKind
	SiteID             rune // only meaningful for QNorth/QSouth/QEast/QWest
	Completion         []float64
	LearningCompletion []float64
}

// PrimitiveNode is a leaf task: one of the six environment actions.
type PrimitiveNode struct {
	Action world.Action
	Values []float64
}

// NodeRef is a discriminated reference to either a primitive or a
// composite (MaxNode) child, as resolved from a QNode.
type NodeRef struct {
	Primitive    bool
	PrimitiveIdx int
	MaxNodeIdx   int
}

// Storage holds every node in the fixed task hierarchy, built once per
// world.
type Storage struct {
	World      *world.World
	MaxNodes   []MaxNode
	QNodes     []QNode
	Primitives []PrimitiveNode
	numSites   int
	taxiCount  int
}

// NewStorage builds the complete, fixed task hierarchy for w.
func NewStorage(w *world.World) *Storage {
	numSites := w.NumFixedPositions()
	taxiCount := w.Width * w.Height

	s := &Storage{World: w, numSites: numSites, taxiCount: taxiCount}
	s.buildPrimitives()
	s.buildQNodes()
	s.buildMaxNodes()
	return s
}

func (s *Storage) buildPrimitives() {
	s.Primitives = make([]PrimitiveNode, world.NumActions)
	for _, a := range world.Actions {
		numValues := 1
		if a == world.PickUp || a == world.DropOff {
			numValues = 2
		}
		values := make([]float64, numValues)
		for i := range values {
			values[i] = InitialPrimitiveValue
		}
		s.Primitives[a.Index()] = PrimitiveNode{Action: a, Values: values}
	}
}

// completionSize returns the context-table size for a QNode kind.
func (s *Storage) completionSize(kind QNodeKind) int {
	switch kind {
	case QGet:
		return s.numSites * s.numSites
	case QNavigateForGet, QNavigateForPut:
		return s.numSites
	case QPickUp, QDropOff:
		return s.numSites * s.taxiCount
	case QPut:
		return 0
	default: // QNorth, QSouth, QEast, QWest
		return s.taxiCount
	}
}

func (s *Storage) newQNode(kind QNodeKind, siteID rune) QNode {
	size := s.completionSize(kind)
	return QNode{
		Kind:               kind,
		SiteID:             siteID,
		Completion:         make([]float64, size),
		LearningCompletion: make([]float64, size),
	}
}

// QNodeIndex computes the fixed index for a QNode of the given kind
// (and, for directional kinds, the Navigate(id) it is parameterized by).
func (s *Storage) QNodeIndex(kind QNodeKind, siteID rune) int {
	switch kind {
	case QGet:
		return 0
	case QNavigateForGet:
		return 1
	case QPickUp:
		return 2
	case QPut:
		return 3
	case QNavigateForPut:
		return 4
	case QDropOff:
		return 5
	case QNorth:
		idx, _ := s.World.FixedIndex(siteID)
		return 6 + idx
	case QSouth:
		idx, _ := s.World.FixedIndex(siteID)
		return 6 + s.numSites + idx
	case QEast:
		idx, _ := s.World.FixedIndex(siteID)
		return 6 + 2*s.numSites + idx
	case QWest:
		idx, _ := s.World.FixedIndex(siteID)
		return 6 + 3*s.numSites + idx
	}
	return -1
}

func (s *Storage) buildQNodes() {
	s.QNodes = make([]QNode, 6+4*s.numSites)
	s.QNodes[s.QNodeIndex(QGet, 0)] = s.newQNode(QGet, 0)
	s.QNodes[s.QNodeIndex(QNavigateForGet, 0)] = s.newQNode(QNavigateForGet, 0)
	s.QNodes[s.QNodeIndex(QPickUp, 0)] = s.newQNode(QPickUp, 0)
	s.QNodes[s.QNodeIndex(QPut, 0)] = s.newQNode(QPut, 0)
	s.QNodes[s.QNodeIndex(QNavigateForPut, 0)] = s.newQNode(QNavigateForPut, 0)
	s.QNodes[s.QNodeIndex(QDropOff, 0)] = s.newQNode(QDropOff, 0)

	for i := 0; i < s.numSites; i++ {
		id, _ := s.World.FixedIDFromIndex(i)
		s.QNodes[s.QNodeIndex(QNorth, id)] = s.newQNode(QNorth, id)
	}
	for i := 0; i < s.numSites; i++ {
		id, _ := s.World.FixedIDFromIndex(i)
		s.QNodes[s.QNodeIndex(QSouth, id)] = s.newQNode(QSouth, id)
	}
	for i := 0; i < s.numSites; i++ {
		id, _ := s.World.FixedIDFromIndex(i)
		s.QNodes[s.QNodeIndex(QEast, id)] = s.newQNode(QEast, id)
	}
	for i := 0; i < s.numSites; i++ {
		id, _ := s.World.FixedIDFromIndex(i)
		s.QNodes[s.QNodeIndex(QWest, id)] = s.newQNode(QWest, id)
	}
}

// MaxNodeIndex computes the fixed index for a MaxNode of the given
// kind (and, for NodeNavigate, the site it targets).
func (s *Storage) MaxNodeIndex(kind MaxNodeKind, siteID rune) int {
	switch kind {
	case NodeRoot:
		return 0
	case NodeGet:
		return 1
	case NodePut:
		return 2
	case NodeNavigate:
		idx, _ := s.World.FixedIndex(siteID)
		return 3 + idx
	}
	return -1
}

func (s *Storage) buildMaxNodes() {
	s.MaxNodes = make([]MaxNode, 3+s.numSites)

	s.MaxNodes[0] = MaxNode{
		Kind:   NodeRoot,
		QNodes: []int{s.QNodeIndex(QGet, 0), s.QNodeIndex(QPut, 0)},
	}
	s.MaxNodes[1] = MaxNode{
		Kind:   NodeGet,
		QNodes: []int{s.QNodeIndex(QPickUp, 0), s.QNodeIndex(QNavigateForGet, 0)},
	}
	s.MaxNodes[2] = MaxNode{
		Kind:   NodePut,
		QNodes: []int{s.QNodeIndex(QDropOff, 0), s.QNodeIndex(QNavigateForPut, 0)},
	}

	for i := 0; i < s.numSites; i++ {
		id, _ := s.World.FixedIDFromIndex(i)
		s.MaxNodes[s.MaxNodeIndex(NodeNavigate, id)] = MaxNode{
			Kind:   NodeNavigate,
			SiteID: id,
			QNodes: []int{
				s.QNodeIndex(QNorth, id),
				s.QNodeIndex(QSouth, id),
				s.QNodeIndex(QEast, id),
				s.QNodeIndex(QWest, id),
			},
		}
	}
}

func taxiIndex(w *world.World, s world.State) int {
	return s.Taxi.Y*w.Width + s.Taxi.X
}

// GetValueIndex returns the pseudo-context slot for a primitive node:
// 2 slots for PickUp/DropOff (at the relevant site or not), 1 for
// directional movement (reward is state-invariant).
func (p *PrimitiveNode) GetValueIndex(w *world.World, s world.State) int {
	switch p.Action {
	case world.PickUp:
		if s.Passenger != nil {
			if pos, ok := w.FixedPosition(*s.Passenger); ok && pos == s.Taxi {
				return 0
			}
		}
		return 1
	case world.DropOff:
		if id, ok := w.FixedID(s.Taxi); ok && s.Passenger == nil && id == s.Destination {
			return 0
		}
		return 1
	default:
		return 0
	}
}

// Evaluate returns this primitive's current value estimate and its
// action.
func (p *PrimitiveNode) Evaluate(w *world.World, s world.State) (float64, world.Action) {
	idx := p.GetValueIndex(w, s)
	return p.Values[idx], p.Action
}

// ApplyExperience folds one observed reward into the relevant slot.
func (p *PrimitiveNode) ApplyExperience(alpha float64, w *world.World, s world.State, reward float64) {
	idx := p.GetValueIndex(w, s)
	p.Values[idx] = (1-alpha)*p.Values[idx] + alpha*reward
}

// GetCompletionIndex resolves the context slot for this QNode at state
// s, or false if this QNode has no completion table (Put) or the
// required tag is currently unavailable.
func (q *QNode) GetCompletionIndex(w *world.World, s world.State) (int, bool) {
	switch q.Kind {
	case QGet:
		if s.Passenger == nil {
			return 0, false
		}
		passIdx, ok := w.FixedIndex(*s.Passenger)
		if !ok {
			return 0, false
		}
		destIdx, ok := w.FixedIndex(s.Destination)
		if !ok {
			return 0, false
		}
		return passIdx*w.NumFixedPositions() + destIdx, true

	case QNavigateForGet:
		if s.Passenger == nil {
			return 0, false
		}
		return w.FixedIndex(*s.Passenger)

	case QPickUp:
		if s.Passenger == nil {
			return 0, false
		}
		passIdx, ok := w.FixedIndex(*s.Passenger)
		if !ok {
			return 0, false
		}
		return passIdx*(w.Width*w.Height) + taxiIndex(w, s), true

	case QPut:
		return 0, false

	case QNavigateForPut:
		return w.FixedIndex(s.Destination)

	case QDropOff:
		destIdx, ok := w.FixedIndex(s.Destination)
		if !ok {
			return 0, false
		}
		return destIdx*(w.Width*w.Height) + taxiIndex(w, s), true

	default: // QNorth, QSouth, QEast, QWest
		return taxiIndex(w, s), true
	}
}

// GetChild resolves which node this QNode delegates to at state s.
func (q *QNode) GetChild(storage *Storage, s world.State) (NodeRef, bool) {
	switch q.Kind {
	case QGet:
		return NodeRef{MaxNodeIdx: storage.MaxNodeIndex(NodeGet, 0)}, true
	case QNavigateForGet:
		if s.Passenger == nil {
			return NodeRef{}, false
		}
		return NodeRef{MaxNodeIdx: storage.MaxNodeIndex(NodeNavigate, *s.Passenger)}, true
	case QPickUp:
		return NodeRef{Primitive: true, PrimitiveIdx: world.PickUp.Index()}, true
	case QPut:
		return NodeRef{MaxNodeIdx: storage.MaxNodeIndex(NodePut, 0)}, true
	case QNavigateForPut:
		return NodeRef{MaxNodeIdx: storage.MaxNodeIndex(NodeNavigate, s.Destination)}, true
	case QDropOff:
		return NodeRef{Primitive: true, PrimitiveIdx: world.DropOff.Index()}, true
	case QNorth:
		return NodeRef{Primitive: true, PrimitiveIdx: world.North.Index()}, true
	case QSouth:
		return NodeRef{Primitive: true, PrimitiveIdx: world.South.Index()}, true
	case QEast:
		return NodeRef{Primitive: true, PrimitiveIdx: world.East.Index()}, true
	case QWest:
		return NodeRef{Primitive: true, PrimitiveIdx: world.West.Index()}, true
	}
	return NodeRef{}, false
}

// TerminalState reports whether state s has reached this MaxNode's
// termination predicate.
func (m *MaxNode) TerminalState(w *world.World, s world.State) bool {
	switch m.Kind {
	case NodeRoot:
		return s.IsTerminal()
	case NodeGet:
		return s.Passenger == nil
	case NodePut:
		return s.Passenger != nil
	case NodeNavigate:
		pos, ok := w.FixedPosition(m.SiteID)
		return ok && pos == s.Taxi
	}
	return false
}

// LearningReward is the pseudo-reward applied only inside Put's
// learning completion: -100 unless the passenger has in fact been
// delivered.
func (m *MaxNode) LearningReward(s world.State) float64 {
	if m.Kind == NodePut {
		if s.IsTerminal() {
			return 0.0
		}
		return -100.0
	}
	return 0.0
}
