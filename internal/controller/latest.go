package controller

// Role tells whether a value was commanded or measured.
type Role int

const (
	Setpoint Role = iota
	Actual
)

func (r Role) String() string {
	if r == Setpoint {
		return "setpoint"
	}
	return "actual"
}

// Values maps each axis of a controller to a scalar.
type Values map[Axis]float64

// Reading is one decoded contribution to a controller.
type Reading struct {
	Controller ID
	Role       Role
	Values     Values
}

type pair struct {
	setpoint Values
	actual   Values
}

// Latest latches the most recent setpoint and actual per controller.
// Later readings replace earlier ones wholesale.
type Latest struct {
	pairs map[ID]*pair
}

// NewLatest returns an empty latch.
func NewLatest() *Latest {
	return &Latest{pairs: make(map[ID]*pair)}
}

// Apply stores a reading.
func (l *Latest) Apply(r Reading) {
	p, ok := l.pairs[r.Controller]
	if !ok {
		p = &pair{}
		l.pairs[r.Controller] = p
	}
	values := make(Values, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	if r.Role == Setpoint {
		p.setpoint = values
	} else {
		p.actual = values
	}
}

// Ready reports whether both a setpoint and an actual have been seen for id.
func (l *Latest) Ready(id ID) bool {
	p, ok := l.pairs[id]
	return ok && p.setpoint != nil && p.actual != nil
}

// Pair returns the latched setpoint and actual of one axis.
func (l *Latest) Pair(id ID, axis Axis) (setpoint, actual float64, ok bool) {
	if !l.Ready(id) {
		return 0, 0, false
	}
	p := l.pairs[id]
	sp, ok1 := p.setpoint[axis]
	act, ok2 := p.actual[axis]
	return sp, act, ok1 && ok2
}

// Reset forgets every latched value.
func (l *Latest) Reset() {
	l.pairs = make(map[ID]*pair)
}
