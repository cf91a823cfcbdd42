package qubit

import (
	"fmt"
	"sort"
)

// Qubit is an immutable planar coordinate identifying a physical qubit.
// Components are float64 so that flag qubits can sit at half-integer
// offsets from their auxiliary partner; data and auxiliary qubits always
// land on integer lattice points.
type Qubit struct {
	X float64
	Y float64
}

// New returns the qubit at (x, y).
func New(x, y float64) Qubit {
	return Qubit{X: x, Y: y}
}

// Add returns the component-wise sum of q and other.
func (q Qubit) Add(other Qubit) Qubit {
	return Qubit{X: q.X + other.X, Y: q.Y + other.Y}
}

// Sub returns the component-wise difference of q and other.
func (q Qubit) Sub(other Qubit) Qubit {
	return Qubit{X: q.X - other.X, Y: q.Y - other.Y}
}

// Scale returns q scaled uniformly by k.
func (q Qubit) Scale(k float64) Qubit {
	return Qubit{X: q.X * k, Y: q.Y * k}
}

// Less reports whether q precedes other in the canonical (y, x) order.
// Every index assignment in the circuit relies on this ordering.
func (q Qubit) Less(other Qubit) bool {
	if q.Y != other.Y {
		return q.Y < other.Y
	}
	return q.X < other.X
}

func (q Qubit) String() string {
	return fmt.Sprintf("(%g, %g)", q.X, q.Y)
}

// SortCanonical sorts qs in place by (y, x) ascending.
func SortCanonical(qs []Qubit) {
	sort.Slice(qs, func(i, j int) bool { return qs[i].Less(qs[j]) })
}

// Index is a bijection from qubit coordinates to dense instruction-level
// indices. It is built once per code instance and never mutated afterwards.
type Index struct {
	order []Qubit
	at    map[Qubit]int
}

// NewIndex assigns dense indices 0..len(coords)-1 following the order of
// coords. Callers are expected to pass canonically sorted coordinates.
func NewIndex(coords []Qubit) *Index {
	ix := &Index{
		order: append([]Qubit(nil), coords...),
		at:    make(map[Qubit]int, len(coords)),
	}
	for i, q := range ix.order {
		ix.at[q] = i
	}
	return ix
}

// Of returns the dense index of q, if registered.
func (ix *Index) Of(q Qubit) (int, bool) {
	i, ok := ix.at[q]
	return i, ok
}

// Len returns the number of registered qubits.
func (ix *Index) Len() int { return len(ix.order) }

// Coords returns the registered coordinates in index order.
// The returned slice is shared; callers must not modify it.
func (ix *Index) Coords() []Qubit { return ix.order }
