package code

import (
	"errors"
	"fmt"

	"machq/internal/qubit"
)

var (
	// ErrBadDistance is returned for distances the boundary-parity layout
	// formulas cannot tile.
	ErrBadDistance = errors.New("code distance must be odd and at least 3")
	// ErrNotAuxiliary is returned when a neighbor query names a qubit
	// that is not an auxiliary qubit.
	ErrNotAuxiliary = errors.New("qubit is not an auxiliary qubit")
)

// plaquetteCorners are the four diagonal offsets from a plaquette center
// to its potential data-qubit corners.
var plaquetteCorners = [4]qubit.Qubit{
	{X: 1, Y: 1},
	{X: 1, Y: -1},
	{X: -1, Y: 1},
	{X: -1, Y: -1},
}

func validateDistance(axis string, d int) error {
	if d < 3 || d%2 == 0 {
		return fmt.Errorf("%s distance %d: %w", axis, d, ErrBadDistance)
	}
	return nil
}

// geometry is the deterministic qubit layout shared by the rotated
// planar variants. A code with (x_distance, z_distance) spans a
// coordinate grid of (2*z_distance+1, 2*x_distance+1).
type geometry struct {
	xDistance int
	zDistance int
	xDim      int
	yDim      int

	data []qubit.Qubit
	xAux []qubit.Qubit
	zAux []qubit.Qubit
	aux  []qubit.Qubit

	dataSet map[qubit.Qubit]struct{}
	auxSet  map[qubit.Qubit]struct{}
}

func newGeometry(xDistance, zDistance int) (geometry, error) {
	if err := validateDistance("x", xDistance); err != nil {
		return geometry{}, err
	}
	if err := validateDistance("z", zDistance); err != nil {
		return geometry{}, err
	}

	g := geometry{
		xDistance: xDistance,
		zDistance: zDistance,
		xDim:      2*zDistance + 1,
		yDim:      2*xDistance + 1,
	}

	// Data qubits sit on the odd-odd lattice points.
	for y := 1; y < g.yDim; y += 2 {
		for x := 1; x < g.xDim; x += 2 {
			g.data = append(g.data, qubit.New(float64(x), float64(y)))
		}
	}

	// X-type auxiliaries walk the even columns with a y stride of four;
	// the starting y offset alternates per column so the plaquettes
	// interleave, and the top boundary depends on the x-distance parity.
	offset := 0
	for x := 2; x < g.xDim-1; x += 2 {
		ylow := 2 * (offset % 2)
		yhigh := g.yDim + (1 - g.xDistance%2)
		for y := ylow; y < yhigh; y += 4 {
			g.xAux = append(g.xAux, qubit.New(float64(x), float64(y)))
		}
		offset++
	}

	// Z-type auxiliaries mirror the pattern with rows and columns swapped.
	offset = 1
	for y := 2; y < g.yDim-1; y += 2 {
		xlow := 2 * (offset % 2)
		xhigh := g.xDim
		for x := xlow; x < xhigh; x += 4 {
			g.zAux = append(g.zAux, qubit.New(float64(x), float64(y)))
		}
		offset++
	}

	g.aux = make([]qubit.Qubit, 0, len(g.xAux)+len(g.zAux))
	g.aux = append(g.aux, g.xAux...)
	g.aux = append(g.aux, g.zAux...)

	g.dataSet = make(map[qubit.Qubit]struct{}, len(g.data))
	for _, q := range g.data {
		g.dataSet[q] = struct{}{}
	}
	g.auxSet = make(map[qubit.Qubit]struct{}, len(g.aux))
	for _, q := range g.aux {
		g.auxSet[q] = struct{}{}
	}
	return g, nil
}

// neighboringData returns the data qubits on the corners of the
// plaquette centered at aux. Boundary plaquettes have fewer than four.
func (g *geometry) neighboringData(aux qubit.Qubit) ([]qubit.Qubit, error) {
	if _, ok := g.auxSet[aux]; !ok {
		return nil, fmt.Errorf("%v: %w", aux, ErrNotAuxiliary)
	}
	var out []qubit.Qubit
	for _, delta := range plaquetteCorners {
		if q := aux.Add(delta); g.isData(q) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (g *geometry) isData(q qubit.Qubit) bool {
	_, ok := g.dataSet[q]
	return ok
}
