package code

import (
	"fmt"

	"machq/internal/circuit"
	"machq/internal/noise"
	"machq/internal/qubit"
)

// RotatedPlanar is the plain rotated planar code: one auxiliary qubit
// per stabilizer plaquette.
//
// Qubit layout for a 3x3 code, with data qubits as circles:
//
//	5|    / o --- o --- o
//	 |  Z   |  X  |  Z  |
//	3|    \ o --- o --- o \
//	 |      |  Z  |  X  |   Z
//	1|      o --- o --- o /
//	 |       \ X /
//	 +----|-----|-----|-----|
//	      1     3     5
type RotatedPlanar struct {
	geometry

	coords  []qubit.Qubit
	index   *qubit.Index
	builder *circuit.Builder

	xSchedule Schedule
	zSchedule Schedule
}

// Default schedules: a "Z" pattern for X-stabilizers and its mirror for
// Z-stabilizers, chosen so that hook errors land along the boundary that
// tolerates them. The mirroring keeps the four layers conflict-free:
// no data qubit is reached by an X-type and a Z-type auxiliary in the
// same slot.
var (
	defaultXSchedule = Schedule{{X: -1, Y: 1}, {X: 1, Y: 1}, {X: -1, Y: -1}, {X: 1, Y: -1}}
	defaultZSchedule = Schedule{{X: -1, Y: 1}, {X: -1, Y: -1}, {X: 1, Y: 1}, {X: 1, Y: -1}}
)

// NewRotatedPlanar lays out a rotated planar code of the given distances
// and registers its qubits with a fresh circuit builder. Distances must
// be odd and at least 3.
func NewRotatedPlanar(xDistance, zDistance int, profile noise.Profile) (*RotatedPlanar, error) {
	g, err := newGeometry(xDistance, zDistance)
	if err != nil {
		return nil, err
	}
	c := &RotatedPlanar{
		geometry:  g,
		xSchedule: defaultXSchedule,
		zSchedule: defaultZSchedule,
	}
	c.coords = make([]qubit.Qubit, 0, len(g.data)+len(g.aux))
	c.coords = append(c.coords, g.data...)
	c.coords = append(c.coords, g.aux...)
	qubit.SortCanonical(c.coords)

	c.index = qubit.NewIndex(c.coords)
	c.builder = circuit.New(profile)
	c.builder.AddQubits(c.coords)
	return c, nil
}

// Name returns the variant identifier.
func (c *RotatedPlanar) Name() string { return "rotated_planar" }

func (c *RotatedPlanar) String() string {
	return fmt.Sprintf("%s_%dx%d", c.Name(), c.xDistance, c.zDistance)
}

// XDistance returns the logical-X distance.
func (c *RotatedPlanar) XDistance() int { return c.xDistance }

// ZDistance returns the logical-Z distance.
func (c *RotatedPlanar) ZDistance() int { return c.zDistance }

// DataQubits returns the data qubit coordinates.
func (c *RotatedPlanar) DataQubits() []qubit.Qubit { return c.data }

// AuxiliaryQubits returns all X-type auxiliaries followed by all Z-type.
func (c *RotatedPlanar) AuxiliaryQubits() []qubit.Qubit { return c.aux }

// XAuxiliaryQubits returns the X-type auxiliary coordinates.
func (c *RotatedPlanar) XAuxiliaryQubits() []qubit.Qubit { return c.xAux }

// ZAuxiliaryQubits returns the Z-type auxiliary coordinates.
func (c *RotatedPlanar) ZAuxiliaryQubits() []qubit.Qubit { return c.zAux }

// FlagQubits returns nil; the plain code has no flags.
func (c *RotatedPlanar) FlagQubits() []qubit.Qubit { return nil }

// QubitCoords returns every qubit in canonical (y, x) order, the order
// index assignment follows.
func (c *RotatedPlanar) QubitCoords() []qubit.Qubit { return c.coords }

// Circuit returns the instruction log being built.
func (c *RotatedPlanar) Circuit() *circuit.Builder { return c.builder }

// ClearCircuit drops all accumulated instructions but keeps the
// registered geometry.
func (c *RotatedPlanar) ClearCircuit() { c.builder.Clear() }

// NeighboringData returns the data qubits in the plaquette of aux.
func (c *RotatedPlanar) NeighboringData(aux qubit.Qubit) ([]qubit.Qubit, error) {
	return c.neighboringData(aux)
}

func (c *RotatedPlanar) indicesOf(qs []qubit.Qubit) []int {
	out := make([]int, len(qs))
	for i, q := range qs {
		idx, ok := c.index.Of(q)
		if !ok {
			panic(fmt.Sprintf("layout qubit %v missing from index map", q))
		}
		out[i] = idx
	}
	return out
}

func (c *RotatedPlanar) timeStep() { c.builder.CloseTimeStep() }

// MeasureSyndromes runs one round of stabilizer measurement with the
// default schedules.
func (c *RotatedPlanar) MeasureSyndromes() error {
	return c.MeasureSyndromesWith(c.xSchedule, c.zSchedule)
}

// MeasureSyndromesWith runs one round with explicit schedules. A zero
// schedule selects the default. The round is: Hadamard the X-type
// auxiliaries, four layers of scheduled CNOTs, Hadamard again, measure
// every auxiliary, reset every auxiliary; each layer closes a time step.
func (c *RotatedPlanar) MeasureSyndromesWith(xSchedule, zSchedule Schedule) error {
	if xSchedule.isZero() {
		xSchedule = c.xSchedule
	}
	if zSchedule.isZero() {
		zSchedule = c.zSchedule
	}

	xAuxIdx := c.indicesOf(c.xAux)
	auxIdx := c.indicesOf(c.aux)

	if err := c.builder.H(xAuxIdx); err != nil {
		return err
	}
	c.timeStep()

	for slot := 0; slot < len(xSchedule); slot++ {
		var pairs []qubit.Qubit
		for _, xa := range c.xAux {
			if d := xa.Add(xSchedule[slot]); c.isData(d) {
				pairs = append(pairs, xa, d)
			}
		}
		for _, za := range c.zAux {
			if d := za.Add(zSchedule[slot]); c.isData(d) {
				pairs = append(pairs, d, za)
			}
		}
		if err := c.builder.CX(c.indicesOf(pairs)); err != nil {
			return err
		}
		c.timeStep()
	}

	if err := c.builder.H(xAuxIdx); err != nil {
		return err
	}
	c.timeStep()

	if err := c.builder.Measure(auxIdx); err != nil {
		return err
	}
	c.timeStep()

	if err := c.builder.Reset(auxIdx); err != nil {
		return err
	}
	c.timeStep()
	return nil
}

// EncodeLogicalZero resets every qubit and runs one syndrome round; the
// Z-type auxiliary outcomes are deterministic and become the round-0
// detectors.
func (c *RotatedPlanar) EncodeLogicalZero() error {
	if err := c.builder.Reset(nil); err != nil {
		return err
	}
	c.timeStep()
	if err := c.MeasureSyndromes(); err != nil {
		return err
	}
	return c.encodeDetectors(c.zAux, len(c.xAux))
}

// EncodeLogicalPlus resets every qubit, rotates the data qubits into the
// X basis and runs one syndrome round; the X-type auxiliary outcomes
// become the round-0 detectors.
func (c *RotatedPlanar) EncodeLogicalPlus() error {
	if err := c.builder.Reset(nil); err != nil {
		return err
	}
	c.timeStep()
	if err := c.builder.H(c.indicesOf(c.data)); err != nil {
		return err
	}
	c.timeStep()
	if err := c.MeasureSyndromes(); err != nil {
		return err
	}
	return c.encodeDetectors(c.xAux, 0)
}

// encodeDetectors emits one detector per listed auxiliary, referencing
// only the just-finished round. blockOffset is the position of the first
// listed auxiliary within the per-round measurement block.
func (c *RotatedPlanar) encodeDetectors(auxes []qubit.Qubit, blockOffset int) error {
	groups := make([][]int, len(auxes))
	labels := make([]circuit.Label, len(auxes))
	for idx, a := range auxes {
		groups[idx] = []int{blockOffset + idx - len(c.aux)}
		labels[idx] = circuit.Label{X: a.X, Y: a.Y, Round: 0}
	}
	return c.builder.Detectors(groups, labels)
}

// RepeatSyndromes runs rounds-1 further syndrome rounds. Every round
// emits one detector per auxiliary comparing its fresh outcome against
// the same auxiliary exactly one round back; the offset separation is
// the per-round measurement count.
func (c *RotatedPlanar) RepeatSyndromes(rounds int) error {
	perRound := len(c.aux)
	for r := 1; r < rounds; r++ {
		if err := c.MeasureSyndromes(); err != nil {
			return err
		}
		groups := make([][]int, len(c.aux))
		labels := make([]circuit.Label, len(c.aux))
		for idx, a := range c.aux {
			groups[idx] = []int{idx - perRound, idx - 2*perRound}
			labels[idx] = circuit.Label{X: a.X, Y: a.Y, Round: r}
		}
		if err := c.builder.Detectors(groups, labels); err != nil {
			return err
		}
	}
	return nil
}

// finalReadout measures the data qubits and emits the closing detectors:
// each listed auxiliary's plaquette data outcomes combined with that
// auxiliary's last pre-readout outcome.
func (c *RotatedPlanar) finalReadout(auxes []qubit.Qubit, blockOffset, rounds int) error {
	if err := c.builder.Measure(c.indicesOf(c.data)); err != nil {
		return err
	}

	dataPos := make(map[qubit.Qubit]int, len(c.data))
	for i, q := range c.data {
		dataPos[q] = i
	}

	numData := len(c.data)
	groups := make([][]int, len(auxes))
	labels := make([]circuit.Label, len(auxes))
	for idx, a := range auxes {
		neighbors, err := c.neighboringData(a)
		if err != nil {
			return err
		}
		var offsets []int
		for _, d := range neighbors {
			offsets = append(offsets, dataPos[d]-numData)
		}
		offsets = append(offsets, blockOffset+idx-len(c.aux)-numData)
		groups[idx] = offsets
		labels[idx] = circuit.Label{X: a.X, Y: a.Y, Round: rounds}
	}
	return c.builder.Detectors(groups, labels)
}

// observableRow folds the final outcomes of the data qubits for which
// keep returns true into logical observable 0.
func (c *RotatedPlanar) observableRow(keep func(qubit.Qubit) bool) error {
	numData := len(c.data)
	var offsets []int
	for idx, q := range c.data {
		if keep(q) {
			offsets = append(offsets, idx-numData)
		}
	}
	return c.builder.Observable(0, offsets)
}

// LogicalZMemory builds a complete logical-zero memory experiment:
// encode, rounds-1 repeated syndrome rounds, final data readout in the
// Z basis and the logical-Z observable along the top boundary row.
func (c *RotatedPlanar) LogicalZMemory(rounds int) error {
	if rounds <= 0 {
		rounds = c.zDistance
	}
	if err := c.EncodeLogicalZero(); err != nil {
		return err
	}
	if err := c.RepeatSyndromes(rounds); err != nil {
		return err
	}
	if err := c.finalReadout(c.zAux, len(c.xAux), rounds); err != nil {
		return err
	}
	maxY := float64(c.yDim - 2)
	return c.observableRow(func(q qubit.Qubit) bool { return q.Y == maxY })
}

// LogicalXMemory builds a complete logical-plus memory experiment; the
// data qubits are rotated back out of the X basis before readout and the
// observable runs along the rightmost boundary column.
func (c *RotatedPlanar) LogicalXMemory(rounds int) error {
	if rounds <= 0 {
		rounds = c.xDistance
	}
	if err := c.EncodeLogicalPlus(); err != nil {
		return err
	}
	if err := c.RepeatSyndromes(rounds); err != nil {
		return err
	}
	if err := c.builder.H(c.indicesOf(c.data)); err != nil {
		return err
	}
	c.timeStep()
	if err := c.finalReadout(c.xAux, 0, rounds); err != nil {
		return err
	}
	maxX := float64(c.xDim - 2)
	return c.observableRow(func(q qubit.Qubit) bool { return q.X == maxX })
}
