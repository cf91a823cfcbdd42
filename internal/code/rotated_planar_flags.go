package code

import (
	"fmt"

	"machq/internal/circuit"
	"machq/internal/noise"
	"machq/internal/qubit"
)

// flagOffset places each flag qubit half a lattice step diagonally from
// its auxiliary partner.
var flagOffset = qubit.New(0.5, 0.5)

// RotatedPlanarFlags is the rotated planar code hardened against
// measurement error. Every stabilizer is measured through an entangled
// (auxiliary, flag) pair: the pair is driven into a Bell state before
// the plaquette CNOTs, disentangled afterwards, and both halves are
// measured. Absent measurement error the two outcomes agree, which gives
// one extra deterministic detector per stabilizer per round.
//
// The pair shares the plaquette schedule in an ABBA arrangement: slots
// one and two couple the data qubit to the flag, the outer slots to the
// auxiliary itself.
type RotatedPlanarFlags struct {
	geometry

	xFlags []qubit.Qubit
	zFlags []qubit.Qubit
	flags  []qubit.Qubit

	coords  []qubit.Qubit
	index   *qubit.Index
	builder *circuit.Builder

	xSchedule Schedule
	zSchedule Schedule
}

// flagSlots are the schedule slots in which the flag, not the auxiliary,
// is the active partner (the ABBA arrangement).
var flagSlots = [4]bool{false, true, true, false}

// NewRotatedPlanarFlags lays out the hardened variant: the plain
// geometry plus one flag per auxiliary at a (0.5, 0.5) offset.
func NewRotatedPlanarFlags(xDistance, zDistance int, profile noise.Profile) (*RotatedPlanarFlags, error) {
	g, err := newGeometry(xDistance, zDistance)
	if err != nil {
		return nil, err
	}
	c := &RotatedPlanarFlags{
		geometry:  g,
		xSchedule: defaultXSchedule,
		zSchedule: defaultZSchedule,
	}
	for _, a := range g.xAux {
		c.xFlags = append(c.xFlags, a.Add(flagOffset))
	}
	for _, a := range g.zAux {
		c.zFlags = append(c.zFlags, a.Add(flagOffset))
	}
	c.flags = make([]qubit.Qubit, 0, len(c.xFlags)+len(c.zFlags))
	c.flags = append(c.flags, c.xFlags...)
	c.flags = append(c.flags, c.zFlags...)

	c.coords = make([]qubit.Qubit, 0, len(g.data)+len(g.aux)+len(c.flags))
	c.coords = append(c.coords, g.data...)
	c.coords = append(c.coords, g.aux...)
	c.coords = append(c.coords, c.flags...)
	qubit.SortCanonical(c.coords)

	c.index = qubit.NewIndex(c.coords)
	c.builder = circuit.New(profile)
	c.builder.AddQubits(c.coords)
	return c, nil
}

// Name returns the variant identifier.
func (c *RotatedPlanarFlags) Name() string { return "rotated_planar_flags" }

func (c *RotatedPlanarFlags) String() string {
	return fmt.Sprintf("%s_%dx%d", c.Name(), c.xDistance, c.zDistance)
}

// XDistance returns the logical-X distance.
func (c *RotatedPlanarFlags) XDistance() int { return c.xDistance }

// ZDistance returns the logical-Z distance.
func (c *RotatedPlanarFlags) ZDistance() int { return c.zDistance }

// DataQubits returns the data qubit coordinates.
func (c *RotatedPlanarFlags) DataQubits() []qubit.Qubit { return c.data }

// AuxiliaryQubits returns all X-type auxiliaries followed by all Z-type.
func (c *RotatedPlanarFlags) AuxiliaryQubits() []qubit.Qubit { return c.aux }

// XAuxiliaryQubits returns the X-type auxiliary coordinates.
func (c *RotatedPlanarFlags) XAuxiliaryQubits() []qubit.Qubit { return c.xAux }

// ZAuxiliaryQubits returns the Z-type auxiliary coordinates.
func (c *RotatedPlanarFlags) ZAuxiliaryQubits() []qubit.Qubit { return c.zAux }

// FlagQubits returns the flags in auxiliary order.
func (c *RotatedPlanarFlags) FlagQubits() []qubit.Qubit { return c.flags }

// XFlagQubits returns the flags paired with the X-type auxiliaries.
func (c *RotatedPlanarFlags) XFlagQubits() []qubit.Qubit { return c.xFlags }

// ZFlagQubits returns the flags paired with the Z-type auxiliaries.
func (c *RotatedPlanarFlags) ZFlagQubits() []qubit.Qubit { return c.zFlags }

// QubitCoords returns every qubit in canonical (y, x) order.
func (c *RotatedPlanarFlags) QubitCoords() []qubit.Qubit { return c.coords }

// Circuit returns the instruction log being built.
func (c *RotatedPlanarFlags) Circuit() *circuit.Builder { return c.builder }

// ClearCircuit drops all accumulated instructions but keeps the
// registered geometry.
func (c *RotatedPlanarFlags) ClearCircuit() { c.builder.Clear() }

// NeighboringData returns the data qubits in the plaquette of aux.
func (c *RotatedPlanarFlags) NeighboringData(aux qubit.Qubit) ([]qubit.Qubit, error) {
	return c.neighboringData(aux)
}

func (c *RotatedPlanarFlags) indicesOf(qs []qubit.Qubit) []int {
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

func (c *RotatedPlanarFlags) timeStep() { c.builder.CloseTimeStep() }

// auxFlagPairs interleaves every auxiliary with its flag, the CNOT
// target order of the entangling and disentangling layers.
func (c *RotatedPlanarFlags) auxFlagPairs() []qubit.Qubit {
	pairs := make([]qubit.Qubit, 0, 2*len(c.aux))
	for i, a := range c.aux {
		pairs = append(pairs, a, c.flags[i])
	}
	return pairs
}

// encodeFlagPairs drives every (auxiliary, flag) pair into a Bell state:
// reset both, Hadamard the auxiliary, entangle auxiliary onto flag.
func (c *RotatedPlanarFlags) encodeFlagPairs() error {
	both := c.indicesOf(append(append([]qubit.Qubit(nil), c.aux...), c.flags...))
	if err := c.builder.Reset(both); err != nil {
		return err
	}
	c.timeStep()
	if err := c.builder.H(c.indicesOf(c.aux)); err != nil {
		return err
	}
	c.timeStep()
	if err := c.builder.CX(c.indicesOf(c.auxFlagPairs())); err != nil {
		return err
	}
	c.timeStep()
	return nil
}

// decodeFlagPairs disentangles the pairs so both halves carry the
// syndrome: the Z-type pairs are rotated into the Z basis first, then
// disentangle, rotate the auxiliaries back, disentangle again.
func (c *RotatedPlanarFlags) decodeFlagPairs() error {
	zBoth := c.indicesOf(append(append([]qubit.Qubit(nil), c.zAux...), c.zFlags...))
	if err := c.builder.H(zBoth); err != nil {
		return err
	}
	c.timeStep()
	if err := c.builder.CX(c.indicesOf(c.auxFlagPairs())); err != nil {
		return err
	}
	c.timeStep()
	if err := c.builder.H(c.indicesOf(c.aux)); err != nil {
		return err
	}
	c.timeStep()
	if err := c.builder.CX(c.indicesOf(c.auxFlagPairs())); err != nil {
		return err
	}
	c.timeStep()
	return nil
}

// measureStabilizers emits the four scheduled CNOT layers. In the flag
// slots the flag replaces its auxiliary as the data qubit's partner.
func (c *RotatedPlanarFlags) measureStabilizers(xSchedule, zSchedule Schedule) error {
	for slot := 0; slot < len(xSchedule); slot++ {
		var pairs []qubit.Qubit
		for i, xa := range c.xAux {
			if d := xa.Add(xSchedule[slot]); c.isData(d) {
				ctrl := xa
				if flagSlots[slot] {
					ctrl = c.xFlags[i]
				}
				pairs = append(pairs, ctrl, d)
			}
		}
		for i, za := range c.zAux {
			if d := za.Add(zSchedule[slot]); c.isData(d) {
				targ := za
				if flagSlots[slot] {
					targ = c.zFlags[i]
				}
				pairs = append(pairs, d, targ)
			}
		}
		if err := c.builder.CX(c.indicesOf(pairs)); err != nil {
			return err
		}
		c.timeStep()
	}
	return nil
}

// MeasureSyndromes runs one hardened round with the default schedules.
func (c *RotatedPlanarFlags) MeasureSyndromes() error {
	return c.MeasureSyndromesWith(c.xSchedule, c.zSchedule)
}

// MeasureSyndromesWith runs one hardened round: encode the pairs, the
// four scheduled CNOT layers, decode, measure every auxiliary and flag,
// reset them all. A zero schedule selects the default.
func (c *RotatedPlanarFlags) MeasureSyndromesWith(xSchedule, zSchedule Schedule) error {
	if xSchedule.isZero() {
		xSchedule = c.xSchedule
	}
	if zSchedule.isZero() {
		zSchedule = c.zSchedule
	}

	if err := c.encodeFlagPairs(); err != nil {
		return err
	}
	if err := c.measureStabilizers(xSchedule, zSchedule); err != nil {
		return err
	}
	if err := c.decodeFlagPairs(); err != nil {
		return err
	}

	both := c.indicesOf(append(append([]qubit.Qubit(nil), c.aux...), c.flags...))
	if err := c.builder.Measure(both); err != nil {
		return err
	}
	c.timeStep()
	if err := c.builder.Reset(both); err != nil {
		return err
	}
	c.timeStep()
	return nil
}

// perRound is the measurement count of one hardened round: every
// auxiliary plus every flag.
func (c *RotatedPlanarFlags) perRound() int { return len(c.aux) + len(c.flags) }

// PairDetectors emits the within-round detectors: each flag outcome
// XORed with its auxiliary's outcome, deterministic absent measurement
// error.
func (c *RotatedPlanarFlags) PairDetectors(round int) error {
	perRound := c.perRound()
	numFlags := len(c.flags)
	groups := make([][]int, len(c.flags))
	labels := make([]circuit.Label, len(c.flags))
	for idx, f := range c.flags {
		groups[idx] = []int{idx - perRound, idx - numFlags}
		labels[idx] = circuit.Label{X: f.X, Y: f.Y, Round: round}
	}
	return c.builder.Detectors(groups, labels)
}

// EncodeLogicalZero resets every qubit and runs one hardened round; the
// pair detectors plus the Z-type auxiliary outcomes form round 0.
func (c *RotatedPlanarFlags) EncodeLogicalZero() error {
	if err := c.builder.Reset(nil); err != nil {
		return err
	}
	c.timeStep()
	if err := c.MeasureSyndromes(); err != nil {
		return err
	}
	if err := c.PairDetectors(0); err != nil {
		return err
	}
	return c.encodeDetectors(c.zAux, len(c.xAux))
}

// EncodeLogicalPlus is EncodeLogicalZero with the data qubits rotated
// into the X basis; the X-type auxiliaries become the round-0 detectors.
func (c *RotatedPlanarFlags) EncodeLogicalPlus() error {
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
	if err := c.PairDetectors(0); err != nil {
		return err
	}
	return c.encodeDetectors(c.xAux, 0)
}

func (c *RotatedPlanarFlags) encodeDetectors(auxes []qubit.Qubit, blockOffset int) error {
	perRound := c.perRound()
	groups := make([][]int, len(auxes))
	labels := make([]circuit.Label, len(auxes))
	for idx, a := range auxes {
		groups[idx] = []int{blockOffset + idx - perRound}
		labels[idx] = circuit.Label{X: a.X, Y: a.Y, Round: 0}
	}
	return c.builder.Detectors(groups, labels)
}

// RepeatSyndromes runs rounds-1 further hardened rounds. Across-round
// detectors compare each auxiliary's outcome against the same auxiliary
// one round back; the lookback separation is the doubled per-round
// measurement count, skipping over the interleaved flag outcomes.
func (c *RotatedPlanarFlags) RepeatSyndromes(rounds int) error {
	perRound := c.perRound()
	for r := 1; r < rounds; r++ {
		if err := c.MeasureSyndromes(); err != nil {
			return err
		}
		if err := c.PairDetectors(r); err != nil {
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

func (c *RotatedPlanarFlags) finalReadout(auxes []qubit.Qubit, blockOffset, rounds int) error {
	if err := c.builder.Measure(c.indicesOf(c.data)); err != nil {
		return err
	}

	dataPos := make(map[qubit.Qubit]int, len(c.data))
	for i, q := range c.data {
		dataPos[q] = i
	}

	numData := len(c.data)
	perRound := c.perRound()
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
		offsets = append(offsets, blockOffset+idx-perRound-numData)
		groups[idx] = offsets
		labels[idx] = circuit.Label{X: a.X, Y: a.Y, Round: rounds}
	}
	return c.builder.Detectors(groups, labels)
}

func (c *RotatedPlanarFlags) observableRow(keep func(qubit.Qubit) bool) error {
	numData := len(c.data)
	var offsets []int
	for idx, q := range c.data {
		if keep(q) {
			offsets = append(offsets, idx-numData)
		}
	}
	return c.builder.Observable(0, offsets)
}

// LogicalZMemory builds a complete hardened logical-zero memory
// experiment.
func (c *RotatedPlanarFlags) LogicalZMemory(rounds int) error {
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

// LogicalXMemory builds a complete hardened logical-plus memory
// experiment.
func (c *RotatedPlanarFlags) LogicalXMemory(rounds int) error {
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
