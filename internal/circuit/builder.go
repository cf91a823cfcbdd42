package circuit

import (
	"errors"
	"fmt"
	"strings"

	"machq/internal/noise"
	"machq/internal/qubit"
)

var (
	// ErrUnknownQubit is returned when an instruction references a qubit
	// index that was never registered.
	ErrUnknownQubit = errors.New("qubit index not registered in the circuit")
	// ErrOddGateTargets is returned when a two-qubit gate receives an odd
	// number of targets.
	ErrOddGateTargets = errors.New("odd number of qubits passed to a two-qubit gate")
	// ErrLookbackArity is returned when detector lookback groups and labels
	// differ in length.
	ErrLookbackArity = errors.New("mismatch between lookback groups and labels")
	// ErrBadLookback is returned when a lookback does not point into the
	// measurement history.
	ErrBadLookback = errors.New("lookback outside measurement history")
)

// Label is the (x, y, round) annotation attached to a detector.
type Label struct {
	X     float64
	Y     float64
	Round int
}

// Builder accumulates an append-only instruction log. Every gate, reset
// and measurement is paired with the noise channel its profile prescribes,
// and CloseTimeStep injects idle noise on the qubits an operation layer
// left untouched. The invariant this maintains: between two consecutive
// step boundaries every registered qubit incurs noise exactly once.
type Builder struct {
	profile noise.Profile

	instrs  []Instruction
	coords  []qubit.Qubit
	touched []bool

	// measurements counts every outcome appended to the measurement
	// history so far; lookbacks are validated against it at emission time.
	measurements int
}

// New returns an empty builder using the given noise profile.
func New(profile noise.Profile) *Builder {
	return &Builder{profile: profile}
}

// Profile returns the noise profile the builder injects from.
func (b *Builder) Profile() noise.Profile { return b.profile }

// AddQubits registers an ordered set of qubit coordinates, assigning the
// next dense indices, declaring each coordinate in the log and extending
// idle tracking. Index assignment follows the order of coords.
func (b *Builder) AddQubits(coords []qubit.Qubit) {
	for _, q := range coords {
		idx := len(b.coords)
		b.coords = append(b.coords, q)
		b.touched = append(b.touched, false)
		b.instrs = append(b.instrs, Instruction{
			Op:      OpQubitCoords,
			Targets: []int{idx},
			Args:    []float64{q.X, q.Y},
		})
	}
}

// NumQubits returns the number of registered qubits.
func (b *Builder) NumQubits() int { return len(b.coords) }

// Measurements returns the measurement cursor: how many outcomes the
// history holds at this point of construction.
func (b *Builder) Measurements() int { return b.measurements }

// Instructions returns the instruction log. The slice is shared; callers
// must not modify it.
func (b *Builder) Instructions() []Instruction { return b.instrs }

func (b *Builder) checkQubits(qubits []int) error {
	for _, q := range qubits {
		if q < 0 || q >= len(b.coords) {
			return fmt.Errorf("qubit %d out of range [0, %d): %w", q, len(b.coords), ErrUnknownQubit)
		}
	}
	return nil
}

func (b *Builder) markTouched(qubits []int) {
	for _, q := range qubits {
		b.touched[q] = true
	}
}

func (b *Builder) appendChannel(ch noise.Channel, targets []int) {
	b.instrs = append(b.instrs, Instruction{
		Op:      opForChannel(ch.Kind),
		Targets: append([]int(nil), targets...),
		Args:    append([]float64(nil), ch.Args...),
	})
}

// H applies Hadamard gates to the given qubits, paired with the profile's
// single-qubit gate noise on exactly those qubits.
func (b *Builder) H(qubits []int) error {
	if err := b.checkQubits(qubits); err != nil {
		return err
	}
	b.instrs = append(b.instrs, Instruction{Op: OpH, Targets: append([]int(nil), qubits...)})
	b.appendChannel(b.profile.SingleQubitGate, qubits)
	b.markTouched(qubits)
	return nil
}

// CX applies CNOT gates to interleaved (control, target) pairs, paired
// with the profile's two-qubit gate noise on exactly those qubits.
func (b *Builder) CX(qubits []int) error {
	if len(qubits)%2 != 0 {
		return fmt.Errorf("%d targets: %w", len(qubits), ErrOddGateTargets)
	}
	if err := b.checkQubits(qubits); err != nil {
		return err
	}
	b.instrs = append(b.instrs, Instruction{Op: OpCX, Targets: append([]int(nil), qubits...)})
	b.appendChannel(b.profile.TwoQubitGate, qubits)
	b.markTouched(qubits)
	return nil
}

// Reset resets the given qubits into the Z basis, paired with an X-flip
// channel at the profile's reset rate. A nil or empty slice resets every
// registered qubit.
func (b *Builder) Reset(qubits []int) error {
	if len(qubits) == 0 {
		qubits = make([]int, len(b.coords))
		for i := range qubits {
			qubits[i] = i
		}
	}
	if err := b.checkQubits(qubits); err != nil {
		return err
	}
	b.instrs = append(b.instrs, Instruction{Op: OpReset, Targets: append([]int(nil), qubits...)})
	b.appendChannel(noise.NewXError(b.profile.ResetFlip), qubits)
	b.markTouched(qubits)
	return nil
}

// Measure measures the given qubits in the Z basis with the profile's
// flip probability. Every outcome is appended to the measurement history
// and advances the cursor.
func (b *Builder) Measure(qubits []int) error {
	if err := b.checkQubits(qubits); err != nil {
		return err
	}
	b.instrs = append(b.instrs, Instruction{
		Op:      OpMeasure,
		Targets: append([]int(nil), qubits...),
		Args:    []float64{b.profile.MeasurementFlip},
	})
	b.markTouched(qubits)
	b.measurements += len(qubits)
	return nil
}

// CloseTimeStep injects the idle channel on every qubit untouched since
// the previous boundary, appends the boundary marker and clears the
// touched flags. Together with the per-operation noise pairing this
// gives each qubit exactly one noise event per step.
func (b *Builder) CloseTimeStep() {
	var idle []int
	for q, touched := range b.touched {
		if !touched {
			idle = append(idle, q)
		}
	}
	if len(idle) > 0 {
		b.appendChannel(b.profile.Idle, idle)
	}
	b.instrs = append(b.instrs, Instruction{Op: OpTick})
	for q := range b.touched {
		b.touched[q] = false
	}
}

func (b *Builder) checkLookbacks(offsets []int) error {
	for _, off := range offsets {
		if off >= 0 || off < -b.measurements {
			return fmt.Errorf("lookback %d with %d recorded measurements: %w", off, b.measurements, ErrBadLookback)
		}
	}
	return nil
}

// Detectors declares one detector per lookback group, labelled by the
// corresponding entry of labels. Groups and labels must pair up exactly;
// nothing is appended on a mismatch or an out-of-history lookback.
func (b *Builder) Detectors(groups [][]int, labels []Label) error {
	if len(groups) != len(labels) {
		return fmt.Errorf("%d groups, %d labels: %w", len(groups), len(labels), ErrLookbackArity)
	}
	for _, g := range groups {
		if err := b.checkLookbacks(g); err != nil {
			return err
		}
	}
	for i, g := range groups {
		b.instrs = append(b.instrs, Instruction{
			Op:      OpDetector,
			Targets: append([]int(nil), g...),
			Args:    []float64{labels[i].X, labels[i].Y, float64(labels[i].Round)},
		})
	}
	return nil
}

// Observable folds the outcomes at the given lookbacks into logical
// observable id.
func (b *Builder) Observable(id int, offsets []int) error {
	if err := b.checkLookbacks(offsets); err != nil {
		return err
	}
	b.instrs = append(b.instrs, Instruction{
		Op:      OpObservable,
		Targets: append([]int(nil), offsets...),
		Args:    []float64{float64(id)},
	})
	return nil
}

// Clear empties the instruction log, idle tracking and measurement
// history while keeping the registered qubit set, re-declaring its
// coordinates so the next experiment starts from the same geometry.
func (b *Builder) Clear() {
	coords := b.coords
	b.instrs = b.instrs[:0]
	b.coords = nil
	b.touched = nil
	b.measurements = 0
	b.AddQubits(coords)
}

// String renders the whole instruction log in the linear text format of
// the external simulation/decoding engine, one instruction per line.
func (b *Builder) String() string {
	var sb strings.Builder
	for i, in := range b.instrs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(in.String())
	}
	return sb.String()
}
