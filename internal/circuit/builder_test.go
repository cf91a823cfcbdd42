package circuit_test

import (
	"errors"
	"strings"
	"testing"

	"machq/internal/circuit"
	"machq/internal/noise"
	"machq/internal/qubit"
)

func newBuilder(t *testing.T, n int, p float64) *circuit.Builder {
	t.Helper()
	prof, err := noise.Depolarizing(p)
	if err != nil {
		t.Fatalf("Depolarizing(%g): %v", p, err)
	}
	b := circuit.New(prof)
	coords := make([]qubit.Qubit, n)
	for i := range coords {
		coords[i] = qubit.New(float64(i), 0)
	}
	b.AddQubits(coords)
	return b
}

func lastTwo(t *testing.T, b *circuit.Builder) (circuit.Instruction, circuit.Instruction) {
	t.Helper()
	instrs := b.Instructions()
	if len(instrs) < 2 {
		t.Fatalf("log too short: %d instructions", len(instrs))
	}
	return instrs[len(instrs)-2], instrs[len(instrs)-1]
}

func TestAddQubitsDeclaresCoordinates(t *testing.T) {
	b := newBuilder(t, 3, 0)
	instrs := b.Instructions()
	if len(instrs) != 3 {
		t.Fatalf("got %d instructions, want 3", len(instrs))
	}
	for i, in := range instrs {
		if in.Op != circuit.OpQubitCoords {
			t.Fatalf("instruction %d: got %v, want QUBIT_COORDS", i, in.Op)
		}
		if in.Targets[0] != i {
			t.Fatalf("instruction %d: got index %d", i, in.Targets[0])
		}
	}
}

func TestHPairsGateWithSingleQubitNoise(t *testing.T) {
	b := newBuilder(t, 2, 0.25)
	if err := b.H([]int{0, 1}); err != nil {
		t.Fatalf("H: %v", err)
	}
	gate, ch := lastTwo(t, b)
	if gate.Op != circuit.OpH || gate.Targets[0] != 0 || gate.Targets[1] != 1 {
		t.Fatalf("gate: got %v", gate)
	}
	if ch.Op != circuit.OpDepolarize1 || ch.Args[0] != 0.25 {
		t.Fatalf("noise: got %v", ch)
	}
	if ch.Targets[0] != 0 || ch.Targets[1] != 1 {
		t.Fatalf("noise targets: got %v", ch.Targets)
	}
}

func TestCXPairsGateWithTwoQubitNoise(t *testing.T) {
	b := newBuilder(t, 2, 0.25)
	if err := b.CX([]int{0, 1}); err != nil {
		t.Fatalf("CX: %v", err)
	}
	gate, ch := lastTwo(t, b)
	if gate.Op != circuit.OpCX {
		t.Fatalf("gate: got %v", gate)
	}
	if ch.Op != circuit.OpDepolarize2 || ch.Args[0] != 0.25 {
		t.Fatalf("noise: got %v", ch)
	}
}

func TestCXRejectsOddTargetsWithoutAppending(t *testing.T) {
	b := newBuilder(t, 3, 0)
	before := len(b.Instructions())
	err := b.CX([]int{0, 1, 2})
	if !errors.Is(err, circuit.ErrOddGateTargets) {
		t.Fatalf("got %v, want ErrOddGateTargets", err)
	}
	if len(b.Instructions()) != before {
		t.Fatal("log mutated by a rejected instruction")
	}
}

func TestUnregisteredQubitIsRejectedWithoutAppending(t *testing.T) {
	b := newBuilder(t, 1, 0)
	before := len(b.Instructions())
	for _, err := range []error{
		b.H([]int{100}),
		b.CX([]int{0, 100}),
		b.Reset([]int{-1}),
		b.Measure([]int{5}),
	} {
		if !errors.Is(err, circuit.ErrUnknownQubit) {
			t.Fatalf("got %v, want ErrUnknownQubit", err)
		}
	}
	if len(b.Instructions()) != before {
		t.Fatal("log mutated by a rejected instruction")
	}
}

func TestResetDefaultsToAllQubits(t *testing.T) {
	b := newBuilder(t, 4, 0.5)
	if err := b.Reset(nil); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	gate, ch := lastTwo(t, b)
	if gate.Op != circuit.OpReset || len(gate.Targets) != 4 {
		t.Fatalf("reset: got %v", gate)
	}
	if ch.Op != circuit.OpXError || ch.Args[0] != 0.5 {
		t.Fatalf("reset noise: got %v", ch)
	}
}

func TestMeasureAdvancesCursor(t *testing.T) {
	b := newBuilder(t, 3, 0)
	if b.Measurements() != 0 {
		t.Fatalf("fresh cursor: got %d", b.Measurements())
	}
	if err := b.Measure([]int{0, 2}); err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if b.Measurements() != 2 {
		t.Fatalf("cursor after 2 outcomes: got %d", b.Measurements())
	}
	if err := b.Measure([]int{1}); err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if b.Measurements() != 3 {
		t.Fatalf("cursor after 3 outcomes: got %d", b.Measurements())
	}
}

// noiseEventsPerQubit counts, for each qubit, the noise applications in
// instrs between step boundaries.
func noiseEventsPerQubit(instrs []circuit.Instruction, numQubits int) [][]int {
	counts := make([]int, numQubits)
	var steps [][]int
	for _, in := range instrs {
		if in.Op == circuit.OpTick {
			steps = append(steps, counts)
			counts = make([]int, numQubits)
			continue
		}
		if in.Op.IsNoise() {
			for _, q := range in.Targets {
				counts[q]++
			}
		}
	}
	return steps
}

func TestEveryQubitIncursNoiseExactlyOncePerStep(t *testing.T) {
	b := newBuilder(t, 5, 0.1)
	if err := b.H([]int{0, 1}); err != nil {
		t.Fatalf("H: %v", err)
	}
	b.CloseTimeStep()
	if err := b.CX([]int{1, 2}); err != nil {
		t.Fatalf("CX: %v", err)
	}
	if err := b.Reset([]int{3}); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	b.CloseTimeStep()
	b.CloseTimeStep() // nobody touched: idle noise on all five

	steps := noiseEventsPerQubit(b.Instructions(), 5)
	if len(steps) != 3 {
		t.Fatalf("got %d steps, want 3", len(steps))
	}
	for s, counts := range steps {
		for q, n := range counts {
			if n != 1 {
				t.Fatalf("step %d qubit %d: %d noise events, want exactly 1", s, q, n)
			}
		}
	}
}

func TestDetectorsValidateArityAndLookbacks(t *testing.T) {
	b := newBuilder(t, 2, 0)
	if err := b.Measure([]int{0, 1}); err != nil {
		t.Fatalf("Measure: %v", err)
	}
	before := len(b.Instructions())

	err := b.Detectors([][]int{{-1}, {-2}}, []circuit.Label{{X: 0, Y: 0, Round: 0}})
	if !errors.Is(err, circuit.ErrLookbackArity) {
		t.Fatalf("got %v, want ErrLookbackArity", err)
	}
	err = b.Detectors([][]int{{-3}}, []circuit.Label{{}})
	if !errors.Is(err, circuit.ErrBadLookback) {
		t.Fatalf("got %v, want ErrBadLookback", err)
	}
	err = b.Detectors([][]int{{0}}, []circuit.Label{{}})
	if !errors.Is(err, circuit.ErrBadLookback) {
		t.Fatalf("non-negative lookback: got %v, want ErrBadLookback", err)
	}
	if len(b.Instructions()) != before {
		t.Fatal("log mutated by rejected detectors")
	}

	if err := b.Detectors([][]int{{-1, -2}}, []circuit.Label{{X: 1, Y: 2, Round: 3}}); err != nil {
		t.Fatalf("Detectors: %v", err)
	}
	last := b.Instructions()[len(b.Instructions())-1]
	if last.Op != circuit.OpDetector {
		t.Fatalf("got %v, want DETECTOR", last.Op)
	}
	if last.Args[0] != 1 || last.Args[1] != 2 || last.Args[2] != 3 {
		t.Fatalf("label args: got %v", last.Args)
	}
}

func TestObservableValidatesLookbacks(t *testing.T) {
	b := newBuilder(t, 1, 0)
	if err := b.Observable(0, []int{-1}); !errors.Is(err, circuit.ErrBadLookback) {
		t.Fatalf("empty history: got %v, want ErrBadLookback", err)
	}
	if err := b.Measure([]int{0}); err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if err := b.Observable(0, []int{-1}); err != nil {
		t.Fatalf("Observable: %v", err)
	}
	last := b.Instructions()[len(b.Instructions())-1]
	if last.Op != circuit.OpObservable || last.Args[0] != 0 || last.Targets[0] != -1 {
		t.Fatalf("observable: got %v", last)
	}
}

func TestClearKeepsGeometry(t *testing.T) {
	b := newBuilder(t, 3, 0.1)
	if err := b.H([]int{0}); err != nil {
		t.Fatalf("H: %v", err)
	}
	if err := b.Measure([]int{0}); err != nil {
		t.Fatalf("Measure: %v", err)
	}
	b.Clear()
	if b.NumQubits() != 3 {
		t.Fatalf("qubits after clear: got %d, want 3", b.NumQubits())
	}
	if b.Measurements() != 0 {
		t.Fatalf("cursor after clear: got %d, want 0", b.Measurements())
	}
	instrs := b.Instructions()
	if len(instrs) != 3 {
		t.Fatalf("log after clear: got %d instructions, want the 3 coordinate declarations", len(instrs))
	}
	for _, in := range instrs {
		if in.Op != circuit.OpQubitCoords {
			t.Fatalf("got %v after clear, want QUBIT_COORDS", in.Op)
		}
	}
}

func TestTextRendering(t *testing.T) {
	prof, err := noise.Depolarizing(0.125)
	if err != nil {
		t.Fatalf("Depolarizing: %v", err)
	}
	b := circuit.New(prof)
	b.AddQubits([]qubit.Qubit{qubit.New(1, 1), qubit.New(2.5, 0.5)})
	if err := b.CX([]int{0, 1}); err != nil {
		t.Fatalf("CX: %v", err)
	}
	if err := b.Measure([]int{1}); err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if err := b.Detectors([][]int{{-1}}, []circuit.Label{{X: 2.5, Y: 0.5, Round: 0}}); err != nil {
		t.Fatalf("Detectors: %v", err)
	}
	b.CloseTimeStep()

	want := strings.Join([]string{
		"QUBIT_COORDS(1, 1) 0",
		"QUBIT_COORDS(2.5, 0.5) 1",
		"CX 0 1",
		"DEPOLARIZE2(0.125) 0 1",
		"M(0.125) 1",
		"DETECTOR(2.5, 0.5, 0) rec[-1]",
		"TICK",
	}, "\n")
	if got := b.String(); got != want {
		t.Fatalf("rendered text:\n%s\nwant:\n%s", got, want)
	}
}
