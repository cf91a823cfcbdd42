package code_test

import (
	"testing"

	"machq/internal/circuit"
	"machq/internal/noise"
)

func profile(t *testing.T, p float64) noise.Profile {
	t.Helper()
	prof, err := noise.Depolarizing(p)
	if err != nil {
		t.Fatalf("Depolarizing(%g): %v", p, err)
	}
	return prof
}

func countOp(instrs []circuit.Instruction, op circuit.Opcode) int {
	n := 0
	for _, in := range instrs {
		if in.Op == op {
			n++
		}
	}
	return n
}

// trailingDetectors returns the contiguous detector block at the end of
// the log, oldest first.
func trailingDetectors(instrs []circuit.Instruction) []circuit.Instruction {
	end := len(instrs)
	start := end
	for start > 0 && instrs[start-1].Op == circuit.OpDetector {
		start--
	}
	return instrs[start:end]
}

// detectorBlocks splits the log's detector instructions into contiguous
// runs, oldest first.
func detectorBlocks(instrs []circuit.Instruction) [][]circuit.Instruction {
	var blocks [][]circuit.Instruction
	var cur []circuit.Instruction
	for _, in := range instrs {
		if in.Op == circuit.OpDetector {
			cur = append(cur, in)
			continue
		}
		if len(cur) > 0 {
			blocks = append(blocks, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}

// noiseEventsPerStep counts noise applications per qubit in every
// TICK-delimited window of the log. A measurement carries its flip
// probability inline, so each measured qubit counts as one event.
func noiseEventsPerStep(instrs []circuit.Instruction, numQubits int) [][]int {
	counts := make([]int, numQubits)
	var steps [][]int
	for _, in := range instrs {
		if in.Op == circuit.OpTick {
			steps = append(steps, counts)
			counts = make([]int, numQubits)
			continue
		}
		if in.Op.IsNoise() || in.Op == circuit.OpMeasure {
			for _, q := range in.Targets {
				counts[q]++
			}
		}
	}
	return steps
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
