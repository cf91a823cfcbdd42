package circuit

import (
	"strconv"
	"strings"
)

// Instruction is one entry of the append-only instruction log.
//
// Targets hold qubit indices for gates, resets, measurements and noise,
// and negative measurement-history lookbacks for detectors and
// observables. Args hold channel probabilities, the measurement flip
// probability, a detector's (x, y, round) label, or an observable id.
type Instruction struct {
	Op      Opcode
	Targets []int
	Args    []float64
}

func formatArg(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// String renders the instruction in the linear text format consumed by
// the external simulation/decoding engine.
func (in Instruction) String() string {
	var b strings.Builder
	b.WriteString(in.Op.String())
	if len(in.Args) > 0 {
		b.WriteByte('(')
		for i, a := range in.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(formatArg(a))
		}
		b.WriteByte(')')
	}
	for _, t := range in.Targets {
		b.WriteByte(' ')
		switch in.Op {
		case OpDetector, OpObservable:
			b.WriteString("rec[")
			b.WriteString(strconv.Itoa(t))
			b.WriteByte(']')
		default:
			b.WriteString(strconv.Itoa(t))
		}
	}
	return b.String()
}
