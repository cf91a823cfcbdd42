package circuit

import (
	"fmt"

	"machq/internal/noise"
)

// Opcode identifies one entry kind in the instruction log.
type Opcode uint8

const (
	// OpQubitCoords declares a qubit index with its planar coordinate.
	OpQubitCoords Opcode = iota
	// OpH applies Hadamard gates to each target.
	OpH
	// OpCX applies CNOT gates to (control, target) interleaved pairs.
	OpCX
	// OpReset resets each target into the Z basis.
	OpReset
	// OpMeasure measures each target in the Z basis; every outcome is
	// appended to the measurement history.
	OpMeasure
	// OpDepolarize1 through OpPauliChannel1 are noise applications.
	OpDepolarize1
	OpDepolarize2
	OpXError
	OpYError
	OpZError
	OpPauliChannel1
	// OpTick marks a time-step boundary.
	OpTick
	// OpDetector declares a parity check over measurement-history
	// lookbacks; its args carry the (x, y, round) label.
	OpDetector
	// OpObservable folds measurement-history lookbacks into the logical
	// observable identified by its single arg.
	OpObservable
)

var opNames = [...]string{
	OpQubitCoords:   "QUBIT_COORDS",
	OpH:             "H",
	OpCX:            "CX",
	OpReset:         "R",
	OpMeasure:       "M",
	OpDepolarize1:   "DEPOLARIZE1",
	OpDepolarize2:   "DEPOLARIZE2",
	OpXError:        "X_ERROR",
	OpYError:        "Y_ERROR",
	OpZError:        "Z_ERROR",
	OpPauliChannel1: "PAULI_CHANNEL_1",
	OpTick:          "TICK",
	OpDetector:      "DETECTOR",
	OpObservable:    "OBSERVABLE_INCLUDE",
}

// String returns the wire-format name of the opcode.
func (op Opcode) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", uint8(op))
}

// IsNoise reports whether the opcode is a noise application.
func (op Opcode) IsNoise() bool {
	return op >= OpDepolarize1 && op <= OpPauliChannel1
}

func opForChannel(k noise.Kind) Opcode {
	switch k {
	case noise.Depolarize1:
		return OpDepolarize1
	case noise.Depolarize2:
		return OpDepolarize2
	case noise.XError:
		return OpXError
	case noise.YError:
		return OpYError
	case noise.ZError:
		return OpZError
	case noise.PauliChannel1:
		return OpPauliChannel1
	}
	panic(fmt.Sprintf("unmapped noise kind %v", k))
}
