// Package code synthesizes fault-tolerant syndrome-extraction circuits
// for topological stabilizer codes. Two rotated planar variants are
// provided: the plain code with one auxiliary qubit per stabilizer, and
// a hardened variant that pairs every auxiliary with a flag qubit to
// catch measurement errors.
package code

import (
	"errors"
	"fmt"

	"machq/internal/circuit"
	"machq/internal/noise"
	"machq/internal/qubit"
)

// ErrUnknownCode reports a variant name New does not recognize.
var ErrUnknownCode = errors.New("unknown code variant")

// Names lists the registered variant names accepted by New.
func Names() []string {
	return []string{"rotated_planar", "rotated_planar_flags"}
}

// New constructs the variant registered under name. The names match the
// Name methods of the variants.
func New(name string, xDistance, zDistance int, profile noise.Profile) (Code, error) {
	switch name {
	case "rotated_planar":
		return NewRotatedPlanar(xDistance, zDistance, profile)
	case "rotated_planar_flags":
		return NewRotatedPlanarFlags(xDistance, zDistance, profile)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCode, name)
	}
}

// Code is the capability set every variant implements. The variant is
// fixed when the instance is constructed; a Code owns its circuit
// builder exclusively and is not safe for concurrent mutation.
type Code interface {
	// Name is the variant's stable identifier, used in experiment
	// records and cache keys.
	Name() string

	XDistance() int
	ZDistance() int

	// DataQubits returns the qubits holding the encoded information.
	DataQubits() []qubit.Qubit
	// AuxiliaryQubits returns all X-type entries followed by all Z-type
	// entries, order-preserving within each type.
	AuxiliaryQubits() []qubit.Qubit
	// FlagQubits returns the paired flag qubits in auxiliary order, or
	// nil for variants without flags.
	FlagQubits() []qubit.Qubit

	// Circuit returns the instruction log being built.
	Circuit() *circuit.Builder
	// ClearCircuit empties the instruction log while keeping the
	// geometry, for reuse across independent memory experiments.
	ClearCircuit()

	// LogicalXMemory builds a full logical-plus memory experiment with
	// the given number of rounds (the X distance when rounds <= 0).
	LogicalXMemory(rounds int) error
	// LogicalZMemory builds a full logical-zero memory experiment with
	// the given number of rounds (the Z distance when rounds <= 0).
	LogicalZMemory(rounds int) error
}

var (
	_ Code = (*RotatedPlanar)(nil)
	_ Code = (*RotatedPlanarFlags)(nil)
)

// Schedule is the four coordinate deltas one stabilizer type walks
// through during syndrome extraction, one delta per time slot.
type Schedule [4]qubit.Qubit

var zeroSchedule Schedule

func (s Schedule) isZero() bool { return s == zeroSchedule }
