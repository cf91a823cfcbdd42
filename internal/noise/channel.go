package noise

import "fmt"

// Kind enumerates the noise channels the circuit builder can emit.
type Kind uint8

const (
	// Depolarize1 is unbiased single-qubit depolarizing noise.
	Depolarize1 Kind = iota
	// Depolarize2 is unbiased two-qubit depolarizing noise.
	Depolarize2
	// XError flips the qubit in the X basis with the given probability.
	XError
	// YError flips the qubit in the Y basis with the given probability.
	YError
	// ZError flips the qubit in the Z basis with the given probability.
	ZError
	// PauliChannel1 applies X, Y, Z errors with an explicit weight each.
	PauliChannel1
)

var kindNames = [...]string{
	Depolarize1:   "DEPOLARIZE1",
	Depolarize2:   "DEPOLARIZE2",
	XError:        "X_ERROR",
	YError:        "Y_ERROR",
	ZError:        "Z_ERROR",
	PauliChannel1: "PAULI_CHANNEL_1",
}

// String returns the wire-format instruction name of the channel kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Channel describes one noise channel: its kind plus either a single
// probability or an explicit Pauli weight tuple. Probabilities are
// validated by the profile constructors, never here.
type Channel struct {
	Kind Kind
	Args []float64
}

// NewDepolarize1 returns single-qubit depolarizing noise of strength p.
func NewDepolarize1(p float64) Channel {
	return Channel{Kind: Depolarize1, Args: []float64{p}}
}

// NewDepolarize2 returns two-qubit depolarizing noise of strength p.
func NewDepolarize2(p float64) Channel {
	return Channel{Kind: Depolarize2, Args: []float64{p}}
}

// NewXError returns an X flip channel of strength p.
func NewXError(p float64) Channel {
	return Channel{Kind: XError, Args: []float64{p}}
}

// NewYError returns a Y flip channel of strength p.
func NewYError(p float64) Channel {
	return Channel{Kind: YError, Args: []float64{p}}
}

// NewZError returns a Z flip channel of strength p.
func NewZError(p float64) Channel {
	return Channel{Kind: ZError, Args: []float64{p}}
}

// NewPauliChannel1 returns a single-qubit Pauli channel with explicit
// X, Y and Z weights.
func NewPauliChannel1(px, py, pz float64) Channel {
	return Channel{Kind: PauliChannel1, Args: []float64{px, py, pz}}
}
