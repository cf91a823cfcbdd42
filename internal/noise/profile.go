package noise

import "fmt"

// Profile is a pure lookup table mapping operation categories to noise
// channels, derived once from a base physical error rate. Profiles carry
// no mutable state and are safe to share across concurrent code instances.
type Profile struct {
	Name string

	SingleQubitGate Channel
	TwoQubitGate    Channel
	MeasurementFlip float64
	ResetFlip       float64
	Idle            Channel
}

func checkRate(p float64) error {
	if p < 0 || p > 1 {
		return fmt.Errorf("noise parameter %g is outside [0, 1]", p)
	}
	return nil
}

// Depolarizing derives every category rate directly from p, the convention
// used in arxiv.org/abs/2205.09828 and arxiv.org/abs/1311.5003.
func Depolarizing(p float64) (Profile, error) {
	if err := checkRate(p); err != nil {
		return Profile{}, err
	}
	return Profile{
		Name:            "depolarizing",
		SingleQubitGate: NewDepolarize1(p),
		TwoQubitGate:    NewDepolarize2(p),
		MeasurementFlip: p,
		ResetFlip:       p,
		Idle:            NewDepolarize1(p),
	}, nil
}

// ByName builds the named profile at base rate p. The names match the
// identifiers experiment manifests and records use.
func ByName(name string, p float64) (Profile, error) {
	switch name {
	case "depolarizing":
		return Depolarizing(p)
	case "circuit_level":
		return CircuitLevel(p)
	default:
		return Profile{}, fmt.Errorf("unknown noise profile %q", name)
	}
}

// CircuitLevel keeps two-qubit gate noise at p and scales every other
// category down by a factor of ten, reflecting that two-qubit gates
// dominate physical error budgets.
func CircuitLevel(p float64) (Profile, error) {
	if err := checkRate(p); err != nil {
		return Profile{}, err
	}
	return Profile{
		Name:            "circuit_level",
		SingleQubitGate: NewDepolarize1(p / 10),
		TwoQubitGate:    NewDepolarize2(p),
		MeasurementFlip: p / 10,
		ResetFlip:       p / 10,
		Idle:            NewDepolarize1(p / 10),
	}, nil
}
