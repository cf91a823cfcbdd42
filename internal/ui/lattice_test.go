package ui_test

import (
	"strings"
	"testing"

	"machq/internal/code"
	"machq/internal/noise"
	"machq/internal/ui"
)

func lattice(t *testing.T, flags bool) ui.Lattice {
	t.Helper()
	prof, err := noise.Depolarizing(0)
	if err != nil {
		t.Fatalf("Depolarizing: %v", err)
	}
	if flags {
		c, err := code.NewRotatedPlanarFlags(3, 3, prof)
		if err != nil {
			t.Fatalf("NewRotatedPlanarFlags: %v", err)
		}
		return ui.Lattice{
			Data:  c.DataQubits(),
			XAux:  c.XAuxiliaryQubits(),
			ZAux:  c.ZAuxiliaryQubits(),
			Flags: c.FlagQubits(),
		}
	}
	c, err := code.NewRotatedPlanar(3, 3, prof)
	if err != nil {
		t.Fatalf("NewRotatedPlanar: %v", err)
	}
	return ui.Lattice{Data: c.DataQubits(), XAux: c.XAuxiliaryQubits(), ZAux: c.ZAuxiliaryQubits()}
}

func TestRenderPlainLattice(t *testing.T) {
	out := lattice(t, false).Render(false)
	if got := strings.Count(out, "o"); got != 9 {
		t.Fatalf("%d data glyphs, want 9", got)
	}
	if got := strings.Count(out, "X"); got != 4 {
		t.Fatalf("%d X glyphs, want 4", got)
	}
	if got := strings.Count(out, "Z"); got != 4 {
		t.Fatalf("%d Z glyphs, want 4", got)
	}
	if strings.Contains(out, "f") {
		t.Fatal("plain lattice renders flag glyphs")
	}
	// Rows span y = 0 .. 6 at half-unit resolution.
	if got := strings.Count(out, "\n"); got != 13 {
		t.Fatalf("%d rows, want 13", got)
	}
}

func TestRenderFlagLattice(t *testing.T) {
	out := lattice(t, true).Render(false)
	if got := strings.Count(out, "f"); got != 8 {
		t.Fatalf("%d flag glyphs, want 8", got)
	}
}

func TestLegendMentionsEveryRole(t *testing.T) {
	plain := lattice(t, false).Legend(false)
	if strings.Contains(plain, "flag") {
		t.Fatalf("plain legend mentions flags: %q", plain)
	}
	flagged := lattice(t, true).Legend(false)
	for _, label := range []string{"data", "X auxiliary", "Z auxiliary", "flag"} {
		if !strings.Contains(flagged, label) {
			t.Fatalf("legend %q missing %q", flagged, label)
		}
	}
}
