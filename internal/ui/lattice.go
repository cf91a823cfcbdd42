package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"machq/internal/qubit"
)

// Lattice is the qubit layout of one code instance, split by role.
// Flags may be nil.
type Lattice struct {
	Data  []qubit.Qubit
	XAux  []qubit.Qubit
	ZAux  []qubit.Qubit
	Flags []qubit.Qubit
}

const (
	dataGlyph = "o"
	xAuxGlyph = "X"
	zAuxGlyph = "Z"
	flagGlyph = "f"
)

var (
	dataStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7dcfff"))
	xAuxStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e"))
	zAuxStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a"))
	flagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68"))
)

type latticeCell struct {
	glyph string
	style lipgloss.Style
}

// Render draws the lattice as rows of glyphs, highest y first so the
// diagram matches the coordinate system. Flag qubits sit on half-integer
// coordinates, so each lattice unit spans two character cells.
func (l Lattice) Render(colored bool) string {
	cells := make(map[[2]int]latticeCell)
	maxCol, maxRow := 0, 0
	place := func(qs []qubit.Qubit, glyph string, style lipgloss.Style) {
		for _, q := range qs {
			col, row := int(q.X*2), int(q.Y*2)
			cells[[2]int{col, row}] = latticeCell{glyph: glyph, style: style}
			maxCol = max(maxCol, col)
			maxRow = max(maxRow, row)
		}
	}
	place(l.Data, dataGlyph, dataStyle)
	place(l.XAux, xAuxGlyph, xAuxStyle)
	place(l.ZAux, zAuxGlyph, zAuxStyle)
	place(l.Flags, flagGlyph, flagStyle)

	render := func(c latticeCell) string {
		if colored {
			return c.style.Render(c.glyph)
		}
		return c.glyph
	}

	var b strings.Builder
	for row := maxRow; row >= 0; row-- {
		line := strings.Builder{}
		for col := 0; col <= maxCol; col++ {
			if c, ok := cells[[2]int{col, row}]; ok {
				line.WriteString(render(c))
			} else {
				line.WriteString(" ")
			}
			line.WriteString(" ")
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteString("\n")
	}
	return b.String()
}

// Legend names the glyphs used by Render.
func (l Lattice) Legend(colored bool) string {
	entries := []struct {
		cell  latticeCell
		label string
		skip  bool
	}{
		{latticeCell{dataGlyph, dataStyle}, "data", false},
		{latticeCell{xAuxGlyph, xAuxStyle}, "X auxiliary", false},
		{latticeCell{zAuxGlyph, zAuxStyle}, "Z auxiliary", false},
		{latticeCell{flagGlyph, flagStyle}, "flag", len(l.Flags) == 0},
	}
	var parts []string
	for _, e := range entries {
		if e.skip {
			continue
		}
		glyph := e.cell.glyph
		if colored {
			glyph = e.cell.style.Render(glyph)
		}
		parts = append(parts, glyph+" "+e.label)
	}
	return strings.Join(parts, "   ")
}
