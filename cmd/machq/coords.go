package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"machq/internal/code"
	"machq/internal/noise"
	"machq/internal/qubit"
	"machq/internal/ui"
)

var coordsCmd = &cobra.Command{
	Use:   "coords",
	Short: "Inspect the qubit layout of a code instance",
	Long: `Print the data, auxiliary and flag coordinate sets of a code instance
together with a lattice diagram.`,
	Args: cobra.NoArgs,
	RunE: coordsExecution,
}

func init() {
	coordsCmd.Flags().String("code", "rotated_planar", "code variant (rotated_planar|rotated_planar_flags)")
	coordsCmd.Flags().Int("distance", 3, "code distance for both logical operators")
	coordsCmd.Flags().Int("x-distance", 0, "logical-X distance (overrides --distance)")
	coordsCmd.Flags().Int("z-distance", 0, "logical-Z distance (overrides --distance)")
	coordsCmd.Flags().Bool("list", false, "also list every coordinate by role")
}

// typedAux exposes the per-type auxiliary split both variants provide.
type typedAux interface {
	XAuxiliaryQubits() []qubit.Qubit
	ZAuxiliaryQubits() []qubit.Qubit
}

func coordsExecution(cmd *cobra.Command, args []string) error {
	variant, err := cmd.Flags().GetString("code")
	if err != nil {
		return err
	}
	distance, err := cmd.Flags().GetInt("distance")
	if err != nil {
		return err
	}
	xDistance, err := cmd.Flags().GetInt("x-distance")
	if err != nil {
		return err
	}
	zDistance, err := cmd.Flags().GetInt("z-distance")
	if err != nil {
		return err
	}
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if xDistance == 0 {
		xDistance = distance
	}
	if zDistance == 0 {
		zDistance = distance
	}

	prof, err := noise.Depolarizing(0)
	if err != nil {
		return err
	}
	c, err := code.New(variant, xDistance, zDistance, prof)
	if err != nil {
		return err
	}
	aux, ok := c.(typedAux)
	if !ok {
		return fmt.Errorf("variant %q does not expose typed auxiliaries", variant)
	}

	lattice := ui.Lattice{
		Data:  c.DataQubits(),
		XAux:  aux.XAuxiliaryQubits(),
		ZAux:  aux.ZAuxiliaryQubits(),
		Flags: c.FlagQubits(),
	}

	out := cmd.OutOrStdout()
	colored := colorFlag(cmd)

	fmt.Fprintf(out, "%s %dx%d: %d data, %d auxiliary, %d flag\n\n",
		c.Name(), c.XDistance(), c.ZDistance(),
		len(c.DataQubits()), len(c.AuxiliaryQubits()), len(c.FlagQubits()))
	fmt.Fprint(out, lattice.Render(colored))
	fmt.Fprintf(out, "\n%s\n", lattice.Legend(colored))

	if list {
		fmt.Fprintln(out)
		printCoords(out, "data", c.DataQubits())
		printCoords(out, "x auxiliary", aux.XAuxiliaryQubits())
		printCoords(out, "z auxiliary", aux.ZAuxiliaryQubits())
		if flags := c.FlagQubits(); len(flags) > 0 {
			printCoords(out, "flag", flags)
		}
	}
	return nil
}

func printCoords(out io.Writer, role string, qs []qubit.Qubit) {
	parts := make([]string, len(qs))
	for i, q := range qs {
		parts[i] = q.String()
	}
	fmt.Fprintf(out, "%-12s %s\n", role+":", strings.Join(parts, " "))
}
