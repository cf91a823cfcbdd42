package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"machq/internal/code"
	"machq/internal/experiment"
	"machq/internal/noise"
	"machq/internal/observ"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Synthesize a memory-experiment circuit",
	Long: `Build a complete quantum memory experiment for one code instance and
print it in stim's text format, or write it to a file with -o.`,
	Args: cobra.NoArgs,
	RunE: buildExecution,
}

func init() {
	buildCmd.Flags().String("code", "rotated_planar", "code variant (rotated_planar|rotated_planar_flags)")
	buildCmd.Flags().Int("distance", 3, "code distance for both logical operators")
	buildCmd.Flags().Int("x-distance", 0, "logical-X distance (overrides --distance)")
	buildCmd.Flags().Int("z-distance", 0, "logical-Z distance (overrides --distance)")
	buildCmd.Flags().Int("rounds", 0, "syndrome rounds (0 means one per unit of distance)")
	buildCmd.Flags().String("profile", "depolarizing", "noise profile (depolarizing|circuit_level)")
	buildCmd.Flags().Float64("p", 0.001, "base physical error rate")
	buildCmd.Flags().String("memory", "z", "logical memory basis (z|x)")
	buildCmd.Flags().StringP("out", "o", "", "write the circuit to a file instead of stdout")
}

func buildExecution(cmd *cobra.Command, args []string) error {
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
	rounds, err := cmd.Flags().GetInt("rounds")
	if err != nil {
		return err
	}
	profileName, err := cmd.Flags().GetString("profile")
	if err != nil {
		return err
	}
	rate, err := cmd.Flags().GetFloat64("p")
	if err != nil {
		return err
	}
	memory, err := cmd.Flags().GetString("memory")
	if err != nil {
		return err
	}
	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}

	if xDistance == 0 {
		xDistance = distance
	}
	if zDistance == 0 {
		zDistance = distance
	}
	basis, err := experiment.NormalizeBasis(memory)
	if err != nil {
		return err
	}

	timer := observ.NewTimer()

	prof, err := noise.ByName(profileName, rate)
	if err != nil {
		return err
	}

	var c code.Code
	if err := timer.Time("layout", func() error {
		var err error
		c, err = code.New(variant, xDistance, zDistance, prof)
		return err
	}); err != nil {
		return err
	}

	if err := timer.Time("synthesize", func() error {
		if basis == "x" {
			return c.LogicalXMemory(rounds)
		}
		return c.LogicalZMemory(rounds)
	}); err != nil {
		return err
	}

	var text string
	if err := timer.Time("render", func() error {
		text = c.Circuit().String()
		return nil
	}); err != nil {
		return err
	}

	if outPath == "" {
		fmt.Fprint(cmd.OutOrStdout(), text)
	} else {
		if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write circuit: %w", err)
		}
		if !quietFlag(cmd) {
			p := message.NewPrinter(language.English)
			p.Fprintf(cmd.OutOrStdout(), "wrote %s: %d instructions, %d qubits, %d measurements\n",
				outPath, len(c.Circuit().Instructions()), c.Circuit().NumQubits(), c.Circuit().Measurements())
		}
	}

	if timingsFlag(cmd) {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	return nil
}
