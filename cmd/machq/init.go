package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"machq/internal/experiment"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new machq experiment",
	Long: `Initialize a machq experiment directory by creating a manifest
(machq.toml) with a starter sweep. If [path|name] is omitted, initializes
the current directory. If a non-existing name is provided, a directory
will be created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	var target string
	if len(args) == 0 || args[0] == "." {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		target = wd
	} else {
		arg := args[0]
		if !filepath.IsAbs(arg) {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			target = filepath.Join(wd, arg)
		} else {
			target = arg
		}
	}

	if st, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err = os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %q: %w", target, err)
			}
		} else {
			return err
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	name := strings.TrimSpace(filepath.Base(target))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "memory"
	}

	manifestPath := filepath.Join(target, experiment.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("experiment already initialized: %s exists", manifestPath)
	}

	if err := os.WriteFile(manifestPath, []byte(defaultManifest(name)), 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	rel := target
	if wd, err := os.Getwd(); err == nil {
		if r, err2 := filepath.Rel(wd, target); err2 == nil {
			rel = r
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized machq experiment in %s\n", rel)
	fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", experiment.ManifestName)
	return nil
}

// defaultManifest returns a starter sweep over a threshold-adjacent range
// of physical error rates.
func defaultManifest(name string) string {
	return fmt.Sprintf(`# machq experiment manifest
[experiment]
name = "%s"
code = "rotated_planar"
memory = "z"
profile = "depolarizing"
shots = 10000
batches = 1

[sweep]
distances = [3, 5, 7]
rates = [0.001, 0.002, 0.005, 0.01]
rounds = 0
output = "results.csv"
`, name)
}
