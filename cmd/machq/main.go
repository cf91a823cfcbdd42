// Package main implements the machq CLI.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"machq/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "machq",
	Short: "Surface-code circuit synthesis toolkit",
	Long:  `machq synthesizes fault-tolerant syndrome-extraction circuits for rotated planar surface codes and runs memory-experiment sweeps over them.`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(coordsCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")

	cobra.OnInitialize(applyColorMode)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type colorMode string

const (
	colorModeAuto colorMode = "auto"
	colorModeOn   colorMode = "on"
	colorModeOff  colorMode = "off"
)

func readColorMode(value string) (colorMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return colorModeAuto, nil
	case "on":
		return colorModeOn, nil
	case "off":
		return colorModeOff, nil
	default:
		return "", fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}

func colorEnabled(mode colorMode) bool {
	switch mode {
	case colorModeOn:
		return true
	case colorModeOff:
		return false
	default:
		return isTerminal(os.Stdout)
	}
}

func applyColorMode() {
	value, err := rootCmd.PersistentFlags().GetString("color")
	if err != nil {
		return
	}
	mode, err := readColorMode(value)
	if err != nil {
		// Flag validation happens per command; default to auto here.
		mode = colorModeAuto
	}
	color.NoColor = !colorEnabled(mode)
}

func quietFlag(cmd *cobra.Command) bool {
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	return err == nil && quiet
}

func timingsFlag(cmd *cobra.Command) bool {
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	return err == nil && timings
}

func colorFlag(cmd *cobra.Command) bool {
	value, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false
	}
	mode, err := readColorMode(value)
	if err != nil {
		return false
	}
	return colorEnabled(mode)
}
