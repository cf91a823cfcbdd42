package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"machq/internal/experiment"
	"machq/internal/observ"
	"machq/internal/ui"
)

const noManifestMessage = "no machq.toml found\nrun `machq init` to create one, or pass --manifest"

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a memory-experiment sweep",
	Long: `Run the sweep described by machq.toml: build one circuit per grid
point in parallel and append the results to the configured CSV file.`,
	Args: cobra.NoArgs,
	RunE: sweepExecution,
}

func init() {
	sweepCmd.Flags().String("manifest", "", "explicit path to machq.toml (default: walk up from the working directory)")
	sweepCmd.Flags().Int("jobs", 0, "maximum parallel synthesis workers (0 means GOMAXPROCS)")
	sweepCmd.Flags().Bool("no-cache", false, "bypass the circuit artifact cache")
	sweepCmd.Flags().String("ui", "auto", "progress interface (auto|on|off)")
}

func sweepExecution(cmd *cobra.Command, args []string) error {
	manifestPath, err := cmd.Flags().GetString("manifest")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	uiMode, err := readColorMode(uiValue)
	if err != nil {
		return fmt.Errorf("invalid --ui value %q (expected auto|on|off)", uiValue)
	}

	manifest, err := locateManifest(manifestPath)
	if err != nil {
		return err
	}

	var cache *experiment.Cache
	if !noCache {
		cache, err = experiment.OpenCache("machq")
		if err != nil {
			return fmt.Errorf("failed to open artifact cache: %w", err)
		}
	}

	runner := &experiment.Runner{
		Config: manifest.Config,
		Cache:  cache,
		Jobs:   jobs,
	}

	timer := observ.NewTimer()
	sweepIdx := timer.Begin("sweep")

	useTUI := colorEnabled(uiMode) && !quietFlag(cmd)
	var results []experiment.Result
	if useTUI {
		results, err = runSweepWithUI(cmd, runner)
	} else {
		results, err = runSweepPlain(cmd, runner)
	}
	timer.End(sweepIdx, fmt.Sprintf("%d points", len(runner.Points())))
	if err != nil {
		return err
	}

	outPath := manifest.Config.Sweep.Output
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(manifest.Root, outPath)
	}
	writeIdx := timer.Begin("write results")
	err = experiment.AppendResults(outPath, results)
	timer.End(writeIdx, "")
	if err != nil {
		return fmt.Errorf("failed to append results: %w", err)
	}

	if !quietFlag(cmd) {
		p := message.NewPrinter(language.English)
		p.Fprintf(cmd.OutOrStdout(), "swept %d points at %d shots each, appended to %s\n",
			len(results), manifest.Config.Experiment.Shots, formatPathForOutput(manifest.Root, outPath))
	}
	if timingsFlag(cmd) {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	return nil
}

func locateManifest(explicit string) (*experiment.Manifest, error) {
	if explicit != "" {
		cfg, err := experiment.LoadConfig(explicit)
		if err != nil {
			return nil, err
		}
		abs, err := filepath.Abs(explicit)
		if err != nil {
			return nil, err
		}
		return &experiment.Manifest{Path: abs, Root: filepath.Dir(abs), Config: cfg}, nil
	}
	manifest, ok, err := experiment.LoadManifest(".")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(noManifestMessage)
	}
	return manifest, nil
}

func runSweepPlain(cmd *cobra.Command, runner *experiment.Runner) ([]experiment.Result, error) {
	quiet := quietFlag(cmd)
	if !quiet {
		runner.OnResult = func(res experiment.Result) {
			fmt.Fprintf(cmd.OutOrStdout(), "  done %s\n", resultLabel(res))
		}
	}
	return runner.Run(cmd.Context())
}

func runSweepWithUI(cmd *cobra.Command, runner *experiment.Runner) ([]experiment.Result, error) {
	points := runner.Points()
	labels := make([]string, len(points))
	for i, pt := range points {
		labels[i] = pointLabel(runner.Config, pt)
	}

	// Buffered so OnResult never blocks if the program quits early; any
	// leftovers are drained below before the runner is joined.
	events := make(chan ui.SweepEvent, 256)
	runner.OnResult = func(res experiment.Result) {
		events <- ui.SweepEvent{
			Point:  pointLabel(runner.Config, experiment.Point{XDistance: res.XDistance, ZDistance: res.ZDistance, Rounds: res.Rounds, Rate: res.PhysicalError}),
			Status: ui.StatusDone,
		}
	}

	prog := tea.NewProgram(ui.NewSweepModel("machq sweep", labels, events), tea.WithOutput(os.Stderr))

	type sweepOutcome struct {
		results []experiment.Result
		err     error
	}
	outcome := make(chan sweepOutcome, 1)
	go func() {
		results, err := runner.Run(cmd.Context())
		close(events)
		outcome <- sweepOutcome{results: results, err: err}
	}()

	_, uiErr := prog.Run()
	drainSweepEvents(events)
	res := <-outcome
	if uiErr != nil {
		return nil, fmt.Errorf("progress ui failed: %w", uiErr)
	}
	return res.results, res.err
}

// drainSweepEvents consumes events until the channel closes, unblocking
// result callbacks once the progress program has stopped reading.
func drainSweepEvents(events <-chan ui.SweepEvent) {
	for range events {
	}
}

func pointLabel(cfg experiment.Config, pt experiment.Point) string {
	return fmt.Sprintf("%s %dx%d r=%d p=%g", cfg.Experiment.Code, pt.XDistance, pt.ZDistance, pt.Rounds, pt.Rate)
}

func resultLabel(res experiment.Result) string {
	return fmt.Sprintf("%s %dx%d r=%d p=%g", res.Code, res.XDistance, res.ZDistance, res.Rounds, res.PhysicalError)
}

func formatPathForOutput(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	if strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
