package experiment_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"machq/internal/experiment"
)

func sweepConfig(t *testing.T, distances []int, rates []float64) experiment.Config {
	t.Helper()
	path := writeManifest(t, t.TempDir(), validManifest)
	cfg, err := experiment.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg.Sweep.Distances = distances
	cfg.Sweep.Rates = rates
	return cfg
}

func TestPointsExpandInGridOrder(t *testing.T) {
	cfg := sweepConfig(t, []int{3, 5}, []float64{0.001, 0.002})
	cfg.Sweep.Rounds = 0

	r := &experiment.Runner{Config: cfg}
	points := r.Points()
	want := []experiment.Point{
		{XDistance: 3, ZDistance: 3, Rounds: 3, Rate: 0.001},
		{XDistance: 3, ZDistance: 3, Rounds: 3, Rate: 0.002},
		{XDistance: 5, ZDistance: 5, Rounds: 5, Rate: 0.001},
		{XDistance: 5, ZDistance: 5, Rounds: 5, Rate: 0.002},
	}
	if len(points) != len(want) {
		t.Fatalf("%d points, want %d", len(points), len(want))
	}
	for i := range want {
		if points[i] != want[i] {
			t.Fatalf("point %d = %+v, want %+v", i, points[i], want[i])
		}
	}
}

func TestRunWithoutDecoderRecordsZeros(t *testing.T) {
	cfg := sweepConfig(t, []int{3}, []float64{0.001, 0.005})

	r := &experiment.Runner{Config: cfg, Jobs: 2}
	results, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("%d results, want 2", len(results))
	}
	for i, res := range results {
		if res.Decoder != "none" {
			t.Fatalf("result %d decoder %q, want none", i, res.Decoder)
		}
		if res.LogicalErrorMean != 0 || res.LogicalErrorStd != 0 {
			t.Fatalf("result %d has nonzero failure stats without a decoder", i)
		}
		if res.Code != "rotated_planar_flags" || res.Pauli != "x" {
			t.Fatalf("result %d carries wrong experiment fields: %+v", i, res)
		}
	}
	// Grid order regardless of completion order.
	if results[0].PhysicalError != 0.001 || results[1].PhysicalError != 0.005 {
		t.Fatalf("results out of grid order: %+v", results)
	}
}

func TestRunFeedsCircuitTextToDecoder(t *testing.T) {
	cfg := sweepConfig(t, []int{3}, []float64{0.001})
	cfg.Experiment.Batches = 1

	var seen atomic.Value
	r := &experiment.Runner{
		Config: cfg,
		Decoder: experiment.DecoderFunc{
			DecoderName: "recorder",
			Fn: func(ctx context.Context, text string, shots int) (float64, error) {
				seen.Store(text)
				if shots != cfg.Experiment.Shots {
					t.Errorf("decoder got %d shots, want %d", shots, cfg.Experiment.Shots)
				}
				return 0.25, nil
			},
		},
	}
	results, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results[0].Decoder != "recorder" || results[0].LogicalErrorMean != 0.25 {
		t.Fatalf("result: %+v", results[0])
	}
	text, _ := seen.Load().(string)
	for _, marker := range []string{"QUBIT_COORDS", "TICK", "DETECTOR", "OBSERVABLE_INCLUDE"} {
		if !strings.Contains(text, marker) {
			t.Fatalf("decoder input missing %s", marker)
		}
	}
}

func TestRunAveragesDecoderBatches(t *testing.T) {
	cfg := sweepConfig(t, []int{3}, []float64{0.001})
	cfg.Experiment.Batches = 3

	estimates := []float64{0.1, 0.2, 0.3}
	var calls atomic.Int64
	r := &experiment.Runner{
		Config: cfg,
		Decoder: experiment.DecoderFunc{
			DecoderName: "sequence",
			Fn: func(ctx context.Context, text string, shots int) (float64, error) {
				return estimates[calls.Add(1)-1], nil
			},
		},
	}
	results, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("%d decoder calls, want 3", got)
	}
	res := results[0]
	if diff := res.LogicalErrorMean - 0.2; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("mean %g, want 0.2", res.LogicalErrorMean)
	}
	// Sample standard deviation of {0.1, 0.2, 0.3}.
	if diff := res.LogicalErrorStd - 0.1; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("std %g, want 0.1", res.LogicalErrorStd)
	}
}

func TestRunPropagatesDecoderError(t *testing.T) {
	cfg := sweepConfig(t, []int{3, 5}, []float64{0.001})

	boom := errors.New("matcher unavailable")
	r := &experiment.Runner{
		Config: cfg,
		Decoder: experiment.DecoderFunc{
			DecoderName: "broken",
			Fn: func(ctx context.Context, text string, shots int) (float64, error) {
				return 0, boom
			},
		},
	}
	if _, err := r.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped decoder error", err)
	}
}

func TestRunReportsEveryResult(t *testing.T) {
	cfg := sweepConfig(t, []int{3, 5}, []float64{0.001, 0.002})

	var mu sync.Mutex
	var observed []experiment.Result
	r := &experiment.Runner{
		Config: cfg,
		Jobs:   4,
		OnResult: func(res experiment.Result) {
			mu.Lock()
			observed = append(observed, res)
			mu.Unlock()
		},
	}
	results, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(observed) != len(results) {
		t.Fatalf("observed %d results, want %d", len(observed), len(results))
	}
}

func TestRunUsesCache(t *testing.T) {
	cfg := sweepConfig(t, []int{3}, []float64{0.001})

	cache, err := experiment.OpenCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenCacheAt: %v", err)
	}
	r := &experiment.Runner{Config: cfg, Cache: cache}
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	key := experiment.ArtifactKey{
		Code:      cfg.Experiment.Code,
		XDistance: 3,
		ZDistance: 3,
		Rounds:    3,
		Profile:   cfg.Experiment.Profile,
		Rate:      0.001,
		Pauli:     cfg.Experiment.Memory,
	}
	var art experiment.Artifact
	ok, err := cache.Get(key.Digest(), &art)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("sweep did not populate the cache")
	}
	if art.Circuit == "" || art.Qubits == 0 {
		t.Fatalf("cached artifact incomplete: %d qubits, %d circuit bytes", art.Qubits, len(art.Circuit))
	}

	// A second run over the same grid must reproduce identical rows.
	again, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if again[0] != (experiment.Result{
		Code:          cfg.Experiment.Code,
		NoiseProfile:  cfg.Experiment.Profile,
		Decoder:       "none",
		Pauli:         cfg.Experiment.Memory,
		XDistance:     3,
		ZDistance:     3,
		Rounds:        3,
		Shots:         cfg.Experiment.Shots,
		PhysicalError: 0.001,
	}) {
		t.Fatalf("cached rerun row differs: %+v", again[0])
	}
}
