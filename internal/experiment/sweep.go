package experiment

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"machq/internal/code"
	"machq/internal/noise"
)

// Decoder estimates the logical failure probability of a memory
// experiment from its circuit text. Implementations wrap an external
// matching decoder or sampler; none ships in this module.
type Decoder interface {
	Name() string
	LogicalFailureProbability(ctx context.Context, circuitText string, shots int) (float64, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc struct {
	DecoderName string
	Fn          func(ctx context.Context, circuitText string, shots int) (float64, error)
}

func (d DecoderFunc) Name() string { return d.DecoderName }

func (d DecoderFunc) LogicalFailureProbability(ctx context.Context, circuitText string, shots int) (float64, error) {
	return d.Fn(ctx, circuitText, shots)
}

// Point is one cell of the sweep grid.
type Point struct {
	XDistance int
	ZDistance int
	Rounds    int
	Rate      float64
}

// Result is one CSV row: the point, what produced it, and the decoded
// failure statistics.
type Result struct {
	Code             string
	NoiseProfile     string
	Decoder          string
	Pauli            string
	XDistance        int
	ZDistance        int
	Rounds           int
	Shots            int
	PhysicalError    float64
	LogicalErrorMean float64
	LogicalErrorStd  float64
}

// Runner executes a sweep. The zero Decoder means circuits are built
// and cached but failure statistics are recorded as zero.
type Runner struct {
	Config  Config
	Decoder Decoder
	Cache   *Cache

	// Jobs caps concurrent synthesis workers; zero means GOMAXPROCS.
	Jobs int

	// OnResult, when set, observes every finished point. Calls are
	// serialized but arrive in completion order, not grid order.
	OnResult func(Result)
}

// Points expands the sweep grid in deterministic order: distances outer,
// rates inner. Rounds zero in the config resolves to the distance.
func (r *Runner) Points() []Point {
	sw := r.Config.Sweep
	points := make([]Point, 0, len(sw.Distances)*len(sw.Rates))
	for _, d := range sw.Distances {
		rounds := sw.Rounds
		if rounds == 0 {
			rounds = d
		}
		for _, rate := range sw.Rates {
			points = append(points, Point{XDistance: d, ZDistance: d, Rounds: rounds, Rate: rate})
		}
	}
	return points
}

// Run synthesizes and decodes every point in parallel. Results come back
// in grid order regardless of completion order. The first error cancels
// the remaining workers.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	points := r.Points()
	if len(points) == 0 {
		return nil, nil
	}

	jobs := r.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(points))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(points)))

	var emit chan Result
	done := make(chan struct{})
	if r.OnResult != nil {
		emit = make(chan Result)
		go func() {
			defer close(done)
			for res := range emit {
				r.OnResult(res)
			}
		}()
	} else {
		close(done)
	}

	for i, pt := range points {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res, err := r.runPoint(gctx, pt)
			if err != nil {
				return err
			}
			results[i] = res
			if emit != nil {
				select {
				case emit <- res:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	err := g.Wait()
	if emit != nil {
		close(emit)
	}
	<-done
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) runPoint(ctx context.Context, pt Point) (Result, error) {
	exp := r.Config.Experiment

	text, err := r.circuitText(pt)
	if err != nil {
		return Result{}, fmt.Errorf("point d=%dx%d p=%g: %w", pt.XDistance, pt.ZDistance, pt.Rate, err)
	}

	res := Result{
		Code:          exp.Code,
		NoiseProfile:  exp.Profile,
		Decoder:       "none",
		Pauli:         exp.Memory,
		XDistance:     pt.XDistance,
		ZDistance:     pt.ZDistance,
		Rounds:        pt.Rounds,
		Shots:         exp.Shots,
		PhysicalError: pt.Rate,
	}
	if r.Decoder == nil {
		return res, nil
	}
	res.Decoder = r.Decoder.Name()

	mean, std, err := r.decodeBatches(ctx, text, exp.Shots, exp.Batches)
	if err != nil {
		return Result{}, fmt.Errorf("point d=%dx%d p=%g: %w", pt.XDistance, pt.ZDistance, pt.Rate, err)
	}
	res.LogicalErrorMean = mean
	res.LogicalErrorStd = std
	return res, nil
}

// circuitText builds the point's circuit, going through the artifact
// cache when one is attached.
func (r *Runner) circuitText(pt Point) (string, error) {
	exp := r.Config.Experiment

	key := ArtifactKey{
		Code:      exp.Code,
		XDistance: pt.XDistance,
		ZDistance: pt.ZDistance,
		Rounds:    pt.Rounds,
		Profile:   exp.Profile,
		Rate:      pt.Rate,
		Pauli:     exp.Memory,
	}
	if r.Cache != nil {
		var art Artifact
		if ok, err := r.Cache.Get(key.Digest(), &art); err == nil && ok {
			return art.Circuit, nil
		}
	}

	prof, err := noise.ByName(exp.Profile, pt.Rate)
	if err != nil {
		return "", err
	}
	c, err := code.New(exp.Code, pt.XDistance, pt.ZDistance, prof)
	if err != nil {
		return "", err
	}
	switch exp.Memory {
	case "x":
		err = c.LogicalXMemory(pt.Rounds)
	default:
		err = c.LogicalZMemory(pt.Rounds)
	}
	if err != nil {
		return "", err
	}
	text := c.Circuit().String()

	if r.Cache != nil {
		art := NewArtifact(key, c)
		if err := r.Cache.Put(key.Digest(), art); err != nil {
			return "", fmt.Errorf("cache write: %w", err)
		}
	}
	return text, nil
}

// decodeBatches runs the decoder batches times over the same circuit and
// reports the sample mean and standard deviation of the estimates.
func (r *Runner) decodeBatches(ctx context.Context, text string, shots, batches int) (mean, std float64, err error) {
	estimates := make([]float64, 0, batches)
	for b := 0; b < batches; b++ {
		p, err := r.Decoder.LogicalFailureProbability(ctx, text, shots)
		if err != nil {
			return 0, 0, err
		}
		estimates = append(estimates, p)
	}
	for _, p := range estimates {
		mean += p
	}
	mean /= float64(len(estimates))
	if len(estimates) > 1 {
		var ss float64
		for _, p := range estimates {
			ss += (p - mean) * (p - mean)
		}
		std = math.Sqrt(ss / float64(len(estimates)-1))
	}
	return mean, std, nil
}
