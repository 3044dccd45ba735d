// Package pipeline runs a morphological filter over images on disk: it loads
// a slice stack, converts it to an array, filters it and writes the result
// back as slices.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"morpho3d/internal/models"
	"morpho3d/pkg/array"
	"morpho3d/pkg/morphology"
	"morpho3d/pkg/strel"
	"morpho3d/pkg/visualization"
)

// Metrics summarises the input and output of a run. Sample statistics are
// taken over every channel value.
type Metrics struct {
	InputMean   float64
	InputStdDev float64
	InputMin    float64
	InputMax    float64

	OutputMean   float64
	OutputStdDev float64
	OutputMin    float64
	OutputMax    float64

	// ChangedFraction is the share of samples whose value differs
	ChangedFraction float64

	Elapsed time.Duration
}

// Params holds the parameters of one run.
type Params struct {
	// Input is an image file or a directory of numbered slices.
	Input string

	// OutputDir receives the filtered slices. Nothing is written when empty.
	OutputDir string

	Operation morphology.Operation
	Element   strel.Element
	Mode      models.Mode

	// Threshold is the gray level at or above which a pixel is set in
	// binary mode.
	Threshold uint16

	// Shift is added to the Laplacian.
	Shift float64

	// Workers bounds the goroutines used by the filter.
	Workers int

	// Format and Axis select how output slices are written.
	Format string
	Axis   string

	Logger   logrus.FieldLogger
	Progress morphology.ProgressFunc
}

// Runner executes the load, filter and save steps.
type Runner struct {
	params *Params
	logger logrus.FieldLogger

	stack   *models.Stack
	metrics Metrics
	files   []string
}

// NewRunner creates a runner with the provided parameters.
func NewRunner(params *Params) *Runner {
	logger := params.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Runner{params: params, logger: logger}
}

// Process runs the complete pipeline.
func (r *Runner) Process(ctx context.Context) error {
	start := time.Now()

	r.logger.WithField("input", r.params.Input).Info("Step 1: Loading input slices")
	stack, err := LoadStack(r.params.Input)
	if err != nil {
		return fmt.Errorf("failed to load slices: %w", err)
	}
	r.stack = stack
	r.logger.WithFields(logrus.Fields{
		"slices": stack.Depth(),
		"width":  stack.Width,
		"height": stack.Height,
	}).Info("Loaded slices")

	r.logger.WithFields(logrus.Fields{
		"operation": r.params.Operation,
		"element":   r.params.Element.Size(),
		"mode":      r.params.Mode,
		"workers":   r.params.Workers,
	}).Info("Step 2: Filtering")

	opts := []morphology.Option{
		morphology.WithContext(ctx),
		morphology.WithWorkers(r.params.Workers),
		morphology.WithLogger(r.logger),
	}
	if r.params.Progress != nil {
		opts = append(opts, morphology.WithProgress(r.params.Progress))
	}

	var in, out []*array.Array[uint16]
	switch r.params.Mode {
	case models.Gray:
		a := GrayArray(stack)
		res, err := morphology.Apply(r.params.Operation, a, r.params.Element, array.Saturate[uint16](r.params.Shift), opts...)
		if err != nil {
			return fmt.Errorf("failed to filter: %w", err)
		}
		in, out = []*array.Array[uint16]{a}, []*array.Array[uint16]{res}
	case models.Binary:
		b := array.Threshold(GrayArray(stack), r.params.Threshold)
		res, err := morphology.ApplyBinary(r.params.Operation, b, r.params.Element, opts...)
		if err != nil {
			return fmt.Errorf("failed to filter: %w", err)
		}
		in = []*array.Array[uint16]{array.FromBinary[uint16](b, 0xffff)}
		out = []*array.Array[uint16]{array.FromBinary[uint16](res, 0xffff)}
	case models.RGB:
		v := RGBVector(stack)
		res, err := morphology.ApplyVector(r.params.Operation, v, r.params.Element, array.Saturate[uint16](r.params.Shift), opts...)
		if err != nil {
			return fmt.Errorf("failed to filter: %w", err)
		}
		for c := 0; c < v.Channels(); c++ {
			in = append(in, v.Channel(c))
			out = append(out, res.Channel(c))
		}
	default:
		return fmt.Errorf("unknown mode %d", r.params.Mode)
	}

	r.logger.Info("Step 3: Calculating metrics")
	r.metrics = computeMetrics(in, out)

	if r.params.OutputDir != "" {
		r.logger.WithField("output", r.params.OutputDir).Info("Step 4: Saving slices")
		viewer, err := visualization.NewViewer(out...)
		if err != nil {
			return fmt.Errorf("failed to create viewer: %w", err)
		}
		axis := r.params.Axis
		if len(stack.Shape()) == 2 {
			axis = "z"
		}
		files, err := viewer.SaveSliceSequence(axis, filepath.Clean(r.params.OutputDir), r.params.Format)
		if err != nil {
			return fmt.Errorf("failed to save slices: %w", err)
		}
		r.files = files
	}

	r.metrics.Elapsed = time.Since(start)
	return nil
}

// GetMetrics returns the metrics of the last run.
func (r *Runner) GetMetrics() Metrics {
	return r.metrics
}

// OutputFiles returns the slices written by the last run.
func (r *Runner) OutputFiles() []string {
	return r.files
}

func computeMetrics(in, out []*array.Array[uint16]) Metrics {
	x, y := toFloat(in), toFloat(out)
	var m Metrics
	if len(x) == 0 {
		return m
	}
	m.InputMean, m.InputStdDev = stat.MeanStdDev(x, nil)
	m.OutputMean, m.OutputStdDev = stat.MeanStdDev(y, nil)
	m.InputMin, m.InputMax = floats.Min(x), floats.Max(x)
	m.OutputMin, m.OutputMax = floats.Min(y), floats.Max(y)

	changed := 0
	for i := range x {
		if x[i] != y[i] {
			changed++
		}
	}
	m.ChangedFraction = float64(changed) / float64(len(x))
	return m
}

func toFloat(channels []*array.Array[uint16]) []float64 {
	var out []float64
	for _, ch := range channels {
		for _, v := range ch.Data() {
			out = append(out, float64(v))
		}
	}
	return out
}
