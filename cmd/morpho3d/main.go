package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"

	"morpho3d/internal/models"
	"morpho3d/pkg/config"
	"morpho3d/pkg/morphology"
	"morpho3d/pkg/pipeline"
	"morpho3d/pkg/strel"
)

func main() {
	configPath := flag.String("config", "morpho3d.yaml", "YAML configuration file")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	input := flag.String("input", "", "Image file or directory of numbered slices")
	output := flag.String("output", "", "Directory for filtered slices (nothing is written when empty)")
	op := flag.String("op", "", "Operation: "+operationList())
	shape := flag.String("shape", "", "Structuring element: "+shapeList())
	radius := flag.Int("radius", -1, "Structuring element radius")
	mode := flag.String("mode", "", "Pixel mode: gray, binary or rgb")
	threshold := flag.Int("threshold", -1, "Binary threshold on the 16-bit gray level")
	shift := flag.Float64("shift", 0, "Shift added to the Laplacian")
	numCores := flag.Int("cores", 0, "Number of CPU cores to use (default: from config)")
	format := flag.String("format", "", "Output format: png, jpeg or tiff")
	axis := flag.String("axis", "", "Axis output slices are cut along: x, y or z")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// flags override the configuration file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "op":
			cfg.Morphology.Operation = *op
		case "shape":
			cfg.Morphology.Shape = *shape
		case "radius":
			cfg.Morphology.Radius = *radius
			cfg.Morphology.RadiusX, cfg.Morphology.RadiusY, cfg.Morphology.RadiusZ = 0, 0, 0
		case "mode":
			cfg.Processing.Mode = *mode
		case "threshold":
			cfg.Processing.BinaryThreshold = uint16(max(0, min(*threshold, 0xffff)))
		case "shift":
			cfg.Morphology.LaplacianShift = *shift
		case "cores":
			cfg.Processing.NumCores = *numCores
		case "format":
			cfg.Output.Format = *format
		case "axis":
			cfg.Output.Axis = *axis
		case "debug":
			cfg.Output.Debug = *debug
		}
	})

	logger := initLogger(cfg.Output.Debug)

	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	operation, _ := cfg.ParsedOperation()
	element, _ := cfg.Element()
	pixelMode, _ := models.ParseMode(cfg.Processing.Mode)

	params := &pipeline.Params{
		Input:     *input,
		OutputDir: *output,
		Operation: operation,
		Element:   element,
		Mode:      pixelMode,
		Threshold: cfg.Processing.BinaryThreshold,
		Shift:     cfg.Morphology.LaplacianShift,
		Workers:   cfg.Processing.NumCores,
		Format:    cfg.Output.Format,
		Axis:      cfg.Output.Axis,
		Logger:    logger,
	}
	if cfg.Output.Verbose {
		params.Progress = progressLogger(logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := pipeline.NewRunner(params)
	if err := runner.Process(ctx); err != nil {
		logger.Fatalf("Processing failed: %v", err)
	}

	m := runner.GetMetrics()
	fmt.Printf("\n%s with %s element %v completed in %.2f seconds\n",
		operation, cfg.Morphology.Shape, element.Size(), m.Elapsed.Seconds())
	fmt.Printf("Input:  mean %.1f, std-dev %.1f, range [%.0f, %.0f]\n", m.InputMean, m.InputStdDev, m.InputMin, m.InputMax)
	fmt.Printf("Output: mean %.1f, std-dev %.1f, range [%.0f, %.0f]\n", m.OutputMean, m.OutputStdDev, m.OutputMin, m.OutputMax)
	fmt.Printf("Changed samples: %.2f%%\n", 100*m.ChangedFraction)
	if files := runner.OutputFiles(); len(files) > 0 {
		fmt.Printf("Wrote %d slices to %s\n", len(files), *output)
	}
}

func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}

// progressLogger reports progress at every tenth of each step.
func progressLogger(logger logrus.FieldLogger) morphology.ProgressFunc {
	last := ""
	lastDecile := -1
	return func(completed, total int, message string) {
		decile := completed * 10 / total
		if message == last && decile == lastDecile {
			return
		}
		last, lastDecile = message, decile
		logger.WithFields(logrus.Fields{
			"step":      message,
			"completed": completed,
			"total":     total,
		}).Info("progress")
	}
}

func operationList() string {
	var names []string
	for _, op := range morphology.Operations() {
		names = append(names, op.String())
	}
	return strings.Join(names, ", ")
}

func shapeList() string {
	var names []string
	for _, s := range strel.Shapes() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}
