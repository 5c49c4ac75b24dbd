package main

import (
	"fmt"
	"image"
	_ "image/png"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/imgreg/internal/config"
	"github.com/cwbudde/imgreg/internal/grid"
	"github.com/cwbudde/imgreg/internal/register"
	"github.com/cwbudde/imgreg/internal/trace"
)

var (
	fixedPath  string
	movingPath string
	configPath string
	dataDir    string
	runID      string
	levels     int
	iters      int
	seed       int64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a full registration",
	Long:  `Registers the moving image onto the fixed image and writes the resulting transform parameters and an iteration trace.`,
	RunE:  runRegistration,
}

func init() {
	runCmd.Flags().StringVar(&fixedPath, "fixed", "", "Fixed (reference) image path (required)")
	runCmd.Flags().StringVar(&movingPath, "moving", "", "Moving image path (required)")
	runCmd.Flags().StringVar(&configPath, "config", "imgreg.yaml", "Configuration file path")
	runCmd.Flags().StringVar(&dataDir, "data", "./data", "Directory for run artifacts")
	runCmd.Flags().StringVar(&runID, "id", "", "Run ID (default: timestamp)")
	runCmd.Flags().IntVar(&levels, "levels", 0, "Override pyramid levels")
	runCmd.Flags().IntVar(&iters, "iters", 0, "Override max iterations per level")
	runCmd.Flags().Int64Var(&seed, "seed", -1, "Override sampling seed")

	runCmd.MarkFlagRequired("fixed")
	runCmd.MarkFlagRequired("moving")
	rootCmd.AddCommand(runCmd)
}

func runRegistration(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if levels > 0 {
		cfg.Pyramid.Levels = levels
	}
	if iters > 0 {
		cfg.Optimizer.MaxIterations = iters
	}
	if seed >= 0 {
		cfg.Sampler.Seed = seed
	}

	fixed, err := loadGrayImage(fixedPath)
	if err != nil {
		return fmt.Errorf("failed to load fixed image: %w", err)
	}
	moving, err := loadGrayImage(movingPath)
	if err != nil {
		return fmt.Errorf("failed to load moving image: %w", err)
	}

	slog.Info("loaded images",
		"fixed", fmt.Sprintf("%dx%d", fixed.Width, fixed.Height),
		"moving", fmt.Sprintf("%dx%d", moving.Width, moving.Height),
		"metric", cfg.Metric.Name,
	)

	if runID == "" {
		runID = time.Now().UTC().Format("20060102-150405")
	}
	tw, err := trace.NewWriter(dataDir, runID)
	if err != nil {
		return err
	}
	defer tw.Close()

	start := time.Now()
	result, err := register.Run(fixed, moving, nil, nil, cfg, tw)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	elapsed := time.Since(start)

	store, err := trace.NewStore(dataDir)
	if err != nil {
		return err
	}
	if err := store.Save(&trace.RunResult{
		RunID:       runID,
		Parameters:  result.Parameters,
		FinalCost:   result.FinalCost,
		InitialCost: result.InitialCost,
		Levels:      result.Levels,
		Iterations:  result.Iterations,
		Timestamp:   time.Now(),
	}); err != nil {
		return err
	}

	slog.Info("registration run complete",
		"elapsed", elapsed,
		"initial_cost", result.InitialCost,
		"final_cost", result.FinalCost,
		"iterations", result.Iterations,
	)

	fmt.Printf("Run %s: cost %.6g -> %.6g in %d iterations, parameters %v\n",
		runID, result.InitialCost, result.FinalCost, result.Iterations, result.Parameters)
	return nil
}

func loadGrayImage(path string) (*grid.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return grid.FromGray(img), nil
}
