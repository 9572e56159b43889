// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/fido-adapter/internal/idfile"
	"github.com/pdiddy/fido-adapter/internal/infer"
	"github.com/pdiddy/fido-adapter/internal/runlog"
	"github.com/pdiddy/fido-adapter/pkg/types"
)

var inferCmd = &cobra.Command{
	Use:   "infer",
	Short: "Score and group proteins with the Fido inference engine",
	Long: `Infer loads an identification document, runs Fido (or
FidoChooseParameters for parameter estimation), and writes the document back
out augmented with indistinguishable protein groups, their posterior
probabilities, and the resolved solver parameters.

Protein hits must carry target/decoy annotations, and peptide hit scores
must be posterior probabilities. Posterior error probabilities from known
score types are converted automatically.`,
	RunE: runInfer,
}

func init() {
	inferCmd.Flags().String("in", "", "input identification document (YAML)")
	inferCmd.Flags().String("out", "", "output document with scored/grouped proteins")
	inferCmd.Flags().String("exe", "", "solver executable, or directory containing the Fido and FidoChooseParameters executables; empty expects them on PATH")
	inferCmd.Flags().String("prob-param", "", "read the peptide probability from this hit meta value instead of the score field, if available")
	inferCmd.Flags().Bool("separate-runs", false, "process multiple protein identification runs separately, don't merge them")
	inferCmd.Flags().Bool("keep-zero-group", true, "keep the group of proteins with estimated probability of zero, which may be very large")
	inferCmd.Flags().Bool("no-cleanup", false, "omit solver clean-up of peptide sequences (removal of non-letter characters, replacement of I with L)")
	inferCmd.Flags().Bool("all-psms", false, "consider all PSMs of each peptide, instead of only the best one")
	inferCmd.Flags().Bool("group-level", false, "perform inference on protein group level instead of individual protein level")
	inferCmd.Flags().String("accuracy", "", "accuracy level of start parameters: best, relaxed, or sloppy (empty uses the solver default)")
	inferCmd.Flags().Int("log2-states", 0, "binary logarithm of the max. number of connected states in a subgraph; 0 uses the solver default (18)")
	inferCmd.Flags().Int("log2-states-precalc", 0, "like log2-states, but a separate limit for the precalculation")
	inferCmd.Flags().Float64("prob-protein", 0, "protein prior probability (gamma); set all three probabilities to skip parameter estimation")
	inferCmd.Flags().Float64("prob-peptide", 0, "peptide emission probability (alpha)")
	inferCmd.Flags().Float64("prob-spurious", 0, "spurious peptide identification probability (beta)")
	inferCmd.Flags().Duration("timeout", 0, "maximum solver runtime; 0 waits indefinitely")
	inferCmd.Flags().Bool("keep-temp", false, "keep temporary solver input/output files for diagnostics")
	inferCmd.Flags().String("runlog", "", "record the inference result in this SQLite run-log database")

	inferCmd.MarkFlagRequired("in")
	inferCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(inferCmd)
}

func runInfer(cmd *cobra.Command, args []string) error {
	in, _ := cmd.Flags().GetString("in")
	out, _ := cmd.Flags().GetString("out")

	cfg, err := inferConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "Reading input data...")
	doc, err := idfile.Load(in)
	if err != nil {
		return err
	}

	runErr := infer.Run(context.Background(), doc, cfg, os.Stderr)
	if runErr != nil && !errors.Is(runErr, infer.ErrSolverRun) {
		// Data-quality failures and empty input leave no usable result.
		return runErr
	}

	if err := idfile.Save(out, doc); err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("runlog"); path != "" && runErr == nil {
		if err := recordRuns(path, doc); err != nil {
			return err
		}
	}

	return runErr
}

// inferConfig assembles the run configuration from flags, falling back to
// the viper config file for unset solver settings.
func inferConfig(cmd *cobra.Command) (types.InferConfig, error) {
	var cfg types.InferConfig

	cfg.Solver.Exe, _ = cmd.Flags().GetString("exe")
	if cfg.Solver.Exe == "" {
		cfg.Solver.Exe = viper.GetString("solver.exe")
	}
	accuracy, _ := cmd.Flags().GetString("accuracy")
	cfg.Solver.Accuracy = types.Accuracy(accuracy)
	if !cfg.Solver.Accuracy.Valid() {
		return cfg, fmt.Errorf("invalid accuracy level %q (choose best, relaxed, or sloppy)", accuracy)
	}
	cfg.Solver.NoCleanup, _ = cmd.Flags().GetBool("no-cleanup")
	cfg.Solver.AllPSMs, _ = cmd.Flags().GetBool("all-psms")
	cfg.Solver.GroupLevel, _ = cmd.Flags().GetBool("group-level")
	cfg.Solver.Log2StatesPrecalc, _ = cmd.Flags().GetInt("log2-states-precalc")
	cfg.Solver.Timeout, _ = cmd.Flags().GetDuration("timeout")
	if cfg.Solver.Timeout == 0 {
		cfg.Solver.Timeout = viper.GetDuration("solver.timeout")
	}

	cfg.Params.ProteinPrior, _ = cmd.Flags().GetFloat64("prob-protein")
	cfg.Params.PeptideEmission, _ = cmd.Flags().GetFloat64("prob-peptide")
	cfg.Params.SpuriousMatch, _ = cmd.Flags().GetFloat64("prob-spurious")
	cfg.Params.Log2States, _ = cmd.Flags().GetInt("log2-states")
	for _, v := range []float64{cfg.Params.ProteinPrior, cfg.Params.PeptideEmission, cfg.Params.SpuriousMatch} {
		if v < 0 {
			return cfg, fmt.Errorf("probability parameters must be non-negative")
		}
	}

	cfg.ProbParam, _ = cmd.Flags().GetString("prob-param")
	cfg.SeparateRuns, _ = cmd.Flags().GetBool("separate-runs")
	cfg.KeepZeroGroup, _ = cmd.Flags().GetBool("keep-zero-group")
	cfg.KeepTemp, _ = cmd.Flags().GetBool("keep-temp")

	return cfg, nil
}

func recordRuns(path string, doc *types.IdentificationDocument) error {
	store, err := runlog.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	for i := range doc.ProteinRuns {
		if err := store.Record(context.Background(), &doc.ProteinRuns[i]); err != nil {
			return err
		}
	}
	return nil
}

// exitCode maps an error to the adapter's exit code: empty input and
// solver/data failures are distinguishable for scripting.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, infer.ErrEmptyInput) {
		return exitEmptyInput
	}
	return exitFailure
}
