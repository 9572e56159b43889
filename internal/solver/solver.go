// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package solver assembles command lines for the external Fido inference
// engine and runs it as a subprocess, capturing its output streams.
package solver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pdiddy/fido-adapter/pkg/types"
)

// Binary names looked up on PATH when no explicit executable is configured.
const (
	binFido             = "Fido"
	binChooseParameters = "FidoChooseParameters"
)

// Placeholders in the argument vector, substituted with the real temp-file
// paths right before each invocation.
const (
	PlaceholderGraph    = "INPUT_GRAPH"
	PlaceholderProteins = "INPUT_PROTEINS"
)

// defaultLog2States is the solver's built-in subgraph-size cap, made
// explicit when only the precalculation cap is overridden.
const defaultLog2States = 18

// ResolveExe determines the executable to run. An empty setting expects the
// binaries on PATH, a directory gets the binary name appended, anything
// else is taken as the full path to the correct executable.
func ResolveExe(exe string, chooseParams bool) string {
	name := binFido
	if chooseParams {
		name = binChooseParameters
	}
	if exe == "" {
		return name
	}
	if info, err := os.Stat(exe); err == nil && info.IsDir() {
		return filepath.Join(exe, name)
	}
	return exe
}

// BuildArgs assembles the argument vector with path placeholders. In
// parameter-search mode the optional flags and both input files are passed;
// in fixed-parameter mode only the graph file and the three probabilities.
// The accuracy flag is passed as a single "-c N" argument, matching what
// the solver's option parser accepts.
func BuildArgs(cfg types.SolverConfig, params types.SolverParameters) []string {
	var args []string
	log2States := params.Log2States

	if params.ChooseParams() {
		if cfg.NoCleanup {
			args = append(args, "-p")
		}
		if cfg.AllPSMs {
			args = append(args, "-a")
		}
		if cfg.GroupLevel {
			args = append(args, "-g")
		}
		switch cfg.Accuracy {
		case types.AccuracyBest:
			args = append(args, "-c 1")
		case types.AccuracyRelaxed:
			args = append(args, "-c 2")
		case types.AccuracySloppy:
			args = append(args, "-c 3")
		}
		args = append(args, PlaceholderGraph, PlaceholderProteins)
		if cfg.Log2StatesPrecalc != 0 {
			if log2States == 0 {
				log2States = defaultLog2States
			}
			args = append(args, strconv.Itoa(cfg.Log2StatesPrecalc))
		}
	} else {
		args = append(args, PlaceholderGraph,
			formatFloat(params.ProteinPrior),
			formatFloat(params.PeptideEmission),
			formatFloat(params.SpuriousMatch))
	}

	if log2States != 0 {
		args = append(args, strconv.Itoa(log2States))
	}
	return args
}

// SubstitutePaths returns a copy of args with the path placeholders
// replaced by the given file paths.
func SubstitutePaths(args []string, graphPath, proteinsPath string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		switch a {
		case PlaceholderGraph:
			out[i] = graphPath
		case PlaceholderProteins:
			out[i] = proteinsPath
		default:
			out[i] = a
		}
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Outcome classifies how an invocation ended.
type Outcome int

const (
	// Completed means the process terminated on its own; its streams and
	// exit status are available. A nonzero exit status still counts as
	// completed, since the solver writes usable output before failing.
	Completed Outcome = iota
	// FailedToStart means the executable could not be launched.
	FailedToStart
	// TimedOut means the configured deadline expired and the process was
	// killed.
	TimedOut
)

// Result is the captured outcome of one solver invocation.
type Result struct {
	Outcome  Outcome
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// executor abstracts process execution for testing.
type executor interface {
	RunCaptured(ctx context.Context, name string, args []string) (stdout, stderr []byte, exitCode int, err error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) RunCaptured(ctx context.Context, name string, args []string) ([]byte, []byte, int, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Don't hang on inherited pipes if the process has to be killed.
	cmd.WaitDelay = 5 * time.Second
	err := cmd.Run()
	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	return stdout.Bytes(), stderr.Bytes(), exitCode, err
}

// Invoker runs the solver binary with a configurable deadline.
type Invoker struct {
	timeout time.Duration
	exec    executor
}

// NewInvoker creates an invoker. A zero timeout waits for the solver
// indefinitely; its runtime is unbounded by design.
func NewInvoker(timeout time.Duration) *Invoker {
	return &Invoker{timeout: timeout, exec: &osExecutor{}}
}

// Invoke launches the executable with the given arguments and blocks until
// it terminates, the deadline expires, or ctx is cancelled. Stream contents
// are captured as a whole; they are only meaningful on Completed.
func (v *Invoker) Invoke(ctx context.Context, exe string, args []string) (Result, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	stdout, stderr, exitCode, err := v.exec.RunCaptured(ctx, exe, args)
	result := Result{Stdout: stdout, Stderr: stderr, ExitCode: exitCode}

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		result.Outcome = TimedOut
		return result, fmt.Errorf("solver timed out after %s (command: %s)", v.timeout, commandLine(exe, args))
	case err == nil || errors.As(err, &exitErr):
		// A nonzero exit still leaves usable output on stdout/stderr.
		result.Outcome = Completed
		return result, nil
	}

	result.Outcome = FailedToStart
	return result, fmt.Errorf("running solver (command: %s): %w; does the executable exist?", commandLine(exe, args), err)
}

func commandLine(exe string, args []string) string {
	line := exe
	for _, a := range args {
		line += fmt.Sprintf(" %q", a)
	}
	return line
}
