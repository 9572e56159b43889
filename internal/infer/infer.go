// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package infer orchestrates the adapter pipeline: it reconciles protein
// identification runs (merged or separate), feeds each run through the
// encode/invoke/decode cycle, and writes the inferred groups and solver
// parameters back into the identification document.
package infer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pdiddy/fido-adapter/internal/fidoio"
	"github.com/pdiddy/fido-adapter/internal/sanitize"
	"github.com/pdiddy/fido-adapter/internal/solver"
	"github.com/pdiddy/fido-adapter/pkg/types"
)

var (
	// ErrEmptyInput means the document lacks protein or peptide data.
	ErrEmptyInput = errors.New("input contains no protein or peptide identification data")

	// ErrSolverRun marks an external-tool failure: the solver could not be
	// started, timed out, or reported an exception. The (possibly partial)
	// document is still usable by the caller.
	ErrSolverRun = errors.New("solver execution failed")
)

// Temp-file name stems, suffixed with a run counter in separate mode.
const (
	graphFileStem    = "fido_input_graph"
	proteinsFileStem = "fido_input_proteins"
	statusFileStem   = "fido_status"
	outputFileStem   = "fido_output"
)

// pipeline holds the state shared by all runs of one adapter invocation.
// The accession map and argument vector are built once up front and
// read-only afterwards.
type pipeline struct {
	cfg          types.InferConfig
	chooseParams bool
	accs         *sanitize.Map
	invoker      *solver.Invoker
	exe          string
	args         []string
	tempDir      string
	log          io.Writer
}

// Run processes the whole identification document in place. Data-quality
// failures abort immediately; solver failures are reported as ErrSolverRun
// after all selected runs were attempted.
func Run(ctx context.Context, doc *types.IdentificationDocument, cfg types.InferConfig, log io.Writer) error {
	if doc.IsEmpty() {
		return ErrEmptyInput
	}

	accs := sanitize.NewMap(collectAccessions(doc))

	tempDir, err := os.MkdirTemp("", "fido-adapter-")
	if err != nil {
		return fmt.Errorf("creating temporary directory: %w", err)
	}
	defer func() {
		if cfg.KeepTemp {
			fmt.Fprintf(log, "Keeping temporary files at '%s'.\n", tempDir)
			return
		}
		fmt.Fprintln(log, "Removing temporary files...")
		if err := os.RemoveAll(tempDir); err != nil {
			fmt.Fprintf(log, "Warning: could not remove '%s': %v\n", tempDir, err)
		}
	}()

	chooseParams := cfg.Params.ChooseParams()
	p := &pipeline{
		cfg:          cfg,
		chooseParams: chooseParams,
		accs:         accs,
		invoker:      solver.NewInvoker(cfg.Solver.Timeout),
		exe:          solver.ResolveExe(cfg.Solver.Exe, chooseParams),
		args:         solver.BuildArgs(cfg.Solver, cfg.Params),
		tempDir:      tempDir,
		log:          log,
	}

	if cfg.SeparateRuns {
		return p.runSeparate(ctx, doc)
	}
	return p.runMerged(ctx, doc)
}

// collectAccessions returns the union of protein accessions over all runs.
func collectAccessions(doc *types.IdentificationDocument) []string {
	var accessions []string
	for _, run := range doc.ProteinRuns {
		for _, hit := range run.Hits {
			accessions = append(accessions, hit.Accession)
		}
	}
	return accessions
}

// runSeparate solves every run on its own. A failing solver run does not
// prevent attempting the remaining runs; the returned error reflects only
// the last attempted run. Data-quality failures abort everything.
func (p *pipeline) runSeparate(ctx context.Context, doc *types.IdentificationDocument) error {
	var lastErr error
	for i := range doc.ProteinRuns {
		fmt.Fprintf(p.log, "Protein identification run %d:\n", i+1)
		lastErr = p.runOne(ctx, &doc.ProteinRuns[i], doc.Peptides, i+1)
		if lastErr != nil {
			if errors.Is(lastErr, fidoio.ErrDataQuality) {
				return lastErr
			}
			fmt.Fprintf(p.log, "Error: %v\n", lastErr)
		}
	}
	return lastErr
}

// runMerged pools all runs into one combined record, solves it once, and
// overwrites each grouped protein's score with its group probability. With
// a single run no merging is needed.
func (p *pipeline) runMerged(ctx context.Context, doc *types.IdentificationDocument) error {
	if len(doc.ProteinRuns) == 1 {
		return p.runOne(ctx, &doc.ProteinRuns[0], doc.Peptides, 0)
	}

	combined := types.ProteinRecord{
		SearchEngine:      "Fido",
		ScoreType:         "Posterior Probability",
		HigherScoreBetter: true,
	}
	// Peptides of all runs now belong to the combined run.
	for i := range doc.Peptides {
		doc.Peptides[i].RunID = ""
	}
	combined.Hits = mergeHits(doc.ProteinRuns)

	err := p.runOne(ctx, &combined, doc.Peptides, 0)

	for _, group := range combined.Groups {
		for _, accession := range group.Accessions {
			if hit := combined.FindHit(accession); hit != nil {
				hit.Score = group.Probability
			}
		}
	}
	doc.ProteinRuns = []types.ProteinRecord{combined}
	return err
}

// mergeHits deduplicates protein hits by accession across runs. Precedence
// is explicit: runs are folded in document order and the first occurrence
// of an accession wins, so an earlier run's hit overrides any later run's
// hit, meta values included.
func mergeHits(runs []types.ProteinRecord) []types.ProteinHit {
	seen := make(map[string]struct{})
	var merged []types.ProteinHit
	for _, run := range runs {
		for _, hit := range run.Hits {
			if _, ok := seen[hit.Accession]; ok {
				continue
			}
			seen[hit.Accession] = struct{}{}
			merged = append(merged, hit)
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Accession < merged[j].Accession
	})
	return merged
}

// runOne encodes one run, invokes the solver, and decodes the result into
// the given protein record. counter > 0 suffixes the temp files so separate
// runs do not collide.
func (p *pipeline) runOne(ctx context.Context, protein *types.ProteinRecord, peptides []types.PeptideRecord, counter int) error {
	fmt.Fprintln(p.log, "Generating temporary files for the solver...")
	num := ""
	if counter > 0 {
		num = "." + strconv.Itoa(counter)
	}

	graphPath := filepath.Join(p.tempDir, graphFileStem+num+".txt")
	if err := p.writeGraph(graphPath, peptides, protein.RunID); err != nil {
		return err
	}

	proteinsPath := ""
	if p.chooseParams {
		proteinsPath = filepath.Join(p.tempDir, proteinsFileStem+num+".txt")
		if err := p.writeProteinSet(proteinsPath, protein); err != nil {
			return err
		}
		fmt.Fprintln(p.log, "Running the solver with parameter estimation...")
	} else {
		fmt.Fprintln(p.log, "Running the solver with fixed parameters...")
	}

	args := solver.SubstitutePaths(p.args, graphPath, proteinsPath)
	result, err := p.invoker.Invoke(ctx, p.exe, args)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSolverRun, err)
	}

	params := p.cfg.Params
	if p.chooseParams {
		fmt.Fprintln(p.log, "Solver parameter search:")
		p.keepStream(statusFileStem+num+".txt", result.Stderr)
		gamma, alpha, beta, found, err := fidoio.DecodeParameterTrace(result.Stderr, p.log)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSolverRun, err)
		}
		if found {
			params.ProteinPrior = gamma
			params.PeptideEmission = alpha
			params.SpuriousMatch = beta
		}
	}

	fmt.Fprintln(p.log, "Parsing solver results and writing output...")
	p.keepStream(outputFileStem+num+".txt", result.Stdout)
	decoded, err := fidoio.DecodeGroups(result.Stdout, p.accs, p.cfg.KeepZeroGroup)
	if err != nil {
		return err
	}

	protein.Groups = decoded.Groups
	protein.SetMetaValue(types.MetaProbProtein, params.ProteinPrior)
	protein.SetMetaValue(types.MetaProbPeptide, params.PeptideEmission)
	protein.SetMetaValue(types.MetaProbSpurious, params.SpuriousMatch)

	p.logSummary(decoded)
	return nil
}

func (p *pipeline) writeGraph(path string, peptides []types.PeptideRecord, runID string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating graph file: %w", err)
	}
	defer f.Close()
	if _, err := fidoio.EncodeGraph(f, peptides, p.accs, p.cfg.ProbParam, runID, p.log); err != nil {
		return err
	}
	return f.Close()
}

func (p *pipeline) writeProteinSet(path string, protein *types.ProteinRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating protein-set file: %w", err)
	}
	defer f.Close()
	if err := fidoio.EncodeProteinSet(f, protein, p.accs); err != nil {
		return err
	}
	return f.Close()
}

// keepStream retains a raw solver stream in the temp directory for
// diagnostics. Only useful together with KeepTemp; write failures are not
// fatal.
func (p *pipeline) keepStream(name string, data []byte) {
	if !p.cfg.KeepTemp {
		return
	}
	path := filepath.Join(p.tempDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Fprintf(p.log, "Warning: could not write '%s': %v\n", path, err)
	}
}

func (p *pipeline) logSummary(decoded fidoio.GroupResult) {
	including := ""
	if p.cfg.KeepZeroGroup && decoded.ZeroProteins > 0 {
		including = "including "
	}
	closing := ")."
	if !p.cfg.KeepZeroGroup && decoded.ZeroProteins > 0 {
		closing = " not included)."
	}
	fmt.Fprintf(p.log, "Inferred %d proteins in %d groups (%s%d proteins with probability zero%s\n",
		decoded.Proteins, len(decoded.Groups), including, decoded.ZeroProteins, closing)
}
