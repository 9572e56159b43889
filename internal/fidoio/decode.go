// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fidoio

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/fido-adapter/internal/sanitize"
	"github.com/pdiddy/fido-adapter/pkg/types"
)

// Markers in the solver's parameter-search diagnostic stream.
const (
	traceExceptionPrefix = "caught an exception"
	traceWarningPrefix   = "Warning:"
	traceBestPrefix      = "Using best gamma, alpha, beta ="
)

// ErrSolverTrace marks a solver run whose diagnostic stream reports an
// exception; the invocation has failed even though the process terminated.
var ErrSolverTrace = errors.New("solver reported an error")

// DecodeParameterTrace scans the parameter-search diagnostic stream for the
// resolved gamma/alpha/beta values. An exception marker on the first
// meaningful line fails the invocation; a warning marker is forwarded to
// log without failing. found reports whether the trailing "best parameters"
// line was present and parsed.
func DecodeParameterTrace(trace []byte, log io.Writer) (gamma, alpha, beta float64, found bool, err error) {
	var lines []string
	for _, line := range strings.Split(string(trace), "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return 0, 0, 0, false, nil
	}

	if strings.HasPrefix(lines[0], traceExceptionPrefix) {
		return 0, 0, 0, false, fmt.Errorf("%w: %q", ErrSolverTrace, lines[0])
	}
	if strings.HasPrefix(lines[0], traceWarningPrefix) {
		fmt.Fprintln(log, lines[0])
	}

	last := lines[len(lines)-1]
	if strings.HasPrefix(last, traceBestPrefix) {
		fmt.Fprintln(log, last)
		suffix := last[strings.Index(last, "=")+1:]
		if n, _ := fmt.Sscan(suffix, &gamma, &alpha, &beta); n == 3 {
			found = true
		}
	}
	return gamma, alpha, beta, found, nil
}

// GroupResult is the decoded probability-group output of one solver run.
type GroupResult struct {
	Groups []types.ProteinGroup
	// Proteins is the total number of accessions retained across groups.
	Proteins int
	// ZeroProteins counts accessions seen with probability exactly zero,
	// whether or not they were retained.
	ZeroProteins int
}

// DecodeGroups parses the solver's standard output, one probability group
// per line: a leading float followed by a brace-delimited, comma-separated
// token list. Tokens are reverse-mapped to raw accessions through accs.
// Zero-probability accessions are dropped unless keepZeroGroup is set, but
// are always counted. Groups and their accession lists come back sorted.
func DecodeGroups(output []byte, accs *sanitize.Map, keepZeroGroup bool) (GroupResult, error) {
	var result GroupResult

	for _, line := range strings.Split(string(output), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		probability, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}

		group := types.ProteinGroup{Probability: probability}
		for _, token := range fields[1:] {
			switch token {
			case "{", "}", ",":
				continue
			}
			if probability == 0.0 {
				result.ZeroProteins++
				if !keepZeroGroup {
					continue
				}
			}
			accession, err := accs.Raw(token)
			if err != nil {
				return result, fmt.Errorf("%w: %v", ErrDataQuality, err)
			}
			group.Accessions = append(group.Accessions, accession)
		}
		if len(group.Accessions) > 0 {
			result.Proteins += len(group.Accessions)
			sort.Strings(group.Accessions)
			result.Groups = append(result.Groups, group)
		}
	}

	sort.SliceStable(result.Groups, func(i, j int) bool {
		return result.Groups[i].Less(result.Groups[j])
	})
	return result, nil
}
