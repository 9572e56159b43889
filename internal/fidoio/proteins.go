// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fidoio

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/fido-adapter/internal/sanitize"
	"github.com/pdiddy/fido-adapter/pkg/types"
)

// EncodeProteinSet writes the solver's target/decoy protein lists: two
// brace-delimited, comma-separated lines of sanitized accessions, targets
// first. Every protein hit must carry a target/decoy meta value, and both
// classes must be non-empty, or the run cannot be calibrated.
func EncodeProteinSet(w io.Writer, protein *types.ProteinRecord, accs *sanitize.Map) error {
	targets := make(map[string]struct{})
	decoys := make(map[string]struct{})
	for _, hit := range protein.Hits {
		token, ok := accs.Token(hit.Accession)
		if !ok {
			return fmt.Errorf("%w: accession %q missing from sanitizer map", ErrDataQuality, hit.Accession)
		}
		switch hit.MetaValues[types.MetaTargetDecoy] {
		case types.LabelTarget:
			targets[token] = struct{}{}
		case types.LabelDecoy:
			decoys[token] = struct{}{}
		default:
			return fmt.Errorf("%w: all protein hits must be annotated with target/decoy"+
				" meta data (accession %q is not)", ErrDataQuality, hit.Accession)
		}
	}

	if len(targets) == 0 {
		return fmt.Errorf("%w: no target proteins found; the solver needs both targets and decoys", ErrDataQuality)
	}
	if len(decoys) == 0 {
		return fmt.Errorf("%w: no decoy proteins found; the solver needs both targets and decoys", ErrDataQuality)
	}

	fmt.Fprintf(w, "{ %s }\n", strings.Join(sortedTokens(targets), " , "))
	fmt.Fprintf(w, "{ %s }\n", strings.Join(sortedTokens(decoys), " , "))
	return nil
}

func sortedTokens(set map[string]struct{}) []string {
	tokens := make([]string, 0, len(set))
	for token := range set {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}
