// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package idfile reads and writes the adapter's YAML identification
// document: protein runs plus peptide records. It is the tool's own
// exchange format, not a parser for general identification formats.
package idfile

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/fido-adapter/pkg/types"
)

// Load reads an identification document from path.
func Load(path string) (*types.IdentificationDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading identification file %s: %w", path, err)
	}
	var doc types.IdentificationDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing identification file %s: %w", path, err)
	}
	return &doc, nil
}

// Save writes the identification document to path, replacing any existing
// file.
func Save(path string, doc *types.IdentificationDocument) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding identification document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing identification file %s: %w", path, err)
	}
	return nil
}
