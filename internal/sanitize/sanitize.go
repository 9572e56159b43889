// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sanitize maps raw protein accessions to tokens that are safe for
// the solver's input grammar, and back.
package sanitize

import (
	"fmt"
	"sort"
	"strings"
)

// reserved lists the characters the solver grammar cannot represent inside
// an accession: whitespace, the list separator, and the set delimiters.
const reserved = " \t\n,{}"

// Map is a bidirectional, injective mapping between raw accessions and
// sanitized tokens. It is built once per adapter run and read-only
// afterwards, so concurrent lookups are safe.
type Map struct {
	forward map[string]string
	reverse map[string]string
}

// NewMap builds the mapping for the given accessions (duplicates are
// ignored). Each token is the longest reserved-character-free prefix of the
// raw accession plus "_<n>", with n assigned in sorted accession order
// starting at 1. The suffix keeps tokens unique even when prefixes collide
// or are empty.
func NewMap(accessions []string) *Map {
	uniq := make(map[string]struct{}, len(accessions))
	for _, acc := range accessions {
		uniq[acc] = struct{}{}
	}
	ordered := make([]string, 0, len(uniq))
	for acc := range uniq {
		ordered = append(ordered, acc)
	}
	sort.Strings(ordered)

	m := &Map{
		forward: make(map[string]string, len(ordered)),
		reverse: make(map[string]string, len(ordered)),
	}
	for i, acc := range ordered {
		prefix := acc
		if pos := strings.IndexAny(acc, reserved); pos >= 0 {
			prefix = acc[:pos]
		}
		m.insert(acc, fmt.Sprintf("%s_%d", prefix, i+1))
	}
	return m
}

// insert adds one pairing, enforcing injectivity on both sides.
func (m *Map) insert(raw, token string) {
	if _, ok := m.forward[raw]; ok {
		panic("sanitize: duplicate accession " + raw)
	}
	if _, ok := m.reverse[token]; ok {
		panic("sanitize: duplicate token " + token)
	}
	m.forward[raw] = token
	m.reverse[token] = raw
}

// Len returns the number of mapped accessions.
func (m *Map) Len() int { return len(m.forward) }

// Token returns the sanitized token for a raw accession.
func (m *Map) Token(raw string) (string, bool) {
	token, ok := m.forward[raw]
	return token, ok
}

// Raw reverses a token back to its raw accession. Every token written to the
// solver input originates from this map, so an unknown token means the
// solver output does not belong to this run's input.
func (m *Map) Raw(token string) (string, error) {
	raw, ok := m.reverse[token]
	if !ok {
		return "", fmt.Errorf("unknown sanitized accession %q in solver output", token)
	}
	return raw, nil
}
