// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runlog persists inference results to a SQLite database so
// downstream tooling can query resolved solver parameters and protein
// groups across adapter invocations.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/fido-adapter/pkg/types"
)

// Store manages the run-log SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the run-log database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating run-log schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS inference_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			recorded_at TEXT NOT NULL,
			prob_protein REAL,
			prob_peptide REAL,
			prob_spurious REAL,
			protein_count INTEGER,
			group_count INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS protein_groups (
			run_ref INTEGER NOT NULL REFERENCES inference_runs(id),
			probability REAL NOT NULL,
			accessions TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_groups_run ON protein_groups(run_ref)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record stores one solved protein run: its resolved parameters, group
// counts, and every inferred group with its accessions.
func (s *Store) Record(ctx context.Context, run *types.ProteinRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting run-log transaction: %w", err)
	}
	defer tx.Rollback()

	proteins := 0
	for _, g := range run.Groups {
		proteins += len(g.Accessions)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO inference_runs
		 (run_id, recorded_at, prob_protein, prob_peptide, prob_spurious, protein_count, group_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		time.Now().UTC().Format(time.RFC3339),
		run.MetaValues[types.MetaProbProtein],
		run.MetaValues[types.MetaProbPeptide],
		run.MetaValues[types.MetaProbSpurious],
		proteins,
		len(run.Groups),
	)
	if err != nil {
		return fmt.Errorf("recording inference run: %w", err)
	}
	runRef, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("recording inference run: %w", err)
	}

	for _, g := range run.Groups {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO protein_groups (run_ref, probability, accessions) VALUES (?, ?, ?)`,
			runRef, g.Probability, strings.Join(g.Accessions, ","),
		); err != nil {
			return fmt.Errorf("recording protein group: %w", err)
		}
	}

	return tx.Commit()
}

// RunSummary is one recorded adapter run.
type RunSummary struct {
	ID         int64
	RunID      string
	RecordedAt string
	Params     types.SolverParameters
	Proteins   int
	Groups     int
}

// Runs lists the recorded runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, recorded_at, prob_protein, prob_peptide, prob_spurious,
		        protein_count, group_count
		 FROM inference_runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying run log: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.RunID, &r.RecordedAt,
			&r.Params.ProteinPrior, &r.Params.PeptideEmission, &r.Params.SpuriousMatch,
			&r.Proteins, &r.Groups); err != nil {
			return nil, fmt.Errorf("scanning run log row: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Groups returns the protein groups recorded for one run.
func (s *Store) Groups(ctx context.Context, runRef int64) ([]types.ProteinGroup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT probability, accessions FROM protein_groups WHERE run_ref = ? ORDER BY probability, accessions`,
		runRef)
	if err != nil {
		return nil, fmt.Errorf("querying protein groups: %w", err)
	}
	defer rows.Close()

	var groups []types.ProteinGroup
	for rows.Next() {
		var g types.ProteinGroup
		var accessions string
		if err := rows.Scan(&g.Probability, &accessions); err != nil {
			return nil, fmt.Errorf("scanning protein group row: %w", err)
		}
		if accessions != "" {
			g.Accessions = strings.Split(accessions, ",")
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}
