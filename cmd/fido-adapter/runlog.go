// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fido-adapter/internal/runlog"
)

var runlogCmd = &cobra.Command{
	Use:   "runlog",
	Short: "List recorded inference runs from a run-log database",
	Long: `Runlog lists the inference runs recorded with 'infer --runlog': resolved
solver parameters and protein/group counts, newest first. With --groups, the
protein groups of one recorded run are printed instead.`,
	RunE: runRunlog,
}

func init() {
	runlogCmd.Flags().String("db", "", "run-log SQLite database")
	runlogCmd.Flags().Int64("groups", 0, "print the protein groups of the recorded run with this ID")

	runlogCmd.MarkFlagRequired("db")

	rootCmd.AddCommand(runlogCmd)
}

func runRunlog(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("db")
	store, err := runlog.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if runRef, _ := cmd.Flags().GetInt64("groups"); runRef != 0 {
		groups, err := store.Groups(context.Background(), runRef)
		if err != nil {
			return err
		}
		for _, g := range groups {
			fmt.Printf("%g { %s }\n", g.Probability, strings.Join(g.Accessions, " , "))
		}
		return nil
	}

	runs, err := store.Runs(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRUN\tRECORDED\tGAMMA\tALPHA\tBETA\tPROTEINS\tGROUPS")
	for _, r := range runs {
		runID := r.RunID
		if runID == "" {
			runID = "(merged)"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%g\t%g\t%g\t%d\t%d\n",
			r.ID, runID, r.RecordedAt,
			r.Params.ProteinPrior, r.Params.PeptideEmission, r.Params.SpuriousMatch,
			r.Proteins, r.Groups)
	}
	return w.Flush()
}
