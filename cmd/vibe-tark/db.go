package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-tark/internal/duckdb"
	"github.com/inodb/vibe-tark/internal/provider"
)

func newDBCmd(a *app) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "db",
		Short: "Query an export database without contacting Tark",
		Example: `  vibe-tark db --db brca.duckdb stats
  vibe-tark db --db brca.duckdb tx-exons ENST00000380152.7 NC_000013.11`,
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "DuckDB database written by export (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	// withStore opens the database for the duration of fn.
	withStore := func(fn func(*duckdb.Store) error) error {
		if _, err := os.Stat(dbPath); err != nil {
			return fmt.Errorf("open export database: %w", err)
		}
		store, err := duckdb.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		return fn(store)
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show row counts and export metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *duckdb.Store) error {
				sum, err := s.Summary()
				if err != nil {
					return err
				}
				return a.write(cmd, sum)
			})
		},
	}

	var method string
	txInfo := &cobra.Command{
		Use:   "tx-info <tx_ac> <alt_ac>",
		Short: "Show an exported transcript summary",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *duckdb.Store) error {
				info, ok, err := s.LookupTxInfo(args[0], args[1], method)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%w: %s on %s not in %s", provider.ErrTranscriptNotFound, args[0], args[1], dbPath)
				}
				return a.write(cmd, info)
			})
		},
	}

	txExons := &cobra.Command{
		Use:   "tx-exons <tx_ac> <alt_ac>",
		Short: "Show exported exon alignments",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *duckdb.Store) error {
				exons, err := s.LookupTxExons(args[0], args[1], method)
				if err != nil {
					return err
				}
				if len(exons) == 0 {
					return fmt.Errorf("%w: %s on %s not in %s", provider.ErrTranscriptNotFound, args[0], args[1], dbPath)
				}
				return a.write(cmd, exons)
			})
		},
	}

	for _, c := range []*cobra.Command{txInfo, txExons} {
		c.Flags().StringVar(&method, "method", provider.AlignmentMethod, "Alignment method")
	}
	cmd.AddCommand(stats, txInfo, txExons)
	return cmd
}
