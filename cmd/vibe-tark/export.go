package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-tark/internal/duckdb"
	"github.com/inodb/vibe-tark/internal/provider"
)

// txExport holds everything exported for one transcript across its builds.
type txExport struct {
	txAc  string
	infos []*provider.TxInfo
	exons []provider.TxExon
}

func newExportCmd(a *app) *cobra.Command {
	var (
		dbPath    string
		inputFile string
		workers   int
		clearDB   bool
	)

	cmd := &cobra.Command{
		Use:   "export [tx_ac...]",
		Short: "Export exon alignments for many transcripts",
		Long: `Export exon alignments and CDS bounds for every build of each transcript.

Transcripts are fetched concurrently; output keeps the input order. With --db
the rows are appended to a DuckDB database (tables tx_exons and tx_info),
otherwise the exon alignments are written to stdout. Rows already in the
database are kept unless --clear is given.`,
		Example: `  vibe-tark export ENST00000380152.7 ENST00000544455.6
  vibe-tark export --input transcripts.txt --db export.duckdb`,
		RunE: func(cmd *cobra.Command, args []string) error {
			accessions := args
			if inputFile != "" {
				fromFile, err := readAccessions(inputFile)
				if err != nil {
					return err
				}
				accessions = append(accessions, fromFile...)
			}
			if len(accessions) == 0 {
				return fmt.Errorf("%w: no transcript accessions given", errUsage)
			}
			if !cmd.Flags().Changed("workers") {
				workers = viper.GetInt("export.workers")
			}

			p, err := a.newProvider()
			if err != nil {
				return err
			}
			results, err := exportAll(cmd.Context(), p, accessions, workers, a.logger)
			if err != nil {
				return err
			}

			var infos []*provider.TxInfo
			var exons []provider.TxExon
			for _, r := range results {
				infos = append(infos, r.infos...)
				exons = append(exons, r.exons...)
			}

			if dbPath == "" {
				if exons == nil {
					exons = []provider.TxExon{}
				}
				return a.write(cmd, exons)
			}

			store, err := duckdb.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if clearDB {
				if err := store.Clear(); err != nil {
					return err
				}
			}
			if err := store.WriteTxInfo(infos); err != nil {
				return fmt.Errorf("writing tx_info: %w", err)
			}
			if err := store.WriteTxExons(exons); err != nil {
				return fmt.Errorf("writing tx_exons: %w", err)
			}
			if err := store.WriteExportInfo(duckdb.ExportInfo{
				BaseURL:     p.ArchiveURL(),
				DataVersion: p.DataVersion(),
				Assemblies:  p.Assemblies(),
				ExportedAt:  time.Now(),
			}); err != nil {
				return fmt.Errorf("writing export metadata: %w", err)
			}

			totalExons, totalInfos, err := store.Counts()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d alignments (%d exons) for %d transcripts to %s\n",
				len(infos), len(exons), len(accessions), store.Path())
			fmt.Fprintf(cmd.ErrOrStderr(), "Database holds %d alignments (%d exons)\n", totalInfos, totalExons)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "DuckDB database to append to")
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "File with one transcript accession per line")
	cmd.Flags().IntVarP(&workers, "workers", "j", 8, "Concurrent transcript fetches")
	cmd.Flags().BoolVar(&clearDB, "clear", false, "Remove existing rows before writing")
	return cmd
}

// exportAll exports each accession with at most workers fetches in flight.
// Results are returned in input order. Transcripts the archive does not know
// are logged and skipped; any other failure cancels the export.
func exportAll(ctx context.Context, p *provider.Provider, accessions []string, workers int, logger *zap.Logger) ([]txExport, error) {
	if workers <= 0 {
		workers = 1
	}

	results := make([]txExport, len(accessions))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, txAc := range accessions {
		g.Go(func() error {
			r, err := exportTranscript(ctx, p, txAc, logger)
			if err != nil {
				return fmt.Errorf("exporting %s: %w", txAc, err)
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func exportTranscript(ctx context.Context, p *provider.Provider, txAc string, logger *zap.Logger) (txExport, error) {
	r := txExport{txAc: txAc}

	options, err := p.TxMappingOptions(ctx, txAc)
	if err != nil {
		return r, err
	}
	if len(options) == 0 {
		logger.Warn("transcript not found", zap.String("tx_ac", txAc))
		return r, nil
	}

	for _, opt := range options {
		info, err := p.TxInfo(ctx, opt.TxAc, opt.AltAc, opt.AltAlnMethod)
		if errors.Is(err, provider.ErrUnsupportedContig) || errors.Is(err, provider.ErrTranscriptNotFound) {
			logger.Debug("skipping build",
				zap.String("tx_ac", txAc),
				zap.String("alt_ac", opt.AltAc),
				zap.Error(err))
			continue
		}
		if err != nil {
			return r, err
		}

		exons, err := p.TxExons(ctx, opt.TxAc, opt.AltAc, opt.AltAlnMethod)
		if err != nil {
			return r, err
		}
		r.infos = append(r.infos, info)
		r.exons = append(r.exons, exons...)
	}
	return r, nil
}

// readAccessions reads one accession per line, skipping blank lines and # comments.
func readAccessions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open accession list: %w", err)
	}
	defer f.Close()

	var acs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		acs = append(acs, strings.Fields(line)[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read accession list: %w", err)
	}
	return acs, nil
}
