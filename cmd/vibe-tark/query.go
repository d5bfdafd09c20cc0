package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-tark/internal/output"
	"github.com/inodb/vibe-tark/internal/provider"
)

// write renders v on the command's stdout in the selected format.
func (a *app) write(cmd *cobra.Command, v any) error {
	return output.Write(cmd.OutOrStdout(), a.format, v)
}

func newTxInfoCmd(a *app) *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "tx-info <tx_ac> <alt_ac>",
		Short: "Show HGNC symbol and CDS bounds of a transcript on a contig",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newProvider()
			if err != nil {
				return err
			}
			info, err := p.TxInfo(cmd.Context(), args[0], args[1], method)
			if err != nil {
				return err
			}
			return a.write(cmd, info)
		},
	}
	cmd.Flags().StringVar(&method, "method", provider.AlignmentMethod, "Alignment method")
	return cmd
}

func newTxExonsCmd(a *app) *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "tx-exons <tx_ac> <alt_ac>",
		Short: "Show exon alignments of a transcript on a contig",
		Long: `Show exon alignments of a transcript on a contig.

Coordinates are zero-based, half-open. Exons are walked 5' to 3' along the
transcript unless exons.order is set to "source".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newProvider()
			if err != nil {
				return err
			}
			exons, err := p.TxExons(cmd.Context(), args[0], args[1], method)
			if err != nil {
				return err
			}
			if exons == nil {
				return fmt.Errorf("%w: %s has no alignment on %s", provider.ErrTranscriptNotFound, args[0], args[1])
			}
			return a.write(cmd, exons)
		},
	}
	cmd.Flags().StringVar(&method, "method", provider.AlignmentMethod, "Alignment method")
	return cmd
}

func newMappingOptionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mapping-options <tx_ac>",
		Short: "List the contigs a transcript can be mapped onto",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newProvider()
			if err != nil {
				return err
			}
			options, err := p.TxMappingOptions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.write(cmd, options)
		},
	}
}

func newGeneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "gene <symbol>",
		Short: "List transcripts of a gene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newProvider()
			if err != nil {
				return err
			}
			txs, err := p.TxForGene(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.write(cmd, txs)
		},
	}
}

func newProteinCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "protein <tx_ac>",
		Short: "Show the protein accession translated from a transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newProvider()
			if err != nil {
				return err
			}
			ac, ok, err := p.ProAcForTxAc(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: no translation for %s", provider.ErrTranscriptNotFound, args[0])
			}
			return a.write(cmd, ac)
		},
	}
}

func newIdentityCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "identity <tx_ac>",
		Short: "Show build-independent transcript info: CDS bounds and exon lengths",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newProvider()
			if err != nil {
				return err
			}
			info, ok, err := p.TxIdentityInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", provider.ErrTranscriptNotFound, args[0])
			}
			return a.write(cmd, info)
		},
	}
}

func newSeqCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seq <ac> [start] [end]",
		Short: "Fetch a sequence slice",
		Long: `Fetch a sequence slice by accession. start and end are zero-based,
half-open; omit end to read to the end of the sequence.

Transcript sequences come from Tark. Set seq.fasta to serve other
accessions (e.g. genomic contigs) from a local FASTA file.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end := 0, -1
			var err error
			if len(args) > 1 {
				if start, err = strconv.Atoi(args[1]); err != nil {
					return fmt.Errorf("%w: invalid start %q", errUsage, args[1])
				}
			}
			if len(args) > 2 {
				if end, err = strconv.Atoi(args[2]); err != nil {
					return fmt.Errorf("%w: invalid end %q", errUsage, args[2])
				}
			}

			p, err := a.newProvider()
			if err != nil {
				return err
			}
			seq, err := p.Seq(cmd.Context(), args[0], start, end)
			if err != nil {
				return err
			}
			return a.write(cmd, seq)
		},
	}
}
