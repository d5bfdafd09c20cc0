// Package main provides the vibe-tark command-line tool.
package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-tark/internal/assembly"
	"github.com/inodb/vibe-tark/internal/output"
	"github.com/inodb/vibe-tark/internal/provider"
	"github.com/inodb/vibe-tark/internal/seqfetch"
	"github.com/inodb/vibe-tark/internal/tark"
)

// Exit codes
const (
	ExitSuccess  = 0
	ExitError    = 1
	ExitUsage    = 2
	ExitNotFound = 3
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const configName = ".vibe-tark"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
	switch {
	case errors.Is(err, provider.ErrProtocolMismatch):
		fmt.Fprintf(root.ErrOrStderr(), "Hint: check --base-url, or whether a proxy is intercepting requests\n")
		return ExitError
	case errors.Is(err, provider.ErrTranscriptNotFound), errors.Is(err, seqfetch.ErrSequenceNotFound):
		return ExitNotFound
	case errors.Is(err, errUsage):
		fmt.Fprintf(root.ErrOrStderr(), "Run 'vibe-tark --help' for usage.\n")
		return ExitUsage
	default:
		return ExitError
	}
}

var errUsage = errors.New("usage error")

// app holds what the subcommands share once flags and config are resolved.
type app struct {
	logger *zap.Logger
	format output.Format
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	var cfgFile string
	root := &cobra.Command{
		Use:   "vibe-tark",
		Short: "Transcript coordinates from the Ensembl Transcript Archive",
		Long: `vibe-tark fetches transcripts, exons and CDS boundaries from Ensembl Tark
and reports them as UTA-style records for HGVS variant mapping.`,
		Example: `  vibe-tark tx-exons ENST00000380152.7 NC_000013.11
  vibe-tark tx-info ENST00000380152.7 NC_000013.10
  vibe-tark gene BRCA2
  vibe-tark export --db brca.duckdb ENST00000380152.7 ENST00000544455.6`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cfgFile); err != nil {
				return err
			}
			logger, err := newLogger(viper.GetBool("verbose"))
			if err != nil {
				return err
			}
			a.logger = logger

			format, err := output.ParseFormat(viper.GetString("output.format"))
			if err != nil {
				return fmt.Errorf("%w: %v", errUsage, err)
			}
			a.format = format
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: ~/.vibe-tark.yaml)")
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.String("base-url", tark.DefaultBaseURL, "Tark API root")
	pf.StringSlice("assemblies", assembly.DefaultAssemblies, "Supported genome assemblies")
	pf.StringP("output-format", "f", "json", "Output format: json, tab")
	for key, name := range map[string]string{
		"verbose":       "verbose",
		"tark.base_url": "base-url",
		"assemblies":    "assemblies",
		"output.format": "output-format",
	} {
		if err := viper.BindPFlag(key, pf.Lookup(name)); err != nil {
			panic(err)
		}
	}

	root.AddCommand(
		newTxInfoCmd(a),
		newTxExonsCmd(a),
		newMappingOptionsCmd(a),
		newGeneCmd(a),
		newProteinCmd(a),
		newIdentityCmd(a),
		newSeqCmd(a),
		newExportCmd(a),
		newDBCmd(a),
		newConfigCmd(),
		newVersionCmd(),
	)

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})
	return root
}

// initConfig reads ~/.vibe-tark.yaml (or an explicit file) and VIBE_TARK_* env vars.
// A missing config file is not an error.
func initConfig(cfgFile string) error {
	viper.SetDefault("tark.timeout", 30*time.Second)
	viper.SetDefault("cache.size", 0)
	viper.SetDefault("exons.order", provider.OrderGenomic.String())
	viper.SetDefault("export.workers", 8)

	viper.SetEnvPrefix("VIBE_TARK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		if cfgFile == "" && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configName+".yaml"), nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	cfg.Encoding = "console"
	return cfg.Build()
}

// newProvider builds a Provider from the resolved configuration.
func (a *app) newProvider() (*provider.Provider, error) {
	order, err := provider.ParseExonOrder(viper.GetString("exons.order"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrConfiguration, err)
	}

	opts := []provider.Option{
		provider.WithAssemblies(viper.GetStringSlice("assemblies")...),
		provider.WithBaseURL(viper.GetString("tark.base_url")),
		provider.WithHTTPClient(&http.Client{Timeout: viper.GetDuration("tark.timeout")}),
		provider.WithCacheSize(viper.GetInt("cache.size")),
		provider.WithExonOrder(order),
		provider.WithLogger(a.logger),
	}

	// A configured FASTA is consulted first; accessions it lacks fall back to Tark.
	if path := viper.GetString("seq.fasta"); path != "" {
		fasta, err := seqfetch.LoadFASTA(path)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("loaded sequences", zap.String("path", path), zap.Int("count", fasta.Len()))
		opts = append(opts, provider.WithLocalSequences(fasta))
	}

	return provider.New(opts...)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vibe-tark version %s (%s) built %s\n", version, commit, date)
			fmt.Fprintf(cmd.OutOrStdout(), "data version %s, schema version %s\n",
				provider.RequiredVersion, provider.RequiredVersion)
		},
	}
}
