package main

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/inodb/vibe-tark/internal/assembly"
	"github.com/inodb/vibe-tark/internal/output"
	"github.com/inodb/vibe-tark/internal/provider"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vibe-tark configuration",
		Long: `Show, get, or set configuration values. Config is stored in ~/.vibe-tark.yaml.

Known keys are checked before they are written: tark.base_url, tark.timeout,
assemblies, cache.size, exons.order, seq.fasta, export.workers, output.format
and verbose.`,
		Example: `  vibe-tark config                                  # show all config
  vibe-tark config set tark.base_url http://localhost:8000/api
  vibe-tark config set exons.order source          # keep Tark's exon order
  vibe-tark config set seq.fasta ~/ref/GRCh38.fa.gz  # serve genomic sequence locally
  vibe-tark config set assemblies GRCh38             # comma-separated
  vibe-tark config get tark.timeout`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd, args[0])
		},
	}
}

func runConfigShow(cmd *cobra.Command) error {
	settings := viper.AllSettings()
	if len(settings) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "# No configuration set. Config file: ~/.vibe-tark.yaml")
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}

func runConfigSet(cmd *cobra.Command, key, value string) error {
	parsed, err := parseConfigValue(key, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, key, err)
	}
	viper.Set(key, parsed)

	// Ensure config file exists
	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		if cfgFile, err = defaultConfigPath(); err != nil {
			return err
		}
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v in %s\n", key, parsed, cfgFile)
	return nil
}

// parseConfigValue checks a value for a known key and returns it in the form
// the provider reads back. Unknown keys keep the loose bool/int parsing.
func parseConfigValue(key, value string) (any, error) {
	switch key {
	case "tark.base_url":
		u, err := url.Parse(value)
		if err != nil {
			return nil, err
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("want an http(s) URL, got %q", value)
		}
		return value, nil
	case "tark.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, err
		}
		if d < 0 {
			return nil, fmt.Errorf("negative timeout %s", d)
		}
		return d.String(), nil
	case "assemblies":
		names := strings.Split(value, ",")
		for i, name := range names {
			names[i] = strings.TrimSpace(name)
			if !slices.Contains(assembly.Available(), names[i]) {
				return nil, fmt.Errorf("assembly %q not supported (available: %s)",
					names[i], strings.Join(assembly.Available(), ", "))
			}
		}
		return names, nil
	case "exons.order":
		o, err := provider.ParseExonOrder(value)
		if err != nil {
			return nil, err
		}
		return o.String(), nil
	case "output.format":
		f, err := output.ParseFormat(value)
		if err != nil {
			return nil, err
		}
		return string(f), nil
	case "cache.size", "export.workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("want an integer, got %q", value)
		}
		if n < 0 || (key == "export.workers" && n == 0) {
			return nil, fmt.Errorf("out of range: %d", n)
		}
		return n, nil
	case "verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("want true or false, got %q", value)
		}
		return b, nil
	case "seq.fasta":
		return value, nil
	}

	// Parse boolean-like and integer values
	switch value {
	case "true", "yes", "on":
		return true, nil
	case "false", "no", "off":
		return false, nil
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n, nil
	}
	return value, nil
}

func runConfigGet(cmd *cobra.Command, key string) error {
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), val)
	return nil
}
