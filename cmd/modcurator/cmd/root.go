// Package cmd provides the CLI commands for modcurator.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheVirusNVGM/modcurator/internal/config"
	"github.com/TheVirusNVGM/modcurator/internal/version"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	env        string
}

// NewRootCmd creates the root command for the modcurator CLI.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "modcurator",
		Short: "Mod candidate retrieval and dependency resolution engine",
		Long: `modcurator retrieves Minecraft mod candidates with hybrid search
(BM25 + semantic) over a mod catalog and resolves the dependencies and
conflicts of a selected mod set for a target platform.`,
		Version:      version.Version,
		SilenceUsage: true,
	}
	cmd.SetVersionTemplate("modcurator version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to a config file (overrides --env)")
	cmd.PersistentFlags().StringVar(&flags.env, "env", "", "Config environment: local, dev, prod (default: $ENV or local)")

	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newRetrieveCmd(flags))
	cmd.AddCommand(newResolveCmd(flags))
	cmd.AddCommand(newCatalogCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// resolveEnv returns the --env flag, falling back to $ENV.
func (f *globalFlags) resolveEnv() string {
	if f.env != "" {
		return f.env
	}
	return config.GetEnv()
}

// load reads the configuration selected by the flags.
func (f *globalFlags) load() (config.Config, string, error) {
	env := f.resolveEnv()
	var (
		cfg config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadFile(f.configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, env, fmt.Errorf("load config: %w", err)
	}
	return cfg, env, nil
}
