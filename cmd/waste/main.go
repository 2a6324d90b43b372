package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mmcdole/waste/pkg/catalog"
	"github.com/mmcdole/waste/pkg/eligibility"
	"github.com/mmcdole/waste/pkg/logging"
	"github.com/mmcdole/waste/pkg/playerdata"
)

var version = "dev" // Will be set during build

// app is the state shared by every subcommand once the root command has
// loaded the configuration
type app struct {
	fs afero.Fs

	cfgFile     string
	playersDir  string
	showVersion bool

	config     Config
	cat        *catalog.Catalog
	source     *playerdata.FileSource
	repository *playerdata.Repository
	evaluator  *eligibility.Evaluator
}

func main() {
	cobra.CheckErr(newRootCmd(afero.NewOsFs()).Execute())
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	a := &app{fs: fs}

	rootCmd := &cobra.Command{
		Use:           "waste",
		Short:         "Wasteland character sheet manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `waste - Fallout 2d20 character sheets stored as one JSON file per player

Players live in a directory (players_dir) as player_<N>.json files. Perk
requirements, skills and origins come from a YAML catalog; the built-in
French catalog is used unless catalog_path is set.

Configuration file (YAML or JSON) keys, also settable as WASTE_<KEY>:
    players_dir: players
    catalog_path: catalog.yaml
    log_level: warn
    log_format: console
    log_path: waste.log
    audit_log_path: audit.log`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.showVersion {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.showVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "waste %s\n", version)
				return nil
			}
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().StringVarP(&a.playersDir, "players-dir", "d", "", "players directory (overrides players_dir)")
	rootCmd.Flags().BoolVarP(&a.showVersion, "version", "v", false, "show version information")

	rootCmd.AddCommand(
		a.newListCmd(),
		a.newNewCmd(),
		a.newShowCmd(),
		a.newSetCmd(),
		a.newRecomputeCmd(),
		a.newSkillCmd(),
		a.newPerkCmd(),
		a.newDeleteCmd(),
		a.newCatalogCmd(),
	)
	return rootCmd
}

// setup loads the configuration and builds the store and evaluator
func (a *app) setup(cmd *cobra.Command) error {
	config, err := LoadConfig(a.fs, viper.New(), a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("players-dir") {
		config.PlayersDir = a.playersDir
	}
	a.config = config

	if err := logging.Initialize(a.fs, config.loggingConfig()); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	if config.CatalogPath == "" {
		a.cat = catalog.Default()
	} else if a.cat, err = catalog.Load(a.fs, config.CatalogPath); err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	a.source = playerdata.NewFileSource(a.fs, config.PlayersDir, a.cat)
	a.repository = playerdata.NewRepository(a.source, a.cat)
	a.evaluator = eligibility.New(a.cat)

	logging.App.Debug("Configured", "players_dir", config.PlayersDir, "catalog", config.CatalogPath)
	return nil
}
