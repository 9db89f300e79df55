package main

import (
	"github.com/epeers/debtimport/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "importer",
		Short: "Import fixed-width debtor exposure files",
		Long: `importer parses fixed-width debtor exposure files, aggregates them per
debtor and per entity, and merges the totals into the configured store.

Configuration comes from the environment (or a .env file), the same
variables the HTTP server reads.

Example Usage:
  importer file deudores.txt            # import one file
  importer file deudores.txt --dry-run  # parse and aggregate, print, store nothing
  importer inbox                        # import files dropped into INBOX_DIR`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newFileCmd(), newInboxCmd())
	return root
}

// loadConfig loads the environment configuration with load and applies its
// logging settings, keeping --verbose in effect.
func loadConfig(load func() (*config.Config, error)) (*config.Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	debug := log.IsLevelEnabled(log.DebugLevel)
	config.SetupLogging(cfg)
	if debug {
		log.SetLevel(log.DebugLevel)
	}
	return cfg, nil
}
