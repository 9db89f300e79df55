package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/epeers/debtimport/config"
	"github.com/epeers/debtimport/internal/fixedwidth"
	"github.com/epeers/debtimport/internal/lock"
	"github.com/epeers/debtimport/internal/services"
	"github.com/epeers/debtimport/internal/storage"
	"github.com/spf13/cobra"
)

type fileOptions struct {
	dryRun   bool
	encoding string
	layout   string
}

func newFileCmd() *cobra.Command {
	opts := &fileOptions{}

	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Import a single debtor file",
		Long: `Import a single fixed-width debtor file into the configured store and print
the run summary as JSON.

With --dry-run the file is aggregated into memory only and the resulting
debtor and entity totals are printed alongside the summary.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(cmd.Context(), cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Aggregate in memory and print the result without storing it")
	cmd.Flags().StringVar(&opts.encoding, "encoding", "", "Source charset (default SOURCE_ENCODING or "+fixedwidth.DefaultEncoding+")")
	cmd.Flags().StringVar(&opts.layout, "layout", "", "YAML layout file (default LAYOUT_FILE or the built-in layout)")
	return cmd
}

type dryRunOutput struct {
	Summary  any `json:"summary"`
	Debtors  any `json:"debtors"`
	Entities any `json:"entities"`
}

func runFile(ctx context.Context, cmd *cobra.Command, opts *fileOptions, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	load := config.Load
	if opts.dryRun {
		load = config.LoadLocal
	}
	cfg, err := loadConfig(load)
	if err != nil {
		return err
	}
	backend, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	encoding, layout := cfg.SourceEncoding, cfg.LayoutFile
	if opts.encoding != "" {
		encoding = opts.encoding
	}
	if opts.layout != "" {
		layout = opts.layout
	}
	parser, err := fixedwidth.Load(layout, encoding)
	if err != nil {
		return err
	}

	importSvc := services.NewImportService(parser, backend.Debtors, backend.Entities, cfg.DrainConcurrency)

	if !opts.dryRun {
		locker, closeLock, err := lock.Open(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer closeLock()

		release, err := locker.TryLock(ctx)
		if err != nil {
			return err
		}
		defer release()
	}

	summary, err := importSvc.ImportFile(ctx, path)
	if err != nil {
		return err
	}

	if opts.dryRun {
		return writeJSON(cmd.OutOrStdout(), dryRunOutput{
			Summary:  summary,
			Debtors:  backend.Memory.Debtors().List(),
			Entities: backend.Memory.Entities().List(),
		})
	}
	return writeJSON(cmd.OutOrStdout(), summary)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
