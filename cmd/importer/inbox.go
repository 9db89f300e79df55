package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/epeers/debtimport/config"
	"github.com/epeers/debtimport/internal/fixedwidth"
	"github.com/epeers/debtimport/internal/jobs"
	"github.com/epeers/debtimport/internal/lock"
	"github.com/epeers/debtimport/internal/services"
	"github.com/epeers/debtimport/internal/storage"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newInboxCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Import files dropped into INBOX_DIR",
		Long: `Scan INBOX_DIR on the INBOX_SCHEDULE cron spec and import every *.txt file
found there, in name order. Imported files are moved to processed/, files
that could not be read to failed/. Runs until interrupted unless --once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, err := loadConfig(config.Load)
			if err != nil {
				return err
			}
			backend, err := storage.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer backend.Close()

			locker, closeLock, err := lock.Open(ctx, cfg.RedisAddr)
			if err != nil {
				return err
			}
			defer closeLock()

			parser, err := fixedwidth.Load(cfg.LayoutFile, cfg.SourceEncoding)
			if err != nil {
				return err
			}
			importSvc := services.NewImportService(parser, backend.Debtors, backend.Entities, cfg.DrainConcurrency)
			scanner := jobs.NewInboxScanner(cfg.InboxDir, importSvc, locker)

			if once {
				n, err := scanner.ScanOnce(ctx)
				if err != nil {
					return err
				}
				log.Infof("Imported %d inbox file(s)", n)
				return nil
			}

			c, err := scanner.Start(cfg.InboxSchedule)
			if err != nil {
				return err
			}

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			log.Info("Stopping inbox scanner...")
			<-c.Stop().Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Scan the inbox a single time and exit")
	return cmd
}
