package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/epeers/debtimport/internal/lock"
	"github.com/epeers/debtimport/internal/models"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
)

// Importer imports a single file
type Importer interface {
	ImportFile(ctx context.Context, path string) (*models.ImportSummary, error)
}

// InboxScanner imports *.txt files dropped into a directory. Imported files
// are moved to processed/, files whose import failed to failed/.
type InboxScanner struct {
	dir      string
	importer Importer
	locker   lock.Locker
}

func NewInboxScanner(dir string, importer Importer, locker lock.Locker) *InboxScanner {
	return &InboxScanner{dir: dir, importer: importer, locker: locker}
}

// Start schedules ScanOnce on the given cron spec and starts the scheduler.
// The caller stops it with the returned cron's Stop.
func (s *InboxScanner) Start(schedule string) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	_, err := c.AddFunc(schedule, func() {
		if _, err := s.ScanOnce(context.Background()); err != nil {
			log.Errorf("Inbox scan failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("unable to schedule inbox scanner: %w", err)
	}

	c.Start()
	log.WithFields(log.Fields{"dir": s.dir, "schedule": schedule}).Info("Inbox scanner started")
	return c, nil
}

// ScanOnce imports every pending file in name order and returns how many
// were imported successfully. If another import holds the lock the scan is
// skipped.
func (s *InboxScanner) ScanOnce(ctx context.Context) (int, error) {
	pending, err := s.pendingFiles()
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	release, err := s.locker.TryLock(ctx)
	if errors.Is(err, lock.ErrLocked) {
		log.Info("Import already running, skipping inbox scan")
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to acquire import lock: %w", err)
	}
	defer release()

	imported := 0
	for _, path := range pending {
		summary, err := s.importer.ImportFile(ctx, path)
		if err != nil {
			log.WithField("file", path).Errorf("Inbox import failed: %v", err)
			if mvErr := moveInto(path, filepath.Join(s.dir, failedDir)); mvErr != nil {
				return imported, mvErr
			}
			continue
		}

		log.WithFields(log.Fields{
			"file":    path,
			"run_id":  summary.RunID,
			"debtors": summary.DebtorsUpserted,
		}).Info("Inbox file imported")
		if err := moveInto(path, filepath.Join(s.dir, processedDir)); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (s *InboxScanner) pendingFiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox %s: %w", s.dir, err)
	}

	// ReadDir returns entries sorted by filename
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		files = append(files, filepath.Join(s.dir, e.Name()))
	}
	return files, nil
}

// moveInto moves path into dir. If dir already holds a file of that name the
// moved file gets a numeric suffix (name.1.txt, name.2.txt, ...) so earlier
// copies are kept.
func moveInto(path, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	dest := filepath.Join(dir, base)
	for i := 1; ; i++ {
		_, err := os.Lstat(dest)
		if errors.Is(err, os.ErrNotExist) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", dest, err)
		}
		dest = filepath.Join(dir, fmt.Sprintf("%s.%d%s", stem, i, ext))
	}

	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("failed to move %s: %w", path, err)
	}
	return nil
}
