package services

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/epeers/debtimport/internal/aggregate"
	"github.com/epeers/debtimport/internal/fixedwidth"
	"github.com/epeers/debtimport/internal/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// maxLineBytes bounds a single source line; longer lines fail the run.
const maxLineBytes = 1024 * 1024

// DebtorStore persists debtor aggregates, merging with what is already stored
type DebtorStore interface {
	SaveOrUpdate(ctx context.Context, candidate *models.Debtor) (*models.Debtor, error)
}

// EntityStore persists entity aggregates, merging with what is already stored
type EntityStore interface {
	SaveOrUpdate(ctx context.Context, candidate *models.Entity) (*models.Entity, error)
}

// ImportService runs the debtor exposure import: parse every line, aggregate
// per debtor and per entity, then upsert the aggregates.
type ImportService struct {
	parser           *fixedwidth.Parser
	debtors          DebtorStore
	entities         EntityStore
	drainConcurrency int
}

// NewImportService creates a new ImportService. drainConcurrency bounds the
// number of upserts in flight; 1 drains sequentially.
func NewImportService(parser *fixedwidth.Parser, debtors DebtorStore, entities EntityStore, drainConcurrency int) *ImportService {
	if drainConcurrency < 1 {
		drainConcurrency = 1
	}
	return &ImportService{
		parser:           parser,
		debtors:          debtors,
		entities:         entities,
		drainConcurrency: drainConcurrency,
	}
}

// ImportFile imports the file at path. Failing to open it fails the run.
func (s *ImportService) ImportFile(ctx context.Context, path string) (*models.ImportSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open import source: %w", err)
	}
	defer f.Close()

	return s.ImportFrom(ctx, path, f)
}

// ImportFrom reads r line by line until EOF and persists the aggregates.
//
// Blank or malformed lines are skipped, lines with a non-numeric risk rating
// or loan amount are counted as errors, and a failed upsert is logged and
// counted without stopping the remaining upserts. Only a read failure of r
// is returned as an error, in which case nothing has been persisted.
func (s *ImportService) ImportFrom(ctx context.Context, source string, r io.Reader) (*models.ImportSummary, error) {
	start := time.Now()
	defer TrackTime("ImportFrom", start)

	summary := &models.ImportSummary{
		RunID:     uuid.NewString(),
		Source:    source,
		StartedAt: start,
	}
	logger := log.WithFields(log.Fields{"run_id": summary.RunID, "source": source})
	logger.Info("import started")

	agg := aggregate.New()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		summary.TotalLines++
		line := scanner.Text()

		rec, ok := s.parser.ParseLine(line)
		if !ok {
			summary.SkippedLines++
			continue
		}
		if err := agg.Accumulate(rec); err != nil {
			summary.ErrorLines++
			logger.WithField("line", summary.TotalLines).Warnf("skipping line: %v: %q", err, line)
			continue
		}
		summary.ProcessedLines++
	}
	if err := scanner.Err(); err != nil {
		logger.WithField("line", summary.TotalLines+1).Errorf("import aborted: %v", err)
		return nil, fmt.Errorf("failed to read import source: %w", err)
	}

	s.drain(ctx, agg, summary, logger)
	summary.Duration = time.Since(start)

	logger.WithFields(log.Fields{
		"total_lines":       summary.TotalLines,
		"processed_lines":   summary.ProcessedLines,
		"skipped_lines":     summary.SkippedLines,
		"error_lines":       summary.ErrorLines,
		"debtors_upserted":  summary.DebtorsUpserted,
		"entities_upserted": summary.EntitiesUpserted,
		"debtor_failures":   summary.DebtorFailures,
		"entity_failures":   summary.EntityFailures,
	}).Info("import completed")

	return summary, nil
}

// drain upserts every debtor, then every entity. Upsert failures never stop
// the drain: workers always return nil so the group is not cancelled.
func (s *ImportService) drain(ctx context.Context, agg *aggregate.Aggregator, summary *models.ImportSummary, logger *log.Entry) {
	var mu sync.Mutex
	wc := &WarningCollector{}

	g := new(errgroup.Group)
	g.SetLimit(s.drainConcurrency)
	for _, d := range agg.Debtors() {
		g.Go(func() error {
			_, err := s.debtors.SaveOrUpdate(ctx, d)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.WithField("debtor_id", d.ID).Errorf("failed to upsert debtor: %v", err)
				wc.Add(models.Warning{Code: models.WarnDebtorUpsertFailed, Key: d.ID, Message: err.Error()})
				summary.DebtorFailures++
				return nil
			}
			summary.DebtorsUpserted++
			return nil
		})
	}
	_ = g.Wait()

	g = new(errgroup.Group)
	g.SetLimit(s.drainConcurrency)
	for _, e := range agg.Entities() {
		g.Go(func() error {
			_, err := s.entities.SaveOrUpdate(ctx, e)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.WithField("entity_code", e.ID).Errorf("failed to upsert entity: %v", err)
				wc.Add(models.Warning{Code: models.WarnEntityUpsertFailed, Key: e.ID, Message: err.Error()})
				summary.EntityFailures++
				return nil
			}
			summary.EntitiesUpserted++
			return nil
		})
	}
	_ = g.Wait()

	summary.Warnings = wc.GetWarnings()
}
