package models

import "time"

// ImportSummary reports the outcome of one import run.
type ImportSummary struct {
	RunID            string        `json:"run_id"`
	Source           string        `json:"source"`
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration_ns"`
	TotalLines       int           `json:"total_lines"`
	ProcessedLines   int           `json:"processed_lines"`
	SkippedLines     int           `json:"skipped_lines"`
	ErrorLines       int           `json:"error_lines"`
	DebtorsUpserted  int           `json:"debtors_upserted"`
	EntitiesUpserted int           `json:"entities_upserted"`
	DebtorFailures   int           `json:"debtor_failures"`
	EntityFailures   int           `json:"entity_failures"`
	Warnings         []Warning     `json:"warnings"`
}
