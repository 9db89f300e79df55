package models

import (
	"github.com/shopspring/decimal"
)

// RawRecord is one fixed-width line split into its trimmed fields.
// No numeric conversion has happened yet.
type RawRecord struct {
	EntityCode string
	ReportDate string
	IDType     string
	DebtorID   string
	Activity   string
	RiskRating string
	LoanAmount string
}

// Debtor is the aggregated exposure of one debtor. The same type is used for
// the per-run accumulator and for the stored record.
type Debtor struct {
	ID              string          `json:"id"`
	NumericID       int64           `json:"numero_identificacion"`
	WorstRiskRating int             `json:"situacion_desfavorable"`
	TotalLoanAmount decimal.Decimal `json:"suma_prestamos"`
	EntityCode      string          `json:"codigo_entidad"`
}

// Entity is the aggregated exposure reported by one financial entity.
type Entity struct {
	ID              string          `json:"id"`
	NumericCode     int64           `json:"codigo_entidad"`
	TotalLoanAmount decimal.Decimal `json:"suma_prestamos"`
}

// MergeDebtor combines a stored debtor with a candidate from a new run.
// Totals accumulate across runs, the risk rating keeps the worst value seen,
// and the stored entity attribution never changes once set.
func MergeDebtor(existing, candidate *Debtor) *Debtor {
	if existing == nil {
		c := *candidate
		return &c
	}
	merged := *existing
	merged.TotalLoanAmount = existing.TotalLoanAmount.Add(candidate.TotalLoanAmount)
	if candidate.WorstRiskRating > existing.WorstRiskRating {
		merged.WorstRiskRating = candidate.WorstRiskRating
	}
	return &merged
}

// MergeEntity adds the candidate's total to the stored entity.
func MergeEntity(existing, candidate *Entity) *Entity {
	if existing == nil {
		c := *candidate
		return &c
	}
	merged := *existing
	merged.TotalLoanAmount = existing.TotalLoanAmount.Add(candidate.TotalLoanAmount)
	return &merged
}
