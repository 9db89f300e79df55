// Package aggregate folds parsed records into per-debtor and per-entity
// totals for a single import run.
package aggregate

import (
	"errors"
	"fmt"

	"github.com/epeers/debtimport/internal/models"
)

// ErrInvalidData marks a record whose risk rating or loan amount is not a number.
var ErrInvalidData = errors.New("invalid numeric data")

// Aggregator accumulates one run. Records must be fed in source order: the
// entity code attributed to a debtor is the one of its first record.
// An Aggregator is not safe for concurrent use.
type Aggregator struct {
	debtors     map[string]*models.Debtor
	debtorOrder []string

	entities    map[string]*models.Entity
	entityOrder []string
}

// New returns an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{
		debtors:  make(map[string]*models.Debtor),
		entities: make(map[string]*models.Entity),
	}
}

// Accumulate adds one record to the running totals. A record with a
// non-numeric risk rating or loan amount returns ErrInvalidData and leaves
// both maps untouched.
func (a *Aggregator) Accumulate(rec models.RawRecord) error {
	rating, ok := parseLeadingInt(rec.RiskRating)
	if !ok {
		return fmt.Errorf("%w: risk rating %q", ErrInvalidData, rec.RiskRating)
	}
	amount, ok := parseAmount(rec.LoanAmount)
	if !ok {
		return fmt.Errorf("%w: loan amount %q", ErrInvalidData, rec.LoanAmount)
	}

	if d, exists := a.debtors[rec.DebtorID]; exists {
		d.TotalLoanAmount = d.TotalLoanAmount.Add(amount)
		if int(rating) > d.WorstRiskRating {
			d.WorstRiskRating = int(rating)
		}
	} else {
		numericID, _ := parseLeadingInt(rec.DebtorID)
		a.debtors[rec.DebtorID] = &models.Debtor{
			ID:              rec.DebtorID,
			NumericID:       numericID,
			WorstRiskRating: int(rating),
			TotalLoanAmount: amount,
			EntityCode:      rec.EntityCode,
		}
		a.debtorOrder = append(a.debtorOrder, rec.DebtorID)
	}

	if e, exists := a.entities[rec.EntityCode]; exists {
		e.TotalLoanAmount = e.TotalLoanAmount.Add(amount)
	} else {
		numericCode, _ := parseLeadingInt(rec.EntityCode)
		a.entities[rec.EntityCode] = &models.Entity{
			ID:              rec.EntityCode,
			NumericCode:     numericCode,
			TotalLoanAmount: amount,
		}
		a.entityOrder = append(a.entityOrder, rec.EntityCode)
	}

	return nil
}

// Debtors returns the debtor aggregates in first-seen order.
func (a *Aggregator) Debtors() []*models.Debtor {
	out := make([]*models.Debtor, 0, len(a.debtorOrder))
	for _, id := range a.debtorOrder {
		out = append(out, a.debtors[id])
	}
	return out
}

// Entities returns the entity aggregates in first-seen order.
func (a *Aggregator) Entities() []*models.Entity {
	out := make([]*models.Entity, 0, len(a.entityOrder))
	for _, code := range a.entityOrder {
		out = append(out, a.entities[code])
	}
	return out
}
