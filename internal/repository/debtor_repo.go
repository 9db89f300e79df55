package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/epeers/debtimport/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrDebtorNotFound = errors.New("debtor not found")
	ErrEntityNotFound = errors.New("entity not found")
)

// DebtorRepository handles database operations for debtor aggregates
type DebtorRepository struct {
	pool *pgxpool.Pool
}

// NewDebtorRepository creates a new DebtorRepository
func NewDebtorRepository(pool *pgxpool.Pool) *DebtorRepository {
	return &DebtorRepository{pool: pool}
}

// GetByID retrieves a debtor by its identification number
func (r *DebtorRepository) GetByID(ctx context.Context, id string) (*models.Debtor, error) {
	query := `
		SELECT id, numeric_id, worst_risk_rating, total_loan_amount, entity_code
		FROM debtors
		WHERE id = $1
	`
	d := &models.Debtor{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.NumericID, &d.WorstRiskRating, &d.TotalLoanAmount, &d.EntityCode,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDebtorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get debtor: %w", err)
	}
	return d, nil
}

// SaveOrUpdate merges the candidate into the stored debtor (if any) and
// writes the result. The read and the write are separate statements.
func (r *DebtorRepository) SaveOrUpdate(ctx context.Context, candidate *models.Debtor) (*models.Debtor, error) {
	existing, err := r.GetByID(ctx, candidate.ID)
	if err != nil && !errors.Is(err, ErrDebtorNotFound) {
		return nil, err
	}
	merged := models.MergeDebtor(existing, candidate)

	query := `
		INSERT INTO debtors (id, numeric_id, worst_risk_rating, total_loan_amount, entity_code, created, updated)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET worst_risk_rating = EXCLUDED.worst_risk_rating,
		    total_loan_amount = EXCLUDED.total_loan_amount,
		    updated = NOW()
		RETURNING id, numeric_id, worst_risk_rating, total_loan_amount, entity_code
	`
	saved := &models.Debtor{}
	err = r.pool.QueryRow(ctx, query,
		merged.ID, merged.NumericID, merged.WorstRiskRating, merged.TotalLoanAmount, merged.EntityCode,
	).Scan(&saved.ID, &saved.NumericID, &saved.WorstRiskRating, &saved.TotalLoanAmount, &saved.EntityCode)
	if err != nil {
		return nil, fmt.Errorf("failed to save debtor %s: %w", candidate.ID, err)
	}
	return saved, nil
}
