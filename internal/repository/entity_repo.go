package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/epeers/debtimport/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EntityRepository handles database operations for reporting entities
type EntityRepository struct {
	pool *pgxpool.Pool
}

// NewEntityRepository creates a new EntityRepository
func NewEntityRepository(pool *pgxpool.Pool) *EntityRepository {
	return &EntityRepository{pool: pool}
}

// GetByID retrieves an entity by its zero-padded code
func (r *EntityRepository) GetByID(ctx context.Context, code string) (*models.Entity, error) {
	query := `
		SELECT id, numeric_code, total_loan_amount
		FROM entities
		WHERE id = $1
	`
	e := &models.Entity{}
	err := r.pool.QueryRow(ctx, query, code).Scan(&e.ID, &e.NumericCode, &e.TotalLoanAmount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEntityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	return e, nil
}

// SaveOrUpdate adds the candidate's total to the stored entity (if any)
func (r *EntityRepository) SaveOrUpdate(ctx context.Context, candidate *models.Entity) (*models.Entity, error) {
	existing, err := r.GetByID(ctx, candidate.ID)
	if err != nil && !errors.Is(err, ErrEntityNotFound) {
		return nil, err
	}
	merged := models.MergeEntity(existing, candidate)

	query := `
		INSERT INTO entities (id, numeric_code, total_loan_amount, created, updated)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET total_loan_amount = EXCLUDED.total_loan_amount,
		    updated = NOW()
		RETURNING id, numeric_code, total_loan_amount
	`
	saved := &models.Entity{}
	err = r.pool.QueryRow(ctx, query, merged.ID, merged.NumericCode, merged.TotalLoanAmount).
		Scan(&saved.ID, &saved.NumericCode, &saved.TotalLoanAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to save entity %s: %w", candidate.ID, err)
	}
	return saved, nil
}
