package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/epeers/debtimport/internal/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names used by the Mongo backend.
const (
	DebtorCollection = "deudores"
	EntityCollection = "entidades"
)

type debtorDocument struct {
	ID              string          `bson:"_id"`
	NumericID       int64           `bson:"numero_identificacion"`
	WorstRiskRating int             `bson:"situacion_desfavorable"`
	TotalLoanAmount bson.Decimal128 `bson:"suma_prestamos"`
	EntityCode      string          `bson:"codigo_entidad"`
}

type entityDocument struct {
	ID              string          `bson:"_id"`
	NumericCode     int64           `bson:"codigo_entidad"`
	TotalLoanAmount bson.Decimal128 `bson:"suma_prestamos"`
}

// storedDebtor and storedEntity are the read side of the documents. Existing
// collections may hold suma_prestamos as a double or an integer rather than
// a Decimal128, so the raw value is kept and converted by decodeAmount.
type storedDebtor struct {
	ID              string        `bson:"_id"`
	NumericID       int64         `bson:"numero_identificacion"`
	WorstRiskRating int           `bson:"situacion_desfavorable"`
	TotalLoanAmount bson.RawValue `bson:"suma_prestamos"`
	EntityCode      string        `bson:"codigo_entidad"`
}

func (d storedDebtor) toModel() (*models.Debtor, error) {
	total, err := decodeAmount(d.TotalLoanAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to decode debtor %s total: %w", d.ID, err)
	}
	return &models.Debtor{
		ID:              d.ID,
		NumericID:       d.NumericID,
		WorstRiskRating: d.WorstRiskRating,
		TotalLoanAmount: total,
		EntityCode:      d.EntityCode,
	}, nil
}

type storedEntity struct {
	ID              string        `bson:"_id"`
	NumericCode     int64         `bson:"codigo_entidad"`
	TotalLoanAmount bson.RawValue `bson:"suma_prestamos"`
}

func (e storedEntity) toModel() (*models.Entity, error) {
	total, err := decodeAmount(e.TotalLoanAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to decode entity %s total: %w", e.ID, err)
	}
	return &models.Entity{ID: e.ID, NumericCode: e.NumericCode, TotalLoanAmount: total}, nil
}

func toDecimal128(d decimal.Decimal) (bson.Decimal128, error) {
	return bson.ParseDecimal128(d.String())
}

// decodeAmount accepts Decimal128, double, int32 and int64 totals. A missing
// field reads as zero.
func decodeAmount(v bson.RawValue) (decimal.Decimal, error) {
	if v.IsZero() {
		return decimal.Zero, nil
	}
	if d, ok := v.Decimal128OK(); ok {
		return decimal.NewFromString(d.String())
	}
	if f, ok := v.DoubleOK(); ok {
		return decimal.NewFromFloat(f), nil
	}
	if n, ok := v.Int32OK(); ok {
		return decimal.NewFromInt32(n), nil
	}
	if n, ok := v.Int64OK(); ok {
		return decimal.NewFromInt(n), nil
	}
	return decimal.Zero, fmt.Errorf("unsupported amount type %s", v.Type)
}

// MongoDebtorRepository stores debtor aggregates in the deudores collection
type MongoDebtorRepository struct {
	coll *mongo.Collection
}

// NewMongoDebtorRepository creates a new MongoDebtorRepository
func NewMongoDebtorRepository(db *mongo.Database) *MongoDebtorRepository {
	return &MongoDebtorRepository{coll: db.Collection(DebtorCollection)}
}

// GetByID retrieves a debtor by its identification number
func (r *MongoDebtorRepository) GetByID(ctx context.Context, id string) (*models.Debtor, error) {
	var doc storedDebtor
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrDebtorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get debtor: %w", err)
	}
	return doc.toModel()
}

// SaveOrUpdate merges the candidate into the stored document and replaces it
func (r *MongoDebtorRepository) SaveOrUpdate(ctx context.Context, candidate *models.Debtor) (*models.Debtor, error) {
	existing, err := r.GetByID(ctx, candidate.ID)
	if err != nil && !errors.Is(err, ErrDebtorNotFound) {
		return nil, err
	}
	merged := models.MergeDebtor(existing, candidate)

	total, err := toDecimal128(merged.TotalLoanAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to encode debtor %s total: %w", merged.ID, err)
	}
	doc := debtorDocument{
		ID:              merged.ID,
		NumericID:       merged.NumericID,
		WorstRiskRating: merged.WorstRiskRating,
		TotalLoanAmount: total,
		EntityCode:      merged.EntityCode,
	}
	_, err = r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("failed to save debtor %s: %w", merged.ID, err)
	}
	return merged, nil
}

// MongoEntityRepository stores entity aggregates in the entidades collection
type MongoEntityRepository struct {
	coll *mongo.Collection
}

// NewMongoEntityRepository creates a new MongoEntityRepository
func NewMongoEntityRepository(db *mongo.Database) *MongoEntityRepository {
	return &MongoEntityRepository{coll: db.Collection(EntityCollection)}
}

// GetByID retrieves an entity by its zero-padded code
func (r *MongoEntityRepository) GetByID(ctx context.Context, code string) (*models.Entity, error) {
	var doc storedEntity
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: code}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrEntityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	return doc.toModel()
}

// SaveOrUpdate adds the candidate's total to the stored document and replaces it
func (r *MongoEntityRepository) SaveOrUpdate(ctx context.Context, candidate *models.Entity) (*models.Entity, error) {
	existing, err := r.GetByID(ctx, candidate.ID)
	if err != nil && !errors.Is(err, ErrEntityNotFound) {
		return nil, err
	}
	merged := models.MergeEntity(existing, candidate)

	total, err := toDecimal128(merged.TotalLoanAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entity %s total: %w", merged.ID, err)
	}
	doc := entityDocument{ID: merged.ID, NumericCode: merged.NumericCode, TotalLoanAmount: total}
	_, err = r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("failed to save entity %s: %w", merged.ID, err)
	}
	return merged, nil
}
