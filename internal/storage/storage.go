// Package storage opens the configured debtor and entity store backend.
package storage

import (
	"context"
	"fmt"

	"github.com/epeers/debtimport/config"
	"github.com/epeers/debtimport/internal/cache"
	"github.com/epeers/debtimport/internal/database"
	"github.com/epeers/debtimport/internal/models"
	"github.com/epeers/debtimport/internal/repository"
	log "github.com/sirupsen/logrus"
)

// DebtorStore reads and merge-upserts debtor aggregates
type DebtorStore interface {
	GetByID(ctx context.Context, id string) (*models.Debtor, error)
	SaveOrUpdate(ctx context.Context, candidate *models.Debtor) (*models.Debtor, error)
}

// EntityStore reads and merge-upserts entity aggregates
type EntityStore interface {
	GetByID(ctx context.Context, code string) (*models.Entity, error)
	SaveOrUpdate(ctx context.Context, candidate *models.Entity) (*models.Entity, error)
}

// Backend bundles the stores of one backend with its connection lifecycle.
// Memory is set only for the memory backend.
type Backend struct {
	Name     string
	Debtors  DebtorStore
	Entities EntityStore
	Memory   *cache.MemoryStore
	close    func()
}

// Open connects to the backend selected by cfg.StoreBackend
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := database.New(ctx, cfg.PGURL)
		if err != nil {
			return nil, err
		}
		log.Info("Connected to Postgres")
		return &Backend{
			Name:     config.BackendPostgres,
			Debtors:  repository.NewDebtorRepository(db.Pool),
			Entities: repository.NewEntityRepository(db.Pool),
			close:    db.Close,
		}, nil

	case config.BackendMongo:
		m, err := database.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")
		return &Backend{
			Name:     config.BackendMongo,
			Debtors:  repository.NewMongoDebtorRepository(m.DB),
			Entities: repository.NewMongoEntityRepository(m.DB),
			close:    m.Close,
		}, nil

	case config.BackendMemory:
		return OpenMemory(), nil
	}

	return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
}

// OpenMemory returns a process-local backend; its contents are lost on exit
func OpenMemory() *Backend {
	mem := cache.NewMemoryStore()
	return &Backend{
		Name:     config.BackendMemory,
		Debtors:  mem.Debtors(),
		Entities: mem.Entities(),
		Memory:   mem,
	}
}

// Close releases the backend connection, if any
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}
