package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/epeers/debtimport/internal/models"
	"github.com/epeers/debtimport/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDebtorStore_CumulativeAcrossRuns(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore().Debtors()

	_, err := store.GetByID(ctx, "20005717818")
	assert.ErrorIs(t, err, repository.ErrDebtorNotFound)

	_, err = store.SaveOrUpdate(ctx, &models.Debtor{
		ID: "20005717818", NumericID: 20005717818, WorstRiskRating: 1,
		TotalLoanAmount: decimal.NewFromInt(100), EntityCode: "00007",
	})
	require.NoError(t, err)

	saved, err := store.SaveOrUpdate(ctx, &models.Debtor{
		ID: "20005717818", NumericID: 20005717818, WorstRiskRating: 4,
		TotalLoanAmount: decimal.NewFromInt(50), EntityCode: "00009",
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(saved.TotalLoanAmount))
	assert.Equal(t, 4, saved.WorstRiskRating)
	assert.Equal(t, "00007", saved.EntityCode)

	got, err := store.GetByID(ctx, "20005717818")
	require.NoError(t, err)
	assert.Equal(t, *saved, *got)
}

func TestMemoryEntityStore_SumAndList(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	store := mem.Entities()

	for _, code := range []string{"00008", "00007", "00007"} {
		_, err := store.SaveOrUpdate(ctx, &models.Entity{ID: code, TotalLoanAmount: decimal.NewFromInt(10)})
		require.NoError(t, err)
	}

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, "00007", list[0].ID)
	assert.True(t, decimal.NewFromInt(20).Equal(list[0].TotalLoanAmount))
	assert.Equal(t, "00008", list[1].ID)

	mem.Clear()
	assert.Empty(t, store.List())
	_, err := store.GetByID(ctx, "00007")
	assert.ErrorIs(t, err, repository.ErrEntityNotFound)
}

func TestMemoryStore_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore().Entities()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.SaveOrUpdate(ctx, &models.Entity{ID: "00007", TotalLoanAmount: decimal.NewFromInt(1)})
		}()
	}
	wg.Wait()

	got, err := store.GetByID(ctx, "00007")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50).Equal(got.TotalLoanAmount))
}
