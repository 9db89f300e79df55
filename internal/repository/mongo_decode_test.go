package repository

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestStoredDebtor_DecodesAmountTypes(t *testing.T) {
	d128, err := bson.ParseDecimal128("155.4")
	require.NoError(t, err)

	testCases := []struct {
		name  string
		value any
		want  string
	}{
		{name: "double", value: 68.1, want: "68.1"},
		{name: "int32", value: int32(150), want: "150"},
		{name: "int64", value: int64(20000000000), want: "20000000000"},
		{name: "decimal128", value: d128, want: "155.4"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := bson.Marshal(bson.D{
				{Key: "_id", Value: "20005717818"},
				{Key: "numero_identificacion", Value: 20005717818.0},
				{Key: "situacion_desfavorable", Value: 3.0},
				{Key: "suma_prestamos", Value: tc.value},
				{Key: "codigo_entidad", Value: "00007"},
			})
			require.NoError(t, err)

			var doc storedDebtor
			require.NoError(t, bson.Unmarshal(raw, &doc))
			debtor, err := doc.toModel()
			require.NoError(t, err)

			assert.True(t, decimal.RequireFromString(tc.want).Equal(debtor.TotalLoanAmount), "got %s", debtor.TotalLoanAmount)
			assert.Equal(t, int64(20005717818), debtor.NumericID)
			assert.Equal(t, 3, debtor.WorstRiskRating)
			assert.Equal(t, "00007", debtor.EntityCode)
		})
	}
}

func TestStoredEntity_DecodesWrittenDocument(t *testing.T) {
	total, err := toDecimal128(decimal.RequireFromString("4.3"))
	require.NoError(t, err)
	raw, err := bson.Marshal(entityDocument{ID: "00008", NumericCode: 8, TotalLoanAmount: total})
	require.NoError(t, err)

	var doc storedEntity
	require.NoError(t, bson.Unmarshal(raw, &doc))
	entity, err := doc.toModel()
	require.NoError(t, err)
	assert.Equal(t, "00008", entity.ID)
	assert.Equal(t, int64(8), entity.NumericCode)
	assert.True(t, decimal.RequireFromString("4.3").Equal(entity.TotalLoanAmount))
}

func TestStoredEntity_RejectsNonNumericAmount(t *testing.T) {
	raw, err := bson.Marshal(bson.D{
		{Key: "_id", Value: "00008"},
		{Key: "suma_prestamos", Value: "4,3"},
	})
	require.NoError(t, err)

	var doc storedEntity
	require.NoError(t, bson.Unmarshal(raw, &doc))
	_, err = doc.toModel()
	assert.Error(t, err)
}
