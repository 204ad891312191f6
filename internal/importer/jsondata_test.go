package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONMixedBatch(t *testing.T) {
	input := `{
		"version": "1.0",
		"items": [{"name": "Haarschnitt", "default_price": "65.00", "type": "service"}],
		"expenses": [{
			"date": "2024-01-15", "amount": "150.00",
			"description": "Miete Januar", "category": "rent", "payment_method": "bank"
		}]
	}`

	batch, err := DecodeJSON(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, batch.Items, 1)
	assert.Len(t, batch.Expenses, 1)
	assert.Equal(t, 2, batch.TotalRecords())
}

func TestDecodeJSONEmptyDocument(t *testing.T) {
	_, err := DecodeJSON(strings.NewReader(`{"version": "1.0"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no importable records")
}

func TestDecodeJSONInvalidSyntax(t *testing.T) {
	_, err := DecodeJSON(strings.NewReader(`{`))
	assert.Error(t, err)
}

func TestDecodeJSONValidation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"item without name",
			`{"items": [{"name": "", "default_price": "10", "type": "service"}]}`,
			"items[0]",
		},
		{
			"item with bad type",
			`{"items": [{"name": "X", "default_price": "10", "type": "thing"}]}`,
			"type must be",
		},
		{
			"sale total mismatch",
			`{"sales": [{"date": "2024-01-15", "total_amount": "100.00",
				"payment_method": "cash", "status": "completed",
				"items": [{"item_name": "Haarschnitt", "price": "60.00"}]}]}`,
			"must equal total_amount",
		},
		{
			"sale without items",
			`{"sales": [{"date": "2024-01-15", "total_amount": "60.00",
				"payment_method": "cash", "status": "completed", "items": []}]}`,
			"at least one item",
		},
		{
			"user with bad email",
			`{"users": [{"name": "Maria", "username": "maria", "email": "nope", "role": "staff"}]}`,
			"email",
		},
		{
			"expense with bad date",
			`{"expenses": [{"date": "Januar 15", "amount": "10",
				"description": "x", "category": "rent", "payment_method": "bank"}]}`,
			"invalid date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
