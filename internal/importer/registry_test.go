package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-backoffice/internal/domain"
)

func TestFieldsForAllTypes(t *testing.T) {
	for _, importType := range domain.ImportTypes {
		defs, err := FieldsFor(importType)
		require.NoError(t, err, "type %s", importType)
		assert.NotEmpty(t, defs)

		seen := make(map[string]bool)
		for _, def := range defs {
			assert.False(t, seen[def.Key], "duplicate key %s in %s", def.Key, importType)
			seen[def.Key] = true
			assert.NotEmpty(t, def.Label)
			assert.NotEmpty(t, def.Example)
			if def.Type == FieldEnum {
				assert.NotEmpty(t, def.EnumValues, "enum field %s has no values", def.Key)
			}
		}
	}
}

func TestFieldsForUnknownType(t *testing.T) {
	_, err := FieldsFor(domain.ImportType("unbekannt"))
	assert.Error(t, err)
}

func TestRequiredFieldsFor(t *testing.T) {
	required, err := RequiredFieldsFor(domain.ImportExpenses)
	require.NoError(t, err)

	keys := make([]string, 0, len(required))
	for _, def := range required {
		keys = append(keys, def.Key)
	}
	assert.Equal(t, []string{"date", "amount", "description", "category", "payment_method"}, keys)
}
