package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-backoffice/internal/domain"
)

func parseCSV(t *testing.T, input string) *ParsedData {
	t.Helper()
	data, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	return data
}

func TestSuggestGermanExpenseHeaders(t *testing.T) {
	data := parseCSV(t, "Datum,Betrag,Beschreibung,Kategorie,Zahlungsmethode\n"+
		"2024-01-15,150.00,Miete Januar,rent,bank\n")

	cfg, err := Suggest(data, domain.ImportExpenses)
	require.NoError(t, err)

	assert.Equal(t, "Datum", cfg.Mappings["date"].CSVHeader)
	assert.Equal(t, "Betrag", cfg.Mappings["amount"].CSVHeader)
	assert.Equal(t, "Beschreibung", cfg.Mappings["description"].CSVHeader)
	assert.Equal(t, "Kategorie", cfg.Mappings["category"].CSVHeader)
	assert.Equal(t, "Zahlungsmethode", cfg.Mappings["payment_method"].CSVHeader)
	assert.True(t, cfg.Valid, "all required fields mapped: %v", cfg.ValidationErrors)
}

func TestSuggestIsDeterministic(t *testing.T) {
	data := parseCSV(t, "Produktname,Standardpreis,Typ\nHaarschnitt,65.00,service\n")

	first, err := Suggest(data, domain.ImportItems)
	require.NoError(t, err)
	second, err := Suggest(data, domain.ImportItems)
	require.NoError(t, err)

	assert.Equal(t, first.Mappings, second.Mappings)
}

func TestSuggestSynonymSubstring(t *testing.T) {
	data := parseCSV(t, "Verkaufspreis,Artikelname\n65.00,Haarschnitt\n")

	cfg, err := Suggest(data, domain.ImportItems)
	require.NoError(t, err)

	// "Verkaufspreis" contains "preis", "Artikelname" contains "name".
	assert.Equal(t, "Verkaufspreis", cfg.Mappings["default_price"].CSVHeader)
	assert.Equal(t, "Artikelname", cfg.Mappings["name"].CSVHeader)
}

func TestAssignReassignmentClearsOtherField(t *testing.T) {
	data := parseCSV(t, "Preis,Name,Typ\n65.00,Haarschnitt,service\n")

	cfg, err := Suggest(data, domain.ImportItems)
	require.NoError(t, err)
	require.Equal(t, "Preis", cfg.Mappings["default_price"].CSVHeader)

	// Claiming "Preis" for another field must unbind default_price.
	require.NoError(t, Assign(cfg, data, "name", "Preis"))

	assert.Equal(t, "Preis", cfg.Mappings["name"].CSVHeader)
	assert.Equal(t, "", cfg.Mappings["default_price"].CSVHeader)
	assert.False(t, cfg.Valid)
}

func TestAssignUnknownHeader(t *testing.T) {
	data := parseCSV(t, "Name\nHaarschnitt\n")
	cfg, err := Suggest(data, domain.ImportItems)
	require.NoError(t, err)

	assert.Error(t, Assign(cfg, data, "name", "DoesNotExist"))
	assert.Error(t, Assign(cfg, data, "no_such_field", "Name"))
}

func TestAssignEmptyHeaderUnmapsField(t *testing.T) {
	data := parseCSV(t, "Name,Preis,Typ\nHaarschnitt,65.00,service\n")
	cfg, err := Suggest(data, domain.ImportItems)
	require.NoError(t, err)

	require.NoError(t, Assign(cfg, data, "name", ""))
	assert.Equal(t, "", cfg.Mappings["name"].CSVHeader)
	assert.Contains(t, strings.Join(cfg.ValidationErrors, "\n"), "Pflichtfeld")
}

func TestDateValidationIsFormatOnly(t *testing.T) {
	// 2024-13-01 matches the ISO shape even though month 13 does not
	// exist; the transformer catches it later.
	data := parseCSV(t, "Datum,Betrag,Beschreibung,Kategorie,Zahlungsmethode\n"+
		"2024-13-01,150.00,Miete,rent,bank\n")

	cfg, err := Suggest(data, domain.ImportExpenses)
	require.NoError(t, err)
	assert.True(t, cfg.Valid)
}

func TestDateValidationAcceptsGermanFormat(t *testing.T) {
	data := parseCSV(t, "Datum,Betrag,Beschreibung,Kategorie,Zahlungsmethode\n"+
		"12.03.2024,150.00,Miete,rent,bank\n")

	cfg, err := Suggest(data, domain.ImportExpenses)
	require.NoError(t, err)
	assert.True(t, cfg.Valid)
}

func TestSampleValidationRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad number", "Datum,Betrag,Beschreibung,Kategorie,Zahlungsmethode\n2024-01-15,abc,Miete,rent,bank\n"},
		{"bad date", "Datum,Betrag,Beschreibung,Kategorie,Zahlungsmethode\n15. Januar,150.00,Miete,rent,bank\n"},
		{"bad enum", "Datum,Betrag,Beschreibung,Kategorie,Zahlungsmethode\n2024-01-15,150.00,Miete,unbekannt,bank\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := parseCSV(t, tt.input)
			cfg, err := Suggest(data, domain.ImportExpenses)
			require.NoError(t, err)
			assert.False(t, cfg.Valid)
			assert.NotEmpty(t, cfg.ValidationErrors)
		})
	}
}

func TestSampleValueSkipsEmptyCells(t *testing.T) {
	data := parseCSV(t, "Betrag\n\n150.00\n")
	// First row is dropped as empty; sample comes from the next one.
	assert.Equal(t, "150.00", sampleValue(data, "Betrag"))
}

func TestCleanNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"150.00", "150.00"},
		{"150,00", "150.00"},
		{"CHF 1'250.50", "1250.50"},
		{"1.250,50", "1250.50"},
		{"1,250.50", "1250.50"},
		{"₣ 99", "99"},
		{"1 250,00", "1250.00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanNumber(tt.in), "input %q", tt.in)
	}
}
