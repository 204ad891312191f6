package importer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"pos-backoffice/internal/domain"
)

// ColumnMapping binds one target field to a source column. An empty
// CSVHeader means the field is unmapped.
type ColumnMapping struct {
	CSVHeader   string `json:"csv_header"`
	TargetField string `json:"target_field"`
	Required    bool   `json:"required"`
	SampleValue string `json:"sample_value,omitempty"`
}

// MappingConfig is the full mapping set for one import type. Valid and
// ValidationErrors are recomputed on every change; the transformer
// refuses configs with Valid == false.
type MappingConfig struct {
	ImportType       domain.ImportType        `json:"import_type"`
	Mappings         map[string]ColumnMapping `json:"mappings"`
	Valid            bool                     `json:"is_valid"`
	ValidationErrors []string                 `json:"validation_errors"`
}

// Per-field synonym lists for fuzzy header matching. Substring match,
// checked in header order after exact key/label matches failed.
var fieldSynonyms = map[string][]string{
	"name":             {"name", "produkt", "service", "bezeichnung"},
	"default_price":    {"price", "preis", "cost", "kosten", "betrag"},
	"type":             {"type", "typ", "art", "category"},
	"date":             {"date", "datum", "day", "tag"},
	"time":             {"time", "zeit", "hour", "stunde"},
	"total_amount":     {"total", "amount", "betrag", "summe", "gesamt"},
	"payment_method":   {"payment", "zahlung", "method", "methode"},
	"items":            {"item", "produkt", "service", "artikel"},
	"amount":           {"amount", "betrag", "kosten", "cost"},
	"description":      {"description", "beschreibung", "text", "details"},
	"category":         {"category", "kategorie", "typ", "type"},
	"supplier_name":    {"supplier", "lieferant", "vendor", "firma"},
	"invoice_number":   {"invoice", "rechnung", "number", "nummer"},
	"notes":            {"notes", "notizen", "bemerkung", "comment"},
	"is_favorite":      {"favorite", "favorit", "fav"},
	"active":           {"active", "aktiv", "enabled"},
	"is_active":        {"active", "aktiv", "enabled"},
	"transaction_type": {"transaktionstyp", "transaction", "typ"},
	"transaction_date": {"transaktionsdatum", "date", "datum"},
	"bank_name":        {"bank"},
	"iban":             {"iban"},
	"account_number":   {"kontonummer", "account"},
	"current_balance":  {"saldo", "balance", "guthaben"},
	"username":         {"benutzername", "username", "login"},
	"email":            {"mail", "e-mail", "email"},
	"role":             {"rolle", "role"},
	"contact_email":    {"mail", "e-mail", "email"},
	"contact_phone":    {"telefon", "phone", "tel"},
	"website":          {"website", "url", "web"},
	"address_line1":    {"adresse", "address", "strasse"},
	"address_line2":    {"adresszusatz", "zusatz"},
	"city":             {"stadt", "city", "ort"},
	"postal_code":      {"plz", "postleitzahl", "zip"},
	"country":          {"land", "country"},
	"vat_number":       {"mwst", "vat", "steuernummer"},
}

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
		regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}$`),
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`),
	}
	timePattern = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)
)

// Suggest produces the initial mapping set for parsed data: exact
// case-insensitive match on field key or label first, then the synonym
// list. First matching header in file order wins. Deterministic, so
// repeated calls over the same input yield the same set.
func Suggest(data *ParsedData, importType domain.ImportType) (*MappingConfig, error) {
	defs, err := FieldsFor(importType)
	if err != nil {
		return nil, err
	}

	cfg := &MappingConfig{
		ImportType: importType,
		Mappings:   make(map[string]ColumnMapping, len(defs)),
	}

	for _, field := range defs {
		header := suggestHeader(field, data.Headers)
		mapping := ColumnMapping{
			CSVHeader:   header,
			TargetField: field.Key,
			Required:    field.Required,
		}
		if header != "" {
			mapping.SampleValue = sampleValue(data, header)
		}
		cfg.Mappings[field.Key] = mapping
	}

	revalidate(cfg, defs)
	return cfg, nil
}

// Assign binds fieldKey to header, replacing any suggestion. A header
// already claimed by another field is taken over and the other field's
// binding is cleared (last writer wins). An empty header unmaps the
// field. Validation is recomputed.
func Assign(cfg *MappingConfig, data *ParsedData, fieldKey, header string) error {
	defs, err := FieldsFor(cfg.ImportType)
	if err != nil {
		return err
	}
	field, ok := fieldByKey(defs, fieldKey)
	if !ok {
		return fmt.Errorf("unknown field %q for import type %s", fieldKey, cfg.ImportType)
	}
	if header != "" && !containsHeader(data.Headers, header) {
		return fmt.Errorf("header %q not present in file", header)
	}

	if header != "" {
		for key, mapping := range cfg.Mappings {
			if key != fieldKey && mapping.CSVHeader == header {
				mapping.CSVHeader = ""
				mapping.SampleValue = ""
				cfg.Mappings[key] = mapping
			}
		}
	}

	mapping := cfg.Mappings[fieldKey]
	mapping.TargetField = field.Key
	mapping.Required = field.Required
	mapping.CSVHeader = header
	if header != "" {
		mapping.SampleValue = sampleValue(data, header)
	} else {
		mapping.SampleValue = ""
	}
	cfg.Mappings[fieldKey] = mapping

	revalidate(cfg, defs)
	return nil
}

// Revalidate recomputes Valid and ValidationErrors in place.
func Revalidate(cfg *MappingConfig) error {
	defs, err := FieldsFor(cfg.ImportType)
	if err != nil {
		return err
	}
	revalidate(cfg, defs)
	return nil
}

func revalidate(cfg *MappingConfig, defs []FieldDefinition) {
	var errs []string

	for _, field := range defs {
		mapping := cfg.Mappings[field.Key]
		if field.Required && strings.TrimSpace(mapping.CSVHeader) == "" {
			errs = append(errs, fmt.Sprintf("Pflichtfeld '%s' muss zugeordnet werden", field.Label))
		}
	}

	used := make(map[string]bool)
	for _, field := range defs {
		mapping := cfg.Mappings[field.Key]
		header := strings.TrimSpace(mapping.CSVHeader)
		if header == "" {
			continue
		}
		if used[header] {
			errs = append(errs, fmt.Sprintf("Spalte '%s' ist mehrfach zugeordnet", header))
		}
		used[header] = true
	}

	for _, field := range defs {
		mapping := cfg.Mappings[field.Key]
		if mapping.CSVHeader == "" || mapping.SampleValue == "" {
			continue
		}
		if msg := validateSampleValue(field, mapping.SampleValue); msg != "" {
			errs = append(errs, fmt.Sprintf("%s: %s", field.Label, msg))
		}
	}

	cfg.ValidationErrors = errs
	cfg.Valid = len(errs) == 0
}

// validateSampleValue checks the shape of a sample against the field
// type. Dates are checked by format only; calendar validity is left to
// the transformer.
func validateSampleValue(field FieldDefinition, sample string) string {
	switch field.Type {
	case FieldNumber:
		if _, err := decimal.NewFromString(cleanNumber(sample)); err != nil {
			return fmt.Sprintf("Beispielwert '%s' ist keine gültige Zahl", sample)
		}
	case FieldDate:
		for _, pattern := range datePatterns {
			if pattern.MatchString(sample) {
				return ""
			}
		}
		return fmt.Sprintf("Beispielwert '%s' ist kein gültiges Datum (DD.MM.YYYY oder YYYY-MM-DD)", sample)
	case FieldTime:
		if !timePattern.MatchString(sample) {
			return fmt.Sprintf("Beispielwert '%s' ist keine gültige Uhrzeit (HH:MM)", sample)
		}
	case FieldEnum:
		if len(field.EnumValues) == 0 {
			return ""
		}
		lower := strings.ToLower(sample)
		if field.Key == "category" {
			lower = normalizeExpenseCategory(lower)
		}
		for _, allowed := range field.EnumValues {
			if strings.ToLower(allowed) == lower {
				return ""
			}
		}
		return fmt.Sprintf("Beispielwert '%s' muss einer von: %s", sample, strings.Join(field.EnumValues, ", "))
	}
	return ""
}

func suggestHeader(field FieldDefinition, headers []string) string {
	key := strings.ToLower(field.Key)
	label := strings.ToLower(field.Label)

	for _, header := range headers {
		lower := strings.ToLower(header)
		if lower == key || lower == label {
			return header
		}
	}

	terms, ok := fieldSynonyms[field.Key]
	if !ok {
		terms = []string{key}
	}
	for _, header := range headers {
		lower := strings.ToLower(header)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				return header
			}
		}
	}

	return ""
}

// sampleValue returns the first non-empty value of the column within
// the first three rows.
func sampleValue(data *ParsedData, header string) string {
	limit := 3
	if len(data.Rows) < limit {
		limit = len(data.Rows)
	}
	for _, row := range data.Rows[:limit] {
		if value := strings.TrimSpace(row[header]); value != "" {
			return value
		}
	}
	return ""
}

// cleanNumber strips currency symbols, spaces and thousands separators,
// keeping only the last '.' or ',' as the decimal point.
func cleanNumber(s string) string {
	s = strings.NewReplacer("CHF", "", "₣", "", " ", "", "'", "", " ", "").Replace(s)

	lastSep := -1
	for i, r := range s {
		if r == '.' || r == ',' {
			lastSep = i
		}
	}

	var b strings.Builder
	for i, r := range s {
		switch r {
		case '.', ',':
			if i == lastSep {
				b.WriteRune('.')
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func containsHeader(headers []string, header string) bool {
	for _, h := range headers {
		if h == header {
			return true
		}
	}
	return false
}
