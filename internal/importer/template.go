package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"pos-backoffice/internal/domain"
)

// Template generates the downloadable CSV template for an import type.
// Headers are the German field labels and the data rows carry example
// values from the registry, so a template parsed back through Parse and
// Suggest always auto-maps completely and validates clean.
func Template(importType domain.ImportType) ([]byte, error) {
	defs, err := FieldsFor(importType)
	if err != nil {
		return nil, err
	}

	headers := make([]string, len(defs))
	first := make([]string, len(defs))
	second := make([]string, len(defs))
	for i, def := range defs {
		headers[i] = def.Label
		first[i] = def.Example
		second[i] = alternateExample(def)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	for _, record := range [][]string{headers, first, second} {
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// alternateExample varies the second template row where it can do so
// without breaking sample validation: enums rotate to another allowed
// value, everything else reuses the registry example.
func alternateExample(def FieldDefinition) string {
	if def.Type == FieldEnum && len(def.EnumValues) > 1 {
		for _, value := range def.EnumValues {
			if value != def.Example {
				return value
			}
		}
	}
	return def.Example
}

// TemplateFilename is the suggested download name for a template.
func TemplateFilename(importType domain.ImportType) string {
	return fmt.Sprintf("%s_import_vorlage.csv", importType)
}
