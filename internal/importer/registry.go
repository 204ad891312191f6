package importer

import (
	"fmt"

	"pos-backoffice/internal/domain"
)

// FieldType is the value shape a mapped column must satisfy.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
	FieldDate   FieldType = "date"
	FieldTime   FieldType = "time"
	FieldEnum   FieldType = "enum"
)

// FieldDefinition describes one target field of an import type. The
// sets below are static and never mutated at runtime.
type FieldDefinition struct {
	Key         string
	Label       string
	Required    bool
	Type        FieldType
	EnumValues  []string
	Description string
	Example     string
}

var boolEnum = []string{"true", "false", "ja", "nein", "1", "0"}

var fieldDefinitions = map[domain.ImportType][]FieldDefinition{
	domain.ImportItems: {
		{Key: "name", Label: "Produktname", Required: true, Type: FieldString,
			Description: "Name des Produkts oder Service", Example: "Haarschnitt Damen"},
		{Key: "default_price", Label: "Standardpreis", Required: true, Type: FieldNumber,
			Description: "Preis in CHF", Example: "65.00"},
		{Key: "type", Label: "Typ", Required: true, Type: FieldEnum,
			EnumValues:  []string{"service", "product"},
			Description: "Produkt oder Service", Example: "service"},
		{Key: "is_favorite", Label: "Favorit", Required: false, Type: FieldEnum,
			EnumValues:  boolEnum,
			Description: "Als Favorit markieren", Example: "true"},
		{Key: "active", Label: "Aktiv", Required: false, Type: FieldEnum,
			EnumValues:  boolEnum,
			Description: "Aktiv/Inaktiv Status", Example: "true"},
	},
	domain.ImportSales: {
		{Key: "date", Label: "Datum", Required: true, Type: FieldDate,
			Description: "Verkaufsdatum (YYYY-MM-DD)", Example: "2024-01-15"},
		{Key: "time", Label: "Uhrzeit", Required: false, Type: FieldTime,
			Description: "Verkaufszeit (HH:MM)", Example: "14:30"},
		{Key: "total_amount", Label: "Gesamtbetrag", Required: true, Type: FieldNumber,
			Description: "Verkaufsbetrag in CHF", Example: "65.00"},
		{Key: "payment_method", Label: "Zahlungsmethode", Required: true, Type: FieldEnum,
			EnumValues:  []string{"cash", "twint", "sumup"},
			Description: "Art der Zahlung", Example: "cash"},
		{Key: "items", Label: "Items", Required: true, Type: FieldString,
			Description: `Items im Format: "Name:Preis;Name2:Preis2" (Semikolon-getrennt), Summe = Gesamtbetrag`,
			Example:     "Haarschnitt Damen:40.00;Styling:25.00"},
		{Key: "notes", Label: "Notizen", Required: false, Type: FieldString,
			Description: "Zusätzliche Bemerkungen", Example: "Stammkunde"},
	},
	domain.ImportExpenses: {
		{Key: "date", Label: "Datum", Required: true, Type: FieldDate,
			Description: "Ausgabendatum (YYYY-MM-DD)", Example: "2024-01-15"},
		{Key: "amount", Label: "Betrag", Required: true, Type: FieldNumber,
			Description: "Ausgabenbetrag in CHF", Example: "150.00"},
		{Key: "description", Label: "Beschreibung", Required: true, Type: FieldString,
			Description: "Was wurde gekauft/bezahlt", Example: "Miete Januar"},
		{Key: "category", Label: "Kategorie", Required: true, Type: FieldEnum,
			EnumValues:  []string{"rent", "supplies", "salary", "utilities", "insurance", "other"},
			Description: "Ausgabenkategorie", Example: "rent"},
		{Key: "payment_method", Label: "Zahlungsmethode", Required: true, Type: FieldEnum,
			EnumValues:  []string{"bank", "cash", "überweisung", "bar"},
			Description: "Art der Zahlung", Example: "bank"},
		{Key: "supplier_name", Label: "Lieferant", Required: false, Type: FieldString,
			Description: "Name des Lieferanten/Empfängers", Example: "Migros"},
		{Key: "invoice_number", Label: "Rechnungsnummer", Required: false, Type: FieldString,
			Description: "Externe Rechnungsnummer", Example: "RE-2024-001"},
		{Key: "notes", Label: "Notizen", Required: false, Type: FieldString,
			Description: "Zusätzliche Bemerkungen", Example: "Monatliche Miete"},
	},
	domain.ImportUsers: {
		{Key: "name", Label: "Name", Required: true, Type: FieldString,
			Description: "Vollständiger Name des Benutzers", Example: "Maria Müller"},
		{Key: "username", Label: "Benutzername", Required: true, Type: FieldString,
			Description: "Eindeutiger Benutzername", Example: "maria.mueller"},
		{Key: "email", Label: "E-Mail", Required: true, Type: FieldString,
			Description: "E-Mail Adresse", Example: "maria@salon.ch"},
		{Key: "role", Label: "Rolle", Required: true, Type: FieldEnum,
			EnumValues:  []string{"admin", "staff"},
			Description: "Benutzerrolle", Example: "staff"},
		{Key: "active", Label: "Aktiv", Required: false, Type: FieldEnum,
			EnumValues:  boolEnum,
			Description: "Aktiv/Inaktiv Status", Example: "true"},
	},
	domain.ImportOwnerTransactions: {
		{Key: "transaction_type", Label: "Transaktionstyp", Required: true, Type: FieldEnum,
			EnumValues:  []string{"deposit", "expense", "withdrawal"},
			Description: "Art der Transaktion", Example: "deposit"},
		{Key: "amount", Label: "Betrag", Required: true, Type: FieldNumber,
			Description: "Transaktionsbetrag in CHF", Example: "2000.00"},
		{Key: "description", Label: "Beschreibung", Required: true, Type: FieldString,
			Description: "Beschreibung der Transaktion", Example: "Eigenkapital Einlage"},
		{Key: "transaction_date", Label: "Transaktionsdatum", Required: true, Type: FieldDate,
			Description: "Transaktionsdatum (YYYY-MM-DD)", Example: "2024-01-15"},
		{Key: "payment_method", Label: "Zahlungsmethode", Required: true, Type: FieldEnum,
			EnumValues:  []string{"bank_transfer", "private_card", "private_cash"},
			Description: "Art der Zahlung", Example: "bank_transfer"},
		{Key: "notes", Label: "Notizen", Required: false, Type: FieldString,
			Description: "Zusätzliche Bemerkungen", Example: "Startkapital für Salon"},
	},
	domain.ImportBankAccounts: {
		{Key: "name", Label: "Kontoname", Required: true, Type: FieldString,
			Description: "Name/Bezeichnung des Kontos", Example: "Geschäftskonto UBS"},
		{Key: "bank_name", Label: "Bankname", Required: true, Type: FieldString,
			Description: "Name der Bank", Example: "UBS AG"},
		{Key: "iban", Label: "IBAN", Required: false, Type: FieldString,
			Description: "IBAN Nummer", Example: "CH93 0076 2011 6238 5295 7"},
		{Key: "account_number", Label: "Kontonummer", Required: false, Type: FieldString,
			Description: "Interne Kontonummer", Example: "123456789"},
		{Key: "current_balance", Label: "Aktueller Saldo", Required: false, Type: FieldNumber,
			Description: "Startguthaben in CHF", Example: "5000.00"},
		{Key: "is_active", Label: "Aktiv", Required: false, Type: FieldEnum,
			EnumValues:  boolEnum,
			Description: "Konto aktiv/inaktiv", Example: "true"},
		{Key: "notes", Label: "Notizen", Required: false, Type: FieldString,
			Description: "Zusätzliche Bemerkungen", Example: "Hauptgeschäftskonto"},
	},
	domain.ImportSuppliers: {
		{Key: "name", Label: "Lieferantenname", Required: true, Type: FieldString,
			Description: "Name des Lieferanten", Example: "Migros"},
		{Key: "category", Label: "Kategorie", Required: true, Type: FieldEnum,
			EnumValues: []string{
				"beauty_supplies", "equipment", "utilities", "rent", "insurance",
				"professional_services", "retail", "online_marketplace", "real_estate", "other",
			},
			Description: "Lieferantenkategorie", Example: "beauty_supplies"},
		{Key: "contact_email", Label: "E-Mail", Required: false, Type: FieldString,
			Description: "Kontakt E-Mail Adresse", Example: "info@migros.ch"},
		{Key: "contact_phone", Label: "Telefon", Required: false, Type: FieldString,
			Description: "Kontakt Telefonnummer", Example: "+41 44 123 45 67"},
		{Key: "website", Label: "Website", Required: false, Type: FieldString,
			Description: "Website URL", Example: "https://www.migros.ch"},
		{Key: "address_line1", Label: "Adresse", Required: false, Type: FieldString,
			Description: "Strassenadresse", Example: "Limmatstrasse 152"},
		{Key: "address_line2", Label: "Adresszusatz", Required: false, Type: FieldString,
			Description: "Zusätzliche Adressinformationen", Example: "3. Stock, c/o Schmidt"},
		{Key: "city", Label: "Stadt", Required: false, Type: FieldString,
			Description: "Stadt/Ort", Example: "Zürich"},
		{Key: "postal_code", Label: "PLZ", Required: false, Type: FieldString,
			Description: "Postleitzahl", Example: "8005"},
		{Key: "country", Label: "Land", Required: false, Type: FieldString,
			Description: "Land (Default: CH)", Example: "CH"},
		{Key: "iban", Label: "IBAN", Required: false, Type: FieldString,
			Description: "IBAN Nummer für Zahlungen", Example: "CH93 0076 2011 6238 5295 7"},
		{Key: "vat_number", Label: "MwSt-Nummer", Required: false, Type: FieldString,
			Description: "Mehrwertsteuernummer", Example: "CHE-123.456.789"},
		{Key: "is_active", Label: "Aktiv", Required: false, Type: FieldEnum,
			EnumValues:  boolEnum,
			Description: "Lieferant aktiv/inaktiv", Example: "true"},
		{Key: "notes", Label: "Notizen", Required: false, Type: FieldString,
			Description: "Zusätzliche Bemerkungen", Example: "Hauptlieferant für Kosmetik"},
	},
}

// FieldsFor returns the field definition set for an import type.
func FieldsFor(importType domain.ImportType) ([]FieldDefinition, error) {
	defs, ok := fieldDefinitions[importType]
	if !ok {
		return nil, fmt.Errorf("unknown import type: %s", importType)
	}
	return defs, nil
}

// RequiredFieldsFor returns only the required definitions.
func RequiredFieldsFor(importType domain.ImportType) ([]FieldDefinition, error) {
	defs, err := FieldsFor(importType)
	if err != nil {
		return nil, err
	}
	required := make([]FieldDefinition, 0, len(defs))
	for _, def := range defs {
		if def.Required {
			required = append(required, def)
		}
	}
	return required, nil
}

func fieldByKey(defs []FieldDefinition, key string) (FieldDefinition, bool) {
	for _, def := range defs {
		if def.Key == key {
			return def, true
		}
	}
	return FieldDefinition{}, false
}
