package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pos-backoffice/internal/domain"
	"pos-backoffice/pkg/apperrors"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	ibanPattern  = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{4,32}$`)

	germanDatePattern = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`)
	slashDatePattern  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

var expenseCategories = []string{"rent", "supplies", "salary", "utilities", "insurance", "other"}

// German category names accepted in place of the canonical values.
var expenseCategoryAliases = map[string]string{
	"miete":        "rent",
	"material":     "supplies",
	"lohn":         "salary",
	"gehalt":       "salary",
	"strom":        "utilities",
	"wasser":       "utilities",
	"versicherung": "insurance",
	"sonstiges":    "other",
	"andere":       "other",
}

// Transform converts parsed rows into the typed batch for the config's
// import type. It is a pure function of its inputs and all-or-nothing:
// the first row that fails coercion aborts the whole transform with a
// row-numbered error.
func Transform(data *ParsedData, cfg *MappingConfig) (*domain.ImportBatch, error) {
	if cfg == nil || !cfg.Valid {
		return nil, apperrors.TransformError("invalid mapping configuration, cannot transform data")
	}

	batch := &domain.ImportBatch{}
	var err error

	switch cfg.ImportType {
	case domain.ImportItems:
		batch.Items, err = transformItems(data, cfg)
	case domain.ImportSales:
		batch.Sales, err = transformSales(data, cfg)
	case domain.ImportExpenses:
		batch.Expenses, err = transformExpenses(data, cfg)
	case domain.ImportUsers:
		batch.Users, err = transformUsers(data, cfg)
	case domain.ImportOwnerTransactions:
		batch.OwnerTransactions, err = transformOwnerTransactions(data, cfg)
	case domain.ImportBankAccounts:
		batch.BankAccounts, err = transformBankAccounts(data, cfg)
	case domain.ImportSuppliers:
		batch.Suppliers, err = transformSuppliers(data, cfg)
	default:
		return nil, apperrors.TransformError("unsupported import type: %s", cfg.ImportType)
	}

	if err != nil {
		return nil, err
	}
	return batch, nil
}

func transformItems(data *ParsedData, cfg *MappingConfig) ([]domain.ItemImport, error) {
	items := make([]domain.ItemImport, 0, len(data.Rows))
	for i, row := range data.Rows {
		item, err := itemFromRow(row, cfg)
		if err != nil {
			return nil, rowError(i, err)
		}
		items = append(items, *item)
	}
	return items, nil
}

func itemFromRow(row Row, cfg *MappingConfig) (*domain.ItemImport, error) {
	name, err := requiredString(row, "name", cfg)
	if err != nil {
		return nil, err
	}
	price, err := requiredNumber(row, "default_price", cfg)
	if err != nil {
		return nil, err
	}
	itemType, err := requiredEnum(row, "type", cfg, []string{"service", "product"})
	if err != nil {
		return nil, err
	}
	favorite, err := optionalBool(row, "is_favorite", cfg, false)
	if err != nil {
		return nil, err
	}
	active, err := optionalBool(row, "active", cfg, true)
	if err != nil {
		return nil, err
	}
	return &domain.ItemImport{
		Name:         name,
		DefaultPrice: price,
		Type:         itemType,
		IsFavorite:   favorite,
		Active:       active,
	}, nil
}

func transformSales(data *ParsedData, cfg *MappingConfig) ([]domain.SaleImport, error) {
	sales := make([]domain.SaleImport, 0, len(data.Rows))
	for i, row := range data.Rows {
		sale, err := saleFromRow(row, cfg)
		if err != nil {
			return nil, rowError(i, err)
		}
		sales = append(sales, *sale)
	}
	return sales, nil
}

func saleFromRow(row Row, cfg *MappingConfig) (*domain.SaleImport, error) {
	date, err := requiredDate(row, "date", cfg)
	if err != nil {
		return nil, err
	}
	saleTime, err := optionalTime(row, "time", cfg, "12:00")
	if err != nil {
		return nil, err
	}
	total, err := requiredNumber(row, "total_amount", cfg)
	if err != nil {
		return nil, err
	}
	payment, err := requiredEnum(row, "payment_method", cfg, []string{"cash", "twint", "sumup"})
	if err != nil {
		return nil, err
	}
	items, err := parseSaleItems(row, "items", cfg)
	if err != nil {
		return nil, err
	}

	itemsTotal := decimal.Zero
	for _, item := range items {
		itemsTotal = itemsTotal.Add(item.Price)
	}
	if itemsTotal.Sub(total).Abs().GreaterThan(decimal.NewFromFloat(0.01)) {
		return nil, fmt.Errorf("sum of item prices (%s) must equal total amount (%s)", itemsTotal, total)
	}

	return &domain.SaleImport{
		Date:          date,
		Time:          saleTime,
		TotalAmount:   total,
		PaymentMethod: payment,
		Status:        "completed",
		Items:         items,
		Notes:         optionalString(row, "notes", cfg),
	}, nil
}

func transformExpenses(data *ParsedData, cfg *MappingConfig) ([]domain.ExpenseImport, error) {
	expenses := make([]domain.ExpenseImport, 0, len(data.Rows))
	for i, row := range data.Rows {
		expense, err := expenseFromRow(row, cfg)
		if err != nil {
			return nil, rowError(i, err)
		}
		expenses = append(expenses, *expense)
	}
	return expenses, nil
}

func expenseFromRow(row Row, cfg *MappingConfig) (*domain.ExpenseImport, error) {
	date, err := requiredDate(row, "date", cfg)
	if err != nil {
		return nil, err
	}
	amount, err := requiredNumber(row, "amount", cfg)
	if err != nil {
		return nil, err
	}
	description, err := requiredString(row, "description", cfg)
	if err != nil {
		return nil, err
	}
	rawCategory, err := requiredString(row, "category", cfg)
	if err != nil {
		return nil, err
	}
	category := normalizeExpenseCategory(strings.ToLower(rawCategory))
	if !containsValue(expenseCategories, category) {
		return nil, fmt.Errorf("field 'category' must be one of: %s, got: %s",
			strings.Join(expenseCategories, ", "), rawCategory)
	}
	payment, err := requiredEnum(row, "payment_method", cfg,
		[]string{"bank", "cash", "überweisung", "bar"})
	if err != nil {
		return nil, err
	}

	return &domain.ExpenseImport{
		Date:          date,
		Amount:        amount,
		Description:   description,
		Category:      category,
		PaymentMethod: normalizeExpensePayment(payment),
		SupplierName:  optionalString(row, "supplier_name", cfg),
		InvoiceNumber: optionalString(row, "invoice_number", cfg),
		Notes:         optionalString(row, "notes", cfg),
	}, nil
}

func transformUsers(data *ParsedData, cfg *MappingConfig) ([]domain.UserImport, error) {
	users := make([]domain.UserImport, 0, len(data.Rows))
	for i, row := range data.Rows {
		user, err := userFromRow(row, cfg)
		if err != nil {
			return nil, rowError(i, err)
		}
		users = append(users, *user)
	}
	return users, nil
}

func userFromRow(row Row, cfg *MappingConfig) (*domain.UserImport, error) {
	name, err := requiredString(row, "name", cfg)
	if err != nil {
		return nil, err
	}
	username, err := requiredString(row, "username", cfg)
	if err != nil {
		return nil, err
	}
	email, err := requiredString(row, "email", cfg)
	if err != nil {
		return nil, err
	}
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("invalid email format: %s", email)
	}
	role, err := requiredEnum(row, "role", cfg, []string{"admin", "staff"})
	if err != nil {
		return nil, err
	}
	active, err := optionalBool(row, "active", cfg, true)
	if err != nil {
		return nil, err
	}
	return &domain.UserImport{
		Name:     name,
		Username: username,
		Email:    email,
		Role:     role,
		Active:   active,
	}, nil
}

func transformOwnerTransactions(data *ParsedData, cfg *MappingConfig) ([]domain.OwnerTransactionImport, error) {
	transactions := make([]domain.OwnerTransactionImport, 0, len(data.Rows))
	for i, row := range data.Rows {
		tx, err := ownerTransactionFromRow(row, cfg)
		if err != nil {
			return nil, rowError(i, err)
		}
		transactions = append(transactions, *tx)
	}
	return transactions, nil
}

func ownerTransactionFromRow(row Row, cfg *MappingConfig) (*domain.OwnerTransactionImport, error) {
	txType, err := requiredEnum(row, "transaction_type", cfg,
		[]string{"deposit", "expense", "withdrawal"})
	if err != nil {
		return nil, err
	}
	amount, err := requiredNumber(row, "amount", cfg)
	if err != nil {
		return nil, err
	}
	description, err := requiredString(row, "description", cfg)
	if err != nil {
		return nil, err
	}
	date, err := requiredDate(row, "transaction_date", cfg)
	if err != nil {
		return nil, err
	}
	payment, err := requiredEnum(row, "payment_method", cfg,
		[]string{"bank_transfer", "private_card", "private_cash"})
	if err != nil {
		return nil, err
	}
	return &domain.OwnerTransactionImport{
		TransactionType: txType,
		Amount:          amount,
		Description:     description,
		TransactionDate: date,
		PaymentMethod:   payment,
		BankingStatus:   "unmatched",
		Notes:           optionalString(row, "notes", cfg),
	}, nil
}

func transformBankAccounts(data *ParsedData, cfg *MappingConfig) ([]domain.BankAccountImport, error) {
	accounts := make([]domain.BankAccountImport, 0, len(data.Rows))
	for i, row := range data.Rows {
		account, err := bankAccountFromRow(row, cfg)
		if err != nil {
			return nil, rowError(i, err)
		}
		accounts = append(accounts, *account)
	}
	return accounts, nil
}

func bankAccountFromRow(row Row, cfg *MappingConfig) (*domain.BankAccountImport, error) {
	name, err := requiredString(row, "name", cfg)
	if err != nil {
		return nil, err
	}
	bankName, err := requiredString(row, "bank_name", cfg)
	if err != nil {
		return nil, err
	}
	iban := optionalString(row, "iban", cfg)
	if iban != "" {
		iban = strings.ToUpper(strings.ReplaceAll(iban, " ", ""))
		if !ibanPattern.MatchString(iban) {
			return nil, fmt.Errorf("invalid IBAN format: %s", iban)
		}
	}
	balance, err := optionalNumber(row, "current_balance", cfg, decimal.Zero)
	if err != nil {
		return nil, err
	}
	active, err := optionalBool(row, "is_active", cfg, true)
	if err != nil {
		return nil, err
	}
	return &domain.BankAccountImport{
		Name:           name,
		BankName:       bankName,
		IBAN:           iban,
		AccountNumber:  optionalString(row, "account_number", cfg),
		CurrentBalance: balance,
		IsActive:       active,
		Notes:          optionalString(row, "notes", cfg),
	}, nil
}

func transformSuppliers(data *ParsedData, cfg *MappingConfig) ([]domain.SupplierImport, error) {
	suppliers := make([]domain.SupplierImport, 0, len(data.Rows))
	for i, row := range data.Rows {
		supplier, err := supplierFromRow(row, cfg)
		if err != nil {
			return nil, rowError(i, err)
		}
		suppliers = append(suppliers, *supplier)
	}
	return suppliers, nil
}

func supplierFromRow(row Row, cfg *MappingConfig) (*domain.SupplierImport, error) {
	name, err := requiredString(row, "name", cfg)
	if err != nil {
		return nil, err
	}
	category, err := requiredEnum(row, "category", cfg, []string{
		"beauty_supplies", "equipment", "utilities", "rent", "insurance",
		"professional_services", "retail", "online_marketplace", "real_estate", "other",
	})
	if err != nil {
		return nil, err
	}
	email := optionalString(row, "contact_email", cfg)
	if email != "" && !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("invalid email format: %s", email)
	}
	country := optionalString(row, "country", cfg)
	if country == "" {
		country = "CH"
	}
	active, err := optionalBool(row, "is_active", cfg, true)
	if err != nil {
		return nil, err
	}
	return &domain.SupplierImport{
		Name:         name,
		Category:     category,
		ContactEmail: email,
		ContactPhone: optionalString(row, "contact_phone", cfg),
		Website:      optionalString(row, "website", cfg),
		AddressLine1: optionalString(row, "address_line1", cfg),
		AddressLine2: optionalString(row, "address_line2", cfg),
		City:         optionalString(row, "city", cfg),
		PostalCode:   optionalString(row, "postal_code", cfg),
		Country:      country,
		IBAN:         optionalString(row, "iban", cfg),
		VATNumber:    optionalString(row, "vat_number", cfg),
		IsActive:     active,
		Notes:        optionalString(row, "notes", cfg),
	}, nil
}

// parseSaleItems splits the multi-item column ("Name:Price;Name2:Price2")
// into typed line items. The last colon separates name and price so item
// names may contain colons.
func parseSaleItems(row Row, fieldKey string, cfg *MappingConfig) ([]domain.SaleItemImport, error) {
	raw, err := requiredString(row, fieldKey, cfg)
	if err != nil {
		return nil, err
	}

	var items []domain.SaleItemImport
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		colon := strings.LastIndex(entry, ":")
		if colon == -1 {
			return nil, fmt.Errorf("invalid item format: '%s', expected 'ItemName:Price'", entry)
		}
		name := strings.TrimSpace(entry[:colon])
		priceStr := strings.TrimSpace(entry[colon+1:])
		if name == "" {
			return nil, fmt.Errorf("item name cannot be empty in: '%s'", entry)
		}
		price, err := decimal.NewFromString(cleanNumber(priceStr))
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("invalid price '%s' for item '%s'", priceStr, name)
		}
		items = append(items, domain.SaleItemImport{ItemName: name, Price: price})
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no valid items found in: '%s'", raw)
	}
	return items, nil
}

func requiredString(row Row, fieldKey string, cfg *MappingConfig) (string, error) {
	mapping, ok := cfg.Mappings[fieldKey]
	if !ok || mapping.CSVHeader == "" {
		return "", fmt.Errorf("required field '%s' is not mapped", fieldKey)
	}
	value := strings.TrimSpace(row[mapping.CSVHeader])
	if value == "" {
		return "", fmt.Errorf("required field '%s' is empty", fieldKey)
	}
	return value, nil
}

func optionalString(row Row, fieldKey string, cfg *MappingConfig) string {
	mapping, ok := cfg.Mappings[fieldKey]
	if !ok || mapping.CSVHeader == "" {
		return ""
	}
	return strings.TrimSpace(row[mapping.CSVHeader])
}

func requiredNumber(row Row, fieldKey string, cfg *MappingConfig) (decimal.Decimal, error) {
	raw, err := requiredString(row, fieldKey, cfg)
	if err != nil {
		return decimal.Zero, err
	}
	value, err := decimal.NewFromString(cleanNumber(raw))
	if err != nil || value.IsNegative() {
		return decimal.Zero, fmt.Errorf("field '%s' must be a positive number, got: %s", fieldKey, raw)
	}
	return value, nil
}

func optionalNumber(row Row, fieldKey string, cfg *MappingConfig, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw := optionalString(row, fieldKey, cfg)
	if raw == "" {
		return fallback, nil
	}
	value, err := decimal.NewFromString(cleanNumber(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("field '%s' must be a number, got: %s", fieldKey, raw)
	}
	return value, nil
}

// requiredDate normalizes DD.MM.YYYY and DD/MM/YYYY to ISO and then
// parses the result, so calendar-invalid dates are rejected here even
// though the mapping validator only checks the format.
func requiredDate(row Row, fieldKey string, cfg *MappingConfig) (string, error) {
	raw, err := requiredString(row, fieldKey, cfg)
	if err != nil {
		return "", err
	}

	normalized := raw
	if m := germanDatePattern.FindStringSubmatch(raw); m != nil {
		normalized = isoDate(m[3], m[2], m[1])
	} else if m := slashDatePattern.FindStringSubmatch(raw); m != nil {
		normalized = isoDate(m[3], m[2], m[1])
	}

	if _, err := time.Parse("2006-01-02", normalized); err != nil {
		return "", fmt.Errorf("field '%s' must be a valid date (YYYY-MM-DD or DD.MM.YYYY), got: %s", fieldKey, raw)
	}
	return normalized, nil
}

func isoDate(year, month, day string) string {
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	return fmt.Sprintf("%s-%02d-%02d", year, m, d)
}

func optionalTime(row Row, fieldKey string, cfg *MappingConfig, fallback string) (string, error) {
	raw := optionalString(row, fieldKey, cfg)
	if raw == "" {
		return fallback, nil
	}
	if !timePattern.MatchString(raw) {
		return "", fmt.Errorf("field '%s' must be in HH:MM format, got: %s", fieldKey, raw)
	}
	return raw, nil
}

func requiredEnum(row Row, fieldKey string, cfg *MappingConfig, allowed []string) (string, error) {
	raw, err := requiredString(row, fieldKey, cfg)
	if err != nil {
		return "", err
	}
	lower := strings.ToLower(raw)
	for _, value := range allowed {
		if strings.ToLower(value) == lower {
			return lower, nil
		}
	}
	return "", fmt.Errorf("field '%s' must be one of: %s, got: %s", fieldKey, strings.Join(allowed, ", "), raw)
}

func optionalBool(row Row, fieldKey string, cfg *MappingConfig, fallback bool) (bool, error) {
	raw := optionalString(row, fieldKey, cfg)
	if raw == "" {
		return fallback, nil
	}
	switch strings.ToLower(raw) {
	case "true", "yes", "ja", "1", "y", "x":
		return true, nil
	case "false", "no", "nein", "0", "n":
		return false, nil
	}
	return false, fmt.Errorf("field '%s' must be a boolean value (true/false, ja/nein, 1/0), got: %s", fieldKey, raw)
}

func normalizeExpensePayment(value string) string {
	switch value {
	case "überweisung", "bank":
		return "bank"
	case "bar", "cash":
		return "cash"
	}
	return value
}

func normalizeExpenseCategory(value string) string {
	if mapped, ok := expenseCategoryAliases[value]; ok {
		return mapped
	}
	return value
}

func containsValue(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// rowError prefixes coercion failures with the 1-based file line (row
// index + header line).
func rowError(index int, err error) error {
	return apperrors.TransformError("row %d: %v", index+2, err)
}
