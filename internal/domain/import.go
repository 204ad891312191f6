package domain

import (
	"github.com/shopspring/decimal"
)

// ImportType selects the field definition set used for mapping.
type ImportType string

const (
	ImportItems             ImportType = "items"
	ImportSales             ImportType = "sales"
	ImportExpenses          ImportType = "expenses"
	ImportUsers             ImportType = "users"
	ImportOwnerTransactions ImportType = "owner_transactions"
	ImportBankAccounts      ImportType = "bank_accounts"
	ImportSuppliers         ImportType = "suppliers"
)

// ImportTypes lists all supported import types in a stable order.
var ImportTypes = []ImportType{
	ImportItems,
	ImportSales,
	ImportExpenses,
	ImportUsers,
	ImportOwnerTransactions,
	ImportBankAccounts,
	ImportSuppliers,
}

// ImportJSON labels results of direct JSON envelope imports. The
// envelope has no field definitions, so it is a result label only:
// ValidImportType rejects it as a mapping target.
const ImportJSON ImportType = "json"

func ValidImportType(t ImportType) bool {
	for _, known := range ImportTypes {
		if known == t {
			return true
		}
	}
	return false
}

type ItemImport struct {
	Name         string          `json:"name"`
	DefaultPrice decimal.Decimal `json:"default_price"`
	Type         string          `json:"type"`
	IsFavorite   bool            `json:"is_favorite"`
	Active       bool            `json:"active"`
}

type SaleItemImport struct {
	ItemName string          `json:"item_name"`
	Price    decimal.Decimal `json:"price"`
	Notes    string          `json:"notes,omitempty"`
}

type SaleImport struct {
	Date          string           `json:"date"`
	Time          string           `json:"time"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	PaymentMethod string           `json:"payment_method"`
	Status        string           `json:"status"`
	Items         []SaleItemImport `json:"items"`
	Notes         string           `json:"notes,omitempty"`
}

type ExpenseImport struct {
	Date          string          `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	PaymentMethod string          `json:"payment_method"`
	SupplierName  string          `json:"supplier_name,omitempty"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

type UserImport struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

type OwnerTransactionImport struct {
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	TransactionDate string          `json:"transaction_date"`
	PaymentMethod   string          `json:"payment_method"`
	BankingStatus   string          `json:"banking_status"`
	Notes           string          `json:"notes,omitempty"`
}

type BankAccountImport struct {
	Name           string          `json:"name"`
	BankName       string          `json:"bank_name"`
	IBAN           string          `json:"iban,omitempty"`
	AccountNumber  string          `json:"account_number,omitempty"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	IsActive       bool            `json:"is_active"`
	Notes          string          `json:"notes,omitempty"`
}

type SupplierImport struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	Website      string `json:"website,omitempty"`
	AddressLine1 string `json:"address_line1,omitempty"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Country      string `json:"country,omitempty"`
	IBAN         string `json:"iban,omitempty"`
	VATNumber    string `json:"vat_number,omitempty"`
	IsActive     bool   `json:"is_active"`
	Notes        string `json:"notes,omitempty"`
}

// CashMovementImport is a derived cash ledger entry. The orchestrator
// generates one per cash sale (cash_in) and cash expense (cash_out);
// they are never mapped from a file directly.
type CashMovementImport struct {
	Date          string          `json:"date"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   string          `json:"reference_id"`
}

// ImportBatch holds the typed entity batches produced by the transformer
// or decoded from the JSON import envelope. Only the batch matching the
// selected import type is populated for CSV imports; JSON imports may
// carry several at once.
type ImportBatch struct {
	Items             []ItemImport             `json:"items,omitempty"`
	Sales             []SaleImport             `json:"sales,omitempty"`
	Expenses          []ExpenseImport          `json:"expenses,omitempty"`
	Users             []UserImport             `json:"users,omitempty"`
	OwnerTransactions []OwnerTransactionImport `json:"owner_transactions,omitempty"`
	BankAccounts      []BankAccountImport      `json:"bank_accounts,omitempty"`
	Suppliers         []SupplierImport         `json:"suppliers,omitempty"`
}

func (b *ImportBatch) TotalRecords() int {
	return len(b.Items) + len(b.Sales) + len(b.Expenses) + len(b.Users) +
		len(b.OwnerTransactions) + len(b.BankAccounts) + len(b.Suppliers)
}

func (b *ImportBatch) IsEmpty() bool {
	return b.TotalRecords() == 0
}

// ImportResult summarizes one orchestrator run. Phases commit
// independently: when a phase fails, earlier phases stay committed and the
// failure is recorded here instead of rolled back.
type ImportResult struct {
	JobID             string     `json:"job_id"`
	ImportType        ImportType `json:"import_type"`
	ValidateOnly      bool       `json:"validate_only"`
	ItemsImported     int        `json:"items_imported"`
	SalesImported     int        `json:"sales_imported"`
	ExpensesImported  int        `json:"expenses_imported"`
	UsersImported     int        `json:"users_imported"`
	OwnerTxImported   int        `json:"owner_transactions_imported"`
	AccountsImported  int        `json:"bank_accounts_imported"`
	SuppliersImported int        `json:"suppliers_imported"`
	CashMovements     int        `json:"cash_movements_created"`
	DailySummaries    int        `json:"daily_summaries_calculated"`
	Receipts          int        `json:"placeholder_receipts_created"`
	CompletedPhases   []string   `json:"completed_phases"`
	FailedPhase       string     `json:"failed_phase,omitempty"`
	Errors            []string   `json:"errors,omitempty"`
}

func (r *ImportResult) Succeeded() bool {
	return r.FailedPhase == "" && len(r.Errors) == 0
}
