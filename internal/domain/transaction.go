package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType discriminates rows of the unified transactions view.
type TransactionType string

const (
	TypeSale            TransactionType = "sale"
	TypeExpense         TransactionType = "expense"
	TypeCashMovement    TransactionType = "cash_movement"
	TypeBankTransaction TransactionType = "bank_transaction"
)

// TypeCode is the short receipt prefix for each transaction type.
type TypeCode string

const (
	CodeSale            TypeCode = "VK"
	CodeExpense         TypeCode = "AG"
	CodeCashMovement    TypeCode = "CM"
	CodeBankTransaction TypeCode = "BT"
)

type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentTwint PaymentMethod = "twint"
	PaymentSumUp PaymentMethod = "sumup"
	PaymentBank  PaymentMethod = "bank"
)

type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "completed"
	StatusCancelled TransactionStatus = "cancelled"
	StatusRefunded  TransactionStatus = "refunded"
)

// BankingStatus is the reconciliation state against bank/provider
// statements, owned by the backend view.
type BankingStatus string

const (
	BankingUnmatched       BankingStatus = "unmatched"
	BankingProviderMatched BankingStatus = "provider_matched"
	BankingBankMatched     BankingStatus = "bank_matched"
	BankingFullyMatched    BankingStatus = "fully_matched"
	BankingMatched         BankingStatus = "matched"
)

type PdfStatus string

const (
	PdfAvailable  PdfStatus = "available"
	PdfMissing    PdfStatus = "missing"
	PdfNotNeeded  PdfStatus = "not_needed"
	PdfGenerating PdfStatus = "generating"
)

type PdfRequirement string

const (
	PdfRequired      PdfRequirement = "required"
	PdfOptional      PdfRequirement = "optional"
	PdfNotApplicable PdfRequirement = "not_applicable"
)

// UnifiedTransaction is a read-only projection of one sale, expense,
// cash movement or bank transaction. PdfStatus and PdfRequirement are
// derived client-side; everything else comes from the view.
type UnifiedTransaction struct {
	ID              string            `json:"id" db:"id"`
	TransactionType TransactionType   `json:"transaction_type" db:"transaction_type"`
	TypeCode        TypeCode          `json:"type_code" db:"type_code"`
	ReceiptNumber   *string           `json:"receipt_number,omitempty" db:"receipt_number"`
	TransactionDate time.Time         `json:"transaction_date" db:"transaction_date"`
	Amount          decimal.Decimal   `json:"amount" db:"amount"`
	PaymentMethod   PaymentMethod     `json:"payment_method" db:"payment_method"`
	Status          TransactionStatus `json:"status" db:"status"`
	UserID          string            `json:"user_id" db:"user_id"`
	Description     string            `json:"description" db:"description"`

	CustomerID   *string `json:"customer_id,omitempty" db:"customer_id"`
	CustomerName *string `json:"customer_name,omitempty" db:"customer_name"`

	DocumentID     *string        `json:"document_id,omitempty" db:"document_id"`
	HasPdf         bool           `json:"has_pdf" db:"has_pdf"`
	PdfStatus      PdfStatus      `json:"pdf_status"`
	PdfRequirement PdfRequirement `json:"pdf_requirement"`

	BankingStatus *BankingStatus `json:"banking_status,omitempty" db:"banking_status"`

	DateOnly string `json:"date_only" db:"date_only"`
	TimeOnly string `json:"time_only" db:"time_only"`

	ProviderFee *decimal.Decimal `json:"provider_fee,omitempty" db:"provider_fee"`
	NetAmount   *decimal.Decimal `json:"net_amount,omitempty" db:"net_amount"`
}

// ClassifyPdf derives the document expectation for a transaction.
// Sales and expenses always require a receipt; cash movements and bank
// transactions never carry one.
func ClassifyPdf(txType TransactionType, hasPdf bool, documentID *string) (PdfStatus, PdfRequirement) {
	switch txType {
	case TypeCashMovement, TypeBankTransaction:
		return PdfNotNeeded, PdfNotApplicable
	case TypeSale, TypeExpense:
		if hasPdf || documentID != nil {
			return PdfAvailable, PdfRequired
		}
		return PdfMissing, PdfRequired
	default:
		return PdfNotNeeded, PdfOptional
	}
}

// SearchQuery carries every filter the unified view supports. Zero
// values mean "no filter"; amount pointers distinguish 0 from unset.
type SearchQuery struct {
	ReceiptNumber string
	Description   string

	ExactAmount *decimal.Decimal
	AmountFrom  *decimal.Decimal
	AmountTo    *decimal.Decimal

	DateFrom string
	DateTo   string

	TransactionTypes []TransactionType
	TypeCodes        []TypeCode
	PaymentMethods   []PaymentMethod
	Statuses         []TransactionStatus
	BankingStatuses  []BankingStatus

	HasPdf *bool

	Limit  int
	Offset int
}

type SortField string

const (
	SortByDate          SortField = "transaction_date"
	SortByAmount        SortField = "amount"
	SortByReceiptNumber SortField = "receipt_number"
	SortByTypeCode      SortField = "type_code"
)

type Sort struct {
	Field     SortField
	Ascending bool
}

func DefaultSort() Sort {
	return Sort{Field: SortByDate, Ascending: false}
}

func ValidSortField(f SortField) bool {
	switch f {
	case SortByDate, SortByAmount, SortByReceiptNumber, SortByTypeCode:
		return true
	}
	return false
}

// PdfStats is the business-aware document summary for a result set.
type PdfStats struct {
	Available     int `json:"available"`
	Missing       int `json:"missing"`
	NotNeeded     int `json:"not_needed"`
	Generating    int `json:"generating"`
	TotalRequired int `json:"total_required"`
}

type TransactionStats struct {
	Total        int                                 `json:"total"`
	ByType       map[TransactionType]int             `json:"by_type"`
	ByStatus     map[string]int                      `json:"by_status"`
	PdfStats     PdfStats                            `json:"pdf_stats"`
	WithPdf      int                                 `json:"with_pdf"`
	WithoutPdf   int                                 `json:"without_pdf"`
	TotalAmount  decimal.Decimal                     `json:"total_amount"`
	AmountByType map[TransactionType]decimal.Decimal `json:"amount_by_type"`
}

// QuickFilterPreset names the canned filters of the reconciliation view.
type QuickFilterPreset string

const (
	PresetToday             QuickFilterPreset = "today"
	PresetThisWeek          QuickFilterPreset = "this_week"
	PresetThisMonth         QuickFilterPreset = "this_month"
	PresetLastMonth         QuickFilterPreset = "last_month"
	PresetWithPdf           QuickFilterPreset = "with_pdf"
	PresetWithoutPdf        QuickFilterPreset = "without_pdf"
	PresetSalesOnly         QuickFilterPreset = "sales_only"
	PresetExpensesOnly      QuickFilterPreset = "expenses_only"
	PresetCashMovementsOnly QuickFilterPreset = "cash_movements_only"
	PresetBankOnly          QuickFilterPreset = "bank_transactions_only"
	PresetCashOnly          QuickFilterPreset = "cash_only"
	PresetUnmatchedOnly     QuickFilterPreset = "unmatched_only"
	PresetMatchedOnly       QuickFilterPreset = "matched_only"
)
