package importer

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"pos-backoffice/internal/domain"
	"pos-backoffice/pkg/apperrors"
)

// JSONEnvelope is the structured import format produced by the export
// side and by external tooling. Unlike CSV it can carry several entity
// batches in one document.
type JSONEnvelope struct {
	Version    string `json:"version,omitempty"`
	ExportedAt string `json:"exported_at,omitempty"`

	domain.ImportBatch
}

// DecodeJSON reads and validates a JSON import document. Validation is
// all-or-nothing like the CSV transformer: the first invalid record
// fails the whole decode.
func DecodeJSON(r io.Reader) (*domain.ImportBatch, error) {
	var envelope JSONEnvelope
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&envelope); err != nil {
		return nil, apperrors.ParseError("invalid JSON document: %v", err)
	}

	batch := &envelope.ImportBatch
	if batch.IsEmpty() {
		return nil, apperrors.ParseError("JSON document contains no importable records")
	}
	if err := validateBatch(batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func validateBatch(batch *domain.ImportBatch) error {
	for i, item := range batch.Items {
		if item.Name == "" {
			return batchError("items", i, "name is required")
		}
		if item.DefaultPrice.IsNegative() {
			return batchError("items", i, "default_price must not be negative")
		}
		if item.Type != "service" && item.Type != "product" {
			return batchError("items", i, fmt.Sprintf("type must be 'service' or 'product', got: %s", item.Type))
		}
	}

	for i, sale := range batch.Sales {
		if err := validateDateString(sale.Date); err != nil {
			return batchError("sales", i, err.Error())
		}
		if sale.TotalAmount.IsNegative() {
			return batchError("sales", i, "total_amount must not be negative")
		}
		if len(sale.Items) == 0 {
			return batchError("sales", i, "at least one item is required")
		}
		itemsTotal := decimal.Zero
		for j, item := range sale.Items {
			if item.ItemName == "" {
				return batchError("sales", i, fmt.Sprintf("item %d: item_name is required", j+1))
			}
			itemsTotal = itemsTotal.Add(item.Price)
		}
		if itemsTotal.Sub(sale.TotalAmount).Abs().GreaterThan(decimal.NewFromFloat(0.01)) {
			return batchError("sales", i, fmt.Sprintf("sum of item prices (%s) must equal total_amount (%s)", itemsTotal, sale.TotalAmount))
		}
	}

	for i, expense := range batch.Expenses {
		if err := validateDateString(expense.Date); err != nil {
			return batchError("expenses", i, err.Error())
		}
		if expense.Description == "" {
			return batchError("expenses", i, "description is required")
		}
		if expense.Amount.IsNegative() {
			return batchError("expenses", i, "amount must not be negative")
		}
	}

	for i, user := range batch.Users {
		if user.Name == "" || user.Username == "" {
			return batchError("users", i, "name and username are required")
		}
		if !emailPattern.MatchString(user.Email) {
			return batchError("users", i, fmt.Sprintf("invalid email format: %s", user.Email))
		}
	}

	for i, tx := range batch.OwnerTransactions {
		if err := validateDateString(tx.TransactionDate); err != nil {
			return batchError("owner_transactions", i, err.Error())
		}
		if tx.Description == "" {
			return batchError("owner_transactions", i, "description is required")
		}
	}

	for i, account := range batch.BankAccounts {
		if account.Name == "" || account.BankName == "" {
			return batchError("bank_accounts", i, "name and bank_name are required")
		}
	}

	for i, supplier := range batch.Suppliers {
		if supplier.Name == "" {
			return batchError("suppliers", i, "name is required")
		}
	}

	return nil
}

func validateDateString(date string) error {
	for _, pattern := range datePatterns {
		if pattern.MatchString(date) {
			return nil
		}
	}
	return fmt.Errorf("invalid date: %s", date)
}

func batchError(section string, index int, msg string) error {
	return apperrors.ParseError("%s[%d]: %s", section, index, msg)
}
