package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"pos-backoffice/internal/domain"
	"pos-backoffice/pkg/apperrors"
)

// TransactionRepository reads the unified_transactions_view. The view
// is maintained by the backend; this repository only filters, sorts and
// pages it.
type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `
	id, transaction_type, type_code, receipt_number, transaction_date,
	amount, payment_method, status, user_id, description,
	customer_id, customer_name, document_id, has_pdf, banking_status,
	date_only, time_only, provider_fee, net_amount`

// Search runs one filtered query against the view. Every filter is
// pushed down as a parameterized predicate; nothing is filtered
// client-side except the derived PDF classification.
func (r *TransactionRepository) Search(query domain.SearchQuery, sort domain.Sort) ([]domain.UnifiedTransaction, error) {
	where, args := buildPredicates(query)

	sb := strings.Builder{}
	sb.WriteString("SELECT ")
	sb.WriteString(transactionColumns)
	sb.WriteString(" FROM unified_transactions_view")
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}

	if !domain.ValidSortField(sort.Field) {
		sort = domain.DefaultSort()
	}
	direction := "DESC"
	if sort.Ascending {
		direction = "ASC"
	}
	sb.WriteString(fmt.Sprintf(" ORDER BY %s %s", sort.Field, direction))

	if query.Limit > 0 {
		args = append(args, query.Limit)
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}
	if query.Offset > 0 {
		args = append(args, query.Offset)
		sb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
	}

	rows, err := r.db.Query(sb.String(), args...)
	if err != nil {
		return nil, apperrors.PersistenceError(err, "failed to query unified transactions")
	}
	defer rows.Close()

	var transactions []domain.UnifiedTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.PersistenceError(err, "failed to iterate unified transactions")
	}
	return transactions, nil
}

// GetByID fetches one row of the view.
func (r *TransactionRepository) GetByID(id string) (*domain.UnifiedTransaction, error) {
	row := r.db.QueryRow(
		"SELECT "+transactionColumns+" FROM unified_transactions_view WHERE id = $1", id)

	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// SetSaleCustomer updates the customer assignment of one sale. A nil
// customerID clears the assignment.
func (r *TransactionRepository) SetSaleCustomer(saleID string, customerID *string) error {
	result, err := r.db.Exec(`UPDATE sales SET customer_id = $2 WHERE id = $1`, saleID, customerID)
	if err != nil {
		return apperrors.PersistenceError(err, "failed to update customer of sale %s", saleID)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.PersistenceError(err, "failed to update customer of sale %s", saleID)
	}
	if affected == 0 {
		return apperrors.PersistenceError(sql.ErrNoRows, "sale %s not found", saleID)
	}
	return nil
}

func buildPredicates(q domain.SearchQuery) ([]string, []interface{}) {
	var where []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.ReceiptNumber != "" {
		where = append(where, "receipt_number ILIKE "+arg("%"+q.ReceiptNumber+"%"))
	}
	if q.Description != "" {
		where = append(where, "description ILIKE "+arg("%"+q.Description+"%"))
	}

	if q.ExactAmount != nil {
		where = append(where, "amount = "+arg(*q.ExactAmount))
	} else {
		if q.AmountFrom != nil {
			where = append(where, "amount >= "+arg(*q.AmountFrom))
		}
		if q.AmountTo != nil {
			where = append(where, "amount <= "+arg(*q.AmountTo))
		}
	}

	if q.DateFrom != "" {
		where = append(where, "date_only >= "+arg(q.DateFrom))
	}
	if q.DateTo != "" {
		where = append(where, "date_only <= "+arg(q.DateTo))
	}

	if len(q.TransactionTypes) > 0 {
		where = append(where, "transaction_type = ANY("+arg(pq.Array(stringify(q.TransactionTypes)))+")")
	}
	if len(q.TypeCodes) > 0 {
		where = append(where, "type_code = ANY("+arg(pq.Array(stringify(q.TypeCodes)))+")")
	}
	if len(q.PaymentMethods) > 0 {
		where = append(where, "payment_method = ANY("+arg(pq.Array(stringify(q.PaymentMethods)))+")")
	}
	if len(q.Statuses) > 0 {
		where = append(where, "status = ANY("+arg(pq.Array(stringify(q.Statuses)))+")")
	}
	if len(q.BankingStatuses) > 0 {
		where = append(where, "banking_status = ANY("+arg(pq.Array(stringify(q.BankingStatuses)))+")")
	}

	if q.HasPdf != nil {
		where = append(where, "has_pdf = "+arg(*q.HasPdf))
	}

	return where, args
}

func stringify[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*domain.UnifiedTransaction, error) {
	var tx domain.UnifiedTransaction
	var receiptNumber, customerID, customerName, documentID, bankingStatus sql.NullString
	var providerFee, netAmount sql.NullString

	err := row.Scan(
		&tx.ID, &tx.TransactionType, &tx.TypeCode, &receiptNumber, &tx.TransactionDate,
		&tx.Amount, &tx.PaymentMethod, &tx.Status, &tx.UserID, &tx.Description,
		&customerID, &customerName, &documentID, &tx.HasPdf, &bankingStatus,
		&tx.DateOnly, &tx.TimeOnly, &providerFee, &netAmount,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, apperrors.PersistenceError(err, "failed to scan unified transaction")
	}

	tx.ReceiptNumber = stringPtr(receiptNumber)
	tx.CustomerID = stringPtr(customerID)
	tx.CustomerName = stringPtr(customerName)
	tx.DocumentID = stringPtr(documentID)
	if bankingStatus.Valid {
		status := domain.BankingStatus(bankingStatus.String)
		tx.BankingStatus = &status
	}
	if providerFee.Valid {
		fee, err := decimal.NewFromString(providerFee.String)
		if err != nil {
			return nil, apperrors.PersistenceError(err, "invalid provider_fee for transaction %s", tx.ID)
		}
		tx.ProviderFee = &fee
	}
	if netAmount.Valid {
		net, err := decimal.NewFromString(netAmount.String)
		if err != nil {
			return nil, apperrors.PersistenceError(err, "invalid net_amount for transaction %s", tx.ID)
		}
		tx.NetAmount = &net
	}

	return &tx, nil
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
