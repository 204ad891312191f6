package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"pos-backoffice/internal/domain"
	"pos-backoffice/pkg/apperrors"
	"pos-backoffice/pkg/logger"
)

// ImportRepository persists the typed import batches. Every bulk method
// runs inside its own transaction with a prepared statement; duplicates
// are skipped via ON CONFLICT so re-running an import is harmless.
type ImportRepository struct {
	db *sql.DB
}

func NewImportRepository(db *sql.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

// BulkCreateItems inserts items, skipping names that already exist.
// Returns the number of rows actually inserted.
func (r *ImportRepository) BulkCreateItems(items []domain.ItemImport) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, apperrors.PersistenceError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO items (name, default_price, type, is_favorite, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO NOTHING`)
	if err != nil {
		return 0, apperrors.PersistenceError(err, "failed to prepare item insert")
	}
	defer stmt.Close()

	inserted := 0
	for _, item := range items {
		result, err := stmt.Exec(item.Name, item.DefaultPrice, item.Type, item.IsFavorite, item.Active)
		if err != nil {
			return 0, apperrors.PersistenceError(err, "failed to insert item '%s'", item.Name)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.PersistenceError(err, "failed to commit item insert")
	}

	logger.GetLogger().WithField("count", inserted).Info("Items imported")
	return inserted, nil
}

// BulkCreateSuppliers inserts suppliers, skipping duplicates by
// normalized name.
func (r *ImportRepository) BulkCreateSuppliers(suppliers []domain.SupplierImport) (int, error) {
	if len(suppliers) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, apperrors.PersistenceError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO suppliers (
			name, normalized_name, category, contact_email, contact_phone, website,
			address_line1, address_line2, city, postal_code, country,
			iban, vat_number, is_active, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (normalized_name) DO NOTHING`)
	if err != nil {
		return 0, apperrors.PersistenceError(err, "failed to prepare supplier insert")
	}
	defer stmt.Close()

	inserted := 0
	for _, s := range suppliers {
		result, err := stmt.Exec(
			s.Name, normalizeName(s.Name), s.Category,
			nullString(s.ContactEmail), nullString(s.ContactPhone), nullString(s.Website),
			nullString(s.AddressLine1), nullString(s.AddressLine2), nullString(s.City),
			nullString(s.PostalCode), s.Country,
			nullString(s.IBAN), nullString(s.VATNumber), s.IsActive, nullString(s.Notes),
		)
		if err != nil {
			return 0, apperrors.PersistenceError(err, "failed to insert supplier '%s'", s.Name)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.PersistenceError(err, "failed to commit supplier insert")
	}
	return inserted, nil
}

// BulkCreateUsers inserts users, skipping existing usernames and emails.
func (r *ImportRepository) BulkCreateUsers(users []domain.UserImport) (int, error) {
	if len(users) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, apperrors.PersistenceError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO users (name, username, email, role, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (username) DO NOTHING`)
	if err != nil {
		return 0, apperrors.PersistenceError(err, "failed to prepare user insert")
	}
	defer stmt.Close()

	inserted := 0
	for _, u := range users {
		result, err := stmt.Exec(u.Name, u.Username, strings.ToLower(u.Email), u.Role, u.Active)
		if err != nil {
			return 0, apperrors.PersistenceError(err, "failed to insert user '%s'", u.Username)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.PersistenceError(err, "failed to commit user insert")
	}
	return inserted, nil
}

// BulkCreateBankAccounts inserts bank accounts, skipping duplicates by
// IBAN where one is present and by name otherwise.
func (r *ImportRepository) BulkCreateBankAccounts(accounts []domain.BankAccountImport) (int, error) {
	if len(accounts) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, apperrors.PersistenceError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO bank_accounts (name, bank_name, iban, account_number, current_balance, is_active, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO NOTHING`)
	if err != nil {
		return 0, apperrors.PersistenceError(err, "failed to prepare bank account insert")
	}
	defer stmt.Close()

	inserted := 0
	for _, a := range accounts {
		result, err := stmt.Exec(
			a.Name, a.BankName, nullString(a.IBAN), nullString(a.AccountNumber),
			a.CurrentBalance, a.IsActive, nullString(a.Notes),
		)
		if err != nil {
			return 0, apperrors.PersistenceError(err, "failed to insert bank account '%s'", a.Name)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.PersistenceError(err, "failed to commit bank account insert")
	}
	return inserted, nil
}

// BulkCreateOwnerTransactions inserts owner transactions. There is no
// natural key, so duplicates are not filtered here.
func (r *ImportRepository) BulkCreateOwnerTransactions(transactions []domain.OwnerTransactionImport) (int, error) {
	if len(transactions) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, apperrors.PersistenceError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO owner_transactions (
			transaction_type, amount, description, transaction_date,
			payment_method, banking_status, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return 0, apperrors.PersistenceError(err, "failed to prepare owner transaction insert")
	}
	defer stmt.Close()

	for _, t := range transactions {
		if _, err := stmt.Exec(
			t.TransactionType, t.Amount, t.Description, t.TransactionDate,
			t.PaymentMethod, t.BankingStatus, nullString(t.Notes),
		); err != nil {
			return 0, apperrors.PersistenceError(err, "failed to insert owner transaction '%s'", t.Description)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.PersistenceError(err, "failed to commit owner transaction insert")
	}
	return len(transactions), nil
}

// BulkCreateExpenses inserts expenses and returns the new row IDs in
// input order, for cash movement generation and placeholder receipts.
func (r *ImportRepository) BulkCreateExpenses(expenses []domain.ExpenseImport) ([]string, error) {
	if len(expenses) == 0 {
		return nil, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, apperrors.PersistenceError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO expenses (
			payment_date, amount, description, category, payment_method,
			supplier_name, invoice_number, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`)
	if err != nil {
		return nil, apperrors.PersistenceError(err, "failed to prepare expense insert")
	}
	defer stmt.Close()

	ids := make([]string, 0, len(expenses))
	for _, e := range expenses {
		var id string
		err := stmt.QueryRow(
			e.Date, e.Amount, e.Description, e.Category, e.PaymentMethod,
			nullString(e.SupplierName), nullString(e.InvoiceNumber), nullString(e.Notes),
		).Scan(&id)
		if err != nil {
			return nil, apperrors.PersistenceError(err, "failed to insert expense '%s'", e.Description)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.PersistenceError(err, "failed to commit expense insert")
	}
	return ids, nil
}

// ResolveItemIDs maps item names to their IDs. Lookup is
// case-insensitive; a name that resolves to nothing is an error because
// the sale phase depends on it.
func (r *ImportRepository) ResolveItemIDs(names []string) (map[string]string, error) {
	if len(names) == 0 {
		return map[string]string{}, nil
	}

	lowered := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if !seen[key] {
			seen[key] = true
			lowered = append(lowered, key)
		}
	}

	rows, err := r.db.Query(
		`SELECT id, name FROM items WHERE LOWER(name) = ANY($1)`,
		pq.Array(lowered),
	)
	if err != nil {
		return nil, apperrors.PersistenceError(err, "failed to resolve item names")
	}
	defer rows.Close()

	resolved := make(map[string]string, len(lowered))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, apperrors.PersistenceError(err, "failed to scan item row")
		}
		resolved[strings.ToLower(name)] = id
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.PersistenceError(err, "failed to iterate item rows")
	}

	for _, key := range lowered {
		if _, ok := resolved[key]; !ok {
			return nil, apperrors.PersistenceError(
				fmt.Errorf("item not found: %s", key),
				"sale references unknown item '%s', import items first", key,
			)
		}
	}
	return resolved, nil
}

// CreateSale inserts one sale with its line items and returns the sale
// ID. itemIDs must contain every lowercased item name of the sale.
func (r *ImportRepository) CreateSale(sale domain.SaleImport, itemIDs map[string]string) (string, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return "", apperrors.PersistenceError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var saleID string
	err = tx.QueryRow(`
		INSERT INTO sales (sale_date, sale_time, total_amount, payment_method, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		sale.Date, sale.Time, sale.TotalAmount, sale.PaymentMethod, sale.Status, nullString(sale.Notes),
	).Scan(&saleID)
	if err != nil {
		return "", apperrors.PersistenceError(err, "failed to insert sale on %s", sale.Date)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO sale_items (sale_id, item_id, price, notes)
		VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return "", apperrors.PersistenceError(err, "failed to prepare sale item insert")
	}
	defer stmt.Close()

	for _, item := range sale.Items {
		itemID, ok := itemIDs[strings.ToLower(item.ItemName)]
		if !ok {
			return "", apperrors.PersistenceError(
				fmt.Errorf("item not resolved: %s", item.ItemName),
				"sale item '%s' was not resolved to an item ID", item.ItemName,
			)
		}
		if _, err := stmt.Exec(saleID, itemID, item.Price, nullString(item.Notes)); err != nil {
			return "", apperrors.PersistenceError(err, "failed to insert sale item '%s'", item.ItemName)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", apperrors.PersistenceError(err, "failed to commit sale insert")
	}
	return saleID, nil
}

// BulkCreateCashMovements inserts the derived cash ledger entries.
func (r *ImportRepository) BulkCreateCashMovements(movements []domain.CashMovementImport) (int, error) {
	if len(movements) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, apperrors.PersistenceError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO cash_movements (movement_date, type, amount, description, reference_type, reference_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (reference_type, reference_id) DO NOTHING`)
	if err != nil {
		return 0, apperrors.PersistenceError(err, "failed to prepare cash movement insert")
	}
	defer stmt.Close()

	inserted := 0
	for _, m := range movements {
		result, err := stmt.Exec(m.Date, m.Type, m.Amount, m.Description, m.ReferenceType, m.ReferenceID)
		if err != nil {
			return 0, apperrors.PersistenceError(err, "failed to insert cash movement for %s", m.ReferenceID)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.PersistenceError(err, "failed to commit cash movement insert")
	}
	return inserted, nil
}

// CalculateDailySummary invokes the backend summary function for one
// date. The function is idempotent on the backend side.
func (r *ImportRepository) CalculateDailySummary(date string) error {
	if _, err := r.db.Exec(`SELECT calculate_daily_summary($1)`, date); err != nil {
		return apperrors.PersistenceError(err, "failed to calculate daily summary for %s", date)
	}
	return nil
}

// CreatePlaceholderReceipts creates placeholder document rows for
// imported sales or expenses that have no PDF yet. Returns how many
// were created; rows that already have a document are skipped.
func (r *ImportRepository) CreatePlaceholderReceipts(referenceType string, referenceIDs []string) (int, error) {
	if len(referenceIDs) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, apperrors.PersistenceError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO documents (reference_type, reference_id, status)
		VALUES ($1, $2, 'placeholder')
		ON CONFLICT (reference_type, reference_id) DO NOTHING`)
	if err != nil {
		return 0, apperrors.PersistenceError(err, "failed to prepare placeholder receipt insert")
	}
	defer stmt.Close()

	created := 0
	for _, id := range referenceIDs {
		result, err := stmt.Exec(referenceType, id)
		if err != nil {
			return 0, apperrors.PersistenceError(err, "failed to create placeholder receipt for %s", id)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			created++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.PersistenceError(err, "failed to commit placeholder receipts")
	}
	return created, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func nullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
