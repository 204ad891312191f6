package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-backoffice/internal/domain"
)

type fakeStore struct {
	failPhase string

	items         []domain.ItemImport
	sales         []domain.SaleImport
	expenses      []domain.ExpenseImport
	cashMovements []domain.CashMovementImport
	summaryDates  []string
	receipts      map[string][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{receipts: make(map[string][]string)}
}

func (f *fakeStore) fail(phase string) error {
	if f.failPhase == phase {
		return fmt.Errorf("forced failure in %s", phase)
	}
	return nil
}

func (f *fakeStore) BulkCreateItems(items []domain.ItemImport) (int, error) {
	if err := f.fail(PhaseItems); err != nil {
		return 0, err
	}
	f.items = items
	return len(items), nil
}

func (f *fakeStore) BulkCreateSuppliers(suppliers []domain.SupplierImport) (int, error) {
	return len(suppliers), f.fail(PhaseSuppliers)
}

func (f *fakeStore) BulkCreateUsers(users []domain.UserImport) (int, error) {
	return len(users), f.fail(PhaseUsers)
}

func (f *fakeStore) BulkCreateBankAccounts(accounts []domain.BankAccountImport) (int, error) {
	return len(accounts), f.fail(PhaseBankAccounts)
}

func (f *fakeStore) BulkCreateOwnerTransactions(transactions []domain.OwnerTransactionImport) (int, error) {
	return len(transactions), f.fail(PhaseOwnerTransactions)
}

func (f *fakeStore) BulkCreateExpenses(expenses []domain.ExpenseImport) ([]string, error) {
	if err := f.fail(PhaseExpenses); err != nil {
		return nil, err
	}
	f.expenses = expenses
	ids := make([]string, len(expenses))
	for i := range expenses {
		ids[i] = fmt.Sprintf("expense-%d", i+1)
	}
	return ids, nil
}

func (f *fakeStore) ResolveItemIDs(names []string) (map[string]string, error) {
	resolved := make(map[string]string, len(names))
	for i, name := range names {
		resolved[strings.ToLower(name)] = fmt.Sprintf("item-%d", i+1)
	}
	return resolved, nil
}

func (f *fakeStore) CreateSale(sale domain.SaleImport, itemIDs map[string]string) (string, error) {
	if err := f.fail(PhaseSales); err != nil {
		return "", err
	}
	f.sales = append(f.sales, sale)
	return fmt.Sprintf("sale-%d", len(f.sales)), nil
}

func (f *fakeStore) BulkCreateCashMovements(movements []domain.CashMovementImport) (int, error) {
	if err := f.fail(PhaseCashMovements); err != nil {
		return 0, err
	}
	f.cashMovements = movements
	return len(movements), nil
}

func (f *fakeStore) CalculateDailySummary(date string) error {
	if err := f.fail(PhaseDailySummaries); err != nil {
		return err
	}
	f.summaryDates = append(f.summaryDates, date)
	return nil
}

func (f *fakeStore) CreatePlaceholderReceipts(referenceType string, referenceIDs []string) (int, error) {
	if err := f.fail(PhaseReceipts); err != nil {
		return 0, err
	}
	f.receipts[referenceType] = referenceIDs
	return len(referenceIDs), nil
}

func sampleBatch() *domain.ImportBatch {
	return &domain.ImportBatch{
		Items: []domain.ItemImport{
			{Name: "Haarschnitt", DefaultPrice: decimal.NewFromInt(65), Type: "service", Active: true},
		},
		Sales: []domain.SaleImport{
			{
				Date: "2024-01-15", Time: "14:30", TotalAmount: decimal.NewFromInt(65),
				PaymentMethod: "cash", Status: "completed",
				Items: []domain.SaleItemImport{{ItemName: "Haarschnitt", Price: decimal.NewFromInt(65)}},
			},
			{
				Date: "2024-01-16", Time: "10:00", TotalAmount: decimal.NewFromInt(65),
				PaymentMethod: "twint", Status: "completed",
				Items: []domain.SaleItemImport{{ItemName: "Haarschnitt", Price: decimal.NewFromInt(65)}},
			},
		},
		Expenses: []domain.ExpenseImport{
			{Date: "2024-01-15", Amount: decimal.NewFromInt(50), Description: "Material",
				Category: "supplies", PaymentMethod: "cash"},
		},
	}
}

func TestRunFullPipeline(t *testing.T) {
	store := newFakeStore()
	svc := NewImportService(store)

	var phases []string
	result := svc.Run(sampleBatch(), domain.ImportSales, false, func(phase string, completed, total int) {
		if len(phases) == 0 || phases[len(phases)-1] != phase {
			phases = append(phases, phase)
		}
	})

	require.True(t, result.Succeeded(), "errors: %v", result.Errors)
	assert.NotEmpty(t, result.JobID)
	assert.Equal(t, 1, result.ItemsImported)
	assert.Equal(t, 2, result.SalesImported)
	assert.Equal(t, 1, result.ExpensesImported)

	// One cash sale and one cash expense.
	assert.Equal(t, 2, result.CashMovements)
	require.Len(t, store.cashMovements, 2)
	assert.Equal(t, "cash_in", store.cashMovements[0].Type)
	assert.Equal(t, "sale-1", store.cashMovements[0].ReferenceID)
	assert.Equal(t, "cash_out", store.cashMovements[1].Type)
	assert.Equal(t, "expense-1", store.cashMovements[1].ReferenceID)

	// Summaries for distinct sale dates only.
	assert.Equal(t, []string{"2024-01-15", "2024-01-16"}, store.summaryDates)

	// Placeholder receipts for persisted sales and expenses.
	assert.Equal(t, []string{"sale-1", "sale-2"}, store.receipts["sale"])
	assert.Equal(t, []string{"expense-1"}, store.receipts["expense"])

	assert.Equal(t, []string{
		PhaseItems, PhaseSales, PhaseExpenses,
		PhaseCashMovements, PhaseDailySummaries, PhaseReceipts,
	}, phases)
	assert.Equal(t, phases, result.CompletedPhases)
}

func TestRunPhaseOrderSkipsEmptyPhases(t *testing.T) {
	store := newFakeStore()
	svc := NewImportService(store)

	batch := &domain.ImportBatch{
		Users: []domain.UserImport{{Name: "Maria", Username: "maria", Email: "maria@salon.ch", Role: "staff"}},
	}
	result := svc.Run(batch, domain.ImportUsers, false, nil)

	require.True(t, result.Succeeded())
	assert.Equal(t, []string{PhaseUsers}, result.CompletedPhases)
	assert.Equal(t, 1, result.UsersImported)
	assert.Zero(t, result.CashMovements)
}

func TestRunPartialCommitOnFailure(t *testing.T) {
	store := newFakeStore()
	store.failPhase = PhaseExpenses
	svc := NewImportService(store)

	result := svc.Run(sampleBatch(), domain.ImportSales, false, nil)

	require.False(t, result.Succeeded())
	assert.Equal(t, PhaseExpenses, result.FailedPhase)
	// Earlier phases stay committed.
	assert.Equal(t, []string{PhaseItems, PhaseSales}, result.CompletedPhases)
	assert.Len(t, store.sales, 2, "sales are not rolled back")
	assert.Empty(t, store.cashMovements, "later phases never ran")
}

func TestRunValidateOnlyTouchesNothing(t *testing.T) {
	store := newFakeStore()
	svc := NewImportService(store)

	result := svc.Run(sampleBatch(), domain.ImportSales, true, nil)

	require.True(t, result.Succeeded())
	assert.True(t, result.ValidateOnly)
	assert.Equal(t, 2, result.SalesImported)
	assert.Equal(t, 2, result.CashMovements)
	assert.Equal(t, 2, result.DailySummaries)
	assert.Equal(t, 3, result.Receipts)

	assert.Empty(t, store.items)
	assert.Empty(t, store.sales)
	assert.Empty(t, store.expenses)
	assert.Empty(t, store.summaryDates)
}

func TestRunValidateOnlyWithNilStore(t *testing.T) {
	svc := NewImportService(nil)
	result := svc.Run(sampleBatch(), domain.ImportSales, true, nil)
	assert.True(t, result.Succeeded())
}
