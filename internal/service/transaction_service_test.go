package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-backoffice/internal/documents"
	"pos-backoffice/internal/domain"
)

type fakeReader struct {
	transactions []domain.UnifiedTransaction
	lastQuery    domain.SearchQuery
}

func (f *fakeReader) Search(query domain.SearchQuery, sort domain.Sort) ([]domain.UnifiedTransaction, error) {
	f.lastQuery = query
	return f.transactions, nil
}

func (f *fakeReader) GetByID(id string) (*domain.UnifiedTransaction, error) {
	for i := range f.transactions {
		if f.transactions[i].ID == id {
			tx := f.transactions[i]
			return &tx, nil
		}
	}
	return nil, nil
}

type fakeWriter struct {
	saleID     string
	customerID *string
	calls      int
	err        error
}

func (f *fakeWriter) SetSaleCustomer(saleID string, customerID *string) error {
	f.saleID = saleID
	f.customerID = customerID
	f.calls++
	return f.err
}

type fakeDocCache struct {
	generating map[string]bool
	marked     []string
}

func (f *fakeDocCache) IsGenerating(documentID string) bool { return f.generating[documentID] }

func (f *fakeDocCache) MarkGenerating(documentID string) {
	f.marked = append(f.marked, documentID)
	if f.generating == nil {
		f.generating = make(map[string]bool)
	}
	f.generating[documentID] = true
}

func sampleTransactions() []domain.UnifiedTransaction {
	doc1, doc2 := "doc-1", "doc-2"
	return []domain.UnifiedTransaction{
		{ID: "t1", TransactionType: domain.TypeSale, TypeCode: domain.CodeSale,
			Amount: decimal.NewFromInt(65), Status: domain.StatusCompleted,
			HasPdf: true, DocumentID: &doc1},
		{ID: "t2", TransactionType: domain.TypeExpense, TypeCode: domain.CodeExpense,
			Amount: decimal.NewFromInt(150), Status: domain.StatusCompleted},
		{ID: "t3", TransactionType: domain.TypeCashMovement, TypeCode: domain.CodeCashMovement,
			Amount: decimal.NewFromInt(65), Status: domain.StatusCompleted},
		{ID: "t4", TransactionType: domain.TypeSale, TypeCode: domain.CodeSale,
			Amount: decimal.NewFromInt(80), Status: domain.StatusCompleted,
			DocumentID: &doc2},
	}
}

func TestSearchClassifiesPdf(t *testing.T) {
	reader := &fakeReader{transactions: sampleTransactions()}
	svc := NewTransactionService(reader, &fakeWriter{}, &fakeDocCache{generating: map[string]bool{"doc-2": true}})

	result, err := svc.Search(domain.SearchQuery{}, domain.DefaultSort())
	require.NoError(t, err)
	require.Len(t, result, 4)

	assert.Equal(t, domain.PdfAvailable, result[0].PdfStatus)
	assert.Equal(t, domain.PdfRequired, result[0].PdfRequirement)

	assert.Equal(t, domain.PdfMissing, result[1].PdfStatus)

	assert.Equal(t, domain.PdfNotNeeded, result[2].PdfStatus)
	assert.Equal(t, domain.PdfNotApplicable, result[2].PdfRequirement)

	// doc-2 is mid-generation, overriding the raw classification.
	assert.Equal(t, domain.PdfGenerating, result[3].PdfStatus)
}

func TestGetByID(t *testing.T) {
	reader := &fakeReader{transactions: sampleTransactions()}
	svc := NewTransactionService(reader, &fakeWriter{}, nil)

	tx, err := svc.GetByID("t2")
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, domain.PdfMissing, tx.PdfStatus)

	tx, err = svc.GetByID("missing")
	require.NoError(t, err)
	assert.Nil(t, tx)
}

func TestStats(t *testing.T) {
	reader := &fakeReader{transactions: sampleTransactions()}
	svc := NewTransactionService(reader, &fakeWriter{}, &fakeDocCache{generating: map[string]bool{"doc-2": true}})

	stats, err := svc.Stats(domain.SearchQuery{Limit: 10, Offset: 20})
	require.NoError(t, err)

	assert.Zero(t, reader.lastQuery.Limit, "stats ignore paging")
	assert.Zero(t, reader.lastQuery.Offset)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.ByType[domain.TypeSale])
	assert.Equal(t, 1, stats.ByType[domain.TypeExpense])
	assert.True(t, decimal.NewFromInt(360).Equal(stats.TotalAmount))
	assert.True(t, decimal.NewFromInt(145).Equal(stats.AmountByType[domain.TypeSale]))

	assert.Equal(t, 1, stats.PdfStats.Available)
	assert.Equal(t, 1, stats.PdfStats.Missing)
	assert.Equal(t, 1, stats.PdfStats.Generating)
	assert.Equal(t, 1, stats.PdfStats.NotNeeded)
	assert.Equal(t, 3, stats.PdfStats.TotalRequired)
	assert.Equal(t, 1, stats.WithPdf)
	assert.Equal(t, 3, stats.WithoutPdf)
}

func TestAssignCustomerSafe(t *testing.T) {
	// t4 is a sale with a receipt but no customer yet.
	reader := &fakeReader{transactions: sampleTransactions()}
	writer := &fakeWriter{}
	cache := &fakeDocCache{}
	svc := NewTransactionService(reader, writer, cache)

	customer := "c1"
	tx, decision, err := svc.AssignCustomer("t4", &customer, false)
	require.NoError(t, err)
	assert.Equal(t, documents.RegenSafe, decision)

	assert.Equal(t, "t4", writer.saleID)
	require.NotNil(t, writer.customerID)
	assert.Equal(t, "c1", *writer.customerID)

	assert.Equal(t, []string{"doc-2"}, cache.marked,
		"existing receipt must be flagged for regeneration")
	assert.Equal(t, domain.PdfGenerating, tx.PdfStatus)
}

func TestAssignCustomerNoOp(t *testing.T) {
	customer := "c1"
	doc := "doc-9"
	reader := &fakeReader{transactions: []domain.UnifiedTransaction{
		{ID: "s1", TransactionType: domain.TypeSale, TypeCode: domain.CodeSale,
			Amount: decimal.NewFromInt(65), Status: domain.StatusCompleted,
			CustomerID: &customer, DocumentID: &doc, HasPdf: true},
	}}
	writer := &fakeWriter{}
	cache := &fakeDocCache{}
	svc := NewTransactionService(reader, writer, cache)

	same := "c1"
	tx, decision, err := svc.AssignCustomer("s1", &same, false)
	require.NoError(t, err)
	assert.Equal(t, documents.RegenNoOp, decision)
	assert.Zero(t, writer.calls, "unchanged assignment must not write")
	assert.Empty(t, cache.marked)
	assert.Equal(t, domain.PdfAvailable, tx.PdfStatus)
}

func TestAssignCustomerUnsafeNeedsConfirmation(t *testing.T) {
	customer := "c1"
	doc := "doc-9"
	reader := &fakeReader{transactions: []domain.UnifiedTransaction{
		{ID: "s1", TransactionType: domain.TypeSale, TypeCode: domain.CodeSale,
			Amount: decimal.NewFromInt(65), Status: domain.StatusCompleted,
			CustomerID: &customer, DocumentID: &doc, HasPdf: true},
	}}
	writer := &fakeWriter{}
	cache := &fakeDocCache{}
	svc := NewTransactionService(reader, writer, cache)

	other := "c2"
	_, decision, err := svc.AssignCustomer("s1", &other, false)
	require.ErrorIs(t, err, ErrRegenConfirmationRequired)
	assert.Equal(t, documents.RegenUnsafe, decision)
	assert.Zero(t, writer.calls)

	tx, decision, err := svc.AssignCustomer("s1", &other, true)
	require.NoError(t, err)
	assert.Equal(t, documents.RegenUnsafe, decision)
	assert.Equal(t, 1, writer.calls)
	assert.Equal(t, []string{"doc-9"}, cache.marked)
	require.NotNil(t, tx.CustomerID)
	assert.Equal(t, "c2", *tx.CustomerID)
}

func TestAssignCustomerRejectsNonSales(t *testing.T) {
	reader := &fakeReader{transactions: sampleTransactions()}
	svc := NewTransactionService(reader, &fakeWriter{}, &fakeDocCache{})

	customer := "c1"
	_, _, err := svc.AssignCustomer("t2", &customer, false)
	assert.Error(t, err, "t2 is an expense")

	tx, _, err := svc.AssignCustomer("missing", &customer, false)
	require.NoError(t, err)
	assert.Nil(t, tx)
}

func TestApplyPresetDates(t *testing.T) {
	// Wednesday 2026-08-26.
	now := time.Date(2026, 8, 26, 15, 0, 0, 0, time.UTC)

	q, err := ApplyPreset(domain.SearchQuery{}, domain.PresetToday, now)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-26", q.DateFrom)
	assert.Equal(t, "2026-08-26", q.DateTo)

	q, err = ApplyPreset(domain.SearchQuery{}, domain.PresetThisWeek, now)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-24", q.DateFrom, "week starts Monday")

	q, err = ApplyPreset(domain.SearchQuery{}, domain.PresetThisMonth, now)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-01", q.DateFrom)

	q, err = ApplyPreset(domain.SearchQuery{}, domain.PresetLastMonth, now)
	require.NoError(t, err)
	assert.Equal(t, "2026-07-01", q.DateFrom)
	assert.Equal(t, "2026-07-31", q.DateTo)
}

func TestApplyPresetSundayWeek(t *testing.T) {
	// Sunday belongs to the week starting the previous Monday.
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	q, err := ApplyPreset(domain.SearchQuery{}, domain.PresetThisWeek, now)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-24", q.DateFrom)
}

func TestApplyPresetFilters(t *testing.T) {
	q, err := ApplyPreset(domain.SearchQuery{}, domain.PresetWithoutPdf, time.Now())
	require.NoError(t, err)
	require.NotNil(t, q.HasPdf)
	assert.False(t, *q.HasPdf)

	q, err = ApplyPreset(domain.SearchQuery{}, domain.PresetSalesOnly, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []domain.TransactionType{domain.TypeSale}, q.TransactionTypes)

	q, err = ApplyPreset(domain.SearchQuery{}, domain.PresetUnmatchedOnly, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []domain.BankingStatus{domain.BankingUnmatched}, q.BankingStatuses)

	_, err = ApplyPreset(domain.SearchQuery{}, domain.QuickFilterPreset("unknown"), time.Now())
	assert.Error(t, err)
}
