package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPdf(t *testing.T) {
	docID := "d1"

	tests := []struct {
		name        string
		txType      TransactionType
		hasPdf      bool
		documentID  *string
		wantStatus  PdfStatus
		wantRequire PdfRequirement
	}{
		{"sale with pdf", TypeSale, true, &docID, PdfAvailable, PdfRequired},
		{"sale with document but no pdf flag", TypeSale, false, &docID, PdfAvailable, PdfRequired},
		{"sale without anything", TypeSale, false, nil, PdfMissing, PdfRequired},
		{"expense without anything", TypeExpense, false, nil, PdfMissing, PdfRequired},
		{"cash movement never needs one", TypeCashMovement, false, nil, PdfNotNeeded, PdfNotApplicable},
		{"bank transaction never needs one", TypeBankTransaction, true, &docID, PdfNotNeeded, PdfNotApplicable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, requirement := ClassifyPdf(tt.txType, tt.hasPdf, tt.documentID)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantRequire, requirement)
		})
	}
}

func TestValidImportType(t *testing.T) {
	assert.True(t, ValidImportType(ImportSales))
	assert.False(t, ValidImportType(ImportJSON), "the JSON result label is not a mapping target")
}

func TestImportResultSucceeded(t *testing.T) {
	assert.True(t, (&ImportResult{}).Succeeded())
	assert.False(t, (&ImportResult{FailedPhase: "sales"}).Succeeded())
	assert.False(t, (&ImportResult{Errors: []string{"x"}}).Succeeded())
}

func TestValidSortField(t *testing.T) {
	assert.True(t, ValidSortField(SortByAmount))
	assert.False(t, ValidSortField(SortField("user_id")))
}
