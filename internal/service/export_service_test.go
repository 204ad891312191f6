package service

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pos-backoffice/internal/domain"
)

type fakeResolver struct {
	warmed []string
	fail   map[string]bool
}

func (f *fakeResolver) Warm(documentIDs []string) {
	f.warmed = append(f.warmed, documentIDs...)
}

func (f *fakeResolver) Resolve(documentID string) (string, error) {
	if f.fail[documentID] {
		return "", fmt.Errorf("storage unavailable")
	}
	return "https://storage.local/" + documentID, nil
}

type fakeFetcher struct {
	fail map[string]bool
}

func (f *fakeFetcher) Fetch(url string) ([]byte, error) {
	if f.fail[url] {
		return nil, fmt.Errorf("download failed")
	}
	return []byte("%PDF-1.4 " + url), nil
}

func exportSample() []domain.UnifiedTransaction {
	receipt := "VK2024-0001"
	doc := "doc-1"
	tx := sampleTransactions()
	tx[0].ReceiptNumber = &receipt
	tx[0].DocumentID = &doc
	return tx
}

func TestExportCSV(t *testing.T) {
	svc := NewExportService(&fakeResolver{}, &fakeFetcher{})

	data, filename, err := svc.Export(exportSample(), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "transaktionen.csv", filename)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5, "header plus four rows")
	assert.Equal(t, "Beleg-Nr", records[0][0])
	assert.Equal(t, "VK2024-0001", records[1][0])
	assert.Equal(t, "65.00", records[1][5])
}

func TestExportExcel(t *testing.T) {
	svc := NewExportService(&fakeResolver{}, &fakeFetcher{})

	data, filename, err := svc.Export(exportSample(), FormatExcel)
	require.NoError(t, err)
	assert.Equal(t, "transaktionen.xlsx", filename)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	value, err := f.GetCellValue("Transaktionen", "A2")
	require.NoError(t, err)
	assert.Equal(t, "VK2024-0001", value)
}

func TestExportUnknownFormat(t *testing.T) {
	svc := NewExportService(&fakeResolver{}, &fakeFetcher{})
	_, _, err := svc.Export(exportSample(), ExportFormat("pdf"))
	assert.Error(t, err)
}

func TestPdfBundle(t *testing.T) {
	resolver := &fakeResolver{}
	svc := NewExportService(resolver, &fakeFetcher{})

	transactions := exportSample()
	data, skipped, err := svc.PdfBundle(transactions)
	require.NoError(t, err)
	// Only t1 and t4 carry documents.
	assert.Len(t, skipped, 2)
	assert.ElementsMatch(t, []string{"doc-1", "doc-2"}, resolver.warmed,
		"bundle must warm the URL cache before fetching")

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, reader.File, 2)
	assert.Equal(t, "VK2024-0001.pdf", reader.File[0].Name)
}

func TestPdfBundleSkipsFailedResolves(t *testing.T) {
	resolver := &fakeResolver{fail: map[string]bool{"doc-2": true}}
	svc := NewExportService(resolver, &fakeFetcher{})

	data, skipped, err := svc.PdfBundle(exportSample())
	require.NoError(t, err)
	assert.Len(t, skipped, 3)

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Len(t, reader.File, 1)
}

func TestPdfBundleSkipsFailedDownloads(t *testing.T) {
	fetcher := &fakeFetcher{fail: map[string]bool{"https://storage.local/doc-2": true}}
	svc := NewExportService(&fakeResolver{}, fetcher)

	data, skipped, err := svc.PdfBundle(exportSample())
	require.NoError(t, err)
	assert.Len(t, skipped, 3)

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Len(t, reader.File, 1)
}

func TestPdfBundleNothingAvailable(t *testing.T) {
	resolver := &fakeResolver{fail: map[string]bool{"doc-1": true, "doc-2": true}}
	svc := NewExportService(resolver, &fakeFetcher{})

	_, skipped, err := svc.PdfBundle(exportSample())
	require.Error(t, err)
	assert.Len(t, skipped, 4)
}
