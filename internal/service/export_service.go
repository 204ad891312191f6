package service

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"pos-backoffice/internal/domain"
	"pos-backoffice/pkg/apperrors"
	"pos-backoffice/pkg/logger"
)

// ExportFormat selects the output encoding of a transaction export.
type ExportFormat string

const (
	FormatCSV   ExportFormat = "csv"
	FormatExcel ExportFormat = "xlsx"
)

// DocumentResolver yields signed document URLs, warming them in
// batches ahead of the per-document lookups. Satisfied by
// documents.Cache.
type DocumentResolver interface {
	Warm(documentIDs []string)
	Resolve(documentID string) (string, error)
}

// DocumentFetcher downloads the content behind a resolved URL.
type DocumentFetcher interface {
	Fetch(url string) ([]byte, error)
}

// ExportService renders transaction result sets as CSV, Excel or a ZIP
// bundle of receipts.
type ExportService struct {
	resolver DocumentResolver
	fetcher  DocumentFetcher
	log      *logrus.Logger
}

func NewExportService(resolver DocumentResolver, fetcher DocumentFetcher) *ExportService {
	return &ExportService{resolver: resolver, fetcher: fetcher, log: logger.GetLogger()}
}

var exportHeaders = []string{
	"Beleg-Nr", "Datum", "Zeit", "Typ", "Beschreibung",
	"Betrag", "Zahlungsmethode", "Status", "Banking-Status", "PDF",
}

func exportRow(tx domain.UnifiedTransaction) []string {
	receipt := ""
	if tx.ReceiptNumber != nil {
		receipt = *tx.ReceiptNumber
	}
	banking := ""
	if tx.BankingStatus != nil {
		banking = string(*tx.BankingStatus)
	}
	return []string{
		receipt,
		tx.DateOnly,
		tx.TimeOnly,
		string(tx.TypeCode),
		tx.Description,
		tx.Amount.StringFixed(2),
		string(tx.PaymentMethod),
		string(tx.Status),
		banking,
		string(tx.PdfStatus),
	}
}

// Export renders the transactions in the requested format.
func (s *ExportService) Export(transactions []domain.UnifiedTransaction, format ExportFormat) ([]byte, string, error) {
	switch format {
	case FormatCSV:
		data, err := s.exportCSV(transactions)
		return data, "transaktionen.csv", err
	case FormatExcel:
		data, err := s.exportExcel(transactions)
		return data, "transaktionen.xlsx", err
	default:
		return nil, "", fmt.Errorf("unsupported export format: %s", format)
	}
}

func (s *ExportService) exportCSV(transactions []domain.UnifiedTransaction) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(exportHeaders); err != nil {
		return nil, err
	}
	for _, tx := range transactions {
		if err := writer.Write(exportRow(tx)); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ExportService) exportExcel(transactions []domain.UnifiedTransaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Transaktionen"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for row, tx := range transactions {
		for col, value := range exportRow(tx) {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PdfBundle zips the receipts of every transaction that has a document.
// URLs are warmed through the document cache first, then fetched one by
// one. Transactions without a document are skipped and reported back so
// the caller can show what is missing from the bundle.
func (s *ExportService) PdfBundle(transactions []domain.UnifiedTransaction) ([]byte, []string, error) {
	var documentIDs []string
	for _, tx := range transactions {
		if tx.DocumentID != nil {
			documentIDs = append(documentIDs, *tx.DocumentID)
		}
	}
	if len(documentIDs) > 0 {
		s.resolver.Warm(documentIDs)
	}

	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)

	var skipped []string
	bundled := 0

	for _, tx := range transactions {
		if tx.DocumentID == nil {
			skipped = append(skipped, bundleName(tx))
			continue
		}
		url, err := s.resolver.Resolve(*tx.DocumentID)
		if err != nil {
			s.log.WithError(err).WithField("document_id", *tx.DocumentID).
				Warn("Failed to resolve document URL for bundle")
			skipped = append(skipped, bundleName(tx))
			continue
		}
		content, err := s.fetcher.Fetch(url)
		if err != nil {
			s.log.WithError(err).WithField("document_id", *tx.DocumentID).
				Warn("Failed to download document for bundle")
			skipped = append(skipped, bundleName(tx))
			continue
		}

		entry, err := archive.Create(bundleName(tx) + ".pdf")
		if err != nil {
			return nil, nil, apperrors.Wrap(err, apperrors.CategoryInternal, "failed to create bundle entry")
		}
		if _, err := entry.Write(content); err != nil {
			return nil, nil, apperrors.Wrap(err, apperrors.CategoryInternal, "failed to write bundle entry")
		}
		bundled++
	}

	if err := archive.Close(); err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CategoryInternal, "failed to finalize bundle")
	}
	if bundled == 0 {
		return nil, skipped, fmt.Errorf("no documents available for the selected transactions")
	}
	return buf.Bytes(), skipped, nil
}

func bundleName(tx domain.UnifiedTransaction) string {
	if tx.ReceiptNumber != nil && *tx.ReceiptNumber != "" {
		return *tx.ReceiptNumber
	}
	return fmt.Sprintf("%s_%s", tx.TypeCode, tx.ID)
}
