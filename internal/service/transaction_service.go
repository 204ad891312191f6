package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pos-backoffice/internal/documents"
	"pos-backoffice/internal/domain"
	"pos-backoffice/pkg/logger"
)

// TransactionReader is the read surface over the unified view.
type TransactionReader interface {
	Search(query domain.SearchQuery, sort domain.Sort) ([]domain.UnifiedTransaction, error)
	GetByID(id string) (*domain.UnifiedTransaction, error)
}

// TransactionWriter mutates the source tables behind the unified view.
type TransactionWriter interface {
	SetSaleCustomer(saleID string, customerID *string) error
}

// DocumentStateCache tracks the pending state of receipt documents:
// transactions with an in-flight regeneration show "generating" instead
// of the raw classification.
type DocumentStateCache interface {
	IsGenerating(documentID string) bool
	MarkGenerating(documentID string)
}

// ErrRegenConfirmationRequired is returned when a customer change would
// replace a receipt naming a different customer and the caller did not
// confirm the regeneration.
var ErrRegenConfirmationRequired = errors.New("customer change replaces an existing receipt, confirmation required")

// TransactionService layers the derived PDF classification and the
// business stats on top of the raw view rows.
type TransactionService struct {
	reader TransactionReader
	writer TransactionWriter
	cache  DocumentStateCache
	log    *logrus.Logger
}

func NewTransactionService(reader TransactionReader, writer TransactionWriter, cache DocumentStateCache) *TransactionService {
	return &TransactionService{reader: reader, writer: writer, cache: cache, log: logger.GetLogger()}
}

// Search fetches matching transactions and annotates each with its
// derived PdfStatus and PdfRequirement.
func (s *TransactionService) Search(query domain.SearchQuery, sort domain.Sort) ([]domain.UnifiedTransaction, error) {
	transactions, err := s.reader.Search(query, sort)
	if err != nil {
		return nil, err
	}
	for i := range transactions {
		s.classify(&transactions[i])
	}
	return transactions, nil
}

// GetByID fetches and classifies one transaction.
func (s *TransactionService) GetByID(id string) (*domain.UnifiedTransaction, error) {
	tx, err := s.reader.GetByID(id)
	if err != nil || tx == nil {
		return tx, err
	}
	s.classify(tx)
	return tx, nil
}

// AssignCustomer changes the customer on a sale and classifies the
// receipt regeneration that follows. An unsafe change (the receipt
// already names a different customer) is refused unless confirmed.
func (s *TransactionService) AssignCustomer(id string, customerID *string, confirm bool) (*domain.UnifiedTransaction, documents.Decision, error) {
	tx, err := s.reader.GetByID(id)
	if err != nil || tx == nil {
		return tx, "", err
	}
	if tx.TransactionType != domain.TypeSale {
		return nil, "", fmt.Errorf("customer assignment is only supported for sales, %s is a %s", id, tx.TransactionType)
	}

	decision := documents.Decide(tx.CustomerID, customerID)
	if decision == documents.RegenNoOp {
		s.classify(tx)
		return tx, decision, nil
	}
	if decision == documents.RegenUnsafe && !confirm {
		return nil, decision, ErrRegenConfirmationRequired
	}

	if err := s.writer.SetSaleCustomer(tx.ID, customerID); err != nil {
		return nil, decision, err
	}
	tx.CustomerID = customerID
	tx.CustomerName = nil
	if tx.DocumentID != nil && s.cache != nil {
		s.cache.MarkGenerating(*tx.DocumentID)
		s.log.WithField("document_id", *tx.DocumentID).
			Info("Receipt marked for regeneration after customer change")
	}
	s.classify(tx)
	return tx, decision, nil
}

func (s *TransactionService) classify(tx *domain.UnifiedTransaction) {
	tx.PdfStatus, tx.PdfRequirement = domain.ClassifyPdf(tx.TransactionType, tx.HasPdf, tx.DocumentID)
	if s.cache != nil && tx.DocumentID != nil && s.cache.IsGenerating(*tx.DocumentID) {
		tx.PdfStatus = domain.PdfGenerating
	}
}

// Stats computes the business summary over every row matching the
// query. Paging is ignored so the stats cover the whole result set.
func (s *TransactionService) Stats(query domain.SearchQuery) (*domain.TransactionStats, error) {
	query.Limit = 0
	query.Offset = 0

	transactions, err := s.Search(query, domain.DefaultSort())
	if err != nil {
		return nil, err
	}
	return buildStats(transactions), nil
}

func buildStats(transactions []domain.UnifiedTransaction) *domain.TransactionStats {
	stats := &domain.TransactionStats{
		Total:        len(transactions),
		ByType:       make(map[domain.TransactionType]int),
		ByStatus:     make(map[string]int),
		TotalAmount:  decimal.Zero,
		AmountByType: make(map[domain.TransactionType]decimal.Decimal),
	}

	for _, tx := range transactions {
		stats.ByType[tx.TransactionType]++
		stats.ByStatus[string(tx.Status)]++
		stats.TotalAmount = stats.TotalAmount.Add(tx.Amount)
		stats.AmountByType[tx.TransactionType] = stats.AmountByType[tx.TransactionType].Add(tx.Amount)

		if tx.HasPdf {
			stats.WithPdf++
		} else {
			stats.WithoutPdf++
		}

		switch tx.PdfStatus {
		case domain.PdfAvailable:
			stats.PdfStats.Available++
		case domain.PdfMissing:
			stats.PdfStats.Missing++
		case domain.PdfGenerating:
			stats.PdfStats.Generating++
		default:
			stats.PdfStats.NotNeeded++
		}
		if tx.PdfRequirement == domain.PdfRequired {
			stats.PdfStats.TotalRequired++
		}
	}

	return stats
}

// ApplyPreset expands a quick-filter preset into concrete query fields.
// Date presets use the local calendar with Monday as the first day of
// the week.
func ApplyPreset(query domain.SearchQuery, preset domain.QuickFilterPreset, now time.Time) (domain.SearchQuery, error) {
	const day = "2006-01-02"

	switch preset {
	case domain.PresetToday:
		query.DateFrom = now.Format(day)
		query.DateTo = now.Format(day)
	case domain.PresetThisWeek:
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		monday := now.AddDate(0, 0, 1-weekday)
		query.DateFrom = monday.Format(day)
		query.DateTo = now.Format(day)
	case domain.PresetThisMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		query.DateFrom = first.Format(day)
		query.DateTo = now.Format(day)
	case domain.PresetLastMonth:
		firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		firstOfLast := firstOfThis.AddDate(0, -1, 0)
		query.DateFrom = firstOfLast.Format(day)
		query.DateTo = firstOfThis.AddDate(0, 0, -1).Format(day)
	case domain.PresetWithPdf:
		yes := true
		query.HasPdf = &yes
	case domain.PresetWithoutPdf:
		no := false
		query.HasPdf = &no
	case domain.PresetSalesOnly:
		query.TransactionTypes = []domain.TransactionType{domain.TypeSale}
	case domain.PresetExpensesOnly:
		query.TransactionTypes = []domain.TransactionType{domain.TypeExpense}
	case domain.PresetCashMovementsOnly:
		query.TransactionTypes = []domain.TransactionType{domain.TypeCashMovement}
	case domain.PresetBankOnly:
		query.TransactionTypes = []domain.TransactionType{domain.TypeBankTransaction}
	case domain.PresetCashOnly:
		query.PaymentMethods = []domain.PaymentMethod{domain.PaymentCash}
	case domain.PresetUnmatchedOnly:
		query.BankingStatuses = []domain.BankingStatus{domain.BankingUnmatched}
	case domain.PresetMatchedOnly:
		query.BankingStatuses = []domain.BankingStatus{
			domain.BankingMatched, domain.BankingFullyMatched,
		}
	default:
		return query, fmt.Errorf("unknown quick filter preset: %s", preset)
	}
	return query, nil
}
