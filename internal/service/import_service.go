package service

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pos-backoffice/internal/domain"
	"pos-backoffice/pkg/logger"
)

// Import phases in execution order. Reference data first, then sales
// (which resolve item names), then the derived artifacts.
const (
	PhaseItems             = "items"
	PhaseSuppliers         = "suppliers"
	PhaseUsers             = "users"
	PhaseBankAccounts      = "bank_accounts"
	PhaseOwnerTransactions = "owner_transactions"
	PhaseSales             = "sales"
	PhaseExpenses          = "expenses"
	PhaseCashMovements     = "cash_movements"
	PhaseDailySummaries    = "daily_summaries"
	PhaseReceipts          = "placeholder_receipts"
)

// ProgressFunc receives phase-level progress. completed counts phases
// already finished; total is the number of phases that will run.
type ProgressFunc func(phase string, completed, total int)

// ImportStore is the persistence surface the orchestrator needs.
type ImportStore interface {
	BulkCreateItems(items []domain.ItemImport) (int, error)
	BulkCreateSuppliers(suppliers []domain.SupplierImport) (int, error)
	BulkCreateUsers(users []domain.UserImport) (int, error)
	BulkCreateBankAccounts(accounts []domain.BankAccountImport) (int, error)
	BulkCreateOwnerTransactions(transactions []domain.OwnerTransactionImport) (int, error)
	BulkCreateExpenses(expenses []domain.ExpenseImport) ([]string, error)
	ResolveItemIDs(names []string) (map[string]string, error)
	CreateSale(sale domain.SaleImport, itemIDs map[string]string) (string, error)
	BulkCreateCashMovements(movements []domain.CashMovementImport) (int, error)
	CalculateDailySummary(date string) error
	CreatePlaceholderReceipts(referenceType string, referenceIDs []string) (int, error)
}

// ImportService runs the phased import pipeline. Phases commit
// independently: a failure stops the run but keeps earlier phases, and
// the result records where it stopped.
type ImportService struct {
	store ImportStore
	log   *logrus.Logger
}

func NewImportService(store ImportStore) *ImportService {
	return &ImportService{store: store, log: logger.GetLogger()}
}

// Run executes every phase the batch needs. validateOnly walks the same
// phase order without touching the store, so the result mirrors a real
// run with zero writes.
func (s *ImportService) Run(batch *domain.ImportBatch, importType domain.ImportType, validateOnly bool, progress ProgressFunc) *domain.ImportResult {
	result := &domain.ImportResult{
		JobID:        uuid.New().String(),
		ImportType:   importType,
		ValidateOnly: validateOnly,
	}

	run := newPhaseRun(s, batch, result, validateOnly, progress)
	run.execute()

	fields := logrus.Fields{
		"job_id":        result.JobID,
		"import_type":   importType,
		"validate_only": validateOnly,
		"phases":        len(result.CompletedPhases),
	}
	if result.Succeeded() {
		s.log.WithFields(fields).Info("Import completed")
	} else {
		s.log.WithFields(fields).WithField("failed_phase", result.FailedPhase).
			Error("Import failed")
	}
	return result
}

type phaseRun struct {
	svc          *ImportService
	batch        *domain.ImportBatch
	result       *domain.ImportResult
	validateOnly bool
	progress     ProgressFunc

	phases []phase

	saleIDs    []string
	expenseIDs []string
}

type phase struct {
	name string
	fn   func() error
}

func newPhaseRun(svc *ImportService, batch *domain.ImportBatch, result *domain.ImportResult, validateOnly bool, progress ProgressFunc) *phaseRun {
	run := &phaseRun{
		svc:          svc,
		batch:        batch,
		result:       result,
		validateOnly: validateOnly,
		progress:     progress,
	}

	add := func(name string, needed bool, fn func() error) {
		if needed {
			run.phases = append(run.phases, phase{name: name, fn: fn})
		}
	}

	hasCashSales := anyCashSale(batch.Sales)
	hasCashExpenses := anyCashExpense(batch.Expenses)

	add(PhaseItems, len(batch.Items) > 0, run.importItems)
	add(PhaseSuppliers, len(batch.Suppliers) > 0, run.importSuppliers)
	add(PhaseUsers, len(batch.Users) > 0, run.importUsers)
	add(PhaseBankAccounts, len(batch.BankAccounts) > 0, run.importBankAccounts)
	add(PhaseOwnerTransactions, len(batch.OwnerTransactions) > 0, run.importOwnerTransactions)
	add(PhaseSales, len(batch.Sales) > 0, run.importSales)
	add(PhaseExpenses, len(batch.Expenses) > 0, run.importExpenses)
	add(PhaseCashMovements, hasCashSales || hasCashExpenses, run.createCashMovements)
	add(PhaseDailySummaries, len(batch.Sales) > 0, run.calculateDailySummaries)
	add(PhaseReceipts, len(batch.Sales) > 0 || len(batch.Expenses) > 0, run.createPlaceholderReceipts)

	return run
}

func (r *phaseRun) execute() {
	total := len(r.phases)
	for i, p := range r.phases {
		if r.progress != nil {
			r.progress(p.name, i, total)
		}
		if err := p.fn(); err != nil {
			r.result.FailedPhase = p.name
			r.result.Errors = append(r.result.Errors, err.Error())
			r.svc.log.WithError(err).WithField("phase", p.name).Error("Import phase failed")
			return
		}
		r.result.CompletedPhases = append(r.result.CompletedPhases, p.name)
		if r.progress != nil {
			r.progress(p.name, i+1, total)
		}
	}
}

func (r *phaseRun) importItems() error {
	if r.validateOnly {
		r.result.ItemsImported = len(r.batch.Items)
		return nil
	}
	n, err := r.svc.store.BulkCreateItems(r.batch.Items)
	r.result.ItemsImported = n
	return err
}

func (r *phaseRun) importSuppliers() error {
	if r.validateOnly {
		r.result.SuppliersImported = len(r.batch.Suppliers)
		return nil
	}
	n, err := r.svc.store.BulkCreateSuppliers(r.batch.Suppliers)
	r.result.SuppliersImported = n
	return err
}

func (r *phaseRun) importUsers() error {
	if r.validateOnly {
		r.result.UsersImported = len(r.batch.Users)
		return nil
	}
	n, err := r.svc.store.BulkCreateUsers(r.batch.Users)
	r.result.UsersImported = n
	return err
}

func (r *phaseRun) importBankAccounts() error {
	if r.validateOnly {
		r.result.AccountsImported = len(r.batch.BankAccounts)
		return nil
	}
	n, err := r.svc.store.BulkCreateBankAccounts(r.batch.BankAccounts)
	r.result.AccountsImported = n
	return err
}

func (r *phaseRun) importOwnerTransactions() error {
	if r.validateOnly {
		r.result.OwnerTxImported = len(r.batch.OwnerTransactions)
		return nil
	}
	n, err := r.svc.store.BulkCreateOwnerTransactions(r.batch.OwnerTransactions)
	r.result.OwnerTxImported = n
	return err
}

func (r *phaseRun) importSales() error {
	if r.validateOnly {
		r.result.SalesImported = len(r.batch.Sales)
		return nil
	}

	itemIDs, err := r.svc.store.ResolveItemIDs(saleItemNames(r.batch.Sales))
	if err != nil {
		return err
	}

	for _, sale := range r.batch.Sales {
		saleID, err := r.svc.store.CreateSale(sale, itemIDs)
		if err != nil {
			return err
		}
		r.saleIDs = append(r.saleIDs, saleID)
		r.result.SalesImported++
	}
	return nil
}

func (r *phaseRun) importExpenses() error {
	if r.validateOnly {
		r.result.ExpensesImported = len(r.batch.Expenses)
		return nil
	}
	ids, err := r.svc.store.BulkCreateExpenses(r.batch.Expenses)
	if err != nil {
		return err
	}
	r.expenseIDs = ids
	r.result.ExpensesImported = len(ids)
	return nil
}

func (r *phaseRun) createCashMovements() error {
	movements := r.cashMovements()
	if r.validateOnly {
		r.result.CashMovements = len(movements)
		return nil
	}
	n, err := r.svc.store.BulkCreateCashMovements(movements)
	r.result.CashMovements = n
	return err
}

// cashMovements derives one ledger entry per cash sale and cash
// expense. In validate-only mode the reference IDs are empty since
// nothing was persisted.
func (r *phaseRun) cashMovements() []domain.CashMovementImport {
	var movements []domain.CashMovementImport

	for i, sale := range r.batch.Sales {
		if sale.PaymentMethod != string(domain.PaymentCash) {
			continue
		}
		m := domain.CashMovementImport{
			Date:          sale.Date,
			Type:          "cash_in",
			Amount:        sale.TotalAmount,
			Description:   "Barverkauf",
			ReferenceType: "sale",
		}
		if i < len(r.saleIDs) {
			m.ReferenceID = r.saleIDs[i]
		}
		movements = append(movements, m)
	}

	for i, expense := range r.batch.Expenses {
		if expense.PaymentMethod != string(domain.PaymentCash) {
			continue
		}
		m := domain.CashMovementImport{
			Date:          expense.Date,
			Type:          "cash_out",
			Amount:        expense.Amount,
			Description:   expense.Description,
			ReferenceType: "expense",
		}
		if i < len(r.expenseIDs) {
			m.ReferenceID = r.expenseIDs[i]
		}
		movements = append(movements, m)
	}

	return movements
}

func (r *phaseRun) calculateDailySummaries() error {
	dates := saleDates(r.batch.Sales)
	if r.validateOnly {
		r.result.DailySummaries = len(dates)
		return nil
	}
	for _, date := range dates {
		if err := r.svc.store.CalculateDailySummary(date); err != nil {
			return err
		}
		r.result.DailySummaries++
	}
	return nil
}

func (r *phaseRun) createPlaceholderReceipts() error {
	if r.validateOnly {
		r.result.Receipts = len(r.batch.Sales) + len(r.batch.Expenses)
		return nil
	}

	created, err := r.svc.store.CreatePlaceholderReceipts("sale", r.saleIDs)
	if err != nil {
		return err
	}
	r.result.Receipts += created

	created, err = r.svc.store.CreatePlaceholderReceipts("expense", r.expenseIDs)
	if err != nil {
		return err
	}
	r.result.Receipts += created
	return nil
}

func saleItemNames(sales []domain.SaleImport) []string {
	seen := make(map[string]bool)
	var names []string
	for _, sale := range sales {
		for _, item := range sale.Items {
			key := strings.ToLower(item.ItemName)
			if !seen[key] {
				seen[key] = true
				names = append(names, item.ItemName)
			}
		}
	}
	return names
}

// saleDates returns the distinct sale dates in ascending order so the
// summary phase is deterministic.
func saleDates(sales []domain.SaleImport) []string {
	seen := make(map[string]bool)
	var dates []string
	for _, sale := range sales {
		if !seen[sale.Date] {
			seen[sale.Date] = true
			dates = append(dates, sale.Date)
		}
	}
	sort.Strings(dates)
	return dates
}

func anyCashSale(sales []domain.SaleImport) bool {
	for _, sale := range sales {
		if sale.PaymentMethod == string(domain.PaymentCash) {
			return true
		}
	}
	return false
}

func anyCashExpense(expenses []domain.ExpenseImport) bool {
	for _, expense := range expenses {
		if expense.PaymentMethod == string(domain.PaymentCash) {
			return true
		}
	}
	return false
}
