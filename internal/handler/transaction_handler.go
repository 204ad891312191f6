package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pos-backoffice/internal/domain"
	"pos-backoffice/internal/service"
	"pos-backoffice/pkg/response"
)

// TransactionHandler serves the unified reconciliation view: search,
// stats, exports and the PDF bundle.
type TransactionHandler struct {
	transactions *service.TransactionService
	exports      *service.ExportService
}

func NewTransactionHandler(transactions *service.TransactionService, exports *service.ExportService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions, exports: exports}
}

// searchParams binds from both query strings and JSON bodies so the
// list, stats and export endpoints accept the same filters.
type searchParams struct {
	ReceiptNumber string `form:"receipt_number" json:"receipt_number"`
	Description   string `form:"description" json:"description"`

	AmountExact string `form:"amount_exact" json:"amount_exact"`
	AmountFrom  string `form:"amount_from" json:"amount_from"`
	AmountTo    string `form:"amount_to" json:"amount_to"`

	DateFrom string `form:"date_from" json:"date_from"`
	DateTo   string `form:"date_to" json:"date_to"`

	Types           []string `form:"types" json:"types"`
	TypeCodes       []string `form:"type_codes" json:"type_codes"`
	PaymentMethods  []string `form:"payment_methods" json:"payment_methods"`
	Statuses        []string `form:"statuses" json:"statuses"`
	BankingStatuses []string `form:"banking_statuses" json:"banking_statuses"`

	HasPdf *bool  `form:"has_pdf" json:"has_pdf"`
	Preset string `form:"preset" json:"preset"`

	SortBy  string `form:"sort_by" json:"sort_by"`
	SortDir string `form:"sort_dir" json:"sort_dir"`
	Limit   int    `form:"limit" json:"limit"`
	Offset  int    `form:"offset" json:"offset"`
}

func (p *searchParams) toQuery() (domain.SearchQuery, error) {
	query := domain.SearchQuery{
		ReceiptNumber: p.ReceiptNumber,
		Description:   p.Description,
		DateFrom:      p.DateFrom,
		DateTo:        p.DateTo,
		HasPdf:        p.HasPdf,
		Limit:         p.Limit,
		Offset:        p.Offset,
	}

	var err error
	if query.ExactAmount, err = parseAmount(p.AmountExact); err != nil {
		return query, err
	}
	if query.AmountFrom, err = parseAmount(p.AmountFrom); err != nil {
		return query, err
	}
	if query.AmountTo, err = parseAmount(p.AmountTo); err != nil {
		return query, err
	}

	for _, t := range p.Types {
		query.TransactionTypes = append(query.TransactionTypes, domain.TransactionType(t))
	}
	for _, t := range p.TypeCodes {
		query.TypeCodes = append(query.TypeCodes, domain.TypeCode(t))
	}
	for _, m := range p.PaymentMethods {
		query.PaymentMethods = append(query.PaymentMethods, domain.PaymentMethod(m))
	}
	for _, s := range p.Statuses {
		query.Statuses = append(query.Statuses, domain.TransactionStatus(s))
	}
	for _, b := range p.BankingStatuses {
		query.BankingStatuses = append(query.BankingStatuses, domain.BankingStatus(b))
	}

	if p.Preset != "" {
		query, err = service.ApplyPreset(query, domain.QuickFilterPreset(p.Preset), time.Now())
		if err != nil {
			return query, err
		}
	}
	return query, nil
}

func (p *searchParams) toSort() domain.Sort {
	sort := domain.DefaultSort()
	if p.SortBy != "" && domain.ValidSortField(domain.SortField(p.SortBy)) {
		sort.Field = domain.SortField(p.SortBy)
	}
	sort.Ascending = p.SortDir == "asc"
	return sort
}

// List godoc
// @Summary List unified transactions
// @Description Returns transactions from the unified view with filters, sorting and paging
// @Tags transactions
// @Produce json
// @Param receipt_number query string false "Receipt number substring"
// @Param description query string false "Description substring"
// @Param date_from query string false "Start date (YYYY-MM-DD)"
// @Param date_to query string false "End date (YYYY-MM-DD)"
// @Param preset query string false "Quick filter preset"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	var params searchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.BadRequest(c, "Invalid query parameters", err.Error())
		return
	}
	query, err := params.toQuery()
	if err != nil {
		response.BadRequest(c, "Invalid filter", err.Error())
		return
	}

	transactions, err := h.transactions.Search(query, params.toSort())
	if err != nil {
		response.InternalError(c, "Failed to load transactions", err.Error())
		return
	}
	response.Success(c, http.StatusOK, "Transactions loaded", gin.H{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// Get godoc
// @Summary Get one unified transaction
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	tx, err := h.transactions.GetByID(c.Param("id"))
	if err != nil {
		response.InternalError(c, "Failed to load transaction", err.Error())
		return
	}
	if tx == nil {
		response.NotFound(c, "Transaction not found")
		return
	}
	response.Success(c, http.StatusOK, "Transaction loaded", tx)
}

// Stats godoc
// @Summary Transaction statistics
// @Description Aggregates counts, amounts and PDF coverage over the filtered set
// @Tags transactions
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /transactions/stats [get]
func (h *TransactionHandler) Stats(c *gin.Context) {
	var params searchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.BadRequest(c, "Invalid query parameters", err.Error())
		return
	}
	query, err := params.toQuery()
	if err != nil {
		response.BadRequest(c, "Invalid filter", err.Error())
		return
	}

	stats, err := h.transactions.Stats(query)
	if err != nil {
		response.InternalError(c, "Failed to compute statistics", err.Error())
		return
	}
	response.Success(c, http.StatusOK, "Statistics computed", stats)
}

type assignCustomerRequest struct {
	CustomerID *string `json:"customer_id"`
	Confirm    bool    `json:"confirm"`
}

// AssignCustomer godoc
// @Summary Assign a customer to a sale
// @Description Changes the customer on a sale; replacing a receipt that names a different customer requires confirm=true
// @Tags transactions
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param request body assignCustomerRequest true "Customer assignment"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /transactions/{id}/customer [put]
func (h *TransactionHandler) AssignCustomer(c *gin.Context) {
	var req assignCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err.Error())
		return
	}

	tx, decision, err := h.transactions.AssignCustomer(c.Param("id"), req.CustomerID, req.Confirm)
	if errors.Is(err, service.ErrRegenConfirmationRequired) {
		response.Conflict(c, "Receipt regeneration requires confirmation", err.Error())
		return
	}
	if err != nil {
		response.BadRequest(c, "Customer assignment failed", err.Error())
		return
	}
	if tx == nil {
		response.NotFound(c, "Transaction not found")
		return
	}
	response.Success(c, http.StatusOK, "Customer assigned", gin.H{
		"transaction":  tx,
		"regeneration": decision,
	})
}

type exportRequest struct {
	Format string       `json:"format" binding:"required"`
	Query  searchParams `json:"query"`
}

// Export godoc
// @Summary Export transactions
// @Description Renders the filtered transaction set as CSV or Excel
// @Tags transactions
// @Accept json
// @Produce application/octet-stream
// @Param request body exportRequest true "Export format and filters"
// @Success 200 {string} string "File content"
// @Failure 400 {object} response.Response
// @Router /transactions/export [post]
func (h *TransactionHandler) Export(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err.Error())
		return
	}
	query, err := req.Query.toQuery()
	if err != nil {
		response.BadRequest(c, "Invalid filter", err.Error())
		return
	}

	transactions, err := h.transactions.Search(query, req.Query.toSort())
	if err != nil {
		response.InternalError(c, "Failed to load transactions", err.Error())
		return
	}

	data, filename, err := h.exports.Export(transactions, service.ExportFormat(req.Format))
	if err != nil {
		response.BadRequest(c, "Export failed", err.Error())
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/octet-stream", data)
}

// PdfBundle godoc
// @Summary Download a ZIP bundle of receipts
// @Description Bundles the PDFs of the filtered transactions; transactions without a document are skipped
// @Tags transactions
// @Accept json
// @Produce application/zip
// @Param request body searchParams true "Filters"
// @Success 200 {string} string "ZIP content"
// @Failure 400 {object} response.Response
// @Router /transactions/pdf-bundle [post]
func (h *TransactionHandler) PdfBundle(c *gin.Context) {
	var params searchParams
	if err := c.ShouldBindJSON(&params); err != nil {
		response.BadRequest(c, "Invalid request body", err.Error())
		return
	}
	query, err := params.toQuery()
	if err != nil {
		response.BadRequest(c, "Invalid filter", err.Error())
		return
	}

	transactions, err := h.transactions.Search(query, params.toSort())
	if err != nil {
		response.InternalError(c, "Failed to load transactions", err.Error())
		return
	}

	data, skipped, err := h.exports.PdfBundle(transactions)
	if err != nil {
		response.BadRequest(c, "Bundle failed", err.Error())
		return
	}
	c.Header("Content-Disposition", `attachment; filename="belege.zip"`)
	c.Header("X-Skipped-Documents", strconv.Itoa(len(skipped)))
	c.Data(http.StatusOK, "application/zip", data)
}

func parseAmount(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
