package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pos-backoffice/internal/domain"
	"pos-backoffice/internal/importer"
	"pos-backoffice/internal/service"
	"pos-backoffice/pkg/apperrors"
	"pos-backoffice/pkg/response"
)

// ImportHandler exposes the import workflow over HTTP: session
// lifecycle, mapping, preview, commit, templates and direct JSON
// import.
type ImportHandler struct {
	sessions       *importer.Store
	importService  *service.ImportService
	maxUploadBytes int64
	previewRows    int
}

func NewImportHandler(sessions *importer.Store, importService *service.ImportService, maxUploadBytes int64, previewRows int) *ImportHandler {
	return &ImportHandler{
		sessions:       sessions,
		importService:  importService,
		maxUploadBytes: maxUploadBytes,
		previewRows:    previewRows,
	}
}

type sessionResponse struct {
	ID         string                  `json:"id"`
	State      importer.SessionState   `json:"state"`
	ImportType domain.ImportType       `json:"import_type"`
	Filename   string                  `json:"filename,omitempty"`
	Headers    []string                `json:"headers,omitempty"`
	Stats      *importer.DataStats     `json:"stats,omitempty"`
	Preview    []importer.Row          `json:"preview,omitempty"`
	Mapping    *importer.MappingConfig `json:"mapping,omitempty"`
	Batch      *domain.ImportBatch     `json:"batch,omitempty"`
}

func (h *ImportHandler) sessionView(s *importer.Session, includeBatch bool) sessionResponse {
	view := sessionResponse{
		ID:         s.ID,
		State:      s.State,
		ImportType: s.ImportType,
		Filename:   s.Filename,
		Mapping:    s.Mapping,
	}
	if s.Parsed != nil {
		view.Headers = s.Parsed.Headers
		stats := importer.Stats(s.Parsed)
		view.Stats = &stats
		limit := h.previewRows
		if limit > len(s.Parsed.Rows) {
			limit = len(s.Parsed.Rows)
		}
		view.Preview = s.Parsed.Rows[:limit]
	}
	if includeBatch {
		view.Batch = s.Batch
	}
	return view
}

// CreateSession godoc
// @Summary Start an import session
// @Description Uploads a CSV file, parses it and suggests a column mapping
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Param import_type formData string true "Import type (items, sales, expenses, users, owner_transactions, bank_accounts, suppliers)"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /import/sessions [post]
func (h *ImportHandler) CreateSession(c *gin.Context) {
	importType := domain.ImportType(c.PostForm("import_type"))
	if !domain.ValidImportType(importType) {
		response.BadRequest(c, "Invalid import type", string(importType))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "Missing file upload", err.Error())
		return
	}
	if err := importer.ValidateFile(fileHeader.Filename, fileHeader.Size, h.maxUploadBytes); err != nil {
		response.BadRequest(c, "File rejected", err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, "Failed to read upload", err.Error())
		return
	}
	defer file.Close()

	parsed, err := importer.Parse(file)
	if err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	session, err := h.sessions.Create(importType)
	if err != nil {
		response.BadRequest(c, "Failed to create session", err.Error())
		return
	}
	if err := session.LoadFile(fileHeader.Filename, parsed); err != nil {
		response.InternalError(c, "Failed to initialize session", err.Error())
		return
	}

	response.Success(c, http.StatusCreated, "Import session created", h.sessionView(session, false))
}

type mappingAssignment struct {
	FieldKey  string `json:"field_key" binding:"required"`
	CSVHeader string `json:"csv_header"`
}

type updateMappingsRequest struct {
	Assignments []mappingAssignment `json:"assignments" binding:"required"`
}

// UpdateMappings godoc
// @Summary Update column mappings
// @Description Reassigns columns and, when the mapping is valid, transforms the data into a preview batch
// @Tags import
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body updateMappingsRequest true "Mapping assignments"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /import/sessions/{id}/mappings [put]
func (h *ImportHandler) UpdateMappings(c *gin.Context) {
	session, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		response.NotFound(c, "Import session not found")
		return
	}

	var req updateMappingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err.Error())
		return
	}

	for _, assignment := range req.Assignments {
		if err := session.AssignMapping(assignment.FieldKey, assignment.CSVHeader); err != nil {
			response.BadRequest(c, "Mapping update rejected", err.Error())
			return
		}
	}

	if session.Mapping == nil || !session.Mapping.Valid {
		response.Success(c, http.StatusOK, "Mapping incomplete", h.sessionView(session, false))
		return
	}

	if _, err := session.Preview(); err != nil {
		response.ValidationError(c, err.Error())
		return
	}
	response.Success(c, http.StatusOK, "Preview ready", h.sessionView(session, true))
}

// Back godoc
// @Summary Return from preview to mapping
// @Tags import
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /import/sessions/{id}/back [post]
func (h *ImportHandler) Back(c *gin.Context) {
	session, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		response.NotFound(c, "Import session not found")
		return
	}
	if err := session.Back(); err != nil {
		response.Conflict(c, "Invalid session state", err.Error())
		return
	}
	response.Success(c, http.StatusOK, "Returned to mapping", h.sessionView(session, false))
}

// Commit godoc
// @Summary Commit an import session
// @Description Runs the phased import. With validate_only=true nothing is persisted.
// @Tags import
// @Produce json
// @Param id path string true "Session ID"
// @Param validate_only query bool false "Validate without persisting"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /import/sessions/{id}/commit [post]
func (h *ImportHandler) Commit(c *gin.Context) {
	session, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		response.NotFound(c, "Import session not found")
		return
	}
	validateOnly, _ := strconv.ParseBool(c.DefaultQuery("validate_only", "false"))

	var batch *domain.ImportBatch
	var err error
	if validateOnly {
		batch, err = session.PreviewBatch()
	} else {
		batch, err = session.BeginImport()
	}
	if err != nil {
		response.Conflict(c, "Invalid session state", err.Error())
		return
	}

	result := h.importService.Run(batch, session.ImportType, validateOnly, nil)
	if !validateOnly {
		if err := session.Complete(result); err != nil {
			response.InternalError(c, "Failed to finalize session", err.Error())
			return
		}
	}

	if result.Succeeded() {
		response.Success(c, http.StatusOK, "Import completed", result)
		return
	}
	response.Error(c, http.StatusUnprocessableEntity, "IMPORT_FAILED",
		"Import failed in phase "+result.FailedPhase, joinErrors(result.Errors))
}

// DeleteSession godoc
// @Summary Discard an import session
// @Tags import
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /import/sessions/{id} [delete]
func (h *ImportHandler) DeleteSession(c *gin.Context) {
	if !h.sessions.Delete(c.Param("id")) {
		response.NotFound(c, "Import session not found")
		return
	}
	response.Success(c, http.StatusOK, "Import session discarded", nil)
}

// Template godoc
// @Summary Download a CSV import template
// @Tags import
// @Produce text/csv
// @Param type path string true "Import type"
// @Success 200 {string} string "CSV template"
// @Failure 400 {object} response.Response
// @Router /import/templates/{type} [get]
func (h *ImportHandler) Template(c *gin.Context) {
	importType := domain.ImportType(c.Param("type"))
	data, err := importer.Template(importType)
	if err != nil {
		response.BadRequest(c, "Unknown import type", err.Error())
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+importer.TemplateFilename(importType)+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// ImportJSON godoc
// @Summary Import a JSON document directly
// @Description Accepts the structured JSON envelope and runs the phased import on it
// @Tags import
// @Accept json
// @Produce json
// @Param validate_only query bool false "Validate without persisting"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /import/json [post]
func (h *ImportHandler) ImportJSON(c *gin.Context) {
	batch, err := importer.DecodeJSON(c.Request.Body)
	if err != nil {
		if apperrors.CategoryOf(err) == apperrors.CategoryParse {
			response.ValidationError(c, err.Error())
		} else {
			response.InternalError(c, "Failed to decode JSON import", err.Error())
		}
		return
	}

	validateOnly, _ := strconv.ParseBool(c.DefaultQuery("validate_only", "false"))
	result := h.importService.Run(batch, domain.ImportJSON, validateOnly, nil)
	if result.Succeeded() {
		response.Success(c, http.StatusOK, "Import completed", result)
		return
	}
	response.Error(c, http.StatusUnprocessableEntity, "IMPORT_FAILED",
		"Import failed in phase "+result.FailedPhase, joinErrors(result.Errors))
}

func joinErrors(errs []string) string {
	switch len(errs) {
	case 0:
		return ""
	case 1:
		return errs[0]
	default:
		joined := errs[0]
		for _, e := range errs[1:] {
			joined += "; " + e
		}
		return joined
	}
}
