package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"labassist/internal/domain"
	"labassist/internal/service"
)

// SessionHandler handles lab report analysis and Q&A endpoints.
type SessionHandler struct {
	orchestrator  service.Orchestrator
	importService service.ImportService
	exportService service.ExportService
	maxBytes      int64
}

// NewSessionHandler creates a new SessionHandler. maxBytes caps uploaded documents.
func NewSessionHandler(
	orchestrator service.Orchestrator,
	importService service.ImportService,
	exportService service.ExportService,
	maxBytes int64,
) *SessionHandler {
	return &SessionHandler{
		orchestrator:  orchestrator,
		importService: importService,
		exportService: exportService,
		maxBytes:      maxBytes,
	}
}

// Create handles POST /api/v1/sessions
// @Summary Analyze a lab report
// @Description Upload a lab report (PDF, image or text) as the raw body or a multipart "file" field. Starts a new session and runs extraction and interpretation.
// @Tags sessions
// @Accept application/pdf,image/png,image/jpeg,text/plain,multipart/form-data
// @Produce json
// @Param file formData file false "Lab report document"
// @Success 201 {object} Response{data=domain.Session} "Session interpreted"
// @Failure 400 {object} ErrorResponseBody "Missing or unsupported document"
// @Failure 413 {object} ErrorResponseBody "Document too large"
// @Failure 502 {object} ErrorResponseBody "Reasoning backend failed"
// @Failure 503 {object} ErrorResponseBody "Reasoning backend temporarily unavailable"
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	doc, ok := h.readDocument(c)
	if !ok {
		return
	}
	session, err := h.orchestrator.Analyze(c.Request.Context(), uuid.Nil, doc)
	if err != nil {
		respondPipelineError(c, err, session)
		return
	}
	RespondCreated(c, session)
}

// Reanalyze handles POST /api/v1/sessions/:id/analyze
// @Summary Re-analyze a session
// @Description Replace the session's document. Prior report, interpretation and history are discarded.
// @Tags sessions
// @Accept application/pdf,image/png,image/jpeg,text/plain,multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param file formData file false "Lab report document"
// @Success 200 {object} Response{data=domain.Session} "Session interpreted"
// @Failure 400 {object} ErrorResponseBody "Invalid ID or document"
// @Failure 404 {object} ErrorResponseBody "Session not found"
// @Failure 502 {object} ErrorResponseBody "Reasoning backend failed"
// @Router /sessions/{id}/analyze [post]
func (h *SessionHandler) Reanalyze(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	doc, ok := h.readDocument(c)
	if !ok {
		return
	}
	session, err := h.orchestrator.Analyze(c.Request.Context(), id, doc)
	if err != nil {
		respondPipelineError(c, err, session)
		return
	}
	RespondOK(c, session)
}

// Import handles POST /api/v1/sessions/import
// @Summary Analyze a lab report from object storage
// @Tags sessions
// @Accept json
// @Produce json
// @Param body body ImportRequest true "Object location"
// @Success 201 {object} Response{data=domain.Session} "Session interpreted"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 501 {object} ErrorResponseBody "Object storage not configured"
// @Router /sessions/import [post]
func (h *SessionHandler) Import(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "bucket and key are required")
		return
	}
	id := uuid.Nil
	if req.SessionID != "" {
		parsed, err := uuid.Parse(req.SessionID)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid session ID")
			return
		}
		id = parsed
	}

	session, err := h.importService.Import(c.Request.Context(), id, req.Bucket, req.Key)
	if err != nil {
		respondPipelineError(c, err, session)
		return
	}
	RespondCreated(c, session)
}

// GetByID handles GET /api/v1/sessions/:id
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} Response{data=domain.Session} "Session snapshot"
// @Failure 404 {object} ErrorResponseBody "Session not found"
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetByID(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	session, err := h.orchestrator.Session(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, session)
}

// Ask handles POST /api/v1/sessions/:id/questions
// @Summary Ask a follow-up question
// @Description Answer a question grounded on the session's report and interpretation. The exchange is appended to the conversation history.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param body body AskRequest true "Question"
// @Success 200 {object} Response{data=AskResponse} "Answer"
// @Failure 400 {object} ErrorResponseBody "Empty question"
// @Failure 404 {object} ErrorResponseBody "Session not found"
// @Failure 409 {object} ErrorResponseBody "Session not interpreted"
// @Failure 502 {object} ErrorResponseBody "Reasoning backend failed"
// @Router /sessions/{id}/questions [post]
func (h *SessionHandler) Ask(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "question is required")
		return
	}

	answer, session, err := h.orchestrator.Ask(c.Request.Context(), id, req.Question)
	if err != nil {
		respondPipelineError(c, err, session)
		return
	}
	RespondOK(c, AskResponse{Answer: answer, Session: session})
}

// Export handles GET /api/v1/sessions/:id/export
// @Summary Download session results
// @Tags sessions
// @Produce text/csv,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Session ID"
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} file "Export file"
// @Failure 400 {object} ErrorResponseBody "Unknown format"
// @Failure 409 {object} ErrorResponseBody "Session has no report"
// @Router /sessions/{id}/export [get]
func (h *SessionHandler) Export(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	out, err := h.exportService.Export(c.Request.Context(), id, c.DefaultQuery("format", service.FormatCSV))
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+out.Filename+`"`)
	c.Data(http.StatusOK, out.ContentType, out.Data)
}

// ExportToStorage handles POST /api/v1/sessions/:id/exports
// @Summary Upload session results to object storage
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param body body ExportRequest true "Destination"
// @Success 201 {object} Response{data=port.UploadOutput} "Upload location"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 501 {object} ErrorResponseBody "Object storage not configured"
// @Router /sessions/{id}/exports [post]
func (h *SessionHandler) ExportToStorage(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "bucket is required")
		return
	}
	if req.Format == "" {
		req.Format = service.FormatCSV
	}

	out, err := h.exportService.ExportToStorage(c.Request.Context(), id, req.Format, req.Bucket, req.Key)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, out)
}

// End handles DELETE /api/v1/sessions/:id
// @Summary End a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} Response "Session ended"
// @Failure 404 {object} ErrorResponseBody "Session not found"
// @Router /sessions/{id} [delete]
func (h *SessionHandler) End(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	if err := h.orchestrator.End(id); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "session ended"})
}

// readDocument reads the document from a multipart "file" field or the raw
// request body. It writes the error response itself when ok is false.
func (h *SessionHandler) readDocument(c *gin.Context) (doc []byte, ok bool) {
	if h.maxBytes > 0 {
		// Multipart framing needs a little headroom over the document limit.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+64*1024)
	}

	var src io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		file, _, err := c.Request.FormFile("file")
		if err != nil {
			if isTooLarge(err) {
				HandleError(c, domain.ErrDocumentTooLarge)
				return nil, false
			}
			RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
			return nil, false
		}
		defer func() { _ = file.Close() }()
		src = file
	}

	doc, err := io.ReadAll(src)
	if err != nil {
		if isTooLarge(err) {
			HandleError(c, domain.ErrDocumentTooLarge)
			return nil, false
		}
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "could not read request body")
		return nil, false
	}
	if h.maxBytes > 0 && int64(len(doc)) > h.maxBytes {
		HandleError(c, domain.ErrDocumentTooLarge)
		return nil, false
	}
	if len(doc) == 0 {
		HandleError(c, domain.ErrEmptyDocument)
		return nil, false
	}
	return doc, true
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid session ID")
		return uuid.Nil, false
	}
	return id, true
}

// respondPipelineError reports err and attaches the session snapshot when one exists.
func respondPipelineError(c *gin.Context, err error, session *domain.Session) {
	if session == nil {
		HandleError(c, err)
		return
	}
	HandleErrorWithData(c, err, session)
}
