package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/chesterzelaya/database-populator/internal/domain"
	"github.com/chesterzelaya/database-populator/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	schemas      *usecase.SchemaRegistry
	acquisitions *usecase.AcquisitionService
	tracker      *usecase.AcquisitionTracker
	products     *usecase.ProductService
	log          *logrus.Entry
}

// NewHandler creates a new HTTP handler
func NewHandler(
	schemas *usecase.SchemaRegistry,
	acquisitions *usecase.AcquisitionService,
	tracker *usecase.AcquisitionTracker,
	products *usecase.ProductService,
) *Handler {
	return &Handler{
		schemas:      schemas,
		acquisitions: acquisitions,
		tracker:      tracker,
		products:     products,
		log:          logrus.WithField("component", "http"),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "parts-catalog",
		"version": "1.0.0",
	})
}

// ListCategories returns the registered category names in registration order
func (h *Handler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.schemas.Categories()})
}

// GetCategory returns one category schema
func (h *Handler) GetCategory(c *gin.Context) {
	schema, err := h.schemas.Get(c.Param("category"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schema)
}

type addValueRequest struct {
	Value string `json:"value" binding:"required"`
}

// AddAllowedValue extends an attribute's allowed values and returns the updated schema
func (h *Handler) AddAllowedValue(c *gin.Context) {
	var req addValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	category := c.Param("category")
	if err := h.schemas.AddAllowedValue(category, c.Param("attribute"), req.Value); err != nil {
		h.respondError(c, err)
		return
	}

	schema, err := h.schemas.Get(category)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schema)
}

// Acquire runs retrieval and validation synchronously
func (h *Handler) Acquire(c *gin.Context) {
	var req domain.AcquisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	result, err := h.acquisitions.Acquire(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resultResponse(result))
}

// StartAcquisition launches a background acquisition for an entry
func (h *Handler) StartAcquisition(c *gin.Context) {
	var req domain.AcquisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	// fail fast on an unknown category instead of in the background
	if _, err := h.schemas.Get(req.Category); err != nil {
		h.respondError(c, err)
		return
	}

	run, err := h.tracker.Start(c.Param("entryId"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, runResponse(run))
}

// GetAcquisition reports the latest acquisition of an entry
func (h *Handler) GetAcquisition(c *gin.Context) {
	run, err := h.tracker.Get(c.Param("entryId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, runResponse(run))
}

// CancelAcquisition abandons the pending acquisition of an entry
func (h *Handler) CancelAcquisition(c *gin.Context) {
	run, err := h.tracker.Cancel(c.Param("entryId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, runResponse(run))
}

// SubmitProduct reconciles a reviewed candidate and persists it
func (h *Handler) SubmitProduct(c *gin.Context) {
	var req domain.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	record, id, err := h.products.Submit(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":       id,
		"category": req.Category,
		"product":  record,
	})
}

func resultResponse(result domain.RetrievalResult) gin.H {
	switch r := result.(type) {
	case domain.Structured:
		return gin.H{"kind": "structured", "candidate": r.Candidate}
	case domain.Unstructured:
		return gin.H{"kind": "unstructured", "text": r.Text}
	}
	return gin.H{"kind": "unknown"}
}

func runResponse(run usecase.AcquisitionRun) gin.H {
	body := gin.H{
		"id":        run.ID,
		"entryId":   run.EntryID,
		"status":    run.Status,
		"request":   run.Request,
		"startedAt": run.StartedAt.UTC().Format(time.RFC3339),
	}
	if !run.FinishedAt.IsZero() {
		body["finishedAt"] = run.FinishedAt.UTC().Format(time.RFC3339)
	}
	if run.Result != nil {
		body["result"] = resultResponse(run.Result)
	}
	if run.Err != nil {
		body["error"] = run.Err.Error()
	}
	return body
}

// statusForError maps domain errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownCategory),
		errors.Is(err, domain.ErrUnknownAttribute),
		errors.Is(err, domain.ErrAcquisitionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAcquisitionInFlight),
		errors.Is(err, domain.ErrDuplicateCategory):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidSelection):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrMissingCredential):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}
