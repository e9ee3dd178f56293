package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

const requestIDHeader = "X-Request-ID"

// TextProcessor extracts and stores one OCR document.
type TextProcessor interface {
	ProcessText(ctx context.Context, source, text string) (*entity.Extraction, constants.JobStatus, error)
}

// HealthFunc reports whether a dependency is reachable.
type HealthFunc func(ctx context.Context) error

type ExtractRequest struct {
	Text   string `json:"text" binding:"required"`
	Source string `json:"source"`
}

type ExtractResponse struct {
	Status     constants.JobStatus `json:"status"`
	Extraction *entity.Extraction  `json:"extraction"`
	Totals     entity.Totals       `json:"totals"`
}

type FieldResponse struct {
	Field constants.Field `json:"field"`
	Value string          `json:"value"`
	Found bool            `json:"found"`
}

// API serves the HTTP surface of the extractor.
type API struct {
	proc     TextProcessor
	store    repository.ExtractionRepository
	engine   *invoice.Engine
	exporter *export.Service
	health   HealthFunc
	logger   *slog.Logger
}

func NewAPI(proc TextProcessor, store repository.ExtractionRepository, engine *invoice.Engine, exporter *export.Service, health HealthFunc, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = invoice.Default()
	}
	if exporter == nil {
		exporter = export.NewService("", "", logger)
	}
	return &API{proc: proc, store: store, engine: engine, exporter: exporter, health: health, logger: logger}
}

// Router builds the gin engine with every route registered.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), a.requestLogger())

	r.GET("/healthz", a.healthz)
	v1 := r.Group("/v1")
	{
		v1.POST("/extract", a.extract)
		v1.POST("/fields/:field", a.extractField)
		v1.GET("/extractions", a.listExtractions)
		v1.GET("/extractions/:id", a.getExtraction)
		v1.GET("/export.xlsx", a.exportXLSX)
	}
	return r
}

func (a *API) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()
		if id := c.GetHeader(requestIDHeader); id != "" {
			ctx = common.WithRequestID(ctx, id)
		}
		ctx, id := common.EnsureRequestID(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestIDHeader, id)

		c.Next()

		a.logger.Info("http.request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"request_id", id,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

// readText accepts a JSON ExtractRequest or a raw text/plain body.
func readText(c *gin.Context) (ExtractRequest, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, common.MaxTextBytes+4096)
	if strings.HasPrefix(c.ContentType(), "text/") {
		b, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return ExtractRequest{}, common.InvalidInput(err.Error())
		}
		return ExtractRequest{Text: string(b), Source: c.Query("source")}, nil
	}
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return req, common.InvalidInput(err.Error())
	}
	return req, nil
}

func (a *API) extract(c *gin.Context) {
	req, err := readText(c)
	if err != nil {
		a.writeError(c, err)
		return
	}
	source := req.Source
	if source == "" {
		source = "http:" + common.RequestIDFromContext(c.Request.Context())
	}

	e, status, err := a.proc.ProcessText(c.Request.Context(), source, req.Text)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ExtractResponse{Status: status, Extraction: e, Totals: e.Totals()})
}

func (a *API) extractField(c *gin.Context) {
	field, ok := constants.ParseField(c.Param("field"))
	if !ok {
		a.writeError(c, common.InvalidInput(fmt.Sprintf("unknown field %q", c.Param("field"))))
		return
	}
	req, err := readText(c)
	if err != nil {
		a.writeError(c, err)
		return
	}
	if err := common.ValidateText(req.Text); err != nil {
		a.writeError(c, err)
		return
	}
	v := a.engine.ExtractField(field, req.Text)
	c.JSON(http.StatusOK, FieldResponse{Field: field, Value: v, Found: v != constants.NotFound})
}

func (a *API) getExtraction(c *gin.Context) {
	raw := c.Param("id")
	if err := common.NewValidator().Field("id", raw, common.Required, common.UUID).Error(); err != nil {
		a.writeError(c, err)
		return
	}
	id := uuid.MustParse(raw)
	e, err := a.store.GetByID(c.Request.Context(), id)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"extraction": e, "totals": e.Totals()})
}

func parseLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return repository.DefaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || common.IntBetween(1, 1000)("limit", n) != nil {
		return 0, common.InvalidInput("limit must be between 1 and 1000")
	}
	return n, nil
}

func (a *API) listExtractions(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		a.writeError(c, err)
		return
	}
	list, err := a.store.List(c.Request.Context(), limit)
	if err != nil {
		a.writeError(c, err)
		return
	}
	if list == nil {
		list = []*entity.Extraction{}
	}
	c.JSON(http.StatusOK, gin.H{"extractions": list, "count": len(list)})
}

func (a *API) exportXLSX(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		a.writeError(c, err)
		return
	}
	list, err := a.store.List(c.Request.Context(), limit)
	if err != nil {
		a.writeError(c, err)
		return
	}
	rows := make([]entity.Extraction, 0, len(list))
	for _, e := range list {
		rows = append(rows, *e)
	}
	b, err := a.exporter.ExportXLSX(c.Request.Context(), rows)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", b)
}

func (a *API) healthz(c *gin.Context) {
	if a.health != nil {
		if err := a.health(c.Request.Context()); err != nil {
			a.logger.Warn("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "engine_version": a.engine.Version()})
}

// HTTPStatus maps an application error onto an HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) writeError(c *gin.Context, err error) {
	code := HTTPStatus(err)
	if code >= http.StatusInternalServerError {
		a.logger.Error("http.failed", "path", c.FullPath(), "error", err)
	}
	var appErr *common.AppError
	body := gin.H{"error": err.Error()}
	if errors.As(err, &appErr) {
		body["code"] = appErr.Code
	}
	c.AbortWithStatusJSON(code, body)
}
