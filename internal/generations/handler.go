package generations

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"resume-optimizer/internal/pipeline"
	"resume-optimizer/internal/shared/server/middleware"
	"resume-optimizer/internal/shared/server/respond"
	"resume-optimizer/internal/shared/telemetry"
	"resume-optimizer/resume/render"
)

// Handler wires HTTP handlers to the generation service.
type Handler struct {
	Svc *Service
	// ExposeErrors echoes pipeline diagnostics to clients. Off in production.
	ExposeErrors bool
}

// maxRequestBytes bounds the generate body, which carries ids and short
// selections only.
const maxRequestBytes = 256 << 10

// NewHandler constructs a Handler.
func NewHandler(svc *Service, exposeErrors bool) *Handler {
	return &Handler{Svc: svc, ExposeErrors: exposeErrors}
}

// RegisterRoutes attaches generation routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resume/generate", h.generate)
	rg.GET("/resume/download/:id", h.download)
	rg.GET("/resume/generations", h.list)
}

func (h *Handler) generate(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes)
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	c.Set(middleware.AnalysisIDKey, req.AnalysisID)

	ctx := telemetry.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	res, err := h.Svc.Generate(ctx, userID, req)
	if err != nil {
		var verr *ValidationError
		var gerr *GenerationError
		switch {
		case errors.As(err, &verr):
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid input", verr.Fields)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "Analysis not found or expired", nil)
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, "forbidden", "Unauthorized access to analysis", nil)
		case errors.As(err, &gerr) && (errors.Is(err, render.ErrCompilerMissing) || errors.Is(err, pipeline.ErrNoRenderer) || errors.Is(err, render.ErrNoPrinter)):
			respond.Failure(c, http.StatusServiceUnavailable, "renderer_unavailable", "Failed to generate resume", err, h.ExposeErrors, nil)
		case errors.As(err, &gerr):
			respond.Failure(c, http.StatusInternalServerError, "generation_failed", "Failed to generate resume", err, h.ExposeErrors, gerr.Diagnostics)
		default:
			respond.Failure(c, http.StatusInternalServerError, "internal_error", "Failed to generate resume", err, h.ExposeErrors, nil)
		}
		return
	}

	c.Set(middleware.GenerationIDKey, res.GenerationID)
	respond.Private(c, http.StatusOK, res)
}

func (h *Handler) download(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	generationID := c.Param("id")
	if parsed, err := uuid.Parse(generationID); err != nil || parsed.String() != generationID {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid generation ID", nil)
		return
	}
	c.Set(middleware.GenerationIDKey, generationID)

	url, err := h.Svc.Download(c.Request.Context(), userID, generationID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "Generation not found or expired", nil)
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, "forbidden", "Unauthorized access", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to sign download url", nil)
		}
		return
	}
	respond.Redirect(c, url)
}

// HistoryItem is one row of GET /resume/generations.
type HistoryItem struct {
	GenerationID  string     `json:"generationId"`
	AnalysisID    string     `json:"analysisId"`
	CompanyName   string     `json:"companyName"`
	JobTitle      string     `json:"jobTitle"`
	FileName      string     `json:"fileName"`
	RenderPath    string     `json:"renderPath"`
	ATSBefore     int        `json:"atsScoreBefore"`
	ATSAfter      int        `json:"atsScoreAfter"`
	KeywordsAdded []string   `json:"keywordsAdded"`
	CreatedAt     time.Time  `json:"createdAt"`
	ExpiredAt     *time.Time `json:"expiredAt,omitempty"`
	Downloadable  bool       `json:"downloadable"`
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	limit := 20
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 50 {
		limit = 50
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	gens, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list generations", nil)
		return
	}

	resp := make([]HistoryItem, 0, len(gens))
	for _, g := range gens {
		resp = append(resp, HistoryItem{
			GenerationID:  g.ID,
			AnalysisID:    g.AnalysisID,
			CompanyName:   g.CompanyName,
			JobTitle:      g.JobTitle,
			FileName:      g.FileName,
			RenderPath:    g.RenderPath,
			ATSBefore:     g.ATSBefore,
			ATSAfter:      g.ATSAfter,
			KeywordsAdded: nonNilStrings(g.KeywordsAdded),
			CreatedAt:     g.CreatedAt,
			ExpiredAt:     g.ExpiredAt,
			Downloadable:  g.ExpiredAt == nil,
		})
	}

	respond.JSON(c, http.StatusOK, resp)
}
