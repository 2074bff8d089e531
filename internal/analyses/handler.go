package analyses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"resume-optimizer/internal/shared/server/middleware"
	"resume-optimizer/internal/shared/server/respond"
	"resume-optimizer/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resume/analyze", h.analyze)
	rg.GET("/resume/analysis/:id", h.getAnalysis)
}

func (h *Handler) analyze(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxRequestBytes)
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeTooLarge, "File size exceeds 10MB limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid json body", nil)
		return
	}

	ctx := telemetry.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	resp, err := h.Svc.Analyze(ctx, userID, req)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr) && verr.TooLarge():
			respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeTooLarge, "File size exceeds 10MB limit", verr.Fields)
		case errors.As(err, &verr):
			respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid input", verr.Fields)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid input", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "An error occurred during analysis", nil)
		}
		return
	}

	c.Set(middleware.AnalysisIDKey, resp.AnalysisID)
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) getAnalysis(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	analysisID := c.Param("id")
	if _, err := uuid.Parse(analysisID); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "Invalid analysis ID", nil)
		return
	}

	sess, err := h.Svc.Get(c.Request.Context(), userID, analysisID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "Analysis not found or expired", nil)
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, "forbidden", "Unauthorized access to analysis", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to fetch analysis", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"analysisId":      sess.ID,
		"jobTitle":        sess.JobTitle,
		"companyName":     sess.CompanyName,
		"sections":        sess.Sections,
		"sectionMappings": sess.Mapping,
		"keywordMatches":  nonNil(sess.Matched),
		"missingSkills":   nonNil(sess.Missing),
		"score":           sess.Score,
		"createdAt":       sess.CreatedAt,
	})
}
