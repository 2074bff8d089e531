package generations

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"resume-optimizer/internal/analyses"
	"resume-optimizer/internal/pipeline"
	"resume-optimizer/internal/session"
	"resume-optimizer/internal/shared/storage/object"
	"resume-optimizer/internal/shared/telemetry"
	"resume-optimizer/internal/shared/util"
	"resume-optimizer/resume/latex"
	"resume-optimizer/resume/model"
	"resume-optimizer/resume/render"
)

const (
	// DefaultURLTTL is how long a download link stays valid.
	DefaultURLTTL = 30 * time.Minute
	pdfType       = "application/pdf"
)

// AnalysisSource returns a caller's cached analysis.
// *analyses.Service implements it.
type AnalysisSource interface {
	Get(ctx context.Context, userID, analysisID string) (analyses.Session, error)
}

// Service turns cached analyses into downloadable documents.
type Service struct {
	Pipeline      *pipeline.Pipeline
	Analyses      AnalysisSource
	Sessions      session.Store[Session]
	Repo          Repo
	Store         object.ObjectStore
	URLTTL        time.Duration
	DefaultFormat pipeline.Format

	now   func() time.Time
	newID func() string
}

// NewService constructs a Service.
func NewService(p *pipeline.Pipeline, src AnalysisSource, sessions session.Store[Session], repo Repo, store object.ObjectStore) *Service {
	return &Service{
		Pipeline:      p,
		Analyses:      src,
		Sessions:      sessions,
		Repo:          repo,
		Store:         store,
		URLTTL:        DefaultURLTTL,
		DefaultFormat: pipeline.FormatLatex,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// GenerationError is a pipeline failure. Diagnostics hold compiler or
// validator output and are only shown outside production.
type GenerationError struct {
	Err         error
	Diagnostics []string
}

func (e *GenerationError) Error() string { return "generate resume: " + e.Err.Error() }
func (e *GenerationError) Unwrap() error { return e.Err }

func newGenerationError(err error) *GenerationError {
	ge := &GenerationError{Err: err}
	var compileErr *render.CompileError
	var markupErr *latex.ValidationError
	switch {
	case errors.As(err, &compileErr):
		ge.Diagnostics = compileErr.Diagnostics
	case errors.As(err, &markupErr):
		ge.Diagnostics = markupErr.Problems
	}
	return ge
}

// Result is the generate response payload.
type Result struct {
	GenerationID   string       `json:"generationId"`
	Status         string       `json:"status"`
	DownloadURL    string       `json:"downloadUrl"`
	ExpiresIn      int          `json:"expiresIn"`
	FileName       string       `json:"fileName"`
	Format         string       `json:"format"`
	RenderPath     string       `json:"renderPath"`
	FallbackReason string       `json:"fallbackReason,omitempty"`
	Optimization   Optimization `json:"optimization"`
	Message        string       `json:"message"`
}

type Optimization struct {
	KeywordsAdded  []string `json:"keywordsAdded"`
	KeywordsGained []string `json:"keywordsGained"`
	ChangesMade    []string `json:"changesMade"`
	ATSScoreBefore int      `json:"atsScoreBefore"`
	ATSScoreAfter  int      `json:"atsScoreAfter"`
	Warning        string   `json:"warning,omitempty"`
}

// discard removes an artifact no session will ever point at.
func (s *Service) discard(ctx context.Context, key string) {
	err := s.Store.Delete(context.WithoutCancel(ctx), key)
	if err != nil && !errors.Is(err, object.ErrNotFound) {
		telemetry.Error("generation.orphan_cleanup_failed", map[string]any{"key": key, "error": err})
	}
}

// Generate optimizes and renders the analysis, stores the PDF and hands back
// a signed download URL.
func (s *Service) Generate(ctx context.Context, userID string, req GenerateRequest) (Result, error) {
	in, err := req.validate(s.DefaultFormat)
	if err != nil {
		return Result{}, err
	}
	sess, err := s.Analyses.Get(ctx, userID, in.analysisID)
	if err != nil {
		switch {
		case errors.Is(err, analyses.ErrNotFound):
			return Result{}, ErrNotFound
		case errors.Is(err, analyses.ErrForbidden):
			return Result{}, ErrForbidden
		}
		return Result{}, err
	}

	out, err := s.Pipeline.Generate(ctx, pipeline.Input{
		Sections:       sess.Sections,
		Contact:        sess.Contact,
		Keywords:       sess.Keywords,
		JobDescription: sess.JobDescription,
		JobTitle:       sess.JobTitle,
		Company:        sess.CompanyName,
		EditType:       in.editType,
		FocusSections:  focusSections(sess, in.sections),
		Skills:         in.skills,
		Instructions:   in.instructions,
		Format:         in.format,
	})
	if err != nil {
		return Result{}, newGenerationError(err)
	}

	now := s.now().UTC()
	genID := s.newID()
	key := object.ArtifactKey(userID, genID, ".pdf")
	if _, err := s.Store.Put(ctx, key, pdfType, bytes.NewReader(out.PDF)); err != nil {
		return Result{}, fmt.Errorf("upload artifact: %w", err)
	}
	fileName := util.ResumeFileName(sess.CompanyName, now)
	url, err := s.Store.SignedURL(ctx, key, s.urlTTL(), fileName)
	if err != nil {
		s.discard(ctx, key)
		return Result{}, fmt.Errorf("sign download url: %w", err)
	}

	if err := s.Sessions.Put(ctx, genID, Session{
		ID:         genID,
		UserID:     userID,
		AnalysisID: sess.ID,
		StorageKey: key,
		FileName:   fileName,
		CreatedAt:  now,
	}); err != nil {
		s.discard(ctx, key)
		return Result{}, fmt.Errorf("store generation session: %w", err)
	}

	summary := out.Optimization.Summary
	if s.Repo != nil {
		if err := s.Repo.Create(ctx, Generation{
			ID:            genID,
			UserID:        userID,
			AnalysisID:    sess.ID,
			CompanyName:   sess.CompanyName,
			JobTitle:      sess.JobTitle,
			StorageKey:    key,
			FileName:      fileName,
			RenderPath:    out.RenderPath,
			ATSBefore:     summary.ATSScoreBefore,
			ATSAfter:      summary.ATSScoreAfter,
			KeywordsAdded: summary.KeywordsAdded,
			CreatedAt:     now,
		}); err != nil {
			telemetry.Warn("generation.history_failed", map[string]any{"generation_id": genID, "error": err})
		}
	}

	telemetry.Info("generation.completed", map[string]any{
		"request_id":    telemetry.RequestID(ctx),
		"generation_id": genID,
		"analysis_id":   sess.ID,
		"user_id":       userID,
		"render_path":   out.RenderPath,
		"bytes":         len(out.PDF),
	})
	return Result{
		GenerationID:   genID,
		Status:         "completed",
		DownloadURL:    url,
		ExpiresIn:      int(s.urlTTL().Seconds()),
		FileName:       fileName,
		Format:         string(out.Format),
		RenderPath:     out.RenderPath,
		FallbackReason: out.FallbackReason,
		Optimization: Optimization{
			KeywordsAdded:  nonNilStrings(summary.KeywordsAdded),
			KeywordsGained: nonNilStrings(out.Coverage.Gained),
			ChangesMade:    nonNilStrings(summary.ChangesMade),
			ATSScoreBefore: summary.ATSScoreBefore,
			ATSScoreAfter:  summary.ATSScoreAfter,
			Warning:        out.Optimization.Err,
		},
		Message: "Your resume has been generated successfully",
	}, nil
}

// Download returns a freshly signed URL for a live generation.
func (s *Service) Download(ctx context.Context, userID, generationID string) (string, error) {
	sess, err := s.Sessions.Get(ctx, generationID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	if sess.UserID != userID {
		return "", ErrForbidden
	}
	return s.Store.SignedURL(ctx, sess.StorageKey, s.urlTTL(), sess.FileName)
}

// List returns the caller's generation history.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Generation, error) {
	if s.Repo == nil {
		return []Generation{}, nil
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Expire deletes the artifact of an expired generation. It is installed as
// the generation store's expiry callback.
func (s *Service) Expire(ctx context.Context, id string, sess Session) {
	fields := map[string]any{"generation_id": id, "storage_key": sess.StorageKey}
	if err := s.Store.Delete(ctx, sess.StorageKey); err != nil && !errors.Is(err, object.ErrNotFound) {
		fields["error"] = err
		telemetry.Error("generation.cleanup_failed", fields)
		return
	}
	if s.Repo != nil {
		if err := s.Repo.MarkExpired(ctx, id, s.now().UTC()); err != nil && !errors.Is(err, ErrNotFound) {
			fields["error"] = err
			telemetry.Warn("generation.mark_expired_failed", fields)
		}
	}
	telemetry.Info("generation.expired", fields)
}

func (s *Service) urlTTL() time.Duration {
	if s.URLTTL <= 0 {
		return DefaultURLTTL
	}
	return s.URLTTL
}

// focusSections resolves selected suggestion IDs to their section type and
// accepts bare category names. Unknown selections are dropped.
func focusSections(sess analyses.Session, selected []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, sel := range selected {
		name := ""
		if sg, ok := sess.Suggestion(sel); ok {
			name = sg.Type
		} else if c, ok := model.ParseCategory(sel); ok {
			name = string(c)
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
