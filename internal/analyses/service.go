package analyses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"resume-optimizer/internal/analyses/recommendations"
	"resume-optimizer/internal/extract"
	"resume-optimizer/internal/pipeline"
	"resume-optimizer/internal/session"
	"resume-optimizer/internal/shared/metrics"
	"resume-optimizer/internal/shared/telemetry"
)

const maxMissingSkills = 10

// Service runs the analyze flow and owns the analysis session cache.
type Service struct {
	Pipeline *pipeline.Pipeline
	Sessions session.Store[Session]
	TTL      time.Duration

	now   func() time.Time
	newID func() string
}

// NewService constructs a Service. ttl is only reported to clients; the
// store enforces expiry.
func NewService(p *pipeline.Pipeline, sessions session.Store[Session], ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	return &Service{
		Pipeline: p,
		Sessions: sessions,
		TTL:      ttl,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Analyze extracts the résumé, normalizes and scores it against the job, and
// caches the result for a later generate call.
func (s *Service) Analyze(ctx context.Context, userID string, req AnalyzeRequest) (Response, error) {
	if userID == "" {
		return Response{}, fmt.Errorf("%w: missing user", ErrInvalidInput)
	}
	in, err := req.validate()
	if err != nil {
		return Response{}, err
	}

	extracted, err := s.extract(ctx, in)
	if err != nil {
		return Response{}, err
	}

	analysis, err := s.Pipeline.Analyze(ctx, extracted.Text, extracted.Contact, in.jobDescription)
	if err != nil {
		return Response{}, fmt.Errorf("analyze: %w", err)
	}

	advice := recommendations.Generate(recommendations.Input{
		ResumeText: extracted.Text,
		JobTitle:   in.jobTitle,
		Matched:    analysis.Matched,
		Missing:    analysis.Missing,
	}, nil)

	now := s.now().UTC()
	sess := Session{
		ID:             s.newID(),
		UserID:         userID,
		ResumeText:     extracted.Text,
		Sections:       analysis.Normalized.Sections,
		Mapping:        analysis.Normalized.Mapping,
		Method:         analysis.Normalized.Method,
		Contact:        analysis.Contact,
		JobDescription: in.jobDescription,
		JobTitle:       in.jobTitle,
		CompanyName:    in.companyName,
		Keywords:       analysis.Keywords,
		Matched:        analysis.Matched,
		Missing:        analysis.Missing,
		Score:          analysis.Score,
		Suggestions:    advice.Sections,
		CreatedAt:      now,
	}
	if err := s.Sessions.Put(ctx, sess.ID, sess); err != nil {
		return Response{}, fmt.Errorf("store analysis session: %w", err)
	}
	metrics.IncAnalysis()
	telemetry.Info("analysis.completed", map[string]any{
		"request_id":    telemetry.RequestID(ctx),
		"analysis_id":   sess.ID,
		"user_id":       userID,
		"method":        string(sess.Method),
		"keywords":      len(sess.Keywords),
		"matched":       len(sess.Matched),
		"current_score": sess.Score.Current,
	})

	return Response{
		AnalysisID: sess.ID,
		Summary: Summary{
			OverallScore:   analysis.Score.Overall,
			CurrentScore:   analysis.Score.Current,
			PotentialScore: analysis.Score.Potential,
			KeywordMatches: nonNil(analysis.Matched),
			MissingSkills:  nonNil(head(analysis.Missing, maxMissingSkills)),
			Suggestions:    advice.Summary,
		},
		Sections: advice.Sections,
		Skills: Skills{
			Current:         nonNil(analysis.Matched),
			Suggested:       nonNil(advice.SuggestedSkills),
			RelevanceScores: advice.Relevance,
		},
		Normalizer: sess.Method,
		ExpiresAt:  now.Add(s.TTL),
	}, nil
}

func (s *Service) extract(ctx context.Context, in input) (extract.Result, error) {
	if in.file == nil {
		return extract.Result{Text: in.text, Contact: extract.ExtractContact(in.text)}, nil
	}
	res, err := extract.Extract(ctx, in.file, extract.MimePDF, "resume.pdf")
	if err != nil {
		if errors.Is(err, extract.ErrNoText) || errors.Is(err, extract.ErrUnsupportedFormat) {
			return extract.Result{}, &ValidationError{Fields: []FieldError{{Field: "resumeFile", Issue: "unreadable"}}}
		}
		return extract.Result{}, fmt.Errorf("extract resume: %w", err)
	}
	return res, nil
}

// Get returns the caller's cached analysis.
func (s *Service) Get(ctx context.Context, userID, analysisID string) (Session, error) {
	sess, err := s.Sessions.Get(ctx, analysisID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	if sess.UserID != userID {
		return Session{}, ErrForbidden
	}
	return sess, nil
}

func head(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
