package analyses

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"resume-optimizer/internal/pipeline"
	"resume-optimizer/internal/sections"
	"resume-optimizer/internal/session"
	"resume-optimizer/internal/shared/auth"
	"resume-optimizer/internal/shared/server/middleware"
)

const testSecret = "test-secret"

const resumeText = `Jane Doe
jane@example.com | 555-123-4567

EXPERIENCE
Software Engineer at Acme
• Built payment services with Python and PostgreSQL
• Led migration of batch jobs to a streaming pipeline

SKILLS
Languages: Python, Go`

const jobDescription = "We are hiring a backend engineer. Requires Python, React, Docker. Experience with Kubernetes is a plus."

type testEnv struct {
	router   *gin.Engine
	verifier *auth.Verifier
	store    *session.MemoryStore[Session]
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := &testEnv{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return env.now }

	verifier, err := auth.NewVerifier(testSecret, "authenticated")
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	env.verifier = verifier.WithClock(clock)
	env.store = session.NewMemoryStore[Session](time.Hour).WithClock(clock)

	svc := NewService(pipeline.New(sections.Heuristic{}, nil, nil, nil, nil), env.store, time.Hour)
	svc.now = clock

	router := gin.New()
	api := router.Group("/api/v1", middleware.Auth(env.verifier))
	NewHandler(svc).RegisterRoutes(api)
	env.router = router
	return env
}

func (e *testEnv) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		token, err := e.verifier.Sign(user, time.Hour*3)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func validRequest() AnalyzeRequest {
	return AnalyzeRequest{
		ResumeText:     resumeText,
		JobDescription: jobDescription,
		JobTitle:       "Backend Engineer",
		CompanyName:    "Acme, Inc.",
	}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestAnalyzeTextResume(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/resume/analyze", "user-1", validRequest())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)

	if resp.AnalysisID == "" {
		t.Fatalf("expected analysis id")
	}
	if len(resp.Summary.Suggestions) != 4 {
		t.Fatalf("expected four suggestions, got %v", resp.Summary.Suggestions)
	}
	if !contains(resp.Summary.KeywordMatches, "Python") {
		t.Fatalf("expected Python to match, got %v", resp.Summary.KeywordMatches)
	}
	for _, kw := range []string{"React", "Docker"} {
		if !contains(resp.Summary.MissingSkills, kw) {
			t.Fatalf("expected %s to be missing, got %v", kw, resp.Summary.MissingSkills)
		}
	}
	if resp.Summary.CurrentScore != 50+3*len(resp.Summary.KeywordMatches) {
		t.Fatalf("unexpected current score %d", resp.Summary.CurrentScore)
	}
	if len(resp.Sections) != 1 || !strings.HasPrefix(resp.Sections[0].ID, "exp-") {
		t.Fatalf("expected one experience suggestion, got %+v", resp.Sections)
	}
	if resp.Skills.RelevanceScores["Python"] != 0.9 || resp.Skills.RelevanceScores["React"] != 0.7 {
		t.Fatalf("unexpected relevance: %v", resp.Skills.RelevanceScores)
	}
	if !resp.ExpiresAt.Equal(env.now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %s", resp.ExpiresAt)
	}

	sess, err := env.store.Get(t.Context(), resp.AnalysisID)
	if err != nil {
		t.Fatalf("expected cached session: %v", err)
	}
	if sess.UserID != "user-1" || sess.CompanyName != "Acme Inc" {
		t.Fatalf("unexpected session owner/company: %q %q", sess.UserID, sess.CompanyName)
	}
	if !strings.Contains(sess.Sections["experience"], "Software Engineer at Acme") {
		t.Fatalf("experience not normalized: %v", sess.Sections)
	}
	if sess.Contact.Email != "jane@example.com" {
		t.Fatalf("expected extracted email, got %q", sess.Contact.Email)
	}
}

func TestAnalyzeValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name   string
		mutate func(*AnalyzeRequest)
		status int
		field  string
	}{
		{"short resume", func(r *AnalyzeRequest) { r.ResumeText = "too short" }, http.StatusBadRequest, "resumeText"},
		{"missing resume", func(r *AnalyzeRequest) { r.ResumeText = "" }, http.StatusBadRequest, "resumeText"},
		{"short job", func(r *AnalyzeRequest) { r.JobDescription = "Go dev" }, http.StatusBadRequest, "jobDescription"},
		{"title too short", func(r *AnalyzeRequest) { r.JobTitle = "x" }, http.StatusBadRequest, "jobTitle"},
		{"company only symbols", func(r *AnalyzeRequest) { r.CompanyName = "!!!" }, http.StatusBadRequest, "companyName"},
		{"not a pdf", func(r *AnalyzeRequest) {
			r.ResumeText = ""
			r.ResumeFile = base64.StdEncoding.EncodeToString([]byte("hello world"))
		}, http.StatusBadRequest, "resumeFile"},
		{"bad base64", func(r *AnalyzeRequest) {
			r.ResumeText = ""
			r.ResumeFile = "%%%"
		}, http.StatusBadRequest, "resumeFile"},
		{"too large", func(r *AnalyzeRequest) {
			r.ResumeText = ""
			r.ResumeFile = strings.Repeat("A", (MaxFileBytes/3+2)*4)
		}, http.StatusRequestEntityTooLarge, "resumeFile"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			rec := env.do(t, http.MethodPost, "/api/v1/resume/analyze", "user-1", req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), `"field":"`+tc.field+`"`) {
				t.Fatalf("expected field %s in %s", tc.field, rec.Body.String())
			}
		})
	}
	if env.store.Len() != 0 {
		t.Fatalf("rejected requests must not create sessions")
	}
}

func TestAnalyzeRejectsOversizedBody(t *testing.T) {
	env := newTestEnv(t)
	req := validRequest()
	req.JobDescription = strings.Repeat("a", MaxRequestBytes)

	rec := env.do(t, http.MethodPost, "/api/v1/resume/analyze", "user-1", req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"code":"`+ErrorCodeTooLarge+`"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if env.store.Len() != 0 {
		t.Fatalf("oversized request must not create a session")
	}
}

func TestAnalyzeRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/v1/resume/analyze", "", validRequest())
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGetAnalysisOwnershipAndExpiry(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/v1/resume/analyze", "user-1", validRequest())
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze failed: %d %s", rec.Code, rec.Body.String())
	}
	id := decodeResponse(t, rec).AnalysisID

	if rec := env.do(t, http.MethodGet, "/api/v1/resume/analysis/"+id, "user-1", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/resume/analysis/"+id, "user-2", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/resume/analysis/not-a-uuid", "user-1", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	env.now = env.now.Add(time.Hour)
	if rec := env.do(t, http.MethodGet, "/api/v1/resume/analysis/"+id, "user-1", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after expiry, got %d", rec.Code)
	}
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}
