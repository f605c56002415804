package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resume-analyzer/internal/ai"
	"github.com/spigell/resume-analyzer/internal/analysis"
	"github.com/spigell/resume-analyzer/internal/pipeline"
	"github.com/spigell/resume-analyzer/internal/store"
)

type analyzerFunc func(ctx context.Context, resumeText, jobDescription string) (*analysis.Result, error)

func (f analyzerFunc) Analyze(ctx context.Context, resumeText, jobDescription string) (*analysis.Result, error) {
	return f(ctx, resumeText, jobDescription)
}

func janeDoe() *analysis.Result {
	return &analysis.Result{
		Name:                    "Jane Doe",
		CoreSkillsSummary:       "...",
		MatchScorePercent:       75,
		MissingSkills:           []string{"A", "B", "C"},
		RecommendedImprovements: []string{"X", "Y", "Z"},
	}
}

func setupRouter(t *testing.T, analyzer ai.Analyzer) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := store.New(store.Config{URL: "sqlite://:memory:"}, zap.NewNop())
	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(func() { _ = s.Disconnect() })

	return New(pipeline.New(s, analyzer, zap.NewNop()), s, zap.NewNop()), s
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	switch b := body.(type) {
	case nil:
	case string:
		payload = []byte(b)
	default:
		var err error
		payload, err = json.Marshal(b)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAnalyzeAndStatus(t *testing.T) {
	router, _ := setupRouter(t, analyzerFunc(func(context.Context, string, string) (*analysis.Result, error) {
		return janeDoe(), nil
	}))

	w := doJSON(t, router, http.MethodPost, "/analyze", map[string]string{
		"resume_text":     "Jane Doe ... Python, SQL",
		"job_description": "... Python required",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var sub pipeline.Submission
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sub))
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, analysis.StatusCompleted, sub.Status)
	assert.Equal(t, "Analysis completed successfully.", sub.Message)

	w = doJSON(t, router, http.MethodGet, "/status/"+sub.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rec analysis.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, sub.ID, rec.ID)
	assert.Equal(t, analysis.StatusCompleted, rec.Status)
	assert.Equal(t, "Jane Doe ... Python, SQL", rec.RequestData.ResumeText)
	assert.Equal(t, janeDoe(), rec.AnalysisResult)
	assert.Nil(t, rec.ErrorDetail)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.NotContains(t, raw, "_id")
	assert.Contains(t, raw, "timestamp_start")
	assert.Contains(t, raw, "timestamp_end")
}

func TestAnalyzeFailureIsReturnedAsData(t *testing.T) {
	router, _ := setupRouter(t, analyzerFunc(func(context.Context, string, string) (*analysis.Result, error) {
		return nil, &ai.Error{Kind: ai.KindUpstream, Model: "gemini-2.5-flash", Message: "generate content", Err: errors.New("400 INVALID_ARGUMENT")}
	}))

	w := doJSON(t, router, http.MethodPost, "/analyze", map[string]string{
		"resume_text":     "resume",
		"job_description": "job",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var sub pipeline.Submission
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sub))
	assert.Equal(t, analysis.StatusFailed, sub.Status)
	assert.Contains(t, sub.Message, "INVALID_ARGUMENT")

	w = doJSON(t, router, http.MethodGet, "/status/"+sub.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Equal(t, "FAILED", raw["status"])
	assert.Nil(t, raw["analysis_result"])
	assert.Contains(t, raw["error_detail"], "INVALID_ARGUMENT")
}

func TestAnalyzeBadRequest(t *testing.T) {
	called := false
	router, s := setupRouter(t, analyzerFunc(func(context.Context, string, string) (*analysis.Result, error) {
		called = true
		return janeDoe(), nil
	}))

	cases := map[string]any{
		"empty resume":      map[string]string{"resume_text": "", "job_description": "job"},
		"missing job":       map[string]string{"resume_text": "resume"},
		"whitespace resume": map[string]string{"resume_text": "  \n", "job_description": "job"},
		"malformed json":    `{"resume_text": `,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/analyze", body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, ErrCodeBadRequest, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}

	assert.False(t, called, "analyzer must not run for rejected input")

	db, err := s.DB()
	require.NoError(t, err)
	var count int64
	require.NoError(t, db.Table("analyses").Count(&count).Error)
	assert.Zero(t, count)
}

func TestStatusUnknownID(t *testing.T) {
	router, _ := setupRouter(t, ai.Sample{})

	w := doJSON(t, router, http.MethodGet, "/status/does-not-exist", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrCodeNotFound, resp.Code)
	assert.Equal(t, "Analysis ID not found", resp.Error)
}

func TestStoreNotConnected(t *testing.T) {
	gin.SetMode(gin.TestMode)

	s := store.New(store.Config{}, zap.NewNop())
	router := New(pipeline.New(s, ai.Sample{}, zap.NewNop()), s, zap.NewNop())

	w := doJSON(t, router, http.MethodPost, "/analyze", map[string]string{
		"resume_text":     "resume",
		"job_description": "job",
	})
	require.Equal(t, http.StatusServiceUnavailable, w.Code, w.Body.String())

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrCodeConfiguration, resp.Code)

	w = doJSON(t, router, http.MethodGet, "/status/any", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}

func TestHealthz(t *testing.T) {
	router, _ := setupRouter(t, ai.Sample{})

	w := doJSON(t, router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRecoveryReturnsEnvelope(t *testing.T) {
	router, _ := setupRouter(t, analyzerFunc(func(context.Context, string, string) (*analysis.Result, error) {
		return janeDoe(), nil
	}))
	router.GET("/boom", func(*gin.Context) { panic("boom") })

	w := doJSON(t, router, http.MethodGet, "/boom", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrCodeInternal, resp.Code)
}

type brokenPipeline struct{ err error }

func (b brokenPipeline) Submit(context.Context, analysis.Request) (*pipeline.Submission, error) {
	return nil, b.err
}

func (b brokenPipeline) Get(context.Context, string) (*analysis.Record, error) {
	return nil, b.err
}

func TestPipelineErrorLogFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, observed := observer.New(zapcore.ErrorLevel)
	router := New(brokenPipeline{err: errors.New("record completed analysis: disk full")}, nil, zap.New(core))

	w := doJSON(t, router, http.MethodPost, "/analyze", map[string]string{
		"resume_text":     "resume",
		"job_description": "job",
	})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	w = doJSON(t, router, http.MethodGet, "/status/abc", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	entries := observed.FilterMessage("pipeline error").All()
	require.Len(t, entries, 2)

	submit := entries[0].ContextMap()
	assert.NotContains(t, submit, "analysis_id")
	assert.Equal(t, "/analyze", submit["route"])

	status := entries[1].ContextMap()
	assert.Equal(t, "abc", status["analysis_id"])
	assert.Equal(t, "/status/:id", status["route"])
}
