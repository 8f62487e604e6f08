package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molscore/internal/application/scoring"
	domain "github.com/turtacn/molscore/internal/domain/scoring"
	"github.com/turtacn/molscore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscore/internal/interfaces/http/handlers"
)

type mockScorer struct{ mock.Mock }

func (m *mockScorer) Score(ctx context.Context, req scoring.Request) (*scoring.Result, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*scoring.Result)
	return res, args.Error(1)
}

func (m *mockScorer) Properties() []scoring.PropertyInfo {
	return m.Called().Get(0).([]scoring.PropertyInfo)
}

func (m *mockScorer) Preview(property string) (*scoring.Preview, error) {
	args := m.Called(property)
	pv, _ := args.Get(0).(*scoring.Preview)
	return pv, args.Error(1)
}

func (m *mockScorer) DefaultProperty() domain.Selector { return domain.SelectorQED }

type routeRecorder struct{ routes []string }

func (r *routeRecorder) RecordHTTPRequest(_, route string, _ int, _ time.Duration) {
	r.routes = append(r.routes, route)
}

func newTestRouter(s *mockScorer, rec *routeRecorder) http.Handler {
	return NewRouter(RouterConfig{
		ScoreHandler:   handlers.NewScoreHandler(s, 0, nil),
		HealthHandler:  handlers.NewHealthHandler("test", nil),
		Logger:         logging.NewNopLogger(),
		HTTPMetrics:    rec,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
	})
}

func TestRouter_Score(t *testing.T) {
	s := &mockScorer{}
	score := 0.5
	s.On("Score", mock.Anything, mock.MatchedBy(func(req scoring.Request) bool {
		return req.Molecule == "c1ccccc1" && req.RequestID != ""
	})).Return(&scoring.Result{Property: "qed", Label: "QED", Value: "0.5", Score: &score}, nil)
	rec := &routeRecorder{}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/scores", strings.NewReader(`{"molecule":"c1ccccc1"}`))
	newTestRouter(s, rec).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"value":"0.5"`)
	assert.Equal(t, []string{"/api/v1/scores"}, rec.routes)
	s.AssertExpectations(t)
}

func TestRouter_Properties(t *testing.T) {
	s := &mockScorer{}
	s.On("Properties").Return([]scoring.PropertyInfo{{Name: "qed"}})

	w := httptest.NewRecorder()
	newTestRouter(s, &routeRecorder{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/properties", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body handlers.PropertiesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "qed", body.Default)
	require.Len(t, body.Properties, 1)
}

func TestRouter_PreviewJob(t *testing.T) {
	s := &mockScorer{}
	s.On("Preview", "pmi").Return(&scoring.Preview{Property: "pmi", Job: map[string]any{"run_type": "scoring"}}, nil)

	w := httptest.NewRecorder()
	newTestRouter(s, &routeRecorder{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/properties/pmi/job", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"run_type":"scoring"`)
	s.AssertExpectations(t)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	h := newTestRouter(&mockScorer{}, &routeRecorder{})

	for path, want := range map[string]string{
		"/healthz": `"status":"alive"`,
		"/readyz":  `"status":"ready"`,
		"/metrics": "# metrics",
	} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), want, path)
	}
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	rec := &routeRecorder{}
	h := newTestRouter(&mockScorer{}, rec)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/scores", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRouter_RecoversPanics(t *testing.T) {
	s := &mockScorer{}
	s.On("Properties").Run(func(mock.Arguments) { panic("boom") }).Return([]scoring.PropertyInfo(nil))

	w := httptest.NewRecorder()
	newTestRouter(s, &routeRecorder{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/properties", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

//Personal.AI order the ending
