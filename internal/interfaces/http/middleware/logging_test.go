package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/turtacn/molscore/internal/infrastructure/monitoring/logging"
)

func newObservedLogger() (logging.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return logging.NewLoggerFromCore(core), logs
}

func TestRequestLogging_LevelsByStatus(t *testing.T) {
	tests := []struct {
		status  int
		level   string
		message string
	}{
		{http.StatusOK, "info", "http request completed"},
		{http.StatusBadRequest, "warn", "http request rejected"},
		{http.StatusBadGateway, "error", "http request failed"},
	}
	for _, tt := range tests {
		logger, logs := newObservedLogger()
		h := RequestLogging(logger, DefaultLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/scores", nil))

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, tt.level, entry.Level.String())
		assert.Equal(t, tt.message, entry.Message)
		assert.EqualValues(t, tt.status, entry.ContextMap()["status"])
	}
}

func TestRequestLogging_SkipsProbes(t *testing.T) {
	logger, logs := newObservedLogger()
	h := RequestLogging(logger, DefaultLoggingConfig())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Zero(t, logs.Len())
}

func TestRequestLogging_PropagatesRequestID(t *testing.T) {
	logger, logs := newObservedLogger()
	var seen string
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestLogging(logger, DefaultLoggingConfig()))
	r.Get("/x", func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(chimw.RequestIDHeader, "abc-123")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "abc-123", seen)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "abc-123", logs.All()[0].ContextMap()[logging.FieldRequestID])
}

//Personal.AI order the ending
