package app

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type memSink struct {
	entries []sinkEntry
}

type sinkEntry struct {
	level   string
	logType string
	message string
	meta    map[string]any
}

func (s *memSink) Record(ctx context.Context, level, logType, message string, meta map[string]any) error {
	s.entries = append(s.entries, sinkEntry{level: level, logType: logType, message: message, meta: meta})
	return nil
}

func TestErrorLogMiddlewareRecordsServerErrors(t *testing.T) {
	sink := &memSink{}
	logger := slog.Default()
	handler := ErrorLogMiddleware(sink, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/supplier-payments", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, sink.entries, 1)
	require.Equal(t, "error", sink.entries[0].level)
	require.Equal(t, "http", sink.entries[0].logType)
	require.Equal(t, http.StatusInternalServerError, sink.entries[0].meta["status"])
}

func TestErrorLogMiddlewareIgnoresClientOutcomes(t *testing.T) {
	sink := &memSink{}
	handler := ErrorLogMiddleware(sink, slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/banks", nil))
	require.Empty(t, sink.entries)
}
