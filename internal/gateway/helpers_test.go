package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/charank/mikasa/internal/chat"
	"github.com/charank/mikasa/internal/memory/sqlite"
	"github.com/charank/mikasa/internal/model"
	"github.com/charank/mikasa/internal/model/modeltest"
	"github.com/prometheus/client_golang/prometheus"
)

// newTestGateway builds a gateway over fresh sqlite stores and the given
// invoker, returning the router for httptest use.
func newTestGateway(t *testing.T, invoker model.Invoker) (*Gateway, http.Handler, *sqlite.Store) {
	t.Helper()

	dir := t.TempDir()
	store, err := sqlite.Open(sqlite.Config{
		MemoryPath:   filepath.Join(dir, "memory.db"),
		SessionsPath: filepath.Join(dir, "sessions.db"),
		WAL:          true,
	}, slog.Default())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	engine := chat.New(store.Fragments(), store.Transcript(), store.Modes(), invoker, chat.Config{
		Owner:             "Player",
		HistoryLimit:      20,
		DeleteRecentBatch: 3,
	}, slog.Default())

	metrics := NewMetrics("mikasa_test", prometheus.NewRegistry())

	g := New(Config{}, engine, store, metrics, "test-model", slog.Default())
	return g, g.buildRouter(), store
}

func echoInvoker(reply string) *modeltest.MockInvoker {
	return &modeltest.MockInvoker{
		CompleteFunc: func(context.Context, string) (string, error) {
			return reply, nil
		},
	}
}

// doJSON performs a request with a JSON body and decodes the JSON reply
// into out (when out is non-nil).
func doJSON(t *testing.T, handler http.Handler, method, path string, body, out any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if out != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec
}

// doJSONRaw serves a prebuilt request, for malformed-body cases.
func doJSONRaw(t *testing.T, handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}
