package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/dream-diary/internal/api/middleware"
	"github.com/phrazzld/dream-diary/internal/domain"
	"github.com/phrazzld/dream-diary/internal/events"
	"github.com/phrazzld/dream-diary/internal/platform/logger"
	"github.com/phrazzld/dream-diary/internal/platform/memory"
	"github.com/phrazzld/dream-diary/internal/service"
	"github.com/phrazzld/dream-diary/internal/store"
	"github.com/phrazzld/dream-diary/internal/testutils"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

type testServer struct {
	kv      *testutils.FailingKV
	router  http.Handler
	entries service.EntryService
	conns   service.ConnectionService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log, _ := logger.GetTestLogger(t)
	keys := store.NewKeys(store.DefaultKeyPrefix)
	kv := testutils.NewFailingKV()
	clock := func() time.Time { return testNow }

	entryStore := memory.NewEntryStore(kv, keys, log)
	connStore := memory.NewConnectionStore(kv, keys.Connections, log)
	ids := domain.NewIDGenerator(clock)
	gate := service.NewGate()
	emitter := events.NewInMemoryEventEmitter(log)

	connSvc, err := service.NewConnectionService(connStore, entryStore, ids, gate, clock, log)
	require.NoError(t, err)
	emitter.RegisterHandler(connSvc)
	entrySvc, err := service.NewEntryService(entryStore, emitter, ids, gate, clock, log)
	require.NoError(t, err)
	querySvc, err := service.NewQueryService(entrySvc, connSvc, log)
	require.NoError(t, err)
	statsSvc, err := service.NewStatsService(entryStore, connStore, clock, log)
	require.NoError(t, err)
	transferSvc, err := service.NewTransferService(entryStore, connStore, ids, gate, clock, log)
	require.NoError(t, err)

	dreams := NewEntryHandler(entrySvc, domain.KindDream, log)
	lifeEvents := NewEntryHandler(entrySvc, domain.KindEvent, log)
	connections := NewConnectionHandler(connSvc, log)
	journal := NewJournalHandler(querySvc, statsSvc, transferSvc, clock, log)

	r := chi.NewRouter()
	r.Use(middleware.Trace(log))
	r.Get("/health", Health)
	r.Route("/api", func(r chi.Router) {
		mountEntries := func(path string, h *EntryHandler) {
			r.Route(path, func(r chi.Router) {
				r.Get("/", h.ListEntries)
				r.Post("/", h.CreateEntry)
				r.Get("/{id}", h.GetEntry)
				r.Put("/{id}", h.UpdateEntry)
				r.Delete("/{id}", h.DeleteEntry)
			})
		}
		mountEntries("/dreams", dreams)
		mountEntries("/events", lifeEvents)
		r.Route("/connections", func(r chi.Router) {
			r.Get("/", connections.ListConnections)
			r.Post("/", connections.CreateConnection)
			r.Get("/{id}", connections.GetConnection)
			r.Delete("/{id}", connections.DeleteConnection)
		})
		r.Get("/search", journal.Search)
		r.Get("/stats", journal.Stats)
		r.Get("/export", journal.Export)
		r.Post("/import", journal.Import)
	})

	return &testServer{kv: kv, router: r, entries: entrySvc, conns: connSvc}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// mutation decodes a MutationResponse whose data is of type T.
type mutation[T any] struct {
	Data    T      `json:"data"`
	Warning string `json:"warning"`
	TraceID string `json:"trace_id"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) createDream(t *testing.T, title, content string) *domain.Entry {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/dreams", EntryRequest{Title: title, Content: content, Date: "2024-01-01"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[mutation[*domain.Entry]](t, w).Data
}

func (s *testServer) createEvent(t *testing.T, title, content string) *domain.Entry {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/events", EntryRequest{Title: title, Content: content, Date: "2024-01-02"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[mutation[*domain.Entry]](t, w).Data
}
