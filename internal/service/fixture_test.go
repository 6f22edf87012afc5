package service

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/dream-diary/internal/domain"
	"github.com/phrazzld/dream-diary/internal/events"
	"github.com/phrazzld/dream-diary/internal/platform/logger"
	"github.com/phrazzld/dream-diary/internal/platform/memory"
	"github.com/phrazzld/dream-diary/internal/store"
	"github.com/phrazzld/dream-diary/internal/testutils"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fixture wires every service on in-memory stores.
type fixture struct {
	kv       *testutils.FailingKV
	clock    *testutils.Clock
	entries  *memory.EntryStore
	conns    *memory.ConnectionStore
	entry    EntryService
	conn     ConnectionService
	query    QueryService
	stats    StatsService
	transfer TransferService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log, _ := logger.GetTestLogger(t)
	keys := store.NewKeys(store.DefaultKeyPrefix)
	kv := testutils.NewFailingKV()
	clock := testutils.NewClock(time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC))

	entries := memory.NewEntryStore(kv, keys, log)
	conns := memory.NewConnectionStore(kv, keys.Connections, log)
	ids := domain.NewIDGenerator(clock.Now)
	gate := NewGate()
	emitter := events.NewInMemoryEventEmitter(log)

	connSvc, err := NewConnectionService(conns, entries, ids, gate, clock.Now, log)
	require.NoError(t, err)
	emitter.RegisterHandler(connSvc)

	entrySvc, err := NewEntryService(entries, emitter, ids, gate, clock.Now, log)
	require.NoError(t, err)
	querySvc, err := NewQueryService(entrySvc, connSvc, log)
	require.NoError(t, err)
	statsSvc, err := NewStatsService(entries, conns, clock.Now, log)
	require.NoError(t, err)
	transferSvc, err := NewTransferService(entries, conns, ids, gate, clock.Now, log)
	require.NoError(t, err)

	return &fixture{
		kv:       kv,
		clock:    clock,
		entries:  entries,
		conns:    conns,
		entry:    entrySvc,
		conn:     connSvc,
		query:    querySvc,
		stats:    statsSvc,
		transfer: transferSvc,
	}
}

func (f *fixture) mustCreate(t *testing.T, kind domain.Kind, title, content string) *domain.Entry {
	t.Helper()
	e, err := f.entry.Create(context.Background(), kind, domain.EntryFields{
		Title:   title,
		Content: content,
		Date:    "2024-01-01",
	})
	require.NoError(t, err)
	return e
}

// MockEventEmitter mocks the events.EventEmitter interface
type MockEventEmitter struct {
	mock.Mock
}

func (m *MockEventEmitter) EmitEvent(ctx context.Context, event *events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
