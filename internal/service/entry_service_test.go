package service

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/phrazzld/dream-diary/internal/domain"
	"github.com/phrazzld/dream-diary/internal/events"
	"github.com/phrazzld/dream-diary/internal/platform/memory"
	"github.com/phrazzld/dream-diary/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewEntryService_RequiresDependencies(t *testing.T) {
	t.Parallel()
	entries := memory.NewEntryStore(store.NewMemoryKVStore(), store.NewKeys("x_"), nil)
	emitter := events.NewInMemoryEventEmitter(nil)
	ids := domain.NewIDGenerator(nil)

	_, err := NewEntryService(nil, emitter, ids, NewGate(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = NewEntryService(entries, nil, ids, NewGate(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = NewEntryService(entries, emitter, nil, NewGate(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = NewEntryService(entries, emitter, ids, nil, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	svc, err := NewEntryService(entries, emitter, ids, NewGate(), nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestEntryService_Create(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		kind    domain.Kind
		fields  domain.EntryFields
		wantErr error
		check   func(t *testing.T, e *domain.Entry)
	}{
		{
			name: "dream keeps time and parses tags",
			kind: domain.KindDream,
			fields: domain.EntryFields{
				Title: "Flying", Content: "I flew", Date: "2024-01-01", Time: "07:15",
				Mood: domain.MoodExcited, Tags: "lucid, flying, ",
			},
			check: func(t *testing.T, e *domain.Entry) {
				assert.Equal(t, domain.KindDream, e.Type)
				assert.Equal(t, "07:15", e.Time)
				assert.Equal(t, []string{"lucid", "flying"}, e.Tags)
				assert.Equal(t, e.CreatedAt, e.UpdatedAt)
				assert.NotZero(t, e.ID)
			},
		},
		{
			name:   "event drops time and defaults mood and date",
			kind:   domain.KindEvent,
			fields: domain.EntryFields{Title: "Moved", Content: "New flat", Time: "10:00"},
			check: func(t *testing.T, e *domain.Entry) {
				assert.Empty(t, e.Time)
				assert.Equal(t, domain.MoodNeutral, e.Mood)
				assert.Equal(t, "2024-01-05", e.Date)
				assert.Equal(t, []string{}, e.Tags)
			},
		},
		{
			name:    "blank title",
			kind:    domain.KindDream,
			fields:  domain.EntryFields{Title: "   ", Content: "x"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "blank content",
			kind:    domain.KindEvent,
			fields:  domain.EntryFields{Title: "x", Content: "\n\t"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "unknown mood",
			kind:    domain.KindDream,
			fields:  domain.EntryFields{Title: "x", Content: "y", Mood: "furious"},
			wantErr: domain.ErrInvalidMood,
		},
		{
			name:    "malformed date",
			kind:    domain.KindDream,
			fields:  domain.EntryFields{Title: "x", Content: "y", Date: "01/02/2024"},
			wantErr: domain.ErrInvalidDate,
		},
		{
			name:    "unknown kind",
			kind:    domain.Kind("memory"),
			fields:  domain.EntryFields{Title: "x", Content: "y"},
			wantErr: domain.ErrInvalidKind,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)

			e, err := f.entry.Create(context.Background(), tc.kind, tc.fields)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, e)
				assert.Zero(t, f.entries.Count(context.Background(), domain.KindDream))
				return
			}
			require.NoError(t, err)
			tc.check(t, e)
		})
	}
}

func TestEntryService_UniqueIDsWithFrozenClock(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	seen := map[int64]bool{}
	for range 50 {
		e := f.mustCreate(t, domain.KindDream, "t", "c")
		assert.False(t, seen[e.ID], "id %d issued twice", e.ID)
		seen[e.ID] = true
	}
	assert.Equal(t, 50, f.entries.Count(context.Background(), domain.KindDream))
}

func TestEntryService_Update(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	first := f.mustCreate(t, domain.KindDream, "one", "c")
	second := f.mustCreate(t, domain.KindDream, "two", "c")

	f.clock.Advance(time.Minute)
	updated, err := f.entry.Update(ctx, domain.KindDream, first.ID, domain.EntryFields{
		Title: "ONE", Content: "changed", Date: "2024-01-03",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, updated.ID)
	assert.Equal(t, first.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, domain.MoodNeutral, updated.Mood, "absent fields fall back to defaults")

	list, err := f.entry.List(ctx, domain.KindDream)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID, "position is unchanged")
	assert.Equal(t, second.ID, list[1].ID)

	t.Run("frozen clock keeps updatedAt monotonic", func(t *testing.T) {
		again, err := f.entry.Update(ctx, domain.KindDream, first.ID, domain.EntryFields{Title: "a", Content: "b"})
		require.NoError(t, err)
		assert.False(t, again.UpdatedAt.Before(updated.UpdatedAt))
		assert.False(t, again.UpdatedAt.Before(again.CreatedAt))
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := f.entry.Update(ctx, domain.KindDream, 12345, domain.EntryFields{Title: "a", Content: "b"})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("wrong kind", func(t *testing.T) {
		_, err := f.entry.Update(ctx, domain.KindEvent, first.ID, domain.EntryFields{Title: "a", Content: "b"})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("invalid fields leave entry untouched", func(t *testing.T) {
		before, err := f.entry.Get(ctx, domain.KindDream, second.ID)
		require.NoError(t, err)

		_, err = f.entry.Update(ctx, domain.KindDream, second.ID, domain.EntryFields{Title: "", Content: "b"})
		assert.ErrorIs(t, err, domain.ErrValidation)

		after, err := f.entry.Get(ctx, domain.KindDream, second.ID)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestEntryService_DeleteCascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	dream := f.mustCreate(t, domain.KindDream, "d", "c")
	otherDream := f.mustCreate(t, domain.KindDream, "d2", "c")
	event := f.mustCreate(t, domain.KindEvent, "e", "c")

	_, err := f.conn.Create(ctx, dream.ID, event.ID, "")
	require.NoError(t, err)
	_, err = f.conn.Create(ctx, otherDream.ID, event.ID, "")
	require.NoError(t, err)

	require.NoError(t, f.entry.Delete(ctx, domain.KindDream, dream.ID))
	conns, err := f.conns.List(ctx)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, otherDream.ID, conns[0].DreamID)

	require.NoError(t, f.entry.Delete(ctx, domain.KindEvent, event.ID))
	assert.Zero(t, f.conns.Count(ctx))

	t.Run("absent id is a no-op", func(t *testing.T) {
		assert.NoError(t, f.entry.Delete(ctx, domain.KindDream, dream.ID))
	})
}

func TestEntryService_DeleteReportsHandlerFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	entries := memory.NewEntryStore(store.NewMemoryKVStore(), store.NewKeys("x_"), nil)
	emitter := &MockEventEmitter{}
	svc, err := NewEntryService(entries, emitter, domain.NewIDGenerator(nil), NewGate(), nil, nil)
	require.NoError(t, err)

	e, err := svc.Create(ctx, domain.KindEvent, domain.EntryFields{Title: "t", Content: "c"})
	require.NoError(t, err)

	cascadeErr := errors.New("cascade failed")
	emitter.On("EmitEvent", mock.Anything, mock.MatchedBy(func(ev *events.Event) bool {
		var p events.EntryDeletedPayload
		return ev.Type == events.TypeEntryDeleted &&
			ev.UnmarshalPayload(&p) == nil &&
			p.Kind == domain.KindEvent && p.EntryID == e.ID
	})).Return(cascadeErr).Once()

	err = svc.Delete(ctx, domain.KindEvent, e.ID)
	assert.ErrorIs(t, err, cascadeErr)
	assert.False(t, entries.Exists(ctx, domain.KindEvent, e.ID))
	emitter.AssertExpectations(t)
}

func TestEntryService_PersistenceFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.kv.SetFailing(true)

	e, err := f.entry.Create(ctx, domain.KindDream, domain.EntryFields{Title: "t", Content: "c"})
	require.Error(t, err)
	assert.True(t, store.IsPersistenceError(err))
	require.NotNil(t, e, "the entry is returned alongside the persistence error")

	got, err := f.entry.Get(ctx, domain.KindDream, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "t", got.Title)
}

func TestEntryService_Search(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	a := f.mustCreate(t, domain.KindDream, "Ocean", "blue water")
	b := f.mustCreate(t, domain.KindDream, "Forest", "green trees")
	_, err := f.entry.Update(ctx, domain.KindDream, b.ID, domain.EntryFields{
		Title: "Forest", Content: "green trees", Tags: "Water-adjacent",
	})
	require.NoError(t, err)
	f.mustCreate(t, domain.KindEvent, "Water bill", "paid")

	ids := func(term string) []int64 {
		seq, err := f.entry.Search(ctx, domain.KindDream, term)
		require.NoError(t, err)
		var out []int64
		for e := range seq {
			out = append(out, e.ID)
		}
		return out
	}

	assert.Equal(t, []int64{a.ID, b.ID}, ids(""), "empty term returns all in insertion order")
	assert.Equal(t, []int64{a.ID, b.ID}, ids("WATER"), "matches content and tags, kind-scoped")
	assert.Empty(t, ids("desert"))

	seq, err := f.entry.Search(ctx, domain.KindDream, "ocean")
	require.NoError(t, err)
	assert.Len(t, slices.Collect(seq), 1)
	assert.Len(t, slices.Collect(seq), 1, "sequence can be consumed twice")
}
