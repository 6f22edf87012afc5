package memory_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/phrazzld/dream-diary/internal/domain"
	"github.com/phrazzld/dream-diary/internal/platform/memory"
	"github.com/phrazzld/dream-diary/internal/store"
	"github.com/phrazzld/dream-diary/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKeys = store.NewKeys(store.DefaultKeyPrefix)

var fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func newEntry(t *testing.T, kind domain.Kind, id int64, title string) *domain.Entry {
	t.Helper()
	e, err := domain.NewEntry(kind, domain.EntryFields{
		Title:   title,
		Content: "content of " + title,
		Date:    "2024-03-09",
		Tags:    "a, b",
	}, fixedNow)
	require.NoError(t, err)
	e.ID = id
	return e
}

func TestEntryStore_CreateAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.NewEntryStore(store.NewMemoryKVStore(), testKeys, nil)

	dream := newEntry(t, domain.KindDream, 1, "Flying")
	require.NoError(t, s.Create(ctx, dream))

	got, err := s.GetByID(ctx, domain.KindDream, 1)
	require.NoError(t, err)
	assert.Equal(t, "Flying", got.Title)

	t.Run("id spaces are per collection", func(t *testing.T) {
		_, err := s.GetByID(ctx, domain.KindEvent, 1)
		assert.ErrorIs(t, err, store.ErrEntryNotFound)

		require.NoError(t, s.Create(ctx, newEntry(t, domain.KindEvent, 1, "Moved")))
		assert.Equal(t, 1, s.Count(ctx, domain.KindDream))
		assert.Equal(t, 1, s.Count(ctx, domain.KindEvent))
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		err := s.Create(ctx, newEntry(t, domain.KindDream, 1, "Again"))
		assert.ErrorIs(t, err, store.ErrDuplicate)
		assert.Equal(t, 1, s.Count(ctx, domain.KindDream))
	})

	t.Run("returned entries are copies", func(t *testing.T) {
		got.Title = "mutated"
		again, err := s.GetByID(ctx, domain.KindDream, 1)
		require.NoError(t, err)
		assert.Equal(t, "Flying", again.Title)
	})
}

func TestEntryStore_UpdateKeepsPosition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.NewEntryStore(store.NewMemoryKVStore(), testKeys, nil)

	for i, title := range []string{"one", "two", "three"} {
		require.NoError(t, s.Create(ctx, newEntry(t, domain.KindDream, int64(i+1), title)))
	}

	updated := newEntry(t, domain.KindDream, 2, "TWO")
	require.NoError(t, s.Update(ctx, updated))

	list, err := s.List(ctx, domain.KindDream)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"one", "TWO", "three"}, titles(list))

	err = s.Update(ctx, newEntry(t, domain.KindDream, 99, "ghost"))
	assert.ErrorIs(t, err, store.ErrEntryNotFound)
}

func TestEntryStore_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.NewEntryStore(store.NewMemoryKVStore(), testKeys, nil)

	require.NoError(t, s.Create(ctx, newEntry(t, domain.KindEvent, 5, "Trip")))

	removed, err := s.Delete(ctx, domain.KindEvent, 5)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, s.Exists(ctx, domain.KindEvent, 5))

	removed, err = s.Delete(ctx, domain.KindEvent, 5)
	require.NoError(t, err, "deleting an absent id is a no-op")
	assert.False(t, removed)
}

func TestEntryStore_WritesThrough(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := store.NewMemoryKVStore()
	s := memory.NewEntryStore(kv, testKeys, nil)

	require.NoError(t, s.Create(ctx, newEntry(t, domain.KindDream, 1, "Flying")))

	reloaded := memory.NewEntryStore(kv, testKeys, nil)
	require.NoError(t, reloaded.Load(ctx))
	list, err := reloaded.List(ctx, domain.KindDream)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Flying", list[0].Title)
	assert.Equal(t, []string{"a", "b"}, list[0].Tags)
	assert.Equal(t, 0, reloaded.Count(ctx, domain.KindEvent))
}

func TestEntryStore_LoadPreservesUnknownFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := store.NewMemoryKVStore()
	raw := `[{"id":7,"title":"Old","content":"c","date":"2023-01-01","mood":"sad","tags":[],"lucid":true}]`
	require.NoError(t, kv.Save(ctx, testKeys.Dreams, []byte(raw)))

	s := memory.NewEntryStore(kv, testKeys, nil)
	require.NoError(t, s.Load(ctx))

	got, err := s.GetByID(ctx, domain.KindDream, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.KindDream, got.Type, "missing type is filled from the collection")

	require.NoError(t, s.Update(ctx, got))
	data, err := kv.Load(ctx, testKeys.Dreams)
	require.NoError(t, err)

	var records []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.JSONEq(t, "true", string(records[0]["lucid"]))
}

func TestEntryStore_LoadUnreadableStartsEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := store.NewMemoryKVStore()
	require.NoError(t, kv.Save(ctx, testKeys.Events, []byte("{not json")))

	s := memory.NewEntryStore(kv, testKeys, nil)
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, 0, s.Count(ctx, domain.KindEvent))
}

func TestEntryStore_PersistenceFailureKeepsMutation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := testutils.NewFailingKV()
	kv.SetFailing(true)
	s := memory.NewEntryStore(kv, testKeys, nil)

	err := s.Create(ctx, newEntry(t, domain.KindDream, 1, "Flying"))
	require.Error(t, err)
	assert.True(t, store.IsPersistenceError(err))
	assert.True(t, s.Exists(ctx, domain.KindDream, 1), "in-memory state must keep the new entry")

	kv.SetFailing(false)
	require.NoError(t, s.Create(ctx, newEntry(t, domain.KindDream, 2, "Falling")))

	data, err := kv.Load(ctx, testKeys.Dreams)
	require.NoError(t, err)
	var records []*domain.Entry
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Len(t, records, 2, "a later successful write carries the earlier change")
}

func TestEntryStore_Replace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.NewEntryStore(store.NewMemoryKVStore(), testKeys, nil)
	require.NoError(t, s.Create(ctx, newEntry(t, domain.KindDream, 1, "old")))

	require.NoError(t, s.Replace(ctx, domain.KindDream, []*domain.Entry{
		newEntry(t, domain.KindDream, 10, "new"),
		nil,
		newEntry(t, domain.KindDream, 11, "newer"),
	}))

	list, err := s.List(ctx, domain.KindDream)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "newer"}, titles(list))
}

func TestEntryStore_DuplicateIDs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.NewEntryStore(store.NewMemoryKVStore(), testKeys, nil)

	require.NoError(t, s.Replace(ctx, domain.KindDream, []*domain.Entry{
		newEntry(t, domain.KindDream, 5, "first"),
		newEntry(t, domain.KindDream, 6, "other"),
		newEntry(t, domain.KindDream, 5, "second"),
	}))

	require.NoError(t, s.Update(ctx, newEntry(t, domain.KindDream, 5, "edited")))
	list, err := s.List(ctx, domain.KindDream)
	require.NoError(t, err)
	assert.Equal(t, []string{"edited", "other", "edited"}, titles(list))

	removed, err := s.Delete(ctx, domain.KindDream, 5)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, s.Exists(ctx, domain.KindDream, 5), "every copy of the id is removed")

	list, err = s.List(ctx, domain.KindDream)
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, titles(list))
}

func TestEntryStore_ReplaceFillsMissingKind(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.NewEntryStore(store.NewMemoryKVStore(), testKeys, nil)

	untyped := newEntry(t, domain.KindEvent, 3, "untyped")
	untyped.Type = ""
	foreign := newEntry(t, domain.KindDream, 4, "foreign")

	require.NoError(t, s.Replace(ctx, domain.KindEvent, []*domain.Entry{untyped, foreign}))
	assert.Empty(t, untyped.Type, "the caller's records are not modified")

	got, err := s.GetByID(ctx, domain.KindEvent, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.KindEvent, got.Type)

	got, err = s.GetByID(ctx, domain.KindEvent, 4)
	require.NoError(t, err)
	assert.Equal(t, domain.KindDream, got.Type, "a present type is kept as imported")
}

func TestEntryStore_InvalidKind(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.NewEntryStore(store.NewMemoryKVStore(), testKeys, nil)

	_, err := s.List(ctx, domain.Kind("nightmare"))
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.False(t, s.Exists(ctx, domain.Kind("nightmare"), 1))
	assert.Zero(t, s.Count(ctx, domain.Kind("nightmare")))
}

func titles(entries []*domain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Title
	}
	return out
}
