package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/phrazzld/dream-diary/internal/domain"
	"github.com/phrazzld/dream-diary/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferService_ExportImportRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	src := newFixture(t)

	d1 := src.mustCreate(t, domain.KindDream, "first", "c")
	src.mustCreate(t, domain.KindDream, "second", "c")
	e1 := src.mustCreate(t, domain.KindEvent, "event", "c")
	_, err := src.conn.Create(ctx, d1.ID, e1.ID, "notes")
	require.NoError(t, err)

	exported, err := src.transfer.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.0", exported.Version)
	assert.Equal(t, src.clock.Now(), exported.ExportDate)

	data, err := json.Marshal(exported)
	require.NoError(t, err)

	dst := newFixture(t)
	summary, err := dst.transfer.ImportJSON(ctx, data)
	require.NoError(t, err)
	require.NotNil(t, summary.Dreams)
	assert.Equal(t, 2, *summary.Dreams)
	assert.Equal(t, 1, *summary.LifeEvents)
	assert.Equal(t, 1, *summary.Connections)

	reexported, err := dst.transfer.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, exported.Dreams, reexported.Dreams)
	assert.Equal(t, exported.LifeEvents, reexported.LifeEvents)
	assert.Equal(t, exported.Connections, reexported.Connections)

	t.Run("new ids are issued above imported ones", func(t *testing.T) {
		e := dst.mustCreate(t, domain.KindDream, "later", "c")
		for _, d := range reexported.Dreams {
			assert.Greater(t, e.ID, d.ID)
		}
	})
}

func TestTransferService_ImportPartial(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	dream := f.mustCreate(t, domain.KindDream, "kept", "c")
	f.mustCreate(t, domain.KindEvent, "replaced", "c")

	doc := `{"lifeEvents": [], "connections": null}`
	summary, err := f.transfer.ImportJSON(ctx, []byte(doc))
	require.NoError(t, err)
	assert.Nil(t, summary.Dreams)
	assert.Nil(t, summary.Connections)
	require.NotNil(t, summary.LifeEvents)
	assert.Zero(t, *summary.LifeEvents)

	assert.True(t, f.entries.Exists(ctx, domain.KindDream, dream.ID), "absent collection untouched")
	assert.Zero(t, f.entries.Count(ctx, domain.KindEvent), "empty collection replaces")
}

func TestTransferService_ImportKeepsUnknownFieldsAndSkipsValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	doc := `{
		"dreams": [
			{"id": 5, "title": "", "content": "", "date": "someday", "mood": "weird", "tags": [], "type": "dream", "lucid": true},
			null
		],
		"connections": [{"id": 9, "dreamId": 5, "lifeEventId": 77, "color": "red"}],
		"version": "0.9"
	}`
	_, err := f.transfer.ImportJSON(ctx, []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 1, f.entries.Count(ctx, domain.KindDream), "null records are dropped")
	assert.Equal(t, 1, f.conns.Count(ctx), "dangling connections are accepted")

	exported, err := f.transfer.Export(ctx)
	require.NoError(t, err)
	data, err := json.Marshal(exported)
	require.NoError(t, err)

	var raw struct {
		Dreams      []map[string]json.RawMessage `json:"dreams"`
		Connections []map[string]json.RawMessage `json:"connections"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, "true", string(raw.Dreams[0]["lucid"]))
	assert.JSONEq(t, `"red"`, string(raw.Connections[0]["color"]))

	stats, err := f.stats.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalConnections)
}

func TestTransferService_ImportMalformed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.mustCreate(t, domain.KindDream, "kept", "c")

	for name, doc := range map[string]string{
		"not json":          `{"dreams": [`,
		"array":             `[]`,
		"null":              `null`,
		"record not object": `{"dreams": [42]}`,
		"object for list":   `{"lifeEvents": {"id": 1}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.transfer.ImportJSON(ctx, []byte(doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrParse)
			assert.Equal(t, 1, f.entries.Count(ctx, domain.KindDream), "nothing changed")
		})
	}
}

func TestTransferService_LoadObservesIDs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	future := f.clock.Now().UnixMilli() + 1_000_000
	raw := `[{"id": ` + jsonInt(future) + `, "title": "t", "content": "c", "date": "2024-01-01", "mood": "sad", "tags": [], "type": "dream"}]`
	require.NoError(t, f.kv.Save(ctx, store.NewKeys(store.DefaultKeyPrefix).Dreams, []byte(raw)))

	require.NoError(t, f.transfer.Load(ctx))
	assert.Equal(t, 1, f.entries.Count(ctx, domain.KindDream))

	e := f.mustCreate(t, domain.KindDream, "new", "c")
	assert.Greater(t, e.ID, future)
}

func TestTransferService_ImportPersistenceFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.kv.SetFailing(true)

	summary, err := f.transfer.ImportJSON(ctx, []byte(`{"dreams": [{"id": 1, "title": "t", "type": "dream"}]}`))
	require.Error(t, err)
	assert.True(t, store.IsPersistenceError(err))
	require.NotNil(t, summary)
	assert.Equal(t, 1, f.entries.Count(ctx, domain.KindDream))
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
