package testutils

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/phrazzld/dream-diary/internal/store"
)

// ErrSaveRejected is returned by FailingKV.Save while failing is set.
var ErrSaveRejected = errors.New("save rejected: disk full")

// FailingKV is an in-memory KVStore whose writes can be made to fail.
// Loads always succeed.
type FailingKV struct {
	*store.MemoryKVStore
	failing atomic.Bool
	saves   atomic.Int64
}

var _ store.KVStore = (*FailingKV)(nil)

// NewFailingKV returns an empty FailingKV that accepts writes.
func NewFailingKV() *FailingKV {
	return &FailingKV{MemoryKVStore: store.NewMemoryKVStore()}
}

// SetFailing switches write failures on or off.
func (f *FailingKV) SetFailing(v bool) {
	f.failing.Store(v)
}

// Saves returns the number of Save calls, failed ones included.
func (f *FailingKV) Saves() int64 {
	return f.saves.Load()
}

// Save implements store.KVStore.
func (f *FailingKV) Save(ctx context.Context, key string, data []byte) error {
	f.saves.Add(1)
	if f.failing.Load() {
		return ErrSaveRejected
	}
	return f.MemoryKVStore.Save(ctx, key, data)
}
