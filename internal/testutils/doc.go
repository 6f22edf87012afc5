// Package testutils provides testing utilities shared by the store, service
// and API tests.
//
// It depends only on the store and domain packages so that any package's
// internal tests may import it without a cycle.
//
// # Failing storage
//
// FailingKV wraps an in-memory KVStore and can be switched to reject every
// Save, which simulates a full disk or a revoked quota:
//
//	kv := testutils.NewFailingKV()
//	kv.SetFailing(true)
//	_, err := entries.Create(ctx, kind, fields) // err wraps store.ErrPersistence
//
// # Clocks
//
// Clock is a settable time source for code that takes a func() time.Time:
//
//	clock := testutils.NewClock(time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC))
//	svc, _ := service.NewStatsService(entries, conns, clock.Now, log)
//	clock.Advance(24 * time.Hour)
package testutils
