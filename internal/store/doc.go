// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying storage from the journal's
// services: the entry and connection stores own the in-memory collections,
// and KVStore is the durable key-value boundary they write through.
package store
