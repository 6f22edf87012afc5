// Package memory implements the store interfaces on in-memory collections
// that write through to a store.KVStore after every mutation.
//
// The collections are the authoritative session state. A failed durable
// write is reported with store.ErrPersistence but the in-memory change is
// kept, so the session can continue and a later write may succeed.
package memory
