// Package service contains the journal use cases. It orchestrates the
// domain types and the store interfaces to create, edit, delete, search,
// count, export and import dreams, life events and connections.
//
// Every mutating operation runs inside a shared Gate so that validation,
// the in-memory mutation, the durable write and any cascade happen as one
// step even when the HTTP server delivers requests concurrently.
//
// Errors wrap the sentinels from internal/domain and internal/store in a
// *ServiceError; callers classify them with errors.Is. A result returned
// together with an error wrapping store.ErrPersistence means the change
// happened in memory but was not written durably.
package service
