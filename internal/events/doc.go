// Package events provides a small synchronous event bus.
//
// Services publish events without knowing which handlers consume them.
// The in-memory emitter calls every handler before EmitEvent returns, so
// a handler's side effects are complete when the publishing operation
// finishes. Entry deletion uses this to cascade to connections.
package events
