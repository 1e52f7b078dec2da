// Package stream owns the lifecycle of the single inbound SSE connection to
// the agent server.
//
// # State Machine
//
// Each submission drives one pass through:
//
//	Idle → Connecting → Streaming → {Completed | Paused | Failed}
//
// Connecting becomes Streaming on the first well-formed frame. The terminal
// "done" signal carries {isPaused, conversationId}: a pause leaves the
// conversation exactly as merged so far and pins it for resumption, while
// completion clears the pause state. Transport errors map to Failed and do
// not touch the pause state; there is no automatic retry.
//
// # Single Active Connection
//
// At most one connection is active system-wide. Opening a new one
// synchronously tears down the previous connection before connecting; the
// torn-down read loop observes its closed flag before every merge, so late
// frames from a superseded stream never mutate the store.
//
// # Frame Handling
//
// Frames are normalized and reconciled in strict arrival order on the
// connection's read loop. Malformed frames are logged and dropped without a
// state transition; streaming continues.
package stream
