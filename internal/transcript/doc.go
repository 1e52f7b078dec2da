// Package transcript holds the ordered conversation transcripts reconstructed
// from the agent's event stream.
//
// # Merge Policy
//
// Reconcile folds each normalized event into its conversation under a
// kind-specific policy, the central algorithm of the client:
//
//   - Streaming text: increments sharing an id concatenate; the complete
//     flag takes the latest value.
//   - Non-streaming text: always appended, never merged.
//   - Tool calls: field-wise overlay onto the record with the same id, so an
//     end phase adds its result without losing the start phase's arguments.
//   - Task plans: a single mutable slot per conversation; a new plan replaces
//     the step list in place at the position the first plan was inserted.
//   - Waiting-input and opaque events: appended once, first write wins.
//
// Exactly one canonical record exists per (conversation, event id) at any
// time. Conversations are created on first reference and never deleted
// within the process lifetime.
//
// # Seeding
//
// When a submission's first frame creates a conversation, the user's own
// prompt is seeded as a synthetic non-streaming user text event before the
// server's first event is merged, so the transcript always opens with what
// the user typed.
//
// # Concurrency
//
// All writes go through the store mutex, but ordering is guaranteed by the
// caller: only the active stream connection's read loop reconciles events,
// in strict frame-arrival order. Readers get copied snapshots; live
// consumers subscribe to the Broadcaster instead of polling.
package transcript
