// Package event defines the canonical event model for agent conversation
// streams and the normalization of raw wire frames into it.
//
// # Wire Shapes
//
// Two frame shapes are accepted, matched in order:
//
//  1. {sessionId, conversationId, event, timestamp}
//  2. {type, data: {sessionId?, conversationId?, event}}
//
// The enveloped shape defaults missing identifiers to "default" and stamps
// the receive time as the frame timestamp.
//
// # Event Types
//
// The event union is discriminated by its wire type tag:
//
//   - normal_event: user/assistant text, optionally streamed in increments
//   - tool_call_event: tool invocation start/end phases
//   - task_plan_event: the agent's current step plan
//   - waiting_input_event: the agent is suspended awaiting user input
//
// Unknown type tags map to the Opaque variant rather than being dropped, so
// new server-side event kinds degrade gracefully.
//
// # Rejection
//
// Normalize is total: structurally broken frames (no matching shape, missing
// event type or id) return an error wrapping ErrRejected instead of
// panicking. A rejected frame has no side effects and is simply dropped by
// the caller.
package event
