// ABOUTME: Canonical event model for agent conversation streams.
// ABOUTME: Tagged union of text, tool call, task plan, waiting-input and opaque events.

package event

import "encoding/json"

// Kind identifies an event variant. Values mirror the wire-level type tags so
// opaque events round-trip without translation.
type Kind string

const (
	KindText         Kind = "normal_event"
	KindToolCall     Kind = "tool_call_event"
	KindTaskPlan     Kind = "task_plan_event"
	KindWaitingInput Kind = "waiting_input_event"
)

// Role identifies the author of a text event.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Tool call phases.
const (
	PhaseStart = "start"
	PhaseEnd   = "end"
)

// Task step statuses.
const (
	StatusPending = "pending"
	StatusDoing   = "doing"
	StatusDone    = "done"
)

// Event is one canonical unit of conversation content. Identity is the event
// ID, unique within a conversation. Implementations are value types: the
// transcript store replaces records rather than mutating them in place, so a
// copied event slice is a stable snapshot.
type Event interface {
	// EventID returns the identity of the event within its conversation.
	EventID() string
	// EventKind returns the variant tag.
	EventKind() Kind
}

// Text is a user or assistant message. Streaming text arrives in increments
// that share an ID and are concatenated by the store; non-streaming text is a
// one-shot message.
type Text struct {
	ID        string
	Role      Role
	Content   string
	Streaming bool
	Complete  bool
}

func (t Text) EventID() string { return t.ID }
func (t Text) EventKind() Kind { return KindText }

// ToolResult is the outcome carried by a tool call's end phase.
type ToolResult struct {
	Success bool
	Value   json.RawMessage
	Error   string
}

// ToolCall describes one tool invocation. A start phase carries the
// arguments; the matching end phase overlays the result and timing onto the
// same record. Optional fields are pointers so the overlay can distinguish
// "absent on the wire" from a zero value.
type ToolCall struct {
	ID         string
	ToolName   string
	Phase      string
	Arguments  json.RawMessage
	Result     *ToolResult
	StartedAt  *int64
	FinishedAt *int64
	DurationMs *int64
	Iteration  *int
}

func (t ToolCall) EventID() string { return t.ID }
func (t ToolCall) EventKind() Kind { return KindToolCall }

// TaskStep is one entry in a task plan.
type TaskStep struct {
	ID     string
	Title  string
	Status string
	Note   string
}

// TaskPlan is the agent's current plan. A conversation holds at most one
// live plan; a later plan replaces the step list of the first one seen.
type TaskPlan struct {
	ID    string
	Steps []TaskStep
}

func (t TaskPlan) EventID() string { return t.ID }
func (t TaskPlan) EventKind() Kind { return KindTaskPlan }

// WaitingInput signals that the agent is suspended awaiting user input.
type WaitingInput struct {
	ID      string
	Message string
	Reason  string
}

func (w WaitingInput) EventID() string { return w.ID }
func (w WaitingInput) EventKind() Kind { return KindWaitingInput }

// Opaque preserves an event of an unknown wire type. It is stored verbatim
// so future event kinds degrade gracefully instead of being dropped.
type Opaque struct {
	ID   string
	Type string
	Raw  json.RawMessage
}

func (o Opaque) EventID() string { return o.ID }
func (o Opaque) EventKind() Kind { return Kind(o.Type) }
