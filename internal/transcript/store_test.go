// ABOUTME: Tests for the conversation store's merge policy and transcript invariants.
// ABOUTME: Covers streaming concatenation, tool overlay, plan slot, idempotent appends and seeding.

package transcript

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucyonegit/agent-web-client/internal/event"
)

func testStore() *Store {
	return NewStore(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func int64Ptr(v int64) *int64 { return &v }

func TestStore_Reconcile_StreamingTextConcatenates(t *testing.T) {
	s := testStore()

	s.Reconcile("c1", event.Text{ID: "a", Role: event.RoleAssistant, Content: "He", Streaming: true})
	s.Reconcile("c1", event.Text{ID: "a", Role: event.RoleAssistant, Content: "llo", Streaming: true, Complete: true})

	events, ok := s.Events("c1")
	require.True(t, ok)
	require.Len(t, events, 1)

	text := events[0].(event.Text)
	assert.Equal(t, "Hello", text.Content)
	assert.True(t, text.Complete)
	assert.Equal(t, event.RoleAssistant, text.Role)
}

func TestStore_Reconcile_NonStreamingTextAlwaysAppends(t *testing.T) {
	s := testStore()

	s.Reconcile("c1", event.Text{ID: "a", Content: "first"})
	s.Reconcile("c1", event.Text{ID: "a", Content: "second"})

	events, _ := s.Events("c1")
	require.Len(t, events, 2)
	assert.Equal(t, "first", events[0].(event.Text).Content)
	assert.Equal(t, "second", events[1].(event.Text).Content)
}

func TestStore_Reconcile_ToolCallOverlay(t *testing.T) {
	s := testStore()

	s.Reconcile("c1", event.ToolCall{
		ID:        "t1",
		ToolName:  "search",
		Phase:     event.PhaseStart,
		Arguments: json.RawMessage(`{"q":"x"}`),
		StartedAt: int64Ptr(1000),
	})
	s.Reconcile("c1", event.ToolCall{
		ID:         "t1",
		Phase:      event.PhaseEnd,
		Result:     &event.ToolResult{Success: true, Value: json.RawMessage(`[1,2]`)},
		FinishedAt: int64Ptr(1120),
		DurationMs: int64Ptr(120),
	})

	events, _ := s.Events("c1")
	require.Len(t, events, 1)

	tc := events[0].(event.ToolCall)
	assert.Equal(t, "search", tc.ToolName)
	assert.Equal(t, event.PhaseEnd, tc.Phase)
	assert.JSONEq(t, `{"q":"x"}`, string(tc.Arguments))
	require.NotNil(t, tc.Result)
	assert.True(t, tc.Result.Success)
	require.NotNil(t, tc.StartedAt)
	assert.Equal(t, int64(1000), *tc.StartedAt)
	require.NotNil(t, tc.DurationMs)
	assert.Equal(t, int64(120), *tc.DurationMs)
}

func TestStore_Reconcile_ToolCallWithoutPhaseDefaultsToStart(t *testing.T) {
	s := testStore()

	s.Reconcile("c1", event.ToolCall{ID: "t1", ToolName: "grep"})

	events, _ := s.Events("c1")
	require.Len(t, events, 1)
	assert.Equal(t, event.PhaseStart, events[0].(event.ToolCall).Phase)
}

func TestStore_Reconcile_PlanReplacedInPlace(t *testing.T) {
	s := testStore()

	s.Reconcile("c1", event.Text{ID: "a", Content: "before"})
	s.Reconcile("c1", event.TaskPlan{ID: "p1", Steps: []event.TaskStep{
		{ID: "s1", Title: "first", Status: event.StatusPending},
	}})
	s.Reconcile("c1", event.Text{ID: "b", Content: "after"})
	s.Reconcile("c1", event.TaskPlan{ID: "p2", Steps: []event.TaskStep{
		{ID: "s1", Title: "first", Status: event.StatusDone},
		{ID: "s2", Title: "second", Status: event.StatusDoing},
	}})

	events, _ := s.Events("c1")
	require.Len(t, events, 3)

	// The plan keeps the position established at first insertion.
	plan, ok := events[1].(event.TaskPlan)
	require.True(t, ok)
	require.Len(t, plan.Steps, 2)
	assert.Equal(t, event.StatusDone, plan.Steps[0].Status)
	assert.Equal(t, "second", plan.Steps[1].Title)

	// Exactly one plan record exists.
	planCount := 0
	for _, ev := range events {
		if ev.EventKind() == event.KindTaskPlan {
			planCount++
		}
	}
	assert.Equal(t, 1, planCount)
}

func TestStore_Reconcile_WaitingInputFirstWriteWins(t *testing.T) {
	s := testStore()

	s.Reconcile("c1", event.WaitingInput{ID: "w1", Message: "original"})
	s.Reconcile("c1", event.WaitingInput{ID: "w1", Message: "retransmitted"})

	events, _ := s.Events("c1")
	require.Len(t, events, 1)
	assert.Equal(t, "original", events[0].(event.WaitingInput).Message)
}

func TestStore_Reconcile_OpaqueAppendedOnce(t *testing.T) {
	s := testStore()

	s.Reconcile("c1", event.Opaque{ID: "x1", Type: "bdd_event"})
	s.Reconcile("c1", event.Opaque{ID: "x1", Type: "bdd_event"})
	s.Reconcile("c1", event.Opaque{ID: "x2", Type: "bdd_event"})

	events, _ := s.Events("c1")
	assert.Len(t, events, 2)
}

func TestStore_EnsureConversation_SeedsUserPrompt(t *testing.T) {
	s := testStore()

	created := s.EnsureConversation("c1", "build me a parser")
	require.True(t, created)

	// Server's first event arrives with role assistant; the seeded prompt
	// must still open the transcript.
	s.Reconcile("c1", event.Text{ID: "a", Role: event.RoleAssistant, Content: "ok", Streaming: true})

	events, _ := s.Events("c1")
	require.Len(t, events, 2)

	seed := events[0].(event.Text)
	assert.Equal(t, event.RoleUser, seed.Role)
	assert.Equal(t, "build me a parser", seed.Content)
	assert.False(t, seed.Streaming)
	assert.NotEmpty(t, seed.ID)
}

func TestStore_EnsureConversation_NoReseedOnExisting(t *testing.T) {
	s := testStore()

	require.True(t, s.EnsureConversation("c1", "first prompt"))
	require.False(t, s.EnsureConversation("c1", "second prompt"))

	events, _ := s.Events("c1")
	assert.Len(t, events, 1)
}

func TestStore_AppendUserMessage_UnknownConversationIsNoOp(t *testing.T) {
	s := testStore()

	s.AppendUserMessage("ghost", "hello?")

	_, ok := s.Events("ghost")
	assert.False(t, ok)
}

func TestStore_PinSession_FirstWins(t *testing.T) {
	s := testStore()

	assert.False(t, s.PinSession(""))
	assert.True(t, s.PinSession("s1"))
	assert.False(t, s.PinSession("s2"))
	assert.Equal(t, "s1", s.SessionID())
}

func TestStore_Snapshot_IsolatedFromLaterMerges(t *testing.T) {
	s := testStore()

	s.Reconcile("c1", event.Text{ID: "a", Content: "He", Streaming: true})
	snapshot := s.Snapshot()
	s.Reconcile("c1", event.Text{ID: "a", Content: "llo", Streaming: true, Complete: true})

	require.Len(t, snapshot, 1)
	require.Len(t, snapshot[0].Events, 1)
	assert.Equal(t, "He", snapshot[0].Events[0].(event.Text).Content)
}

func TestStore_Snapshot_PreservesCreationOrder(t *testing.T) {
	s := testStore()

	s.Reconcile("c2", event.Text{ID: "a", Content: "x"})
	s.Reconcile("c1", event.Text{ID: "b", Content: "y"})

	snapshot := s.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "c2", snapshot[0].ID)
	assert.Equal(t, "c1", snapshot[1].ID)
}
