// ABOUTME: Tests for scripted scenario loading and wire event construction.
// ABOUTME: Wire payloads are round-tripped through the normalizer to keep shapes honest.

package scenario

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucyonegit/agent-web-client/internal/event"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidScenario(t *testing.T) {
	path := writeScenario(t, `
session_id = "s1"
conversation_id = "c1"
paused = true

[[frames]]
type = "text"
id = "t1"
content = "hello"
stream = true
delay_ms = 50

[[frames]]
type = "tool_start"
id = "tc1"
tool = "search"
args = '{"q":"x"}'
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "s1", s.SessionID)
	assert.Equal(t, "c1", s.ConversationID)
	assert.True(t, s.Paused)
	require.Len(t, s.Frames, 2)
	assert.Equal(t, 50*time.Millisecond, s.Frames[0].Delay())
}

func TestLoad_MissingConversationID(t *testing.T) {
	path := writeScenario(t, `
[[frames]]
type = "text"
id = "t1"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conversation_id")
}

func TestLoad_FrameMissingType(t *testing.T) {
	path := writeScenario(t, `
conversation_id = "c1"

[[frames]]
id = "t1"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type is required")
}

func TestLoad_FrameMissingID(t *testing.T) {
	path := writeScenario(t, `
conversation_id = "c1"

[[frames]]
type = "text"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id is required")
}

// normalizeFrame wraps a wire event the way the fake agent serves it and
// runs it through the normalizer.
func normalizeFrame(t *testing.T, wire map[string]any) event.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"sessionId":      "s1",
		"conversationId": "c1",
		"event":          wire,
		"timestamp":      time.Now().UnixMilli(),
	})
	require.NoError(t, err)

	frame, err := event.Normalize(raw)
	require.NoError(t, err)
	return frame.Event
}

func TestWireEvent_TextNormalizes(t *testing.T) {
	f := Frame{Type: "text", ID: "t1", Content: "hi", Stream: true, Done: true}

	got := normalizeFrame(t, f.WireEvent()).(event.Text)
	assert.Equal(t, "t1", got.ID)
	assert.Equal(t, event.RoleAssistant, got.Role)
	assert.Equal(t, "hi", got.Content)
	assert.True(t, got.Streaming)
	assert.True(t, got.Complete)
}

func TestWireEvent_ToolLifecycleNormalizes(t *testing.T) {
	start := Frame{Type: "tool_start", ID: "tc1", Tool: "search", Args: `{"q":"x"}`}
	got := normalizeFrame(t, start.WireEvent()).(event.ToolCall)
	assert.Equal(t, "search", got.ToolName)
	assert.Equal(t, event.PhaseStart, got.Phase)
	assert.JSONEq(t, `{"q":"x"}`, string(got.Arguments))

	end := Frame{Type: "tool_end", ID: "tc1", Tool: "search", Success: true, Result: `[1,2]`, DurationMs: 40}
	done := normalizeFrame(t, end.WireEvent()).(event.ToolCall)
	assert.Equal(t, event.PhaseEnd, done.Phase)
	require.NotNil(t, done.Result)
	assert.True(t, done.Result.Success)
	assert.JSONEq(t, `[1,2]`, string(done.Result.Value))
	require.NotNil(t, done.DurationMs)
	assert.Equal(t, int64(40), *done.DurationMs)
}

func TestWireEvent_PlanNormalizes(t *testing.T) {
	f := Frame{Type: "plan", ID: "p1", Steps: []Step{
		{ID: "s1", Title: "read code", Status: "done"},
		{ID: "s2", Title: "write tests"},
	}}

	got := normalizeFrame(t, f.WireEvent()).(event.TaskPlan)
	require.Len(t, got.Steps, 2)
	assert.Equal(t, event.StatusDone, got.Steps[0].Status)
	// Unset statuses default to pending on the wire.
	assert.Equal(t, event.StatusPending, got.Steps[1].Status)
}

func TestWireEvent_WaitingInputNormalizes(t *testing.T) {
	f := Frame{Type: "waiting_input", ID: "w1", Message: "pick one", Reason: "ambiguous"}

	got := normalizeFrame(t, f.WireEvent()).(event.WaitingInput)
	assert.Equal(t, "pick one", got.Message)
	assert.Equal(t, "ambiguous", got.Reason)
}

func TestWireEvent_UnknownTypeStaysOpaque(t *testing.T) {
	f := Frame{Type: "bdd_event", ID: "b1", Content: "ignored"}

	got := normalizeFrame(t, f.WireEvent()).(event.Opaque)
	assert.Equal(t, "bdd_event", got.Type)
	assert.Equal(t, "b1", got.ID)
}
