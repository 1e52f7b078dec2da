// ABOUTME: TOML scenario files describing scripted agent streams for development.
// ABOUTME: Each frame maps to one wire event; the scenario ends in a pause or completion.

package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Scenario is one scripted exchange replayed by the fake agent.
type Scenario struct {
	SessionID      string  `toml:"session_id"`
	ConversationID string  `toml:"conversation_id"`
	Paused         bool    `toml:"paused"`
	Frames         []Frame `toml:"frames"`
}

// Frame is one scripted stream event. Type selects which fields apply:
// "text" (content/stream/done), "tool_start"/"tool_end" (tool/args/result),
// "plan" (steps), "waiting_input" (message/reason), anything else is sent
// verbatim as an opaque event type.
type Frame struct {
	Type    string `toml:"type"`
	ID      string `toml:"id"`
	DelayMs int    `toml:"delay_ms"`

	Role    string `toml:"role"`
	Content string `toml:"content"`
	Stream  bool   `toml:"stream"`
	Done    bool   `toml:"done"`

	Tool       string `toml:"tool"`
	Args       string `toml:"args"`   // JSON text
	Result     string `toml:"result"` // JSON text
	Success    bool   `toml:"success"`
	Error      string `toml:"error"`
	DurationMs int64  `toml:"duration_ms"`

	Steps []Step `toml:"steps"`

	Message string `toml:"message"`
	Reason  string `toml:"reason"`
}

// Step is a task plan entry.
type Step struct {
	ID     string `toml:"id"`
	Title  string `toml:"title"`
	Status string `toml:"status"`
	Note   string `toml:"note"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}

	var s Scenario
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario file: %w", err)
	}

	if s.ConversationID == "" {
		return nil, fmt.Errorf("conversation_id is required")
	}
	for i, f := range s.Frames {
		if f.Type == "" {
			return nil, fmt.Errorf("frames[%d]: type is required", i)
		}
		if f.ID == "" {
			return nil, fmt.Errorf("frames[%d]: id is required", i)
		}
	}

	return &s, nil
}

// Delay returns the pause to insert before sending the frame.
func (f Frame) Delay() time.Duration {
	return time.Duration(f.DelayMs) * time.Millisecond
}

// WireEvent builds the JSON event payload for the frame.
func (f Frame) WireEvent() map[string]any {
	switch f.Type {
	case "text":
		role := f.Role
		if role == "" {
			role = "assistant"
		}
		return map[string]any{
			"type":    "normal_event",
			"id":      f.ID,
			"role":    role,
			"content": f.Content,
			"stream":  f.Stream,
			"done":    f.Done,
		}

	case "tool_start":
		data := map[string]any{
			"status":    "start",
			"tool_name": f.Tool,
			"startedAt": time.Now().UnixMilli(),
		}
		if f.Args != "" {
			data["args"] = json.RawMessage(f.Args)
		}
		return map[string]any{"type": "tool_call_event", "id": f.ID, "data": data}

	case "tool_end":
		result := map[string]any{"success": f.Success}
		if f.Result != "" {
			result["result"] = json.RawMessage(f.Result)
		}
		if f.Error != "" {
			result["error"] = f.Error
		}
		data := map[string]any{
			"status":     "end",
			"tool_name":  f.Tool,
			"result":     result,
			"finishedAt": time.Now().UnixMilli(),
			"durationMs": f.DurationMs,
		}
		return map[string]any{"type": "tool_call_event", "id": f.ID, "data": data}

	case "plan":
		steps := make([]map[string]any, 0, len(f.Steps))
		for _, s := range f.Steps {
			steps = append(steps, map[string]any{
				"id":     s.ID,
				"title":  s.Title,
				"status": s.Status,
				"note":   s.Note,
			})
		}
		return map[string]any{
			"type": "task_plan_event",
			"id":   f.ID,
			"data": map[string]any{"step": steps},
		}

	case "waiting_input":
		return map[string]any{
			"type": "waiting_input_event",
			"id":   f.ID,
			"data": map[string]any{"message": f.Message, "reason": f.Reason},
		}

	default:
		return map[string]any{
			"type":    f.Type,
			"id":      f.ID,
			"content": f.Content,
		}
	}
}
