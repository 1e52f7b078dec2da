// ABOUTME: Total normalization of raw stream frames into canonical events.
// ABOUTME: Accepts both wire shapes, rejects structurally broken frames as error values.

package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRejected marks a frame that matched neither wire shape or lacked a
// resolvable event type or id. Callers log and drop rejected frames; a
// rejection never carries side effects.
var ErrRejected = errors.New("frame rejected")

// defaultScope is substituted for missing session/conversation identifiers
// on enveloped frames.
const defaultScope = "default"

// Frame is one normalized stream message: a canonical event plus the
// session/conversation scope it belongs to.
type Frame struct {
	SessionID      string
	ConversationID string
	Event          Event
	Timestamp      time.Time
}

// wireFrame covers both accepted shapes. Shape (a) carries the triple
// directly; shape (b) wraps it in a {type, data} envelope.
type wireFrame struct {
	SessionID      string          `json:"sessionId"`
	ConversationID string          `json:"conversationId"`
	Event          json.RawMessage `json:"event"`
	Timestamp      int64           `json:"timestamp"`
	Type           string          `json:"type"`
	Data           json.RawMessage `json:"data"`
}

// wireEvent is the union of all event payload fields across wire types.
type wireEvent struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Role    string          `json:"role"`
	Content string          `json:"content"`
	Stream  bool            `json:"stream"`
	Done    bool            `json:"done"`
	Data    json.RawMessage `json:"data"`
}

type wireToolData struct {
	ID         string          `json:"id"`
	Status     string          `json:"status"`
	ToolName   string          `json:"tool_name"`
	Args       json.RawMessage `json:"args"`
	Result     *wireToolResult `json:"result"`
	StartedAt  *int64          `json:"startedAt"`
	FinishedAt *int64          `json:"finishedAt"`
	DurationMs *int64          `json:"durationMs"`
	Iteration  *int            `json:"iteration"`
}

type wireToolResult struct {
	Success bool            `json:"success"`
	Value   json.RawMessage `json:"result"`
	Error   string          `json:"error"`
}

type wirePlanData struct {
	Step []struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Status string `json:"status"`
		Note   string `json:"note"`
	} `json:"step"`
}

type wireWaitingData struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// Normalize converts a raw frame payload into a canonical Frame. The frame
// shape carrying the event directly is matched first; otherwise the
// {type, data} envelope is tried, defaulting missing identifiers to
// "default" and stamping the receive time. Frames matching neither shape,
// or whose event lacks a type or id, are rejected with ErrRejected.
func Normalize(raw []byte) (*Frame, error) {
	var wf wireFrame
	if err := json.Unmarshal(raw, &wf); err != nil {
		return nil, fmt.Errorf("%w: unparseable payload: %v", ErrRejected, err)
	}

	switch {
	case len(wf.Event) > 0:
		ts := time.Now()
		if wf.Timestamp > 0 {
			ts = time.UnixMilli(wf.Timestamp)
		}
		ev, err := decodeEvent(wf.Event)
		if err != nil {
			return nil, err
		}
		return &Frame{
			SessionID:      wf.SessionID,
			ConversationID: wf.ConversationID,
			Event:          ev,
			Timestamp:      ts,
		}, nil

	case wf.Type != "" && len(wf.Data) > 0:
		var inner wireFrame
		if err := json.Unmarshal(wf.Data, &inner); err != nil {
			return nil, fmt.Errorf("%w: unparseable envelope data: %v", ErrRejected, err)
		}
		if len(inner.Event) == 0 {
			return nil, fmt.Errorf("%w: envelope carries no event", ErrRejected)
		}
		ev, err := decodeEvent(inner.Event)
		if err != nil {
			return nil, err
		}
		sessionID := inner.SessionID
		if sessionID == "" {
			sessionID = defaultScope
		}
		conversationID := inner.ConversationID
		if conversationID == "" {
			conversationID = defaultScope
		}
		return &Frame{
			SessionID:      sessionID,
			ConversationID: conversationID,
			Event:          ev,
			Timestamp:      time.Now(),
		}, nil

	default:
		return nil, fmt.Errorf("%w: matches neither wire shape", ErrRejected)
	}
}

// decodeEvent maps a raw event payload onto its canonical variant. Unknown
// type tags become Opaque events; only a missing type or id is fatal.
func decodeEvent(raw json.RawMessage) (Event, error) {
	var we wireEvent
	if err := json.Unmarshal(raw, &we); err != nil {
		return nil, fmt.Errorf("%w: unparseable event: %v", ErrRejected, err)
	}
	if we.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrRejected)
	}

	switch Kind(we.Type) {
	case KindText:
		if we.ID == "" {
			return nil, fmt.Errorf("%w: missing event id", ErrRejected)
		}
		role := Role(we.Role)
		if role == "" {
			role = RoleAssistant
		}
		return Text{
			ID:        we.ID,
			Role:      role,
			Content:   we.Content,
			Streaming: we.Stream,
			Complete:  we.Done,
		}, nil

	case KindToolCall:
		var d wireToolData
		if len(we.Data) > 0 {
			if err := json.Unmarshal(we.Data, &d); err != nil {
				return nil, fmt.Errorf("%w: unparseable tool call data: %v", ErrRejected, err)
			}
		}
		id := we.ID
		if id == "" {
			id = d.ID
		}
		if id == "" {
			return nil, fmt.Errorf("%w: missing event id", ErrRejected)
		}
		tc := ToolCall{
			ID:         id,
			ToolName:   d.ToolName,
			Phase:      d.Status,
			Arguments:  d.Args,
			StartedAt:  d.StartedAt,
			FinishedAt: d.FinishedAt,
			DurationMs: d.DurationMs,
			Iteration:  d.Iteration,
		}
		if d.Result != nil {
			tc.Result = &ToolResult{
				Success: d.Result.Success,
				Value:   d.Result.Value,
				Error:   d.Result.Error,
			}
		}
		return tc, nil

	case KindTaskPlan:
		if we.ID == "" {
			return nil, fmt.Errorf("%w: missing event id", ErrRejected)
		}
		var d wirePlanData
		if len(we.Data) > 0 {
			if err := json.Unmarshal(we.Data, &d); err != nil {
				return nil, fmt.Errorf("%w: unparseable task plan data: %v", ErrRejected, err)
			}
		}
		plan := TaskPlan{ID: we.ID, Steps: make([]TaskStep, 0, len(d.Step))}
		for _, s := range d.Step {
			status := s.Status
			if status == "" {
				status = StatusPending
			}
			plan.Steps = append(plan.Steps, TaskStep{
				ID:     s.ID,
				Title:  s.Title,
				Status: status,
				Note:   s.Note,
			})
		}
		return plan, nil

	case KindWaitingInput:
		if we.ID == "" {
			return nil, fmt.Errorf("%w: missing event id", ErrRejected)
		}
		var d wireWaitingData
		if len(we.Data) > 0 {
			if err := json.Unmarshal(we.Data, &d); err != nil {
				return nil, fmt.Errorf("%w: unparseable waiting input data: %v", ErrRejected, err)
			}
		}
		return WaitingInput{ID: we.ID, Message: d.Message, Reason: d.Reason}, nil

	default:
		if we.ID == "" {
			return nil, fmt.Errorf("%w: missing event id", ErrRejected)
		}
		return Opaque{ID: we.ID, Type: we.Type, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
}
