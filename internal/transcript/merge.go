// ABOUTME: Kind-specific merge policy for reconciling stream events into a transcript.
// ABOUTME: Streaming text concatenates, tool calls overlay, plans replace in place, others append once.

package transcript

import "github.com/lucyonegit/agent-web-client/internal/event"

// mergeLocked applies the merge policy for ev's kind. Must be called with the
// store mutex held.
func (s *Store) mergeLocked(conv *conversationState, ev event.Event) {
	switch e := ev.(type) {
	case event.Text:
		s.mergeTextLocked(conv, e)
	case event.ToolCall:
		s.mergeToolCallLocked(conv, e)
	case event.TaskPlan:
		s.mergePlanLocked(conv, e)
	default:
		// WaitingInput and opaque kinds: first write wins. Retransmitted
		// frames with a seen id are dropped so duplicates never surface.
		if _, ok := conv.index[ev.EventID()]; ok {
			s.logger.Debug("duplicate event ignored",
				"conversation_id", conv.id,
				"event_id", ev.EventID(),
				"kind", string(ev.EventKind()))
			return
		}
		s.appendLocked(conv, ev)
	}
}

// mergeTextLocked concatenates streaming increments sharing an id. Content is
// never replaced, only extended; the complete flag always takes the latest
// value. Non-streaming text is a one-shot message and always appends, even
// on an id collision.
func (s *Store) mergeTextLocked(conv *conversationState, e event.Text) {
	if !e.Streaming {
		s.appendLocked(conv, e)
		return
	}

	idx, ok := conv.index[e.ID]
	if ok {
		if existing, isText := conv.events[idx].(event.Text); isText {
			merged := existing
			merged.Content = existing.Content + e.Content
			merged.Complete = e.Complete
			s.replaceLocked(conv, idx, merged)
			return
		}
	}
	s.appendLocked(conv, e)
}

// mergeToolCallLocked overlays the incoming event field-wise onto an existing
// record with the same id: fields present on the wire overwrite, absent
// fields are retained. A start phase's arguments therefore survive the end
// phase that carries only result and timing.
func (s *Store) mergeToolCallLocked(conv *conversationState, e event.ToolCall) {
	idx, ok := conv.index[e.ID]
	if ok {
		if existing, isTool := conv.events[idx].(event.ToolCall); isTool {
			s.replaceLocked(conv, idx, overlayToolCall(existing, e))
			return
		}
	}

	if e.Phase == "" {
		e.Phase = event.PhaseStart
	}
	s.appendLocked(conv, e)
}

func overlayToolCall(existing, incoming event.ToolCall) event.ToolCall {
	merged := existing
	if incoming.ToolName != "" {
		merged.ToolName = incoming.ToolName
	}
	if incoming.Phase != "" {
		merged.Phase = incoming.Phase
	}
	if incoming.Arguments != nil {
		merged.Arguments = incoming.Arguments
	}
	if incoming.Result != nil {
		merged.Result = incoming.Result
	}
	if incoming.StartedAt != nil {
		merged.StartedAt = incoming.StartedAt
	}
	if incoming.FinishedAt != nil {
		merged.FinishedAt = incoming.FinishedAt
	}
	if incoming.DurationMs != nil {
		merged.DurationMs = incoming.DurationMs
	}
	if incoming.Iteration != nil {
		merged.Iteration = incoming.Iteration
	}
	return merged
}

// mergePlanLocked keeps at most one live plan per conversation. A new plan
// replaces the step list of the slot established when the first plan was
// seen, keeping that slot's position and record id regardless of the
// incoming plan's id.
func (s *Store) mergePlanLocked(conv *conversationState, e event.TaskPlan) {
	if conv.planIndex >= 0 {
		existing := conv.events[conv.planIndex].(event.TaskPlan)
		merged := existing
		merged.Steps = e.Steps
		s.replaceLocked(conv, conv.planIndex, merged)
		return
	}
	s.appendLocked(conv, e)
	conv.planIndex = len(conv.events) - 1
}
