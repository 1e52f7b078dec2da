// ABOUTME: Terminal renderer consuming merged transcript updates.
// ABOUTME: Prints streaming text deltas, tool call lifecycles, plans and waiting banners.

package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/lucyonegit/agent-web-client/internal/event"
	"github.com/lucyonegit/agent-web-client/internal/transcript"
)

var (
	toolColor    = color.New(color.FgYellow)
	resultColor  = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	waitingColor = color.New(color.FgMagenta)
	dimColor     = color.New(color.Faint)
)

// Renderer is a thin, stateful consumer of transcript updates. It contributes
// no reconciliation logic: the store is its read-only projection, and the
// only state it keeps is how much of each streaming record it has printed.
type Renderer struct {
	out      io.Writer
	showArgs bool

	printed   map[string]int    // streaming text id -> bytes already printed
	toolPhase map[string]string // tool id -> last phase printed
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer, showArgs bool) *Renderer {
	return &Renderer{
		out:       out,
		showArgs:  showArgs,
		printed:   make(map[string]int),
		toolPhase: make(map[string]string),
	}
}

// Run consumes updates until the channel closes.
func (r *Renderer) Run(updates <-chan transcript.Update) {
	for u := range updates {
		r.Render(u)
	}
}

// Render prints one merged update.
func (r *Renderer) Render(u transcript.Update) {
	switch e := u.Event.(type) {
	case event.Text:
		r.renderText(e)
	case event.ToolCall:
		r.renderToolCall(e)
	case event.TaskPlan:
		r.renderPlan(e)
	case event.WaitingInput:
		waitingColor.Fprintf(r.out, "\n[input needed] %s\n", e.Message)
		if e.Reason != "" {
			dimColor.Fprintf(r.out, "  reason: %s\n", e.Reason)
		}
	default:
		dimColor.Fprintf(r.out, "[%s]\n", string(u.Event.EventKind()))
	}
}

// renderText prints only the unseen suffix of streaming records, so
// concatenating merges show up as a live typing effect. The user's own
// messages are skipped; the console already echoed them at the prompt.
func (r *Renderer) renderText(e event.Text) {
	if e.Role == event.RoleUser {
		return
	}

	if !e.Streaming {
		fmt.Fprintf(r.out, "%s\n", e.Content)
		return
	}

	seen := r.printed[e.ID]
	if len(e.Content) > seen {
		fmt.Fprint(r.out, e.Content[seen:])
		r.printed[e.ID] = len(e.Content)
	}
	if e.Complete {
		fmt.Fprintln(r.out)
	}
}

// renderToolCall prints the start phase once and the end phase once, keyed
// by the overlay-merged record's id.
func (r *Renderer) renderToolCall(e event.ToolCall) {
	last := r.toolPhase[e.ID]

	if last == "" {
		toolColor.Fprintf(r.out, "[tool] %s\n", e.ToolName)
		if r.showArgs && len(e.Arguments) > 0 {
			dimColor.Fprintf(r.out, "  %s\n", string(e.Arguments))
		}
		r.toolPhase[e.ID] = event.PhaseStart
		if e.Phase != event.PhaseEnd && e.Result == nil {
			return
		}
	}

	if r.toolPhase[e.ID] == event.PhaseEnd {
		return
	}
	if e.Phase != event.PhaseEnd && e.Result == nil {
		return
	}

	r.toolPhase[e.ID] = event.PhaseEnd
	duration := ""
	if e.DurationMs != nil {
		duration = fmt.Sprintf(" (%dms)", *e.DurationMs)
	}
	if e.Result != nil && e.Result.Error != "" {
		errorColor.Fprintf(r.out, "[tool error] %s: %s\n", e.ToolName, e.Result.Error)
		return
	}
	resultColor.Fprintf(r.out, "[tool done] %s%s\n", e.ToolName, duration)
}

func (r *Renderer) renderPlan(e event.TaskPlan) {
	toolColor.Fprintln(r.out, "[plan]")
	for _, step := range e.Steps {
		glyph := " "
		switch step.Status {
		case event.StatusDoing:
			glyph = ">"
		case event.StatusDone:
			glyph = "x"
		}
		fmt.Fprintf(r.out, "  [%s] %s\n", glyph, step.Title)
		if step.Note != "" {
			dimColor.Fprintf(r.out, "      %s\n", step.Note)
		}
	}
}

// RenderTranscript prints a full conversation snapshot, used by the
// /transcript command.
func (r *Renderer) RenderTranscript(conv transcript.Conversation) {
	dimColor.Fprintln(r.out, strings.Repeat("-", 60))
	for _, ev := range conv.Events {
		switch e := ev.(type) {
		case event.Text:
			if e.Role == event.RoleUser {
				fmt.Fprintf(r.out, "> %s\n", e.Content)
			} else {
				fmt.Fprintf(r.out, "%s\n", e.Content)
			}
		case event.ToolCall:
			toolColor.Fprintf(r.out, "[tool %s] %s\n", e.Phase, e.ToolName)
		case event.TaskPlan:
			r.renderPlan(e)
		case event.WaitingInput:
			waitingColor.Fprintf(r.out, "[input needed] %s\n", e.Message)
		default:
			dimColor.Fprintf(r.out, "[%s]\n", string(ev.EventKind()))
		}
	}
	dimColor.Fprintln(r.out, strings.Repeat("-", 60))
}
