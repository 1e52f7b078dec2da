// ABOUTME: Resume controller owning the process-wide pause state.
// ABOUTME: Decides whether a new submission continues a paused conversation or starts fresh.

package resume

import "sync"

// PauseState records whether the agent suspended the last exchange awaiting
// user input, and which conversation must be resumed if so. It is mutated
// only by the stream manager's terminal-signal handler and read only when
// the next submission is built.
type PauseState struct {
	IsPaused             bool
	PausedConversationID string
}

// Controller owns the pause state. Exactly one resume target can be in
// flight at a time: while paused, every new submission targets the paused
// conversation until that exchange completes or fails.
type Controller struct {
	mu    sync.Mutex
	state PauseState
}

// NewController creates a controller with a cleared pause state.
func NewController() *Controller {
	return &Controller{}
}

// HandleTerminal records the outcome of a stream's terminal signal. A pause
// pins the conversation to resume; completion clears any pause. Transport
// failures never reach this method, so a failed stream leaves the pause
// state untouched.
func (c *Controller) HandleTerminal(isPaused bool, conversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if isPaused {
		c.state = PauseState{IsPaused: true, PausedConversationID: conversationID}
		return
	}
	c.state = PauseState{}
}

// ResolveTarget returns the conversation id the next submission must resume,
// or "" to let the server mint a new conversation.
func (c *Controller) ResolveTarget() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.IsPaused {
		return c.state.PausedConversationID
	}
	return ""
}

// State returns a copy of the current pause state.
func (c *Controller) State() PauseState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
