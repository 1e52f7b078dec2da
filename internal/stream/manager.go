// ABOUTME: Stream connection manager owning the single active agent connection.
// ABOUTME: Drives Idle→Connecting→Streaming→{Completed|Paused|Failed} per submission.

package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/lucyonegit/agent-web-client/internal/event"
	"github.com/lucyonegit/agent-web-client/internal/transcript"
)

// State is the connection state machine position for the current submission.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateCompleted
	StatePaused
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StatePaused:
		return "paused"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrSuperseded is returned by Open when a newer submission tore down the
// connection before it reached a terminal signal.
var ErrSuperseded = errors.New("connection superseded by a newer submission")

// errStreamDone stops the SSE read loop after a terminal signal.
var errStreamDone = errors.New("stream done")

// TerminalSignal is the out-of-band message ending one stream's useful life.
// IsPaused false (or absent) means the exchange is fully complete.
type TerminalSignal struct {
	IsPaused       bool   `json:"isPaused"`
	ConversationID string `json:"conversationId"`
}

// SubmitParams describes one user submission.
type SubmitParams struct {
	// Prompt is the user-authored text, required.
	Prompt string
	// ResumeConversationID targets a paused conversation when non-empty.
	ResumeConversationID string
	// PauseEachStep asks the server to pause after every step.
	PauseEachStep bool
}

// Options configures a Manager.
type Options struct {
	// BaseURL is the agent server root, e.g. "http://localhost:8000".
	BaseURL string
	// StreamPath is the SSE endpoint path.
	StreamPath string
	// Token is the bearer token attached to stream requests, optional.
	Token string
	// Client is the HTTP client to use; http.DefaultClient when nil.
	Client *http.Client
	// OnTerminal is invoked with each terminal signal, before Open returns.
	OnTerminal func(TerminalSignal)

	Logger *slog.Logger
}

// connection is one inbound stream attempt. closed is set when a newer
// submission tears it down; a closed connection's late frames never reach
// the store.
type connection struct {
	cancel context.CancelFunc
	closed atomic.Bool
}

// Manager owns the lifetime of the single active inbound stream. Opening a
// new stream synchronously tears down the previous one, so at most one
// connection's read loop ever writes to the store.
type Manager struct {
	store      *transcript.Store
	client     *http.Client
	baseURL    string
	streamPath string
	token      string
	onTerminal func(TerminalSignal)
	logger     *slog.Logger

	mu     sync.Mutex
	state  State
	active *connection
}

// NewManager creates a connection manager writing into store.
func NewManager(store *transcript.Store, opts Options) *Manager {
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:      store,
		client:     client,
		baseURL:    opts.BaseURL,
		streamPath: opts.StreamPath,
		token:      opts.Token,
		onTerminal: opts.OnTerminal,
		logger:     logger.With("component", "stream"),
	}
}

// State returns the state of the most recent submission.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Close tears down any active connection.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
}

// Open submits a prompt and streams the agent's response into the store
// until a terminal signal, a transport error, or teardown by a newer
// submission. It returns the terminal signal on Completed/Paused, or an
// error on Failed/superseded. Partially merged events from a failed stream
// are kept; the transcript is append-only and a transport failure is not a
// semantic pause.
func (m *Manager) Open(ctx context.Context, params SubmitParams) (*TerminalSignal, error) {
	connCtx, cancel := context.WithCancel(ctx)
	conn := &connection{cancel: cancel}

	m.mu.Lock()
	m.teardownLocked()
	m.active = conn
	m.state = StateConnecting
	m.mu.Unlock()

	streamURL, err := m.buildStreamURL(params)
	if err != nil {
		cancel()
		return nil, m.fail(conn, fmt.Errorf("building stream URL: %w", err))
	}

	req, err := http.NewRequestWithContext(connCtx, http.MethodGet, streamURL, nil)
	if err != nil {
		cancel()
		return nil, m.fail(conn, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "text/event-stream")
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	// A resumed conversation already has a transcript; record the user's
	// reply before the server's events arrive.
	if params.ResumeConversationID != "" {
		m.store.AppendUserMessage(params.ResumeConversationID, params.Prompt)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		cancel()
		if conn.closed.Load() {
			return nil, ErrSuperseded
		}
		return nil, m.fail(conn, fmt.Errorf("connecting to stream: %w", err))
	}
	defer resp.Body.Close()
	defer cancel()

	if resp.StatusCode != http.StatusOK {
		return nil, m.fail(conn, fmt.Errorf("server returned status %d", resp.StatusCode))
	}

	var terminal *TerminalSignal
	seeded := params.ResumeConversationID != ""

	handle := func(eventType, data string) error {
		if conn.closed.Load() {
			return ErrSuperseded
		}

		switch eventType {
		case "stream_event":
			frame, err := event.Normalize([]byte(data))
			if err != nil {
				// Malformed frames drop without a state transition.
				m.logger.Warn("dropping malformed frame", "error", err)
				return nil
			}
			m.setState(conn, StateStreaming)
			m.store.PinSession(frame.SessionID)
			if !seeded {
				if m.store.EnsureConversation(frame.ConversationID, params.Prompt) {
					seeded = true
				}
			}
			m.store.Reconcile(frame.ConversationID, frame.Event)
			return nil

		case "done":
			var sig TerminalSignal
			if err := json.Unmarshal([]byte(data), &sig); err != nil {
				m.logger.Warn("unparseable terminal signal", "error", err)
				return nil
			}
			terminal = &sig
			return errStreamDone

		default:
			m.logger.Debug("ignoring stream message", "type", eventType)
			return nil
		}
	}

	err = readSSE(connCtx, resp.Body, handle)

	if conn.closed.Load() {
		return nil, ErrSuperseded
	}

	switch {
	case terminal != nil:
		return terminal, m.finish(conn, terminal)
	case err != nil && !errors.Is(err, errStreamDone):
		return nil, m.fail(conn, fmt.Errorf("reading stream: %w", err))
	default:
		// Stream ended without a terminal signal.
		return nil, m.fail(conn, errors.New("stream closed before terminal signal"))
	}
}

// buildStreamURL assembles the SSE endpoint URL from the submission and the
// pinned session id.
func (m *Manager) buildStreamURL(params SubmitParams) (string, error) {
	u, err := url.Parse(m.baseURL)
	if err != nil {
		return "", err
	}
	u.Path = m.streamPath

	q := u.Query()
	q.Set("prompt", params.Prompt)
	if sessionID := m.store.SessionID(); sessionID != "" {
		q.Set("sessionId", sessionID)
	}
	if params.ResumeConversationID != "" {
		q.Set("conversationId", params.ResumeConversationID)
	}
	if params.PauseEachStep {
		q.Set("pauseEachStep", "true")
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// setState updates the state machine unless conn has been superseded.
func (m *Manager) setState(conn *connection, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != conn {
		return
	}
	m.state = st
}

// fail marks conn's submission as failed. Pause state is left untouched: a
// transport failure is not a semantic pause, so the terminal handler is not
// invoked.
func (m *Manager) fail(conn *connection, err error) error {
	m.mu.Lock()
	if m.active == conn {
		m.state = StateFailed
		m.active = nil
	}
	m.mu.Unlock()

	m.logger.Error("stream failed", "error", err)
	return err
}

// finish closes out a stream that reached its terminal signal.
func (m *Manager) finish(conn *connection, sig *TerminalSignal) error {
	m.mu.Lock()
	if m.active == conn {
		if sig.IsPaused {
			m.state = StatePaused
		} else {
			m.state = StateCompleted
		}
		m.active = nil
	}
	m.mu.Unlock()

	m.logger.Debug("stream finished",
		"paused", sig.IsPaused,
		"conversation_id", sig.ConversationID)

	if m.onTerminal != nil {
		m.onTerminal(*sig)
	}
	return nil
}

// teardownLocked closes the active connection, if any. Must be called with
// the manager mutex held. The closed flag is checked by the old read loop
// before every merge, so late frames from a torn-down connection are inert.
func (m *Manager) teardownLocked() {
	if m.active == nil {
		return
	}
	m.active.closed.Store(true)
	m.active.cancel()
	m.active = nil
}
