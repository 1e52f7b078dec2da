// ABOUTME: Minimal fake agent server for development and E2E testing.
// ABOUTME: Replays a TOML scenario over the SSE stream endpoint, or echoes the prompt.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/lucyonegit/agent-web-client/internal/scenario"
)

func main() {
	addr := flag.String("addr", "localhost:8000", "listen address")
	streamPath := flag.String("stream-path", "/api/coding-agent/stream", "SSE endpoint path")
	scenarioPath := flag.String("scenario", "", "TOML scenario file (echo mode when empty)")
	flag.Parse()

	var scn *scenario.Scenario
	if *scenarioPath != "" {
		loaded, err := scenario.Load(*scenarioPath)
		if err != nil {
			log.Fatal(err)
		}
		scn = loaded
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc(*streamPath, func(w http.ResponseWriter, r *http.Request) {
		serveStream(w, r, scn)
	})

	server := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(os.Stderr, "fake-agent listening on %s%s\n", *addr, *streamPath)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// serveStream replays the scenario (or an echo of the prompt) as SSE frames
// followed by the terminal done signal.
func serveStream(w http.ResponseWriter, r *http.Request, scn *scenario.Scenario) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	prompt := r.URL.Query().Get("prompt")
	if prompt == "" {
		http.Error(w, `{"error":"prompt required"}`, http.StatusBadRequest)
		return
	}

	if scn == nil {
		scn = echoScenario(prompt)
	}

	sessionID := scn.SessionID
	if sessionID == "" {
		sessionID = "fake-session"
	}
	// A resume submission pins the conversation to continue.
	conversationID := r.URL.Query().Get("conversationId")
	if conversationID == "" {
		conversationID = scn.ConversationID
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for _, frame := range scn.Frames {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(frame.Delay()):
		}

		payload := map[string]any{
			"sessionId":      sessionID,
			"conversationId": conversationID,
			"event":          frame.WireEvent(),
			"timestamp":      time.Now().UnixMilli(),
		}
		if err := writeSSE(w, flusher, "stream_event", payload); err != nil {
			return
		}
	}

	terminal := map[string]any{"isPaused": scn.Paused}
	if scn.Paused {
		terminal["conversationId"] = conversationID
	}
	writeSSE(w, flusher, "done", terminal)
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// echoScenario streams the prompt back as word-by-word assistant text.
func echoScenario(prompt string) *scenario.Scenario {
	words := strings.Fields("echo: " + prompt)
	frames := make([]scenario.Frame, 0, len(words))
	for i, word := range words {
		chunk := word
		if i < len(words)-1 {
			chunk += " "
		}
		frames = append(frames, scenario.Frame{
			Type:    "text",
			ID:      "echo-1",
			Content: chunk,
			Stream:  true,
			Done:    i == len(words)-1,
			DelayMs: 30,
		})
	}
	return &scenario.Scenario{ConversationID: "echo-conv", Frames: frames}
}
