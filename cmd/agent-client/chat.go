// ABOUTME: Interactive chat loop: read a prompt, resolve the resume target, stream the reply.
// ABOUTME: Slash commands for transcript inspection, HTML export and the pause toggle.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/lucyonegit/agent-web-client/internal/auth"
	"github.com/lucyonegit/agent-web-client/internal/config"
	"github.com/lucyonegit/agent-web-client/internal/console"
	"github.com/lucyonegit/agent-web-client/internal/export"
	"github.com/lucyonegit/agent-web-client/internal/resume"
	"github.com/lucyonegit/agent-web-client/internal/stream"
	"github.com/lucyonegit/agent-web-client/internal/transcript"
)

func runChat(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	token := auth.Token(cfg.Auth.Token)
	if token != "" && auth.IsExpired(token) {
		color.Yellow("Warning: configured token is expired; the server may reject the stream")
	}

	store := transcript.NewStore(logger)
	controller := resume.NewController()
	manager := stream.NewManager(store, stream.Options{
		BaseURL:    cfg.Server.BaseURL,
		StreamPath: cfg.Server.StreamPath,
		Token:      token,
		Client:     buildHTTPClient(cfg.Stream.ConnectTimeout),
		Logger:     logger,
		OnTerminal: func(sig stream.TerminalSignal) {
			controller.HandleTerminal(sig.IsPaused, sig.ConversationID)
		},
	})
	defer manager.Close()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	renderer := console.NewRenderer(os.Stdout, cfg.Console.ShowToolArguments)
	updates, _ := store.Broadcaster().Subscribe(ctx)
	go renderer.Run(updates)

	fmt.Printf("agent-client connected to %s\n", cfg.Server.BaseURL)
	fmt.Println("Type a message and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Println()

	pauseEachStep := cfg.Console.PauseEachStep
	scanner := bufio.NewScanner(os.Stdin)

	for {
		if controller.State().IsPaused {
			color.New(color.FgMagenta).Printf("[paused %s]> ", controller.State().PausedConversationID)
		} else {
			fmt.Print("> ")
		}

		input, err := readLine(ctx, scanner)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := handleCommand(input, store, renderer, &pauseEachStep); quit {
				return nil
			}
			fmt.Println()
			continue
		}

		params := stream.SubmitParams{
			Prompt:               input,
			ResumeConversationID: controller.ResolveTarget(),
			PauseEachStep:        pauseEachStep,
		}

		terminal, err := manager.Open(ctx, params)
		switch {
		case errors.Is(err, stream.ErrSuperseded):
			// A newer submission took over; nothing to report.
		case err != nil:
			color.Red("[error] %v", err)
		case terminal.IsPaused:
			color.Magenta("[agent paused — your next message resumes %s]", terminal.ConversationID)
		}
		fmt.Println()
	}
}

// readLine reads one line of input without blocking signal handling.
func readLine(ctx context.Context, scanner *bufio.Scanner) (string, error) {
	inputCh := make(chan string, 1)
	errCh := make(chan error, 1)

	go func() {
		if scanner.Scan() {
			inputCh <- scanner.Text()
		} else {
			if err := scanner.Err(); err != nil {
				errCh <- err
			} else {
				errCh <- io.EOF
			}
		}
	}()

	select {
	case <-ctx.Done():
		return "", context.Canceled
	case err := <-errCh:
		return "", err
	case input := <-inputCh:
		return input, nil
	}
}

// handleCommand executes a slash command. Returns true to quit.
func handleCommand(input string, store *transcript.Store, renderer *console.Renderer, pauseEachStep *bool) bool {
	cmd, args, _ := strings.Cut(input, " ")
	args = strings.TrimSpace(args)

	switch cmd {
	case "/quit", "/exit", "/q":
		return true

	case "/help":
		fmt.Println("Commands:")
		fmt.Println("  /transcript       Show the full transcript of every conversation")
		fmt.Println("  /export <file>    Export the latest conversation as HTML")
		fmt.Println("  /pause-toggle     Toggle asking the server to pause after every step")
		fmt.Println("  /help             Show this help")
		fmt.Println("  /quit             Exit")

	case "/transcript":
		snapshot := store.Snapshot()
		if len(snapshot) == 0 {
			fmt.Println("No conversations yet")
			break
		}
		for _, conv := range snapshot {
			fmt.Printf("conversation %s:\n", conv.ID)
			renderer.RenderTranscript(conv)
		}

	case "/export":
		if args == "" {
			fmt.Println("Usage: /export <file>")
			break
		}
		if err := exportLatest(store, args); err != nil {
			color.Red("[error] %v", err)
			break
		}
		fmt.Printf("Exported to %s\n", args)

	case "/pause-toggle":
		*pauseEachStep = !*pauseEachStep
		fmt.Printf("Pause after every step: %v\n", *pauseEachStep)

	default:
		fmt.Printf("Unknown command %s, try /help\n", cmd)
	}
	return false
}

// exportLatest writes the most recent conversation to an HTML file.
func exportLatest(store *transcript.Store, path string) error {
	snapshot := store.Snapshot()
	if len(snapshot) == 0 {
		return errors.New("no conversations to export")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	return export.HTML(snapshot[len(snapshot)-1], f)
}

// loadConfig reads the config file, falling back to defaults when absent.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.Path()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(path)
}

// buildHTTPClient returns a client with a bounded connect phase but no
// overall deadline: the stream waits indefinitely for a terminal signal.
func buildHTTPClient(connectTimeout time.Duration) *http.Client {
	if connectTimeout <= 0 {
		return http.DefaultClient
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:           (&net.Dialer{Timeout: connectTimeout}).DialContext,
			ResponseHeaderTimeout: connectTimeout,
		},
	}
}
