// ABOUTME: Server-Sent Events read loop for the agent stream.
// ABOUTME: Accumulates event:/data: lines and dispatches on blank-line boundaries.

package stream

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// readSSE scans body as a Server-Sent Events stream, invoking handle for
// each complete event in arrival order. Returns when the body ends, the
// context is cancelled, or handle returns an error.
func readSSE(ctx context.Context, body io.Reader, handle func(eventType, data string) error) error {
	scanner := bufio.NewScanner(body)

	var eventType string
	var dataLines []string

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()

		// Empty line signals end of event
		if line == "" {
			if eventType != "" && len(dataLines) > 0 {
				data := strings.Join(dataLines, "\n")
				if err := handle(eventType, data); err != nil {
					return err
				}
			}
			eventType = ""
			dataLines = nil
			continue
		}

		if strings.HasPrefix(line, "event:") {
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			continue
		}

		if strings.HasPrefix(line, "data:") {
			dataLines = append(dataLines, strings.TrimPrefix(line, "data:"))
			continue
		}
	}

	return scanner.Err()
}
