// ABOUTME: Standalone HTML export of a conversation transcript.
// ABOUTME: Assistant markdown is rendered with goldmark; everything else is escaped.

package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"

	"github.com/lucyonegit/agent-web-client/internal/event"
	"github.com/lucyonegit/agent-web-client/internal/transcript"
)

// htmlDoc is the document shell. Body entries are pre-rendered per event.
const htmlDoc = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Conversation {{.ID}}</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
.user { background: #eef2ff; border-radius: 8px; padding: .75rem 1rem; margin: .75rem 0; }
.assistant { margin: .75rem 0; }
.tool { border: 1px solid #ddd; border-radius: 8px; padding: .5rem 1rem; margin: .75rem 0; font-size: .9rem; }
.plan { border-left: 3px solid #888; padding-left: 1rem; margin: .75rem 0; }
.waiting { background: #fff7ed; border-radius: 8px; padding: .75rem 1rem; margin: .75rem 0; }
pre { background: #f6f8fa; padding: .5rem; overflow-x: auto; }
</style>
</head>
<body>
<h1>Conversation {{.ID}}</h1>
{{range .Entries}}{{.}}
{{end}}</body>
</html>
`

var docTemplate = template.Must(template.New("transcript").Parse(htmlDoc))

// HTML writes conv as a standalone HTML document.
func HTML(conv transcript.Conversation, w io.Writer) error {
	entries := make([]template.HTML, 0, len(conv.Events))
	for _, ev := range conv.Events {
		entry, err := renderEvent(ev)
		if err != nil {
			return fmt.Errorf("rendering event %s: %w", ev.EventID(), err)
		}
		entries = append(entries, entry)
	}

	data := struct {
		ID      string
		Entries []template.HTML
	}{ID: conv.ID, Entries: entries}

	if err := docTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}
	return nil
}

func renderEvent(ev event.Event) (template.HTML, error) {
	var buf bytes.Buffer

	switch e := ev.(type) {
	case event.Text:
		if e.Role == event.RoleUser {
			fmt.Fprintf(&buf, `<div class="user">%s</div>`, template.HTMLEscapeString(e.Content))
			break
		}
		var md bytes.Buffer
		if err := goldmark.Convert([]byte(e.Content), &md); err != nil {
			return "", err
		}
		fmt.Fprintf(&buf, `<div class="assistant">%s</div>`, md.String())

	case event.ToolCall:
		fmt.Fprintf(&buf, `<div class="tool"><strong>%s</strong> (%s)`,
			template.HTMLEscapeString(e.ToolName), template.HTMLEscapeString(e.Phase))
		if len(e.Arguments) > 0 {
			fmt.Fprintf(&buf, `<pre>%s</pre>`, template.HTMLEscapeString(indentJSON(e.Arguments)))
		}
		if e.Result != nil {
			if e.Result.Error != "" {
				fmt.Fprintf(&buf, `<div>error: %s</div>`, template.HTMLEscapeString(e.Result.Error))
			} else if len(e.Result.Value) > 0 {
				fmt.Fprintf(&buf, `<pre>%s</pre>`, template.HTMLEscapeString(indentJSON(e.Result.Value)))
			}
		}
		if e.DurationMs != nil {
			fmt.Fprintf(&buf, `<div>%dms</div>`, *e.DurationMs)
		}
		buf.WriteString(`</div>`)

	case event.TaskPlan:
		buf.WriteString(`<div class="plan"><strong>Plan</strong><ol>`)
		for _, step := range e.Steps {
			fmt.Fprintf(&buf, `<li>[%s] %s</li>`,
				template.HTMLEscapeString(step.Status), template.HTMLEscapeString(step.Title))
		}
		buf.WriteString(`</ol></div>`)

	case event.WaitingInput:
		fmt.Fprintf(&buf, `<div class="waiting">%s</div>`, template.HTMLEscapeString(e.Message))

	default:
		// Opaque kinds export as their type tag only.
		fmt.Fprintf(&buf, `<div class="tool">%s</div>`, template.HTMLEscapeString(string(ev.EventKind())))
	}

	return template.HTML(buf.String()), nil
}

// indentJSON pretty-prints raw JSON, falling back to the raw text.
func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
