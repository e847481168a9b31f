package dashboard

import (
	"html/template"
	"io"
	"time"

	"github.com/John42506176Linux/voice-assist/internal/store"
)

// SpeakerLabel maps a channel index to its display name. Channel 0 is the
// customer by convention only; any other index renders as the agent.
func SpeakerLabel(channelIndex int) string {
	if channelIndex == 0 {
		return "Customer"
	}
	return "Agent"
}

// Message is one rendered chat bubble.
type Message struct {
	Speaker   string
	Text      string
	FromAgent bool
	At        time.Time
}

// PageData feeds the dashboard template.
type PageData struct {
	Conversations []store.Conversation
	Selected      string
	Messages      []Message
	LastRefresh   time.Time
	PollSeconds   float64
	ManualRefresh bool
}

var pageTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Chat Viewer: Customer-Agent Conversations</title>
<style>
body { font-family: sans-serif; max-width: 760px; margin: 2em auto; color: #222; }
.bubble { padding: 10px; margin: 5px; border-radius: 10px; max-width: 70%; display: inline-block; }
.customer { background-color: #f0f0f5; text-align: left; }
.agent { background-color: #e0ffe0; text-align: right; margin-left: auto; }
.row { display: flex; }
.row.agent-row { justify-content: flex-end; }
.meta { color: #888; font-size: 0.85em; }
</style>
</head>
<body>
<h1>Chat Viewer: Customer-Agent Conversations</h1>
{{if .Conversations}}
<h3>Available Conversations</h3>
<form method="GET" action="/">
<select name="request_id" onchange="this.form.submit()">
<option value="">Select a Request ID to view the conversation</option>
{{$selected := .Selected}}
{{range .Conversations}}
<option value="{{.RequestID}}" {{if eq .RequestID $selected}}selected{{end}}>{{.RequestID}} (Earliest: {{.StartedAt.Format "2006-01-02 15:04:05"}})</option>
{{end}}
</select>
</form>
{{if .Selected}}
<h3>Conversation for Request ID: {{.Selected}}</h3>
{{if .Messages}}
{{range .Messages}}
<div class="row{{if .FromAgent}} agent-row{{end}}">
<div class="bubble {{if .FromAgent}}agent{{else}}customer{{end}}"><b>{{.Speaker}}:</b> {{.Text}}</div>
</div>
{{end}}
{{else}}
<p>No conversation found for the selected Request ID.</p>
{{end}}
{{end}}
{{else}}
<p>No transcription data found in the database.</p>
{{end}}
{{if .ManualRefresh}}
<form method="POST" action="/refresh"><button type="submit">Refresh</button></form>
{{else}}
<p class="meta">Auto-refreshing every {{.PollSeconds}}s.</p>
{{end}}
{{if not .LastRefresh.IsZero}}<p class="meta">Last refresh: {{.LastRefresh.Format "15:04:05"}}</p>{{end}}
<script>
(function() {
	var proto = location.protocol === "https:" ? "wss://" : "ws://";
	var ws = new WebSocket(proto + location.host + "/ws");
	ws.onmessage = function() { location.reload(); };
})();
</script>
</body>
</html>
`))

// RenderPage writes the dashboard HTML for one session's current state.
func RenderPage(w io.Writer, data PageData) error {
	return pageTemplate.Execute(w, data)
}

// MessagesFor converts a conversation's utterances into chat bubbles.
func MessagesFor(utterances []store.Utterance) []Message {
	messages := make([]Message, 0, len(utterances))
	for _, u := range utterances {
		messages = append(messages, Message{
			Speaker:   SpeakerLabel(u.ChannelIndex),
			Text:      u.Transcript,
			FromAgent: u.ChannelIndex != 0,
			At:        u.CreatedAt,
		})
	}
	return messages
}
