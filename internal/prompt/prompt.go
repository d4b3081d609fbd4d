package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/neboloop/cell/internal/types"
)

// EmptyHistory replaces the call history in chat prompts when no calls exist.
const EmptyHistory = "No API calls recorded yet."

// TimeLayout renders call times as local wall-clock time.
const TimeLayout = "15:04:05"

// timestampLayouts are tried in order when parsing APICall.Timestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// FormatCalls renders one "<METHOD> <ENDPOINT> at <time>" line per call,
// oldest first. Timestamps that do not parse are shown as given.
func FormatCalls(calls []types.APICall, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	lines := make([]string, 0, len(calls))
	for _, c := range calls {
		lines = append(lines, fmt.Sprintf("%s %s at %s", c.Method, c.Endpoint, formatTime(c.Timestamp, loc)))
	}
	return strings.Join(lines, "\n")
}

func formatTime(ts string, loc *time.Location) string {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.In(loc).Format(TimeLayout)
		}
	}
	return ts
}

// Prediction builds the next-call prompt. Callers must not pass an empty history.
func Prediction(calls []types.APICall, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString("Based on the following sequence of API calls, predict the most likely next API call.\n")
	sb.WriteString("Only respond with the API endpoint path (e.g., \"/api/users/list\").\n\n")
	sb.WriteString("Recent API calls:\n")
	sb.WriteString(FormatCalls(calls, loc))
	sb.WriteString("\n\nNext API call:")
	return sb.String()
}

// Chat builds the assistant prompt around the latest user message.
func Chat(calls []types.APICall, latest string, loc *time.Location) string {
	history := EmptyHistory
	if len(calls) > 0 {
		history = FormatCalls(calls, loc)
	}

	var sb strings.Builder
	sb.WriteString("You are Cell, an AI assistant integrated into a SaaS application.\n")
	sb.WriteString("You have access to the user's recent API activity.\n\n")
	sb.WriteString("Recent API calls:\n")
	sb.WriteString(history)
	sb.WriteString("\n\nUser message: ")
	sb.WriteString(latest)
	sb.WriteString("\n\nRespond helpfully, referencing their API usage when relevant. Keep responses concise.")
	return sb.String()
}
