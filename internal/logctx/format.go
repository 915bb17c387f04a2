package logctx

import (
	"strings"
)

// Fixed width, nanoseconds always present
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Stringify full event, always newline terminated
func (event Event) Format() (text string) {
	var builder strings.Builder

	if !event.Timestamp.IsZero() {
		builder.WriteString("[" + event.Timestamp.Format(timestampLayout) + "] ")
	}
	if len(event.Tags) > 0 {
		builder.WriteString("[" + strings.Join(event.Tags, "/") + "] ")
	}
	if event.Severity != "" {
		builder.WriteString("[" + event.Severity + "] ")
	}
	builder.WriteString(event.Message)

	text = strings.TrimRight(builder.String(), " \n") + "\n"
	return
}
