package logctx

import (
	"context"
	"logsink/internal/global"
	"testing"
	"time"
)

func TestLogEvent(t *testing.T) {
	done := make(chan struct{})
	defer close(done)

	ctx := New(context.Background(), global.NSTest, 2, done)

	logger := GetLogger(ctx)
	if logger == nil {
		t.Fatalf("expected logger creation, got nil logger")
	}

	tests := []struct {
		name          string
		logLevel      int
		eventLevel    int
		severity      string
		message       string
		vars          []any
		expectEvents  int
		expectMessage string
	}{
		{
			name:          "event level <= print level is logged",
			logLevel:      2,
			eventLevel:    1,
			severity:      global.InfoLog,
			message:       "hello world",
			expectEvents:  1,
			expectMessage: "hello world",
		},
		{
			name:         "event level > print level is dropped",
			logLevel:     1,
			eventLevel:   3,
			severity:     global.InfoLog,
			message:      "should not appear",
			expectEvents: 0,
		},
		{
			name:          "error severity bypasses level filtering",
			logLevel:      0,
			eventLevel:    5,
			severity:      global.ErrorLog,
			message:       "fatal error",
			expectEvents:  1,
			expectMessage: "fatal error",
		},
		{
			name:          "formatted message with vars",
			logLevel:      3,
			eventLevel:    2,
			severity:      global.WarnLog,
			message:       "dropped %d records",
			vars:          []any{42},
			expectEvents:  1,
			expectMessage: "dropped 42 records",
		},
		{
			name:          "format verb but no variables",
			logLevel:      3,
			eventLevel:    2,
			severity:      global.InfoLog,
			message:       "literal %d",
			expectEvents:  1,
			expectMessage: "literal %d",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger.mutex.Lock()
			logger.queue = []Event{}
			logger.mutex.Unlock()

			SetLogLevel(ctx, tt.logLevel)
			LogEvent(ctx, tt.eventLevel, tt.severity, tt.message, tt.vars...)

			logger.mutex.Lock()
			defer logger.mutex.Unlock()

			if got := len(logger.queue); got != tt.expectEvents {
				t.Fatalf("expected %d events, got %d", tt.expectEvents, got)
			}
			if tt.expectEvents == 0 {
				return
			}

			ev := logger.queue[0]
			if ev.Severity != tt.severity {
				t.Fatalf("severity mismatch: got %q want %q", ev.Severity, tt.severity)
			}
			if ev.Message != tt.expectMessage {
				t.Fatalf("message mismatch: got %q want %q", ev.Message, tt.expectMessage)
			}
			if time.Since(ev.Timestamp) > time.Second {
				t.Fatalf("event timestamp too old: %v", ev.Timestamp)
			}
		})
	}
}

func TestLogEventWithoutLogger(t *testing.T) {
	// Must not panic
	LogEvent(context.Background(), global.VerbosityStandard, global.ErrorLog, "nobody listens")
}

func TestTagging(t *testing.T) {
	base := AppendCtxTag(context.Background(), "Daemon")
	child := AppendCtxTag(base, "Receiver")
	sibling := AppendCtxTag(base, "Bus")

	if got := GetTagList(child); len(got) != 2 || got[1] != "Receiver" {
		t.Fatalf("unexpected child tags %v", got)
	}
	if got := GetTagList(sibling); len(got) != 2 || got[1] != "Bus" {
		t.Fatalf("sibling tags corrupted: %v", got)
	}
	if got := GetTagList(RemoveLastCtxTag(child)); len(got) != 1 || got[0] != "Daemon" {
		t.Fatalf("unexpected tags after removal %v", got)
	}
	if got := GetTagList(RemoveLastCtxTag(context.Background())); len(got) != 0 {
		t.Fatalf("expected empty tags, got %v", got)
	}
}
