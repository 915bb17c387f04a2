package sink

import (
	"logsink/pkg/schema"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func u32(v uint32) *uint32 { return &v }

func TestFormatConsole(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 89_000_000, time.Local)

	tests := []struct {
		name     string
		level    schema.Level
		width    int
		expected string
	}{
		{name: "medium info", level: schema.Info, width: 5, expected: "05:06:07.089 INFO  ready"},
		{name: "medium warn", level: schema.Warn, width: 5, expected: "05:06:07.089 WARN  ready"},
		{name: "short error", level: schema.Error, width: 3, expected: "05:06:07.089 ERR ready"},
		{name: "full critical", level: schema.Critical, width: 8, expected: "05:06:07.089 CRITICAL ready"},
		{name: "unnamed ordinal approximates", level: 22, width: 5, expected: "05:06:07.089 INFO  ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := schema.Record{Level: tt.level, Timestamp: ts, Message: "ready"}
			got := FormatConsole(record, tt.width)
			if got != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestFormatText(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local)
	got := FormatText(schema.Record{Level: schema.Debug, Timestamp: ts, Message: "x"})
	expected := "2026-03-04 05:06:07.000 DEBUG x"
	if got != expected {
		t.Fatalf("expected %q, got %q", expected, got)
	}
}

func TestSyslogPriority(t *testing.T) {
	tests := []struct {
		level    schema.Level
		expected int
	}{
		{0, 7},
		{schema.Trace, 7},
		{schema.Debug, 7},
		{schema.Info, 6},
		{schema.Notice, 5},
		{schema.Warn, 4},
		{35, 4},
		{schema.Error, 3},
		{schema.Critical, 2},
		{schema.Fatal, 1},
		{255, 1},
	}
	for _, tt := range tests {
		got := SyslogPriority(tt.level)
		if got != tt.expected {
			t.Errorf("level %d: expected priority %d, got %d", tt.level, tt.expected, got)
		}
	}
}

func TestBeatsEvent(t *testing.T) {
	ts := time.UnixMicro(1767225600123456).UTC()
	originID := uuid.MustParse("6f1c3c2e-3a55-4d47-9d1b-0d8f6f0b9a21")

	t.Run("inline origin", func(t *testing.T) {
		record := schema.Record{
			Level:     schema.Warn,
			Timestamp: ts,
			Name:      "db.pool",
			ContextID: "req-1",
			Message:   "slow query",
			Origin: &schema.OriginRef{
				Kind: schema.OriginInline,
				Origin: schema.Origin{
					OriginID:    originID,
					Hostname:    "web-1",
					ProcessName: "api",
					ProcessID:   u32(4242),
					ThreadID:    u32(7),
				},
			},
		}
		event := beatsEvent(record)

		if event["@timestamp"] != "2026-01-01T00:00:00.123456Z" {
			t.Fatalf("unexpected timestamp %v", event["@timestamp"])
		}
		if event["message"] != "slow query" || event["context_id"] != "req-1" {
			t.Fatalf("unexpected message fields: %v", event)
		}
		logField := event["log"].(map[string]interface{})
		if logField["level"] != "warn" || logField["logger"] != "db.pool" {
			t.Fatalf("unexpected log field: %v", logField)
		}
		origin := event["origin"].(map[string]interface{})
		if origin["id"] != originID.String() {
			t.Fatalf("unexpected origin %v", origin)
		}
		host := event["host"].(map[string]interface{})
		if host["name"] != "web-1" {
			t.Fatalf("unexpected host %v", host)
		}
		process := event["process"].(map[string]interface{})
		if process["pid"] != uint32(4242) || process["name"] != "api" {
			t.Fatalf("unexpected process %v", process)
		}
		thread := process["thread"].(map[string]interface{})
		if thread["id"] != uint32(7) {
			t.Fatalf("unexpected thread %v", thread)
		}
	})

	t.Run("back reference", func(t *testing.T) {
		record := schema.Record{
			Level:     schema.Info,
			Timestamp: ts,
			Message:   "m",
			Origin:    &schema.OriginRef{Kind: schema.OriginBackRef, ID: originID},
		}
		event := beatsEvent(record)
		origin := event["origin"].(map[string]interface{})
		if origin["id"] != originID.String() {
			t.Fatalf("unexpected origin %v", origin)
		}
		if _, ok := event["host"]; ok {
			t.Fatal("back reference must not produce host fields")
		}
	})

	t.Run("no origin", func(t *testing.T) {
		event := beatsEvent(schema.Record{Level: schema.Info, Timestamp: ts, Message: "m"})
		for _, key := range []string{"origin", "host", "process", "context_id"} {
			if _, ok := event[key]; ok {
				t.Fatalf("unexpected key %s", key)
			}
		}
		logField := event["log"].(map[string]interface{})
		if _, ok := logField["logger"]; ok {
			t.Fatal("empty logger name should be omitted")
		}
	})
}

func TestEncodeJournalEntry(t *testing.T) {
	fields := map[string]string{
		"MESSAGE":  "first\nsecond",
		"PRIORITY": "6",
		"EMPTY":    "",
	}
	payload := encodeJournalEntry(fields)

	parsed, err := parseJournalEntry(payload)
	if err != nil {
		t.Fatalf("failed to parse payload: %v", err)
	}
	if parsed["MESSAGE"] != "first\nsecond" {
		t.Fatalf("multi-line message not preserved: %q", parsed["MESSAGE"])
	}
	if parsed["PRIORITY"] != "6" {
		t.Fatalf("unexpected priority %q", parsed["PRIORITY"])
	}
	if _, ok := parsed["EMPTY"]; ok {
		t.Fatal("empty fields should be skipped")
	}
	if !strings.HasSuffix(string(payload), "\n\n") {
		t.Fatal("entry must end with a blank line")
	}
}

func TestJournalFields(t *testing.T) {
	record := schema.Record{
		Level:     schema.Error,
		Timestamp: time.UnixMicro(1700000000000001),
		Name:      "worker",
		Message:   "failed",
		Origin: &schema.OriginRef{
			Kind:   schema.OriginInline,
			Origin: schema.Origin{Hostname: "h", ProcessName: "proc", ProcessID: u32(9)},
		},
	}
	fields := journalFields(record, "abc")

	expected := map[string]string{
		"__REALTIME_TIMESTAMP": "1700000000000001",
		"_BOOT_ID":             "abc",
		"MESSAGE":              "failed",
		"PRIORITY":             "3",
		"SYSLOG_IDENTIFIER":    "proc",
		"SYSLOG_PID":           "9",
		"HOSTNAME":             "h",
		"LOGSINK_LOGGER":       "worker",
		"LOGSINK_LEVEL":        "Error",
	}
	for key, value := range expected {
		if fields[key] != value {
			t.Errorf("field %s: expected %q, got %q", key, value, fields[key])
		}
	}
}
