package sink

import (
	"logsink/internal/global"
	"logsink/pkg/schema"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	clockLayout = "15:04:05.000"
	dateLayout  = "2006-01-02 "

	fileLevelWidth = 5
)

// HH:MM:SS.mmm LEVEL message, local time
func FormatConsole(record schema.Record, levelWidth int) (line string) {
	var b strings.Builder
	b.Grow(len(clockLayout) + len(record.Message) + 16)
	b.WriteString(record.Timestamp.Local().Format(clockLayout))
	b.WriteByte(' ')
	b.WriteString(record.Level.Render(levelWidth, true))
	b.WriteByte(' ')
	b.WriteString(record.Message)
	line = b.String()
	return
}

// Console format prefixed with the local date
func FormatText(record schema.Record) (line string) {
	line = record.Timestamp.Local().Format(dateLayout) + FormatConsole(record, fileLevelWidth)
	return
}

// Marker written in place of records a slow sink lost
func formatGap(dropped uint64) (line string) {
	line = "--- " + strconv.FormatUint(dropped, 10) + " records dropped ---"
	return
}

// Syslog priority (0 emerg .. 7 debug) for a level
func SyslogPriority(level schema.Level) (priority int) {
	switch {
	case level >= schema.Fatal:
		priority = 1
	case level >= schema.Critical:
		priority = 2
	case level >= schema.Error:
		priority = 3
	case level >= schema.Warn:
		priority = 4
	case level >= schema.Notice:
		priority = 5
	case level >= schema.Info:
		priority = 6
	default:
		priority = 7
	}
	return
}

// Beats event fields for one record
func beatsEvent(record schema.Record) (fields map[string]interface{}) {
	logField := map[string]interface{}{
		"level":   strings.ToLower(record.Level.ApproxName()),
		"ordinal": int(record.Level),
		"syslog": map[string]interface{}{
			"priority": SyslogPriority(record.Level),
		},
	}
	if record.Name != "" {
		logField["logger"] = record.Name
	}

	fields = map[string]interface{}{
		// Minimum required fields
		"@timestamp": record.Timestamp.UTC().Format(time.RFC3339Nano),
		"message":    record.Message,
		"log":        logField,

		// Meta fields identifying this daemon
		"agent": map[string]interface{}{
			"type":    global.ProgBaseName,
			"version": global.ProgVersion,
		},
	}
	if record.ContextID != "" {
		fields["context_id"] = record.ContextID
	}

	if record.Origin == nil {
		return
	}
	switch record.Origin.Kind {
	case schema.OriginBackRef:
		fields["origin"] = map[string]interface{}{"id": record.Origin.ID.String()}
	case schema.OriginInline:
		origin := record.Origin.Origin
		if origin.OriginID != uuid.Nil {
			fields["origin"] = map[string]interface{}{"id": origin.OriginID.String()}
		}
		if origin.Hostname != "" {
			fields["host"] = map[string]interface{}{
				"name":     origin.Hostname,
				"hostname": origin.Hostname,
			}
		}

		process := map[string]interface{}{}
		if origin.ProcessName != "" {
			process["name"] = origin.ProcessName
		}
		if origin.ProcessID != nil {
			process["pid"] = *origin.ProcessID
		}
		thread := map[string]interface{}{}
		if origin.ThreadName != "" {
			thread["name"] = origin.ThreadName
		}
		if origin.ThreadID != nil {
			thread["id"] = *origin.ThreadID
		}
		if len(thread) > 0 {
			process["thread"] = thread
		}
		if len(process) > 0 {
			fields["process"] = process
		}
	}
	return
}

// Journal export fields for one record. Values may contain newlines.
func journalFields(record schema.Record, bootID string) (fields map[string]string) {
	fields = map[string]string{
		"__REALTIME_TIMESTAMP": strconv.FormatInt(record.Timestamp.UnixMicro(), 10), // Required field
		"_BOOT_ID":             bootID,                                              // Required field
		"MESSAGE":              record.Message,                                      // Required field
		"PRIORITY":             strconv.Itoa(SyslogPriority(record.Level)),
		"LOGSINK_LEVEL":        record.Level.ApproxName(),
		"LOGSINK_ORDINAL":      strconv.Itoa(int(record.Level)),
		"LOGSINK_LOGGER":       record.Name,
		"LOGSINK_CONTEXT_ID":   record.ContextID,
		"SYSLOG_IDENTIFIER":    record.Name,
	}
	if record.Origin == nil {
		return
	}

	switch record.Origin.Kind {
	case schema.OriginBackRef:
		fields["LOGSINK_ORIGIN_ID"] = record.Origin.ID.String()
	case schema.OriginInline:
		origin := record.Origin.Origin
		if origin.OriginID != uuid.Nil {
			fields["LOGSINK_ORIGIN_ID"] = origin.OriginID.String()
		}
		fields["HOSTNAME"] = origin.Hostname
		fields["SYSLOG_HOSTNAME"] = origin.Hostname
		if origin.ProcessName != "" {
			fields["SYSLOG_IDENTIFIER"] = origin.ProcessName
		}
		if origin.ProcessID != nil {
			fields["SYSLOG_PID"] = strconv.FormatUint(uint64(*origin.ProcessID), 10)
		}
		fields["LOGSINK_THREAD_NAME"] = origin.ThreadName
		if origin.ThreadID != nil {
			fields["TID"] = strconv.FormatUint(uint64(*origin.ThreadID), 10)
		}
	}
	return
}
