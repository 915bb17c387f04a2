package sink

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"logsink/internal/bus"
	"logsink/pkg/schema"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// Reads one journal export entry (text and binary fields) up to its blank line
func parseJournalEntry(payload []byte) (fields map[string]string, err error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	fields = make(map[string]string)
	for {
		var line string
		line, err = reader.ReadString('\n')
		if err != nil {
			err = fmt.Errorf("entry not terminated: %w", err)
			return
		}
		line = strings.TrimSuffix(line, "\n")
		if line == "" {
			return
		}

		if key, value, ok := strings.Cut(line, "="); ok {
			fields[key] = value
			continue
		}

		var size [8]byte
		_, err = io.ReadFull(reader, size[:])
		if err != nil {
			return
		}
		data := make([]byte, binary.LittleEndian.Uint64(size[:]))
		_, err = io.ReadFull(reader, data)
		if err != nil {
			return
		}
		if b, _ := reader.ReadByte(); b != '\n' {
			err = fmt.Errorf("binary field %s missing newline", line)
			return
		}
		fields[line] = string(data)
	}
}

func TestJournalUpload(t *testing.T) {
	received := make(chan map[string]string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" {
			http.Error(w, "wrong path", http.StatusNotFound)
			return
		}
		if r.Header.Get("Content-Type") != "application/vnd.fdo.journal" {
			http.Error(w, "wrong content type", http.StatusUnsupportedMediaType)
			return
		}
		body, _ := io.ReadAll(r.Body)
		fields, err := parseJournalEntry(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		received <- fields
	}))
	defer server.Close()

	module, err := NewJournal([]string{"Test"}, server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer module.Close()

	record := schema.Record{Level: schema.Notice, Timestamp: time.UnixMicro(42), Message: "hello"}
	err = module.Write(context.Background(), bus.Delivery{Record: record})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	fields := <-received
	if fields["MESSAGE"] != "hello" || fields["PRIORITY"] != "5" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if len(fields["_BOOT_ID"]) != 32 {
		t.Fatalf("expected 32 hex digit boot id, got %q", fields["_BOOT_ID"])
	}
}

func TestJournalErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "journal full", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	module, err := NewJournal([]string{"Test"}, server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = module.Write(context.Background(), bus.Delivery{Record: schema.Record{Message: "x"}})
	if err == nil || !strings.Contains(err.Error(), "journal full") {
		t.Fatalf("expected error with response body, got %v", err)
	}
}

func TestNewJournalRejectsBadURL(t *testing.T) {
	for _, endpoint := range []string{"ftp://host", "://bad"} {
		if _, err := NewJournal(nil, endpoint); err == nil {
			t.Errorf("expected error for %q", endpoint)
		}
	}
	module, err := NewJournal(nil, "")
	if module != nil || err != nil {
		t.Fatalf("empty endpoint should yield nil module, got %v %v", module, err)
	}
}
