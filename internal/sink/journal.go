package sink

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"logsink/internal/bus"
	"logsink/internal/global"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const bootIDPath = "/proc/sys/kernel/random/boot_id"

// Creates new journal-remote output module. Returns nil nil if no URL.
func NewJournal(namespace []string, endpoint string) (module *Journal, err error) {
	if endpoint == "" {
		return
	}

	baseURL, err := url.Parse(endpoint)
	if err != nil {
		err = fmt.Errorf("invalid journal URL: %w", err)
		return
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		err = fmt.Errorf("invalid journal URL '%s': scheme must be http or https", endpoint)
		return
	}
	messagePublishPath := &url.URL{Path: global.JournalUploadPath} // Only path accepted by the remote server

	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: -1, // Not supported by journal remote server
	}

	module = &Journal{
		Namespace: append(append([]string(nil), namespace...), global.NSoJrnl),
		url:       baseURL.ResolveReference(messagePublishPath).String(),
		bootID:    readBootID(),
		client:    &http.Client{Transport: transport},
	}
	return
}

// Kernel boot id in journal form (32 hex digits). Falls back to a random id
// for this run when the kernel does not expose one.
func readBootID() (id string) {
	raw, err := os.ReadFile(bootIDPath)
	if err == nil {
		parsed, parseErr := uuid.ParseBytes(bytes.TrimSpace(raw))
		if parseErr == nil {
			id = strings.ReplaceAll(parsed.String(), "-", "")
			return
		}
	}
	id = strings.ReplaceAll(uuid.New().String(), "-", "")
	return
}

// Posts one record in journal export format
func (mod *Journal) Write(ctx context.Context, delivery bus.Delivery) (err error) {
	if mod == nil {
		return
	}

	payload := encodeJournalEntry(journalFields(delivery.Record, mod.bootID))

	err = mod.send(ctx, payload)
	return
}

// Key=value lines, binary framing for values containing newlines, blank line terminator.
// https://systemd.io/JOURNAL_EXPORT_FORMATS/#journal-export-format
func encodeJournalEntry(fields map[string]string) (payload []byte) {
	keys := make([]string, 0, len(fields))
	for key, value := range fields {
		if key == "" || value == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, key := range keys {
		value := fields[key]
		buf.WriteString(key)

		if strings.IndexByte(value, '\n') >= 0 {
			var size [8]byte
			binary.LittleEndian.PutUint64(size[:], uint64(len(value)))
			buf.WriteByte('\n')
			buf.Write(size[:])
			buf.WriteString(value)
			buf.WriteByte('\n')
			continue
		}

		buf.WriteByte('=')
		buf.WriteString(value)
		buf.WriteByte('\n')
	}
	// Terminate with double newline
	buf.WriteByte('\n')

	payload = buf.Bytes()
	return
}

func (mod *Journal) send(ctx context.Context, payload []byte) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, mod.url, bytes.NewReader(payload))
	if err != nil {
		err = fmt.Errorf("failed request creation: %w", err)
		return
	}
	req.Header.Set("Content-Type", "application/vnd.fdo.journal") // journald export format
	req.Header.Del("Expect")                                      // Unsupported by journal remote server

	resp, err := mod.client.Do(req)
	if err != nil {
		err = fmt.Errorf("failed HTTP request: %w", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("received HTTP status '%s'", resp.Status)

		// Include response body if present for additional error details
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr == nil && len(body) > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(string(body)))
		}
		return
	}
	return
}

// Gracefully stops module
func (mod *Journal) Close() (err error) {
	if mod == nil {
		return
	}
	mod.client.CloseIdleConnections()
	return
}
