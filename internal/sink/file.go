package sink

import (
	"bufio"
	"context"
	"fmt"
	"logsink/internal/bus"
	"logsink/internal/global"
	"logsink/pkg/schema"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Creates new file output module. Returns nil nil if no path.
func NewFile(namespace []string, filePath string, format string) (module *File, err error) {
	if filePath == "" {
		return
	}
	if format == "" {
		format = global.FileFormatText
	}
	if format != global.FileFormatText && format != global.FileFormatJSON {
		err = fmt.Errorf("unknown log file format '%s' (expected %s or %s)", format, global.FileFormatText, global.FileFormatJSON)
		return
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return
	}

	module = &File{
		Namespace: append(append([]string(nil), namespace...), global.NSoFile),
		Path:      filePath,
		Format:    format,
		file:      file,
	}

	// Appending starts a new frame, concatenated frames are a valid stream
	if strings.HasSuffix(filePath, global.ZstdSuffix) {
		module.compressor, err = zstd.NewWriter(file)
		if err != nil {
			file.Close()
			module = nil
			err = fmt.Errorf("failed to create compressor: %w", err)
			return
		}
		module.writer = bufio.NewWriter(module.compressor)
	} else {
		module.writer = bufio.NewWriter(file)
	}
	return
}

// Writes one line per record to the buffer. Output reaches the file on Flush.
func (mod *File) Write(ctx context.Context, delivery bus.Delivery) (err error) {
	if mod == nil {
		return
	}

	var line []byte
	switch mod.Format {
	case global.FileFormatJSON:
		line, err = schema.EncodeLine(delivery.Record)
		if err != nil {
			return
		}
	default:
		if delivery.Dropped > 0 {
			_, err = mod.writeLine([]byte(formatGap(delivery.Dropped)))
			if err != nil {
				return
			}
		}
		line = []byte(FormatText(delivery.Record))
	}

	_, err = mod.writeLine(line)
	return
}

func (mod *File) writeLine(line []byte) (n int, err error) {
	mod.mu.Lock()
	defer mod.mu.Unlock()

	if mod.writer == nil {
		err = os.ErrClosed
		return
	}
	n, err = mod.writer.Write(line)
	if err != nil {
		err = fmt.Errorf("failed to write log file: %w", err)
		return
	}
	err = mod.writer.WriteByte('\n')
	if err != nil {
		err = fmt.Errorf("failed to write log file: %w", err)
		return
	}
	n++
	return
}

// Pushes buffered lines through the compressor (if any) to the file
func (mod *File) Flush() (err error) {
	if mod == nil {
		return
	}

	mod.mu.Lock()
	defer mod.mu.Unlock()

	if mod.writer == nil {
		return
	}
	err = mod.writer.Flush()
	if err != nil {
		err = fmt.Errorf("failed to flush log file: %w", err)
		return
	}
	if mod.compressor != nil {
		err = mod.compressor.Flush()
		if err != nil {
			err = fmt.Errorf("failed to flush compressor: %w", err)
		}
	}
	return
}

// Flushes, finishes the compressed frame and closes the file
func (mod *File) Close() (err error) {
	if mod == nil {
		return
	}

	err = mod.Flush()

	mod.mu.Lock()
	defer mod.mu.Unlock()

	if mod.writer == nil {
		return
	}
	mod.writer = nil

	if mod.compressor != nil {
		closeErr := mod.compressor.Close()
		if closeErr != nil && err == nil {
			err = fmt.Errorf("failed to finish compressed stream: %w", closeErr)
		}
	}
	closeErr := mod.file.Close()
	if closeErr != nil && err == nil {
		err = fmt.Errorf("failed to close log file: %w", closeErr)
	}
	return
}
