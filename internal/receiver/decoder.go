package receiver

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"iter"
	"logsink/internal/global"
	"logsink/pkg/schema"
	"os"
)

// Creates a decoder over source. maxLength <= 0 selects the default.
func NewLineDecoder(source io.Reader, maxLength int) (dec *LineDecoder) {
	if maxLength <= 0 {
		maxLength = global.DefaultMaxLineLength
	}
	dec = &LineDecoder{
		reader:    bufio.NewReader(source),
		maxLength: maxLength,
	}
	return
}

// Returns the next record.
//
//	io.EOF: the channel ended (also when its handle was closed)
//	*schema.DecodeError: this line was bad, call Next again
//	anything else: the channel failed
func (dec *LineDecoder) Next() (record schema.Record, err error) {
	for {
		var line []byte
		var tooLong bool
		line, tooLong, err = dec.readLine()
		if err != nil {
			return
		}
		dec.lineNumber++

		if tooLong {
			err = &schema.DecodeError{Kind: schema.TooLong, Line: dec.lineNumber}
			return
		}
		if len(bytes.TrimSpace(line)) == 0 {
			dec.lineNumber--
			continue
		}

		record, err = schema.DecodeLine(line)
		if decodeErr, ok := err.(*schema.DecodeError); ok {
			decodeErr.Line = dec.lineNumber
		}
		return
	}
}

// Lazy sequence of records and per-line errors. Ends at end-of-stream,
// or right after yielding a channel error.
func (dec *LineDecoder) All() iter.Seq2[schema.Record, error] {
	return func(yield func(schema.Record, error) bool) {
		for {
			record, err := dec.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(record, err) {
				return
			}

			var decodeErr *schema.DecodeError
			if err != nil && !errors.As(err, &decodeErr) {
				return
			}
		}
	}
}

// Number of lines consumed so far (blank lines excluded)
func (dec *LineDecoder) Lines() (count uint64) {
	count = dec.lineNumber
	return
}

// Reads one newline-terminated line. Lines over the limit are discarded up to
// the next newline and reported with tooLong set.
func (dec *LineDecoder) readLine() (line []byte, tooLong bool, err error) {
	if dec.err != nil {
		err = dec.err
		return
	}

	dec.line = dec.line[:0]
	for {
		chunk, readErr := dec.reader.ReadSlice('\n')
		terminated := readErr == nil

		if !tooLong {
			contentLen := len(dec.line) + len(chunk)
			if terminated {
				contentLen--
			}
			if contentLen > dec.maxLength {
				tooLong = true
				dec.line = dec.line[:0]
			} else {
				dec.line = append(dec.line, chunk...)
			}
		}

		if terminated {
			line = trimEOL(dec.line)
			return
		}
		if errors.Is(readErr, bufio.ErrBufferFull) {
			continue
		}

		// Closing our own handle is how a receiver is told to stop
		if errors.Is(readErr, os.ErrClosed) || errors.Is(readErr, io.ErrClosedPipe) {
			readErr = io.EOF
		}
		dec.err = readErr

		// Unterminated final line
		if readErr == io.EOF && (tooLong || len(dec.line) > 0) {
			line = trimEOL(dec.line)
			return
		}
		err = readErr
		return
	}
}

func trimEOL(line []byte) (trimmed []byte) {
	trimmed = bytes.TrimSuffix(line, []byte("\n"))
	trimmed = bytes.TrimSuffix(trimmed, []byte("\r"))
	return
}
