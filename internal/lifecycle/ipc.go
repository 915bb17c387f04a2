package lifecycle

import (
	"context"
	"fmt"
	"io"
	"logsink/internal/global"
	"os"
	"strconv"
	"time"
)

// Block (with timeout) until child sends readiness message over file descriptor.
func readinessReceiver(ctx context.Context, readyReader *os.File, timeout time.Duration) (err error) {
	readyReader.SetReadDeadline(time.Now().Add(timeout))
	// Cancellation cuts the wait short
	stop := context.AfterFunc(ctx, func() {
		readyReader.SetReadDeadline(time.Now())
	})
	defer stop()

	// Wait for ready message
	buf := make([]byte, len(global.ReadyMessage))
	_, err = io.ReadFull(readyReader, buf)
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("stopped waiting for readiness message: %w", ctx.Err())
			return
		}
		err = fmt.Errorf("error reading readiness message: %w", err)
		return
	}

	// Verify
	msg := string(buf)
	if msg != global.ReadyMessage {
		err = fmt.Errorf("received message '%s', does not match expected message '%s'", msg, global.ReadyMessage)
		return
	}
	return
}

// Send readiness signal to file descriptor in parent-supplied environment variable file descriptor.
// Returns nil if env var does not exist.
func ReadinessSender() (err error) {
	fdStr := os.Getenv(global.EnvNameReadinessFD)
	if fdStr == "" {
		return // not started by a background parent
	}
	// Only the first call may use the descriptor
	os.Unsetenv(global.EnvNameReadinessFD)

	fd, err := strconv.Atoi(fdStr)
	if err != nil {
		err = fmt.Errorf("invalid %s: %w", global.EnvNameReadinessFD, err)
		return
	}

	readyPipe := os.NewFile(uintptr(fd), "ready")
	if readyPipe == nil {
		err = fmt.Errorf("failed to open %s=%d", global.EnvNameReadinessFD, fd)
		return
	}
	defer readyPipe.Close()

	// Send readiness message
	msg := []byte(global.ReadyMessage)
	for len(msg) > 0 {
		var bytesWritten int
		bytesWritten, err = readyPipe.Write(msg)
		if err != nil {
			err = fmt.Errorf("failed to send readiness message: %w", err)
			return
		}
		msg = msg[bytesWritten:]
	}
	return
}

// Ownership message left by a background parent, consumed once
func TakeHandoff() (message []byte, ok bool) {
	text, ok := os.LookupEnv(global.EnvNameHandoff)
	if !ok {
		return
	}
	os.Unsetenv(global.EnvNameHandoff)

	message = []byte(text)
	return
}
