package receiver

import (
	"context"
	"errors"
	"io"
	"logsink/internal/global"
	"logsink/internal/logctx"
	"logsink/pkg/schema"
	"runtime/debug"
	"sync"
)

// Reads every open receiver concurrently and hands decoded records to publish,
// in line order per receiver. Returns once every receiver has ended, or when
// ctx is cancelled. Closing a receiver (Cleanup, Detach) ends its reader.
// Channel failures close only the failing receiver and are returned joined.
func (suite *Suite) Pump(ctx context.Context, publish func(schema.Record)) (err error) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for _, recv := range suite.Receivers() {
		if recv.State() != Open {
			continue
		}

		wg.Add(1)
		go func(recv *Receiver) {
			defer wg.Done()

			recvCtx := logctx.OverwriteCtxTag(ctx, recv.Namespace)
			pumpErr := suite.pumpReceiver(recvCtx, recv, publish)
			if pumpErr != nil {
				logctx.LogEvent(recvCtx, global.VerbosityStandard, global.ErrorLog, "%v\n", pumpErr)

				mu.Lock()
				errs = append(errs, pumpErr)
				mu.Unlock()
			}
		}(recv)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// Readers stuck on a handle that cannot be interrupted are abandoned
	}

	mu.Lock()
	err = errors.Join(errs...)
	mu.Unlock()
	return
}

func (suite *Suite) pumpReceiver(ctx context.Context, recv *Receiver, publish func(schema.Record)) (err error) {
	defer func() {
		if fatalError := recover(); fatalError != nil {
			stack := debug.Stack()
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "panic in receiver thread: %v\n%s", fatalError, stack)
			_ = recv.closeHandle()
		}
	}()

	source := recv.reader()
	if source == nil {
		return
	}

	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog, "receiving %s on %s\n", recv.Protocol, recv.Name())

	decoder := NewLineDecoder(source, suite.MaxLineLength)
	for {
		record, nextErr := decoder.Next()
		if nextErr == nil {
			recv.Metrics.LinesRead.Add(1)
			recv.Metrics.Decoded.Add(1)
			publish(record)
			continue
		}

		if errors.Is(nextErr, io.EOF) {
			logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
				"receiver %s reached end of stream after %d lines\n", recv.Name(), decoder.Lines())
			_ = recv.closeHandle()
			return
		}

		var decodeErr *schema.DecodeError
		if errors.As(nextErr, &decodeErr) {
			recv.Metrics.LinesRead.Add(1)
			if decodeErr.Kind == schema.TooLong {
				recv.Metrics.TooLong.Add(1)
			} else {
				recv.Metrics.Malformed.Add(1)
			}
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "dropped input: %v\n", decodeErr)
			continue
		}

		// A handle closed by cleanup can surface as a plain read error
		if recv.State() == Closed {
			return
		}

		err = &ChannelIOError{Receiver: recv.Name(), Err: nextErr}
		closeErr := recv.closeHandle()
		if closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return
	}
}
