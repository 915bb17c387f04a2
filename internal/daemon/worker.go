package daemon

import (
	"logsink/internal/global"
	"logsink/internal/logctx"
	"logsink/internal/sink"
	"runtime/debug"
)

// Feeds one sink from its subscription until the bus is closed and drained
func (daemon *Daemon) runSink(worker *sinkWorker) {
	defer daemon.wg.Done()

	ctx := logctx.AppendCtxTag(daemon.ctx, global.NSWorker)
	ctx = logctx.AppendCtxTag(ctx, worker.name)

	defer func() {
		if fatalError := recover(); fatalError != nil {
			stack := debug.Stack()
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"panic in sink worker thread: %v\n%s", fatalError, stack)
		}
	}()

	flusher, canFlush := worker.out.(sink.Flusher)

	for {
		delivery, ok := worker.sub.Next(ctx)
		if !ok {
			break
		}

		if delivery.Dropped > 0 {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"sink fell behind: %d records dropped\n", delivery.Dropped)
		}

		err := worker.out.Write(ctx, delivery)
		if err != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "write failed: %v\n", err)
		}

		// Caught up, push buffered output out
		if canFlush && worker.sub.Depth().Load() == 0 {
			err = flusher.Flush()
			if err != nil {
				logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "flush failed: %v\n", err)
			}
		}
	}

	if canFlush {
		err := flusher.Flush()
		if err != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "flush failed: %v\n", err)
		}
	}
}
