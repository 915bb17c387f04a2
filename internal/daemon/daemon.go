// Daemon that moves records from the receiver suite to every configured sink
package daemon

import (
	"context"
	"fmt"
	"logsink/internal/atomics"
	"logsink/internal/bus"
	"logsink/internal/global"
	"logsink/internal/lifecycle"
	"logsink/internal/logctx"
	"logsink/internal/receiver"
	"logsink/internal/sink"
	"logsink/pkg/schema"
	"os"
	"time"
)

// Create new daemon instance
func NewDaemon(cfg Config) (new *Daemon) {
	if cfg.ConsoleOutput == nil {
		cfg.ConsoleOutput = os.Stderr
	}
	new = &Daemon{
		cfg:       cfg,
		ctx:       context.Background(),
		cancel:    func() {},
		pumpsDone: make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	return
}

// Starts sinks, their workers and one reader per open receiver in suite.
// On a startup error everything already started is stopped again; the suite
// itself stays with the caller.
func (daemon *Daemon) Start(globalCtx context.Context, suite *receiver.Suite) (err error) {
	// New context for the daemon
	daemon.ctx, daemon.cancel = context.WithCancel(logctx.Detached(globalCtx))

	// Top level tag for daemon logs
	daemon.ctx = logctx.AppendCtxTag(daemon.ctx, global.NSDaemon)

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog, "Starting...\n")

	daemon.Suite = suite
	daemon.Bus = bus.New([]string{global.NSDaemon})

	err = daemon.openSinks()
	if err != nil {
		daemon.closeSinks()
		daemon.cancel()

		// Nothing to shut down later
		close(daemon.pumpsDone)
		daemon.stopOnce.Do(func() { close(daemon.stopped) })
		return
	}

	// Workers first so nothing published is waiting on a sink that is not running
	for _, worker := range daemon.sinks {
		daemon.wg.Add(1)
		go daemon.runSink(worker)
	}

	var pumpCtx context.Context
	pumpCtx, daemon.pumpCancel = context.WithCancel(daemon.ctx)
	pumpCtx = logctx.AppendCtxTag(pumpCtx, global.NSRecv)
	go func() {
		defer close(daemon.pumpsDone)
		// Each failing receiver already reported itself
		_ = suite.Pump(pumpCtx, daemon.Bus.Publish)
	}()

	err = lifecycle.NotifyReady(daemon.ctx)
	if err != nil {
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify ready failed: %v\n", err)
		err = nil
	}

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog, "Startup complete.\n")
	return
}

// Creates each configured sink and subscribes it to the bus
func (daemon *Daemon) openSinks() (err error) {
	cfg := daemon.cfg
	sinkNS := []string{global.NSDaemon, global.NSSink}

	if cfg.ConsoleEnabled {
		console := sink.NewConsole(sinkNS, cfg.ConsoleOutput, cfg.ConsoleWidth)
		err = daemon.addSink(global.NSoConsole, console, cfg.ConsoleLevel)
		if err != nil {
			return
		}
	}

	file, err := sink.NewFile(sinkNS, cfg.FilePath, cfg.FileFormat)
	if err != nil {
		err = fmt.Errorf("failed to set up log file sink: %w", err)
		return
	}
	if file != nil {
		err = daemon.addSink(global.NSoFile, file, cfg.FileLevel)
		if err != nil {
			file.Close()
			return
		}
	}

	beats, err := sink.NewBeats(sinkNS, cfg.BeatsEndpoint)
	if err != nil {
		err = fmt.Errorf("failed to set up beats sink: %w", err)
		return
	}
	if beats != nil {
		err = daemon.addSink(global.NSoBeats, beats, cfg.BeatsLevel)
		if err != nil {
			beats.Close()
			return
		}
	}

	journal, err := sink.NewJournal(sinkNS, cfg.JournalURL)
	if err != nil {
		err = fmt.Errorf("failed to set up journal sink: %w", err)
		return
	}
	if journal != nil {
		err = daemon.addSink(global.NSoJrnl, journal, cfg.JournalLevel)
		if err != nil {
			journal.Close()
			return
		}
	}
	return
}

func (daemon *Daemon) addSink(name string, out sink.Sink, minLevel schema.Level) (err error) {
	sub, err := daemon.Bus.Subscribe(name, minLevel, daemon.cfg.BufferSize)
	if err != nil {
		return
	}
	daemon.sinks = append(daemon.sinks, &sinkWorker{name: name, out: out, sub: sub})

	logctx.LogEvent(daemon.ctx, global.VerbosityProgress, global.InfoLog,
		"%s sink receiving %s and above (buffer %d)\n", name, minLevel, sub.Capacity())
	return
}

// Closed once every receiver has ended (or the daemon is shutting down)
func (daemon *Daemon) Done() <-chan struct{} {
	return daemon.pumpsDone
}

// Blocking daemon waiter. Returns once Shutdown completed.
func (daemon *Daemon) Run() (err error) {
	<-daemon.stopped
	err = daemon.shutdownErr
	return
}

// Gracefully stops receivers, drains sink buffers and closes sinks.
// Only the first call does anything; later calls wait for it to finish.
func (daemon *Daemon) Shutdown() {
	daemon.stopOnce.Do(daemon.shutdown)
	<-daemon.stopped
}

func (daemon *Daemon) shutdown() {
	defer close(daemon.stopped)

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
		"Daemon shutdown started...\n")

	if daemon.Bus == nil {
		// Never started
		return
	}

	// Closing the receivers is what ends their readers
	if daemon.Suite != nil {
		err := daemon.Suite.Cleanup()
		if err != nil {
			daemon.shutdownErr = err
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"receiver cleanup incomplete: %v\n", err)
		}
	}
	select {
	case <-daemon.pumpsDone:
	case <-time.After(global.ReceiverStopTimeout):
		logctx.LogEvent(daemon.ctx, global.VerbosityProgress, global.WarnLog,
			"receivers did not stop in time, abandoning them\n")
	}
	if daemon.pumpCancel != nil {
		daemon.pumpCancel()
		<-daemon.pumpsDone
	}

	// Stop intake, let every sink drain what it already has
	daemon.Bus.Close()
	for _, worker := range daemon.sinks {
		success, last := atomics.WaitUntilZero(worker.sub.Depth(), global.ShutdownTimeout/2)
		if !success {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"%s sink buffer did not empty in time: dropped %d records\n", worker.name, last)
		}
	}

	// Stop the sink workers after buffers are drained
	daemon.cancel()

	// Wait for all workers to finish (with timeout)
	done := make(chan struct{})
	go func() {
		daemon.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(global.ShutdownTimeout / 4):
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
			"Timeout: sink workers did not stop within %v seconds\n", (global.ShutdownTimeout / 4).Seconds())
	}

	daemon.closeSinks()
	daemon.logCounters()

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
		"Daemon shutdown completed successfully\n")
}

func (daemon *Daemon) closeSinks() {
	for _, worker := range daemon.sinks {
		err := worker.out.Close()
		if err != nil {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"failed to close %s sink: %v\n", worker.name, err)
		}
	}
}

// Final per-receiver and per-sink totals
func (daemon *Daemon) logCounters() {
	if daemon.Suite != nil {
		for _, recv := range daemon.Suite.Receivers() {
			logctx.LogEvent(daemon.ctx, global.VerbosityProgress, global.InfoLog,
				"receiver %s: %d lines, %d records, %d malformed, %d too long\n",
				recv.Name(),
				recv.Metrics.LinesRead.Load(),
				recv.Metrics.Decoded.Load(),
				recv.Metrics.Malformed.Load(),
				recv.Metrics.TooLong.Load())
		}
	}
	for _, worker := range daemon.sinks {
		logctx.LogEvent(daemon.ctx, global.VerbosityProgress, global.InfoLog,
			"%s sink: %d delivered, %d filtered, %d dropped\n",
			worker.name,
			worker.sub.Metrics.Delivered.Load(),
			worker.sub.Metrics.Filtered.Load(),
			worker.sub.Metrics.Dropped.Load())
	}
}
