package lifecycle

import (
	"context"
	"logsink/internal/global"
	"logsink/internal/logctx"
	"os"
	"os/signal"
	"syscall"
)

type DaemonLike interface {
	Shutdown()
	Done() <-chan struct{}
}

// Starts capturing termination signals. Until stop is called they no longer
// end the process, so this runs before anything that needs cleanup exists.
func NotifySignals() (sigChan chan os.Signal, stop func()) {
	sigChan = make(chan os.Signal, 10)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGHUP)
	stop = func() {
		signal.Stop(sigChan)
	}
	return
}

// Covers startup, before a daemon exists to shut down. The returned context
// ends on the first signal; finish stops watching and reports whether one
// arrived. Later signals stay queued on sigChan for SignalHandler.
func WatchSetup(ctx context.Context, sigChan <-chan os.Signal) (setupCtx context.Context, finish func() (interrupted bool)) {
	setupCtx, cancel := context.WithCancel(ctx)
	stopWatching := make(chan struct{})
	watcherDone := make(chan struct{})

	var received bool
	go func() {
		defer close(watcherDone)
		select {
		case sig := <-sigChan:
			logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Received signal during startup: %v\n", sig)
			received = true
			cancel()
		case <-stopWatching:
		}
	}()

	finish = func() (interrupted bool) {
		close(stopWatching)
		<-watcherDone
		cancel()
		interrupted = received
		return
	}
	return
}

// Handles all incoming signals from external sources. Initiates daemon
// shutdown on the first termination signal, or returns when the daemon
// stopped on its own.
func SignalHandler(ctx context.Context, sigChan <-chan os.Signal, daemon DaemonLike) {
	select {
	case sig := <-sigChan:
		logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Received signal: %v\n", sig)
	case <-daemon.Done():
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog, "All receivers ended\n")
	}

	err := NotifyStopping(ctx)
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify stopping failed: %v\n", err)
	}

	// Initiate daemon shutdown
	daemon.Shutdown()

	logger := logctx.GetLogger(ctx)
	if logger != nil {
		logger.Wake()
	}
}
