// Command line entry: option handling, receiver setup and the daemon run
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"logsink/internal/daemon"
	"logsink/internal/global"
	"logsink/internal/lifecycle"
	"logsink/internal/logctx"
	"logsink/internal/receiver"
	"logsink/internal/workdir"
	"os"
	"runtime"

	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// Parses args (without the program name), prepares receivers and runs the
// daemon until it stops. Returns the process exit status.
func Run(ctx context.Context, progName string, args []string) (exitCode int) {
	commandFlags := pflag.NewFlagSet(progName, pflag.ContinueOnError)
	commandFlags.SortFlags = false
	opts := DefineFlags(commandFlags)
	commandFlags.Usage = func() {
		PrintHelpMenu(os.Stderr, commandFlags, progName)
	}

	err := commandFlags.Parse(args)
	if err != nil {
		// pflag already printed the error and usage
		exitCode = 1
		return
	}
	if commandFlags.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Error: unexpected argument '%s'\n", commandFlags.Arg(0))
		exitCode = 1
		return
	}
	if opts.Help {
		PrintHelpMenu(os.Stdout, commandFlags, progName)
		return
	}
	if opts.Version {
		printVersion(os.Stdout, opts.Verbosity,
			fmt.Sprintf("Built using %s(%s) for %s on %s", runtime.Version(), runtime.Compiler, runtime.GOOS, runtime.GOARCH))
		return
	}

	if opts.ConfigPath != "" {
		var fileCfg global.Config
		fileCfg, err = LoadConfig(opts.ConfigPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = 1
			return
		}
		err = opts.Merge(commandFlags, fileCfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = 1
			return
		}
	}
	err = opts.Validate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = 1
		return
	}

	logctx.SetLogLevel(ctx, opts.Verbosity)
	ctx = logctx.AppendCtxTag(ctx, global.NSCLI)

	// Captured from here on so no signal can end the process with files left behind
	sigChan, stopSignals := lifecycle.NotifySignals()
	defer stopSignals()
	setupCtx, finishSetup := lifecycle.WatchSetup(ctx, sigChan)

	var suite *receiver.Suite
	handoff, isChild := lifecycle.TakeHandoff()
	if isChild {
		suite, err = adoptSuite(setupCtx, handoff)
	} else {
		var detached bool
		suite, detached, err = prepareSuite(setupCtx, opts, os.Stdout)
		if detached {
			finishSetup()
			return
		}
	}
	interrupted := finishSetup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = 1
		return
	}
	if suite == nil {
		// No receivers, connection info was all there was to do
		return
	}
	// Owning process removes everything on every way out, panics included
	defer suite.Cleanup()

	if interrupted {
		err = suite.Cleanup()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = 1
		}
		return
	}

	logDaemon := daemon.NewDaemon(opts.DaemonConfig())
	err = logDaemon.Start(ctx, suite)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting daemon: %v\n", err)
		cleanupErr := suite.Cleanup()
		if cleanupErr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", cleanupErr)
		}
		exitCode = 1
		return
	}

	go lifecycle.SignalHandler(logctx.AppendCtxTag(ctx, global.NSLifecycle), sigChan, logDaemon)

	err = logDaemon.Run()
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Shutdown incomplete: %v\n", err)
		exitCode = 1
	}
	return
}

// Builds and opens the receivers requested by opts, printing the connection
// info to out before anything is read. In background mode the open receivers
// are handed to a new process and detached is true once it took over.
func prepareSuite(ctx context.Context, opts *Options, out io.Writer) (suite *receiver.Suite, detached bool, err error) {
	namespace := []string{global.NSCLI}

	var dir *workdir.Dir
	if opts.ListenFifo || opts.Background {
		dir, err = workdir.Resolve(global.ProgBaseName)
		if err != nil {
			err = &receiver.SetupError{Op: "resolve work directory", Err: err}
			return
		}
	}

	suite = receiver.NewSuite(namespace, dir)
	suite.MaxLineLength = opts.MaxLineLength
	if opts.ListenStdin {
		err = suite.ListenStdin(receiver.NDJSON)
	}
	if err == nil && opts.ListenFifo {
		err = suite.ListenFifo(receiver.NDJSON)
	}
	if err != nil {
		suite.Cleanup()
		suite = nil
		return
	}

	err = suite.Provision()
	if err != nil {
		suite = nil
		return
	}

	err = printConnectionInfo(out, suite.ConnectionInfo())
	if err != nil {
		suite.Cleanup()
		suite = nil
		return
	}

	if len(suite.Receivers()) == 0 {
		err = suite.Cleanup()
		suite = nil
		return
	}

	if opts.ListenStdin && term.IsTerminal(int(os.Stdin.Fd())) {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"Standard input is a terminal, expecting one JSON record per line\n")
	}

	if opts.Background {
		detached, err = handOver(ctx, suite)
		if err != nil {
			suite = nil
		}
		return
	}

	err = suite.Open()
	if err != nil {
		suite = nil
		return
	}
	return
}

// Starts the background process with the suite and detaches from it. On
// failure the suite is cleaned up here.
func handOver(ctx context.Context, suite *receiver.Suite) (detached bool, err error) {
	message, err := suite.Handoff()
	if err == nil {
		var pid int
		pid, err = lifecycle.SpawnBackground(logctx.AppendCtxTag(ctx, global.NSLifecycle), message)
		if err == nil {
			suite.Detach()
			detached = true
			logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
				"Receiving continues in background process %d\n", pid)
			return
		}
	}

	cleanupErr := suite.Cleanup()
	err = errors.Join(fmt.Errorf("failed to start background receiver: %w", err), cleanupErr)
	return
}

// Takes over the suite a background parent created and tells it we are ready
func adoptSuite(ctx context.Context, handoff []byte) (suite *receiver.Suite, err error) {
	suite, err = receiver.Adopt([]string{global.NSCLI}, handoff)
	if err != nil {
		return
	}

	err = suite.Open()
	if err != nil {
		suite = nil
		return
	}

	// Parent still owns the files until it reads the readiness message
	if ctx.Err() != nil {
		suite.Detach()
		suite = nil
		err = fmt.Errorf("interrupted before taking over receivers: %w", ctx.Err())
		return
	}
	err = lifecycle.ReadinessSender()
	if err != nil {
		suite.Detach()
		suite = nil
		err = fmt.Errorf("failed to signal readiness to parent: %w", err)
		return
	}
	suite.TakeOwnership()

	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
		"Adopted %d receiver(s) from background parent\n", len(suite.Receivers()))
	return
}

// Writes the single connection info line
func printConnectionInfo(out io.Writer, info receiver.ConnectionInfo) (err error) {
	line, err := json.Marshal(info)
	if err != nil {
		err = fmt.Errorf("failed to serialize connection info: %w", err)
		return
	}
	line = append(line, '\n')

	_, err = out.Write(line)
	if err != nil {
		err = fmt.Errorf("failed to write connection info: %w", err)
	}
	return
}
