package main

import (
	"context"
	"logsink/internal/cli"
	"logsink/internal/global"
	"logsink/internal/logctx"
	"os"
	"path/filepath"
)

func main() {
	// Setting global logging
	ctx, cancel := context.WithCancel(context.Background())
	logger := logctx.NewLogger("global", global.VerbosityStandard, ctx.Done()) // New logger tied to global
	ctx = logctx.WithLogger(ctx, logger)                                       // Add logger to global ctx
	logctx.StartWatcher(logger, os.Stderr)                                     // Stdout only carries connection info

	exitCode := cli.Run(ctx, filepath.Base(os.Args[0]), os.Args[1:])

	// Finish up any writes for global logger
	cancel()
	logger.Wake()
	logger.Wait()

	os.Exit(exitCode)
}
