package lifecycle

import (
	"context"
	"fmt"
	"logsink/internal/global"
	"logsink/internal/logctx"
	"os"
	"os/exec"
	"slices"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Starts a copy of this program in its own session that takes over the
// suite described by handoff. Returns once the child reported ready; on any
// failure the child is stopped before returning.
func SpawnBackground(ctx context.Context, handoff []byte) (pid int, err error) {
	exePath, err := os.Executable()
	if err != nil {
		err = fmt.Errorf("failed to get executable path: %w", err)
		return
	}
	workingDir, err := os.Getwd()
	if err != nil {
		err = fmt.Errorf("failed to get current working directory: %w", err)
		return
	}

	// New executable (the child)
	cmd := exec.Command(exePath, os.Args[1:]...)
	cmd.Dir = workingDir
	cmd.Stdin = os.Stdin   // stdin receiver keeps reading the same stream
	cmd.Stdout = nil       // connection info already printed by the parent
	cmd.Stderr = os.Stderr // diagnostics
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Env = append(os.Environ(), global.EnvNameHandoff+"="+string(handoff))

	err = startChild(ctx, cmd, global.MaxWaitForChild)
	if err != nil {
		return
	}
	pid = cmd.Process.Pid

	// Child is on its own now
	err = cmd.Process.Release()
	if err != nil {
		err = fmt.Errorf("failed to release child process: %w", err)
	}
	return
}

// Starts cmd with a readiness pipe and waits for its message
func startChild(ctx context.Context, cmd *exec.Cmd, timeout time.Duration) (err error) {
	// Readiness Pipe - Child -> Parent notification
	readyR, readyW, err := os.Pipe()
	if err != nil {
		err = fmt.Errorf("failed to create readiness pipe for new process: %w", err)
		return
	}
	defer readyR.Close()

	const fdStartingIndex int = 3
	cmd.ExtraFiles = append(cmd.ExtraFiles, readyW)
	readyFDNum := fdStartingIndex + slices.Index(cmd.ExtraFiles, readyW)
	cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%d", global.EnvNameReadinessFD, readyFDNum))

	err = cmd.Start()
	// Our copy of the write end must go so a dead child reads as EOF
	readyW.Close()
	if err != nil {
		err = fmt.Errorf("failed to start background process: %w", err)
		return
	}
	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
		"Started background process with PID %d\n", cmd.Process.Pid)

	// Wait for child to successfully start
	err = readinessReceiver(ctx, readyR, timeout)
	if err != nil {
		stopChild(ctx, cmd)
		err = fmt.Errorf("background process did not become ready: %w", err)
		return
	}
	return
}

// Terminates a child that failed to start, forcing it after a grace period
func stopChild(ctx context.Context, cmd *exec.Cmd) {
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait() // wait for child to exit
	}()

	pid := cmd.Process.Pid
	if unix.Kill(pid, 0) == nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"Found child PID %d still alive despite not sending readiness signal\n", pid)

		// Attempt graceful shutdown
		lerr := unix.Kill(pid, unix.SIGTERM)
		if lerr != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"Failed to send graceful shutdown signal to child PID %d: %v\n", pid, lerr)
		}
	}

	select {
	case <-time.After(global.ChildKillTimeout):
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"Child PID %d did not exit gracefully, forcing shutdown\n", pid)

		lerr := cmd.Process.Kill()
		if lerr != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"Failed to force shutdown for child PID %d: %v\n", pid, lerr)
		}
		<-done
	case <-done:
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
			"Child PID %d exited\n", pid)
	}
}
