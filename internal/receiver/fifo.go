package receiver

import (
	"fmt"
	"logsink/internal/global"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// Deterministic per-process pipe name so concurrent instances never collide
func fifoName(pid int) (name string) {
	name = global.FifoNamePrefix + strconv.Itoa(pid) + global.FifoNameSuffix
	return
}

// Creates the named pipe, readable and writable by the owner only
func makeFifo(path string) (err error) {
	err = unix.Mkfifo(path, unix.S_IRUSR|unix.S_IWUSR)
	if err != nil {
		err = &SetupError{Op: "create named pipe", Path: path, Err: err}
	}
	return
}

// Confirms an existing path is a named pipe (adopted from another process)
func checkFifo(path string) (err error) {
	info, err := os.Lstat(path)
	if err != nil {
		err = &SetupError{Op: "adopt named pipe", Path: path, Err: err}
		return
	}
	if info.Mode()&os.ModeNamedPipe == 0 {
		err = &SetupError{Op: "adopt named pipe", Path: path, Err: fmt.Errorf("not a named pipe (mode %s)", info.Mode())}
	}
	return
}

// Opens read-write so the pipe never reports end-of-stream when a writer
// disconnects, and the open does not block waiting for the first writer.
func openFifo(path string) (file *os.File, err error) {
	file, err = os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		err = &SetupError{Op: "open named pipe", Path: path, Err: err}
	}
	return
}
