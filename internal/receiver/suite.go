package receiver

import (
	"logsink/internal/global"
	"logsink/internal/workdir"
	"os"
)

// Creates an empty suite whose pipe files will live in dir
func NewSuite(namespace []string, dir *workdir.Dir) (suite *Suite) {
	suite = &Suite{
		Namespace:     append(append([]string(nil), namespace...), global.NSSuite),
		Dir:           dir,
		Stdin:         os.Stdin,
		MaxLineLength: global.DefaultMaxLineLength,
	}
	return
}

// Declares the standard input receiver
func (suite *Suite) ListenStdin(protocol Protocol) (err error) {
	return suite.add(protocol, "")
}

// Declares the named pipe receiver. Nothing is created until Provision or Open.
func (suite *Suite) ListenFifo(protocol Protocol) (err error) {
	if suite.Dir == nil {
		err = &ConfigurationError{Reason: "named pipe receiver requires a work directory"}
		return
	}
	err = suite.add(protocol, suite.Dir.File(fifoName(os.Getpid())))
	return
}

func (suite *Suite) add(protocol Protocol, path string) (err error) {
	if protocol != NDJSON {
		err = &ConfigurationError{Reason: "unsupported protocol '" + string(protocol) + "'"}
		return
	}

	suite.mu.Lock()
	defer suite.mu.Unlock()

	if suite.finished.Load() {
		err = &ConfigurationError{Reason: "suite already closed"}
		return
	}
	for _, existing := range suite.receivers {
		if (existing.Path == "") != (path == "") {
			continue
		}
		if path == "" {
			err = &ConfigurationError{Reason: "stdin receiver already configured"}
		} else {
			err = &ConfigurationError{Reason: "named pipe receiver already configured at " + existing.Path}
		}
		return
	}

	suite.receivers = append(suite.receivers, newReceiver(suite.Namespace, protocol, path))
	return
}

// Snapshot of the configured receivers
func (suite *Suite) Receivers() (list []*Receiver) {
	suite.mu.Lock()
	defer suite.mu.Unlock()
	list = append(list, suite.receivers...)
	return
}

// Where a client should write. Creates nothing.
func (suite *Suite) ConnectionInfo() (info ConnectionInfo) {
	for _, recv := range suite.Receivers() {
		if recv.Path != "" {
			path := recv.Path
			info.LogFifo = &path
			break
		}
	}
	return
}

// Creates every backing file without opening it. On failure, anything already
// created is removed before returning.
func (suite *Suite) Provision() (err error) {
	if suite.finished.Load() {
		err = &SetupError{Op: "provision", Err: os.ErrClosed}
		return
	}

	for _, recv := range suite.Receivers() {
		err = recv.provision()
		if err != nil {
			suite.rollback()
			return
		}
	}
	return
}

// Provisions and attaches every receiver. On failure, the suite is cleaned up
// before returning.
func (suite *Suite) Open() (err error) {
	err = suite.Provision()
	if err != nil {
		return
	}

	for _, recv := range suite.Receivers() {
		err = recv.open(suite.Stdin)
		if err != nil {
			suite.rollback()
			return
		}
	}
	return
}

func (suite *Suite) rollback() {
	if suite.adopting.Load() {
		suite.Detach()
		return
	}
	// Startup error is what the caller reports; cleanup failures here are secondary
	_ = suite.Cleanup()
}

// Closes every receiver, removes the pipe files this suite created and the work
// directory if it owns an ephemeral one. Only the first call (of Cleanup or
// Detach) has any effect. State reaches Closed even when removal fails.
func (suite *Suite) Cleanup() (err error) {
	if !suite.finished.CompareAndSwap(false, true) {
		return
	}

	var errs []error
	for _, recv := range suite.Receivers() {
		releaseErr := recv.release(true)
		if releaseErr != nil {
			errs = append(errs, releaseErr)
		}
	}

	dirErr := suite.Dir.Release()
	if dirErr != nil {
		errs = append(errs, dirErr)
	}

	if len(errs) > 0 {
		err = &CleanupError{Errs: errs}
	}
	return
}

// Closes every receiver but leaves all files in place and gives up ownership
// of the work directory. Used by the process that hands the suite over.
func (suite *Suite) Detach() {
	if !suite.finished.CompareAndSwap(false, true) {
		return
	}

	for _, recv := range suite.Receivers() {
		// Handle close failures have nothing to clean up
		_ = recv.release(false)
	}
	suite.Dir.Detach()
}

// Reports whether Cleanup or Detach already ran
func (suite *Suite) Finished() (done bool) {
	done = suite.finished.Load()
	return
}
