package receiver

import (
	"errors"
	"fmt"
	"io"
	"logsink/internal/global"
	"os"
	"path/filepath"
)

func newReceiver(namespace []string, protocol Protocol, path string) (new *Receiver) {
	tag := global.NSoStdIn
	if path != "" {
		tag = global.NSoFifo
	}

	new = &Receiver{
		Namespace: append(append([]string(nil), namespace...), tag),
		Protocol:  protocol,
		Path:      path,
		Metrics:   &MetricStorage{},
	}
	return
}

// Short label for diagnostics
func (r *Receiver) Name() (name string) {
	if r.Path == "" {
		name = "stdin"
		return
	}
	name = filepath.Base(r.Path)
	return
}

func (r *Receiver) State() (state State) {
	state = State(r.state.Load())
	return
}

// Creates the backing file if this receiver has one and it does not exist yet
func (r *Receiver) provision() (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Path == "" || r.provisioned {
		return
	}
	if r.released.Load() {
		err = &SetupError{Op: "provision", Path: r.Path, Err: os.ErrClosed}
		return
	}

	err = makeFifo(r.Path)
	if err != nil {
		return
	}
	r.provisioned = true
	return
}

// Attaches the OS handle. Configured -> Open.
func (r *Receiver) open(stdin io.ReadCloser) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released.Load() {
		err = &SetupError{Op: "open receiver", Path: r.Path, Err: os.ErrClosed}
		return
	}
	if r.State() == Open {
		return
	}

	if r.Path == "" {
		if stdin == nil {
			err = &SetupError{Op: "open receiver", Err: fmt.Errorf("no standard input available")}
			return
		}
		r.source = stdin
	} else {
		r.source, err = openFifo(r.Path)
		if err != nil {
			return
		}
	}

	r.state.Store(uint32(Open))
	return
}

// Releases the OS handle without touching the backing file. Open -> Closed.
func (r *Receiver) closeHandle() (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Published before the close so the reader treats its failure as shutdown
	r.state.Store(uint32(Closed))
	if r.source != nil {
		err = r.source.Close()
		if errors.Is(err, os.ErrClosed) {
			err = nil
		}
		if err != nil {
			err = fmt.Errorf("failed to close %s: %w", r.Name(), err)
		}
		r.source = nil
	}
	return
}

// Drives the receiver to Closed for good. Only the first call does work and,
// when unlink is set, removes the backing file it created.
func (r *Receiver) release(unlink bool) (err error) {
	if !r.released.CompareAndSwap(false, true) {
		return
	}

	var errs []error
	closeErr := r.closeHandle()
	if closeErr != nil {
		errs = append(errs, closeErr)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if unlink && r.provisioned {
		removeErr := os.Remove(r.Path)
		if removeErr != nil {
			errs = append(errs, fmt.Errorf("failed to remove named pipe: %w", removeErr))
		}
	}
	r.provisioned = false

	err = errors.Join(errs...)
	return
}

// Handle the pump reads from, nil unless Open
func (r *Receiver) reader() (source io.Reader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.source != nil {
		source = r.source
	}
	return
}
