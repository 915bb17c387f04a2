package receiver

import (
	"errors"
	"fmt"
)

// Provisioning failed, nothing was left behind
type SetupError struct {
	Op   string
	Path string
	Err  error
}

func (e *SetupError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("setup failed: %s '%s': %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("setup failed: %s: %v", e.Op, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// Invalid suite configuration
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid receiver configuration: " + e.Reason
}

// Read failure that ended one receiver
type ChannelIOError struct {
	Receiver string
	Err      error
}

func (e *ChannelIOError) Error() string {
	return fmt.Sprintf("receiver %s: channel read failed: %v", e.Receiver, e.Err)
}

func (e *ChannelIOError) Unwrap() error {
	return e.Err
}

// One or more resources could not be removed during teardown
type CleanupError struct {
	Errs []error
}

func (e *CleanupError) Error() string {
	return "cleanup incomplete: " + errors.Join(e.Errs...).Error()
}

func (e *CleanupError) Unwrap() []error {
	return e.Errs
}
