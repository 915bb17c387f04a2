package receiver

import (
	"encoding/json"
	"fmt"
	"logsink/internal/workdir"
)

// Serializes what the receiving process needs to take over the suite. The
// caller is expected to Detach once the other side confirms it adopted.
func (suite *Suite) Handoff() (message []byte, err error) {
	if suite.Dir == nil {
		err = fmt.Errorf("cannot hand off a suite without a work directory")
		return
	}

	handoff := Handoff{
		Dir:           suite.Dir.Path,
		DirKind:       suite.Dir.Kind,
		MaxLineLength: suite.MaxLineLength,
	}
	for _, recv := range suite.Receivers() {
		handoff.Receivers = append(handoff.Receivers, HandoffReceiver{
			Protocol: recv.Protocol,
			Path:     recv.Path,
		})
	}

	message, err = json.Marshal(handoff)
	if err != nil {
		err = fmt.Errorf("failed to serialize handoff: %w", err)
	}
	return
}

// Rebuilds a suite from a handoff message. The new suite owns the pipe files
// and, for an ephemeral directory, the directory itself.
func Adopt(namespace []string, message []byte) (suite *Suite, err error) {
	var handoff Handoff
	err = json.Unmarshal(message, &handoff)
	if err != nil {
		err = &ConfigurationError{Reason: "invalid handoff message: " + err.Error()}
		return
	}

	for _, entry := range handoff.Receivers {
		if entry.Path == "" {
			continue
		}
		err = checkFifo(entry.Path)
		if err != nil {
			return
		}
	}

	dir, err := workdir.Adopt(handoff.Dir, handoff.DirKind)
	if err != nil {
		err = &SetupError{Op: "adopt work directory", Path: handoff.Dir, Err: err}
		return
	}

	suite = NewSuite(namespace, dir)
	if handoff.MaxLineLength > 0 {
		suite.MaxLineLength = handoff.MaxLineLength
	}
	for _, entry := range handoff.Receivers {
		err = suite.add(entry.Protocol, entry.Path)
		if err != nil {
			suite = nil
			return
		}
	}

	// Files already exist, they were created by the sender
	for _, recv := range suite.receivers {
		recv.provisioned = recv.Path != ""
	}
	suite.adopting.Store(true)
	return
}

// Completes an adoption once the sender was told it may detach. From here on
// Cleanup removes the files; before it, failed startup leaves them to the sender.
func (suite *Suite) TakeOwnership() {
	suite.adopting.Store(false)
}
