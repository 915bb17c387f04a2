package workdir

import "sync/atomic"

type Kind uint8

const (
	Persistent Kind = iota + 1 // XDG runtime directory, never removed by this process
	Ephemeral                  // private temporary directory, removed on release
)

// Working directory that holds pipe artifacts
type Dir struct {
	Path     string
	Kind     Kind
	owned    atomic.Bool // this handle is responsible for removal
	released atomic.Bool // flips once before any filesystem work
}
