// Resolves and owns the directory receivers place their pipe files in
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// Picks the persistent runtime directory when the session provides one,
// otherwise creates an ephemeral one under the system temp directory.
func Resolve(appName string) (dir *Dir, err error) {
	runtimeRoot := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeRoot != "" && filepath.IsAbs(runtimeRoot) {
		dir, err = NewPersistent(filepath.Join(runtimeRoot, appName))
		return
	}

	dir, err = NewEphemeral(os.TempDir(), appName)
	return
}

// Uses (creating if absent) a directory this process will never delete
func NewPersistent(path string) (dir *Dir, err error) {
	err = os.MkdirAll(path, 0700)
	if err != nil {
		err = fmt.Errorf("failed to create runtime directory '%s': %w", path, err)
		return
	}

	dir = &Dir{Path: path, Kind: Persistent}
	return
}

// Creates a uniquely named directory owned (and later removed) by this handle
func NewEphemeral(parent string, appName string) (dir *Dir, err error) {
	path, err := os.MkdirTemp(parent, appName+"-*")
	if err != nil {
		err = fmt.Errorf("failed to create temporary directory in '%s': %w", parent, err)
		return
	}

	dir = &Dir{Path: path, Kind: Ephemeral}
	dir.owned.Store(true)
	return
}

// Takes over a directory another process created. Ephemeral directories
// become owned by the new handle, so exactly one process removes them.
func Adopt(path string, kind Kind) (dir *Dir, err error) {
	info, err := os.Stat(path)
	if err != nil {
		err = fmt.Errorf("cannot adopt work directory: %w", err)
		return
	}
	if !info.IsDir() {
		err = fmt.Errorf("cannot adopt work directory: '%s' is not a directory", path)
		return
	}
	if kind != Persistent && kind != Ephemeral {
		err = fmt.Errorf("cannot adopt work directory: unknown kind %d", kind)
		return
	}

	dir = &Dir{Path: path, Kind: kind}
	dir.owned.Store(kind == Ephemeral)
	return
}

// Joins name onto the directory path
func (dir *Dir) File(name string) (path string) {
	path = filepath.Join(dir.Path, name)
	return
}

// Reports whether Release would delete the directory
func (dir *Dir) Owned() (owned bool) {
	owned = dir.owned.Load() && !dir.released.Load()
	return
}

// Removes an owned ephemeral directory. Only the first call does filesystem work.
func (dir *Dir) Release() (err error) {
	if dir == nil {
		return
	}
	if !dir.released.CompareAndSwap(false, true) {
		return
	}
	if dir.Kind != Ephemeral || !dir.owned.Load() {
		return
	}

	err = os.RemoveAll(dir.Path)
	if err != nil {
		err = fmt.Errorf("failed to remove work directory '%s': %w", dir.Path, err)
	}
	return
}

// Gives up ownership without touching the filesystem
func (dir *Dir) Detach() {
	if dir == nil {
		return
	}
	dir.owned.Store(false)
	dir.released.Store(true)
}
