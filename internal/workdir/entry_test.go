package workdir

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEphemeralLifecycle(t *testing.T) {
	tests := []struct {
		name        string
		detach      bool
		expectExist bool
	}{
		{name: "release removes directory", detach: false, expectExist: false},
		{name: "detach keeps directory", detach: true, expectExist: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, err := NewEphemeral(t.TempDir(), "logsink")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !dir.Owned() {
				t.Fatal("new ephemeral directory should be owned")
			}

			// Something inside, as receivers would leave behind
			err = os.WriteFile(dir.File("artifact"), []byte("x"), 0600)
			if err != nil {
				t.Fatalf("failed to write artifact: %v", err)
			}

			if tt.detach {
				dir.Detach()
			}
			if err := dir.Release(); err != nil {
				t.Fatalf("first release failed: %v", err)
			}
			if err := dir.Release(); err != nil {
				t.Fatalf("second release failed: %v", err)
			}

			_, err = os.Stat(dir.Path)
			exists := err == nil
			if exists != tt.expectExist {
				t.Fatalf("expected exists=%v, got %v (stat err %v)", tt.expectExist, exists, err)
			}
		})
	}
}

func TestPersistentNeverRemoved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runtime", "logsink")

	dir, err := NewPersistent(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir.Owned() {
		t.Fatal("persistent directory must not be owned")
	}
	if err := dir.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("persistent directory removed: %v", err)
	}
}

func TestResolve(t *testing.T) {
	t.Run("runtime dir set", func(t *testing.T) {
		root := t.TempDir()
		t.Setenv("XDG_RUNTIME_DIR", root)

		dir, err := Resolve("logsink")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Kind != Persistent || dir.Path != filepath.Join(root, "logsink") {
			t.Fatalf("unexpected dir %+v", dir)
		}
	})

	t.Run("runtime dir unset", func(t *testing.T) {
		t.Setenv("XDG_RUNTIME_DIR", "")
		t.Setenv("TMPDIR", t.TempDir())

		dir, err := Resolve("logsink")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer dir.Release()
		if dir.Kind != Ephemeral {
			t.Fatalf("expected ephemeral dir, got kind %d", dir.Kind)
		}
	})
}

func TestAdopt(t *testing.T) {
	path := t.TempDir()

	if _, err := Adopt(filepath.Join(path, "missing"), Ephemeral); err == nil {
		t.Fatal("expected error adopting a missing directory")
	}

	dir, err := Adopt(path, Ephemeral)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dir.Owned() {
		t.Fatal("adopted ephemeral directory should be owned")
	}

	persistent, err := Adopt(path, Persistent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if persistent.Owned() {
		t.Fatal("adopted persistent directory should not be owned")
	}
}
