package lifecycle

import (
	"context"
	"os/exec"
	"testing"
	"time"
)

func TestStartChild(t *testing.T) {
	tests := []struct {
		name      string
		script    string
		expectErr bool
	}{
		{name: "child reports ready", script: `printf READY >&"$LOGSINK_READY_FD"; sleep 0.1`},
		{name: "child exits without ready", script: `exit 3`, expectErr: true},
		{name: "child sends wrong message", script: `printf NOPE! >&"$LOGSINK_READY_FD"; sleep 5`, expectErr: true},
		{name: "child hangs", script: `sleep 30`, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := exec.LookPath("sh"); err != nil {
				t.Skip("no shell available")
			}
			cmd := exec.Command("/bin/sh", "-c", tt.script)
			cmd.Env = []string{"PATH=/usr/bin:/bin"}

			start := time.Now()
			err := startChild(context.Background(), cmd, 500*time.Millisecond)
			if tt.expectErr {
				if err == nil {
					t.Fatal("expected error")
				}
				// Failed child must be gone
				if cmd.ProcessState == nil {
					t.Fatal("failed child was not reaped")
				}
				if time.Since(start) > 10*time.Second {
					t.Fatal("child shutdown took too long")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			cmd.Wait()
		})
	}
}
