//go:build !windows

package pty

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
}

func spawnShell(t *testing.T, script string) (*Child, *Master) {
	t.Helper()
	requireShell(t)

	child, master, err := Spawn(exec.Command("/bin/sh", "-c", script), Size{Rows: 24, Cols: 80})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	t.Cleanup(func() {
		_ = child.Kill()
		_ = child.Wait()
		_ = master.Close()
	})
	return child, master
}

// readUntil reads r until want appears or the timeout expires.
func readUntil(t *testing.T, r io.Reader, want string, timeout time.Duration) string {
	t.Helper()

	found := make(chan string, 1)
	go func() {
		var out bytes.Buffer
		buf := make([]byte, 1024)
		for {
			n, err := r.Read(buf)
			out.Write(buf[:n])
			if strings.Contains(out.String(), want) || err != nil {
				found <- out.String()
				return
			}
		}
	}()

	select {
	case s := <-found:
		return s
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for %q", want)
		return ""
	}
}

func TestSpawnOutput(t *testing.T) {
	child, master := spawnShell(t, "echo hello-pty")

	r, err := master.CloneReader()
	if err != nil {
		t.Fatalf("CloneReader failed: %v", err)
	}
	defer r.Close()

	if out := readUntil(t, r, "hello-pty", 5*time.Second); !strings.Contains(out, "hello-pty") {
		t.Errorf("expected output to contain hello-pty, got %q", out)
	}

	if err := child.Wait(); err != nil {
		t.Errorf("expected clean exit, got %v", err)
	}
	exited, err := child.TryWait()
	if !exited || err != nil {
		t.Errorf("expected exited with no error, got %v %v", exited, err)
	}
	if code := child.ExitCode(); code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
}

func TestChildNonZeroExit(t *testing.T) {
	child, _ := spawnShell(t, "exit 3")

	var exitErr *exec.ExitError
	if err := child.Wait(); !errors.As(err, &exitErr) {
		t.Fatalf("expected *exec.ExitError, got %v", err)
	}
	// A non-zero status is still a known status.
	if exited, err := child.TryWait(); !exited || err != nil {
		t.Errorf("expected exited with no error, got %v %v", exited, err)
	}
	if code := child.ExitCode(); code != 3 {
		t.Errorf("expected exit code 3, got %d", code)
	}
}

func TestChildKill(t *testing.T) {
	child, _ := spawnShell(t, "sleep 30")

	if exited, _ := child.TryWait(); exited {
		t.Fatal("expected child to be running")
	}
	if child.Pid() <= 0 {
		t.Errorf("expected a pid, got %d", child.Pid())
	}

	if err := child.Kill(); err != nil {
		t.Fatalf("Kill failed: %v", err)
	}
	_ = child.Wait()

	if exited, _ := child.TryWait(); !exited {
		t.Error("expected child to have exited after kill")
	}
	// Killing an exited child is not an error.
	if err := child.Kill(); err != nil {
		t.Errorf("expected nil killing an exited child, got %v", err)
	}
	// Wait is idempotent.
	_ = child.Wait()
}

func TestChildNotStarted(t *testing.T) {
	var c Child

	if err := c.Kill(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted from Kill, got %v", err)
	}
	if _, err := c.TryWait(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted from TryWait, got %v", err)
	}
	if c.Pid() != 0 {
		t.Errorf("expected pid 0, got %d", c.Pid())
	}
}

func TestChildStatusUnknown(t *testing.T) {
	c := startChild(&os.Process{Pid: 1}, func() error { return errors.New("no child processes") })
	<-c.done

	exited, err := c.TryWait()
	if !exited {
		t.Error("expected exited")
	}
	if !errors.Is(err, ErrWait) {
		t.Errorf("expected ErrWait, got %v", err)
	}
	if c.ExitCode() != -1 {
		t.Errorf("expected exit code -1, got %d", c.ExitCode())
	}
}

func TestMasterResize(t *testing.T) {
	_, master := spawnShell(t, "sleep 30")

	want := Size{Rows: 40, Cols: 120}
	if err := master.Resize(want); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	got, err := master.Size()
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if got.Rows != want.Rows || got.Cols != want.Cols {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestMasterWriteEchoes(t *testing.T) {
	_, master := spawnShell(t, "read line; echo got-$line")

	r, err := master.CloneReader()
	if err != nil {
		t.Fatalf("CloneReader failed: %v", err)
	}
	defer r.Close()

	if _, err := master.Write([]byte("ping\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if out := readUntil(t, r, "got-ping", 5*time.Second); !strings.Contains(out, "got-ping") {
		t.Errorf("expected got-ping, got %q", out)
	}
}

func TestMasterProcessGroupLeader(t *testing.T) {
	child, master := spawnShell(t, "sleep 30")

	pid, ok := master.ProcessGroupLeader()
	if !ok {
		t.Fatal("expected a foreground process group")
	}
	// The shell is the session leader and owns the foreground group.
	if pid != child.Pid() {
		t.Errorf("expected pgid %d, got %d", child.Pid(), pid)
	}
}

func TestMasterClose(t *testing.T) {
	_, master := spawnShell(t, "sleep 30")

	if err := master.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := master.Close(); err != nil {
		t.Errorf("expected second Close to be a no-op, got %v", err)
	}
	if _, err := master.Write([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from Write, got %v", err)
	}
	if err := master.Resize(Size{Rows: 1, Cols: 1}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from Resize, got %v", err)
	}
	if _, ok := master.ProcessGroupLeader(); ok {
		t.Error("expected no process group after close")
	}
}

func TestSizeValid(t *testing.T) {
	tests := []struct {
		size Size
		want bool
	}{
		{Size{Rows: 24, Cols: 80}, true},
		{Size{Rows: 0, Cols: 80}, false},
		{Size{Rows: 24, Cols: 0}, false},
	}
	for _, tt := range tests {
		if got := tt.size.Valid(); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.size, tt.want, got)
		}
	}
}
