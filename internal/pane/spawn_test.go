//go:build !windows

package pane

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/dshills/panekit/internal/procinfo"
	"github.com/dshills/panekit/internal/pty"
	"github.com/dshills/panekit/internal/search"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
}

func TestSpawnFeedSearch(t *testing.T) {
	requireShell(t)

	s, err := Spawn(exec.Command("/bin/sh", "-c", "echo needle; sleep 1"), SpawnOptions{
		Size: pty.Size{Rows: 10, Cols: 40},
	})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	defer s.Close()

	r, err := s.Reader()
	if err != nil {
		t.Fatalf("Reader failed: %v", err)
	}
	defer r.Close()

	out := make(chan []byte, 16)
	go func() {
		_ = ReadOutput(r, out)
		close(out)
	}()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case chunk, ok := <-out:
			if !ok {
				t.Fatal("output ended before the match appeared")
			}
			s.Feed(chunk)
			got, err := s.Search(context.Background(), search.Pattern{Kind: search.CaseSensitive, Text: "needle"})
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if len(got) > 0 {
				if got[0].StartX != 0 || got[0].StartY != 0 {
					t.Errorf("expected match at 0,0, got %+v", got[0])
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for output")
		}
	}
}

func TestSpawnCloseReaps(t *testing.T) {
	requireShell(t)

	s, err := Spawn(exec.Command("/bin/sh", "-c", "sleep 30"), SpawnOptions{})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	if s.IsDead() {
		t.Fatal("expected child to be running")
	}

	done := make(chan error, 1)
	go func() { done <- s.Close() }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
	if !s.IsDead() {
		t.Error("expected dead after Close")
	}
}

func TestSpawnProbesWorkingDir(t *testing.T) {
	requireShell(t)
	if runtime.GOOS != "linux" {
		t.Skip("procfs probe only on linux")
	}

	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cmd := exec.Command("/bin/sh", "-c", "sleep 30")
	cmd.Dir = dir

	s, err := Spawn(cmd, SpawnOptions{Probe: procinfo.LinuxProbe{Root: "/proc"}})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	defer s.Close()

	u := s.CurrentWorkingDir()
	if u == nil {
		t.Fatal("expected a probed working directory")
	}
	if u.Path != dir {
		t.Errorf("expected %s, got %s", dir, u.Path)
	}
}
