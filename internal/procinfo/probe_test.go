package procinfo

import (
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLinuxProbeFakeRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	work := t.TempDir()

	if err := os.MkdirAll(filepath.Join(root, "42"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(work, filepath.Join(root, "42", "cwd")); err != nil {
		t.Fatal(err)
	}

	p := LinuxProbe{Root: root}

	u, ok := p.WorkingDir(42)
	if !ok {
		t.Fatal("expected a working directory")
	}
	if u.Scheme != "file" || u.Host != "localhost" || u.Path != work {
		t.Errorf("expected file://localhost%s, got %s", work, u)
	}

	if _, ok := p.WorkingDir(43); ok {
		t.Error("expected no result for a missing pid")
	}
}

func TestLinuxProbeSelf(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("procfs only on linux")
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	resolved, err := filepath.EvalSymlinks(wd)
	if err != nil {
		t.Fatal(err)
	}

	u, ok := LinuxProbe{}.WorkingDir(os.Getpid())
	if !ok {
		t.Fatal("expected a working directory for this process")
	}
	if u.Path != resolved {
		t.Errorf("expected %s, got %s", resolved, u.Path)
	}
}

func TestProcessProbeSelf(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("cwd lookup exercised on linux and darwin")
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	resolved, err := filepath.EvalSymlinks(wd)
	if err != nil {
		t.Fatal(err)
	}

	probes := map[string]Probe{
		"process": ProcessProbe{},
		"darwin":  DarwinProbe{},
	}
	for name, p := range probes {
		u, ok := p.WorkingDir(os.Getpid())
		if !ok {
			t.Fatalf("%s: expected a working directory for this process", name)
		}
		if u.Scheme != "file" || u.Path != resolved {
			t.Errorf("%s: expected file://localhost%s, got %s", name, resolved, u)
		}
	}
}

func TestProbeNonPositivePid(t *testing.T) {
	probes := map[string]Probe{
		"linux":       LinuxProbe{Root: t.TempDir()},
		"darwin":      DarwinProbe{},
		"process":     ProcessProbe{},
		"unsupported": UnsupportedProbe{},
	}
	for name, p := range probes {
		for _, pid := range []int{0, -1} {
			if u, ok := p.WorkingDir(pid); ok || u != nil {
				t.Errorf("%s: expected no result for pid %d, got %v", name, pid, u)
			}
		}
	}
}

func TestForPlatform(t *testing.T) {
	tests := []struct {
		goos string
		want Probe
	}{
		{"linux", LinuxProbe{Root: "/proc"}},
		{"darwin", DarwinProbe{}},
		{"freebsd", ProcessProbe{}},
		{"windows", ProcessProbe{}},
		{"plan9", UnsupportedProbe{}},
		{"js", UnsupportedProbe{}},
	}
	for _, tt := range tests {
		if got := ForPlatform(tt.goos); got != tt.want {
			t.Errorf("%s: expected %T, got %T", tt.goos, tt.want, got)
		}
	}
}

func TestFileURL(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}
	u, ok := FileURL("/home/user/src")
	if !ok {
		t.Fatal("expected a URL")
	}
	if got := u.String(); got != "file://localhost/home/user/src" {
		t.Errorf("unexpected URL %q", got)
	}

	if _, ok := FileURL("relative/path"); ok {
		t.Error("expected relative paths to be rejected")
	}
	if _, ok := FileURL(""); ok {
		t.Error("expected empty path to be rejected")
	}
}

func TestProbeFunc(t *testing.T) {
	want := &url.URL{Scheme: "file", Host: "localhost", Path: "/tmp"}
	var p Probe = ProbeFunc(func(pid int) (*url.URL, bool) {
		return want, pid == 7
	})

	if u, ok := p.WorkingDir(7); !ok || u != want {
		t.Errorf("expected %v, got %v %v", want, u, ok)
	}
}
