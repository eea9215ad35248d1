package clipboard

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/dshills/panekit/internal/terminal"
)

func TestOSC52(t *testing.T) {
	tests := []struct {
		name   string
		sel    terminal.ClipboardSelection
		mux    Multiplexer
		prefix string
	}{
		{"clipboard", terminal.SelectionClipboard, MultiplexerNone, "\x1b]52;c;"},
		{"primary", terminal.SelectionPrimary, MultiplexerNone, "\x1b]52;p;"},
		{"tmux", terminal.SelectionClipboard, MultiplexerTmux, "\x1bPtmux;\x1b\x1b]52;c;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			o := NewOSC52(&buf, tt.mux, 0)

			if err := o.SetContents(tt.sel, "hello"); err != nil {
				t.Fatalf("SetContents failed: %v", err)
			}

			out := buf.String()
			if !strings.HasPrefix(out, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, out)
			}
			if enc := base64.StdEncoding.EncodeToString([]byte("hello")); !strings.Contains(out, enc) {
				t.Errorf("expected payload %q in %q", enc, out)
			}
		})
	}
}

func TestOSC52Limit(t *testing.T) {
	var buf bytes.Buffer
	o := NewOSC52(&buf, MultiplexerNone, 4)

	if err := o.SetContents(terminal.SelectionClipboard, "too long"); err != nil {
		t.Fatalf("SetContents failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected oversized copy to be dropped, got %q", buf.String())
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()

	if _, ok := m.Contents(terminal.SelectionClipboard); ok {
		t.Error("expected empty clipboard")
	}

	_ = m.SetContents(terminal.SelectionClipboard, "a")
	_ = m.SetContents(terminal.SelectionPrimary, "b")

	if got, _ := m.Contents(terminal.SelectionClipboard); got != "a" {
		t.Errorf("expected 'a', got %q", got)
	}
	if got, _ := m.Contents(terminal.SelectionPrimary); got != "b" {
		t.Errorf("expected 'b', got %q", got)
	}
}

func TestMemoryReceivesOSC52FromTerminal(t *testing.T) {
	m := NewMemory()
	term := terminal.New(terminal.Config{Rows: 5, Cols: 20}, nil)
	term.SetClipboard(m)

	payload := base64.StdEncoding.EncodeToString([]byte("copied"))
	term.AdvanceBytes([]byte("\x1b]52;c;" + payload + "\x07"))

	if got, ok := m.Contents(terminal.SelectionClipboard); !ok || got != "copied" {
		t.Errorf("expected 'copied', got %q", got)
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	tests := []struct {
		kind    string
		w       *bytes.Buffer
		want    string
		wantErr bool
	}{
		{"", nil, "*clipboard.Memory", false},
		{"", &buf, "*clipboard.OSC52", false},
		{"memory", nil, "*clipboard.Memory", false},
		{"OSC52", &buf, "*clipboard.OSC52", false},
		{"osc52", nil, "", true},
		{"system", nil, "clipboard.System", false},
		{"bogus", nil, "", true},
	}

	for _, tt := range tests {
		var c terminal.Clipboard
		var err error
		if tt.w == nil {
			c, err = New(tt.kind, nil)
		} else {
			c, err = New(tt.kind, tt.w)
		}
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tt.kind)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tt.kind, err)
			continue
		}
		if got := typeName(c); got != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.kind, tt.want, got)
		}
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *Memory:
		return "*clipboard.Memory"
	case *OSC52:
		return "*clipboard.OSC52"
	case System:
		return "clipboard.System"
	default:
		return "unknown"
	}
}
