package repl

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestInputLoopDispatchesRegisteredCommand(t *testing.T) {
	var got []string
	r := New(strings.NewReader("greet world\nexit\n"), &bytes.Buffer{})
	r.AddHandler("greet", func(out io.Writer, args []string) {
		got = append(got, strings.Join(args, ","))
	})
	r.InputLoop()

	if len(got) != 1 || got[0] != "world" {
		t.Fatalf("got %v, want one call with args [world]", got)
	}
}

func TestInputLoopUnknownCommandReportsError(t *testing.T) {
	var out bytes.Buffer
	r := New(strings.NewReader("bogus\nexit\n"), &out)
	r.InputLoop()

	if !strings.Contains(out.String(), "no such command") {
		t.Errorf("output %q does not report the unknown command", out.String())
	}
}

func TestHandleLogLevelRoundTrip(t *testing.T) {
	var out bytes.Buffer
	handleLogLevel(&out, []string{"warn"})
	if !strings.Contains(out.String(), "warn") {
		t.Errorf("output %q does not confirm the new level", out.String())
	}

	out.Reset()
	handleLogLevel(&out, []string{})
	if !strings.Contains(out.String(), "current log level") {
		t.Errorf("output %q does not report the current level", out.String())
	}
}
