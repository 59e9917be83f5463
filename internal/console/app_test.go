package console

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap/zapcore"

	"github.com/thornav/decoy/internal/logging"
	"github.com/thornav/decoy/internal/registry"
	"github.com/thornav/decoy/internal/relay"
)

func newTestApp(t *testing.T, opts Options) (*App, *registry.Store, *relay.Relay) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init: %v", err)
	}
	t.Cleanup(screen.Fini)

	store := registry.New(false)
	rel := relay.New(256)
	app := New(screen, store, rel, logging.New(rel, "info"), opts)
	return app, store, rel
}

func key(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func typeString(a *App, s string) {
	for _, r := range s {
		a.handleKey(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
}

func enterLine(a *App, line string) {
	a.handleKey(tcell.NewEventKey(tcell.KeyRune, 'i', tcell.ModNone))
	typeString(a, line)
	a.handleKey(key(tcell.KeyEnter))
	a.handleKey(key(tcell.KeyEscape))
}

func drainMessages(r *relay.Relay) []relay.Record {
	return r.Drain()
}

func TestModeTransitions(t *testing.T) {
	a, _, _ := newTestApp(t, Options{})
	if a.mode != ModeNormal {
		t.Fatal("should start in normal mode")
	}
	a.handleKey(tcell.NewEventKey(tcell.KeyRune, 'i', tcell.ModNone))
	if a.mode != ModeInsert {
		t.Fatal("i should enter insert mode")
	}
	// q edits the line in insert mode instead of quitting.
	a.handleKey(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone))
	if a.exit {
		t.Fatal("q in insert mode must not quit")
	}
	a.handleKey(key(tcell.KeyEscape))
	if a.mode != ModeNormal {
		t.Fatal("esc should return to normal mode")
	}
	a.handleKey(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone))
	if !a.exit {
		t.Fatal("q in normal mode should quit")
	}
}

func TestAddCommandMutatesStore(t *testing.T) {
	a, store, rel := newTestApp(t, Options{})
	enterLine(a, `endpoint add /status '{"ok": true}'`)

	body, ok := store.Lookup("GET", "/status")
	if !ok || string(body) != `{"ok": true}` {
		t.Fatalf("lookup = %q, %v", body, ok)
	}
	recs := drainMessages(rel)
	if len(recs) != 1 || !strings.Contains(recs[0].Message, "Inserted endpoint") {
		t.Errorf("records = %+v", recs)
	}
}

func TestAddTwiceReportsUpdate(t *testing.T) {
	a, _, rel := newTestApp(t, Options{})
	enterLine(a, "endpoint add /x '1'")
	enterLine(a, "endpoint add /x '2'")

	recs := drainMessages(rel)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if !strings.Contains(recs[1].Message, "Updated endpoint") {
		t.Errorf("second add should report an update: %q", recs[1].Message)
	}
}

func TestDeleteCommand(t *testing.T) {
	a, store, rel := newTestApp(t, Options{})
	enterLine(a, "endpoint add /x '1'")
	enterLine(a, "endpoint delete /x")

	if _, ok := store.Lookup("GET", "/x"); ok {
		t.Fatal("endpoint should be gone")
	}
	recs := drainMessages(rel)
	if len(recs) != 2 || !strings.Contains(recs[1].Message, "Removed endpoint") {
		t.Errorf("records = %+v", recs)
	}

	enterLine(a, "endpoint delete /x")
	recs = drainMessages(rel)
	if len(recs) != 1 || recs[0].Level != zapcore.WarnLevel {
		t.Errorf("deleting an absent endpoint should warn: %+v", recs)
	}
}

func TestListCommandEmptyStore(t *testing.T) {
	a, _, rel := newTestApp(t, Options{})
	enterLine(a, "endpoint list")

	recs := drainMessages(rel)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].Level != zapcore.InfoLevel || !strings.Contains(recs[0].Message, "No user defined endpoints") {
		t.Errorf("empty list record = %+v", recs[0])
	}
}

func TestListCommandShowsEntries(t *testing.T) {
	a, _, rel := newTestApp(t, Options{})
	enterLine(a, "endpoint add /a '1'")
	enterLine(a, "endpoint add /b '2'")
	drainMessages(rel)

	enterLine(a, "endpoint list")
	recs := drainMessages(rel)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if !strings.Contains(recs[0].Message, "/a -> 1") || !strings.Contains(recs[0].Message, "/b -> 2") {
		t.Errorf("list output = %q", recs[0].Message)
	}
}

func TestHelpCommand(t *testing.T) {
	a, _, rel := newTestApp(t, Options{})
	enterLine(a, "help")
	recs := drainMessages(rel)
	if len(recs) != 1 || !strings.Contains(recs[0].Message, "endpoint add") {
		t.Errorf("help records = %+v", recs)
	}
}

func TestUnknownCommandPolicies(t *testing.T) {
	cases := []struct {
		policy string
		want   int
		level  zapcore.Level
	}{
		{"error", 1, zapcore.ErrorLevel},
		{"warn", 1, zapcore.WarnLevel},
		{"ignore", 0, 0},
	}
	for _, tc := range cases {
		a, _, rel := newTestApp(t, Options{UnknownCommands: tc.policy})
		enterLine(a, "frobnicate")
		recs := drainMessages(rel)
		if len(recs) != tc.want {
			t.Errorf("policy %q: got %d records", tc.policy, len(recs))
			continue
		}
		if tc.want == 1 && recs[0].Level != tc.level {
			t.Errorf("policy %q: level = %v", tc.policy, recs[0].Level)
		}
	}
}

func TestEmptyInputIgnored(t *testing.T) {
	a, _, rel := newTestApp(t, Options{})
	enterLine(a, "   ")
	if recs := drainMessages(rel); len(recs) != 0 {
		t.Errorf("blank line should produce no records: %+v", recs)
	}
	if len(a.history) != 0 {
		t.Error("blank line should not enter history")
	}
}

func TestLineEditing(t *testing.T) {
	a, _, _ := newTestApp(t, Options{})
	a.handleKey(tcell.NewEventKey(tcell.KeyRune, 'i', tcell.ModNone))

	typeString(a, "endpoint lost")
	a.handleKey(key(tcell.KeyBackspace2))
	if got := string(a.input); got != "endpoint los" {
		t.Errorf("after backspace: %q", got)
	}
	a.handleKey(key(tcell.KeyCtrlW))
	if got := string(a.input); got != "endpoint " {
		t.Errorf("after ctrl-w: %q", got)
	}
	a.handleKey(key(tcell.KeyCtrlU))
	if got := string(a.input); got != "" {
		t.Errorf("after ctrl-u: %q", got)
	}
}

func TestHistoryNavigation(t *testing.T) {
	a, _, rel := newTestApp(t, Options{})
	enterLine(a, "endpoint add /a '1'")
	enterLine(a, "endpoint add /b '2'")
	drainMessages(rel)

	a.handleKey(tcell.NewEventKey(tcell.KeyRune, 'i', tcell.ModNone))
	a.handleKey(key(tcell.KeyUp))
	if got := string(a.input); got != "endpoint add /b '2'" {
		t.Errorf("first up: %q", got)
	}
	a.handleKey(key(tcell.KeyUp))
	if got := string(a.input); got != "endpoint add /a '1'" {
		t.Errorf("second up: %q", got)
	}
	a.handleKey(key(tcell.KeyUp)) // already at the oldest entry
	if got := string(a.input); got != "endpoint add /a '1'" {
		t.Errorf("up past the oldest entry: %q", got)
	}
	a.handleKey(key(tcell.KeyDown))
	if got := string(a.input); got != "endpoint add /b '2'" {
		t.Errorf("down: %q", got)
	}
	a.handleKey(key(tcell.KeyDown))
	if got := string(a.input); got != "" {
		t.Errorf("down to the live line: %q", got)
	}
}

func TestScrollbackBounded(t *testing.T) {
	a, _, _ := newTestApp(t, Options{Scrollback: 10})
	for i := 0; i < 50; i++ {
		a.log.Info(fmt.Sprintf("record %d", i))
		a.drainLogs()
	}
	if got := a.lines.Length(); got != 10 {
		t.Fatalf("scrollback length = %d, want 10", got)
	}
	last, _ := a.lines.Get(a.lines.Length() - 1).(string)
	if !strings.Contains(last, "record 49") {
		t.Errorf("newest line = %q", last)
	}
}

func TestMultiLineRecordIndented(t *testing.T) {
	a, _, _ := newTestApp(t, Options{})
	a.log.Info("first\nsecond")
	a.drainLogs()
	if a.lines.Length() != 2 {
		t.Fatalf("expected 2 display lines, got %d", a.lines.Length())
	}
	second, _ := a.lines.Get(1).(string)
	if !strings.HasPrefix(second, " ") || !strings.Contains(second, "second") {
		t.Errorf("continuation line = %q", second)
	}
}

func TestDrawRendersWithoutPanic(t *testing.T) {
	a, _, _ := newTestApp(t, Options{})
	enterLine(a, "endpoint add /status '{\"ok\": true}'")
	a.drainLogs()
	a.draw()
	a.handleKey(tcell.NewEventKey(tcell.KeyRune, 'i', tcell.ModNone))
	typeString(a, "endpoint list")
	a.draw()
}
