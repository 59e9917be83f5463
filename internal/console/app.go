// Package console is the foreground execution context: a terminal UI
// that accepts endpoint commands and displays the log relay's output.
// It is the single writer of the endpoint store and the single consumer
// of the relay.
package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/eapache/queue"
	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/thornav/decoy/internal/command"
	"github.com/thornav/decoy/internal/registry"
	"github.com/thornav/decoy/internal/relay"
)

// pollInterval bounds the wait for a terminal event so the loop stays
// responsive to background log activity without busy-spinning.
const pollInterval = 100 * time.Millisecond

// InputMode governs how keystrokes are interpreted.
type InputMode int

const (
	// ModeNormal: q quits, i enters insert mode.
	ModeNormal InputMode = iota
	// ModeInsert: keystrokes edit the command line.
	ModeInsert
)

// Options tunes the control loop.
type Options struct {
	// Scrollback bounds the log display buffer in lines.
	Scrollback int
	// UnknownCommands selects how unrecognized input is reported:
	// "error" (default), "warn" or "ignore".
	UnknownCommands string
}

// App runs the interactive control loop. Each iteration drains the
// relay into the scrollback, re-renders, and waits (bounded) for a
// terminal event.
type App struct {
	screen tcell.Screen
	store  *registry.Store
	relay  *relay.Relay
	log    *zap.Logger
	opts   Options

	mode    InputMode
	input   []rune
	history []string
	// histIdx counts backwards from the end of history; 0 is the live line.
	histIdx int
	lines   *queue.Queue
	exit    bool
}

// New wires the control loop to its collaborators. The store handle is
// shared with the dispatcher; the relay's receiving side belongs to
// this loop alone.
func New(screen tcell.Screen, store *registry.Store, rel *relay.Relay, logger *zap.Logger, opts Options) *App {
	if opts.Scrollback <= 0 {
		opts.Scrollback = 1000
	}
	return &App{
		screen: screen,
		store:  store,
		relay:  rel,
		log:    logger,
		opts:   opts,
		lines:  queue.New(),
	}
}

// Run drives the loop until the operator quits. Terminal errors are
// returned to the caller, which restores the screen and exits non-zero.
func (a *App) Run() error {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go a.screen.ChannelEvents(events, quit)
	defer close(quit)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for !a.exit {
		a.drainLogs()
		a.draw()
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			a.handleEvent(ev)
		case <-ticker.C:
		}
	}
	return nil
}

func (a *App) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		a.handleKey(ev)
	case *tcell.EventResize:
		a.screen.Sync()
	}
}

func (a *App) handleKey(ev *tcell.EventKey) {
	switch a.mode {
	case ModeNormal:
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'q':
				a.exit = true
			case 'i':
				a.mode = ModeInsert
			}
		}
	case ModeInsert:
		switch ev.Key() {
		case tcell.KeyEscape:
			a.mode = ModeNormal
		case tcell.KeyEnter:
			a.executeLine()
		case tcell.KeyBackspace, tcell.KeyBackspace2:
			if len(a.input) > 0 {
				a.input = a.input[:len(a.input)-1]
			}
		case tcell.KeyCtrlU:
			a.input = a.input[:0]
		case tcell.KeyCtrlW:
			a.deleteLastWord()
		case tcell.KeyUp:
			a.historyBackward()
		case tcell.KeyDown:
			a.historyForward()
		case tcell.KeyRune:
			a.input = append(a.input, ev.Rune())
		}
	}
}

func (a *App) deleteLastWord() {
	line := strings.TrimRight(string(a.input), " ")
	if pos := strings.LastIndexByte(line, ' '); pos >= 0 {
		a.input = []rune(line[:pos+1])
	} else {
		a.input = a.input[:0]
	}
}

func (a *App) historyBackward() {
	if a.histIdx < len(a.history) {
		a.histIdx++
	}
	a.recallHistory()
}

func (a *App) historyForward() {
	if a.histIdx > 1 {
		a.histIdx--
	} else {
		a.histIdx = 0
	}
	a.recallHistory()
}

func (a *App) recallHistory() {
	if a.histIdx == 0 {
		a.input = a.input[:0]
		return
	}
	a.input = []rune(a.history[len(a.history)-a.histIdx])
}

// executeLine parses and applies the current input line, then records
// it in the history and clears the prompt.
func (a *App) executeLine() {
	line := strings.TrimSpace(string(a.input))
	if line == "" {
		return
	}
	a.log.Debug("> " + line)

	cmd, err := command.Parse(line)
	if err != nil {
		a.reportUnrecognized(err)
	} else {
		a.apply(cmd)
	}

	a.history = append(a.history, line)
	a.histIdx = 0
	a.input = a.input[:0]
}

func (a *App) apply(cmd command.Command) {
	switch cmd.Kind {
	case command.KindAdd:
		path := registry.NormalizePath(cmd.Path)
		updated := a.store.Upsert(cmd.Method, cmd.Path, []byte(cmd.Body))
		verb := "Inserted"
		if updated {
			verb = "Updated"
		}
		a.log.Info(fmt.Sprintf("%s endpoint %s %s -> %s", verb, methodLabel(cmd.Method), path, cmd.Body))
	case command.KindDelete:
		path := registry.NormalizePath(cmd.Path)
		if a.store.Remove(cmd.Method, cmd.Path) {
			a.log.Info("Removed endpoint " + path)
		} else {
			a.log.Warn("Endpoint not found: " + path)
		}
	case command.KindList:
		entries := a.store.List(cmd.Method)
		if len(entries) == 0 {
			a.log.Info("No user defined endpoints currently available")
			return
		}
		var b strings.Builder
		b.WriteString("Registered endpoints:")
		for _, e := range entries {
			fmt.Fprintf(&b, "\n  %s %s -> %s", e.Method, e.Path, e.Body)
		}
		a.log.Info(b.String())
	case command.KindHelp:
		a.log.Info(command.Usage)
	}
}

// reportUnrecognized surfaces parse failures and unknown commands
// through the relay per the configured policy.
func (a *App) reportUnrecognized(err error) {
	switch a.opts.UnknownCommands {
	case "ignore":
	case "warn":
		a.log.Warn(err.Error())
	default:
		a.log.Error(err.Error())
	}
}

func methodLabel(method string) string {
	if method == "" {
		return registry.MethodAny
	}
	return strings.ToUpper(method)
}

// drainLogs moves pending relay records into the bounded scrollback.
func (a *App) drainLogs() {
	for _, rec := range a.relay.Drain() {
		for _, line := range formatRecord(rec) {
			a.lines.Add(line)
		}
	}
	for a.lines.Length() > a.opts.Scrollback {
		a.lines.Remove()
	}
}

// formatRecord renders a record as display lines; continuation lines of
// a multi-line message are indented to align after the level tag.
func formatRecord(rec relay.Record) []string {
	parts := strings.Split(rec.Message, "\n")
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i == 0 {
			out = append(out, fmt.Sprintf("%s [%s] %s",
				rec.Time.Format("15:04:05"), strings.ToUpper(rec.Level.String()), p))
		} else {
			out = append(out, "               "+p)
		}
	}
	return out
}
