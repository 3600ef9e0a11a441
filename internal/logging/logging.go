// Package logging implements devsync's component-scoped structured
// logging and the plain-terminal progress sink used when the bubbletea UI
// is disabled, which prints colored stdout status lines.
package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/henneberg-systemdesign/devsync/internal/progress"
)

// EnvLevel is the verbosity environment variable (§6 "Environment" —
// "RUST_LOG-style level variable").
const EnvLevel = "DEVSYNC_LOG"

// Configure sets the process-wide slog default logger's level from
// DEVSYNC_LOG ("error", "warn", "info", "debug"; default "info").
func Configure() {
	level := parseLevel(os.Getenv(EnvLevel))
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// Component returns a logger tagged with "component", used to scope log
// lines to the subsystem that emitted them.
func Component(name string) *slog.Logger {
	return slog.Default().With("component", name)
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var (
	colorCyan   = color.New(color.FgCyan, color.Bold)
	colorGreen  = color.New(color.FgGreen)
	colorYellow = color.New(color.FgYellow)
	colorRed    = color.New(color.FgRed)
	colorFaint  = color.New(color.Faint)
)

// terminalSink is the plain-text progress.Sink used when the bubbletea UI
// is disabled (--no-ui, or stdout isn't a terminal): Started and Finished
// events each print one colored line to stdout, while Discovered (at debug
// level) and Logged events go only through slog.
type terminalSink struct {
	log *slog.Logger
}

// NewTerminalSink returns the fallback progress.Sink for non-interactive
// runs (§6 "Progress events to UI").
func NewTerminalSink() progress.Sink {
	return terminalSink{log: Component("progress")}
}

func (t terminalSink) Discovered(path string) {
	t.log.Debug("discovered", "path", path)
}

func (t terminalSink) Started(path, category string) {
	colorFaint.Printf("-> %s (%s)\n", path, category)
}

func (t terminalSink) Finished(path, outcome string) {
	switch {
	case strings.HasPrefix(outcome, "failed"):
		colorRed.Printf("x  %s: %s\n", path, outcome)
	case strings.HasPrefix(outcome, "skipped"):
		colorYellow.Printf("-  %s: %s\n", path, outcome)
	case strings.HasPrefix(outcome, "aborted"):
		colorYellow.Printf("!  %s: %s\n", path, outcome)
	default:
		colorGreen.Printf("+  %s\n", path)
	}
}

func (t terminalSink) Logged(level, message string) {
	switch level {
	case string(progress.LevelError):
		t.log.Error(message)
	case string(progress.LevelWarn):
		t.log.Warn(message)
	case string(progress.LevelDebug):
		t.log.Debug(message)
	default:
		t.log.Info(message)
	}
}
