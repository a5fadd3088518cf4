package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// Log line prefixes used to pick a colour
const (
	prefixFailed  = "❌"
	prefixWarning = "⚠️"
	prefixDone    = "✔️"
	prefixAllDone = "✅"
)

const barScale = 1000

// terminalObserver prints log lines in colour and renders the current file
// as a progress bar.
type terminalObserver struct {
	out io.Writer
	bar *progressbar.ProgressBar

	mu        sync.Mutex
	position  int
	completed bool

	failed  *color.Color
	warning *color.Color
	done    *color.Color
	overall *color.Color
}

func newTerminalObserver(out io.Writer) *terminalObserver {
	return &terminalObserver{
		out: out,
		bar: progressbar.NewOptions(barScale,
			progressbar.OptionSetWriter(out),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetElapsedTime(false),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(30),
		),
		failed:  color.New(color.FgRed),
		warning: color.New(color.FgYellow),
		done:    color.New(color.FgGreen),
		overall: color.New(color.FgCyan, color.Bold),
	}
}

func (o *terminalObserver) Log(message string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	_ = o.bar.Clear()
	o.colorFor(message).Fprintln(o.out, message)
}

func (o *terminalObserver) OverallProgress(completed, total int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	_ = o.bar.Clear()
	o.resetBar()
	o.overall.Fprintf(o.out, "[%d/%d]\n", completed, total)
}

func (o *terminalObserver) CurrentProgress(fraction float64, message string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.completed {
		return
	}
	position := int(fraction * barScale)
	// A finished bar never renders again; each stream of a file starts over.
	if o.bar.IsFinished() || position < o.position {
		o.resetBar()
	}
	o.position = position
	o.bar.Describe(message)
	_ = o.bar.Set(position)
}

func (o *terminalObserver) resetBar() {
	o.bar.Reset()
	o.position = 0
}

func (o *terminalObserver) Complete() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.completed {
		return
	}
	o.completed = true
	_ = o.bar.Clear()
	fmt.Fprintln(o.out)
}

func (o *terminalObserver) colorFor(message string) *color.Color {
	trimmed := strings.TrimSpace(message)
	switch {
	case strings.HasPrefix(trimmed, prefixFailed):
		return o.failed
	case strings.HasPrefix(trimmed, prefixWarning):
		return o.warning
	case strings.HasPrefix(trimmed, prefixDone), strings.HasPrefix(trimmed, prefixAllDone):
		return o.done
	default:
		return color.New(color.Reset)
	}
}
