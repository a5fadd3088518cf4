package ui

import "fyne.io/fyne/v2"

// windowObserver forwards download events to the window. Every call is
// marshalled onto the UI thread.
type windowObserver struct {
	ui *RootUI
}

func newWindowObserver(ui *RootUI) *windowObserver {
	return &windowObserver{ui: ui}
}

func (o *windowObserver) Log(message string) {
	fyne.Do(func() { o.ui.appendLog(message) })
}

func (o *windowObserver) OverallProgress(completed, total int) {
	fyne.Do(func() { o.ui.setOverall(completed, total) })
}

func (o *windowObserver) CurrentProgress(fraction float64, message string) {
	fyne.Do(func() { o.ui.setCurrent(fraction, message) })
}

func (o *windowObserver) Complete() {
	fyne.Do(o.ui.onBatchComplete)
}
