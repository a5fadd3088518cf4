package ui

// Package ui contains the Fyne desktop window: URL rows, the high quality
// toggle, overall and current file progress, the log pane and the settings
// dialog. Batches run on a background goroutine and report back through an
// observer that marshals every update onto the UI thread with fyne.Do.
