package history

// Package history persists finished download tasks in a local SQLite
// database so the CLI and the desktop app can list what was downloaded.
