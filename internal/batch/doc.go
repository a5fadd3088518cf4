package batch

// Package batch wires the concrete backends, the multiplexing tool, playlist
// expansion and the history store into a download.Service. Both the desktop
// app and the CLI run their batches through a Runner.
