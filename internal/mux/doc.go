package mux

// Package mux locates the external multiplexing tool (ffmpeg) and its ffprobe
// companion, reports their version and inspects merged output files.
