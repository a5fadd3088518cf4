package model

// Package model defines domain data structures used across the app: download
// requests, per-URL tasks, progress snapshots and status enums. Structures are
// plain values so both the GUI and the CLI can render them directly.
