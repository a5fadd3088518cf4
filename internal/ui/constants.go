package ui

// Icons
const (
	IconSettings = "⚙"
	IconFolder   = "📁"
)

// Layout
const (
	InitialURLRows           = 3
	URLListMinHeight float32 = 140
	LogMinHeight     float32 = 220
	MaxLogLines              = 2000
)
