package download

import "github.com/ytget/yt-langdl/internal/mux"

// Capabilities holds the optional collaborators of the high quality path.
// A nil field means the capability is absent.
type Capabilities struct {
	Mux      *mux.Tool
	Extended ExtendedBackend
}

// HighQuality reports whether the split-stream path can run
func (c Capabilities) HighQuality() bool {
	return c.Mux != nil && c.Extended != nil
}

// FFmpegPath returns the multiplexing tool location, empty when absent
func (c Capabilities) FFmpegPath() string {
	if c.Mux == nil {
		return ""
	}
	return c.Mux.FFmpegPath
}

// Reasons explains why the high quality path is unavailable, one line per
// missing capability.
func (c Capabilities) Reasons() []string {
	var reasons []string
	if c.Mux == nil {
		reasons = append(reasons, MsgNoFFmpeg)
	}
	if c.Extended == nil {
		reasons = append(reasons, MsgNoExtended)
	}
	return reasons
}
