package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/ytget/yt-langdl/internal/download"
	"github.com/ytget/yt-langdl/internal/format"
	"github.com/ytget/yt-langdl/internal/platform"
)

// DefaultEnvFile is loaded before the command line is parsed
const DefaultEnvFile = ".env"

// CLI holds command line arguments parsed by go-arg. Every flag can also be
// set through its environment variable.
type CLI struct {
	URLs         []string `arg:"positional" help:"video or playlist URLs"`
	Standard     bool     `arg:"-s,--standard,env:YTL_STANDARD" help:"skip the high quality path and download progressive streams only"`
	Dir          string   `arg:"-o,--dir,env:YTL_DOWNLOAD_DIR" help:"download directory (default: ~/Downloads/youtube_downloads)"`
	Langs        string   `arg:"-l,--langs,env:YTL_LANGS" default:"ko,en-US,en" help:"preferred audio languages in priority order"`
	MaxHeight    int      `arg:"--max-height,env:YTL_MAX_HEIGHT" default:"1080" help:"maximum video height, 0 for no limit"`
	ExactHeight  int      `arg:"--exact-height,env:YTL_EXACT_HEIGHT" help:"exact video height, overrides --max-height"`
	FFmpeg       string   `arg:"--ffmpeg,env:YTL_FFMPEG" help:"path to the ffmpeg binary"`
	InstallYTDLP bool     `arg:"--install-ytdlp,env:YTL_INSTALL_YTDLP" help:"download yt-dlp when it is not installed"`
	History      string   `arg:"--history,env:YTL_HISTORY" help:"history database file (default: user config dir)"`
	NoHistory    bool     `arg:"--no-history,env:YTL_NO_HISTORY" help:"do not record downloads"`
	NoPlaylist   bool     `arg:"--no-playlist,env:YTL_NO_PLAYLIST" help:"do not expand playlist URLs"`
	LogLevel     string   `arg:"--log-level,env:YTL_LOG_LEVEL" default:"warn" help:"debug, info, warn or error"`

	PlaylistTimeout time.Duration `arg:"--playlist-timeout,env:YTL_PLAYLIST_TIMEOUT" help:"timeout for expanding one playlist, e.g. 90s"`
	HistoryList     int           `arg:"--history-list" placeholder:"N" help:"print the N most recent downloads and exit"`
	HistoryURL      string        `arg:"--history-url" placeholder:"URL" help:"print the recorded downloads of one URL and exit"`
}

// ErrNoURLs is returned by Validate when there is nothing to download
var ErrNoURLs = errors.New("at least one URL is required")

// Description is shown at the top of the help text
func (CLI) Description() string {
	return "Downloads videos with a preferred audio language at the highest available resolution.\n"
}

// LoadEnv loads variables from the given .env files. A missing file is not
// an error; the returned error only reports malformed files.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
	}
	var existing []string
	for _, f := range files {
		if platform.FileExists(f) {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// HistoryQuery reports whether the history is queried instead of downloading
func (c *CLI) HistoryQuery() bool {
	return c.HistoryList > 0 || c.HistoryURL != ""
}

// Validate checks combinations go-arg cannot express
func (c *CLI) Validate() error {
	if len(c.URLs) == 0 && !c.HistoryQuery() {
		return ErrNoURLs
	}
	return nil
}

// HighQuality reports whether the high quality path is requested
func (c *CLI) HighQuality() bool {
	return !c.Standard
}

// Selector builds the format selector from the parsed flags
func (c *CLI) Selector() format.Selector {
	return format.Selector{
		Languages:   format.ParseLanguages(c.Langs),
		MaxHeight:   clampHeight(c.MaxHeight),
		ExactHeight: clampHeight(c.ExactHeight),
		PreferMP4:   true,
	}
}

// Options builds the download service options. An empty directory resolves
// to the application downloads directory.
func (c *CLI) Options() (download.Options, error) {
	dir := c.Dir
	if dir == "" {
		var err error
		dir, err = platform.GetAppDownloadsDir()
		if err != nil {
			return download.Options{}, fmt.Errorf("failed to resolve download dir: %w", err)
		}
	}
	return download.Options{
		DownloadDir: dir,
		Selector:    c.Selector(),
		MergeFormat: download.DefaultMergeFormat,
	}, nil
}
