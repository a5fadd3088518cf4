package config

import (
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"

	"github.com/ytget/yt-langdl/internal/download"
	"github.com/ytget/yt-langdl/internal/format"
	"github.com/ytget/yt-langdl/internal/platform"
)

// Settings keys for Fyne preferences
const (
	KeyDownloadDir        = "download_directory"
	KeyHighQuality        = "high_quality"
	KeyAudioLanguages     = "audio_languages"
	KeyMaxHeight          = "max_height"
	KeyExactHeight        = "exact_height"
	KeyFFmpegPath         = "ffmpeg_path"
	KeyHistoryPath        = "history_path"
	KeyAutoOpenOnComplete = "auto_open_on_complete"
	KeyLanguage           = "app_language"
)

// Default values
const (
	DefaultHighQuality        = true
	DefaultAutoOpenOnComplete = false
	DefaultLanguage           = "system"
	MaxHeightLimit            = 4320
	fallbackDownloadDir       = "/tmp/youtube_downloads"
)

// DefaultAudioLanguages is the comma separated form of format.DefaultLanguages
var DefaultAudioLanguages = strings.Join(format.DefaultLanguages, ",")

// Settings manages application configuration
type Settings struct {
	app fyne.App
}

// NewSettings creates a new settings manager
func NewSettings(app fyne.App) *Settings {
	return &Settings{app: app}
}

// GetDownloadDirectory returns the configured download directory
func (s *Settings) GetDownloadDirectory() string {
	dir := s.app.Preferences().String(KeyDownloadDir)
	if dir == "" {
		defaultDir, err := platform.GetAppDownloadsDir()
		if err != nil {
			defaultDir = filepath.FromSlash(fallbackDownloadDir)
		}
		s.SetDownloadDirectory(defaultDir)
		return defaultDir
	}
	return dir
}

// SetDownloadDirectory sets the download directory
func (s *Settings) SetDownloadDirectory(dir string) {
	s.app.Preferences().SetString(KeyDownloadDir, dir)
}

// GetHighQuality returns whether the high quality checkbox starts checked
func (s *Settings) GetHighQuality() bool {
	return s.app.Preferences().BoolWithFallback(KeyHighQuality, DefaultHighQuality)
}

// SetHighQuality stores the high quality checkbox state
func (s *Settings) SetHighQuality(enabled bool) {
	s.app.Preferences().SetBool(KeyHighQuality, enabled)
}

// GetAudioLanguages returns the preferred audio languages in priority order
func (s *Settings) GetAudioLanguages() []string {
	csv := s.app.Preferences().String(KeyAudioLanguages)
	if strings.TrimSpace(csv) == "" {
		s.app.Preferences().SetString(KeyAudioLanguages, DefaultAudioLanguages)
		csv = DefaultAudioLanguages
	}
	return format.ParseLanguages(csv)
}

// SetAudioLanguages stores a comma separated language list. Blank input
// restores the default list.
func (s *Settings) SetAudioLanguages(csv string) {
	langs := format.ParseLanguages(csv)
	if len(langs) == 0 {
		csv = DefaultAudioLanguages
	} else {
		csv = strings.Join(langs, ",")
	}
	s.app.Preferences().SetString(KeyAudioLanguages, csv)
}

// GetMaxHeight returns the maximum video height, 0 meaning no limit
func (s *Settings) GetMaxHeight() int {
	return s.app.Preferences().IntWithFallback(KeyMaxHeight, format.DefaultMaxHeight)
}

// SetMaxHeight sets the maximum video height
func (s *Settings) SetMaxHeight(height int) {
	s.app.Preferences().SetInt(KeyMaxHeight, clampHeight(height))
}

// GetExactHeight returns the exact video height, 0 meaning unset
func (s *Settings) GetExactHeight() int {
	return s.app.Preferences().Int(KeyExactHeight)
}

// SetExactHeight sets the exact video height
func (s *Settings) SetExactHeight(height int) {
	s.app.Preferences().SetInt(KeyExactHeight, clampHeight(height))
}

// GetFFmpegPath returns the user supplied ffmpeg location, empty for auto-detect
func (s *Settings) GetFFmpegPath() string {
	return s.app.Preferences().String(KeyFFmpegPath)
}

// SetFFmpegPath sets the ffmpeg location
func (s *Settings) SetFFmpegPath(path string) {
	s.app.Preferences().SetString(KeyFFmpegPath, strings.TrimSpace(path))
}

// GetHistoryPath returns the history database path, empty for the default location
func (s *Settings) GetHistoryPath() string {
	return s.app.Preferences().String(KeyHistoryPath)
}

// SetHistoryPath sets the history database path
func (s *Settings) SetHistoryPath(path string) {
	s.app.Preferences().SetString(KeyHistoryPath, strings.TrimSpace(path))
}

// GetAutoOpenOnComplete returns whether to open the download folder after a batch
func (s *Settings) GetAutoOpenOnComplete() bool {
	return s.app.Preferences().BoolWithFallback(KeyAutoOpenOnComplete, DefaultAutoOpenOnComplete)
}

// SetAutoOpenOnComplete sets whether to open the download folder after a batch
func (s *Settings) SetAutoOpenOnComplete(open bool) {
	s.app.Preferences().SetBool(KeyAutoOpenOnComplete, open)
}

// GetLanguage returns the configured interface language
func (s *Settings) GetLanguage() string {
	return s.app.Preferences().StringWithFallback(KeyLanguage, DefaultLanguage)
}

// SetLanguage sets the interface language
func (s *Settings) SetLanguage(lang string) {
	s.app.Preferences().SetString(KeyLanguage, lang)
}

// Selector builds the format selector from the stored preferences
func (s *Settings) Selector() format.Selector {
	return format.Selector{
		Languages:   s.GetAudioLanguages(),
		MaxHeight:   s.GetMaxHeight(),
		ExactHeight: s.GetExactHeight(),
		PreferMP4:   true,
	}
}

// Options builds the download service options from the stored preferences
func (s *Settings) Options() download.Options {
	return download.Options{
		DownloadDir: s.GetDownloadDirectory(),
		Selector:    s.Selector(),
		MergeFormat: download.DefaultMergeFormat,
	}
}

func clampHeight(height int) int {
	if height < 0 {
		return 0
	}
	if height > MaxHeightLimit {
		return MaxHeightLimit
	}
	return height
}
