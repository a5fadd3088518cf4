package download

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/ytget/yt-langdl/internal/format"
	"github.com/ytget/yt-langdl/internal/model"
	"github.com/ytget/yt-langdl/internal/platform"
)

// Defaults
const (
	DefaultMergeFormat = "mp4"
	FallbackBaseName   = "video"
	templateExtSuffix  = ".%(ext)s"
)

// User-facing log lines
const (
	MsgNoFFmpeg          = "ffmpeg not found: cannot merge 1080p streams, using progressive download instead"
	MsgNoExtended        = "yt-dlp not available: cannot force audio language, using progressive download instead"
	MsgWarnPrefix        = "⚠️ "
	MsgReasonPrefix      = "   - "
	MsgStartFmt          = "▶️ '%s' download started..."
	MsgProgressiveFmt    = "   - '%s' downloading highest resolution progressive stream..."
	MsgProgressStartFmt  = "'%s' downloading... 0.0%%"
	MsgCurrentFileFmt    = "current file: %.1f%%"
	MsgDoneFmt           = "✔️ done: %s"
	MsgDoneProgress      = "done"
	MsgLanguagesFmt      = "   - available audio languages: %s"
	MsgNoLanguages       = "   - audio language metadata unavailable (single track or hidden); trying preferred language chain"
	MsgFallbackFmt       = "   - high quality path failed: %v. falling back to progressive download"
	MsgMergedStreamsFmt  = "   - merged streams: %s"
	MsgHookDownloadFmt   = "downloading... %s / %s"
	MsgFinalizing        = "merging / finalizing..."
	MsgVideoFailedFmt    = "❌ '%s' failed: %v"
	MsgAllDone           = "✅ all downloads finished."
	MsgDownloadDirErrFmt = "⚠️ cannot create download directory %s: %v"
)

// ErrPanic marks a recovered panic from a backend
var ErrPanic = errors.New("unexpected panic")

// Options configures a Service
type Options struct {
	DownloadDir string
	Selector    format.Selector
	MergeFormat string
}

// Service runs download batches sequentially
type Service struct {
	opts     Options
	standard StandardBackend
	caps     Capabilities
	observer Observer
	logger   *zap.Logger
	recorder Recorder
}

// NewService creates a new download service. A nil observer or logger is
// replaced by a no-op implementation.
func NewService(opts Options, standard StandardBackend, caps Capabilities, observer Observer, logger *zap.Logger) *Service {
	if opts.MergeFormat == "" {
		opts.MergeFormat = DefaultMergeFormat
	}
	if observer == nil {
		observer = NopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		opts:     opts,
		standard: standard,
		caps:     caps,
		observer: observer,
		logger:   logger,
	}
}

// SetRecorder sets the sink for finished tasks
func (s *Service) SetRecorder(r Recorder) {
	s.recorder = r
}

// RunDownloads processes urls in order, one at a time. A failing URL never
// stops the batch: overall progress advances after every URL and Complete is
// called exactly once at the end.
func (s *Service) RunDownloads(ctx context.Context, urls []string, highQuality bool) model.BatchSummary {
	var summary model.BatchSummary

	if err := platform.CreateDirectoryIfNotExists(s.opts.DownloadDir); err != nil {
		s.observer.Log(fmt.Sprintf(MsgDownloadDirErrFmt, s.opts.DownloadDir, err))
		s.logger.Error("failed to ensure download dir", zap.String("dir", s.opts.DownloadDir), zap.Error(err))
	}

	if highQuality {
		for _, reason := range s.caps.Reasons() {
			s.observer.Log(MsgWarnPrefix + reason)
		}
	}

	total := len(urls)
	s.logger.Info("batch started", zap.Int("total", total), zap.Bool("high_quality", highQuality))

	for idx, url := range urls {
		task := s.processURL(ctx, url, highQuality)
		summary.Add(task)
		s.observer.OverallProgress(idx+1, total)
	}

	s.logger.Info("batch finished",
		zap.Int("completed", summary.Completed),
		zap.Int("failed", summary.Failed),
		zap.Int("fell_back", summary.FellBack),
	)
	s.observer.Log(MsgAllDone)
	s.observer.Complete()
	return summary
}

// processURL runs one URL to a terminal state and records it
func (s *Service) processURL(ctx context.Context, url string, highQuality bool) *model.DownloadTask {
	task := model.NewDownloadTask(url)

	err := s.safeDownload(ctx, task, highQuality)
	task.Finish(err)
	if err != nil {
		s.observer.Log(fmt.Sprintf(MsgVideoFailedFmt, url, err))
		s.logger.Error("download failed",
			zap.String("url", url),
			zap.String("strategy", task.Strategy.String()),
			zap.Error(err),
		)
	} else {
		s.logger.Info("download completed",
			zap.String("url", url),
			zap.String("strategy", task.Strategy.String()),
			zap.Bool("fell_back", task.FellBack),
			zap.String("path", task.OutputPath),
		)
	}

	if s.recorder != nil {
		if rerr := s.recorder.Record(ctx, task); rerr != nil {
			s.logger.Warn("failed to record task", zap.String("task", task.ID), zap.Error(rerr))
		}
	}
	return task
}

// safeDownload converts backend panics into errors
func (s *Service) safeDownload(ctx context.Context, task *model.DownloadTask, highQuality bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return s.downloadVideo(ctx, task, highQuality)
}

// downloadVideo resolves the title and picks the download strategy
func (s *Service) downloadVideo(ctx context.Context, task *model.DownloadTask, highQuality bool) error {
	task.Status = model.TaskStatusFetchingMetadata
	info, err := s.standard.FetchMetadata(ctx, task.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch metadata: %w", err)
	}

	task.Title = baseName(info)
	s.observer.Log(fmt.Sprintf(MsgStartFmt, task.Title))

	if highQuality && s.caps.HighQuality() {
		task.Strategy = model.StrategyHighQuality
		return s.downloadHighQuality(ctx, task)
	}

	if highQuality {
		for _, reason := range s.caps.Reasons() {
			s.observer.Log(MsgReasonPrefix + reason)
		}
	}
	return s.downloadStandard(ctx, task, info)
}

// downloadStandard fetches the highest resolution progressive stream
func (s *Service) downloadStandard(ctx context.Context, task *model.DownloadTask, info *model.VideoInfo) error {
	task.Status = model.TaskStatusDownloading
	s.observer.Log(fmt.Sprintf(MsgProgressiveFmt, task.Title))
	s.observer.CurrentProgress(0, fmt.Sprintf(MsgProgressStartFmt, task.Title))

	path, err := s.standard.DownloadProgressive(ctx, info, s.opts.DownloadDir, task.Title, s.byteProgress)
	if err != nil {
		return fmt.Errorf("progressive download failed: %w", err)
	}

	task.OutputPath = path
	s.observer.CurrentProgress(1, MsgDoneProgress)
	s.observer.Log(fmt.Sprintf(MsgDoneFmt, path))
	return nil
}

// downloadHighQuality runs the split-stream path and falls back to the
// progressive path on any failure.
func (s *Service) downloadHighQuality(ctx context.Context, task *model.DownloadTask) error {
	task.Status = model.TaskStatusDownloading
	s.logAudioLanguages(ctx, task.URL)

	selector := s.opts.Selector.Build()
	s.logger.Debug("format selector", zap.String("url", task.URL), zap.String("format", selector))

	req := ExtendedRequest{
		URL:              task.URL,
		Format:           selector,
		OutputTemplate:   escapeTemplate(filepath.Join(s.opts.DownloadDir, task.Title)) + templateExtSuffix,
		MergeFormat:      s.opts.MergeFormat,
		FFmpegPath:       s.caps.FFmpegPath(),
		WindowsFilenames: true,
		Hook:             s.hookProgress,
	}

	path, err := s.runExtended(ctx, req)
	if err != nil {
		return s.fallback(ctx, task, err)
	}
	if path == "" {
		path = filepath.Join(s.opts.DownloadDir, task.Title+"."+s.opts.MergeFormat)
	}

	task.OutputPath = path
	s.verifyOutput(ctx, path)
	s.observer.Log(fmt.Sprintf(MsgDoneFmt, path))
	return nil
}

// runExtended calls the extended backend, converting panics into errors so
// the fallback always runs.
func (s *Service) runExtended(ctx context.Context, req ExtendedRequest) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return s.caps.Extended.Download(ctx, req)
}

// fallback retries the same URL on the progressive path
func (s *Service) fallback(ctx context.Context, task *model.DownloadTask, cause error) error {
	task.FellBack = true
	task.Status = model.TaskStatusFallingBack
	s.observer.Log(fmt.Sprintf(MsgFallbackFmt, cause))
	s.logger.Warn("high quality download failed, falling back",
		zap.String("url", task.URL),
		zap.Error(cause),
	)

	info, err := s.standard.FetchMetadata(ctx, task.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch metadata for fallback (high quality error: %v): %w", cause, err)
	}
	return s.downloadStandard(ctx, task, info)
}

// logAudioLanguages reports the audio languages offered by the video. It is
// informational only; failures never abort the download.
func (s *Service) logAudioLanguages(ctx context.Context, url string) {
	langs, err := s.caps.Extended.ProbeAudioLanguages(ctx, url)
	if err != nil {
		s.logger.Debug("audio language probe failed", zap.String("url", url), zap.Error(err))
	}
	if err != nil || len(langs) == 0 {
		s.observer.Log(MsgNoLanguages)
		return
	}
	s.observer.Log(fmt.Sprintf(MsgLanguagesFmt, strings.Join(langs, ", ")))
}

// verifyOutput logs the streams of the merged file when ffprobe is available
func (s *Service) verifyOutput(ctx context.Context, path string) {
	if s.caps.Mux == nil {
		return
	}
	info, err := s.caps.Mux.Probe(ctx, path)
	if err != nil {
		s.logger.Debug("output probe failed", zap.String("path", path), zap.Error(err))
		return
	}
	s.observer.Log(fmt.Sprintf(MsgMergedStreamsFmt, info))
}

// byteProgress forwards progressive stream progress when the size is known
func (s *Service) byteProgress(downloaded, total int64) {
	if total <= 0 {
		return
	}
	fraction := model.Clamp(float64(downloaded) / float64(total))
	s.observer.CurrentProgress(fraction, fmt.Sprintf(MsgCurrentFileFmt, fraction*100))
}

// hookProgress forwards extended backend hook events
func (s *Service) hookProgress(ev model.HookEvent) {
	if fraction, message, ok := HookProgress(ev); ok {
		s.observer.CurrentProgress(fraction, message)
	}
}

// HookProgress maps a backend hook event to a fraction and status line. While
// downloading the fraction is downloaded/total clamped to [0,1], with a total
// of 1 when the size is unknown. On finish the fraction is forced to 1 because
// merging has no progress signal of its own.
func HookProgress(ev model.HookEvent) (float64, string, bool) {
	switch ev.Status {
	case model.HookStatusDownloading:
		downloaded := max(ev.DownloadedBytes, 0)
		total := ev.Total()
		fraction := model.Clamp(float64(downloaded) / float64(total))
		return fraction, fmt.Sprintf(MsgHookDownloadFmt, humanize.Bytes(uint64(downloaded)), humanize.Bytes(uint64(total))), true
	case model.HookStatusFinished:
		return 1.0, MsgFinalizing, true
	default:
		return 0, "", false
	}
}

// baseName returns the sanitized file base name for a video
func baseName(info *model.VideoInfo) string {
	if name := platform.SanitizeFilename(info.Title); strings.TrimSpace(name) != "" {
		return name
	}
	if info.ID != "" {
		return platform.SanitizeFilename(info.ID)
	}
	return FallbackBaseName
}

// escapeTemplate protects literal percent signs in a path from yt-dlp template
// expansion
func escapeTemplate(name string) string {
	return strings.ReplaceAll(name, "%", "%%")
}
