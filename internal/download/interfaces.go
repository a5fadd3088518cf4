package download

import (
	"context"

	"github.com/ytget/yt-langdl/internal/model"
)

// Observer receives batch events. Methods are called from the worker goroutine;
// implementations that own UI state must marshal onto their own thread.
type Observer interface {
	Log(message string)
	OverallProgress(completed, total int)
	CurrentProgress(fraction float64, message string)
	Complete()
}

// ByteProgressFunc reports transferred and total bytes. total is 0 when unknown.
type ByteProgressFunc func(downloaded, total int64)

// StandardBackend resolves metadata and downloads progressive streams
type StandardBackend interface {
	FetchMetadata(ctx context.Context, url string) (*model.VideoInfo, error)
	// DownloadProgressive writes the highest resolution audio+video stream to
	// dir/baseName.<ext> and returns the written path.
	DownloadProgressive(ctx context.Context, info *model.VideoInfo, dir, baseName string, progress ByteProgressFunc) (string, error)
}

// ExtendedRequest configures one split-stream download
type ExtendedRequest struct {
	URL              string
	Format           string // selector expression
	OutputTemplate   string // yt-dlp output template, e.g. /dir/title.%(ext)s
	MergeFormat      string
	FFmpegPath       string
	WindowsFilenames bool
	Hook             func(model.HookEvent)
}

// ExtendedBackend evaluates selector expressions and performs split-stream
// downloads that are merged by the external multiplexing tool.
type ExtendedBackend interface {
	ProbeAudioLanguages(ctx context.Context, url string) ([]string, error)
	Download(ctx context.Context, req ExtendedRequest) (string, error)
}

// Recorder persists finished tasks
type Recorder interface {
	Record(ctx context.Context, task *model.DownloadTask) error
}
