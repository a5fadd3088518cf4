package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kkdai/youtube/v2"

	"github.com/ytget/yt-langdl/internal/download"
	"github.com/ytget/yt-langdl/internal/model"
)

// Container constants
const (
	MimeMP4        = "video/mp4"
	DefaultExt     = "mp4"
	mimeParamSep   = ";"
	mimeSubtypeSep = "/"
	filePerm       = 0644
)

// ErrNoProgressiveStream is returned when a video offers no combined audio+video format
var ErrNoProgressiveStream = errors.New("no progressive stream available")

// YouTubeClient implements download.StandardBackend with kkdai/youtube
type YouTubeClient struct {
	client *youtube.Client

	mu     sync.Mutex
	videos map[string]*youtube.Video // by video ID, filled by FetchMetadata
}

// NewYouTubeClient creates a client with the library's default HTTP client
func NewYouTubeClient() *YouTubeClient {
	return &YouTubeClient{
		client: &youtube.Client{},
		videos: make(map[string]*youtube.Video),
	}
}

// FetchMetadata resolves the title and formats of url
func (c *YouTubeClient) FetchMetadata(ctx context.Context, url string) (*model.VideoInfo, error) {
	video, err := c.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching video metadata: %w", err)
	}

	c.mu.Lock()
	c.videos[video.ID] = video
	c.mu.Unlock()

	return &model.VideoInfo{
		ID:       video.ID,
		URL:      url,
		Title:    video.Title,
		Author:   video.Author,
		Duration: video.Duration,
	}, nil
}

// DownloadProgressive writes the best combined stream to dir/baseName.<ext>
func (c *YouTubeClient) DownloadProgressive(ctx context.Context, info *model.VideoInfo, dir, baseName string, progress download.ByteProgressFunc) (string, error) {
	video, err := c.video(ctx, info)
	if err != nil {
		return "", err
	}

	format, err := pickProgressive(video.Formats)
	if err != nil {
		return "", err
	}

	stream, size, err := c.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", fmt.Errorf("opening stream: %w", err)
	}
	defer stream.Close()

	path := filepath.Join(dir, baseName+"."+extFromMime(format.MimeType))
	if err := writeStream(path, stream, size, progress); err != nil {
		return "", err
	}
	return path, nil
}

// video returns the cached video for info, fetching it again when missing
func (c *YouTubeClient) video(ctx context.Context, info *model.VideoInfo) (*youtube.Video, error) {
	c.mu.Lock()
	video, ok := c.videos[info.ID]
	delete(c.videos, info.ID)
	c.mu.Unlock()
	if ok {
		return video, nil
	}

	video, err := c.client.GetVideoContext(ctx, info.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching video metadata: %w", err)
	}
	return video, nil
}

// pickProgressive chooses the tallest format carrying both audio and video,
// preferring mp4 on ties.
func pickProgressive(formats youtube.FormatList) (*youtube.Format, error) {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if f.AudioChannels <= 0 || f.Height <= 0 {
			continue
		}
		if best == nil || f.Height > best.Height ||
			(f.Height == best.Height && isMP4(f.MimeType) && !isMP4(best.MimeType)) {
			best = f
		}
	}
	if best == nil {
		return nil, ErrNoProgressiveStream
	}
	return best, nil
}

func isMP4(mime string) bool {
	return strings.HasPrefix(mime, MimeMP4)
}

// extFromMime maps "video/webm; codecs=..." to "webm"
func extFromMime(mime string) string {
	base := strings.TrimSpace(strings.SplitN(mime, mimeParamSep, 2)[0])
	parts := strings.SplitN(base, mimeSubtypeSep, 2)
	if len(parts) != 2 || parts[1] == "" {
		return DefaultExt
	}
	return parts[1]
}

// writeStream copies r to path, reporting progress, and removes the partial
// file on failure.
func writeStream(path string, r io.Reader, size int64, progress download.ByteProgressFunc) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	pw := &progressWriter{total: size, report: progress}
	_, copyErr := io.Copy(f, io.TeeReader(r, pw))
	closeErr := f.Close()

	if copyErr != nil || closeErr != nil {
		os.Remove(path)
		if copyErr != nil {
			return fmt.Errorf("writing stream: %w", copyErr)
		}
		return fmt.Errorf("closing output file: %w", closeErr)
	}
	return nil
}

// progressWriter counts bytes flowing through a TeeReader
type progressWriter struct {
	downloaded int64
	total      int64
	report     download.ByteProgressFunc
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	pw.downloaded += int64(len(p))
	if pw.report != nil {
		pw.report(pw.downloaded, pw.total)
	}
	return len(p), nil
}

var _ download.StandardBackend = (*YouTubeClient)(nil)
