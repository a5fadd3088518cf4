package platform

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/ytget/yt-langdl/internal/model"
	"github.com/ytget/ytdlp/v2"
)

// Timeout constants
const (
	DefaultParseTimeout = 60 * time.Second
)

// URL parameters
const (
	PlaylistQueryParam = "list"
	VideoQueryParam    = "v"
)

// URL templates
const (
	YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// Log lines
const (
	MsgPlaylistExpandedFmt = "📋 playlist %s expanded to %d videos"
	MsgPlaylistFailedFmt   = "⚠️ playlist %s could not be expanded, keeping URL as is: %v"
)

// playlistFetchFunc returns the videos of a playlist ID in order
type playlistFetchFunc func(ctx context.Context, playlistID string) ([]*model.PlaylistVideo, error)

// PlaylistExpander turns playlist URLs into the URLs of their videos
type PlaylistExpander struct {
	timeout time.Duration
	fetch   playlistFetchFunc
}

// NewPlaylistExpander creates an expander backed by github.com/ytget/ytdlp
func NewPlaylistExpander() *PlaylistExpander {
	return &PlaylistExpander{
		timeout: DefaultParseTimeout,
		fetch:   fetchPlaylistItems,
	}
}

// SetTimeout sets the timeout for a single playlist fetch
func (p *PlaylistExpander) SetTimeout(timeout time.Duration) {
	p.timeout = timeout
}

// IsPlaylistURL reports whether raw names a playlist rather than a single
// video. A watch URL that also carries list= is treated as a single video.
func IsPlaylistURL(raw string) bool {
	return ExtractPlaylistID(raw) != ""
}

// ExtractPlaylistID returns the list= value of a playlist URL, or "" when raw
// is not a playlist URL.
func ExtractPlaylistID(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	q := u.Query()
	if q.Get(VideoQueryParam) != "" {
		return ""
	}
	return q.Get(PlaylistQueryParam)
}

// ParsePlaylist fetches the videos of a playlist URL
func (p *PlaylistExpander) ParsePlaylist(ctx context.Context, raw string) (*model.Playlist, error) {
	playlistID := ExtractPlaylistID(raw)
	if playlistID == "" {
		return nil, fmt.Errorf("invalid playlist URL: %s", raw)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	videos, err := p.fetch(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}

	return &model.Playlist{
		ID:     playlistID,
		URL:    raw,
		Videos: videos,
	}, nil
}

// Expand replaces every playlist URL with its video URLs, keeping submission
// order. A playlist that cannot be fetched is kept as a single URL. logf may be
// nil.
func (p *PlaylistExpander) Expand(ctx context.Context, urls []string, logf func(string)) []string {
	if logf == nil {
		logf = func(string) {}
	}

	expanded := make([]string, 0, len(urls))
	for _, raw := range urls {
		if !IsPlaylistURL(raw) {
			expanded = append(expanded, raw)
			continue
		}

		playlist, err := p.ParsePlaylist(ctx, raw)
		if err != nil || len(playlist.URLs()) == 0 {
			if err == nil {
				err = fmt.Errorf("playlist is empty")
			}
			logf(fmt.Sprintf(MsgPlaylistFailedFmt, raw, err))
			expanded = append(expanded, raw)
			continue
		}

		logf(fmt.Sprintf(MsgPlaylistExpandedFmt, playlist.ID, len(playlist.Videos)))
		expanded = append(expanded, playlist.URLs()...)
	}
	return expanded
}

// fetchPlaylistItems lists playlist entries with the ytdlp library
func fetchPlaylistItems(ctx context.Context, playlistID string) ([]*model.PlaylistVideo, error) {
	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, err
	}

	videos := make([]*model.PlaylistVideo, 0, len(items))
	for _, it := range items {
		videos = append(videos, &model.PlaylistVideo{
			ID:    it.VideoID,
			Title: it.Title,
			URL:   fmt.Sprintf(YouTubeVideoURLTemplate, it.VideoID),
		})
	}
	return videos, nil
}
