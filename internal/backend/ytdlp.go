package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/ytget/yt-langdl/internal/download"
	"github.com/ytget/yt-langdl/internal/model"
)

// yt-dlp constants
const (
	DefaultProbeTimeout    = 30 * time.Second
	ProgressFrequency      = 250 * time.Millisecond
	noCodec                = "none"
	templateExtPlaceholder = "%(ext)s"
)

// YTDLPBackend implements download.ExtendedBackend on top of the yt-dlp CLI
type YTDLPBackend struct {
	probeTimeout time.Duration
}

// NewYTDLPBackend creates a new yt-dlp backend
func NewYTDLPBackend() *YTDLPBackend {
	return &YTDLPBackend{probeTimeout: DefaultProbeTimeout}
}

// LocateYTDLP resolves the yt-dlp executable the way go-ytdlp does at run
// time: its own cache first, then PATH. Nothing is downloaded.
func LocateYTDLP(ctx context.Context) (string, error) {
	resolved, err := ytdlp.Install(ctx, &ytdlp.InstallOptions{
		DisableDownload:      true,
		AllowVersionMismatch: true,
	})
	if err != nil {
		return "", fmt.Errorf("yt-dlp not found: %w", err)
	}
	return resolved.Executable, nil
}

// InstallYTDLP downloads a yt-dlp build into the go-ytdlp cache
func InstallYTDLP(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	return nil
}

type probeInfo struct {
	Formats []probeFormat `json:"formats"`
}

type probeFormat struct {
	ACodec   string `json:"acodec"`
	Language string `json:"language"`
}

// ProbeAudioLanguages lists the distinct languages of audio-bearing formats
func (b *YTDLPBackend) ProbeAudioLanguages(ctx context.Context, url string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.probeTimeout)
	defer cancel()

	res, err := ytdlp.New().
		SkipDownload().
		DumpJSON().
		NoWarnings().
		NoPlaylist().
		Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to probe formats: %w", err)
	}
	return parseAudioLanguages([]byte(res.Stdout))
}

func parseAudioLanguages(data []byte) ([]string, error) {
	var info probeInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp info: %w", err)
	}

	seen := make(map[string]bool)
	var langs []string
	for _, f := range info.Formats {
		if f.ACodec == "" || f.ACodec == noCodec || f.Language == "" || seen[f.Language] {
			continue
		}
		seen[f.Language] = true
		langs = append(langs, f.Language)
	}
	sort.Strings(langs)
	return langs, nil
}

// Download runs a selector-driven download and merge. The returned path is the
// output template resolved with the merge container.
func (b *YTDLPBackend) Download(ctx context.Context, req download.ExtendedRequest) (string, error) {
	dl := ytdlp.New().
		Format(req.Format).
		Output(req.OutputTemplate).
		MergeOutputFormat(req.MergeFormat).
		FFmpegLocation(req.FFmpegPath).
		ForceOverwrites().
		NoPlaylist().
		NoWarnings()
	if req.WindowsFilenames {
		dl = dl.WindowsFilenames()
	}

	if req.Hook != nil {
		dl.ProgressFunc(ProgressFrequency, func(update ytdlp.ProgressUpdate) {
			if ev, ok := hookEvent(update); ok {
				req.Hook(ev)
			}
		})
	}

	if _, err := dl.Run(ctx, req.URL); err != nil {
		return "", fmt.Errorf("yt-dlp failed: %w", err)
	}
	return resolveTemplate(req.OutputTemplate, req.MergeFormat), nil
}

// hookEvent converts a yt-dlp progress update to a hook event
func hookEvent(update ytdlp.ProgressUpdate) (model.HookEvent, bool) {
	switch update.Status {
	case ytdlp.ProgressStatusDownloading:
		return model.HookEvent{
			Status:             model.HookStatusDownloading,
			DownloadedBytes:    int64(update.DownloadedBytes),
			TotalBytes:         int64(update.TotalBytes),
			TotalBytesEstimate: approxSize(update.Info),
		}, true
	case ytdlp.ProgressStatusFinished:
		return model.HookEvent{Status: model.HookStatusFinished}, true
	default:
		return model.HookEvent{}, false
	}
}

// approxSize returns the extractor's size estimate for the format being
// downloaded, or 0 when it is unknown.
func approxSize(info *ytdlp.ExtractedInfo) int64 {
	if info == nil || info.ExtractedFormat == nil || info.FileSizeApprox == nil {
		return 0
	}
	return int64(*info.FileSizeApprox)
}

// resolveTemplate substitutes the trailing extension placeholder and
// unescapes %% in the name part.
func resolveTemplate(template, ext string) string {
	name := template
	if idx := strings.LastIndex(template, templateExtPlaceholder); idx >= 0 {
		name = template[:idx]
		ext = ext + template[idx+len(templateExtPlaceholder):]
	}
	return strings.ReplaceAll(name, "%%", "%") + ext
}

var _ download.ExtendedBackend = (*YTDLPBackend)(nil)
