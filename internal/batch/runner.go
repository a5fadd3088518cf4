package batch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ytget/yt-langdl/internal/backend"
	"github.com/ytget/yt-langdl/internal/download"
	"github.com/ytget/yt-langdl/internal/history"
	"github.com/ytget/yt-langdl/internal/model"
	"github.com/ytget/yt-langdl/internal/mux"
	"github.com/ytget/yt-langdl/internal/platform"
)

// Config selects the optional collaborators
type Config struct {
	FFmpegPath   string // empty means auto-detect
	InstallYTDLP bool   // fetch yt-dlp when it is missing
	HistoryPath  string // empty means history.DefaultPath
	NoHistory    bool
	NoPlaylist   bool

	PlaylistTimeout time.Duration // zero keeps the expander default
}

// Expander rewrites playlist URLs into video URLs
type Expander interface {
	Expand(ctx context.Context, urls []string, logf func(string)) []string
}

// Runner runs download requests with a fixed set of collaborators
type Runner struct {
	standard download.StandardBackend
	caps     download.Capabilities
	expander Expander
	recorder download.Recorder
	logger   *zap.Logger
	closers  []func() error
}

// NewRunner creates a runner from explicit collaborators. expander and
// recorder may be nil.
func NewRunner(standard download.StandardBackend, caps download.Capabilities, expander Expander, recorder download.Recorder, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		standard: standard,
		caps:     caps,
		expander: expander,
		recorder: recorder,
		logger:   logger,
	}
}

// Setup detects the available tools and opens the history store. Missing
// tools are not errors: they only disable the high quality path.
func Setup(ctx context.Context, cfg Config, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	caps := detectCapabilities(ctx, cfg, toolProbe{
		locate:   mux.Locate,
		locateYT: backend.LocateYTDLP,
		install:  backend.InstallYTDLP,
		extended: func() download.ExtendedBackend { return backend.NewYTDLPBackend() },
	}, logger)

	var expander Expander
	if !cfg.NoPlaylist {
		pe := platform.NewPlaylistExpander()
		if cfg.PlaylistTimeout > 0 {
			pe.SetTimeout(cfg.PlaylistTimeout)
		}
		expander = pe
	}

	r := NewRunner(backend.NewYouTubeClient(), caps, expander, nil, logger)

	if !cfg.NoHistory {
		store, err := history.OpenDefault(cfg.HistoryPath)
		if err != nil {
			return nil, err
		}
		r.recorder = store
		r.closers = append(r.closers, store.Close)
	}
	return r, nil
}

// Capabilities returns the detected high quality collaborators
func (r *Runner) Capabilities() download.Capabilities {
	return r.caps
}

// Run expands playlists and runs the request through a new download.Service
func (r *Runner) Run(ctx context.Context, opts download.Options, req model.DownloadRequest, obs download.Observer) model.BatchSummary {
	if obs == nil {
		obs = download.NopObserver{}
	}
	obs = download.MultiObserver{obs, download.LogObserver{Logger: r.logger}}

	urls := req.URLs
	if r.expander != nil {
		urls = r.expander.Expand(ctx, urls, obs.Log)
	}

	service := download.NewService(opts, r.standard, r.caps, obs, r.logger)
	if r.recorder != nil {
		service.SetRecorder(r.recorder)
	}
	return service.RunDownloads(ctx, urls, req.HighQuality)
}

// Close releases the history store
func (r *Runner) Close() error {
	var first error
	for _, closeFn := range r.closers {
		if err := closeFn(); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

// toolProbe holds the detection hooks so tests can replace them
type toolProbe struct {
	locate   func(override string) (*mux.Tool, error)
	locateYT func(ctx context.Context) (string, error)
	install  func(ctx context.Context) error
	extended func() download.ExtendedBackend
}

func detectCapabilities(ctx context.Context, cfg Config, probe toolProbe, logger *zap.Logger) download.Capabilities {
	var caps download.Capabilities

	tool, err := probe.locate(cfg.FFmpegPath)
	if err != nil {
		logger.Warn("ffmpeg not found", zap.String("override", cfg.FFmpegPath), zap.Error(err))
	} else {
		caps.Mux = tool
		if version, verr := tool.Version(ctx); verr == nil {
			logger.Info("ffmpeg found", zap.String("path", tool.FFmpegPath), zap.String("version", version))
		} else {
			logger.Debug("ffmpeg version unavailable", zap.String("path", tool.FFmpegPath), zap.Error(verr))
		}
	}

	available := false
	if path, err := probe.locateYT(ctx); err == nil {
		logger.Info("yt-dlp found", zap.String("path", path))
		available = true
	} else {
		logger.Debug("yt-dlp lookup failed", zap.Error(err))
	}
	if !available && cfg.InstallYTDLP {
		if err := probe.install(ctx); err != nil {
			logger.Warn("yt-dlp install failed", zap.Error(err))
		} else {
			logger.Info("yt-dlp installed")
			available = true
		}
	}
	if available {
		caps.Extended = probe.extended()
	} else {
		logger.Warn("yt-dlp not available")
	}
	return caps
}
