package main

import (
	"context"
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"go.uber.org/zap"

	"github.com/ytget/yt-langdl/internal/batch"
	"github.com/ytget/yt-langdl/internal/config"
	"github.com/ytget/yt-langdl/internal/download"
	"github.com/ytget/yt-langdl/internal/logging"
	"github.com/ytget/yt-langdl/internal/model"
	"github.com/ytget/yt-langdl/internal/platform"
	"github.com/ytget/yt-langdl/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "com.ytget.yt-langdl"
	AppName = "YouTube Downloader"

	WindowWidth  = 960
	WindowHeight = 760

	EnvLogLevel = "YTL_LOG_LEVEL"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	logger, err := logging.New(os.Getenv(EnvLogLevel))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		logger = zap.NewNop()
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting", zap.String("app", AppName), zap.String("version", version))

	myApp := app.NewWithID(AppID)
	myApp.Settings().SetTheme(ui.NewAppTheme())

	myWindow := myApp.NewWindow(fmt.Sprintf("%s v%s", AppName, version))
	myWindow.Resize(fyne.NewSize(WindowWidth, WindowHeight))

	settings := config.NewSettings(myApp)
	if err := platform.CreateDirectoryIfNotExists(settings.GetDownloadDirectory()); err != nil {
		logger.Warn("failed to ensure downloads dir", zap.Error(err))
	}

	ui.NewRootUI(myWindow, myApp, settings, newBatchRunner(settings, logger), logger)

	myWindow.ShowAndRun()
}

// newBatchRunner re-reads the settings for every batch so changes made in the
// settings dialog apply to the next download.
func newBatchRunner(settings *config.Settings, logger *zap.Logger) ui.BatchRunner {
	return func(ctx context.Context, req model.DownloadRequest, obs download.Observer) model.BatchSummary {
		cfg := batch.Config{
			FFmpegPath:   settings.GetFFmpegPath(),
			InstallYTDLP: true,
			HistoryPath:  settings.GetHistoryPath(),
		}

		runner, err := batch.Setup(ctx, cfg, logger)
		if err != nil {
			logger.Warn("history unavailable, continuing without it", zap.Error(err))
			cfg.NoHistory = true
			runner, err = batch.Setup(ctx, cfg, logger)
		}
		if err != nil {
			obs.Log(fmt.Sprintf("❌ %v", err))
			obs.Complete()
			return model.BatchSummary{}
		}
		defer runner.Close()

		return runner.Run(ctx, settings.Options(), req, obs)
	}
}
