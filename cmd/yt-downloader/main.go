package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/ytget/yt-langdl/internal/batch"
	"github.com/ytget/yt-langdl/internal/config"
	"github.com/ytget/yt-langdl/internal/history"
	"github.com/ytget/yt-langdl/internal/logging"
	"github.com/ytget/yt-langdl/internal/model"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

// Exit codes
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitSetup  = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	var cli config.CLI
	parser := arg.MustParse(&cli)
	if err := cli.Validate(); err != nil {
		parser.Fail(err.Error())
	}

	logger, err := logging.New(cli.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitSetup
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("yt-downloader starting", zap.String("version", version))

	opts, err := cli.Options()
	if err != nil {
		logger.Error("invalid options", zap.Error(err))
		return ExitSetup
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cli.HistoryQuery() {
		return showHistory(ctx, cli, logger)
	}

	runner, err := batch.Setup(ctx, batch.Config{
		FFmpegPath:   cli.FFmpeg,
		InstallYTDLP: cli.InstallYTDLP,
		HistoryPath:  cli.History,
		NoHistory:    cli.NoHistory,
		NoPlaylist:   cli.NoPlaylist,

		PlaylistTimeout: cli.PlaylistTimeout,
	}, logger)
	if err != nil {
		logger.Error("setup failed", zap.Error(err))
		return ExitSetup
	}
	defer runner.Close()

	started := time.Now()
	observer := newTerminalObserver(color.Output)
	summary := runner.Run(ctx, opts, model.DownloadRequest{
		URLs:        cli.URLs,
		HighQuality: cli.HighQuality(),
	}, observer)

	printSummary(summary, started)
	if summary.Failed > 0 {
		return ExitFailed
	}
	return ExitOK
}

func showHistory(ctx context.Context, cli config.CLI, logger *zap.Logger) int {
	store, err := history.OpenDefault(cli.History)
	if err != nil {
		logger.Error("history unavailable", zap.Error(err))
		return ExitSetup
	}
	defer store.Close()

	if err := printHistory(ctx, color.Output, store, cli.HistoryURL, cli.HistoryList); err != nil {
		logger.Error("history query failed", zap.Error(err))
		return ExitFailed
	}
	return ExitOK
}

func printSummary(summary model.BatchSummary, started time.Time) {
	line := fmt.Sprintf("%d/%d completed, %d failed, %d fell back to progressive (started %s)",
		summary.Completed, summary.Total, summary.Failed, summary.FellBack, humanize.Time(started))
	if summary.Failed > 0 {
		color.New(color.FgRed, color.Bold).Fprintln(color.Output, line)
		return
	}
	color.New(color.FgGreen, color.Bold).Fprintln(color.Output, line)
}
