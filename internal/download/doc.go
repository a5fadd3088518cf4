package download

// Package download implements the batch orchestrator: per URL it resolves the
// title, then runs either the high quality split-stream path (yt-dlp via
// github.com/lrstanley/go-ytdlp, merged by ffmpeg) or the progressive path, and
// falls back from the former to the latter on any failure. Progress and log
// lines are reported through an Observer.
