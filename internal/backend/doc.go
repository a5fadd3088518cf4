package backend

// Package backend adapts the third-party download libraries to the
// download.StandardBackend and download.ExtendedBackend interfaces:
// github.com/kkdai/youtube/v2 for metadata and progressive streams, and
// github.com/lrstanley/go-ytdlp (the yt-dlp CLI) for selector-driven
// split-stream downloads merged by ffmpeg.
