package format

// Package format builds yt-dlp format selector expressions that prefer a list
// of audio languages and cap or pin the video height. The expression falls back
// from mp4 video to any container and finally to the best combined stream.
