package mux

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// FFmpeg constants
const (
	FFmpegCommand  = "ffmpeg"
	FFprobeCommand = "ffprobe"

	// Bundled layout next to the executable: <exe dir>/ffmpeg/bin/ffmpeg(.exe)
	BundledDir    = "ffmpeg"
	BundledBinDir = "bin"

	WindowsExeSuffix = ".exe"

	FFprobeLogLevel     = "quiet"
	FFprobeOutputFormat = "json"
	VersionFlag         = "-version"

	DefaultProbeTimeout = 15 * time.Second
)

// ErrNotFound is returned when no ffmpeg binary can be located
var ErrNotFound = errors.New("ffmpeg not found")

// Tool is a located ffmpeg installation. FFprobePath may be empty when only
// ffmpeg is present; probing is then unavailable.
type Tool struct {
	FFmpegPath  string
	FFprobePath string
}

// StreamInfo summarises the streams of a media file
type StreamInfo struct {
	VideoCodec string
	AudioCodec string
	HasVideo   bool
	HasAudio   bool
}

// String renders the codecs for log lines
func (si *StreamInfo) String() string {
	video, audio := "none", "none"
	if si.HasVideo {
		video = si.VideoCodec
	}
	if si.HasAudio {
		audio = si.AudioCodec
	}
	return fmt.Sprintf("video=%s audio=%s", video, audio)
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
}

// Locate finds ffmpeg. An explicit override path is checked first, then the
// bundled directory next to the running executable, then PATH.
func Locate(override string) (*Tool, error) {
	var dirs []string
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Join(filepath.Dir(exe), BundledDir, BundledBinDir))
	}
	return locate(override, dirs, exec.LookPath)
}

// locate is Locate with injectable search dirs and PATH lookup
func locate(override string, dirs []string, lookPath func(string) (string, error)) (*Tool, error) {
	if override != "" {
		if !isExecutableFile(override) {
			return nil, fmt.Errorf("%w: %s is not an executable file", ErrNotFound, override)
		}
		return &Tool{
			FFmpegPath:  override,
			FFprobePath: siblingProbe(filepath.Dir(override), lookPath),
		}, nil
	}

	for _, dir := range dirs {
		candidate := filepath.Join(dir, binaryName(FFmpegCommand))
		if isExecutableFile(candidate) {
			return &Tool{
				FFmpegPath:  candidate,
				FFprobePath: siblingProbe(dir, lookPath),
			}, nil
		}
	}

	path, err := lookPath(FFmpegCommand)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	probe, _ := lookPath(FFprobeCommand)
	return &Tool{FFmpegPath: path, FFprobePath: probe}, nil
}

// siblingProbe prefers an ffprobe in dir and falls back to PATH
func siblingProbe(dir string, lookPath func(string) (string, error)) string {
	candidate := filepath.Join(dir, binaryName(FFprobeCommand))
	if isExecutableFile(candidate) {
		return candidate
	}
	if path, err := lookPath(FFprobeCommand); err == nil {
		return path
	}
	return ""
}

func binaryName(base string) string {
	if runtime.GOOS == "windows" {
		return base + WindowsExeSuffix
	}
	return base
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0111 != 0
}

// Version returns the first line of `ffmpeg -version`
func (t *Tool) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, t.FFmpegPath, VersionFlag).Output()
	if err != nil {
		return "", fmt.Errorf("failed to run ffmpeg: %w", err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	return "", fmt.Errorf("empty ffmpeg version output")
}

// BuildProbeArgs builds the ffprobe arguments for a stream listing
func BuildProbeArgs(path string) []string {
	return []string{
		"-v", FFprobeLogLevel,
		"-print_format", FFprobeOutputFormat,
		"-show_streams",
		path,
	}
}

// Probe lists the codecs of the first video and audio stream in path
func (t *Tool) Probe(ctx context.Context, path string) (*StreamInfo, error) {
	if t.FFprobePath == "" {
		return nil, fmt.Errorf("ffprobe not available")
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultProbeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, t.FFprobePath, BuildProbeArgs(path)...).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run ffprobe: %w", err)
	}
	return parseProbeOutput(out)
}

func parseProbeOutput(data []byte) (*StreamInfo, error) {
	var result ffprobeOutput
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &StreamInfo{}
	for _, s := range result.Streams {
		switch strings.ToLower(s.CodecType) {
		case "video":
			if !info.HasVideo {
				info.VideoCodec = s.CodecName
				info.HasVideo = true
			}
		case "audio":
			if !info.HasAudio {
				info.AudioCodec = s.CodecName
				info.HasAudio = true
			}
		}
	}
	return info, nil
}
