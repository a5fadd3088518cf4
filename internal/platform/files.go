package platform

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"

	"golang.org/x/text/unicode/norm"
)

// Operating system constants
const (
	OSDarwin  = "darwin"
	OSWindows = "windows"
	OSLinux   = "linux"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// Command constants
const (
	OpenCommand     = "open"
	ExplorerCommand = "explorer"
	XDGOpenCommand  = "xdg-open"
)

// Download location
const (
	DownloadsDirName  = "Downloads"
	AppDownloadSubdir = "youtube_downloads"
)

// FilenamePlaceholder replaces every character that is illegal in file names
const FilenamePlaceholder = "_"

// File managers tried on Linux when xdg-open fails
var (
	LinuxFileManagers = []string{"nautilus", "dolphin", "thunar", "nemo", "pcmanfm"}
)

// illegalFilenameChars are rejected by Windows file systems; they are replaced
// on every platform so files can move between machines.
var illegalFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// SanitizeFilename NFC-normalises title (so decomposed Hangul and accents are
// stored composed) and replaces each illegal character independently.
func SanitizeFilename(title string) string {
	return illegalFilenameChars.ReplaceAllString(norm.NFC.String(title), FilenamePlaceholder)
}

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if dirPath == "" {
		return fmt.Errorf("directory path is empty")
	}
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// FileExists reports whether path exists and is a regular file
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// GetHomeDownloadsDir returns the standard Downloads directory for the user
func GetHomeDownloadsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, DownloadsDirName), nil
}

// GetAppDownloadsDir returns the per-user directory downloads are written to
func GetAppDownloadsDir() (string, error) {
	downloads, err := GetHomeDownloadsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(downloads, AppDownloadSubdir), nil
}

// OpenFolder opens dir in the system file manager
func OpenFolder(dir string) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return fmt.Errorf("folder does not exist: %w", err)
	}

	switch runtime.GOOS {
	case OSDarwin:
		return exec.Command(OpenCommand, absPath).Run()
	case OSWindows:
		return exec.Command(ExplorerCommand, absPath).Run()
	case OSLinux:
		return openFolderLinux(absPath)
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

// openFolderLinux tries xdg-open, then common file managers
func openFolderLinux(dir string) error {
	if err := exec.Command(XDGOpenCommand, dir).Run(); err == nil {
		return nil
	}

	for _, fm := range LinuxFileManagers {
		if _, err := exec.LookPath(fm); err == nil {
			return exec.Command(fm, dir).Run()
		}
	}

	return fmt.Errorf("no suitable file manager found")
}
