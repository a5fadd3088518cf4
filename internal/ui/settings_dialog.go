package ui

import (
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/yt-langdl/internal/config"
)

// Dialog sizing
const (
	SettingsDialogWidth  float32 = 520
	SettingsDialogHeight float32 = 460
)

// SettingsDialog represents the settings configuration dialog
type SettingsDialog struct {
	settings     *config.Settings
	window       fyne.Window
	localization *Localization
	onSaved      func()
	dialog       *dialog.ConfirmDialog

	downloadDirEntry *widget.Entry
	languagesEntry   *widget.Entry
	maxHeightEntry   *widget.Entry
	exactHeightEntry *widget.Entry
	ffmpegEntry      *widget.Entry
	autoOpenCheck    *widget.Check
}

// NewSettingsDialog creates a new settings dialog. onSaved may be nil.
func NewSettingsDialog(settings *config.Settings, window fyne.Window, localization *Localization, onSaved func()) *SettingsDialog {
	sd := &SettingsDialog{
		settings:     settings,
		window:       window,
		localization: localization,
		onSaved:      onSaved,
	}

	sd.createUI()
	return sd
}

// Show displays the settings dialog
func (sd *SettingsDialog) Show() {
	sd.loadCurrentSettings()
	sd.dialog.Show()
}

// createUI creates the settings dialog UI
func (sd *SettingsDialog) createUI() {
	t := sd.localization.GetText

	sd.downloadDirEntry = widget.NewEntry()
	browseDirBtn := widget.NewButton(t(KeyBrowse), sd.onBrowseDirectory)
	downloadDirRow := container.NewBorder(nil, nil, nil, browseDirBtn, sd.downloadDirEntry)

	sd.languagesEntry = widget.NewEntry()
	sd.languagesEntry.SetPlaceHolder(config.DefaultAudioLanguages)

	sd.maxHeightEntry = widget.NewEntry()
	sd.maxHeightEntry.SetPlaceHolder("1080")
	sd.maxHeightEntry.Validator = validateHeight

	sd.exactHeightEntry = widget.NewEntry()
	sd.exactHeightEntry.SetPlaceHolder("0")
	sd.exactHeightEntry.Validator = validateHeight

	sd.ffmpegEntry = widget.NewEntry()
	browseFFmpegBtn := widget.NewButton(t(KeyBrowse), sd.onBrowseFFmpeg)
	ffmpegRow := container.NewBorder(nil, nil, nil, browseFFmpegBtn, sd.ffmpegEntry)

	sd.autoOpenCheck = widget.NewCheck(t(KeyAutoOpen), nil)

	form := container.NewVBox(
		widget.NewLabel(t(KeyDownloadDirectory)),
		downloadDirRow,

		widget.NewLabel(t(KeyAudioLanguages)),
		sd.languagesEntry,

		widget.NewLabel(t(KeyMaxHeight)),
		sd.maxHeightEntry,

		widget.NewLabel(t(KeyExactHeight)),
		sd.exactHeightEntry,

		widget.NewLabel(t(KeyFFmpegPath)),
		ffmpegRow,

		widget.NewSeparator(),
		sd.autoOpenCheck,
	)

	sd.dialog = dialog.NewCustomConfirm(
		t(KeySettings),
		t(KeySave),
		t(KeyCancel),
		form,
		sd.onSave,
		sd.window,
	)

	sd.dialog.Resize(fyne.NewSize(SettingsDialogWidth, SettingsDialogHeight))
}

// loadCurrentSettings loads current settings into the UI
func (sd *SettingsDialog) loadCurrentSettings() {
	sd.downloadDirEntry.SetText(sd.settings.GetDownloadDirectory())
	sd.languagesEntry.SetText(strings.Join(sd.settings.GetAudioLanguages(), ","))
	sd.maxHeightEntry.SetText(strconv.Itoa(sd.settings.GetMaxHeight()))
	sd.exactHeightEntry.SetText(strconv.Itoa(sd.settings.GetExactHeight()))
	sd.ffmpegEntry.SetText(sd.settings.GetFFmpegPath())
	sd.autoOpenCheck.SetChecked(sd.settings.GetAutoOpenOnComplete())
}

// onBrowseDirectory handles directory browsing
func (sd *SettingsDialog) onBrowseDirectory() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		sd.downloadDirEntry.SetText(uri.Path())
	}, sd.window)
}

// onBrowseFFmpeg lets the user pick the ffmpeg binary
func (sd *SettingsDialog) onBrowseFFmpeg() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()
		sd.ffmpegEntry.SetText(reader.URI().Path())
	}, sd.window)
}

// onSave handles saving the settings
func (sd *SettingsDialog) onSave(confirmed bool) {
	if !confirmed {
		return
	}
	sd.apply()
	if sd.onSaved != nil {
		sd.onSaved()
	}
	dialog.ShowInformation(sd.localization.GetText(KeySettings), sd.localization.GetText(KeySettingsSaved), sd.window)
}

// apply writes the entry values to the settings. Invalid numbers are ignored.
func (sd *SettingsDialog) apply() {
	if dir := strings.TrimSpace(sd.downloadDirEntry.Text); dir != "" {
		sd.settings.SetDownloadDirectory(dir)
	}

	sd.settings.SetAudioLanguages(sd.languagesEntry.Text)

	if height, err := parseHeight(sd.maxHeightEntry.Text); err == nil {
		sd.settings.SetMaxHeight(height)
	}
	if height, err := parseHeight(sd.exactHeightEntry.Text); err == nil {
		sd.settings.SetExactHeight(height)
	}

	sd.settings.SetFFmpegPath(sd.ffmpegEntry.Text)
	sd.settings.SetAutoOpenOnComplete(sd.autoOpenCheck.Checked)
}

// parseHeight parses a height entry, treating blank as 0
func parseHeight(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	return strconv.Atoi(text)
}

func validateHeight(text string) error {
	_, err := parseHeight(text)
	return err
}
