package ui

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/ytget/yt-langdl/internal/config"
	"github.com/ytget/yt-langdl/internal/download"
	"github.com/ytget/yt-langdl/internal/model"
	"github.com/ytget/yt-langdl/internal/platform"
)

// BatchRunner runs one download request to completion, reporting through obs.
// It is called on a background goroutine and must call obs.Complete once.
type BatchRunner func(ctx context.Context, req model.DownloadRequest, obs download.Observer) model.BatchSummary

// RootUI represents the main window
type RootUI struct {
	window       fyne.Window
	app          fyne.App
	settings     *config.Settings
	localization *Localization
	runner       BatchRunner
	logger       *zap.Logger

	urlEntries    []*widget.Entry
	urlBox        *fyne.Container
	addURLBtn     *widget.Button
	hqCheck       *widget.Check
	downloadBtn   *widget.Button
	openFolderBtn *widget.Button
	overallLabel  *widget.Label
	overallBar    *widget.ProgressBar
	currentLabel  *widget.Label
	currentBar    *widget.ProgressBar
	logEntry      *widget.Entry
	logLines      []string

	mu      sync.Mutex
	running bool
}

// NewRootUI creates the main window content
func NewRootUI(window fyne.Window, app fyne.App, settings *config.Settings, runner BatchRunner, logger *zap.Logger) *RootUI {
	if logger == nil {
		logger = zap.NewNop()
	}

	localization := NewLocalization()
	localization.SetLanguage(settings.GetLanguage())

	ui := &RootUI{
		window:       window,
		app:          app,
		settings:     settings,
		localization: localization,
		runner:       runner,
		logger:       logger,
	}

	window.SetTitle(localization.GetText(KeyAppTitle))
	ui.setupUI()
	return ui
}

// setupUI creates and arranges all UI components
func (ui *RootUI) setupUI() {
	ui.createMenu()

	ui.urlBox = container.NewVBox()
	for range InitialURLRows {
		ui.addURLEntry()
	}
	urlScroll := container.NewVScroll(ui.urlBox)
	urlScroll.SetMinSize(fyne.NewSize(0, URLListMinHeight))

	ui.hqCheck = widget.NewCheck(ui.text(KeyHighQuality), func(checked bool) {
		ui.settings.SetHighQuality(checked)
	})
	ui.hqCheck.SetChecked(ui.settings.GetHighQuality())

	ui.addURLBtn = widget.NewButton(ui.text(KeyAddURL), func() { ui.addURLEntry() })
	ui.downloadBtn = widget.NewButton(ui.text(KeyStartDownload), ui.onDownloadClick)
	ui.downloadBtn.Importance = widget.HighImportance

	ui.openFolderBtn = widget.NewButton(IconFolder+" "+ui.text(KeyOpenFolder), ui.onOpenFolder)
	settingsBtn := widget.NewButton(IconSettings, ui.onShowSettings)
	settingsBtn.Importance = widget.LowImportance

	options := container.NewHBox(ui.hqCheck, ui.addURLBtn, ui.downloadBtn, ui.openFolderBtn, settingsBtn)

	ui.overallLabel = widget.NewLabelWithStyle(ui.text(KeyOverallProgress), fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	ui.overallBar = widget.NewProgressBar()
	ui.currentLabel = widget.NewLabelWithStyle(ui.text(KeyCurrentProgress), fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	ui.currentBar = widget.NewProgressBar()

	ui.logEntry = widget.NewMultiLineEntry()
	ui.logEntry.Wrapping = fyne.TextWrapWord
	ui.logEntry.TextStyle = fyne.TextStyle{Monospace: true}
	ui.logEntry.Disable()
	logScroll := container.NewVScroll(ui.logEntry)
	logScroll.SetMinSize(fyne.NewSize(0, LogMinHeight))

	top := container.NewVBox(
		urlScroll,
		options,
		ui.overallLabel,
		ui.overallBar,
		ui.currentLabel,
		ui.currentBar,
	)

	ui.window.SetContent(container.NewBorder(top, nil, nil, nil, logScroll))
}

// createMenu creates the application menu
func (ui *RootUI) createMenu() {
	settingsItem := fyne.NewMenuItem(ui.text(KeySettings), ui.onShowSettings)
	openItem := fyne.NewMenuItem(ui.text(KeyOpenFolder), ui.onOpenFolder)

	languageMenu := fyne.NewMenu(ui.text(KeyLanguage))
	for code, name := range ui.localization.GetAvailableLanguages() {
		langCode := code
		item := fyne.NewMenuItem(name, func() { ui.onLanguageChange(langCode) })
		item.Checked = ui.localization.GetCurrentLanguage() == code
		languageMenu.Items = append(languageMenu.Items, item)
	}

	ui.window.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu(ui.text(KeyFile), openItem, settingsItem),
		languageMenu,
	))
}

// onLanguageChange switches the interface language
func (ui *RootUI) onLanguageChange(langCode string) {
	ui.localization.SetLanguage(langCode)
	ui.settings.SetLanguage(langCode)
	ui.refreshUITexts()
	ui.createMenu()
}

// refreshUITexts updates all UI texts with current language
func (ui *RootUI) refreshUITexts() {
	ui.window.SetTitle(ui.text(KeyAppTitle))
	for _, entry := range ui.urlEntries {
		entry.SetPlaceHolder(ui.text(KeyURLPlaceholder))
	}
	ui.hqCheck.Text = ui.text(KeyHighQuality)
	ui.hqCheck.Refresh()
	ui.addURLBtn.SetText(ui.text(KeyAddURL))
	ui.openFolderBtn.SetText(IconFolder + " " + ui.text(KeyOpenFolder))

	ui.mu.Lock()
	running := ui.running
	ui.mu.Unlock()
	if running {
		ui.downloadBtn.SetText(ui.text(KeyDownloading))
	} else {
		ui.downloadBtn.SetText(ui.text(KeyStartDownload))
		ui.overallLabel.SetText(ui.text(KeyOverallProgress))
		ui.currentLabel.SetText(ui.text(KeyCurrentProgress))
	}
}

// addURLEntry appends an empty URL row
func (ui *RootUI) addURLEntry() *widget.Entry {
	entry := widget.NewEntry()
	entry.SetPlaceHolder(ui.text(KeyURLPlaceholder))
	entry.Validator = ui.validateURL
	entry.OnSubmitted = func(string) { ui.onDownloadClick() }

	ui.urlEntries = append(ui.urlEntries, entry)
	ui.urlBox.Add(entry)
	return entry
}

// validateURL marks entries that are not http(s) URLs. Empty is allowed.
func (ui *RootUI) validateURL(input string) error {
	for _, field := range strings.Fields(input) {
		parsed, err := url.Parse(field)
		if err != nil {
			return err
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("%s", ui.text(KeyInvalidURL))
		}
	}
	return nil
}

// collectURLs returns the non-empty URLs in row order. A row may hold several
// whitespace separated URLs.
func (ui *RootUI) collectURLs() []string {
	texts := make([]string, 0, len(ui.urlEntries))
	for _, entry := range ui.urlEntries {
		texts = append(texts, entry.Text)
	}
	return CollectURLs(texts)
}

// CollectURLs splits raw entry texts into URLs, dropping blanks
func CollectURLs(texts []string) []string {
	var urls []string
	for _, text := range texts {
		urls = append(urls, strings.Fields(text)...)
	}
	return urls
}

// onDownloadClick starts a batch on a background goroutine
func (ui *RootUI) onDownloadClick() {
	urls := ui.collectURLs()
	if len(urls) == 0 {
		ui.appendLog(ui.text(KeyNeedURL))
		return
	}

	ui.mu.Lock()
	if ui.running {
		ui.mu.Unlock()
		return
	}
	ui.running = true
	ui.mu.Unlock()

	ui.downloadBtn.SetText(ui.text(KeyDownloading))
	ui.downloadBtn.Disable()
	ui.clearLog()
	ui.overallBar.SetValue(0)
	ui.overallLabel.SetText(ui.text(KeyOverallProgress))
	ui.currentBar.SetValue(0)

	req := model.DownloadRequest{URLs: urls, HighQuality: ui.hqCheck.Checked}
	ui.logger.Info("batch requested", zap.Int("urls", len(urls)), zap.Bool("high_quality", req.HighQuality))

	go ui.runBatch(req)
}

// runBatch runs on a worker goroutine
func (ui *RootUI) runBatch(req model.DownloadRequest) {
	defer func() {
		if r := recover(); r != nil {
			ui.logger.Error("batch runner panicked", zap.Any("panic", r))
			fyne.Do(func() {
				ui.appendLog(fmt.Sprintf("❌ %v", r))
				ui.onBatchComplete()
			})
		}
	}()

	summary := ui.runner(context.Background(), req, newWindowObserver(ui))

	fyne.Do(func() {
		ui.app.SendNotification(&fyne.Notification{
			Title:   ui.text(KeyAppTitle),
			Content: fmt.Sprintf(ui.text(KeyBatchFinishedF), summary.Completed, summary.Total, summary.Failed),
		})
	})
}

// onBatchComplete resets the controls once the batch is done. UI thread only.
func (ui *RootUI) onBatchComplete() {
	ui.mu.Lock()
	ui.running = false
	ui.mu.Unlock()

	ui.downloadBtn.Enable()
	ui.downloadBtn.SetText(ui.text(KeyStartDownload))
	ui.currentBar.SetValue(0)
	ui.currentLabel.SetText(ui.text(KeyCurrentProgress))

	if ui.settings.GetAutoOpenOnComplete() {
		ui.onOpenFolder()
	}
}

// setOverall updates the overall bar. UI thread only.
func (ui *RootUI) setOverall(completed, total int) {
	if total <= 0 {
		return
	}
	ev := model.ProgressEvent{Completed: completed, Total: total}
	ui.overallBar.SetValue(ev.OverallFraction())
	ui.overallLabel.SetText(fmt.Sprintf(ui.text(KeyOverallProgressF), completed, total))
}

// setCurrent updates the current file bar. UI thread only.
func (ui *RootUI) setCurrent(fraction float64, message string) {
	ui.currentBar.SetValue(model.Clamp(fraction))
	if message != "" {
		ui.currentLabel.SetText(message)
	}
}

// appendLog adds a line to the log pane. UI thread only.
func (ui *RootUI) appendLog(message string) {
	ui.logLines = append(ui.logLines, message)
	if len(ui.logLines) > MaxLogLines {
		ui.logLines = ui.logLines[len(ui.logLines)-MaxLogLines:]
	}
	ui.logEntry.SetText(strings.Join(ui.logLines, "\n"))
	ui.logEntry.CursorRow = len(ui.logLines) - 1
	ui.logEntry.Refresh()
}

// clearLog empties the log pane. UI thread only.
func (ui *RootUI) clearLog() {
	ui.logLines = nil
	ui.logEntry.SetText("")
}

// onOpenFolder opens the download directory in the file manager
func (ui *RootUI) onOpenFolder() {
	dir := ui.settings.GetDownloadDirectory()
	if err := platform.CreateDirectoryIfNotExists(dir); err != nil {
		ui.logger.Warn("failed to ensure download dir", zap.String("dir", dir), zap.Error(err))
	}
	if err := platform.OpenFolder(dir); err != nil {
		ui.logger.Warn("failed to open folder", zap.String("dir", dir), zap.Error(err))
		dialog.ShowError(fmt.Errorf("%s: %w", ui.text(KeyErrorOpeningDir), err), ui.window)
	}
}

// onShowSettings shows the settings dialog
func (ui *RootUI) onShowSettings() {
	NewSettingsDialog(ui.settings, ui.window, ui.localization, func() {
		ui.hqCheck.SetChecked(ui.settings.GetHighQuality())
	}).Show()
}

func (ui *RootUI) text(key string) string {
	return ui.localization.GetText(key)
}
