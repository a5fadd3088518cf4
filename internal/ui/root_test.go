package ui

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"github.com/ytget/yt-langdl/internal/config"
	"github.com/ytget/yt-langdl/internal/download"
	"github.com/ytget/yt-langdl/internal/model"
)

func newTestRootUI(t *testing.T, runner BatchRunner) *RootUI {
	t.Helper()
	app := test.NewApp()
	window := app.NewWindow("test")
	t.Cleanup(window.Close)
	return NewRootUI(window, app, config.NewSettings(app), runner, nil)
}

func TestCollectURLs(t *testing.T) {
	texts := []string{
		"  https://youtu.be/a  ",
		"",
		"https://youtu.be/b\nhttps://youtu.be/c",
		"\t",
	}
	expected := []string{"https://youtu.be/a", "https://youtu.be/b", "https://youtu.be/c"}

	if got := CollectURLs(texts); !reflect.DeepEqual(got, expected) {
		t.Errorf("CollectURLs() = %v, expected %v", got, expected)
	}
	if got := CollectURLs([]string{"", " "}); len(got) != 0 {
		t.Errorf("Expected no URLs, got %v", got)
	}
}

func TestNewRootUI_URLRows(t *testing.T) {
	ui := newTestRootUI(t, nil)

	if len(ui.urlEntries) != InitialURLRows {
		t.Fatalf("Expected %d URL rows, got %d", InitialURLRows, len(ui.urlEntries))
	}

	test.Tap(ui.addURLBtn)
	if len(ui.urlEntries) != InitialURLRows+1 {
		t.Errorf("Expected a new URL row, got %d rows", len(ui.urlEntries))
	}
	if len(ui.urlBox.Objects) != len(ui.urlEntries) {
		t.Errorf("URL box holds %d objects for %d entries", len(ui.urlBox.Objects), len(ui.urlEntries))
	}
	if !ui.hqCheck.Checked {
		t.Error("Expected high quality to be checked by default")
	}
}

func TestOnDownloadClick_NoURL(t *testing.T) {
	called := false
	ui := newTestRootUI(t, func(context.Context, model.DownloadRequest, download.Observer) model.BatchSummary {
		called = true
		return model.BatchSummary{}
	})

	test.Tap(ui.downloadBtn)

	if called {
		t.Error("Runner must not be called without URLs")
	}
	if len(ui.logLines) != 1 || ui.logLines[0] != ui.text(KeyNeedURL) {
		t.Errorf("Expected warning in log, got %v", ui.logLines)
	}
	if ui.downloadBtn.Disabled() {
		t.Error("Download button must stay enabled")
	}
}

func TestOnDownloadClick_RunsBatch(t *testing.T) {
	requests := make(chan model.DownloadRequest, 1)
	ui := newTestRootUI(t, func(_ context.Context, req model.DownloadRequest, obs download.Observer) model.BatchSummary {
		requests <- req
		return model.BatchSummary{Total: len(req.URLs)}
	})

	ui.urlEntries[0].SetText("https://youtu.be/a")
	ui.urlEntries[2].SetText(" https://youtu.be/b ")
	ui.hqCheck.SetChecked(false)

	test.Tap(ui.downloadBtn)

	select {
	case req := <-requests:
		if !reflect.DeepEqual(req.URLs, []string{"https://youtu.be/a", "https://youtu.be/b"}) {
			t.Errorf("Unexpected URLs: %v", req.URLs)
		}
		if req.HighQuality {
			t.Error("Expected high quality to be off")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Runner was not called")
	}
}

func TestProgressAndLog(t *testing.T) {
	ui := newTestRootUI(t, nil)

	ui.setOverall(2, 4)
	if ui.overallBar.Value != 0.5 {
		t.Errorf("Expected overall 0.5, got %v", ui.overallBar.Value)
	}
	if ui.overallLabel.Text != "Overall progress: 2/4" {
		t.Errorf("Unexpected overall label: %q", ui.overallLabel.Text)
	}

	ui.setCurrent(1.7, "")
	if ui.currentBar.Value != 1 {
		t.Errorf("Expected current progress clamped to 1, got %v", ui.currentBar.Value)
	}
	if ui.currentLabel.Text != ui.text(KeyCurrentProgress) {
		t.Errorf("Empty message must keep the label, got %q", ui.currentLabel.Text)
	}

	for i := 0; i < MaxLogLines+5; i++ {
		ui.appendLog("line")
	}
	if len(ui.logLines) != MaxLogLines {
		t.Errorf("Expected log capped at %d lines, got %d", MaxLogLines, len(ui.logLines))
	}

	ui.clearLog()
	if ui.logEntry.Text != "" || len(ui.logLines) != 0 {
		t.Error("Expected empty log")
	}
}

func TestOnBatchComplete(t *testing.T) {
	ui := newTestRootUI(t, nil)
	ui.running = true
	ui.downloadBtn.Disable()
	ui.currentBar.SetValue(0.8)

	ui.onBatchComplete()

	if ui.running || ui.downloadBtn.Disabled() {
		t.Error("Expected controls to be re-enabled")
	}
	if ui.currentBar.Value != 0 || ui.downloadBtn.Text != ui.text(KeyStartDownload) {
		t.Errorf("Expected reset controls, got bar=%v text=%q", ui.currentBar.Value, ui.downloadBtn.Text)
	}
}

func TestValidateURL(t *testing.T) {
	ui := newTestRootUI(t, nil)

	tests := []struct {
		input   string
		wantErr bool
	}{
		{"", false},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", false},
		{"http://youtu.be/a https://youtu.be/b", false},
		{"ftp://example.com/video", true},
		{"youtube.com/watch?v=x", true},
	}
	for _, tc := range tests {
		if err := ui.validateURL(tc.input); (err != nil) != tc.wantErr {
			t.Errorf("validateURL(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
		}
	}
}

func TestLanguageChange(t *testing.T) {
	ui := newTestRootUI(t, nil)

	ui.onLanguageChange(LangKorean)

	if ui.settings.GetLanguage() != LangKorean {
		t.Errorf("Expected language to be saved, got %s", ui.settings.GetLanguage())
	}
	if ui.downloadBtn.Text != "다운로드 시작" {
		t.Errorf("Expected Korean button text, got %q", ui.downloadBtn.Text)
	}
	if !strings.Contains(ui.hqCheck.Text, "1080p") {
		t.Errorf("Unexpected check text %q", ui.hqCheck.Text)
	}
}

func TestLocalization(t *testing.T) {
	l := NewLocalization()

	if l.GetCurrentLanguage() != LangEnglish {
		t.Errorf("Expected English by default, got %s", l.GetCurrentLanguage())
	}

	l.SetLanguage("fr")
	if l.GetCurrentLanguage() != LangEnglish {
		t.Error("Unknown language must be ignored")
	}

	l.SetLanguage(LangKorean)
	if l.GetText(KeyOverallProgress) != "전체 진행률" {
		t.Errorf("Unexpected Korean text %q", l.GetText(KeyOverallProgress))
	}
	if l.GetText("missing_key") != "missing_key" {
		t.Error("Missing key should fall back to the key itself")
	}

	l.SetLanguage(LangSystem)
	if l.GetCurrentLanguage() != LangEnglish {
		t.Error("System language should map to English")
	}

	for lang, texts := range l.texts {
		if len(texts) != len(l.texts[LangEnglish]) {
			t.Errorf("Language %s has %d texts, expected %d", lang, len(texts), len(l.texts[LangEnglish]))
		}
	}
}

func TestSettingsDialogApply(t *testing.T) {
	app := test.NewApp()
	window := app.NewWindow("test")
	defer window.Close()
	settings := config.NewSettings(app)

	sd := NewSettingsDialog(settings, window, NewLocalization(), nil)
	sd.loadCurrentSettings()

	sd.downloadDirEntry.SetText("/videos")
	sd.languagesEntry.SetText("ja, en")
	sd.maxHeightEntry.SetText("720")
	sd.exactHeightEntry.SetText("not a number")
	sd.ffmpegEntry.SetText("/opt/ffmpeg")
	sd.autoOpenCheck.SetChecked(true)
	sd.apply()

	if settings.GetDownloadDirectory() != "/videos" {
		t.Errorf("Unexpected dir %s", settings.GetDownloadDirectory())
	}
	if !reflect.DeepEqual(settings.GetAudioLanguages(), []string{"ja", "en"}) {
		t.Errorf("Unexpected languages %v", settings.GetAudioLanguages())
	}
	if settings.GetMaxHeight() != 720 || settings.GetExactHeight() != 0 {
		t.Errorf("Unexpected heights %d/%d", settings.GetMaxHeight(), settings.GetExactHeight())
	}
	if settings.GetFFmpegPath() != "/opt/ffmpeg" || !settings.GetAutoOpenOnComplete() {
		t.Error("Expected ffmpeg path and auto open to be saved")
	}
}

func TestAppTheme(t *testing.T) {
	th := NewAppTheme()
	if th.Size("padding") != 3 {
		t.Errorf("Unexpected padding %v", th.Size("padding"))
	}
	if th.Font(fyne.TextStyle{}) == nil {
		t.Error("Expected a font resource")
	}
}
