package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ytget/yt-langdl/internal/format"
	"github.com/ytget/yt-langdl/internal/model"
	"github.com/ytget/yt-langdl/internal/mux"
)

// trace records backend calls in order across fakes
type trace struct {
	mu    sync.Mutex
	calls []string
}

func (tr *trace) add(layout string, args ...any) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.calls = append(tr.calls, fmt.Sprintf(layout, args...))
}

func (tr *trace) String() string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return strings.Join(tr.calls, " ")
}

type recordingObserver struct {
	mu        sync.Mutex
	logs      []string
	overall   [][2]int
	current   []float64
	completes int
}

func (o *recordingObserver) Log(message string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.logs = append(o.logs, message)
}

func (o *recordingObserver) OverallProgress(completed, total int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.overall = append(o.overall, [2]int{completed, total})
}

func (o *recordingObserver) CurrentProgress(fraction float64, _ string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.current = append(o.current, fraction)
}

func (o *recordingObserver) Complete() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completes++
}

func (o *recordingObserver) logged(substr string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, l := range o.logs {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

type fakeStandard struct {
	trace    *trace
	titles   map[string]string
	metaErr  map[string]error
	dlErr    map[string]error
	panicURL string
}

func (f *fakeStandard) FetchMetadata(ctx context.Context, url string) (*model.VideoInfo, error) {
	f.trace.add("meta:%s", url)
	if url == f.panicURL {
		panic("metadata parser exploded")
	}
	if err := f.metaErr[url]; err != nil {
		return nil, err
	}
	title, ok := f.titles[url]
	if !ok {
		title = "title-" + url
	}
	return &model.VideoInfo{ID: "id-" + url, URL: url, Title: title}, nil
}

func (f *fakeStandard) DownloadProgressive(ctx context.Context, info *model.VideoInfo, dir, baseName string, progress ByteProgressFunc) (string, error) {
	f.trace.add("dl:%s", info.URL)
	if err := f.dlErr[info.URL]; err != nil {
		return "", err
	}
	progress(50, 100)
	progress(100, 0)
	return filepath.Join(dir, baseName+".mp4"), nil
}

type fakeExtended struct {
	trace    *trace
	err      map[string]error
	panicURL string
	langs    []string
	probeErr error

	mu   sync.Mutex
	reqs []ExtendedRequest
}

func (f *fakeExtended) ProbeAudioLanguages(ctx context.Context, url string) ([]string, error) {
	f.trace.add("probe:%s", url)
	return f.langs, f.probeErr
}

func (f *fakeExtended) Download(ctx context.Context, req ExtendedRequest) (string, error) {
	f.trace.add("hq:%s", req.URL)
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()

	if req.URL == f.panicURL {
		panic("yt-dlp wrapper exploded")
	}
	req.Hook(model.HookEvent{Status: model.HookStatusDownloading, DownloadedBytes: 10, TotalBytes: 20})
	if err := f.err[req.URL]; err != nil {
		return "", err
	}
	req.Hook(model.HookEvent{Status: model.HookStatusFinished})
	return "", nil
}

type memoryRecorder struct {
	tasks []*model.DownloadTask
}

func (r *memoryRecorder) Record(ctx context.Context, task *model.DownloadTask) error {
	r.tasks = append(r.tasks, task)
	return nil
}

func fullCaps(ext ExtendedBackend) Capabilities {
	return Capabilities{Mux: &mux.Tool{FFmpegPath: "/opt/ffmpeg/bin/ffmpeg"}, Extended: ext}
}

func newTestService(t *testing.T, std StandardBackend, caps Capabilities, obs Observer) *Service {
	t.Helper()
	return NewService(Options{
		DownloadDir: filepath.Join(t.TempDir(), "youtube_downloads"),
		Selector:    format.Default(),
	}, std, caps, obs, nil)
}

func TestNewService_Defaults(t *testing.T) {
	service := NewService(Options{DownloadDir: "/tmp"}, &fakeStandard{trace: &trace{}}, Capabilities{}, nil, nil)

	if service.opts.MergeFormat != DefaultMergeFormat {
		t.Errorf("Expected merge format %s, got %s", DefaultMergeFormat, service.opts.MergeFormat)
	}
	if service.observer == nil || service.logger == nil {
		t.Error("Expected nil observer and logger to be replaced")
	}
}

func TestRunDownloads_OverallProgress(t *testing.T) {
	tr := &trace{}
	std := &fakeStandard{trace: tr, dlErr: map[string]error{"url2": errors.New("disk full")}}
	ext := &fakeExtended{trace: tr, err: map[string]error{"url2": errors.New("merge failed")}}
	obs := &recordingObserver{}

	service := newTestService(t, std, fullCaps(ext), obs)
	summary := service.RunDownloads(context.Background(), []string{"url1", "url2", "url3"}, true)

	expected := [][2]int{{1, 3}, {2, 3}, {3, 3}}
	if len(obs.overall) != len(expected) {
		t.Fatalf("Expected %d overall updates, got %v", len(expected), obs.overall)
	}
	for i := range expected {
		if obs.overall[i] != expected[i] {
			t.Errorf("overall[%d] = %v, expected %v", i, obs.overall[i], expected[i])
		}
	}
	if obs.completes != 1 {
		t.Errorf("Expected Complete once, got %d", obs.completes)
	}
	if summary.Total != 3 || summary.Completed != 2 || summary.Failed != 1 || summary.FellBack != 1 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
}

func TestRunDownloads_MetadataFailureContinues(t *testing.T) {
	tr := &trace{}
	std := &fakeStandard{trace: tr, metaErr: map[string]error{"url2": errors.New("video unavailable")}}
	obs := &recordingObserver{}

	service := newTestService(t, std, Capabilities{}, obs)
	summary := service.RunDownloads(context.Background(), []string{"url1", "url2", "url3"}, false)

	if got := tr.String(); got != "meta:url1 dl:url1 meta:url2 meta:url3 dl:url3" {
		t.Errorf("Unexpected call order: %s", got)
	}
	if obs.completes != 1 {
		t.Errorf("Expected Complete once, got %d", obs.completes)
	}
	if !obs.logged("url2") || !obs.logged("video unavailable") {
		t.Errorf("Expected failure of url2 to be logged, got %v", obs.logs)
	}
	if summary.Failed != 1 || summary.Completed != 2 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
}

func TestRunDownloads_FallbackBeforeNextURL(t *testing.T) {
	tr := &trace{}
	std := &fakeStandard{trace: tr}
	ext := &fakeExtended{trace: tr, err: map[string]error{"url1": errors.New("HTTP Error 403")}}
	obs := &recordingObserver{}
	recorder := &memoryRecorder{}

	service := newTestService(t, std, fullCaps(ext), obs)
	service.SetRecorder(recorder)
	summary := service.RunDownloads(context.Background(), []string{"url1", "url2"}, true)

	expected := "meta:url1 probe:url1 hq:url1 meta:url1 dl:url1 meta:url2 probe:url2 hq:url2"
	if got := tr.String(); got != expected {
		t.Errorf("Call order =\n%s\nexpected\n%s", got, expected)
	}
	if !obs.logged("HTTP Error 403") {
		t.Error("Expected fallback reason to be logged")
	}
	if summary.FellBack != 1 || summary.Completed != 2 {
		t.Errorf("Unexpected summary: %+v", summary)
	}

	if len(recorder.tasks) != 2 {
		t.Fatalf("Expected 2 recorded tasks, got %d", len(recorder.tasks))
	}
	first := recorder.tasks[0]
	if !first.FellBack || first.Strategy != model.StrategyHighQuality || first.Status != model.TaskStatusCompleted {
		t.Errorf("Unexpected first task: %+v", first)
	}
	if filepath.Base(first.OutputPath) != "title-url1.mp4" {
		t.Errorf("Unexpected output path: %s", first.OutputPath)
	}
}

func TestRunDownloads_FallbackAfterPanic(t *testing.T) {
	tr := &trace{}
	std := &fakeStandard{trace: tr}
	ext := &fakeExtended{trace: tr, panicURL: "url1"}
	obs := &recordingObserver{}

	service := newTestService(t, std, fullCaps(ext), obs)
	summary := service.RunDownloads(context.Background(), []string{"url1"}, true)

	if got := tr.String(); got != "meta:url1 probe:url1 hq:url1 meta:url1 dl:url1" {
		t.Errorf("Unexpected call order: %s", got)
	}
	if summary.Completed != 1 || summary.FellBack != 1 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
}

func TestRunDownloads_PanicIsolatedToOneURL(t *testing.T) {
	tr := &trace{}
	std := &fakeStandard{trace: tr, panicURL: "url1"}
	obs := &recordingObserver{}

	service := newTestService(t, std, Capabilities{}, obs)
	summary := service.RunDownloads(context.Background(), []string{"url1", "url2"}, false)

	if summary.Failed != 1 || summary.Completed != 1 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
	if !obs.logged("metadata parser exploded") {
		t.Errorf("Expected panic value to be logged, got %v", obs.logs)
	}
	if len(obs.overall) != 2 || obs.completes != 1 {
		t.Errorf("Expected 2 overall updates and one Complete, got %v / %d", obs.overall, obs.completes)
	}
}

func TestRunDownloads_FallbackMetadataFailure(t *testing.T) {
	tr := &trace{}
	calls := 0
	std := &flakyMetadata{fakeStandard: fakeStandard{trace: tr}, failAfter: 1, calls: &calls}
	ext := &fakeExtended{trace: tr, err: map[string]error{"url1": errors.New("boom")}}
	obs := &recordingObserver{}

	service := newTestService(t, std, fullCaps(ext), obs)
	summary := service.RunDownloads(context.Background(), []string{"url1"}, true)

	if summary.Failed != 1 {
		t.Errorf("Expected failure when fallback metadata fails, got %+v", summary)
	}
	if !obs.logged("boom") {
		t.Error("Expected original high quality error in the failure line")
	}
}

// flakyMetadata fails every metadata fetch after the first failAfter calls
type flakyMetadata struct {
	fakeStandard
	failAfter int
	calls     *int
}

func (f *flakyMetadata) FetchMetadata(ctx context.Context, url string) (*model.VideoInfo, error) {
	*f.calls++
	if *f.calls > f.failAfter {
		return nil, errors.New("rate limited")
	}
	return f.fakeStandard.FetchMetadata(ctx, url)
}

func TestRunDownloads_DowngradeReasons(t *testing.T) {
	tests := []struct {
		name        string
		caps        Capabilities
		wantFFmpeg  bool
		wantBackend bool
	}{
		{"no ffmpeg", Capabilities{Extended: &fakeExtended{trace: &trace{}}}, true, false},
		{"no backend", Capabilities{Mux: &mux.Tool{FFmpegPath: "/usr/bin/ffmpeg"}}, false, true},
		{"neither", Capabilities{}, true, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tr := &trace{}
			obs := &recordingObserver{}
			service := newTestService(t, &fakeStandard{trace: tr}, test.caps, obs)
			service.RunDownloads(context.Background(), []string{"url1"}, true)

			if obs.logged(MsgNoFFmpeg) != test.wantFFmpeg {
				t.Errorf("ffmpeg reason logged = %v, expected %v", !test.wantFFmpeg, test.wantFFmpeg)
			}
			if obs.logged(MsgNoExtended) != test.wantBackend {
				t.Errorf("backend reason logged = %v, expected %v", !test.wantBackend, test.wantBackend)
			}
			if got := tr.String(); got != "meta:url1 dl:url1" {
				t.Errorf("Expected standard path only, got %s", got)
			}
		})
	}
}

func TestRunDownloads_StandardRequested(t *testing.T) {
	tr := &trace{}
	ext := &fakeExtended{trace: tr}
	obs := &recordingObserver{}

	service := newTestService(t, &fakeStandard{trace: tr}, fullCaps(ext), obs)
	service.RunDownloads(context.Background(), []string{"url1"}, false)

	if got := tr.String(); got != "meta:url1 dl:url1" {
		t.Errorf("Expected standard path, got %s", got)
	}
	if obs.logged(MsgNoFFmpeg) || obs.logged(MsgNoExtended) {
		t.Error("Expected no downgrade reasons when high quality was not requested")
	}
	if len(obs.current) == 0 || obs.current[0] != 0 || obs.current[len(obs.current)-1] != 1 {
		t.Errorf("Expected progress to start at 0 and end at 1, got %v", obs.current)
	}
}

func TestRunDownloads_ProbeFailureDoesNotAbort(t *testing.T) {
	tr := &trace{}
	ext := &fakeExtended{trace: tr, probeErr: errors.New("probe timeout")}
	obs := &recordingObserver{}

	service := newTestService(t, &fakeStandard{trace: tr}, fullCaps(ext), obs)
	summary := service.RunDownloads(context.Background(), []string{"url1"}, true)

	if !obs.logged(MsgNoLanguages) {
		t.Error("Expected explanatory message for failed probe")
	}
	if summary.Completed != 1 || summary.FellBack != 0 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
}

func TestRunDownloads_ProbeLanguagesLogged(t *testing.T) {
	tr := &trace{}
	ext := &fakeExtended{trace: tr, langs: []string{"en", "ko"}}
	obs := &recordingObserver{}

	service := newTestService(t, &fakeStandard{trace: tr}, fullCaps(ext), obs)
	service.RunDownloads(context.Background(), []string{"url1"}, true)

	if !obs.logged("en, ko") {
		t.Errorf("Expected probed languages to be logged, got %v", obs.logs)
	}
}

func TestRunDownloads_ExtendedRequest(t *testing.T) {
	tr := &trace{}
	std := &fakeStandard{trace: tr, titles: map[string]string{"url1": "100% a/b:c*d"}}
	ext := &fakeExtended{trace: tr}
	obs := &recordingObserver{}

	service := newTestService(t, std, fullCaps(ext), obs)
	service.RunDownloads(context.Background(), []string{"url1"}, true)

	if len(ext.reqs) != 1 {
		t.Fatalf("Expected 1 extended request, got %d", len(ext.reqs))
	}
	req := ext.reqs[0]
	if req.Format != format.Default().Build() {
		t.Errorf("Unexpected format: %s", req.Format)
	}
	if filepath.Base(req.OutputTemplate) != "100%% a_b_c_d.%(ext)s" {
		t.Errorf("Unexpected output template: %s", req.OutputTemplate)
	}
	if req.FFmpegPath != "/opt/ffmpeg/bin/ffmpeg" || req.MergeFormat != "mp4" || !req.WindowsFilenames {
		t.Errorf("Unexpected request: %+v", req)
	}
	if !obs.logged("100% a_b_c_d.mp4") {
		t.Errorf("Expected completion line with merged path, got %v", obs.logs)
	}

	last := obs.current[len(obs.current)-1]
	if last != 1.0 {
		t.Errorf("Expected final progress 1.0, got %v", last)
	}
}

func TestRunDownloads_PercentInDownloadDir(t *testing.T) {
	tr := &trace{}
	std := &fakeStandard{trace: tr, titles: map[string]string{"url1": "clip"}}
	ext := &fakeExtended{trace: tr}
	dir := filepath.Join(t.TempDir(), "100%", "dl")

	service := NewService(Options{DownloadDir: dir, Selector: format.Default()}, std, fullCaps(ext), &recordingObserver{}, nil)
	service.RunDownloads(context.Background(), []string{"url1"}, true)

	if len(ext.reqs) != 1 {
		t.Fatalf("Expected 1 extended request, got %d", len(ext.reqs))
	}
	expected := strings.ReplaceAll(filepath.Join(dir, "clip"), "%", "%%") + ".%(ext)s"
	if ext.reqs[0].OutputTemplate != expected {
		t.Errorf("Expected output template %s, got %s", expected, ext.reqs[0].OutputTemplate)
	}
}

func TestRunDownloads_CreatesDirectory(t *testing.T) {
	tr := &trace{}
	service := newTestService(t, &fakeStandard{trace: tr}, Capabilities{}, &recordingObserver{})
	service.RunDownloads(context.Background(), nil, false)

	if _, err := os.Stat(service.opts.DownloadDir); err != nil {
		t.Errorf("Expected download dir to exist: %v", err)
	}
}

func TestRunDownloads_EmptyBatch(t *testing.T) {
	obs := &recordingObserver{}
	service := newTestService(t, &fakeStandard{trace: &trace{}}, Capabilities{}, obs)
	summary := service.RunDownloads(context.Background(), nil, true)

	if obs.completes != 1 || len(obs.overall) != 0 || summary.Total != 0 {
		t.Errorf("Unexpected empty batch result: completes=%d overall=%v summary=%+v", obs.completes, obs.overall, summary)
	}
	if !obs.logged(MsgAllDone) {
		t.Error("Expected final log line")
	}
}

func TestHookProgress(t *testing.T) {
	tests := []struct {
		name     string
		event    model.HookEvent
		fraction float64
		ok       bool
	}{
		{"half", model.HookEvent{Status: model.HookStatusDownloading, DownloadedBytes: 50, TotalBytes: 100}, 0.5, true},
		{"estimate", model.HookEvent{Status: model.HookStatusDownloading, DownloadedBytes: 25, TotalBytesEstimate: 100}, 0.25, true},
		{"overshoot clamped", model.HookEvent{Status: model.HookStatusDownloading, DownloadedBytes: 150, TotalBytes: 100}, 1, true},
		{"unknown total", model.HookEvent{Status: model.HookStatusDownloading}, 0, true},
		{"negative clamped", model.HookEvent{Status: model.HookStatusDownloading, DownloadedBytes: -5, TotalBytes: 100}, 0, true},
		{"finished", model.HookEvent{Status: model.HookStatusFinished}, 1, true},
		{"unknown status", model.HookEvent{Status: "postprocessing"}, 0, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fraction, message, ok := HookProgress(test.event)
			if ok != test.ok || fraction != test.fraction {
				t.Errorf("HookProgress() = (%v, %q, %v), expected (%v, _, %v)", fraction, message, ok, test.fraction, test.ok)
			}
			if test.event.Status == model.HookStatusFinished && message != MsgFinalizing {
				t.Errorf("Expected finalizing message, got %q", message)
			}
		})
	}
}

func TestHookProgress_Message(t *testing.T) {
	_, message, _ := HookProgress(model.HookEvent{
		Status:          model.HookStatusDownloading,
		DownloadedBytes: 1_500_000,
		TotalBytes:      3_000_000,
	})
	if message != "downloading... 1.5 MB / 3.0 MB" {
		t.Errorf("Unexpected message: %q", message)
	}
}

func TestCapabilities(t *testing.T) {
	if (Capabilities{}).HighQuality() {
		t.Error("Empty capabilities must not allow high quality")
	}
	if (Capabilities{}).FFmpegPath() != "" {
		t.Error("Expected empty ffmpeg path")
	}
	caps := fullCaps(&fakeExtended{trace: &trace{}})
	if !caps.HighQuality() || len(caps.Reasons()) != 0 {
		t.Errorf("Expected full capabilities, reasons=%v", caps.Reasons())
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		info     model.VideoInfo
		expected string
	}{
		{model.VideoInfo{ID: "x", Title: "a/b:c*d"}, "a_b_c_d"},
		{model.VideoInfo{ID: "dQw4w9WgXcQ", Title: "   "}, "dQw4w9WgXcQ"},
		{model.VideoInfo{}, FallbackBaseName},
	}
	for _, test := range tests {
		if got := baseName(&test.info); got != test.expected {
			t.Errorf("baseName(%+v) = %q, expected %q", test.info, got, test.expected)
		}
	}
}

func TestMultiObserver(t *testing.T) {
	a, b := &recordingObserver{}, &recordingObserver{}
	m := MultiObserver{a, b, NopObserver{}}
	m.Log("hello")
	m.OverallProgress(1, 2)
	m.CurrentProgress(0.5, "half")
	m.Complete()

	for _, o := range []*recordingObserver{a, b} {
		if len(o.logs) != 1 || len(o.overall) != 1 || len(o.current) != 1 || o.completes != 1 {
			t.Errorf("Observer did not receive every event: %+v", o)
		}
	}
}
