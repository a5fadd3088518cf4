package ui

// Localization manages UI text translations
type Localization struct {
	currentLanguage string
	texts           map[string]map[string]string
}

// Supported languages
const (
	LangSystem  = "system"
	LangEnglish = "en"
	LangKorean  = "ko"
)

// Text keys for localization
const (
	KeyAppTitle          = "app_title"
	KeyFile              = "file"
	KeySettings          = "settings"
	KeyLanguage          = "language"
	KeyURLPlaceholder    = "url_placeholder"
	KeyAddURL            = "add_url"
	KeyHighQuality       = "high_quality"
	KeyStartDownload     = "start_download"
	KeyDownloading       = "downloading"
	KeyOverallProgress   = "overall_progress"
	KeyOverallProgressF  = "overall_progress_fmt"
	KeyCurrentProgress   = "current_progress"
	KeyOpenFolder        = "open_folder"
	KeyNeedURL           = "need_url"
	KeyInvalidURL        = "invalid_url"
	KeyBatchFinishedF    = "batch_finished_fmt"
	KeyErrorOpeningDir   = "error_opening_dir"
	KeyDownloadDirectory = "download_directory"
	KeyAudioLanguages    = "audio_languages"
	KeyMaxHeight         = "max_height"
	KeyExactHeight       = "exact_height"
	KeyFFmpegPath        = "ffmpeg_path"
	KeyAutoOpen          = "auto_open"
	KeyBrowse            = "browse"
	KeySave              = "save"
	KeyCancel            = "cancel"
	KeySettingsSaved     = "settings_saved"
)

// NewLocalization creates a new localization manager
func NewLocalization() *Localization {
	l := &Localization{
		currentLanguage: LangEnglish,
		texts:           make(map[string]map[string]string),
	}

	l.initializeTexts()
	return l
}

// SetLanguage sets the current language. Unknown codes are ignored.
func (l *Localization) SetLanguage(lang string) {
	if lang == LangSystem {
		lang = LangEnglish
	}

	if _, exists := l.texts[lang]; exists {
		l.currentLanguage = lang
	}
}

// GetText returns localized text for the given key
func (l *Localization) GetText(key string) string {
	if texts, exists := l.texts[l.currentLanguage]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Fallback to English
	if text, found := l.texts[LangEnglish][key]; found {
		return text
	}

	return key
}

// GetCurrentLanguage returns the current language code
func (l *Localization) GetCurrentLanguage() string {
	return l.currentLanguage
}

// GetAvailableLanguages returns the available languages with their display names
func (l *Localization) GetAvailableLanguages() map[string]string {
	return map[string]string{
		LangEnglish: "English",
		LangKorean:  "한국어",
	}
}

func (l *Localization) initializeTexts() {
	l.texts[LangEnglish] = map[string]string{
		KeyAppTitle:          "YouTube Downloader",
		KeyFile:              "File",
		KeySettings:          "Settings",
		KeyLanguage:          "Language",
		KeyURLPlaceholder:    "YouTube URL",
		KeyAddURL:            "+ URL",
		KeyHighQuality:       "High quality (1080p)",
		KeyStartDownload:     "Start download",
		KeyDownloading:       "Downloading...",
		KeyOverallProgress:   "Overall progress",
		KeyOverallProgressF:  "Overall progress: %d/%d",
		KeyCurrentProgress:   "Current file progress",
		KeyOpenFolder:        "Open folder",
		KeyNeedURL:           "⚠️ enter at least one URL.",
		KeyInvalidURL:        "URL must start with http:// or https://",
		KeyBatchFinishedF:    "%d of %d downloaded, %d failed",
		KeyErrorOpeningDir:   "Error opening folder",
		KeyDownloadDirectory: "Download directory",
		KeyAudioLanguages:    "Audio languages (priority order)",
		KeyMaxHeight:         "Maximum height (0 = no limit)",
		KeyExactHeight:       "Exact height (0 = unset)",
		KeyFFmpegPath:        "ffmpeg path (empty = auto-detect)",
		KeyAutoOpen:          "Open folder when finished",
		KeyBrowse:            "Browse",
		KeySave:              "Save",
		KeyCancel:            "Cancel",
		KeySettingsSaved:     "Settings saved",
	}

	l.texts[LangKorean] = map[string]string{
		KeyAppTitle:          "YouTube 다운로더",
		KeyFile:              "파일",
		KeySettings:          "설정",
		KeyLanguage:          "언어",
		KeyURLPlaceholder:    "YouTube URL 입력",
		KeyAddURL:            "+ URL 추가",
		KeyHighQuality:       "고화질(1080p)",
		KeyStartDownload:     "다운로드 시작",
		KeyDownloading:       "다운로드 중...",
		KeyOverallProgress:   "전체 진행률",
		KeyOverallProgressF:  "전체 진행률: %d/%d",
		KeyCurrentProgress:   "현재 파일 진행률",
		KeyOpenFolder:        "폴더 열기",
		KeyNeedURL:           "⚠️ 최소 하나의 URL을 입력하세요.",
		KeyInvalidURL:        "URL은 http:// 또는 https://로 시작해야 합니다",
		KeyBatchFinishedF:    "%d/%d 다운로드 완료, %d 실패",
		KeyErrorOpeningDir:   "폴더를 열 수 없습니다",
		KeyDownloadDirectory: "다운로드 폴더",
		KeyAudioLanguages:    "오디오 언어 (우선순위)",
		KeyMaxHeight:         "최대 해상도 (0 = 제한 없음)",
		KeyExactHeight:       "고정 해상도 (0 = 사용 안 함)",
		KeyFFmpegPath:        "ffmpeg 경로 (비우면 자동 감지)",
		KeyAutoOpen:          "완료 후 폴더 열기",
		KeyBrowse:            "찾아보기",
		KeySave:              "저장",
		KeyCancel:            "취소",
		KeySettingsSaved:     "설정이 저장되었습니다",
	}
}
