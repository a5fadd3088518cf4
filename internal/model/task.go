package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskIDPrefix is prepended to every generated task ID
const TaskIDPrefix = "task-"

// DownloadRequest is one user submission: an ordered URL list and the quality flag.
// It is not modified once a batch starts.
type DownloadRequest struct {
	URLs        []string
	HighQuality bool
}

// VideoInfo is the resolved metadata of a single video
type VideoInfo struct {
	ID       string
	URL      string
	Title    string
	Author   string
	Duration time.Duration
}

// DownloadTask represents the processing of a single URL within a batch
type DownloadTask struct {
	ID         string
	URL        string
	Title      string // sanitized title used for the output file name
	Strategy   Strategy
	Status     TaskStatus
	FellBack   bool      // high quality path failed and the standard path ran
	OutputPath string    // path to downloaded file
	LastError  string    // last error message if any
	StartedAt  time.Time // when processing started
	FinishedAt time.Time // when processing finished
}

// NewDownloadTask creates a pending task for url
func NewDownloadTask(url string) *DownloadTask {
	return &DownloadTask{
		ID:        NewTaskID(),
		URL:       url,
		Status:    TaskStatusPending,
		Strategy:  StrategyStandard,
		StartedAt: time.Now(),
	}
}

// NewTaskID generates a unique task ID using UUID v7, so IDs sort chronologically
func NewTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf(TaskIDPrefix+"%d", time.Now().UnixNano())
	}
	return TaskIDPrefix + id.String()
}

// Finish moves the task to a terminal state
func (dt *DownloadTask) Finish(err error) {
	if err != nil {
		dt.Status = TaskStatusError
		dt.LastError = err.Error()
	} else {
		dt.Status = TaskStatusCompleted
		dt.LastError = ""
	}
	dt.FinishedAt = time.Now()
}

// GetDisplayTitle returns title, filename, or URL in order of preference
func (dt *DownloadTask) GetDisplayTitle() string {
	if dt.Title != "" && !strings.HasPrefix(dt.Title, "http") {
		return dt.Title
	}

	if dt.OutputPath != "" {
		parts := strings.FieldsFunc(dt.OutputPath, func(r rune) bool {
			return r == '/' || r == '\\'
		})
		if len(parts) > 0 {
			filename := parts[len(parts)-1]
			if idx := strings.LastIndex(filename, "."); idx > 0 {
				filename = filename[:idx]
			}
			return filename
		}
	}

	return dt.URL
}

// BatchSummary counts task outcomes of one RunDownloads call
type BatchSummary struct {
	Total     int
	Completed int
	Failed    int
	FellBack  int
}

// Add folds a finished task into the summary
func (bs *BatchSummary) Add(task *DownloadTask) {
	bs.Total++
	if task.FellBack {
		bs.FellBack++
	}
	if task.Status == TaskStatusCompleted {
		bs.Completed++
	} else {
		bs.Failed++
	}
}
