package model

// TaskStatus represents the status of a single URL within a batch
type TaskStatus string

const (
	// TaskStatusPending means the URL is queued but not started
	TaskStatusPending TaskStatus = "Pending"

	// TaskStatusFetchingMetadata means the title and streams are being resolved
	TaskStatusFetchingMetadata TaskStatus = "FetchingMetadata"

	// TaskStatusDownloading means the transfer is in progress
	TaskStatusDownloading TaskStatus = "Downloading"

	// TaskStatusFallingBack means the high quality path failed and the
	// progressive path is being attempted instead
	TaskStatusFallingBack TaskStatus = "FallingBack"

	// TaskStatusCompleted means the file was written
	TaskStatusCompleted TaskStatus = "Completed"

	// TaskStatusError means the URL failed on every attempted path
	TaskStatusError TaskStatus = "Error"
)

// String returns the string representation of TaskStatus
func (ts TaskStatus) String() string {
	return string(ts)
}

// IsFinished returns true if the task is in a finished state (completed or error)
func (ts TaskStatus) IsFinished() bool {
	return ts == TaskStatusCompleted || ts == TaskStatusError
}

// Strategy names the download path used for a task
type Strategy string

const (
	// StrategyStandard downloads a single progressive (audio+video) stream
	StrategyStandard Strategy = "standard"

	// StrategyHighQuality downloads split streams and merges them with ffmpeg
	StrategyHighQuality Strategy = "high_quality"
)

// String returns the string representation of Strategy
func (s Strategy) String() string {
	return string(s)
}
