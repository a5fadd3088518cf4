package model

// HookStatus is the state reported by a backend progress hook
type HookStatus string

const (
	HookStatusDownloading HookStatus = "downloading"
	HookStatusFinished    HookStatus = "finished"
)

// HookEvent is one progress notification from the extended backend
type HookEvent struct {
	Status             HookStatus
	DownloadedBytes    int64
	TotalBytes         int64
	TotalBytesEstimate int64
}

// Total returns the best known total size, or 1 when it is unknown
func (e HookEvent) Total() int64 {
	if e.TotalBytes > 0 {
		return e.TotalBytes
	}
	if e.TotalBytesEstimate > 0 {
		return e.TotalBytesEstimate
	}
	return 1
}

// ProgressEvent is a snapshot of the current file and of the whole batch
type ProgressEvent struct {
	Fraction  float64 // current file, 0.0 to 1.0
	Message   string
	Completed int
	Total     int
}

// Clamp limits f to [0, 1]
func Clamp(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// OverallFraction returns Completed/Total, 0 for an empty batch
func (p ProgressEvent) OverallFraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return Clamp(float64(p.Completed) / float64(p.Total))
}
