package download

import "go.uber.org/zap"

// NopObserver discards every event
type NopObserver struct{}

func (NopObserver) Log(string)                      {}
func (NopObserver) OverallProgress(int, int)        {}
func (NopObserver) CurrentProgress(float64, string) {}
func (NopObserver) Complete()                       {}

// MultiObserver fans events out to several observers in order
type MultiObserver []Observer

func (m MultiObserver) Log(message string) {
	for _, o := range m {
		o.Log(message)
	}
}

func (m MultiObserver) OverallProgress(completed, total int) {
	for _, o := range m {
		o.OverallProgress(completed, total)
	}
}

func (m MultiObserver) CurrentProgress(fraction float64, message string) {
	for _, o := range m {
		o.CurrentProgress(fraction, message)
	}
}

func (m MultiObserver) Complete() {
	for _, o := range m {
		o.Complete()
	}
}

// LogObserver mirrors user-facing lines into a zap logger at debug level
type LogObserver struct {
	Logger *zap.Logger
}

func (o LogObserver) Log(message string) {
	o.Logger.Debug(message)
}

func (o LogObserver) OverallProgress(completed, total int) {
	o.Logger.Debug("overall progress", zap.Int("completed", completed), zap.Int("total", total))
}

func (LogObserver) CurrentProgress(float64, string) {}

func (o LogObserver) Complete() {
	o.Logger.Debug("observer complete")
}
