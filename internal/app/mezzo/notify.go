package mezzo

import (
	"time"

	"go.uber.org/zap"
)

// Notifier receives the observations of one guide run. Implementations
// present them to the user and persist the finished document.
type Notifier interface {
	// Started is reported once, before the first page fetch.
	Started()
	// Progress is reported after each accepted list item. fraction is the
	// item's position within its channel section, in [0, 1).
	Progress(day time.Time, start time.Time, fraction float64)
	// Finished is reported exactly once: with the final document, or with
	// the run's terminal failure and an empty document.
	Finished(document string, err error)
}

// NopNotifier discards all signals.
type NopNotifier struct{}

func (NopNotifier) Started() {}

func (NopNotifier) Progress(time.Time, time.Time, float64) {}

func (NopNotifier) Finished(string, error) {}

// LogNotifier reports run progress through the zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: zap.L()}
}

func (n *LogNotifier) Started() {
	n.logger.Info("Processing the schedule...")
}

func (n *LogNotifier) Progress(day time.Time, start time.Time, fraction float64) {
	n.logger.Debug("Schedule item processed.",
		zap.String("day", day.Format("2006-01-02")),
		zap.String("time", start.Format("15:04")),
		zap.Float64("progress", fraction))
}

func (n *LogNotifier) Finished(document string, err error) {
	if err != nil {
		n.logger.Error("The guide run failed.", zap.Error(err))
		return
	}
	n.logger.Info("The guide run has been completed.", zap.Int("bytes", len(document)))
}
