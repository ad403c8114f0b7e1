package logger

import (
	"time"

	"github.com/unixpickle/skinproxy/job"
	"go.uber.org/zap"
)

// A ProgressReporter logs job progress at info level.
//
// A line is written whenever the label changes and whenever the fraction
// crosses another Step. Stages are timed from their first report.
type ProgressReporter struct {
	Step float64

	label string
	next  float64
	start time.Time
}

// NewProgressReporter creates a reporter which logs every 25%.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{Step: 0.25}
}

// Report is suitable as the callback for job.Run.
func (p *ProgressReporter) Report(prog job.Progress) {
	if prog.Label != p.label {
		p.Finish()
		p.label = prog.Label
		p.next = 0
		p.start = time.Now()
	}
	if prog.Fraction < p.next {
		return
	}
	Log.Info(prog.Label, zap.Float64("progress", prog.Fraction))
	for p.next <= prog.Fraction {
		p.next += max(p.Step, 0.01)
	}
}

// Finish logs the duration of the current stage, if there is one.
func (p *ProgressReporter) Finish() {
	if p.label == "" {
		return
	}
	Log.Debug(p.label+" done", zap.Duration("elapsed", time.Since(p.start)))
	p.label = ""
}
