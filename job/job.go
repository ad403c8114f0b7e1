// Package job implements resumable long-running operations which report
// progress as they go.
//
// A job is an iter.Seq[Progress]. Ranging over the sequence runs the job to
// completion, breaking out of the loop abandons it, and a Stepper lets a
// caller advance the job one yield at a time from its own scheduler.
package job

import (
	"context"
	"iter"

	"golang.org/x/exp/constraints"
)

// Progress is reported by a job each time it yields control.
type Progress struct {
	Label    string
	Fraction float64
}

// Fraction computes i/n as a float, clamped to [0, 1].
//
// If n is zero, the result is 1, since there is nothing left to do.
func Fraction[I constraints.Integer](i, n I) float64 {
	if n <= 0 {
		return 1
	}
	f := float64(i) / float64(n)
	if f < 0 {
		return 0
	} else if f > 1 {
		return 1
	}
	return f
}

// Empty returns a job that finishes without yielding.
func Empty() iter.Seq[Progress] {
	return func(yield func(Progress) bool) {}
}

// Concat chains jobs together, running each one after the previous finishes.
func Concat(jobs ...iter.Seq[Progress]) iter.Seq[Progress] {
	return func(yield func(Progress) bool) {
		for _, j := range jobs {
			for p := range j {
				if !yield(p) {
					return
				}
			}
		}
	}
}

// Drain runs a job to completion and returns the number of times it yielded.
func Drain(j iter.Seq[Progress]) int {
	var n int
	for range j {
		n++
	}
	return n
}

// Run runs a job to completion, calling report (if non-nil) at every yield.
//
// The context is checked between yields. If it is cancelled, the job is
// abandoned and the context's error is returned. An abandoned job leaves its
// data structure valid but incomplete.
func Run(ctx context.Context, j iter.Seq[Progress], report func(Progress)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for p := range j {
		if report != nil {
			report(p)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Every returns true when i is a multiple of interval. It is used by jobs to
// throttle how often they yield.
func Every(i, interval int) bool {
	return interval <= 1 || i%interval == 0
}

// A Stepper advances a job one yield at a time.
//
// Callers must call Stop if they abandon the job before it is done.
type Stepper struct {
	next func() (Progress, bool)
	stop func()

	last Progress
	done bool
}

// NewStepper wraps a job so it can be driven manually.
func NewStepper(j iter.Seq[Progress]) *Stepper {
	next, stop := iter.Pull(j)
	return &Stepper{next: next, stop: stop}
}

// Step runs the job until its next yield.
//
// The second return value is false once the job has finished, in which case
// the returned Progress is the last one reported.
func (s *Stepper) Step() (Progress, bool) {
	if s.done {
		return s.last, false
	}
	p, ok := s.next()
	if !ok {
		s.done = true
		s.stop()
		return s.last, false
	}
	s.last = p
	return p, true
}

// Done returns true if the job has finished or was stopped.
func (s *Stepper) Done() bool {
	return s.done
}

// Stop abandons the job.
func (s *Stepper) Stop() {
	if !s.done {
		s.done = true
		s.stop()
	}
}
