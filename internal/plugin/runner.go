package plugin

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/denwilliams/go-wled-race/internal/lighting"
	"github.com/denwilliams/go-wled-race/internal/logging"
)

// Sender delivers a single command to the matrix.
type Sender interface {
	Send(ctx context.Context, cmd lighting.Command) error
}

// Runner plays sequences one at a time on a single goroutine. Submitting a
// sequence while another is holding cuts the hold short and drops the rest
// of the running sequence. Only the latest submission is kept while a send is
// in flight.
type Runner struct {
	sender Sender

	mu      sync.Mutex
	pending *lighting.Sequence
	wake    chan struct{}

	running   atomic.Bool
	played    atomic.Int64
	preempted atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

func NewRunner(sender Sender) *Runner {
	return &Runner{
		sender: sender,
		wake:   make(chan struct{}, 1),
	}
}

// Submit hands a sequence to the runner and returns immediately.
func (r *Runner) Submit(seq lighting.Sequence) {
	r.mu.Lock()
	if r.pending != nil {
		r.dropped.Inc()
		logging.Debug("Replacing pending %s sequence with %s", r.pending.Event, seq.Event)
	}
	r.pending = &seq
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is done. It must only be called once.
func (r *Runner) Run(ctx context.Context) {
	if !r.running.CompareAndSwap(false, true) {
		logging.Warn("Runner already started")
		return
	}
	defer r.running.Store(false)

	logging.Debug("Runner started")
	for {
		select {
		case <-ctx.Done():
			logging.Debug("Runner stopped")
			return
		case <-r.wake:
		}

		seq := r.take()
		for seq != nil {
			seq = r.play(ctx, seq)
		}
	}
}

// Play runs one sequence synchronously on the caller's goroutine.
func (r *Runner) Play(ctx context.Context, seq lighting.Sequence) {
	for _, step := range seq.Steps {
		if ctx.Err() != nil {
			return
		}
		r.send(ctx, seq, step.Command)
		if step.Hold > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(step.Hold):
			}
		}
	}
	r.played.Inc()
}

func (r *Runner) take() *lighting.Sequence {
	r.mu.Lock()
	defer r.mu.Unlock()
	seq := r.pending
	r.pending = nil
	return seq
}

// play returns the sequence that preempted seq, if any.
func (r *Runner) play(ctx context.Context, seq *lighting.Sequence) *lighting.Sequence {
	for i, step := range seq.Steps {
		r.send(ctx, *seq, step.Command)

		if step.Hold <= 0 || i == len(seq.Steps)-1 {
			continue
		}

		if next, stop := r.hold(ctx, step.Hold); stop {
			if next != nil {
				r.preempted.Inc()
				logging.Debug("%s sequence preempted by %s", seq.Event, next.Event)
			}
			return next
		}
	}
	r.played.Inc()
	return nil
}

// hold waits for d. It stops early on cancellation or when a new sequence
// arrives, returning that sequence.
func (r *Runner) hold(ctx context.Context, d time.Duration) (*lighting.Sequence, bool) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, true
		case <-timer.C:
			return nil, false
		case <-r.wake:
			// A wake can outlive the submission it announced.
			if next := r.take(); next != nil {
				return next, true
			}
		}
	}
}

func (r *Runner) send(ctx context.Context, seq lighting.Sequence, cmd lighting.Command) {
	if err := r.sender.Send(ctx, cmd); err != nil {
		r.failed.Inc()
		logging.Debug("Dropped %s command for %s: %s", seq.Event, cmd, err)
	}
}

type RunnerStats struct {
	Played    int64 `json:"played"`
	Preempted int64 `json:"preempted"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
}

func (r *Runner) Stats() RunnerStats {
	return RunnerStats{
		Played:    r.played.Load(),
		Preempted: r.preempted.Load(),
		Failed:    r.failed.Load(),
		Dropped:   r.dropped.Load(),
	}
}
