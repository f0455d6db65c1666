package queue

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	logx "streamnotify/pkg/logx"
)

// Handlers are the stateful collaborators task kinds dispatch into. Each
// field is an explicit, typed dependency; a nil handler makes its kind a
// logged no-op rather than a crash.
type Handlers struct {
	Heartbeat  func(ctx context.Context) error
	PinRefresh func(ctx context.Context) error
	Digest     func(ctx context.Context) error
}

// Runner drains the queue from a single goroutine. When nothing is ready
// it sleeps a short fixed quantum and tries again.
type Runner struct {
	queue    *Queue
	handlers Handlers
	quantum  time.Duration
	log      logx.Logger
}

const defaultQuantum = 20 * time.Millisecond

func NewRunner(q *Queue, h Handlers, log logx.Logger) *Runner {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Runner{queue: q, handlers: h, quantum: defaultQuantum, log: log}
}

// Run loops until ctx is done. Task failures are logged with id and kind
// and never stop the loop; failed tasks are not retried.
func (r *Runner) Run(ctx context.Context) {
	tick := time.NewTimer(r.quantum)
	defer tick.Stop()

	for {
		t, ok := r.queue.PopReady()
		if !ok {
			tick.Reset(r.quantum)
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
			}
			continue
		}

		if err := r.runTask(ctx, t); err != nil {
			r.log.Warn("task failed",
				logx.Uint64("id", t.ID),
				logx.String("kind", t.Kind.String()),
				logx.Err(err))
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (r *Runner) runTask(ctx context.Context, t Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task panicked: %v", rec)
			r.log.Error("panic in task handler",
				logx.Uint64("id", t.ID),
				logx.String("kind", t.Kind.String()),
				logx.String("stack", string(debug.Stack())))
		}
	}()

	r.log.Debug("task run", logx.Uint64("id", t.ID), logx.String("kind", t.Kind.String()))

	switch t.Kind {
	case KindSleep:
		args, ok := t.Payload.(SleepArgs)
		if !ok {
			return fmt.Errorf("sleep task %d: bad payload %T", t.ID, t.Payload)
		}
		return sleepCtx(ctx, args.Dur)

	case KindHeartbeat:
		if r.handlers.Heartbeat == nil {
			r.log.Debug("heartbeat task with no handler", logx.Uint64("id", t.ID))
			return nil
		}
		return r.handlers.Heartbeat(ctx)

	case KindPinRefresh:
		if r.handlers.PinRefresh == nil {
			r.log.Debug("pin refresh task with no handler", logx.Uint64("id", t.ID))
			return nil
		}
		return r.handlers.PinRefresh(ctx)

	case KindDigest:
		if r.handlers.Digest == nil {
			r.log.Debug("digest task with no handler", logx.Uint64("id", t.ID))
			return nil
		}
		return r.handlers.Digest(ctx)

	case KindDebug:
		args, _ := t.Payload.(DebugArgs)
		r.log.Info("debug task", logx.Uint64("id", t.ID), logx.String("note", args.Note))
		return nil

	default:
		return fmt.Errorf("unhandled task kind %d (id %d)", t.Kind, t.ID)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	tm := time.NewTimer(d)
	defer tm.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tm.C:
		return nil
	}
}
