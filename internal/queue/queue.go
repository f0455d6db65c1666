// Package queue holds deferred one-shot tasks ordered by the time they
// become runnable, plus the single cooperative loop that executes them.
package queue

import (
	"sort"
	"sync"
	"time"

	logx "streamnotify/pkg/logx"
)

// Kind selects the handler for a task. The set is closed: the runner
// switches over it exhaustively and rejects anything it does not know.
type Kind int

const (
	KindSleep Kind = iota
	KindHeartbeat
	KindPinRefresh
	KindDigest
	KindDebug
)

func (k Kind) String() string {
	switch k {
	case KindSleep:
		return "sleep"
	case KindHeartbeat:
		return "heartbeat"
	case KindPinRefresh:
		return "pin_refresh"
	case KindDigest:
		return "digest"
	case KindDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// SleepArgs pauses the task loop for Dur. Used to throttle between bursts.
type SleepArgs struct {
	Dur time.Duration
}

// DebugArgs carries a free-form note logged when the task runs.
type DebugArgs struct {
	Note string
}

// Task is one deferred unit of work. Tasks run at most once and are never
// requeued by the runner; periodic behavior re-enqueues explicitly.
type Task struct {
	ID       uint64
	Kind     Kind
	RunAfter time.Time
	Payload  any
}

// Queue is a time-ordered task list. It is internally locked so the tick
// loop, the runner loop, and cron callbacks may all enqueue.
type Queue struct {
	mu        sync.Mutex
	tasks     []Task
	lastID    uint64
	processed uint64

	now func() time.Time
	log logx.Logger
}

func New(log logx.Logger) *Queue {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Queue{now: time.Now, log: log}
}

// Enqueue assigns the next id, stamps RunAfter = now + delay, and inserts
// keeping the list sorted ascending by RunAfter, stable on ties.
func (q *Queue) Enqueue(kind Kind, payload any, delay time.Duration) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.lastID++
	t := Task{
		ID:       q.lastID,
		Kind:     kind,
		RunAfter: q.now().Add(delay),
		Payload:  payload,
	}

	// First index strictly after t.RunAfter: equal timestamps keep
	// insertion order, which breaks ties by ascending id.
	i := sort.Search(len(q.tasks), func(i int) bool {
		return q.tasks[i].RunAfter.After(t.RunAfter)
	})
	q.tasks = append(q.tasks, Task{})
	copy(q.tasks[i+1:], q.tasks[i:])
	q.tasks[i] = t

	q.log.Debug("task enqueued",
		logx.Uint64("id", t.ID),
		logx.String("kind", kind.String()),
		logx.Duration("delay", delay))
	return t.ID
}

// PopReady removes and returns the earliest task whose RunAfter has
// passed. The head of the sorted list is always the earliest candidate,
// so a not-yet-ready head means nothing is ready.
func (q *Queue) PopReady() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 || q.tasks[0].RunAfter.After(q.now()) {
		return Task{}, false
	}

	t := q.tasks[0]
	copy(q.tasks, q.tasks[1:])
	q.tasks = q.tasks[:len(q.tasks)-1]
	q.processed++
	return t, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Processed counts tasks handed out by PopReady since startup.
func (q *Queue) Processed() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.processed
}
