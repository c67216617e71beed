package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrQueueClosed is returned by Submit after Close.
var ErrQueueClosed = errors.New("push queue closed")

type job struct {
	name string
	fn   func(ctx context.Context) error
}

type worker struct {
	key  string
	mu   sync.Mutex
	jobs []job
	wake chan struct{}
}

func (w *worker) push(j job) {
	w.mu.Lock()
	w.jobs = append(w.jobs, j)
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *worker) pop() (job, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.jobs) == 0 {
		return job{}, false
	}
	j := w.jobs[0]
	w.jobs[0] = job{}
	w.jobs = w.jobs[1:]
	return j, true
}

// Queue runs remote pushes on one goroutine per key, strictly in
// submission order. Submit never blocks on the remote.
type Queue struct {
	log        zerolog.Logger
	jobTimeout time.Duration

	mu      sync.Mutex
	workers map[string]*worker
	pending int
	idle    chan struct{} // closed when pending drops to zero
	closed  bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewQueue creates a queue. jobTimeout bounds a single push; zero means no
// limit.
func NewQueue(jobTimeout time.Duration, log zerolog.Logger) *Queue {
	return &Queue{
		log:        log.With().Str("component", "push-queue").Logger(),
		jobTimeout: jobTimeout,
		workers:    make(map[string]*worker),
		stop:       make(chan struct{}),
	}
}

// Submit appends fn to the queue of key. Failures are logged, never
// retried.
func (q *Queue) Submit(key, name string, fn func(ctx context.Context) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.log.Warn().Str("key", key).Str("job", name).Msg("push dropped, queue closed")
		return ErrQueueClosed
	}

	w := q.workers[key]
	if w == nil {
		w = &worker{key: key, wake: make(chan struct{}, 1)}
		q.workers[key] = w
		q.wg.Add(1)
		go q.run(w)
	}
	if q.pending == 0 {
		q.idle = make(chan struct{})
	}
	q.pending++
	w.push(job{name: name, fn: fn})
	return nil
}

func (q *Queue) run(w *worker) {
	defer q.wg.Done()
	for {
		j, ok := w.pop()
		if !ok {
			select {
			case <-w.wake:
				continue
			case <-q.stop:
				// drain whatever was submitted before Close
				if j, ok = w.pop(); !ok {
					return
				}
			}
		}
		q.exec(w.key, j)
	}
}

func (q *Queue) exec(key string, j job) {
	defer q.done()

	ctx := context.Background()
	if q.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.jobTimeout)
		defer cancel()
	}

	start := time.Now()
	err := j.fn(ctx)
	ev := q.log.Debug()
	if err != nil {
		ev = q.log.Error().Err(err)
	}
	ev.Str("key", key).Str("job", j.name).Dur("took", time.Since(start)).Msg("push finished")
}

func (q *Queue) done() {
	q.mu.Lock()
	q.pending--
	if q.pending == 0 && q.idle != nil {
		close(q.idle)
		q.idle = nil
	}
	q.mu.Unlock()
}

// Flush waits until every submitted job has run or ctx is done.
func (q *Queue) Flush(ctx context.Context) error {
	q.mu.Lock()
	if q.pending == 0 {
		q.mu.Unlock()
		return nil
	}
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs, drains the queued ones and waits for the
// workers to exit or ctx to be done.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.stop)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
