package project

import (
	"sync"

	"github.com/pkg/errors"
)

var ErrQueueClosed = errors.New("mutation queue closed")

type job struct {
	run  func() error
	done chan error
}

// Queue hands mutations from other goroutines to the frame thread, which
// runs them in arrival order with Drain.
type Queue struct {
	mu     sync.Mutex
	jobs   []job
	closed bool
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) push(j job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.jobs = append(q.jobs, j)
	return nil
}

// Push queues f without waiting for it.
func (q *Queue) Push(f func() error) error {
	return q.push(job{run: f})
}

// Do queues f and blocks until the frame thread has run it, returning f's
// error.
func (q *Queue) Do(f func() error) error {
	done := make(chan error, 1)
	if err := q.push(job{run: f, done: done}); err != nil {
		return err
	}
	return <-done
}

// Drain runs every queued job and returns how many ran. Jobs queued while
// draining wait for the next call.
func (q *Queue) Drain() int {
	q.mu.Lock()
	jobs := q.jobs
	q.jobs = nil
	q.mu.Unlock()

	for _, j := range jobs {
		err := j.run()
		if j.done != nil {
			j.done <- err
		}
	}
	return len(jobs)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Close rejects new jobs and fails the ones still waiting.
func (q *Queue) Close() {
	q.mu.Lock()
	jobs := q.jobs
	q.jobs = nil
	q.closed = true
	q.mu.Unlock()

	for _, j := range jobs {
		if j.done != nil {
			j.done <- ErrQueueClosed
		}
	}
}
