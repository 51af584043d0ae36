// Package renderqueue runs page renders on a bounded pool of workers.
// Visitor requests go ahead of batch work, repeated submissions for the same
// page collapse into one render, and shutdown finishes queued jobs first.
package renderqueue

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/danielledeleo/seocms/cms"
	"github.com/danielledeleo/seocms/render"
)

// ErrQueueClosed is returned when Submit is called on a closed queue.
var ErrQueueClosed = errors.New("render queue is closed")

// Tier represents the priority tier of a render job.
type Tier int

const (
	// TierInteractive is for page views and previews.
	TierInteractive Tier = iota
	// TierBackground is for the publication batch and cache warming.
	TierBackground
)

// Job is a request to render one page.
type Job struct {
	Page        *cms.Page // Page to render; replaced by later submissions for the same key
	Tier        Tier
	SubmittedAt time.Time // FIFO ordering within a tier
	heapIndex   int
}

func (j *Job) key() string {
	return j.Page.PageKey
}

// Result contains the outcome of a render job.
type Result struct {
	Rendered *render.RenderedPage // nil on error
	Err      error
}

// RenderFunc renders a page.
type RenderFunc func(page *cms.Page) (*render.RenderedPage, error)

// Queue manages a pool of workers that process render jobs in priority order.
type Queue struct {
	render      RenderFunc
	mu          sync.Mutex
	heap        *jobHeap
	pageJobs    map[string]*Job          // dedup by page key
	waiters     map[string][]chan Result // notification channels by page key
	jobReady    chan struct{}            // buffered(1), signals workers
	closed      bool
	closeCh     chan struct{}
	wg          sync.WaitGroup
	workerCount int
}

// New creates a render queue with the specified number of workers.
func New(workerCount int, renderFn RenderFunc) *Queue {
	if workerCount < 1 {
		workerCount = 1
	}

	q := &Queue{
		render:      renderFn,
		heap:        &jobHeap{},
		pageJobs:    make(map[string]*Job),
		waiters:     make(map[string][]chan Result),
		jobReady:    make(chan struct{}, 1),
		closeCh:     make(chan struct{}),
		workerCount: workerCount,
	}

	heap.Init(q.heap)

	// Start worker goroutines
	q.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go q.worker()
	}

	return q
}

// Submit adds a job to the queue. If a job for the same page is already queued,
// it takes the newer page but keeps its queue position. The waiter channel,
// if non-nil, receives the result when the job completes.
//
// Returns ErrQueueClosed if the queue has been shut down.
func (q *Queue) Submit(ctx context.Context, job Job, waitCh chan Result) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if job.Page == nil {
		return errors.New("render job has no page")
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	key := job.key()

	if existing, ok := q.pageJobs[key]; ok {
		// SubmittedAt is kept so the job holds its place.
		existing.Page = job.Page
		if job.Tier < existing.Tier {
			existing.Tier = job.Tier
			heap.Fix(q.heap, existing.heapIndex)
		}
	} else {
		jobCopy := job
		q.pageJobs[key] = &jobCopy
		heap.Push(q.heap, &jobCopy)
	}

	if waitCh != nil {
		q.waiters[key] = append(q.waiters[key], waitCh)
	}

	// Signal that a job is ready (non-blocking since channel is buffered)
	select {
	case q.jobReady <- struct{}{}:
	default:
	}

	return nil
}

// Shutdown gracefully shuts down the queue. It stops accepting new jobs,
// drains any pending jobs from the queue, waits for in-flight jobs to complete
// (up to context deadline), then returns. Returns context error if the deadline
// is exceeded.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeCh)
	q.mu.Unlock()

	// Wait for workers to finish with timeout
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

// worker is the main worker loop that processes jobs from the queue.
func (q *Queue) worker() {
	defer q.wg.Done()

	for {
		// Wait for work or shutdown
		select {
		case <-q.closeCh:
			// Drain remaining jobs before exiting
			for q.processOneJob() {
			}
			return
		case <-q.jobReady:
			// Try to get and process a job
			q.processOneJob()
		}
	}
}

// processOneJob attempts to pop and process one job from the queue.
// Returns true if a job was processed, false if the queue was empty.
func (q *Queue) processOneJob() bool {
	// Pop job under lock
	q.mu.Lock()
	if q.heap.Len() == 0 {
		q.mu.Unlock()
		return false
	}

	job := heap.Pop(q.heap).(*Job)
	key := job.key()
	page := job.Page
	delete(q.pageJobs, key)

	// Get waiters for this job (will notify outside lock)
	jobWaiters := q.waiters[key]
	delete(q.waiters, key)

	// Check if more jobs are pending, signal next worker
	if q.heap.Len() > 0 {
		select {
		case q.jobReady <- struct{}{}:
		default:
		}
	}

	q.mu.Unlock()

	// Process job (outside lock)
	result := q.executeRender(page)

	// Notify all waiters (outside lock, non-blocking)
	for _, ch := range jobWaiters {
		if ch != nil {
			select {
			case ch <- result:
			default:
				// Waiter abandoned (buffer full or closed), skip
			}
		}
	}

	return true
}

// executeRender calls the render function with panic recovery.
func (q *Queue) executeRender(page *cms.Page) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{Err: fmt.Errorf("render panic on %s: %v", page.PageKey, r)}
		}
	}()

	rendered, err := q.render(page)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Rendered: rendered}
}

// Pending returns the number of jobs in tier that are queued and not yet
// started.
func (q *Queue) Pending(tier Tier) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.countTier(tier)
}

// Render submits page and waits for its result or for ctx to be done.
func (q *Queue) Render(ctx context.Context, page *cms.Page, tier Tier) (*render.RenderedPage, error) {
	waitCh := make(chan Result, 1)
	if err := q.Submit(ctx, Job{Page: page, Tier: tier}, waitCh); err != nil {
		return nil, err
	}
	select {
	case result := <-waitCh:
		return result.Rendered, result.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
