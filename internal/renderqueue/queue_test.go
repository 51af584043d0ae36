package renderqueue

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielledeleo/seocms/cms"
	"github.com/danielledeleo/seocms/render"
)

func testPage(key, content string) *cms.Page {
	p := cms.NewPage(key, key)
	p.Content = content
	return p
}

func pageJob(key, content string, tier Tier) Job {
	return Job{Page: testPage(key, content), Tier: tier, SubmittedAt: time.Now()}
}

// mockRender wraps the page content in a paragraph.
func mockRender(page *cms.Page) (*render.RenderedPage, error) {
	return &render.RenderedPage{Page: page, Body: "<p>" + page.Content + "</p>"}, nil
}

// slowRender creates a render function that takes specified duration
func slowRender(d time.Duration) RenderFunc {
	return func(page *cms.Page) (*render.RenderedPage, error) {
		time.Sleep(d)
		return mockRender(page)
	}
}

func errorRender(err error) RenderFunc {
	return func(page *cms.Page) (*render.RenderedPage, error) {
		return nil, err
	}
}

func body(r Result) string {
	if r.Rendered == nil {
		return ""
	}
	return r.Rendered.Body
}

func TestQueue_BasicSubmitAndReceive(t *testing.T) {
	q := New(2, mockRender)
	defer q.Shutdown(context.Background())

	waitCh := make(chan Result, 1)
	if err := q.Submit(context.Background(), pageJob("about", "Hello World", TierInteractive), waitCh); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	select {
	case result := <-waitCh:
		if result.Err != nil {
			t.Fatalf("expected no error, got: %v", result.Err)
		}
		if got := body(result); got != "<p>Hello World</p>" {
			t.Errorf("expected body %q, got %q", "<p>Hello World</p>", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for result")
	}
}

func TestQueue_Render(t *testing.T) {
	q := New(1, mockRender)
	defer q.Shutdown(context.Background())

	rendered, err := q.Render(context.Background(), testPage("about", "hi"), TierInteractive)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if rendered.Body != "<p>hi</p>" || rendered.Page.PageKey != "about" {
		t.Errorf("rendered = %+v", rendered)
	}
}

func TestQueue_RenderContextDone(t *testing.T) {
	q := New(1, slowRender(time.Second))
	defer q.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Render(ctx, testPage("slow", "x"), TierInteractive)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestQueue_SubmitWithoutPage(t *testing.T) {
	q := New(1, mockRender)
	defer q.Shutdown(context.Background())

	if err := q.Submit(context.Background(), Job{Tier: TierInteractive}, nil); err == nil {
		t.Error("expected error for job without page")
	}
}

func TestQueue_PriorityOrdering(t *testing.T) {
	var processOrder []string
	var mu sync.Mutex

	trackingRender := func(page *cms.Page) (*render.RenderedPage, error) {
		mu.Lock()
		processOrder = append(processOrder, page.PageKey)
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		return mockRender(page)
	}

	// One worker so jobs run in queue order.
	q := New(1, trackingRender)

	// Occupy the worker so the following jobs queue up.
	blockCh := make(chan Result, 1)
	if err := q.Submit(context.Background(), pageJob("blocker", "", TierInteractive), blockCh); err != nil {
		t.Fatalf("Submit blocker failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	bgWait1 := make(chan Result, 1)
	bgWait2 := make(chan Result, 1)
	intWait := make(chan Result, 1)

	now := time.Now()
	bg1 := Job{Page: testPage("background1", ""), Tier: TierBackground, SubmittedAt: now}
	bg2 := Job{Page: testPage("background2", ""), Tier: TierBackground, SubmittedAt: now.Add(time.Millisecond)}
	interactive := Job{Page: testPage("interactive", ""), Tier: TierInteractive, SubmittedAt: now.Add(2 * time.Millisecond)}

	if err := q.Submit(context.Background(), bg1, bgWait1); err != nil {
		t.Fatalf("Submit bg1 failed: %v", err)
	}
	if err := q.Submit(context.Background(), bg2, bgWait2); err != nil {
		t.Fatalf("Submit bg2 failed: %v", err)
	}
	if err := q.Submit(context.Background(), interactive, intWait); err != nil {
		t.Fatalf("Submit int failed: %v", err)
	}

	<-blockCh
	<-bgWait1
	<-bgWait2
	<-intWait

	q.Shutdown(context.Background())

	mu.Lock()
	defer mu.Unlock()

	want := []string{"blocker", "interactive", "background1", "background2"}
	if len(processOrder) != len(want) {
		t.Fatalf("expected %d jobs processed, got %d: %v", len(want), len(processOrder), processOrder)
	}
	for i := range want {
		if processOrder[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], processOrder[i])
		}
	}
}

func TestQueue_SamePageDeduplication(t *testing.T) {
	var renderedContent string
	var renderCount int
	var mu sync.Mutex

	trackingRender := func(page *cms.Page) (*render.RenderedPage, error) {
		mu.Lock()
		renderedContent = page.Content
		renderCount++
		mu.Unlock()
		time.Sleep(50 * time.Millisecond)
		return mockRender(page)
	}

	q := New(1, trackingRender)

	blockCh := make(chan Result, 1)
	if err := q.Submit(context.Background(), pageJob("blocker", "blocker", TierInteractive), blockCh); err != nil {
		t.Fatalf("Submit blocker failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	wait1 := make(chan Result, 1)
	if err := q.Submit(context.Background(), pageJob("pricing", "version1", TierInteractive), wait1); err != nil {
		t.Fatalf("Submit job1 failed: %v", err)
	}

	// A second edit of the same page replaces the first.
	wait2 := make(chan Result, 1)
	if err := q.Submit(context.Background(), pageJob("pricing", "version2", TierInteractive), wait2); err != nil {
		t.Fatalf("Submit job2 failed: %v", err)
	}

	<-blockCh
	result1 := <-wait1
	result2 := <-wait2

	q.Shutdown(context.Background())

	expected := "<p>version2</p>"
	if got := body(result1); got != expected {
		t.Errorf("wait1: expected %q, got %q", expected, got)
	}
	if got := body(result2); got != expected {
		t.Errorf("wait2: expected %q, got %q", expected, got)
	}

	mu.Lock()
	defer mu.Unlock()
	if renderCount != 2 {
		t.Errorf("expected 2 renders (blocker + deduplicated), got %d", renderCount)
	}
	if renderedContent != "version2" {
		t.Errorf("expected last rendered content to be 'version2', got %q", renderedContent)
	}
}

func TestQueue_DeduplicationRaisesTier(t *testing.T) {
	var processOrder []string
	var mu sync.Mutex

	trackingRender := func(page *cms.Page) (*render.RenderedPage, error) {
		mu.Lock()
		processOrder = append(processOrder, page.PageKey)
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		return mockRender(page)
	}

	q := New(1, trackingRender)

	blockCh := make(chan Result, 1)
	q.Submit(context.Background(), pageJob("blocker", "", TierInteractive), blockCh)
	time.Sleep(5 * time.Millisecond)

	now := time.Now()
	waits := make([]chan Result, 3)
	for i := range waits {
		waits[i] = make(chan Result, 1)
	}
	q.Submit(context.Background(), Job{Page: testPage("other", ""), Tier: TierBackground, SubmittedAt: now}, waits[0])
	q.Submit(context.Background(), Job{Page: testPage("batch", ""), Tier: TierBackground, SubmittedAt: now.Add(time.Millisecond)}, waits[1])
	// A visitor asks for the batch page while it is still queued.
	q.Submit(context.Background(), Job{Page: testPage("batch", ""), Tier: TierInteractive, SubmittedAt: now.Add(2 * time.Millisecond)}, waits[2])

	<-blockCh
	for _, w := range waits {
		<-w
	}
	q.Shutdown(context.Background())

	mu.Lock()
	defer mu.Unlock()
	want := []string{"blocker", "batch", "other"}
	if fmt.Sprint(processOrder) != fmt.Sprint(want) {
		t.Errorf("process order = %v, want %v", processOrder, want)
	}
}

func TestQueue_MultipleWaitersForSamePage(t *testing.T) {
	q := New(1, slowRender(50*time.Millisecond))

	blockCh := make(chan Result, 1)
	if err := q.Submit(context.Background(), pageJob("blocker", "", TierInteractive), blockCh); err != nil {
		t.Fatalf("Submit blocker failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	waiters := make([]chan Result, 5)
	for i := range waiters {
		waiters[i] = make(chan Result, 1)
		if err := q.Submit(context.Background(), pageJob("home", "final-version", TierInteractive), waiters[i]); err != nil {
			t.Fatalf("Submit %d failed: %v", i, err)
		}
	}

	<-blockCh

	expected := "<p>final-version</p>"
	for i, ch := range waiters {
		select {
		case result := <-ch:
			if result.Err != nil {
				t.Errorf("waiter %d: unexpected error: %v", i, result.Err)
			}
			if got := body(result); got != expected {
				t.Errorf("waiter %d: expected %q, got %q", i, expected, got)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("waiter %d: timeout", i)
		}
	}

	q.Shutdown(context.Background())
}

func TestQueue_ConcurrentSubmitAndPop(t *testing.T) {
	var completed int64
	countingRender := func(page *cms.Page) (*render.RenderedPage, error) {
		time.Sleep(time.Millisecond)
		atomic.AddInt64(&completed, 1)
		return mockRender(page)
	}

	q := New(4, countingRender)

	const numJobs = 100
	var wg sync.WaitGroup
	wg.Add(numJobs)

	for i := 0; i < numJobs; i++ {
		go func(idx int) {
			defer wg.Done()
			waitCh := make(chan Result, 1)
			job := pageJob(fmt.Sprintf("page-%d", idx%30), "content", Tier(idx%2))
			if err := q.Submit(context.Background(), job, waitCh); err != nil {
				t.Errorf("Submit %d failed: %v", idx, err)
				return
			}
			<-waitCh
		}(i)
	}

	wg.Wait()
	q.Shutdown(context.Background())

	// Deduplication may merge jobs, so only a lower bound holds.
	if atomic.LoadInt64(&completed) == 0 {
		t.Error("expected some jobs to complete")
	}
}

func TestQueue_GracefulShutdown(t *testing.T) {
	var completed int64
	slowCountingRender := func(page *cms.Page) (*render.RenderedPage, error) {
		time.Sleep(50 * time.Millisecond)
		atomic.AddInt64(&completed, 1)
		return mockRender(page)
	}

	q := New(2, slowCountingRender)

	for i := 0; i < 5; i++ {
		job := pageJob(fmt.Sprintf("shutdown-%d", i), "content", TierInteractive)
		if err := q.Submit(context.Background(), job, make(chan Result, 1)); err != nil {
			t.Fatalf("Submit %d failed: %v", i, err)
		}
	}

	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}

	if got := atomic.LoadInt64(&completed); got != 5 {
		t.Errorf("expected all 5 jobs to complete during shutdown, got %d", got)
	}

	err := q.Submit(context.Background(), pageJob("late", "should fail", TierInteractive), make(chan Result, 1))
	if !errors.Is(err, ErrQueueClosed) {
		t.Errorf("expected ErrQueueClosed, got: %v", err)
	}

	// Shutting down twice is harmless.
	if err := q.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}

func TestQueue_WorkerPanicRecovery(t *testing.T) {
	var callCount int64

	panicOnceRender := func(page *cms.Page) (*render.RenderedPage, error) {
		if atomic.AddInt64(&callCount, 1) == 1 {
			panic("intentional panic")
		}
		return mockRender(page)
	}

	q := New(1, panicOnceRender)
	defer q.Shutdown(context.Background())

	wait1 := make(chan Result, 1)
	if err := q.Submit(context.Background(), pageJob("panics", "will panic", TierInteractive), wait1); err != nil {
		t.Fatalf("Submit job1 failed: %v", err)
	}

	select {
	case result := <-wait1:
		if result.Err == nil {
			t.Error("expected error from panic")
		}
		if result.Rendered != nil {
			t.Errorf("expected no page on panic, got %+v", result.Rendered)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for panic result")
	}

	// The worker survives the panic.
	wait2 := make(chan Result, 1)
	if err := q.Submit(context.Background(), pageJob("after-panic", "should work", TierInteractive), wait2); err != nil {
		t.Fatalf("Submit job2 failed: %v", err)
	}

	select {
	case result := <-wait2:
		if result.Err != nil {
			t.Errorf("expected no error after recovery, got: %v", result.Err)
		}
		if got := body(result); got != "<p>should work</p>" {
			t.Errorf("expected %q, got %q", "<p>should work</p>", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for recovery result")
	}
}

func TestQueue_EmptyQueue(t *testing.T) {
	var processCount int64
	trackingRender := func(page *cms.Page) (*render.RenderedPage, error) {
		atomic.AddInt64(&processCount, 1)
		return mockRender(page)
	}

	q := New(2, trackingRender)

	// Idle workers must not spin.
	time.Sleep(100 * time.Millisecond)

	if atomic.LoadInt64(&processCount) != 0 {
		t.Error("workers should not process when queue is empty")
	}

	waitCh := make(chan Result, 1)
	if err := q.Submit(context.Background(), pageJob("delayed", "content", TierInteractive), waitCh); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	select {
	case result := <-waitCh:
		if result.Err != nil {
			t.Errorf("unexpected error: %v", result.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for result")
	}

	if atomic.LoadInt64(&processCount) != 1 {
		t.Errorf("expected 1 job processed, got %d", atomic.LoadInt64(&processCount))
	}

	q.Shutdown(context.Background())
}

func TestQueue_RenderError(t *testing.T) {
	renderErr := errors.New("render failed")
	q := New(1, errorRender(renderErr))
	defer q.Shutdown(context.Background())

	waitCh := make(chan Result, 1)
	if err := q.Submit(context.Background(), pageJob("broken", "content", TierInteractive), waitCh); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	select {
	case result := <-waitCh:
		if !errors.Is(result.Err, renderErr) {
			t.Errorf("expected %v, got %v", renderErr, result.Err)
		}
		if result.Rendered != nil {
			t.Errorf("expected no page on error, got %+v", result.Rendered)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for error result")
	}
}

func TestQueue_ShutdownTimeout(t *testing.T) {
	q := New(1, slowRender(10*time.Second))

	if err := q.Submit(context.Background(), pageJob("forever", "content", TierInteractive), make(chan Result, 1)); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := q.Shutdown(ctx)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got: %v", err)
	}
}

func TestQueue_NilWaiterChannel(t *testing.T) {
	q := New(1, mockRender)
	defer q.Shutdown(context.Background())

	if err := q.Submit(context.Background(), pageJob("fire-and-forget", "content", TierBackground), nil); err != nil {
		t.Fatalf("Submit with nil channel failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
}

func TestHeap_Ordering(t *testing.T) {
	h := &jobHeap{}
	heap.Init(h)

	now := time.Now()

	jobs := []*Job{
		{Page: testPage("bg-late", ""), Tier: TierBackground, SubmittedAt: now.Add(2 * time.Millisecond)},
		{Page: testPage("int-early", ""), Tier: TierInteractive, SubmittedAt: now},
		{Page: testPage("bg-early", ""), Tier: TierBackground, SubmittedAt: now},
		{Page: testPage("int-late", ""), Tier: TierInteractive, SubmittedAt: now.Add(time.Millisecond)},
	}

	for _, j := range jobs {
		heap.Push(h, j)
	}

	expected := []string{"int-early", "int-late", "bg-early", "bg-late"}
	for i, exp := range expected {
		if h.Len() == 0 {
			t.Fatalf("heap empty before getting all expected items")
		}
		job := heap.Pop(h).(*Job)
		if job.key() != exp {
			t.Errorf("pop %d: expected %s, got %s", i, exp, job.key())
		}
	}

	if h.Len() != 0 {
		t.Error("heap should be empty after popping all jobs")
	}
}

func TestHeap_SameTimeOrdersByKey(t *testing.T) {
	h := &jobHeap{}
	now := time.Now()
	for _, key := range []string{"c", "a", "b"} {
		heap.Push(h, &Job{Page: testPage(key, ""), Tier: TierBackground, SubmittedAt: now})
	}

	for _, want := range []string{"a", "b", "c"} {
		if got := heap.Pop(h).(*Job).key(); got != want {
			t.Errorf("pop = %s, want %s", got, want)
		}
	}
}

func TestQueue_Pending(t *testing.T) {
	release := make(chan struct{})
	q := New(1, func(page *cms.Page) (*render.RenderedPage, error) {
		<-release
		return mockRender(page)
	})
	defer q.Shutdown(context.Background())

	// The single worker blocks on the first job; the rest stay queued.
	started := make(chan Result, 1)
	if err := q.Submit(context.Background(), pageJob("first", "", TierInteractive), started); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for q.Pending(TierInteractive) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	for _, key := range []string{"a", "b"} {
		if err := q.Submit(context.Background(), pageJob(key, "", TierBackground), nil); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}
	if err := q.Submit(context.Background(), pageJob("c", "", TierInteractive), nil); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if got := q.Pending(TierBackground); got != 2 {
		t.Errorf("Pending(TierBackground) = %d, want 2", got)
	}
	if got := q.Pending(TierInteractive); got != 1 {
		t.Errorf("Pending(TierInteractive) = %d, want 1", got)
	}
	close(release)
	<-started
}

func TestHeap_FixAfterUpdate(t *testing.T) {
	h := &jobHeap{}
	heap.Init(h)

	now := time.Now()

	job1 := &Job{Page: testPage("job1", ""), Tier: TierBackground, SubmittedAt: now.Add(time.Second)}
	job2 := &Job{Page: testPage("job2", ""), Tier: TierBackground, SubmittedAt: now}

	heap.Push(h, job1)
	heap.Push(h, job2)

	if (*h)[0].key() != "job2" {
		t.Error("job2 should be at top initially")
	}

	job1.Tier = TierInteractive
	heap.Fix(h, job1.heapIndex)

	if (*h)[0].key() != "job1" {
		t.Error("job1 should be at top after becoming interactive")
	}
}

func TestQueue_ShutdownDrainsPendingJobs(t *testing.T) {
	var processed sync.Map
	started := make(chan struct{})

	renderFn := func(page *cms.Page) (*render.RenderedPage, error) {
		if page.PageKey == "blocker" {
			close(started)
			time.Sleep(50 * time.Millisecond)
		}
		processed.Store(page.PageKey, true)
		return mockRender(page)
	}

	q := New(1, renderFn)

	blockerWait := make(chan Result, 1)
	if err := q.Submit(context.Background(), pageJob("blocker", "blocker", TierInteractive), blockerWait); err != nil {
		t.Fatalf("Submit blocker failed: %v", err)
	}

	<-started

	const pendingCount = 5
	waiters := make([]chan Result, pendingCount)
	for i := 0; i < pendingCount; i++ {
		waiters[i] = make(chan Result, 1)
		key := fmt.Sprintf("pending-%d", i)
		job := Job{
			Page:        testPage(key, key),
			Tier:        TierBackground,
			SubmittedAt: time.Now().Add(time.Duration(i) * time.Millisecond),
		}
		if err := q.Submit(context.Background(), job, waiters[i]); err != nil {
			t.Fatalf("Submit %s failed: %v", key, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := q.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	select {
	case result := <-blockerWait:
		if result.Err != nil {
			t.Errorf("blocker: unexpected error: %v", result.Err)
		}
	default:
		t.Error("blocker waiter did not receive result")
	}

	for i := 0; i < pendingCount; i++ {
		select {
		case result := <-waiters[i]:
			if result.Err != nil {
				t.Errorf("pending-%d: unexpected error: %v", i, result.Err)
			}
			expected := fmt.Sprintf("<p>pending-%d</p>", i)
			if got := body(result); got != expected {
				t.Errorf("pending-%d: expected %q, got %q", i, expected, got)
			}
		default:
			t.Errorf("pending-%d waiter did not receive result (job was not drained)", i)
		}
	}

	for i := 0; i < pendingCount; i++ {
		key := fmt.Sprintf("pending-%d", i)
		if _, ok := processed.Load(key); !ok {
			t.Errorf("%s was never rendered", key)
		}
	}
}
