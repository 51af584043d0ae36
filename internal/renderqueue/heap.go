package renderqueue

import "container/heap"

// jobHeap holds queued jobs for container/heap. Interactive jobs come first,
// then the earliest submission. The page key breaks remaining ties so the
// order does not depend on clock resolution.
type jobHeap []*Job

var _ heap.Interface = (*jobHeap)(nil)

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	switch {
	case a.Tier != b.Tier:
		return a.Tier < b.Tier
	case !a.SubmittedAt.Equal(b.SubmittedAt):
		return a.SubmittedAt.Before(b.SubmittedAt)
	}
	return a.key() < b.key()
}

func (h jobHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex, h[j].heapIndex = i, j
}

func (h *jobHeap) Push(x any) {
	job := x.(*Job)
	job.heapIndex = len(*h)
	*h = append(*h, job)
}

func (h *jobHeap) Pop() any {
	old := *h
	last := len(old) - 1
	job := old[last]
	old[last] = nil
	job.heapIndex = -1
	*h = old[:last]
	return job
}

// countTier returns how many queued jobs are in tier t.
func (h jobHeap) countTier(t Tier) int {
	n := 0
	for _, job := range h {
		if job.Tier == t {
			n++
		}
	}
	return n
}
