package surgegate

import "sync"

// admissionQueue is the FIFO of pending requests. Strict arrival order:
// priority never reorders admission, it only decides what survives a
// drain. The queue is unbounded unless a capacity is configured.
type admissionQueue struct {
	mu       sync.Mutex
	pending  []Request
	capacity int // 0 = unbounded
}

func newAdmissionQueue(capacity int) *admissionQueue {
	return &admissionQueue{capacity: capacity}
}

// push appends requests at the tail, preserving arrival order. When a
// capacity is set, the overflow tail is returned to the caller instead
// of being enqueued.
func (q *admissionQueue) push(reqs []Request) (rejected []Request) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.capacity > 0 {
		room := q.capacity - len(q.pending)
		if room < 0 {
			room = 0
		}
		if len(reqs) > room {
			rejected = reqs[room:]
			reqs = reqs[:room]
		}
	}
	q.pending = append(q.pending, reqs...)
	return rejected
}

// popN removes and returns up to n requests from the head.
func (q *admissionQueue) popN(n int) []Request {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n <= 0 || len(q.pending) == 0 {
		return nil
	}
	if n > len(q.pending) {
		n = len(q.pending)
	}
	taken := make([]Request, n)
	copy(taken, q.pending[:n])
	q.pending = q.pending[n:]
	return taken
}

func (q *admissionQueue) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// retainMinPriority evicts every queued request below the given priority
// floor, keeping relative order of the survivors. Used only by the drain
// protocol. Returns the retained and evicted counts.
func (q *admissionQueue) retainMinPriority(floor int) (retained, evicted int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.pending[:0]
	for _, r := range q.pending {
		if r.Priority >= floor {
			kept = append(kept, r)
		} else {
			evicted++
		}
	}
	// Zero the tail so evicted requests and their policy maps are not
	// kept alive by the backing array.
	for i := len(kept); i < len(q.pending); i++ {
		q.pending[i] = Request{}
	}
	q.pending = kept
	return len(kept), evicted
}
