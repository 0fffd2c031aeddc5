package noc

import "container/heap"

// pqItem is one entry of a PriorityQueue. seq records insertion order so
// that two equal-priority entries dequeue in the order they were pushed,
// which is what A* needs to make its tie-break deterministic and testable
// in isolation from whichever shortest-path routine is driving it.
type pqItem struct {
	node     string
	priority float64
	seq      int
	index    int
}

type pqHeap []*pqItem

func (h pqHeap) Len() int { return len(h) }

func (h pqHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h pqHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *pqHeap) Push(x interface{}) {
	item := x.(*pqItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *pqHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// PriorityQueue is an indexed min-priority queue keyed by node id, used by
// the A* routing discipline (§4.4). Unlike gonum's internal shortest-path
// heap, this one is a standalone type the wire network owns directly, so
// its insertion-order tie-break is visible and testable without reaching
// into a shortest-path call.
type PriorityQueue struct {
	items pqHeap
	index map[string]*pqItem
	seq   int
}

// NewPriorityQueue returns an empty priority queue.
func NewPriorityQueue() *PriorityQueue {
	return &PriorityQueue{index: make(map[string]*pqItem)}
}

// Len reports how many nodes are queued.
func (q *PriorityQueue) Len() int {
	return len(q.items)
}

// Push inserts node with the given priority, or updates its priority if it
// is already queued.
func (q *PriorityQueue) Push(node string, priority float64) {
	if item, ok := q.index[node]; ok {
		item.priority = priority
		heap.Fix(&q.items, item.index)
		return
	}
	item := &pqItem{node: node, priority: priority, seq: q.seq}
	q.seq++
	heap.Push(&q.items, item)
	q.index[node] = item
}

// Pop removes and returns the lowest-priority node (ties broken by
// insertion order), or ok=false if the queue is empty.
func (q *PriorityQueue) Pop() (node string, priority float64, ok bool) {
	if len(q.items) == 0 {
		return "", 0, false
	}
	item := heap.Pop(&q.items).(*pqItem)
	delete(q.index, item.node)
	return item.node, item.priority, true
}

// Contains reports whether node is currently queued.
func (q *PriorityQueue) Contains(node string) bool {
	_, ok := q.index[node]
	return ok
}

// Priority returns node's current priority and whether it is queued.
func (q *PriorityQueue) Priority(node string) (float64, bool) {
	item, ok := q.index[node]
	if !ok {
		return 0, false
	}
	return item.priority, true
}
