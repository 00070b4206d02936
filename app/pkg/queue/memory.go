package queue

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

type memItem struct {
	id       string
	priority int
	seq      int64
	readyAt  time.Time
}

type memHeap []*memItem

func (h memHeap) Len() int { return len(h) }

func (h memHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h memHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *memHeap) Push(x interface{}) { *h = append(*h, x.(*memItem)) }

func (h *memHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

type memoryQueue struct {
	mux    sync.Mutex
	items  memHeap
	seq    int64
	notify chan struct{}
	closed bool
}

func newMemoryQueue() *memoryQueue {
	return &memoryQueue{
		items:  make(memHeap, 0),
		notify: make(chan struct{}, 1),
	}
}

func (q *memoryQueue) Push(ctx context.Context, id string, priority int) error {
	return q.PushDelayed(ctx, id, priority, 0)
}

func (q *memoryQueue) PushDelayed(ctx context.Context, id string, priority int, delay time.Duration) error {
	q.mux.Lock()
	if q.closed {
		q.mux.Unlock()
		return ErrQueue.New("队列已关闭")
	}
	q.seq++
	heap.Push(&q.items, &memItem{
		id:       id,
		priority: priority,
		seq:      q.seq,
		readyAt:  time.Now().Add(delay),
	})
	q.mux.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

func (q *memoryQueue) Pop(ctx context.Context) (string, error) {
	for {
		q.mux.Lock()
		wait := 200 * time.Millisecond
		now := time.Now()
		if len(q.items) > 0 {
			//堆顶按优先级排序，延迟未到期的项跳过，取最先就绪的
			best := -1
			for i, it := range q.items {
				if it.readyAt.After(now) {
					continue
				}
				if best == -1 || q.items.Less(i, best) {
					best = i
				}
			}
			if best >= 0 {
				item := q.items[best]
				heap.Remove(&q.items, best)
				q.mux.Unlock()
				return item.id, nil
			}
		}
		q.mux.Unlock()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-q.notify:
		case <-time.After(wait):
		}
	}
}

func (q *memoryQueue) Remove(ctx context.Context, id string) (bool, error) {
	q.mux.Lock()
	defer q.mux.Unlock()
	for i, it := range q.items {
		if it.id == id {
			heap.Remove(&q.items, i)
			return true, nil
		}
	}
	return false, nil
}

func (q *memoryQueue) Size(ctx context.Context) (int64, error) {
	q.mux.Lock()
	defer q.mux.Unlock()
	return int64(len(q.items)), nil
}

func (q *memoryQueue) Close() error {
	q.mux.Lock()
	defer q.mux.Unlock()
	q.closed = true
	return nil
}
