// This file implements FIFO eviction.

package eviction

import "container/list"

type fifo struct {
	// queue keeps keys in the order they were first inserted.
	// The front of the queue is the oldest key.
	queue *list.List

	// elems maps tracked keys to their queue position.
	elems map[string]*list.Element
}

func newFIFO() *fifo {
	return &fifo{
		queue: list.New(),
		elems: make(map[string]*list.Element),
	}
}

// FIFO ignores reads completely.
func (f *fifo) OnGet(string) {}

// OnPut only records the first insertion of a key; rewrites keep their place.
func (f *fifo) OnPut(k string) {
	if _, ok := f.elems[k]; ok {
		return
	}
	f.elems[k] = f.queue.PushBack(k)
}

func (f *fifo) Evict() string {
	front := f.queue.Front()
	if front == nil {
		return ""
	}
	k := f.queue.Remove(front).(string)
	delete(f.elems, k)
	return k
}

func (f *fifo) Remove(k string) {
	if e, ok := f.elems[k]; ok {
		f.queue.Remove(e)
		delete(f.elems, k)
	}
}
