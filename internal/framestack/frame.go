// Package framestack provides the nested-frame queue that backs the dispatch loop.
//
// A Stack holds one active frame plus a stack of stashed (outer) frames. Each frame
// is a FIFO that also supports insertion at the front. The structure knows nothing
// about what it stores.
package framestack

// minFrameCapacity is the initial ring size allocated on first insertion.
const minFrameCapacity = 8

// frame is a ring-buffer deque.
type frame[T any] struct {
	buf  []T
	head int
	n    int
}

func (f *frame[T]) len() int {
	return f.n
}

func (f *frame[T]) empty() bool {
	return f.n == 0
}

func (f *frame[T]) grow() {
	if f.n < len(f.buf) {
		return
	}
	size := len(f.buf) * 2
	if size < minFrameCapacity {
		size = minFrameCapacity
	}
	buf := make([]T, size)
	for i := 0; i < f.n; i++ {
		buf[i] = f.buf[(f.head+i)%len(f.buf)]
	}
	f.buf = buf
	f.head = 0
}

func (f *frame[T]) pushBack(v T) {
	f.grow()
	f.buf[(f.head+f.n)%len(f.buf)] = v
	f.n++
}

func (f *frame[T]) pushFront(v T) {
	f.grow()
	f.head = (f.head - 1 + len(f.buf)) % len(f.buf)
	f.buf[f.head] = v
	f.n++
}

func (f *frame[T]) popFront() (T, bool) {
	var zero T
	if f.n == 0 {
		return zero, false
	}
	v := f.buf[f.head]
	// Clear the slot so the ring does not pin popped values.
	f.buf[f.head] = zero
	f.head = (f.head + 1) % len(f.buf)
	f.n--
	if f.n == 0 {
		f.head = 0
	}
	return v, true
}

// reset drops every element, keeping the ring for reuse.
func (f *frame[T]) reset() {
	clear(f.buf)
	f.head = 0
	f.n = 0
}

// items returns the frame contents front to back.
func (f *frame[T]) items() []T {
	out := make([]T, 0, f.n)
	for i := 0; i < f.n; i++ {
		out = append(out, f.buf[(f.head+i)%len(f.buf)])
	}
	return out
}
