package framestack

// maxFreeFrames bounds how many drained frames are kept for reuse.
const maxFreeFrames = 16

// Stack is a LIFO of FIFO frames.
//
// Stashed frames are kept bottom-first: stashed[0] is the earliest-created frame
// and the last element is the most recently stashed one. A Stack is not safe for
// concurrent use.
type Stack[T any] struct {
	active  *frame[T]
	stashed []*frame[T]
	free    []*frame[T]
}

// New creates an empty Stack with a single, empty active frame.
func New[T any]() *Stack[T] {
	return &Stack[T]{active: &frame[T]{}}
}

// PopFront removes and returns the earliest element of the active frame.
// It never looks into stashed frames.
func (s *Stack[T]) PopFront() (T, bool) {
	return s.active.popFront()
}

// PopFrontCrossingFrames pops from the active frame, restoring stashed frames in
// LIFO order whenever the active one runs dry. It returns false only when every
// frame is exhausted.
func (s *Stack[T]) PopFrontCrossingFrames() (T, bool) {
	for {
		if v, ok := s.active.popFront(); ok {
			return v, true
		}
		if !s.MaybeRestoreFrame() {
			var zero T
			return zero, false
		}
	}
}

// PushFrontActive inserts v ahead of everything queued in the active frame.
func (s *Stack[T]) PushFrontActive(v T) {
	s.active.pushFront(v)
}

// PushBackActive appends v to the active frame.
func (s *Stack[T]) PushBackActive(v T) {
	s.active.pushBack(v)
}

// AppendActive appends vs to the active frame, preserving their order.
func (s *Stack[T]) AppendActive(vs ...T) {
	for _, v := range vs {
		s.active.pushBack(v)
	}
}

// PushBackBottom appends v to the earliest stashed frame, or to the active frame
// when nothing is stashed.
func (s *Stack[T]) PushBackBottom(v T) {
	s.bottom().pushBack(v)
}

func (s *Stack[T]) bottom() *frame[T] {
	if len(s.stashed) > 0 {
		return s.stashed[0]
	}
	return s.active
}

// StartNewFrame stashes the active frame and installs an empty one.
func (s *Stack[T]) StartNewFrame() {
	s.stashed = append(s.stashed, s.active)
	s.active = s.takeFrame()
}

// MaybeRestoreFrame reinstalls the most recently stashed frame as active. It is a
// no-op returning false when the active frame still has elements or nothing is
// stashed.
func (s *Stack[T]) MaybeRestoreFrame() bool {
	if !s.active.empty() || len(s.stashed) == 0 {
		return false
	}
	last := len(s.stashed) - 1
	restored := s.stashed[last]
	s.stashed[last] = nil
	s.stashed = s.stashed[:last]
	s.releaseFrame(s.active)
	s.active = restored
	return true
}

// Reset drops every element and stashed frame, leaving a single empty active
// frame. It returns how many elements were dropped.
func (s *Stack[T]) Reset() int {
	n := s.Len()
	s.active.reset()
	for i, f := range s.stashed {
		f.reset()
		s.releaseFrame(f)
		s.stashed[i] = nil
	}
	s.stashed = s.stashed[:0]
	return n
}

func (s *Stack[T]) takeFrame() *frame[T] {
	if n := len(s.free); n > 0 {
		f := s.free[n-1]
		s.free[n-1] = nil
		s.free = s.free[:n-1]
		return f
	}
	return &frame[T]{}
}

func (s *Stack[T]) releaseFrame(f *frame[T]) {
	if len(s.free) >= maxFreeFrames {
		return
	}
	s.free = append(s.free, f)
}

// IsEmpty reports whether the active frame and every stashed frame are empty.
func (s *Stack[T]) IsEmpty() bool {
	if !s.active.empty() {
		return false
	}
	for _, f := range s.stashed {
		if !f.empty() {
			return false
		}
	}
	return true
}

// IsActiveFrameEmpty reports whether the active frame holds no elements.
func (s *Stack[T]) IsActiveFrameEmpty() bool {
	return s.active.empty()
}

// IsOnlyFrame reports whether nothing is stashed.
func (s *Stack[T]) IsOnlyFrame() bool {
	return len(s.stashed) == 0
}

// Depth returns the number of stashed frames.
func (s *Stack[T]) Depth() int {
	return len(s.stashed)
}

// Len returns the number of elements across all frames.
func (s *Stack[T]) Len() int {
	n := s.active.len()
	for _, f := range s.stashed {
		n += f.len()
	}
	return n
}

// ActiveItems returns a copy of the active frame, front to back.
func (s *Stack[T]) ActiveItems() []T {
	return s.active.items()
}
