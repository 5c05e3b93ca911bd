package types

import (
	"fmt"
)

// List is a growable sequence. The end of the list doubles as the
// top of a stack via Append, Pop and Last.
type List[T any] struct {
	data []T
}

func NewList[T any]() *List[T] {
	return &List[T]{
		data: make([]T, 0),
	}
}

func (l *List[T]) Get(idx int) (T, error) {
	var empty T
	if idx > len(l.data)-1 || idx < 0 {
		return empty, fmt.Errorf("index out of range. idx %d len %d",
			idx,
			len(l.data))
	}

	return l.data[idx], nil
}

func (l *List[T]) Append(val T) {
	l.data = append(l.data, val)
}

// Pop removes and returns the last element. ok is false on an empty list.
func (l *List[T]) Pop() (val T, ok bool) {
	if len(l.data) == 0 {
		return val, false
	}
	last := len(l.data) - 1
	val = l.data[last]
	l.data = l.data[:last]
	return val, true
}

// Last returns the final element. ok is false on an empty list.
func (l *List[T]) Last() (val T, ok bool) {
	if len(l.data) == 0 {
		return val, false
	}
	return l.data[len(l.data)-1], true
}

func (l *List[T]) Clear() {
	l.data = l.data[:0]
}

// Slice returns a copy of the elements, first to last.
func (l *List[T]) Slice() []T {
	out := make([]T, len(l.data))
	copy(out, l.data)
	return out
}

func (l *List[T]) Len() int {
	return len(l.data)
}
