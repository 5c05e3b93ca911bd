package vm

import (
	"github.com/krehermann/stackvm/types"
)

// Stack holds 16-bit words. Popping an empty stack yields zero; that is
// part of the machine's semantics, not an error.
type Stack struct {
	data *types.List[int16]
}

func NewStack() *Stack {
	return &Stack{
		data: types.NewList[int16](),
	}
}

func (s *Stack) Push(v int16) {
	s.data.Append(v)
}

// Pop removes the top value, or returns 0 if the stack is empty.
func (s *Stack) Pop() int16 {
	v, _ := s.data.Pop()
	return v
}

// Peek returns the top value without removing it, or 0 if empty.
func (s *Stack) Peek() int16 {
	v, _ := s.data.Last()
	return v
}

func (s *Stack) Empty() bool {
	return s.data.Len() == 0
}

func (s *Stack) Len() int {
	return s.data.Len()
}

// Values returns the contents bottom to top.
func (s *Stack) Values() []int16 {
	return s.data.Slice()
}
