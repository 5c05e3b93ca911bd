package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStack_Pop(t *testing.T) {
	tests := []struct {
		name    string
		pushes  []int16
		want    int16
		wantLen int
	}{
		{
			name:    "empty",
			want:    0,
			wantLen: 0,
		},
		{
			name:    "one",
			pushes:  []int16{7},
			want:    7,
			wantLen: 0,
		},
		{
			name:    "top of many",
			pushes:  []int16{2, 7, -9},
			want:    -9,
			wantLen: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStack()
			for _, v := range tt.pushes {
				s.Push(v)
			}
			assert.Equal(t, tt.want, s.Pop())
			assert.Equal(t, tt.wantLen, s.Len())
		})
	}
}

func TestStackFunctional(t *testing.T) {
	vals := []int16{0, 2, 4}
	s := NewStack()
	assert.True(t, s.Empty())
	for i := range vals {
		s.Push(vals[i])
		assert.Equal(t, i+1, s.Len())
		assert.Equal(t, vals[i], s.Peek())
	}
	assert.Equal(t, vals, s.Values())

	// pop all
	for i := len(vals) - 1; i >= 0; i -= 1 {
		assert.Equal(t, vals[i], s.Pop())
	}

	// underflow never faults and yields zero
	assert.Equal(t, int16(0), s.Pop())
	assert.Equal(t, int16(0), s.Peek())
	assert.Equal(t, 0, s.Len())

	// reuse
	s.Push(-1)
	assert.Equal(t, []int16{-1}, s.Values())
}
