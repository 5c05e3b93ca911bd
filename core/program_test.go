package core

import (
	"testing"

	"github.com/krehermann/stackvm/vm"
	"github.com/stretchr/testify/assert"
)

func TestProgram_Canonical(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "empty",
			src:  "",
			want: "",
		},
		{
			name: "comments dropped",
			src:  "print H: 72\" done",
			want: ":72 \"",
		},
		{
			name: "negative literal rendered unsigned",
			src:  "65535 ",
			want: "65535 ",
		},
		{
			name: "wrapped literal",
			src:  "65537+",
			want: "1 +",
		},
		{
			name: "dangling literal gone",
			src:  "1 2",
			want: "1 ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProgram([]byte(tt.src))
			got := p.Canonical()
			assert.Equal(t, tt.want, string(got))

			// rendering is stable under decode
			assert.Equal(t, p.Instructions, vm.Decode(got))
		})
	}
}

func TestProgram_Hash(t *testing.T) {
	a := NewProgram([]byte("say hi: 72\" 105\""))
	b := NewProgram([]byte(`:72"105"`))
	c := NewProgram([]byte(`72"105"`))

	h := DefaultProgramHasher{}
	assert.Equal(t, a.Hash(h), b.Hash(h))
	assert.NotEqual(t, a.Hash(h), c.Hash(h))
	assert.False(t, a.Hash(h).IsZero())
	assert.Equal(t, 5, a.Len())
}
