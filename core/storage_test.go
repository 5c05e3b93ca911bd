package core

import (
	"testing"

	"github.com/krehermann/stackvm/types"
	"github.com/stretchr/testify/assert"
)

func TestMemStore_Get(t *testing.T) {
	ms := NewGenericMemStore[types.Hash, *Program]()
	defer ms.Close()

	srcs := []string{`72"`, "1 2+ ", "5 100@", "", `_`}
	want := make([]*Program, len(srcs))
	for i, src := range srcs {
		p := NewProgram([]byte(src))
		want[i] = p
		assert.NoError(t, ms.Put(p.Hash(DefaultProgramHasher{}), p))
		assert.Equal(t, i+1, ms.Len())

		for j := 0; j <= i; j++ {
			got, err := ms.Get(want[j].Hash(DefaultProgramHasher{}))
			assert.NoError(t, err)
			assert.Equal(t, want[j], got)
		}
	}

	_, err := ms.Get(types.Hash{})
	assert.Error(t, err)
}

func TestMemStore_Overwrite(t *testing.T) {
	ms := NewGenericMemStore[string, int]()
	defer ms.Close()

	assert.NoError(t, ms.Put("a", 1))
	assert.NoError(t, ms.Put("a", 2))
	assert.Equal(t, 1, ms.Len())

	got, err := ms.Get("a")
	assert.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestMemStore_Closed(t *testing.T) {
	ms := NewGenericMemStore[string, int]()
	ms.Close()

	assert.Error(t, ms.Put("a", 1))
	_, err := ms.Get("a")
	assert.Error(t, err)
	assert.Equal(t, 0, ms.Len())
}
