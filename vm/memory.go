package vm

const MemorySize = 1 << 16

// Memory is the word-addressed store of a single VM. Every int16 is a
// valid address: it is read as its unsigned 16-bit pattern, so -1
// names the last word.
type Memory struct {
	words [MemorySize]int16
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(addr int16) int16 {
	return m.words[uint16(addr)]
}

func (m *Memory) Store(addr, val int16) {
	m.words[uint16(addr)] = val
}

// Swap stores val at addr and returns the previous contents.
func (m *Memory) Swap(addr, val int16) int16 {
	old := m.words[uint16(addr)]
	m.words[uint16(addr)] = val
	return old
}
