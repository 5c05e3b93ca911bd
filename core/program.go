package core

import (
	"bytes"
	"strconv"

	"github.com/krehermann/stackvm/types"
	"github.com/krehermann/stackvm/vm"
)

// Program is a decoded source text. Instructions are fixed once decoded.
type Program struct {
	Source       []byte
	Instructions []vm.Instruction

	// cache of content hash
	hash types.Hash
}

func NewProgram(src []byte) *Program {
	return &Program{
		Source:       src,
		Instructions: vm.Decode(src),
	}
}

// Hash identifies the program by its decoded instructions, so sources
// that differ only in ignored bytes share a hash.
func (p *Program) Hash(hasher Hasher[*Program]) types.Hash {
	if p.hash.IsZero() {
		p.hash = hasher.Hash(p)
	}
	return p.hash
}

// Canonical renders the instructions back into minimal source text.
// Decoding the result yields the same instructions.
func (p *Program) Canonical() []byte {
	return Render(p.Instructions)
}

func Render(insts []vm.Instruction) []byte {
	buf := &bytes.Buffer{}
	for _, inst := range insts {
		if inst.Op == vm.OpPush {
			// literals are unsigned in source; the space closes the run
			buf.WriteString(strconv.FormatUint(uint64(uint16(inst.Value)), 10))
			buf.WriteByte(' ')
			continue
		}
		if sym, ok := inst.Op.Symbol(); ok {
			buf.WriteByte(sym)
		}
	}
	return buf.Bytes()
}

func (p *Program) Len() int {
	return len(p.Instructions)
}
