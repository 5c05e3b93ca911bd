package vm

import (
	"fmt"
	"strconv"
	"strings"
)

type Opcode byte

const (
	// push immediate value to value stack
	OpPush Opcode = iota
	// move top of value stack to call stack
	OpCpushV
	// move top of call stack to value stack
	OpVpushC
	OpVswap
	OpVdup
	OpVdrop
	// discard top value, swap the next two if it was non-zero
	OpVswapIf
	// swap instruction pointer with top of call stack
	OpCswapIp
	OpIsNegative
	OpAdd
	OpSub
	OpRead
	OpPrint
	OpMswap
)

var opcodeNames = [...]string{
	OpPush:       "Vpush",
	OpCpushV:     "CpushV",
	OpVpushC:     "VpushC",
	OpVswap:      "Vswap",
	OpVdup:       "Vdup",
	OpVdrop:      "Vdrop",
	OpVswapIf:    "VswapIf",
	OpCswapIp:    "CswapIp",
	OpIsNegative: "IsNegative",
	OpAdd:        "Add",
	OpSub:        "Sub",
	OpRead:       "Read",
	OpPrint:      "Print",
	OpMswap:      "Mswap",
}

// Symbols maps each source byte to the payload-free instruction it denotes.
// Digits are handled by the decoder and are not listed.
var Symbols = map[byte]Opcode{
	'>': OpCpushV,
	'<': OpVpushC,
	'^': OpVswap,
	':': OpVdup,
	'.': OpVdrop,
	'?': OpVswapIf,
	';': OpCswapIp,
	'~': OpIsNegative,
	'+': OpAdd,
	'-': OpSub,
	'_': OpRead,
	'"': OpPrint,
	'@': OpMswap,
}

func (op Opcode) Valid() bool {
	return int(op) < len(opcodeNames)
}

func (op Opcode) String() string {
	if !op.Valid() {
		return fmt.Sprintf("Opcode(%d)", byte(op))
	}
	return opcodeNames[op]
}

// Symbol returns the source byte for op. OpPush has no symbol; ok is false.
func (op Opcode) Symbol() (b byte, ok bool) {
	for sym, o := range Symbols {
		if o == op {
			return sym, true
		}
	}
	return 0, false
}

// Instruction is a decoded program element. Value is only meaningful
// for OpPush.
type Instruction struct {
	Op    Opcode
	Value int16
}

func Push(v int16) Instruction {
	return Instruction{Op: OpPush, Value: v}
}

func Op(op Opcode) Instruction {
	return Instruction{Op: op}
}

// String renders the instruction the way the token dump lists it,
// e.g. "Vpush(72)" or "Print".
func (inst Instruction) String() string {
	if inst.Op == OpPush {
		return fmt.Sprintf("%s(%d)", inst.Op, inst.Value)
	}
	return inst.Op.String()
}

// ParseInstruction reads the form produced by Instruction.String.
func ParseInstruction(s string) (Instruction, error) {
	if rest, ok := strings.CutPrefix(s, OpPush.String()+"("); ok {
		num, ok := strings.CutSuffix(rest, ")")
		if !ok {
			return Instruction{}, fmt.Errorf("malformed push %q", s)
		}
		v, err := strconv.ParseInt(num, 10, 16)
		if err != nil {
			return Instruction{}, fmt.Errorf("malformed push %q: %w", s, err)
		}
		return Push(int16(v)), nil
	}
	for op, name := range opcodeNames {
		if Opcode(op) != OpPush && name == s {
			return Op(Opcode(op)), nil
		}
	}
	return Instruction{}, fmt.Errorf("unknown instruction %q", s)
}
