package vm

import (
	"fmt"
	"io"

	"github.com/joomcode/errorx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type VM struct {
	// decoded program, never modified
	prog []Instruction
	// instruction pointer: index of the next instruction
	ip    int
	steps int

	Values *Stack
	Calls  *Stack
	Mem    *Memory

	out      io.Writer
	trace    io.Writer
	maxSteps int
	logger   *zap.Logger
}

type VMOpt func(*VM) *VM

func LoggerOpt(l *zap.Logger) VMOpt {
	return func(vm *VM) *VM {
		vm.logger = l
		return vm
	}
}

// OutputOpt sets the sink receiving one byte per Print.
func OutputOpt(w io.Writer) VMOpt {
	return func(vm *VM) *VM {
		vm.out = w
		return vm
	}
}

// TraceOpt writes the ip, instruction and both stacks before every step.
func TraceOpt(w io.Writer) VMOpt {
	return func(vm *VM) *VM {
		vm.trace = w
		return vm
	}
}

// MaxStepsOpt bounds the number of executed instructions. Zero means no
// bound.
func MaxStepsOpt(n int) VMOpt {
	return func(vm *VM) *VM {
		vm.maxSteps = n
		return vm
	}
}

func NewVM(prog []Instruction, opts ...VMOpt) *VM {
	vm := &VM{
		prog:   prog,
		ip:     0,
		Values: NewStack(),
		Calls:  NewStack(),
		Mem:    NewMemory(),
		out:    io.Discard,
		logger: zap.L(),
	}

	for _, opt := range opts {
		vm = opt(vm)
	}

	vm.logger = vm.logger.Named("vm")

	return vm
}

// Run executes until the instruction pointer leaves the program. The only
// errors are the Read fault, an exhausted step budget, and a failing
// output sink.
func (vm *VM) Run() error {
	vm.logger.Debug("run",
		zap.Int("instructions", len(vm.prog)),
		zap.Int("ip", vm.ip))

	for vm.ip < len(vm.prog) {
		inst := vm.prog[vm.ip]

		if vm.maxSteps > 0 && vm.steps >= vm.maxSteps {
			return newFault(StepLimitExceeded, vm.ip, inst,
				fmt.Sprintf("step limit %d reached", vm.maxSteps))
		}
		if vm.trace != nil {
			fmt.Fprintf(vm.trace, "%d: %s %v %v\n",
				vm.ip, inst, vm.Values.Values(), vm.Calls.Values())
		}
		if ce := vm.logger.Check(zapcore.DebugLevel, "exec"); ce != nil {
			ce.Write(zap.Int("ip", vm.ip), zap.Stringer("inst", inst))
		}

		at := vm.ip
		vm.ip++
		vm.steps++
		if err := vm.Exec(inst); err != nil {
			if IsFault(err) {
				vm.logger.Debug("fault", zap.Int("ip", at), zap.Error(err))
				return newFault(UnimplementedOperation, at, inst, errorx.Cast(err).Message())
			}
			return fmt.Errorf("vm run: ip %d: %w", at, err)
		}
	}

	vm.logger.Debug("halt",
		zap.Int("ip", vm.ip),
		zap.Int("steps", vm.steps))
	return nil
}

// Exec applies a single instruction. The instruction pointer must already
// point past inst.
func (vm *VM) Exec(inst Instruction) error {
	switch inst.Op {
	case OpPush:
		vm.Values.Push(inst.Value)
	case OpCpushV:
		vm.Calls.Push(vm.Values.Pop())
	case OpVpushC:
		vm.Values.Push(vm.Calls.Pop())
	case OpVswap:
		vm.swap()
	case OpVdup:
		vm.Values.Push(vm.Values.Peek())
	case OpVdrop:
		vm.Values.Pop()
	case OpVswapIf:
		if vm.Values.Pop() != 0 {
			vm.swap()
		}
	case OpCswapIp:
		old := int16(vm.ip)
		vm.ip = int(uint16(vm.Calls.Pop()))
		vm.Calls.Push(old)
	case OpIsNegative:
		var neg int16
		if vm.Values.Pop() < 0 {
			neg = 1
		}
		vm.Values.Push(neg)
	case OpAdd:
		b := vm.Values.Pop()
		a := vm.Values.Pop()
		vm.Values.Push(a + b)
	case OpSub:
		b := vm.Values.Pop()
		a := vm.Values.Pop()
		vm.Values.Push(a - b)
	case OpRead:
		return UnimplementedOperation.New("unimplemented: read")
	case OpPrint:
		return vm.print(vm.Values.Pop())
	case OpMswap:
		val := vm.Values.Pop()
		id := vm.Values.Pop()
		vm.Values.Push(vm.Mem.Swap(id, val))
	default:
		return fmt.Errorf("unknown opcode %d", inst.Op)
	}
	return nil
}

// swap pops a then b and pushes them back in the same order, leaving the
// former second element on top.
func (vm *VM) swap() {
	a := vm.Values.Pop()
	b := vm.Values.Pop()
	vm.Values.Push(a)
	vm.Values.Push(b)
}

func (vm *VM) print(a int16) error {
	_, err := vm.out.Write([]byte{byte(a)})
	return err
}

func (vm *VM) IP() int {
	return vm.ip
}

// Steps is the number of instructions executed so far.
func (vm *VM) Steps() int {
	return vm.steps
}

func (vm *VM) Program() []Instruction {
	return vm.prog
}
