package vm

import (
	"github.com/joomcode/errorx"
)

var (
	Faults = errorx.NewNamespace("vm")

	// UnimplementedOperation is raised by the Read instruction. It halts
	// the program and cannot be resumed.
	UnimplementedOperation = Faults.NewType("unimplemented_operation")

	// StepLimitExceeded is only raised when MaxStepsOpt set a budget.
	StepLimitExceeded = Faults.NewType("step_limit_exceeded")

	PropertyIP = errorx.RegisterProperty("ip")
	PropertyOp = errorx.RegisterProperty("op")
)

func newFault(t *errorx.Type, ip int, inst Instruction, msg string) error {
	return t.New(msg).
		WithProperty(PropertyIP, ip).
		WithProperty(PropertyOp, inst.String())
}

// IsFault reports whether err is the fatal fault raised by Read.
func IsFault(err error) bool {
	return errorx.IsOfType(err, UnimplementedOperation)
}

func IsStepLimit(err error) bool {
	return errorx.IsOfType(err, StepLimitExceeded)
}

// FaultIP returns the instruction index at which a VM error occurred.
func FaultIP(err error) (int, bool) {
	v, ok := errorx.ExtractProperty(err, PropertyIP)
	if !ok {
		return 0, false
	}
	ip, ok := v.(int)
	return ip, ok
}
