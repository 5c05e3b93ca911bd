package vm

// Snapshot is a copy of the observable machine state. Memory is reduced
// to its non-zero words.
type Snapshot struct {
	IP     int              `json:"ip"`
	Steps  int              `json:"steps"`
	Values []int16          `json:"values"`
	Calls  []int16          `json:"calls"`
	Memory map[uint16]int16 `json:"memory,omitempty"`
}

func (vm *VM) Snapshot() Snapshot {
	snap := Snapshot{
		IP:     vm.ip,
		Steps:  vm.steps,
		Values: vm.Values.Values(),
		Calls:  vm.Calls.Values(),
	}
	for addr, w := range &vm.Mem.words {
		if w == 0 {
			continue
		}
		if snap.Memory == nil {
			snap.Memory = make(map[uint16]int16)
		}
		snap.Memory[uint16(addr)] = w
	}
	return snap
}
