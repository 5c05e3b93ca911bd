package vm

// Decode turns program text into an instruction sequence. It accepts any
// input: bytes that are neither digits nor symbols are skipped.
//
// A run of digits becomes a single Vpush once a non-digit byte follows it.
// The value is the decimal number mod 2^16 read as a signed 16-bit integer.
// A digit run that reaches the end of the input is dropped.
func Decode(src []byte) []Instruction {
	out := make([]Instruction, 0, len(src))

	var (
		inNum bool
		num   uint16
	)
	for _, c := range src {
		if isDigit(c) {
			if !inNum {
				inNum = true
				num = 0
			}
			num = num*10 + uint16(c-'0')
			continue
		}

		if inNum {
			inNum = false
			out = append(out, Push(int16(num)))
		}
		if op, ok := Symbols[c]; ok {
			out = append(out, Op(op))
		}
	}

	return out
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
