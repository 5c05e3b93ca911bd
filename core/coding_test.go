package core

import (
	"bytes"
	"testing"

	"github.com/krehermann/stackvm/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextInstructionEncoder(t *testing.T) {
	buf := &bytes.Buffer{}
	enc := NewTextInstructionEncoder(buf)
	require.NoError(t, enc.Encode(vm.Decode([]byte(`72" 65537 0~ _`))))

	want := "Vpush(72)\n" +
		"Print\n" +
		"Vpush(1)\n" +
		"Vpush(0)\n" +
		"IsNegative\n" +
		"Read\n"
	assert.Equal(t, want, buf.String())
}

func TestInstructionCoding(t *testing.T) {
	insts := vm.Decode([]byte(`65535 1 2+ 3>;<^:.?~-_"@ 32768 `))
	require.NotEmpty(t, insts)

	for _, format := range Formats {
		t.Run(format, func(t *testing.T) {
			buf := &bytes.Buffer{}
			enc, err := NewInstructionEncoder(format, buf)
			require.NoError(t, err)
			require.NoError(t, enc.Encode(insts))

			dec, err := NewInstructionDecoder(format, buf)
			require.NoError(t, err)
			var got []vm.Instruction
			require.NoError(t, dec.Decode(&got))
			assert.Equal(t, insts, got)
		})
	}
}

func TestInstructionCoding_UnknownFormat(t *testing.T) {
	_, err := NewInstructionEncoder("yaml", &bytes.Buffer{})
	assert.Error(t, err)
	_, err = NewInstructionDecoder("yaml", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestTextInstructionDecoder_Errors(t *testing.T) {
	var got []vm.Instruction
	err := NewTextInstructionDecoder(bytes.NewBufferString("Vpush(1)\nJump\n")).Decode(&got)
	assert.ErrorContains(t, err, "line 2")

	// blank lines are skipped
	err = NewTextInstructionDecoder(bytes.NewBufferString("\nAdd\n\n")).Decode(&got)
	assert.NoError(t, err)
	assert.Equal(t, []vm.Instruction{vm.Op(vm.OpAdd)}, got)
}

func TestCBORInstructionDecoder_InvalidOpcode(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, cborEncMode.NewEncoder(buf).Encode([]wireInstruction{{Op: 99}}))

	var got []vm.Instruction
	err := NewCBORInstructionDecoder(buf).Decode(&got)
	assert.ErrorContains(t, err, "invalid opcode")
}
