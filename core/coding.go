package core

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/krehermann/stackvm/vm"
)

type Encoder[T any] interface {
	Encode(T) error
}

type Decoder[T any] interface {
	Decode(T) error
}

// Dump formats for the decoded instruction listing.
const (
	FormatText = "text"
	FormatGob  = "gob"
	FormatCBOR = "cbor"
)

var Formats = []string{FormatText, FormatGob, FormatCBOR}

func NewInstructionEncoder(format string, w io.Writer) (Encoder[[]vm.Instruction], error) {
	switch format {
	case FormatText, "":
		return NewTextInstructionEncoder(w), nil
	case FormatGob:
		return NewGobInstructionEncoder(w), nil
	case FormatCBOR:
		return NewCBORInstructionEncoder(w), nil
	}
	return nil, fmt.Errorf("unknown dump format %q. want one of %v", format, Formats)
}

func NewInstructionDecoder(format string, r io.Reader) (Decoder[*[]vm.Instruction], error) {
	switch format {
	case FormatText, "":
		return NewTextInstructionDecoder(r), nil
	case FormatGob:
		return NewGobInstructionDecoder(r), nil
	case FormatCBOR:
		return NewCBORInstructionDecoder(r), nil
	}
	return nil, fmt.Errorf("unknown dump format %q. want one of %v", format, Formats)
}

// TextInstructionEncoder writes one instruction per line, e.g. "Vpush(72)".
type TextInstructionEncoder struct {
	w io.Writer
}

func NewTextInstructionEncoder(w io.Writer) *TextInstructionEncoder {
	return &TextInstructionEncoder{
		w: w,
	}
}

func (e TextInstructionEncoder) Encode(insts []vm.Instruction) error {
	bw := bufio.NewWriter(e.w)
	for _, inst := range insts {
		if _, err := fmt.Fprintln(bw, inst); err != nil {
			return err
		}
	}
	return bw.Flush()
}

type TextInstructionDecoder struct {
	r io.Reader
}

func NewTextInstructionDecoder(r io.Reader) *TextInstructionDecoder {
	return &TextInstructionDecoder{
		r: r,
	}
}

func (d TextInstructionDecoder) Decode(insts *[]vm.Instruction) error {
	out := []vm.Instruction{}
	sc := bufio.NewScanner(d.r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		inst, err := vm.ParseInstruction(text)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, inst)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	*insts = out
	return nil
}

type GobInstructionEncoder struct {
	w io.Writer
}

func NewGobInstructionEncoder(w io.Writer) *GobInstructionEncoder {
	return &GobInstructionEncoder{
		w: w,
	}
}

func (e GobInstructionEncoder) Encode(insts []vm.Instruction) error {
	return gob.NewEncoder(e.w).Encode(insts)
}

type GobInstructionDecoder struct {
	r io.Reader
}

func NewGobInstructionDecoder(r io.Reader) *GobInstructionDecoder {
	return &GobInstructionDecoder{
		r: r,
	}
}

func (d GobInstructionDecoder) Decode(insts *[]vm.Instruction) error {
	return gob.NewDecoder(d.r).Decode(insts)
}

// wireInstruction is the compact cbor form: a two element array.
type wireInstruction struct {
	_     struct{} `cbor:",toarray"`
	Op    uint8
	Value int16
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("core: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type CBORInstructionEncoder struct {
	w io.Writer
}

func NewCBORInstructionEncoder(w io.Writer) *CBORInstructionEncoder {
	return &CBORInstructionEncoder{
		w: w,
	}
}

func (e CBORInstructionEncoder) Encode(insts []vm.Instruction) error {
	wire := make([]wireInstruction, len(insts))
	for i, inst := range insts {
		wire[i] = wireInstruction{Op: uint8(inst.Op), Value: inst.Value}
	}
	return cborEncMode.NewEncoder(e.w).Encode(wire)
}

type CBORInstructionDecoder struct {
	r io.Reader
}

func NewCBORInstructionDecoder(r io.Reader) *CBORInstructionDecoder {
	return &CBORInstructionDecoder{
		r: r,
	}
}

func (d CBORInstructionDecoder) Decode(insts *[]vm.Instruction) error {
	var wire []wireInstruction
	if err := cbor.NewDecoder(d.r).Decode(&wire); err != nil {
		return fmt.Errorf("core: unmarshal instructions: %w", err)
	}
	out := make([]vm.Instruction, len(wire))
	for i, w := range wire {
		op := vm.Opcode(w.Op)
		if !op.Valid() {
			return fmt.Errorf("core: instruction %d: invalid opcode %d", i, w.Op)
		}
		out[i] = vm.Instruction{Op: op, Value: w.Value}
	}
	*insts = out
	return nil
}
