// Package asm implements the yeetcode instruction codec and the textual
// assembler/disassembler that sits on top of it: one mnemonic line in,
// one 4-byte machine word out, and back again.
package asm

import "fmt"

// Addressing modes, packed into the low 2 bits of each mode field.
const (
	Immediate = iota
	Relative
	RegisterDirect
	RegisterIndirect
)

// Registers addressable by RegisterDirect/RegisterIndirect operands.
const (
	XDRegister = iota
	DXRegister
)

// Opcodes. 0 and 13 are deliberately unassigned: any instruction decoded
// with one of those values in its top nibble is not a valid opcode and
// crashes the executing thread.
const (
	Yeet     = 1
	Yoink    = 2
	Sub      = 3
	Mul      = 4
	Div      = 5
	Fits     = 6
	Bounce   = 7
	Bouncez  = 8
	Bouncen  = 9
	Bounced  = 10
	Zoop     = 11
	Yeb      = 12
	Nope     = 14
	Yeetcall = 15
)

// Syscall numbers dispatched through YEETCALL, selected by the xd register.
const (
	SyscallTransferOwnership = 1
	SyscallLocateNearestThread = 2
	SyscallLocateRandomThread  = 3
	SyscallRandomInt           = 4
)

// InstructionWidth is the size in bytes of every encoded instruction.
const InstructionWidth = 4

var mnemonics = map[string]byte{
	"YEET": Yeet, "YOINK": Yoink, "SUB": Sub, "KNIOY": Sub, "MUL": Mul,
	"DIV": Div, "FITS": Fits, "MOD": Fits, "BOUNCE": Bounce, "BOUNCEZ": Bouncez,
	"BOUNCEN": Bouncen, "BOUNCED": Bounced, "ZOOP": Zoop, "YEB": Yeb,
	"NOPE": Nope, "YEETCALL": Yeetcall,
}

var opcodeNames = map[byte]string{
	Yeet: "YEET", Yoink: "YOINK", Sub: "SUB", Mul: "MUL", Div: "DIV",
	Fits: "FITS", Bounce: "BOUNCE", Bouncez: "BOUNCEZ", Bouncen: "BOUNCEN",
	Bounced: "BOUNCED", Zoop: "ZOOP", Yeb: "YEB", Nope: "NOPE",
	Yeetcall: "YEETCALL",
}

// arity reports how many operands a mnemonic expects in its source line.
// Anything absent from this table expects the default of two.
var arity = map[string]int{
	"NOPE": 0, "YEETCALL": 0, "BOUNCE": 1, "ZOOP": 1,
}

// Instruction is the decoded form of one 4-byte machine word: an opcode and
// two operands, each with its own addressing mode.
type Instruction struct {
	Opcode  byte
	AMode   byte
	BMode   byte
	ANumber byte
	BNumber uint16
}

// Encode packs the instruction into its 4-byte wire form:
// byte0 = opcode<<4 | a_mode<<2 | b_mode, byte1 = a_number,
// bytes2-3 = b_number, big-endian.
func (in Instruction) Encode() [4]byte {
	var w [4]byte
	w[0] = in.Opcode<<4 | in.AMode<<2 | in.BMode
	w[1] = in.ANumber
	w[2] = byte(in.BNumber >> 8)
	w[3] = byte(in.BNumber)
	return w
}

// Decode unpacks a 4-byte machine word into an Instruction. It never
// fails — an invalid opcode or mode decodes fine and is rejected later,
// when the scheduler tries to execute it.
func Decode(w [4]byte) Instruction {
	return Instruction{
		Opcode:  w[0] >> 4,
		AMode:   (w[0] >> 2) & 0x3,
		BMode:   w[0] & 0x3,
		ANumber: w[1],
		BNumber: uint16(w[2])<<8 | uint16(w[3]),
	}
}

func registerName(n byte) (string, bool) {
	switch n {
	case XDRegister:
		return "XD", true
	case DXRegister:
		return "DX", true
	default:
		return "", false
	}
}

func modePrefix(mode byte) byte {
	switch mode {
	case Immediate:
		return '$'
	case Relative:
		return '#'
	case RegisterDirect:
		return '%'
	case RegisterIndirect:
		return '['
	default:
		return '?'
	}
}

// Disassemble renders a decoded instruction back to yeetcode source text,
// showing as many operands as the mnemonic takes (only B for BOUNCE and
// ZOOP, none for NOPE and YEETCALL) — the inverse of ParseLine/Assemble,
// and the form the round-trip tests exercise.
func Disassemble(w [4]byte) string {
	in := Decode(w)
	name, ok := opcodeNames[in.Opcode]
	if !ok {
		return fmt.Sprintf("DB 0x%02X%02X%02X%02X", w[0], w[1], w[2], w[3])
	}
	if n, ok := arity[name]; ok {
		switch n {
		case 0:
			return name
		case 1:
			return fmt.Sprintf("%s %s", name, operandText(in.BMode, uint32(in.BNumber)))
		}
	}
	return fmt.Sprintf("%s %s, %s", name, operandText(in.AMode, uint32(in.ANumber)), operandText(in.BMode, uint32(in.BNumber)))
}

func operandText(mode byte, number uint32) string {
	if mode == RegisterDirect || mode == RegisterIndirect {
		if name, ok := registerName(byte(number)); ok {
			return fmt.Sprintf("%c%s", modePrefix(mode), name)
		}
	}
	return fmt.Sprintf("%c%d", modePrefix(mode), number)
}
