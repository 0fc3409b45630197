package vm

import (
	"github.com/cadulceus/yeetwars/asm"
	"github.com/cadulceus/yeetwars/core"
	"github.com/cadulceus/yeetwars/player"
)

// ApplyMov implements the generic move family shared by YEET, YOINK, SUB,
// MUL, DIV and FITS: l is the A-operand's value, r is the B-operand's
// value (re-read from memory first when B is IMMEDIATE, since an
// immediate B names an address to update, not a value to combine), and
// op(l, r) is written back to the B-operand's destination.
//
// The write is byte-wide instead of word-wide exactly when A is IMMEDIATE
// and B is not REGISTER_DIRECT — the destination already held a full word,
// so only the high byte of that word participates. Go's unsigned
// arithmetic wraps modulo 2^32 on its own, so no opcode here needs to mask
// or clamp its result by hand.
func ApplyMov(c *core.Core, t *player.Thread, in asm.Instruction, op func(l, r uint32) uint32) error {
	l, err := AOperandInt(c, t, in)
	if err != nil {
		return err
	}
	r, err := BOperandInt(c, t, in)
	if err != nil {
		return err
	}

	byteWide := in.AMode == asm.Immediate && in.BMode != asm.RegisterDirect
	if byteWide {
		r >>= 24
	}

	switch in.BMode {
	case asm.Immediate:
		addr := uint32(in.BNumber) % c.Size()
		if byteWide {
			c.Write(addr, byte(op(l, uint32(c.Read(addr)))), t.Owner)
		} else {
			c.WriteWord(addr, op(l, c.ReadWord(addr)), t.Owner)
		}
	case asm.Relative:
		addr := (t.PC + uint32(in.BNumber)) % c.Size()
		if byteWide {
			c.Write(addr, byte(op(l, r)), t.Owner)
		} else {
			c.WriteWord(addr, op(l, r), t.Owner)
		}
	case asm.RegisterDirect:
		if err := setRegister(t, byte(in.BNumber), op(l, r)); err != nil {
			return err
		}
	case asm.RegisterIndirect:
		reg, err := registerValue(t, byte(in.BNumber))
		if err != nil {
			return err
		}
		if byteWide {
			c.Write(reg, byte(op(l, r)), t.Owner)
		} else {
			c.WriteWord(reg, op(l, r), t.Owner)
		}
	default:
		return Faultf("b_mode %d is not a valid addressing mode", in.BMode)
	}
	return nil
}

// ApplyExchange implements YEB: read the current 4-byte value at each
// operand's destination, then swap them.
func ApplyExchange(c *core.Core, t *player.Thread, in asm.Instruction) error {
	a, err := operandDest(c, t, in.AMode, uint32(in.ANumber))
	if err != nil {
		return err
	}
	b, err := operandDest(c, t, in.BMode, uint32(in.BNumber))
	if err != nil {
		return err
	}
	aVal, bVal := a.get(), b.get()
	a.set(bVal)
	b.set(aVal)
	return nil
}

// ApplyDecrementBranch implements BOUNCED's decrement half: read the
// A-operand's current value (for IMMEDIATE A, that means dereferencing the
// word at address a_number, not treating a_number as the value itself),
// subtract one, and write the result back through the same operand. On
// uint32 this underflows straight to WORD_MAX-1 exactly as required when
// the value was zero, with no extra branch needed. The scheduler takes the
// returned value and performs the jump half when it is non-zero.
func ApplyDecrementBranch(c *core.Core, t *player.Thread, in asm.Instruction) (uint32, error) {
	var current uint32
	if in.AMode == asm.Immediate {
		current = c.ReadWord(uint32(in.ANumber))
	} else {
		v, err := AOperandInt(c, t, in)
		if err != nil {
			return 0, err
		}
		current = v
	}
	result := current - 1

	switch in.AMode {
	case asm.Immediate:
		c.WriteWord(uint32(in.ANumber), result, t.Owner)
	case asm.Relative:
		addr := (t.PC + uint32(in.ANumber)) % c.Size()
		c.WriteWord(addr, result, t.Owner)
	case asm.RegisterDirect:
		if err := setRegister(t, in.ANumber, result); err != nil {
			return 0, err
		}
	case asm.RegisterIndirect:
		reg, err := registerValue(t, in.ANumber)
		if err != nil {
			return 0, err
		}
		c.WriteWord(reg, result, t.Owner)
	default:
		return 0, Faultf("a_mode %d is not a valid addressing mode", in.AMode)
	}
	return result, nil
}
