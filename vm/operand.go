package vm

import (
	"encoding/binary"

	"github.com/cadulceus/yeetwars/asm"
	"github.com/cadulceus/yeetwars/core"
	"github.com/cadulceus/yeetwars/player"
)

func registerValue(t *player.Thread, number byte) (uint32, error) {
	switch number {
	case asm.XDRegister:
		return t.XD(), nil
	case asm.DXRegister:
		return t.DX(), nil
	default:
		return 0, Faultf("register number %d is not XD or DX", number)
	}
}

func registerBytes(t *player.Thread, number byte) ([4]byte, error) {
	switch number {
	case asm.XDRegister:
		return t.XDBytes(), nil
	case asm.DXRegister:
		return t.DXBytes(), nil
	default:
		return [4]byte{}, Faultf("register number %d is not XD or DX", number)
	}
}

func setRegister(t *player.Thread, number byte, value uint32) error {
	switch number {
	case asm.XDRegister:
		t.SetXD(value)
	case asm.DXRegister:
		t.SetDX(value)
	default:
		return Faultf("register number %d is not XD or DX", number)
	}
	return nil
}

// AOperandInt resolves the A-operand to its 32-bit integer value.
func AOperandInt(c *core.Core, t *player.Thread, in asm.Instruction) (uint32, error) {
	switch in.AMode {
	case asm.Immediate:
		return uint32(in.ANumber), nil
	case asm.Relative:
		return c.ReadWord(t.PC + uint32(in.ANumber)), nil
	case asm.RegisterDirect:
		return registerValue(t, in.ANumber)
	case asm.RegisterIndirect:
		reg, err := registerValue(t, in.ANumber)
		if err != nil {
			return 0, err
		}
		return c.ReadWord(reg), nil
	default:
		return 0, Faultf("a_mode %d is not a valid addressing mode", in.AMode)
	}
}

// BOperandInt resolves the B-operand to its 32-bit integer value.
func BOperandInt(c *core.Core, t *player.Thread, in asm.Instruction) (uint32, error) {
	switch in.BMode {
	case asm.Immediate:
		return uint32(in.BNumber), nil
	case asm.Relative:
		return c.ReadWord(t.PC + uint32(in.BNumber)), nil
	case asm.RegisterDirect:
		return registerValue(t, byte(in.BNumber))
	case asm.RegisterIndirect:
		reg, err := registerValue(t, byte(in.BNumber))
		if err != nil {
			return 0, err
		}
		return c.ReadWord(reg), nil
	default:
		return 0, Faultf("b_mode %d is not a valid addressing mode", in.BMode)
	}
}

// JumpTarget resolves an operand to an absolute core address, the shared
// logic behind every control-flow opcode (BOUNCE family) and ZOOP's child
// spawn address. Unlike AOperandInt/BOperandInt, REGISTER_DIRECT here
// treats the register's value as an address rather than returning it as a
// plain integer — a jump target is always a place in the core.
func JumpTarget(c *core.Core, t *player.Thread, in asm.Instruction) (uint32, error) {
	switch in.BMode {
	case asm.Immediate:
		return uint32(in.BNumber) % c.Size(), nil
	case asm.Relative:
		return (t.PC + uint32(in.BNumber)) % c.Size(), nil
	case asm.RegisterDirect:
		v, err := registerValue(t, byte(in.BNumber))
		if err != nil {
			return 0, err
		}
		return v % c.Size(), nil
	case asm.RegisterIndirect:
		reg, err := registerValue(t, byte(in.BNumber))
		if err != nil {
			return 0, err
		}
		return c.ReadWord(reg) % c.Size(), nil
	default:
		return 0, Faultf("b_mode %d is not a valid addressing mode", in.BMode)
	}
}

// dest is a generic read/write location denoted by an addressing mode and
// operand number, used by the exchange (YEB) template, which needs to both
// read and later write back through the same operand.
type dest struct {
	get func() [4]byte
	set func([4]byte)
}

func operandDest(c *core.Core, t *player.Thread, mode byte, number uint32) (dest, error) {
	switch mode {
	case asm.Immediate:
		addr := number % c.Size()
		return dest{
			get: func() [4]byte { return wordAt(c, addr) },
			set: func(v [4]byte) { c.WriteBytes(addr, v[:], t.Owner) },
		}, nil
	case asm.Relative:
		addr := (t.PC + number) % c.Size()
		return dest{
			get: func() [4]byte { return wordAt(c, addr) },
			set: func(v [4]byte) { c.WriteBytes(addr, v[:], t.Owner) },
		}, nil
	case asm.RegisterDirect:
		reg := byte(number)
		return dest{
			get: func() [4]byte { b, _ := registerBytes(t, reg); return b },
			set: func(v [4]byte) { _ = setRegister(t, reg, binary.BigEndian.Uint32(v[:])) },
		}, nil
	case asm.RegisterIndirect:
		reg, err := registerValue(t, byte(number))
		if err != nil {
			return dest{}, err
		}
		return dest{
			get: func() [4]byte { return wordAt(c, reg) },
			set: func(v [4]byte) { c.WriteBytes(reg, v[:], t.Owner) },
		}, nil
	default:
		return dest{}, Faultf("mode %d is not a valid addressing mode", mode)
	}
}

func wordAt(c *core.Core, addr uint32) [4]byte {
	var b [4]byte
	copy(b[:], c.ReadRange(addr, 4))
	return b
}
