package scheduler

import (
	"github.com/cadulceus/yeetwars/asm"
	"github.com/cadulceus/yeetwars/player"
	"github.com/cadulceus/yeetwars/vm"
)

// execute runs one decoded instruction against t. It returns handled=true
// when the instruction already re-queued t itself (a taken jump), so
// stepLocked must not also perform the normal advance-and-requeue. ZOOP
// queues only the child and returns false, so the parent advances normally. A non-nil error is always a runtime fault; stepLocked crashes
// the thread and never looks at handled in that case.
func (s *Scheduler) execute(t *player.Thread, in asm.Instruction) (handled bool, err error) {
	if isRegisterMode(in.AMode) && in.ANumber > asm.DXRegister {
		return false, vm.Faultf("a_number %d is not within the range of valid registers", in.ANumber)
	}
	if isRegisterMode(in.BMode) && in.BNumber > asm.DXRegister {
		return false, vm.Faultf("b_number %d is not within the range of valid registers", in.BNumber)
	}

	switch in.Opcode {
	case asm.Nope:
		return false, nil

	case asm.Yeet:
		return false, vm.ApplyMov(s.Core, t, in, func(l, r uint32) uint32 { return l })

	case asm.Yoink:
		return false, vm.ApplyMov(s.Core, t, in, func(l, r uint32) uint32 { return r + l })

	case asm.Sub:
		return false, vm.ApplyMov(s.Core, t, in, func(l, r uint32) uint32 { return r - l })

	case asm.Mul:
		return false, vm.ApplyMov(s.Core, t, in, func(l, r uint32) uint32 { return r * l })

	case asm.Div:
		l, err := vm.AOperandInt(s.Core, t, in)
		if err != nil {
			return false, err
		}
		if l == 0 {
			return false, vm.Faultf("division by zero")
		}
		return false, vm.ApplyMov(s.Core, t, in, func(l, r uint32) uint32 { return r / l })

	case asm.Fits:
		l, err := vm.AOperandInt(s.Core, t, in)
		if err != nil {
			return false, err
		}
		if l == 0 {
			return false, vm.Faultf("modulo by zero")
		}
		return false, vm.ApplyMov(s.Core, t, in, func(l, r uint32) uint32 { return r % l })

	case asm.Bounce:
		return s.jump(t, in)

	case asm.Bouncez:
		a, err := vm.AOperandInt(s.Core, t, in)
		if err != nil {
			return false, err
		}
		if a == 0 {
			return s.jump(t, in)
		}
		return false, nil

	case asm.Bouncen:
		a, err := vm.AOperandInt(s.Core, t, in)
		if err != nil {
			return false, err
		}
		if a != 0 {
			return s.jump(t, in)
		}
		return false, nil

	case asm.Bounced:
		result, err := vm.ApplyDecrementBranch(s.Core, t, in)
		if err != nil {
			return false, err
		}
		if result != 0 {
			return s.jump(t, in)
		}
		return false, nil

	case asm.Zoop:
		return false, s.fork(t, in)

	case asm.Yeb:
		return false, vm.ApplyExchange(s.Core, t, in)

	case asm.Yeetcall:
		s.syscall(t)
		return false, nil

	default:
		return false, vm.Faultf("opcode %d is not a valid instruction", in.Opcode)
	}
}

func isRegisterMode(mode byte) bool {
	return mode == asm.RegisterDirect || mode == asm.RegisterIndirect
}

// jump moves t's pc to the resolved B-operand address and re-queues it
// into the next-tick pool immediately, short-circuiting stepLocked's
// normal advance-by-InstructionWidth.
func (s *Scheduler) jump(t *player.Thread, in asm.Instruction) (bool, error) {
	target, err := vm.JumpTarget(s.Core, t, in)
	if err != nil {
		return false, err
	}
	t.PC = target
	s.nextTickPool = append(s.nextTickPool, t)
	s.callbacks.updateThread(t.ID, t.PC, s.colorOf(t.Owner))
	return true, nil
}

// fork implements ZOOP: clone the parent's register state into a new
// thread whose pc is the resolved B-operand address, refusing silently if
// the owner is already at its process cap.
func (s *Scheduler) fork(t *player.Thread, in asm.Instruction) error {
	p, ok := s.Players.Get(t.Owner)
	if !ok {
		return vm.Faultf("unknown owner %d", t.Owner)
	}
	if len(p.Threads) >= s.maxProcesses {
		return nil
	}

	target, err := vm.JumpTarget(s.Core, t, in)
	if err != nil {
		return err
	}

	child := t.Clone()
	child.PC = target
	child.ID = s.nextThreadIDLocked()
	s.Players.AppendThread(t.Owner, child.ID)
	s.nextTickPool = append(s.nextTickPool, child)
	s.callbacks.updateThread(child.ID, child.PC, s.colorOf(child.Owner))
	return nil
}
