package scheduler

import (
	"github.com/cadulceus/yeetwars/asm"
	"github.com/cadulceus/yeetwars/player"
)

// syscall dispatches a YEETCALL by the syscall number in t's xd register,
// writing its result (or the errTeey sentinel on failure) into dx.
func (s *Scheduler) syscall(t *player.Thread) {
	switch t.XD() {
	case asm.SyscallTransferOwnership:
		s.syscallTransferOwnership(t)
	case asm.SyscallLocateNearestThread:
		s.syscallLocateNearest(t)
	case asm.SyscallLocateRandomThread:
		s.syscallLocateRandom(t)
	case asm.SyscallRandomInt:
		t.SetDX(s.rng.Uint32())
	default:
		t.SetDX(errTeey)
	}
}

// syscallTransferOwnership moves t from its current owner's thread list to
// the player named by dx, provided that player exists and isn't already at
// 1.5x the process cap.
func (s *Scheduler) syscallTransferOwnership(t *player.Thread) {
	target := t.DX()
	p, ok := s.Players.Get(target)
	if !ok || len(p.Threads) >= transferCap(s.maxProcesses) {
		t.SetDX(errTeey)
		return
	}
	s.Players.RemoveThread(t.Owner, t.ID)
	t.Owner = target
	s.Players.AppendThread(target, t.ID)
}

func transferCap(maxProcesses int) int {
	return int(float64(maxProcesses) * 1.5)
}

const (
	nearestThreadMaxDistance = 256
	randomThreadMaxDistance  = 1024
)

// syscallLocateNearest writes the pc of the closest other-owned thread
// within nearestThreadMaxDistance into dx, or errTeey if none qualifies.
func (s *Scheduler) syscallLocateNearest(t *player.Thread) {
	closestDistance := nearestThreadMaxDistance + 1
	found := false
	var closestPC uint32

	for _, other := range s.allThreads() {
		if other.Owner == t.Owner {
			continue
		}
		if d := distance(other.PC, t.PC); d <= nearestThreadMaxDistance && d < closestDistance {
			closestDistance = d
			closestPC = other.PC
			found = true
		}
	}

	if !found {
		t.SetDX(errTeey)
		return
	}
	t.SetDX(closestPC)
}

// syscallLocateRandom writes the pc of a uniformly random thread within
// randomThreadMaxDistance into dx. t itself is always in range, so this
// never fails to find a candidate.
func (s *Scheduler) syscallLocateRandom(t *player.Thread) {
	var inRange []*player.Thread
	for _, other := range s.allThreads() {
		if distance(other.PC, t.PC) <= randomThreadMaxDistance {
			inRange = append(inRange, other)
		}
	}
	inRange = append(inRange, t)
	chosen := inRange[s.rng.Intn(len(inRange))]
	t.SetDX(chosen.PC)
}

func (s *Scheduler) allThreads() []*player.Thread {
	all := make([]*player.Thread, 0, len(s.threadPool)+len(s.nextTickPool))
	all = append(all, s.threadPool...)
	all = append(all, s.nextTickPool...)
	return all
}

func distance(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
