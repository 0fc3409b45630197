package scheduler

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cadulceus/yeetwars/asm"
	"github.com/cadulceus/yeetwars/player"
)

func newTestScheduler(t *testing.T, coreSize uint32, maxProcesses int) *Scheduler {
	t.Helper()
	s := New(coreSize, maxProcesses, time.Second, Callbacks{})
	require.True(t, s.Players.Add(0, "alice", "token-a"))
	require.True(t, s.Players.Add(1, "bob", "token-b"))
	return s
}

func loadProgram(t *testing.T, s *Scheduler, addr uint32, src string) {
	t.Helper()
	code, err := asm.Assemble(src)
	require.NoError(t, err)
	s.Core.WriteBytes(addr, code, 0)
}

func TestImpLoopAdvancesAndRewritesItself(t *testing.T) {
	s := newTestScheduler(t, 64, 8)
	loadProgram(t, s, 0, "YEET #0, #4")
	id := s.SpawnNewThread(player.NewThread(0, 0, 0, 0))

	s.Step()
	require.Equal(t, []byte{0x15, 0x00, 0x00, 0x04}, s.Core.ReadRange(4, 4))
	require.Equal(t, 0, s.CurrentPoolSize(), "the thread moved to the next-tick pool")
	require.Len(t, s.nextTickPool, 1)

	s.Step()
	require.Equal(t, []byte{0x15, 0x00, 0x00, 0x04}, s.Core.ReadRange(8, 4))
	require.Equal(t, uint64(0), id)
}

func TestByteVsWordWidthSelection(t *testing.T) {
	s := newTestScheduler(t, 128, 8)
	loadProgram(t, s, 4, "YEET $8, $81")
	s.SpawnNewThread(player.NewThread(4, 0, 0, 0))

	s.Step()
	require.Equal(t, byte(8), s.Core.Read(81))
}

func TestRegisterIndirectWrite(t *testing.T) {
	s := newTestScheduler(t, 128, 8)
	s.Core.WriteBytes(12, []byte("YEET"), 0)
	loadProgram(t, s, 0, "YEET [DX, $80")
	s.SpawnNewThread(player.NewThread(0, 0, 12, 0))

	s.Step()
	require.Equal(t, []byte("YEET"), s.Core.ReadRange(80, 4))
}

func TestArithmeticChainThenDivisionByZeroCrash(t *testing.T) {
	s := newTestScheduler(t, 256, 8)
	loadProgram(t, s, 0, "YOINK $3, #50\nSUB $5, $100\nMUL $7, %XD\nDIV $11, [DX\nFITS $13, $200\nDIV $0, $250")
	s.Core.Write(50, 17, 0)
	s.Core.Write(100, 21, 0)
	s.Core.Write(150, 23, 0)
	s.Core.Write(200, 29, 0)
	s.Core.WriteWord(250, 37, 0)

	thread := player.NewThread(0, 31, 150, 0)
	s.SpawnNewThread(thread)

	s.Step()
	require.Equal(t, byte(3+17), s.Core.Read(50))
	s.Step()
	require.Equal(t, byte(21-5), s.Core.Read(100))
	s.Step()
	require.Equal(t, uint32(31*7), thread.XD())
	s.Step()
	require.Equal(t, byte(23/11), s.Core.Read(150))
	s.Step()
	require.Equal(t, byte(29%13), s.Core.Read(200))
	s.Step()
	require.Equal(t, 0, s.CurrentPoolSize())
	require.Equal(t, 0, len(s.nextTickPool), "dividing address 250 by the immediate zero crashes the thread")
}

func TestNearestThreadSyscall(t *testing.T) {
	s := newTestScheduler(t, 2048, 8)
	loadProgram(t, s, 100, "YEETCALL $0, $0")
	near := player.NewThread(100, asm.SyscallLocateNearestThread, 0, 0)
	s.SpawnNewThread(near)

	other := player.NewThread(120, 0, 0, 1)
	s.SpawnNewThread(other)

	far := player.NewThread(2000, 0, 0, 1)
	s.SpawnNewThread(far)

	s.Step()
	require.Equal(t, uint32(120), near.DX())
}

func TestNearestThreadSyscallBothNeighborsShareOwner(t *testing.T) {
	s := newTestScheduler(t, 2048, 8)
	loadProgram(t, s, 0, "YEETCALL $0, $0")
	caller := player.NewThread(0, asm.SyscallLocateNearestThread, 0, 0)
	s.SpawnNewThread(caller)

	same1 := player.NewThread(10, 0, 0, 0)
	s.SpawnNewThread(same1)
	same2 := player.NewThread(20, 0, 0, 0)
	s.SpawnNewThread(same2)

	s.Step()
	require.Equal(t, uint32(errTeey), caller.DX(), "no other-owned thread in range leaves dx set to teey")
}

func TestTransferOwnershipAtExactlyOneAndAHalfTimesCapIsRefused(t *testing.T) {
	s := newTestScheduler(t, 64, 8)
	limit := transferCap(s.MaxProcesses())
	for i := 0; i < limit; i++ {
		s.Players.AppendThread(1, uint64(100+i))
	}
	loadProgram(t, s, 0, "YEETCALL $0, $0")
	thread := player.NewThread(0, asm.SyscallTransferOwnership, 1, 0)
	s.SpawnNewThread(thread)

	s.Step()
	require.Equal(t, uint32(errTeey), thread.DX(), "target already holds the transfer cap")
	require.Equal(t, uint32(0), thread.Owner, "ownership does not change on refusal")
}

func TestTransferOwnershipOneBelowCapSucceeds(t *testing.T) {
	s := newTestScheduler(t, 64, 8)
	limit := transferCap(s.MaxProcesses())
	for i := 0; i < limit-1; i++ {
		s.Players.AppendThread(1, uint64(100+i))
	}
	loadProgram(t, s, 0, "YEETCALL $0, $0")
	thread := player.NewThread(0, asm.SyscallTransferOwnership, 1, 0)
	s.SpawnNewThread(thread)

	s.Step()
	require.Equal(t, uint32(1), thread.Owner, "ownership moves to the target player")
	require.Equal(t, 0, s.Players.ThreadCount(0), "removed from the old owner's list")
	require.Equal(t, limit, s.Players.ThreadCount(1), "appended to the new owner's list")
}

func TestTransferOwnershipToUnknownPlayerIsRefused(t *testing.T) {
	s := newTestScheduler(t, 64, 8)
	loadProgram(t, s, 0, "YEETCALL $0, $0")
	thread := player.NewThread(0, asm.SyscallTransferOwnership, 99, 0)
	s.SpawnNewThread(thread)

	s.Step()
	require.Equal(t, uint32(errTeey), thread.DX())
	require.Equal(t, uint32(0), thread.Owner)
}

func TestLocateRandomThreadSyscallOnlyPicksInRangeCandidates(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		s := newTestScheduler(t, 4096, 8)
		s.rng = rand.New(rand.NewSource(seed))
		loadProgram(t, s, 100, "YEETCALL $0, $0")
		caller := player.NewThread(100, asm.SyscallLocateRandomThread, 0, 0)
		s.SpawnNewThread(caller)

		inRange := player.NewThread(900, 0, 0, 1) // distance 800, within 1024
		s.SpawnNewThread(inRange)

		outOfRange := player.NewThread(3000, 0, 0, 1) // distance 2900, outside 1024
		s.SpawnNewThread(outOfRange)

		s.Step()
		require.Contains(t, []uint32{100, 900}, caller.DX(), "never the out-of-range thread")
	}
}

func TestRandomIntSyscallWritesSeededValue(t *testing.T) {
	s := newTestScheduler(t, 64, 8)
	s.rng = rand.New(rand.NewSource(1))
	loadProgram(t, s, 0, "YEETCALL $0, $0")
	thread := player.NewThread(0, asm.SyscallRandomInt, 0, 0)
	s.SpawnNewThread(thread)

	s.Step()
	require.Equal(t, rand.New(rand.NewSource(1)).Uint32(), thread.DX())
}

func TestZoopRefusesPastProcessCap(t *testing.T) {
	s := newTestScheduler(t, 64, 1)
	loadProgram(t, s, 0, "ZOOP #8")
	parent := player.NewThread(0, 0, 0, 0)
	s.SpawnNewThread(parent)

	s.Step()
	require.Equal(t, 1, s.Players.ThreadCount(0), "at cap already, so the fork is refused")
}

func TestZoopForksChildWithinCap(t *testing.T) {
	s := newTestScheduler(t, 64, 4)
	loadProgram(t, s, 0, "ZOOP #8")
	parent := player.NewThread(0, 0, 0, 0)
	s.SpawnNewThread(parent)

	s.Step()
	require.Equal(t, 2, s.Players.ThreadCount(0))
}

func TestKillThreadPanicsOnUnknownID(t *testing.T) {
	s := newTestScheduler(t, 64, 4)
	require.Panics(t, func() { s.KillThread(999) })
}

func TestInvalidOpcodeCrashesThread(t *testing.T) {
	s := newTestScheduler(t, 64, 4)
	s.Core.WriteBytes(0, []byte{0x00, 0x00, 0x00, 0x00}, 0)
	s.SpawnNewThread(player.NewThread(0, 0, 0, 0))

	s.Step()
	require.Equal(t, 0, s.CurrentPoolSize())
	require.Equal(t, 0, s.Players.ThreadCount(0))
}

func TestTickRotatesPoolsAndCountsUp(t *testing.T) {
	s := newTestScheduler(t, 64, 4)
	s.SetSecondsPerTick(0)
	loadProgram(t, s, 0, "NOPE")
	s.SpawnNewThread(player.NewThread(0, 0, 0, 0))

	s.Tick()
	require.Equal(t, uint64(1), s.TickCount())
	require.Equal(t, 1, s.CurrentPoolSize())
}
