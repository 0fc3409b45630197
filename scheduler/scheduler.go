// Package scheduler drives the two-pool tick loop: decoding and executing
// one instruction at a time, rotating threads between the pool running
// this tick and the pool queued for the next one, and bookkeeping spawns,
// kills, and per-player process caps.
package scheduler

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/cadulceus/yeetwars/asm"
	"github.com/cadulceus/yeetwars/core"
	"github.com/cadulceus/yeetwars/player"
	"github.com/cadulceus/yeetwars/vm"
)

// errTeey is the sentinel value YEETCALL writes into dx when a syscall
// cannot satisfy its request — the bytes of the literal "teey" as a
// big-endian word.
const errTeey = 0x74656579

// Scheduler owns a match's core, players, and the two thread pools. mu
// guards every field below it. Every exported method except Tick and
// MaxProcesses takes the lock for its duration; Tick holds it around each
// step and releases it while pacing. A Scheduler is safe to drive from one goroutine while
// another calls SpawnNewThread or KillThread concurrently (the shape
// described for a host running the tick loop on its own goroutine while
// other goroutines serve external interfaces).
type Scheduler struct {
	Core    *core.Core
	Players *player.Registry

	mu             sync.Mutex
	threadPool     []*player.Thread
	nextTickPool   []*player.Thread
	tickCount      uint64
	threadCounter  uint64
	maxProcesses   int
	secondsPerTick time.Duration

	callbacks Callbacks
	rng       *rand.Rand
}

// New builds a scheduler over a fresh core of the given size. maxProcesses
// is the per-player thread count at which ZOOP refuses to fork;
// TRANSFER_OWNERSHIP accepts up to 1.5 times it, and SpawnNewThread does
// not check it. secondsPerTick is the wall-clock budget Tick paces itself
// against.
func New(coreSize uint32, maxProcesses int, secondsPerTick time.Duration, cb Callbacks) *Scheduler {
	s := &Scheduler{
		Players:        player.NewRegistry(),
		maxProcesses:   maxProcesses,
		secondsPerTick: secondsPerTick,
		callbacks:      cb,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.Core = core.New(coreSize, cb.coreEvent)
	return s
}

// MaxProcesses returns the per-player thread cap.
func (s *Scheduler) MaxProcesses() int { return s.maxProcesses }

// TickCount reports how many ticks have completed.
func (s *Scheduler) TickCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickCount
}

// SetSecondsPerTick changes the pacing budget used by future ticks.
func (s *Scheduler) SetSecondsPerTick(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secondsPerTick = d
}

// CurrentPoolSize reports how many threads are queued to run this tick.
func (s *Scheduler) CurrentPoolSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.threadPool)
}

// Step executes a single instruction: decode the thread at the head of the
// current pool, run it, and either re-queue it into the next-tick pool
// (advancing its pc, unless the instruction already jumped) or drop it on
// a crash. If the current pool is empty but the next-tick pool is not,
// Step swaps them first, exactly as if a new tick had begun.
func (s *Scheduler) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stepLocked()
}

func (s *Scheduler) stepLocked() {
	if len(s.threadPool) == 0 {
		if len(s.nextTickPool) == 0 {
			return
		}
		s.threadPool, s.nextTickPool = s.nextTickPool, nil
		s.tickCount++
	}

	t := s.threadPool[0]
	s.threadPool = s.threadPool[1:]

	var word [4]byte
	copy(word[:], s.Core.ReadRange(t.PC, asm.InstructionWidth))
	in := asm.Decode(word)

	if p, ok := s.Players.Get(t.Owner); ok {
		p.Score++
	}

	handled, err := s.execute(t, in)
	if err != nil {
		s.crashThreadLocked(t, err)
		return
	}
	if handled {
		return
	}

	t.PC = (t.PC + asm.InstructionWidth) % s.Core.Size()
	s.nextTickPool = append(s.nextTickPool, t)
	s.callbacks.updateThread(t.ID, t.PC, s.colorOf(t.Owner))
}

// Tick runs one full generation: every thread in the current pool gets to
// run once, paced across the configured per-tick budget, then the
// next-tick pool becomes the current pool. If the current pool begins
// empty, Tick sleeps the full budget rather than spinning.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	s.callbacks.tickEvent()
	poolSize := len(s.threadPool)
	budget := s.secondsPerTick
	s.mu.Unlock()

	if poolSize == 0 {
		time.Sleep(budget)
	}

	var perStep time.Duration
	if poolSize > 0 {
		perStep = budget / time.Duration(poolSize)
	}

	for {
		s.mu.Lock()
		if len(s.threadPool) == 0 {
			s.mu.Unlock()
			break
		}
		s.stepLocked()
		s.mu.Unlock()
		if perStep > 0 {
			time.Sleep(perStep)
		}
	}

	s.mu.Lock()
	s.threadPool, s.nextTickPool = s.nextTickPool, nil
	s.tickCount++
	s.mu.Unlock()
}

// SpawnNewThread injects a thread from outside the running match (as
// opposed to ZOOP, which forks one from inside it). If t was built with
// player.NewThread its id is unassigned and the scheduler hands out the
// next one; the thread lands in the current pool so it runs this tick.
func (s *Scheduler) SpawnNewThread(t *player.Thread) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == player.UnassignedID {
		t.ID = s.nextThreadIDLocked()
	}
	s.Players.AppendThread(t.Owner, t.ID)
	s.threadPool = append(s.threadPool, t)
	glog.Infof("spawned thread %d for player %d at pc=%d", t.ID, t.Owner, t.PC)
	s.callbacks.updateThread(t.ID, t.PC, s.colorOf(t.Owner))
	return t.ID
}

func (s *Scheduler) nextThreadIDLocked() uint64 {
	id := s.threadCounter
	s.threadCounter++
	return id
}

// KillThread removes a thread by id from whichever pool holds it. It
// panics if the id is in neither pool — that indicates bookkeeping
// corruption in the caller, not a recoverable runtime condition.
func (s *Scheduler) KillThread(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.killThreadLocked(id)
}

// KillOldestThread removes playerID's longest-lived thread, used to make
// room under the process cap. It is a no-op if the player owns none.
func (s *Scheduler) KillOldestThread(playerID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.Players.OldestThread(playerID)
	if !ok {
		return
	}
	s.killThreadLocked(id)
}

func (s *Scheduler) killThreadLocked(id uint64) {
	if s.removeFromPoolLocked(&s.threadPool, id) {
		return
	}
	if s.removeFromPoolLocked(&s.nextTickPool, id) {
		return
	}
	panic(fmt.Sprintf("scheduler: kill_thread: no thread with id %d in either pool", id))
}

func (s *Scheduler) removeFromPoolLocked(pool *[]*player.Thread, id uint64) bool {
	for i, t := range *pool {
		if t.ID != id {
			continue
		}
		*pool = append((*pool)[:i], (*pool)[i+1:]...)
		s.Players.RemoveThread(t.Owner, id)
		glog.Infof("killed thread %d (player %d)", id, t.Owner)
		s.callbacks.killThread(id)
		s.callbacks.runtimeEvent(fmt.Sprintf("killed thread %d", id))
		return true
	}
	return false
}

func (s *Scheduler) crashThreadLocked(t *player.Thread, cause error) {
	s.Players.RemoveThread(t.Owner, t.ID)
	msg := fmt.Sprintf("thread %d (player %d) crashed at pc=%d: %v", t.ID, t.Owner, t.PC, cause)
	glog.Warningf("%s", msg)
	s.callbacks.killThread(t.ID)
	s.callbacks.runtimeEvent(msg)
}

func (s *Scheduler) colorOf(playerID uint32) string {
	if p, ok := s.Players.Get(playerID); ok {
		return p.Color.Hex()
	}
	return "#000000"
}
