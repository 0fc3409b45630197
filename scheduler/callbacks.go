package scheduler

import "github.com/cadulceus/yeetwars/core"

// Callbacks is the event surface a host registers to observe a match.
// Every field is optional; a nil callback is simply never invoked.
type Callbacks struct {
	// CoreEvent fires once per core mutation, with every byte that
	// changed (a multi-byte write is reported as one call).
	CoreEvent func(events []core.Event)
	// UpdateThread fires whenever a thread's pc changes: after a normal
	// step, a jump, or a ZOOP spawn.
	UpdateThread func(threadID uint64, pc uint32, color string)
	// KillThread fires whenever a thread leaves the pools, whether by
	// crash, an explicit kill, or eviction to stay under a process cap.
	KillThread func(threadID uint64)
	// RuntimeEvent carries a free-form diagnostic string describing what
	// just happened, for hosts that want a human-readable trace.
	RuntimeEvent func(message string)
	// TickEvent fires once at the start of every tick.
	TickEvent func()
}

func (cb Callbacks) coreEvent(events []core.Event) {
	if cb.CoreEvent != nil {
		cb.CoreEvent(events)
	}
}

func (cb Callbacks) updateThread(id uint64, pc uint32, color string) {
	if cb.UpdateThread != nil {
		cb.UpdateThread(id, pc, color)
	}
}

func (cb Callbacks) killThread(id uint64) {
	if cb.KillThread != nil {
		cb.KillThread(id)
	}
}

func (cb Callbacks) runtimeEvent(message string) {
	if cb.RuntimeEvent != nil {
		cb.RuntimeEvent(message)
	}
}

func (cb Callbacks) tickEvent() {
	if cb.TickEvent != nil {
		cb.TickEvent()
	}
}
