// Package player holds per-thread execution state and per-player
// bookkeeping: the registry of who owns what, scores, and colors.
package player

import "encoding/binary"

// UnassignedID marks a Thread created before the scheduler has handed out
// a real id — the scheduler replaces it on the thread's first injection.
const UnassignedID = ^uint64(0)

// Thread is one running process: a program counter into the shared core
// and two 32-bit registers, xd and dx, each viewable either as an integer
// or as its big-endian byte representation. Both views always agree,
// since they're backed by the same uint32.
type Thread struct {
	ID    uint64
	PC    uint32
	Owner uint32

	xd uint32
	dx uint32
}

// NewThread builds a thread with an unassigned id, ready to be handed to a
// scheduler's SpawnNewThread.
func NewThread(pc, xd, dx, owner uint32) *Thread {
	return &Thread{ID: UnassignedID, PC: pc, xd: xd, dx: dx, Owner: owner}
}

func (t *Thread) XD() uint32 { return t.xd }
func (t *Thread) DX() uint32 { return t.dx }

func (t *Thread) SetXD(v uint32) { t.xd = v }
func (t *Thread) SetDX(v uint32) { t.dx = v }

func (t *Thread) XDBytes() [4]byte { return packWord(t.xd) }
func (t *Thread) DXBytes() [4]byte { return packWord(t.dx) }

func (t *Thread) SetXDBytes(b [4]byte) { t.xd = binary.BigEndian.Uint32(b[:]) }
func (t *Thread) SetDXBytes(b [4]byte) { t.dx = binary.BigEndian.Uint32(b[:]) }

func packWord(v uint32) [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b
}

// Clone deep-copies the thread, used by ZOOP to fork a child with the same
// register state and a fresh pc and id.
func (t *Thread) Clone() *Thread {
	c := *t
	return &c
}
