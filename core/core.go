// Package core implements the circular byte memory that yeetcode programs
// run in. Every address is taken modulo the core's size, so reads and writes
// wrap around the end of the array transparently.
package core

import "encoding/binary"

// NoOwner marks a byte that has never been written by any player.
const NoOwner int32 = -1

// Event describes a single byte write, used to build the batched
// core-event notifications consumed by the scheduler's event surface.
type Event struct {
	Index uint32
	Value byte
}

// Core is the circular memory shared by every thread in a match. It is not
// safe for concurrent use by itself; callers running it alongside other
// goroutines must serialize access with their own lock (see the scheduler
// package, which does exactly that).
type Core struct {
	bytes   []byte
	owner   []int32
	onWrite func([]Event)
}

// New allocates a core of the given size, cleared to zero with no owner.
// onWrite, if non-nil, is called once per Write/WriteBytes/WriteWord call
// with the full list of bytes written; Clear does not call it.
func New(size uint32, onWrite func([]Event)) *Core {
	return &Core{
		bytes:   make([]byte, size),
		owner:   newOwnerSlice(size),
		onWrite: onWrite,
	}
}

func newOwnerSlice(size uint32) []int32 {
	owner := make([]int32, size)
	for i := range owner {
		owner[i] = NoOwner
	}
	return owner
}

// Size returns the number of addressable bytes.
func (c *Core) Size() uint32 { return uint32(len(c.bytes)) }

// Read returns the byte at addr, wrapping addr into range.
func (c *Core) Read(addr uint32) byte {
	return c.bytes[addr%c.Size()]
}

// ReadRange returns length bytes starting at addr, wrapping past the end of
// the core as many times as needed.
func (c *Core) ReadRange(addr, length uint32) []byte {
	size := c.Size()
	out := make([]byte, length)
	for i := uint32(0); i < length; i++ {
		out[i] = c.bytes[(addr+i)%size]
	}
	return out
}

// ReadWord reads a 4-byte big-endian word starting at addr.
func (c *Core) ReadWord(addr uint32) uint32 {
	return binary.BigEndian.Uint32(c.ReadRange(addr, 4))
}

// Owner reports the id of the player who last wrote the byte at addr, or
// NoOwner if nothing has written there yet.
func (c *Core) Owner(addr uint32) int32 {
	return c.owner[addr%c.Size()]
}

// Write sets a single byte and records its owner, emitting a one-event
// write notification.
func (c *Core) Write(addr uint32, value byte, owner uint32) {
	size := c.Size()
	idx := addr % size
	c.bytes[idx] = value
	c.owner[idx] = int32(owner)
	c.emit([]Event{{Index: idx, Value: value}})
}

// WriteBytes writes data starting at addr, wrapping as needed, and emits a
// single grouped event covering every byte written.
func (c *Core) WriteBytes(addr uint32, data []byte, owner uint32) {
	size := c.Size()
	events := make([]Event, len(data))
	for i, b := range data {
		idx := (addr + uint32(i)) % size
		c.bytes[idx] = b
		c.owner[idx] = int32(owner)
		events[i] = Event{Index: idx, Value: b}
	}
	c.emit(events)
}

// WriteWord writes a 4-byte big-endian word starting at addr.
func (c *Core) WriteWord(addr uint32, value uint32, owner uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], value)
	c.WriteBytes(addr, b[:], owner)
}

// Clear fills the entire core with a repeated byte and resets ownership,
// without emitting write events — it is a bulk reset, not per-byte play.
func (c *Core) Clear(fill byte) {
	for i := range c.bytes {
		c.bytes[i] = fill
		c.owner[i] = NoOwner
	}
}

func (c *Core) emit(events []Event) {
	if c.onWrite != nil {
		c.onWrite(events)
	}
}
