// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dataplane

import "time"

// PacketEventKind enumerates the debug events a Tracer can emit. Merged is
// the only one the packet plane itself produces.
type PacketEventKind int

const (
	// PacketEventMerged is emitted when two tracers collide during a
	// group-commit merge; the surviving tag absorbs the other.
	PacketEventMerged PacketEventKind = iota
)

// DebugEvent is the payload sent to a Tracer's Sender when something
// tracer-worthy happens to the packet carrying it.
type DebugEvent struct {
	Instant time.Time
	Event   PacketEventKind
	// Surviving is the tag that remains attached to the packet after the
	// event; Absorbed is the tag that was discarded.
	Surviving uint64
	Absorbed  uint64
}

// Tracer optionally rides along with a Packet. Sender is nil for packets
// that are not being actively debugged.
type Tracer struct {
	Tag    uint64
	Sender chan<- DebugEvent
}

// HasSender reports whether events for this tracer should be emitted.
func (t *Tracer) HasSender() bool {
	return t != nil && t.Sender != nil
}

// mergeTracers implements the tracer merge rule: if both sides carry a
// tracer with a sender, the surviving tracer emits a Merged event naming
// the absorbed tag before being returned; if only one side has a sender,
// it survives untouched. If either side is nil the other is returned, and
// if neither has a sender acc is kept.
func mergeTracers(acc, next *Tracer) *Tracer {
	switch {
	case acc == nil:
		return next
	case next == nil:
		return acc
	case acc.HasSender() && next.HasSender():
		acc.Sender <- DebugEvent{
			Instant:   timeNow(),
			Event:     PacketEventMerged,
			Surviving: acc.Tag,
			Absorbed:  next.Tag,
		}
		return acc
	case next.HasSender():
		return next
	default:
		return acc
	}
}

// timeNow exists so tests can substitute a deterministic clock.
var timeNow = time.Now
