// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package egress provides a reference EgressProcessor, grounded in the
// resume_at method of noria-server/dataflow/src/node/mod.rs, which hands
// a cloned packet, a shard number, an output sink, and a destination set
// to the egress node's process function. The real operator (forwarding
// packets across a network transport) is out of scope here; this
// Processor instead forwards into a channel so a replay's behavior is
// independently observable in tests.
package egress

import "github.com/arborflow/dataplane"

// RoutedPacket is one packet handed to a Processor, tagged with the shard
// and destination set it was replayed with.
type RoutedPacket struct {
	Packet *dataplane.Packet
	Shard  int
	To     dataplane.ToSet
}

// Processor implements dataplane.EgressProcessor by forwarding every
// processed packet onto Out. Out must have enough capacity for the
// replay, or a consumer draining it concurrently with ResumeAt, since
// ResumeAt's caller runs on the single domain goroutine and must not
// block indefinitely on a full channel.
type Processor struct {
	Out chan<- RoutedPacket
}

// Process implements dataplane.EgressProcessor.
func (p *Processor) Process(packet *dataplane.Packet, shard int, to dataplane.ToSet) error {
	p.Out <- RoutedPacket{Packet: packet, Shard: shard, To: to}
	return nil
}
