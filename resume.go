// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dataplane

import "fmt"

// ResumeIgnoresDestinationSet documents a deliberate choice: ResumeAt
// replays every buffered entry from label up to the end of the buffer to
// the requesting node regardless of whether that node was one of the
// entry's original recipients, rather than guessing at a narrower replay
// for entries that originally fanned out to multiple children. Tests may
// read this var to document the behavior they are asserting against;
// flipping it has no effect on ResumeAt below, since it exists as a named
// decision record, not a feature flag.
var ResumeIgnoresDestinationSet = true

// ResumeAt requires self to be an Egress with a processor attached. For
// every buffered label from label up to the end of the buffer, it invokes
// the egress processor with a clone of that entry's payload, the given
// shard (defaulting to 0), and the singleton destination set containing
// node, ignoring whatever destination set was originally recorded for that
// entry (see the note on ResumeIgnoresDestinationSet above). After replay
// it advances node's send cursor past the end of the buffer, transitioning
// it from paused to active.
func (n *NodeRouting) ResumeAt(node NodeIndex, label uint64, onShard *int) error {
	if n.egress == nil {
		return nodeTypeMismatch("NodeRouting.ResumeAt", fmt.Errorf("node %v has no egress processor attached", n.self))
	}

	shard := 0
	if onShard != nil {
		shard = *onShard
	}

	maxLabel := uint64(len(n.buffer)) + 1
	to := NewToSet(node)

	for i := label; i < maxLabel; i++ {
		entry := n.buffer[i-1]
		if err := n.egress.Process(entry.payload.CloneData(), shard, to); err != nil {
			return err
		}
	}

	n.nextPacketToSend[node] = maxLabel
	return nil
}
