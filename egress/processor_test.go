// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package egress

import (
	"testing"

	"github.com/arborflow/dataplane"
)

func TestProcessorForwardsToOut(t *testing.T) {
	out := make(chan RoutedPacket, 1)
	p := &Processor{Out: out}

	packet := &dataplane.Packet{Kind: dataplane.KindVtMessage}
	to := dataplane.NewToSet(7)

	if err := p.Process(packet, 2, to); err != nil {
		t.Fatalf("Process: %v", err)
	}

	select {
	case got := <-out:
		if got.Packet != packet || got.Shard != 2 || !got.To.Contains(7) {
			t.Fatalf("unexpected routed packet: %+v", got)
		}
	default:
		t.Fatalf("expected a routed packet on Out")
	}
}

var _ dataplane.EgressProcessor = (*Processor)(nil)
