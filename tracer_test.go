// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dataplane

import "testing"

func TestMergeTracersNilEitherSide(t *testing.T) {
	tr := &Tracer{Tag: 1}

	if got := mergeTracers(nil, tr); got != tr {
		t.Fatalf("expected next to survive when acc is nil")
	}
	if got := mergeTracers(tr, nil); got != tr {
		t.Fatalf("expected acc to survive when next is nil")
	}
}

func TestMergeTracersOnlyOneHasSender(t *testing.T) {
	withSender := &Tracer{Tag: 1, Sender: make(chan DebugEvent, 1)}
	withoutSender := &Tracer{Tag: 2}

	if got := mergeTracers(withoutSender, withSender); got != withSender {
		t.Fatalf("expected the tracer with a sender to survive")
	}
	if got := mergeTracers(withSender, withoutSender); got != withSender {
		t.Fatalf("expected the tracer with a sender to survive regardless of side")
	}
}

func TestMergeTracersBothHaveSenderEmitsEvent(t *testing.T) {
	accCh := make(chan DebugEvent, 1)
	acc := &Tracer{Tag: 10, Sender: accCh}
	next := &Tracer{Tag: 20, Sender: make(chan DebugEvent, 1)}

	got := mergeTracers(acc, next)
	if got != acc {
		t.Fatalf("expected acc to survive a merge where both have senders")
	}

	select {
	case ev := <-accCh:
		if ev.Event != PacketEventMerged || ev.Surviving != 10 || ev.Absorbed != 20 {
			t.Fatalf("unexpected event payload: %+v", ev)
		}
	default:
		t.Fatalf("expected a DebugEvent on acc's sender")
	}
}

func TestMergeTracersNeitherHasSender(t *testing.T) {
	acc := &Tracer{Tag: 1}
	next := &Tracer{Tag: 2}

	if got := mergeTracers(acc, next); got != acc {
		t.Fatalf("expected acc to survive when neither side has a sender")
	}
}
