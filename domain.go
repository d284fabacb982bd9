// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dataplane

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// idleTick is the sleep used when no destination is pending a flush, so
// the loop still wakes up periodically to notice new inbound packets
// handed to it between selects.
const idleTick = 10 * time.Millisecond

// Loop is the single-threaded cooperative driver of one domain: it owns
// that domain's group-commit queue and routing state, and guarantees that
// at most one operation on that state executes at a time by only ever
// touching it from the goroutine running Run.
type Loop struct {
	Queue  *GroupCommitQueueSet
	Nodes  DomainNodes
	Txn    TransactionTimeClient
	Logger *logrus.Logger

	// Inbound delivers packets destined for base nodes in this domain.
	// The loop offers each to Queue and, if it should be appended, drains
	// any merged packet it produces to Committed.
	Inbound chan *Packet
	// Committed receives merged packets as group-commit flushes complete,
	// whether triggered by capacity or timeout. Packets still pending when
	// ctx is done are not flushed.
	Committed chan *Packet
}

// NewLoop wires a Loop from its collaborators. Logger defaults to the
// package-level logrus default if nil.
func NewLoop(queue *GroupCommitQueueSet, nodes DomainNodes, txn TransactionTimeClient, logger *logrus.Logger) *Loop {
	if logger == nil {
		logger = defaultLogger
	}

	return &Loop{
		Queue:     queue,
		Nodes:     nodes,
		Txn:       txn,
		Logger:    logger,
		Inbound:   make(chan *Packet),
		Committed: make(chan *Packet, 1),
	}
}

// Run drives the loop until ctx is done or a fatal error is encountered, at
// which point it stops and returns that error rather than crashing the
// process, since a host may be running many domains at once and one
// domain's abort must not take down the others. On every return path,
// including a recovered panic, it closes Queue so its log files are
// released (and unlinked under DeleteOnExit).
func (l *Loop) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if fe, ok := r.(*FatalError); ok {
				err = fe
			} else {
				err = fmt.Errorf("panic in domain loop: %v", r)
			}
			l.Logger.WithError(err).Error("domain loop aborting on panic")
		}
		if cerr := l.Queue.Close(); cerr != nil {
			l.Logger.WithError(cerr).Error("closing group commit queue")
			if err == nil {
				err = cerr
			}
		}
	}()

	timer := time.NewTimer(idleTick)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case p := <-l.Inbound:
			if err := l.handle(p); err != nil {
				l.Logger.WithError(err).Error("domain loop aborting")
				return err
			}

		case <-timer.C:
			span := spanFor("domain.flush_if_necessary")
			for {
				merged, err := l.Queue.FlushIfNecessary(l.Nodes, l.Txn)
				if err != nil {
					span.RecordError(err)
					span.End()
					l.Logger.WithError(err).Error("domain loop aborting on flush")
					return err
				}
				if merged == nil {
					break
				}
				l.Committed <- merged
			}
			span.End()
		}

		timer.Reset(l.nextSleep())
	}
}

// handle offers one inbound packet to the group commit queue, forwarding
// whatever merged packet (if any) it produces.
func (l *Loop) handle(p *Packet) error {
	if !l.Queue.ShouldAppend(p, l.Nodes) {
		return nil
	}

	merged, err := l.Queue.Append(p, l.Nodes, l.Txn)
	if err != nil {
		return err
	}
	if merged != nil {
		l.Committed <- merged
	}
	return nil
}

// nextSleep resolves the queue's next pending flush into a concrete timer
// duration, falling back to idleTick when nothing is pending.
func (l *Loop) nextSleep() time.Duration {
	if d, ok := l.Queue.DurationUntilFlush(); ok {
		if d <= 0 {
			return time.Millisecond
		}
		return d
	}
	return idleTick
}
