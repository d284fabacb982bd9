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

// Parameters controls a GroupCommitQueueSet's batching and durability
// behavior. Struct tags let ./config load it from YAML.
type Parameters struct {
	Capacity     int            `yaml:"capacity" mapstructure:"capacity"`
	FlushTimeout time.Duration  `yaml:"flush_timeout" mapstructure:"flush_timeout"`
	Mode         DurabilityMode `yaml:"mode" mapstructure:"mode"`
	LogPrefix    string         `yaml:"log_prefix" mapstructure:"log_prefix"`
}

// DefaultParameters returns sensible defaults: capacity 256, a 1ms flush
// timeout, MemoryOnly durability, and log prefix "soup".
func DefaultParameters() Parameters {
	return Parameters{
		Capacity:     256,
		FlushTimeout: time.Millisecond,
		Mode:         MemoryOnly,
		LogPrefix:    "soup",
	}
}

// GroupCommitQueueSet is the per-destination pending queue that buffers
// VtMessage writes to base nodes and flushes them, atomically per batch,
// into a single merged packet.
type GroupCommitQueueSet struct {
	domainIndex DomainIndex
	shard       uint64
	params      Parameters

	pending   map[LocalNodeIndex][]*Packet
	waitStart map[LocalNodeIndex]time.Time
	files     *LogFileSet

	// replySinks is an opaque per-peer registry: the core holds it but
	// never reads or writes through it during a flush.
	replySinks map[string]ReplySink

	logger *logrus.Logger
}

// NewGroupCommitQueueSet constructs an empty queue set for one domain/shard.
// params.Capacity must be > 0.
func NewGroupCommitQueueSet(domainIndex DomainIndex, shard uint64, params Parameters, logger *logrus.Logger) (*GroupCommitQueueSet, error) {
	if params.Capacity <= 0 {
		return nil, invariant("NewGroupCommitQueueSet", fmt.Errorf("capacity must be > 0, got %d", params.Capacity))
	}

	if logger == nil {
		logger = defaultLogger
	}

	return &GroupCommitQueueSet{
		domainIndex: domainIndex,
		shard:       shard,
		params:      params,
		pending:     map[LocalNodeIndex][]*Packet{},
		waitStart:   map[LocalNodeIndex]time.Time{},
		files:       NewLogFileSet(domainIndex, shard, params.LogPrefix, params.Mode, params.Capacity),
		replySinks:  map[string]ReplySink{},
		logger:      logger,
	}, nil
}

// ReplySink returns the sink registered under addr, if any. The sink
// registry is an opaque pass-through the core never consults on its own.
func (q *GroupCommitQueueSet) ReplySink(addr string) (ReplySink, bool) {
	s, ok := q.replySinks[addr]
	return s, ok
}

// SetReplySink registers (or replaces) the sink for addr.
func (q *GroupCommitQueueSet) SetReplySink(addr string, sink ReplySink) {
	q.replySinks[addr] = sink
}

// DeleteReplySink removes the sink registered under addr, if any.
func (q *GroupCommitQueueSet) DeleteReplySink(addr string) {
	delete(q.replySinks, addr)
}

// packetDestination returns the local destination of p, and whether p is a
// packet the group-commit queue concerns itself with at all (only
// VtMessage packets carry a destination this queue cares about).
func packetDestination(p *Packet) (LocalNodeIndex, bool) {
	if p.Kind != KindVtMessage {
		return 0, false
	}
	return p.Link.Dst, true
}

// ShouldAppend reports whether p is a VtMessage destined for an internal
// base node. Any other packet should be passed through untouched by the
// caller.
func (q *GroupCommitQueueSet) ShouldAppend(p *Packet, nodes DomainNodes) bool {
	dst, ok := packetDestination(p)
	if !ok {
		return false
	}

	view, ok := nodes.Node(dst)
	if !ok {
		return false
	}

	if !view.IsInternal() {
		return false
	}

	_, isBase := view.GetBase()
	return isBase
}

// Append buffers p for its destination. Precondition: ShouldAppend(p,
// nodes) was true. If the buffer reaches capacity, an immediate flush is
// performed and its merged packet returned; otherwise Append returns nil
// and, if this is the first packet queued for that destination, starts
// its wait timer.
func (q *GroupCommitQueueSet) Append(p *Packet, nodes DomainNodes, txn TransactionTimeClient) (*Packet, error) {
	dst, ok := packetDestination(p)
	if !ok {
		return nil, invariant("GroupCommitQueueSet.Append", fmt.Errorf("packet of kind %s has no group-commit destination", p.Kind))
	}

	q.pending[dst] = append(q.pending[dst], p)

	if len(q.pending[dst]) >= q.params.Capacity {
		return q.flush(dst, nodes, txn)
	}

	if _, waiting := q.waitStart[dst]; !waiting {
		q.waitStart[dst] = timeNow()
	}

	return nil, nil
}

// FlushIfNecessary scans the pending destinations for the first one whose
// elapsed wait has reached the configured flush timeout, flushes exactly
// that one, and returns its merged packet. The caller loops this to drain
// every timed-out destination.
func (q *GroupCommitQueueSet) FlushIfNecessary(nodes DomainNodes, txn TransactionTimeClient) (*Packet, error) {
	var timedOut LocalNodeIndex
	found := false

	for node, started := range q.waitStart {
		if timeNow().Sub(started) >= q.params.FlushTimeout {
			timedOut = node
			found = true
			break
		}
	}

	if !found {
		return nil, nil
	}

	return q.flush(timedOut, nodes, txn)
}

// DurationUntilFlush returns the minimum remaining time across every
// pending destination, saturating at zero, or (0, false) if no queue has
// anything pending.
func (q *GroupCommitQueueSet) DurationUntilFlush() (time.Duration, bool) {
	found := false
	min := time.Duration(0)

	for _, started := range q.waitStart {
		remaining := q.params.FlushTimeout - timeNow().Sub(started)
		if remaining < 0 {
			remaining = 0
		}
		if !found || remaining < min {
			min = remaining
			found = true
		}
	}

	return min, found
}

// flush persists the pending batch for destination n (unless MemoryOnly),
// clears its wait timer, and merges the drained batch into one packet.
func (q *GroupCommitQueueSet) flush(n LocalNodeIndex, nodes DomainNodes, txn TransactionTimeClient) (*Packet, error) {
	start := timeNow()
	batch := q.pending[n]

	if q.params.Mode != MemoryOnly {
		toFlush := make([]RecordBatch, len(batch))
		for i, p := range batch {
			if !p.IsVtMessage() {
				return nil, invariant("GroupCommitQueueSet.flush", fmt.Errorf("pending packet for node %v is not a VtMessage", n))
			}
			toFlush[i] = p.Data
		}

		if err := q.files.WriteLine(n, toFlush); err != nil {
			q.logger.WithError(err).WithField("node", n).Error("group commit flush failed")
			return nil, err
		}
	}

	delete(q.waitStart, n)
	delete(q.pending, n)

	merged, err := q.mergePackets(batch, nodes, txn)

	flushCounter.Record(context.Background(), int64(len(batch)))
	flushDuration.Record(context.Background(), int64(timeNow().Sub(start)))

	return merged, err
}

// mergePackets folds every batch member's data into one record batch in
// enqueue order, obtains a transaction assignment for the shared
// destination's global address, merges tracers, and emits the single
// committed VtMessage.
func (q *GroupCommitQueueSet) mergePackets(batch []*Packet, nodes DomainNodes, txn TransactionTimeClient) (*Packet, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	link := batch[0].Link
	view, ok := nodes.Node(link.Dst)
	if !ok {
		return nil, invariant("GroupCommitQueueSet.mergePackets", fmt.Errorf("unknown destination node %v", link.Dst))
	}
	base := view.GlobalAddr()

	assignment, err := txn.AssignTime(base)
	if err != nil {
		return nil, err
	}

	var data RecordBatch
	var tr *Tracer
	for _, p := range batch {
		if !p.IsVtMessage() {
			return nil, invariant("GroupCommitQueueSet.mergePackets", fmt.Errorf("batch member for node %v is not a VtMessage", link.Dst))
		}
		if p.Link != link {
			return nil, invariant("GroupCommitQueueSet.mergePackets", fmt.Errorf("link mismatch within batch for node %v", link.Dst))
		}
		data = data.Append(p.Data)
		tr = mergeTracers(tr, p.Tracer)
	}

	return &Packet{
		Kind:   KindVtMessage,
		Link:   link,
		Data:   data,
		Tracer: tr,
		State:  Committed,
		At:     assignment,
		Base:   base,
	}, nil
}

// Close releases every log file this queue set opened, unlinking them
// first if the mode is DeleteOnExit. Loop.Run calls it on every return
// path; a further call finds nothing left open and returns nil.
func (q *GroupCommitQueueSet) Close() error {
	return q.files.Close()
}
