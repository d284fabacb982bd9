// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dataplane

// Record is a single opaque row flowing through the dataflow graph. Its
// shape is deliberately left to callers (operator algebra owns schemas);
// the packet plane only ever appends, counts, and serializes them.
type Record map[string]interface{}

// RecordBatch is the ordered, appendable multiset carried by a Packet's
// Data field. Append concatenates and preserves enqueue order,
// which is what backs a flush's FIFO guarantee.
type RecordBatch []Record

// Append concatenates other onto the batch in order and returns the result.
func (b RecordBatch) Append(other RecordBatch) RecordBatch {
	return append(b, other...)
}
