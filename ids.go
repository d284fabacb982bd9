// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dataplane

import "fmt"

// NodeIndex is a graph-global identifier for a node. It is stable across
// the lifetime of the graph that owns it, independent of which domain or
// shard currently hosts the node.
type NodeIndex uint64

// LocalNodeIndex identifies a node within the single domain that owns it.
// Two different domains may reuse the same LocalNodeIndex for unrelated
// nodes; only NodeIndex is globally unique.
type LocalNodeIndex uint64

// DomainIndex identifies a domain within the graph.
type DomainIndex uint64

// SourceID identifies a replica of the transaction time authority that
// produced an Assignment.
type SourceID string

func (n NodeIndex) String() string      { return fmt.Sprintf("n%d", uint64(n)) }
func (l LocalNodeIndex) String() string { return fmt.Sprintf("ln%d", uint64(l)) }

// Link carries the local source and destination of a packet within a domain.
type Link struct {
	Src LocalNodeIndex
	Dst LocalNodeIndex
}

// PacketID is the per-sender label and the NodeIndex that minted it. Labels
// start at 1 and increase strictly for every sender, though gaps are allowed.
type PacketID struct {
	Label uint64
	From  NodeIndex
}
