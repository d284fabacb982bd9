// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package nodeview provides a minimal arena-backed DomainNodes
// implementation, grounded in representing the graph as an arena with
// integer indices and in the Node struct of
// noria-server/dataflow/src/node/mod.rs (is_internal, get_base,
// global_addr). Graph construction itself is out of scope here; this
// arena only exists so the core's collaborator interfaces have something
// concrete to run against in tests and in cmd/domainloop.
package nodeview

import "github.com/arborflow/dataplane"

// Node is one entry in the arena.
type Node struct {
	Global   dataplane.NodeIndex
	Internal bool
	// Base is the NodeIndex this node's durable state lives under, if it
	// is a base node; IsBase is false for non-base nodes.
	Base   dataplane.NodeIndex
	IsBase bool
}

func (n *Node) IsInternal() bool { return n.Internal }

func (n *Node) GetBase() (dataplane.NodeIndex, bool) { return n.Base, n.IsBase }

func (n *Node) GlobalAddr() dataplane.NodeIndex { return n.Global }

// Arena is an in-memory DomainNodes keyed by LocalNodeIndex.
type Arena struct {
	nodes map[dataplane.LocalNodeIndex]*Node
}

// New returns an empty arena.
func New() *Arena {
	return &Arena{nodes: map[dataplane.LocalNodeIndex]*Node{}}
}

// Insert adds or replaces the node at local.
func (a *Arena) Insert(local dataplane.LocalNodeIndex, n *Node) {
	a.nodes[local] = n
}

// Node implements dataplane.DomainNodes.
func (a *Arena) Node(local dataplane.LocalNodeIndex) (dataplane.NodeView, bool) {
	n, ok := a.nodes[local]
	if !ok {
		return nil, false
	}
	return n, true
}
