// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command domainloop wires a group-commit queue, routing state, and a
// time authority together into a single runnable domain. It carries no
// CLI flag parsing of its own, since the core has no CLI surface, and
// reads at most one optional path to a YAML Parameters file.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/arborflow/dataplane"
	"github.com/arborflow/dataplane/config"
	"github.com/arborflow/dataplane/egress"
	"github.com/arborflow/dataplane/nodeview"
	"github.com/arborflow/dataplane/timeauthority"
)

func main() {
	logger := logrus.StandardLogger()

	params := dataplane.DefaultParameters()
	if path := os.Getenv("DOMAINLOOP_CONFIG"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			logger.WithError(err).Fatal("loading config")
		}
		params = loaded
	}

	queue, err := dataplane.NewGroupCommitQueueSet(0, 0, params, logger)
	if err != nil {
		logger.WithError(err).Fatal("constructing group commit queue")
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logger.WithError(err).Error("closing group commit queue")
		}
	}()

	nodes := nodeview.New()
	nodes.Insert(0, &nodeview.Node{Global: 0, Internal: true, Base: 0, IsBase: true})

	routed := make(chan egress.RoutedPacket, params.Capacity)
	defer close(routed)

	routing := dataplane.NewNodeRouting(0)
	routing.SetEgress(&egress.Processor{Out: routed})

	loop := dataplane.NewLoop(queue, nodes, timeauthority.New(), logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		for merged := range loop.Committed {
			logger.WithFields(logrus.Fields{
				"link":        merged.Link,
				"buffer_size": routing.BufferLen(),
			}).Info("committed batch")
		}
	}()

	go func() {
		for r := range routed {
			logger.WithField("shard", r.Shard).Info("egress replay")
		}
	}()

	if err := loop.Run(ctx); err != nil {
		logger.WithError(err).Fatal("domain loop aborted")
	}
}
