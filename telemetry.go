// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dataplane

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/global"
	"go.opentelemetry.io/otel/trace"
)

// defaultLogger is the package-level logrus default: warn level to stderr,
// used whenever a *GroupCommitQueueSet or Loop is built without an explicit
// logger.
var defaultLogger = &logrus.Logger{
	Out:       os.Stderr,
	Formatter: new(logrus.TextFormatter),
	Hooks:     make(logrus.LevelHooks),
	Level:     logrus.WarnLevel,
}

var (
	meter  = global.Meter("dataplane")
	tracer = otel.GetTracerProvider().Tracer("dataplane")

	flushCounter   = metric.Must(meter).NewInt64ValueRecorder("dataplane.flush.records")
	flushDuration  = metric.Must(meter).NewInt64ValueRecorder("dataplane.flush.duration_ns")
	receiveCounter = metric.Must(meter).NewInt64ValueRecorder("dataplane.receive.label")
	sendCounter    = metric.Must(meter).NewInt64ValueRecorder("dataplane.send.label")
)

// spanFor starts a span tagged with the operation performing work inside a
// domain. Domains are single-threaded and synchronous at the core level, so
// a background context is sufficient; callers wiring a domain to an
// upstream request context should use the span directly rather than
// threading ctx through the packet plane's components.
func spanFor(op string) trace.Span {
	_, span := tracer.Start(context.Background(), op)
	return span
}
