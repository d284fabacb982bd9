// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dataplane

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// logFile is one destination's lazily-opened append-only handle.
type logFile struct {
	path   string
	file   *os.File
	writer *bufio.Writer
}

// LogFileSet owns the append-only log files for one GroupCommitQueueSet.
// Files are opened lazily per destination on first flush and kept open
// for the lifetime of the set; they are only closed by Close.
type LogFileSet struct {
	domain DomainIndex
	shard  uint64
	prefix string
	mode   DurabilityMode
	bufCap int

	files map[LocalNodeIndex]*logFile
}

// NewLogFileSet constructs an empty set. No files are opened until the
// first WriteLine call for a given destination.
func NewLogFileSet(domain DomainIndex, shard uint64, prefix string, mode DurabilityMode, bufCap int) *LogFileSet {
	return &LogFileSet{
		domain: domain,
		shard:  shard,
		prefix: prefix,
		mode:   mode,
		bufCap: bufCap,
		files:  map[LocalNodeIndex]*logFile{},
	}
}

// logPath renders the log filename
// "{log_prefix}-log-{domain_index}_{domain_shard}-{local_node_id}.json",
// taken relative to the process working directory.
func (s *LogFileSet) logPath(node LocalNodeIndex) string {
	return fmt.Sprintf("%s-log-%d_%d-%d.json", s.prefix, uint64(s.domain), s.shard, uint64(node))
}

func (s *LogFileSet) getOrCreate(node LocalNodeIndex) (*logFile, error) {
	if f, ok := s.files[node]; ok {
		return f, nil
	}

	path := s.logPath(node)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	lf := &logFile{
		path:   path,
		file:   f,
		writer: bufio.NewWriterSize(f, s.bufCap*1024),
	}
	s.files[node] = lf
	return lf, nil
}

// WriteLine serializes batch ([]p.Data for p in the flushed batch) as one
// JSON array followed by a single newline, flushes the buffer, and issues
// a data sync on the underlying file so the write is durable before
// returning. It is a no-op under MemoryOnly.
func (s *LogFileSet) WriteLine(node LocalNodeIndex, batch []RecordBatch) error {
	if s.mode == MemoryOnly {
		return nil
	}

	lf, err := s.getOrCreate(node)
	if err != nil {
		return persistence("LogFileSet.WriteLine.open", err)
	}

	if err := json.NewEncoder(lf.writer).Encode(batch); err != nil {
		return persistence("LogFileSet.WriteLine.encode", err)
	}

	if err := lf.writer.Flush(); err != nil {
		return persistence("LogFileSet.WriteLine.flush", err)
	}

	if err := lf.file.Sync(); err != nil {
		return persistence("LogFileSet.WriteLine.sync", err)
	}

	return nil
}

// Close releases every opened file. Under DeleteOnExit it unlinks each one
// after closing; under Permanent and MemoryOnly it leaves them (MemoryOnly
// never opened any). A call after every file has been released is a no-op.
func (s *LogFileSet) Close() error {
	var firstErr error
	for node, lf := range s.files {
		if err := lf.file.Close(); err != nil && firstErr == nil {
			firstErr = persistence("LogFileSet.Close", err)
		}
		if s.mode == DeleteOnExit {
			if err := os.Remove(lf.path); err != nil && firstErr == nil {
				firstErr = persistence("LogFileSet.Close.remove", err)
			}
		}
		delete(s.files, node)
	}
	return firstErr
}
