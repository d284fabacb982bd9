// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dataplane

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLogFileSetWriteLineIsNoopUnderMemoryOnly(t *testing.T) {
	dir := t.TempDir()
	s := NewLogFileSet(0, 0, filepath.Join(dir, "soup"), MemoryOnly, 4)

	if err := s.WriteLine(1, []RecordBatch{{{"a": 1}}}); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected no files under MemoryOnly, found %v", entries)
	}
}

func TestLogFileSetWriteLinePersistsAndCloseRemovesUnderDeleteOnExit(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "soup")
	s := NewLogFileSet(3, 7, prefix, DeleteOnExit, 4)

	batch := []RecordBatch{{{"a": 1}, {"a": 2}}}
	if err := s.WriteLine(9, batch); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}

	path := s.logPath(9)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file to exist at %s: %v", path, err)
	}

	var roundTripped []RecordBatch
	if err := json.Unmarshal(raw, &roundTripped); err != nil {
		t.Fatalf("expected a single JSON array line, got %q: %v", raw, err)
	}
	if len(roundTripped) != 1 || len(roundTripped[0]) != 2 {
		t.Fatalf("unexpected round-tripped batch: %+v", roundTripped)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected log file to be removed after Close under DeleteOnExit")
	}
}

func TestLogFileSetPermanentLeavesFileAfterClose(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "soup")
	s := NewLogFileSet(0, 0, prefix, Permanent, 4)

	if err := s.WriteLine(1, []RecordBatch{{{"a": 1}}}); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(s.logPath(1)); err != nil {
		t.Fatalf("expected log file to survive Close under Permanent: %v", err)
	}
}

func TestLogPathFormat(t *testing.T) {
	s := NewLogFileSet(2, 5, "soup", Permanent, 4)
	want := "soup-log-2_5-11.json"
	if got := s.logPath(11); got != want {
		t.Fatalf("logPath() = %q, want %q", got, want)
	}
}
