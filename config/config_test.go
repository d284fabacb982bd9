// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arborflow/dataplane"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, "capacity: 512\nmode: DeleteOnExit\n")

	params, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if params.Capacity != 512 {
		t.Errorf("Capacity = %d, want 512", params.Capacity)
	}
	if params.Mode != dataplane.DeleteOnExit {
		t.Errorf("Mode = %v, want DeleteOnExit", params.Mode)
	}
	if params.FlushTimeout != dataplane.DefaultParameters().FlushTimeout {
		t.Errorf("FlushTimeout should retain its default, got %v", params.FlushTimeout)
	}
}

func TestLoadDecodesDurationStrings(t *testing.T) {
	path := writeConfig(t, "flush_timeout: 25ms\n")

	params, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if params.FlushTimeout != 25*time.Millisecond {
		t.Errorf("FlushTimeout = %v, want 25ms", params.FlushTimeout)
	}
}

func TestLoadRejectsInvalidCapacity(t *testing.T) {
	path := writeConfig(t, "capacity: 0\n")

	if _, err := Load(path); err == nil {
		t.Fatalf("expected a validation error for capacity: 0")
	}
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	path := writeConfig(t, "mode: Bogus\n")

	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for an unrecognized durability mode")
	}
}
