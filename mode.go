// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dataplane

import "fmt"

// DurabilityMode controls whether, and for how long, a GroupCommitQueueSet
// persists flushed batches to disk.
type DurabilityMode int

const (
	// MemoryOnly never touches disk; useful for baseline numbers.
	MemoryOnly DurabilityMode = iota
	// DeleteOnExit persists to disk but unlinks every opened file on Close.
	DeleteOnExit
	// Permanent persists to disk and leaves the files behind on Close.
	Permanent
)

func (m DurabilityMode) String() string {
	switch m {
	case MemoryOnly:
		return "MemoryOnly"
	case DeleteOnExit:
		return "DeleteOnExit"
	case Permanent:
		return "Permanent"
	default:
		return "UnknownMode"
	}
}

// MarshalYAML renders the mode as its name so Parameters round-trips
// through the config package's YAML files legibly.
func (m DurabilityMode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// UnmarshalYAML accepts either the name or the raw int form.
func (m *DurabilityMode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var i int
	if err := unmarshal(&i); err == nil {
		*m = DurabilityMode(i)
		return nil
	}

	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return m.UnmarshalText([]byte(s))
}

// MarshalText implements encoding.TextMarshaler so viper/mapstructure can
// decode a plain string into a DurabilityMode when loading config.
func (m DurabilityMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *DurabilityMode) UnmarshalText(text []byte) error {
	switch s := string(text); s {
	case "MemoryOnly", "":
		*m = MemoryOnly
	case "DeleteOnExit":
		*m = DeleteOnExit
	case "Permanent":
		*m = Permanent
	default:
		return fmt.Errorf("unknown durability mode %q", s)
	}
	return nil
}
