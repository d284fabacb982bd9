// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package config loads dataplane.Parameters from a YAML file via viper,
// grounded in the firestige-Otus example repo's spf13/viper + gopkg.in/
// yaml.v3 stack. It is never invoked from inside the core components,
// only from cmd/domainloop, and it carries no CLI flag parsing of its
// own: the core has no CLI surface.
package config

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/arborflow/dataplane"
)

// ErrInvalid is returned when a loaded Parameters value fails validation.
type ErrInvalid struct {
	Field string
	Value interface{}
}

func (e *ErrInvalid) Error() string {
	return fmt.Sprintf("config: invalid %s: %v", e.Field, e.Value)
}

// Load reads a YAML file at path into a dataplane.Parameters, filling
// unset fields with dataplane.DefaultParameters, and validates the result.
func Load(path string) (dataplane.Parameters, error) {
	params := dataplane.DefaultParameters()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("capacity", params.Capacity)
	v.SetDefault("flush_timeout", params.FlushTimeout)
	v.SetDefault("mode", params.Mode.String())
	v.SetDefault("log_prefix", params.LogPrefix)

	if err := v.ReadInConfig(); err != nil {
		return params, fmt.Errorf("config: reading %s: %w", path, err)
	}

	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	)

	if err := v.Unmarshal(&params, viper.DecodeHook(decodeHook)); err != nil {
		return params, fmt.Errorf("config: unmarshaling %s: %w", path, err)
	}

	return params, Validate(params)
}

// Validate checks the invariants Parameters must satisfy: a positive
// capacity and flush timeout, and a non-empty log prefix.
func Validate(params dataplane.Parameters) error {
	if params.Capacity <= 0 {
		return &ErrInvalid{Field: "capacity", Value: params.Capacity}
	}
	if params.FlushTimeout <= 0 {
		return &ErrInvalid{Field: "flush_timeout", Value: params.FlushTimeout}
	}
	if params.LogPrefix == "" {
		return &ErrInvalid{Field: "log_prefix", Value: params.LogPrefix}
	}
	return nil
}
