/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cloudwego/slabvec/cache/mempool"
	"github.com/cloudwego/slabvec/unsafex/malloc"
)

// Config describes a workload. Zero fields loaded from a file keep their defaults.
type Config struct {
	// Host is one of heap, mcache, arena and mmap.
	Host string `toml:"host"`
	// ArenaSize is the arena length for the arena host.
	ArenaSize int `toml:"arena_size"`
	// Limit caps the bytes the pool may hold from the host, 0 for no cap.
	Limit        int `toml:"limit"`
	RefillBlocks int `toml:"refill_blocks"`

	MinSize    int   `toml:"min_size"`
	MaxSize    int   `toml:"max_size"`
	Iterations int   `toml:"iterations"`
	LiveBlocks int   `toml:"live_blocks"`
	VectorLen  int   `toml:"vector_len"`
	Seed       int64 `toml:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		Host:         "heap",
		ArenaSize:    64 << 20,
		RefillBlocks: mempool.DefaultRefillBlocks,
		MinSize:      1,
		MaxSize:      mempool.MaxSmallSize,
		Iterations:   100000,
		LiveBlocks:   1024,
		VectorLen:    10000,
		Seed:         1,
	}
}

// LoadConfig reads a TOML workload file on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Host {
	case "heap", "mcache", "mmap":
	case "arena":
		if c.ArenaSize <= 0 || c.ArenaSize%malloc.DefaultArenaMaxBlock != 0 {
			return fmt.Errorf("config: arena_size must be a positive multiple of %d, got %d",
				malloc.DefaultArenaMaxBlock, c.ArenaSize)
		}
	default:
		return fmt.Errorf("config: unknown host %q", c.Host)
	}
	if c.MinSize <= 0 || c.MaxSize < c.MinSize {
		return fmt.Errorf("config: invalid size range [%d, %d]", c.MinSize, c.MaxSize)
	}
	if c.Iterations < 0 || c.LiveBlocks <= 0 || c.VectorLen < 0 || c.Limit < 0 {
		return errors.New("config: iterations, vector_len and limit must not be negative, live_blocks must be positive")
	}
	return nil
}

// newHost builds the host chain for c: the base host, an optional budget,
// and metrics registered on reg.
func newHost(c *Config, reg prometheus.Registerer) (malloc.Host, error) {
	var h malloc.Host
	switch c.Host {
	case "heap":
		h = malloc.HeapHost{}
	case "mcache":
		h = malloc.MCacheHost{}
	case "mmap":
		h = malloc.MmapHost{}
	case "arena":
		a, err := malloc.NewArenaHost(make([]byte, c.ArenaSize))
		if err != nil {
			return nil, err
		}
		h = a
	default:
		return nil, fmt.Errorf("unknown host %q", c.Host)
	}
	if c.Limit > 0 {
		h = malloc.NewLimitHost(h, c.Limit)
	}
	return malloc.NewMetricsHost(h, reg, "slabbench")
}
