// File: control/config.go
// Package control is the configuration/metrics/hot-reload/debug layer
// shared by the event loop, thread pool and WebSocket engine (SPEC_FULL.md
// §2.1, §6.5, §6.6).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Grounded on the teacher's control/config.go ConfigStore, generalised
// from an untyped map-merge store into a typed Config struct loadable from
// YAML, with the same listener-dispatch shape kept for Set.

package control

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable this module exposes: thread-pool size,
// event-loop batching, and WebSocket size limits, matching the teacher's
// facade.Config pattern generalised to this module's components.
type Config struct {
	ThreadPoolWorkers int `yaml:"thread_pool_workers"`

	EventLoopCount        int `yaml:"event_loop_count"`
	EventLoopBatchSize    int `yaml:"event_loop_batch_size"`
	EventLoopRingCapacity int `yaml:"event_loop_ring_capacity"`

	MaxHandshakeSize uint64 `yaml:"max_handshake_size"`
	MaxMessageSize   uint64 `yaml:"max_message_size"`
	HandlePing       bool   `yaml:"handle_ping"`
	HandlePong       bool   `yaml:"handle_pong"`
	HandleClose      bool   `yaml:"handle_close"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// DefaultConfig returns the spec's default values (spec.md §6.3).
func DefaultConfig() *Config {
	return &Config{
		ThreadPoolWorkers:     4,
		EventLoopCount:        1,
		EventLoopBatchSize:    64,
		EventLoopRingCapacity: 1024,
		MaxHandshakeSize:      1024,
		MaxMessageSize:        64 * 1024 * 1024,
		LogLevel:              "info",
	}
}

// LoadConfigFile reads and parses a YAML config file, starting from
// DefaultConfig and overlaying whatever keys the file sets.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("control: read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("control: parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ConfigStore holds a live Config snapshot with listener-based reload
// dispatch, mirroring the teacher's ConfigStore but over a typed Config
// rather than a map[string]any.
type ConfigStore struct {
	mu        sync.RWMutex
	cfg       *Config
	listeners []func(*Config)
}

// NewConfigStore creates a store seeded with cfg (DefaultConfig if nil).
func NewConfigStore(cfg *Config) *ConfigStore {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &ConfigStore{cfg: cfg}
}

// Snapshot returns a copy of the current config.
func (cs *ConfigStore) Snapshot() Config {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return *cs.cfg
}

// Set replaces the stored config and dispatches every registered reload
// listener with the new value.
func (cs *ConfigStore) Set(cfg *Config) {
	cs.mu.Lock()
	cs.cfg = cfg
	listeners := append([]func(*Config){}, cs.listeners...)
	cs.mu.Unlock()
	for _, fn := range listeners {
		go fn(cfg)
	}
}

// OnReload registers a listener invoked (on its own goroutine) whenever Set
// runs, whether from an explicit call or a hot-reload file-watch event.
func (cs *ConfigStore) OnReload(fn func(*Config)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}
