// File: adapters/control_adapter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Grounded on the teacher's adapters/control_adapter.go: Stats merges the
// metrics and debug-probe snapshots into one map, Control's typed
// Config is adapted to api.Control's untyped map[string]any via a YAML
// round trip (control already depends on gopkg.in/yaml.v3 for config
// loading, so this reuses rather than adds a dependency).

package adapters

import (
	"gopkg.in/yaml.v3"

	"github.com/momentics/wscore/api"
	"github.com/momentics/wscore/control"
)

// ControlAdapter bridges api.Control to this module's control package.
type ControlAdapter struct {
	config  *control.ConfigStore
	metrics *control.MetricsRegistry
	debug   *control.DebugProbes
}

var _ api.Control = (*ControlAdapter)(nil)

// NewControlAdapter wraps an already-constructed config/metrics/debug set.
func NewControlAdapter(config *control.ConfigStore, metrics *control.MetricsRegistry, debug *control.DebugProbes) *ControlAdapter {
	return &ControlAdapter{config: config, metrics: metrics, debug: debug}
}

// GetConfig returns the current configuration as an untyped map.
func (c *ControlAdapter) GetConfig() map[string]any {
	snap := c.config.Snapshot()
	return configToMap(&snap)
}

// SetConfig merges cfg into the current configuration and dispatches
// reload listeners via ConfigStore.Set.
func (c *ControlAdapter) SetConfig(cfg map[string]any) error {
	next := c.config.Snapshot()
	if err := mapToConfig(cfg, &next); err != nil {
		return err
	}
	c.config.Set(&next)
	return nil
}

// Stats returns the merged metrics and debug-probe snapshots.
func (c *ControlAdapter) Stats() map[string]any {
	out := c.metrics.Snapshot()
	for k, v := range c.debug.DumpState() {
		out["debug."+k] = v
	}
	return out
}

// OnReload registers fn to run after every SetConfig call.
func (c *ControlAdapter) OnReload(fn func()) {
	c.config.OnReload(func(*control.Config) { fn() })
}

// RegisterDebugProbe registers a named debug probe.
func (c *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

func configToMap(cfg *control.Config) map[string]any {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return map[string]any{}
	}
	out := map[string]any{}
	_ = yaml.Unmarshal(raw, &out)
	return out
}

func mapToConfig(m map[string]any, cfg *control.Config) error {
	raw, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(raw, cfg)
}
