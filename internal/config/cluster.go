package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dreamware/estransport/internal/poolstate"
)

// ClusterConfig is the YAML-loadable bootstrap fixture consumed by the
// example command and the integration tests: a seed node list, the
// pool strategy to apply to it, and the timeout knobs a caller would
// otherwise have to set on estransport.Config field by field.
type ClusterConfig struct {
	Seeds                  []string      `yaml:"seeds"`
	PoolKindName           string        `yaml:"pool_kind"`
	RequestTimeout         time.Duration `yaml:"request_timeout"`
	PingTimeout            time.Duration `yaml:"ping_timeout"`
	MaxRetryTimeout        time.Duration `yaml:"max_retry_timeout"`
	SniffLifeSpan          time.Duration `yaml:"sniff_life_span"`
	SniffOnStartup         *bool         `yaml:"sniff_on_startup"`
	SniffOnConnectionFault *bool         `yaml:"sniff_on_connection_fault"`
}

// Load reads and parses a ClusterConfig from path.
func Load(path string) (*ClusterConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a ClusterConfig from raw YAML bytes.
func Parse(raw []byte) (*ClusterConfig, error) {
	var cfg ClusterConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing yaml: %w", err)
	}
	if len(cfg.Seeds) == 0 {
		return nil, fmt.Errorf("config: at least one seed is required")
	}
	return &cfg, nil
}

// PoolKind resolves the configured pool_kind string to a poolstate.Kind,
// defaulting to poolstate.Static for an empty or unrecognised value
// (the safest strategy for an arbitrary seed list: round-robin over
// all of them, no wholesale membership replacement).
func (c *ClusterConfig) PoolKind() poolstate.Kind {
	switch c.PoolKindName {
	case "single-node":
		return poolstate.SingleNode
	case "sniffing":
		return poolstate.Sniffing
	case "sticky":
		return poolstate.Sticky
	case "static", "":
		return poolstate.Static
	default:
		return poolstate.Static
	}
}
