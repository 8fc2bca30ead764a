package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/simhost/internal/layers"
)

// HostConfig is the startup configuration of the simulation host. Fields are
// pointers so a partial JSON file only overrides what it names; the Get*
// methods provide the fallback defaults.
type HostConfig struct {
	ListenAddr     *string `json:"listen_addr,omitempty"`
	DBPath         *string `json:"db_path,omitempty"`
	MapName        *string `json:"map_name,omitempty"`
	MapPath        *string `json:"map_path,omitempty"`
	BackendLatency *string `json:"backend_latency,omitempty"` // duration string like "150ms"

	// Initial layer selection by name; "All" and "None" are accepted.
	InitialLayers []string `json:"initial_layers,omitempty"`

	// Level description used by the built-in world when no engine is
	// attached.
	SubMaps []string      `json:"sub_maps,omitempty"`
	Actors  []ActorConfig `json:"actors,omitempty"`
}

// ActorConfig describes one pre-spawned actor of the built-in world.
type ActorConfig struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	SubMap string `json:"sub_map"`
}

// EmptyHostConfig returns a HostConfig with all fields set to nil.
func EmptyHostConfig() *HostConfig {
	return &HostConfig{}
}

// LoadHostConfig loads a HostConfig from a JSON file. The file is validated
// to ensure it has a .json extension and is under the max file size. Fields
// omitted from the JSON file retain their default values, so partial configs
// are safe.
func LoadHostConfig(path string) (*HostConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyHostConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *HostConfig) Validate() error {
	if c.BackendLatency != nil && *c.BackendLatency != "" {
		if _, err := time.ParseDuration(*c.BackendLatency); err != nil {
			return fmt.Errorf("invalid backend_latency '%s': %w", *c.BackendLatency, err)
		}
	}

	if len(c.InitialLayers) > 0 {
		if _, err := layers.ParseNames(c.InitialLayers); err != nil {
			return fmt.Errorf("invalid initial_layers: %w", err)
		}
	}

	seen := make(map[uint64]struct{}, len(c.Actors))
	for _, a := range c.Actors {
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("duplicate actor id %d", a.ID)
		}
		seen[a.ID] = struct{}{}
	}

	return nil
}

// GetListenAddr returns the listen address or the default.
func (c *HostConfig) GetListenAddr() string {
	if c.ListenAddr == nil || *c.ListenAddr == "" {
		return ":8080" // default
	}
	return *c.ListenAddr
}

// GetDBPath returns the database path or the default.
func (c *HostConfig) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return "simhost.db" // default
	}
	return *c.DBPath
}

// GetMapName returns the map name or the default.
func (c *HostConfig) GetMapName() string {
	if c.MapName == nil || *c.MapName == "" {
		return "Town01" // default
	}
	return *c.MapName
}

// GetMapPath returns the map definition path, empty when unset.
func (c *HostConfig) GetMapPath() string {
	if c.MapPath == nil {
		return ""
	}
	return *c.MapPath
}

// GetBackendLatency parses and returns the BackendLatency as a time.Duration.
func (c *HostConfig) GetBackendLatency() time.Duration {
	if c.BackendLatency == nil || *c.BackendLatency == "" {
		return 150 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.BackendLatency)
	if err != nil {
		return 150 * time.Millisecond // default on parse error
	}
	return d
}

// GetInitialLayers returns the initial layer mask, defaulting to All.
func (c *HostConfig) GetInitialLayers() layers.Mask {
	if len(c.InitialLayers) == 0 {
		return layers.All // default
	}
	mask, err := layers.ParseNames(c.InitialLayers)
	if err != nil {
		return layers.All // Validate rejects this earlier; default on parse error
	}
	return mask
}
