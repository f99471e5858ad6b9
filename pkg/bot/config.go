package bot

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AriaCoder/Axobotl/pkg/auto"
	"github.com/AriaCoder/Axobotl/pkg/control"
	"github.com/AriaCoder/Axobotl/pkg/coordinator"
	"github.com/AriaCoder/Axobotl/pkg/robot"
)

const DefaultConfigFile = "axobotl.json"

// Defaults for the controller loop.
const (
	DefaultHz                = 50
	DefaultJoystickTolerance = 1
	DefaultListen            = ":8080"
)

// Config holds the robot configuration
type Config struct {
	Mode              control.Mode         `json:"mode"`
	Hz                int                  `json:"hz,omitempty"`
	JoystickTolerance float64              `json:"joystick_tolerance,omitempty"`
	ShootCycles       int                  `json:"shoot_cycles,omitempty"`
	Timing            coordinator.Timing   `json:"timing"`
	Hardware          robot.HardwareConfig `json:"hardware"`
	Remote            RemoteConfig         `json:"remote"`
}

// RemoteConfig holds the remote driver station settings.
type RemoteConfig struct {
	Listen string `json:"listen,omitempty"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Hz <= 0 {
		c.Hz = DefaultHz
	}
	if c.JoystickTolerance <= 0 {
		c.JoystickTolerance = DefaultJoystickTolerance
	}
	if c.ShootCycles <= 0 {
		c.ShootCycles = auto.DefaultShootCycles
	}
	if c.Remote.Listen == "" {
		c.Remote.Listen = DefaultListen
	}
	c.Timing = c.Timing.WithDefaults()
	c.Hardware.ApplyDefaults()
}

// LoadConfig loads configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file and applies
// defaults.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the file at path exists
func ConfigExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
