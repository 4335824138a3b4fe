package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Build metadata, injected at link time by the dev tool.
var (
	Version = "dev"
	Commit  string
	Date    string
)

const (
	AdapterGeneric = "generic"
	AdapterDevfs   = "devfs"
	AdapterNanoPi  = "nanopi"
	AdapterMCP2221 = "mcp2221"
	AdapterSim     = "sim"
)

// Address is a 7-bit I2C address, written as "0x3c" or 60 in YAML.
type Address byte

func (a *Address) UnmarshalYAML(value *yaml.Node) error {
	addr, err := ParseAddress(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*a = Address(addr)
	return nil
}

func (a Address) MarshalYAML() (interface{}, error) {
	return fmt.Sprintf("%#02x", byte(a)), nil
}

// ParseAddress accepts decimal, 0x hex and 0o octal notations.
func ParseAddress(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid i2c address %q: %w", s, err)
	}
	if v > 0x7F {
		return 0, fmt.Errorf("invalid i2c address %q: not a 7-bit address", s)
	}
	return byte(v), nil
}

// Config is the probe tool configuration. Command line flags take precedence.
// A Count of 0 measures until interrupted, a SpeedKHz of 0 keeps the bus clock.
type Config struct {
	Adapter      string        `yaml:"adapter"`
	Device       string        `yaml:"device"`
	Bus          int           `yaml:"bus"`
	SpeedKHz     int           `yaml:"speed_khz"`
	Address      Address       `yaml:"address"`
	LittleEndian bool          `yaml:"little_endian"`
	Compensate   bool          `yaml:"compensate"`
	Interval     time.Duration `yaml:"interval"`
	Count        int           `yaml:"count"`
}

func Default() *Config {
	return &Config{
		Adapter:    AdapterGeneric,
		Device:     "/dev/i2c-3",
		Bus:        -1,
		Address:    0x3c,
		Compensate: true,
		Interval:   time.Second,
		Count:      1,
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Adapter {
	case AdapterGeneric, AdapterDevfs, AdapterNanoPi, AdapterMCP2221, AdapterSim:
	default:
		return fmt.Errorf("unknown adapter %q", c.Adapter)
	}
	if c.Interval < 0 {
		return fmt.Errorf("negative interval %s", c.Interval)
	}
	if c.SpeedKHz < 0 {
		return fmt.Errorf("negative bus speed %d", c.SpeedKHz)
	}
	if c.Count < 0 {
		return fmt.Errorf("negative count %d", c.Count)
	}
	return nil
}
