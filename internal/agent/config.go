package agent

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration, loaded from YAML.
type Config struct {
	// Listen is the HTTP listen address
	Listen string `yaml:"listen"`

	// DataDir is where the configuration record lives
	DataDir string `yaml:"data_dir"`

	// LogLevel overrides the ETHOSENSOR_LOG_LEVEL environment variable
	LogLevel string `yaml:"log_level"`

	Storage StorageConfig `yaml:"storage"`
	Sensor  SensorConfig  `yaml:"sensor"`
	MDNS    MDNSConfig    `yaml:"mdns"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Backend is "block" (rotating block file) or "kv" (file-per-key store)
	Backend string `yaml:"backend"`
}

// SensorConfig selects and tunes the sensor driver.
type SensorConfig struct {
	// Driver is "iio" (industrial I/O sysfs) or "sim" (simulated random walk)
	Driver string `yaml:"driver"`

	// IIODir is the sysfs device directory for the iio driver
	IIODir string `yaml:"iio_dir"`

	// PollIntervalMs is the sensor poll period in milliseconds
	PollIntervalMs int `yaml:"poll_interval_ms"`

	// SimSeed seeds the sim driver; 0 means time-based
	SimSeed int64 `yaml:"sim_seed"`
}

// MDNSConfig controls service advertisement.
type MDNSConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// DefaultConfig returns the daemon defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:  ":80",
		DataDir: "/var/lib/ethosensor",
		Storage: StorageConfig{
			Backend: "block",
		},
		Sensor: SensorConfig{
			Driver:         "iio",
			IIODir:         "/sys/bus/iio/devices/iio:device0",
			PollIntervalMs: 10000,
		},
		MDNS: MDNSConfig{
			Enabled: true,
			Port:    80,
		},
	}
}

// LoadConfig reads a YAML config file over the defaults. An empty path
// returns the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}

	switch c.Storage.Backend {
	case "block", "kv":
	default:
		return fmt.Errorf("unknown storage backend %q (want \"block\" or \"kv\")", c.Storage.Backend)
	}

	switch c.Sensor.Driver {
	case "iio", "sim":
	default:
		return fmt.Errorf("unknown sensor driver %q (want \"iio\" or \"sim\")", c.Sensor.Driver)
	}
	if c.Sensor.Driver == "iio" && c.Sensor.IIODir == "" {
		return fmt.Errorf("iio_dir must be set for the iio sensor driver")
	}
	if c.Sensor.PollIntervalMs <= 0 {
		return fmt.Errorf("poll_interval_ms must be positive, got %d", c.Sensor.PollIntervalMs)
	}

	if c.MDNS.Enabled && (c.MDNS.Port <= 0 || c.MDNS.Port > 65535) {
		return fmt.Errorf("mdns port %d out of range", c.MDNS.Port)
	}

	return nil
}

// PollInterval returns the sensor poll period as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Sensor.PollIntervalMs) * time.Millisecond
}
