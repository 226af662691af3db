package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
//
// Channels, Slopes, Offsets and Labels mirror the on-disk layout: an ordered
// list of channel names plus per-channel calibration maps. ChannelList folds
// them into resolved Channel values for the rest of the program.
type Config struct {
	Device      DeviceConfig       `yaml:"device"`
	Channels    []string           `yaml:"channels"`
	Slopes      map[string]float64 `yaml:"slopes"`
	Offsets     map[string]float64 `yaml:"offsets"`
	Labels      map[string]string  `yaml:"labels"`
	Acquisition AcquisitionConfig  `yaml:"acquisition"`
	Outputs     OutputsConfig      `yaml:"outputs"`
	Mock        MockConfig         `yaml:"mock"`
}

// Channel is one analog input with its linear calibration resolved.
type Channel struct {
	Name   string
	Slope  float64
	Offset float64
	Label  string
}

// DeviceConfig selects and parameterizes the channel reader backend.
type DeviceConfig struct {
	Type       string `yaml:"type"`        // "mock", "serial" or "ads1115"
	Port       string `yaml:"port"`        // serial port; empty means autodetect
	BaudRate   int    `yaml:"baud_rate"`   // serial baud rate
	I2CBus     string `yaml:"i2c_bus"`     // ads1115 bus name/number
	I2CAddress int    `yaml:"i2c_address"` // ads1115 device address
}

// AcquisitionConfig contains the scheduling and averaging parameters.
type AcquisitionConfig struct {
	SamplingRate    float64 `yaml:"sampling_rate"`    // channel poll frequency (Hz)
	AveragingPeriod int     `yaml:"averaging_period"` // output cadence (seconds)
	ProjectName     string  `yaml:"project_name"`     // log filename prefix
	OutputDir       string  `yaml:"output_dir"`       // directory for the CSV files
}

// OutputsConfig enables row publishers beyond the CSV log.
type OutputsConfig struct {
	Console bool       `yaml:"console"`
	MQTT    MQTTConfig `yaml:"mqtt"`
}

// MQTTConfig contains the MQTT publisher settings.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Server   string `yaml:"server"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"` // base topic; channel name is appended
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MockConfig shapes the signal generated by the mock device.
type MockConfig struct {
	Level     float64       `yaml:"level"`     // baseline value (V)
	Amplitude float64       `yaml:"amplitude"` // sine amplitude (V)
	Noise     float64       `yaml:"noise"`     // noise level (V)
	Period    time.Duration `yaml:"period"`    // sine period
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Type:       "serial",
			Port:       "", // Autodetect
			BaudRate:   115200,
			I2CBus:     "1",
			I2CAddress: 0x48,
		},
		Channels: []string{"AIN0", "AIN1"},
		Slopes: map[string]float64{
			"AIN0": 1.0,
			"AIN1": 1.0,
		},
		Offsets: map[string]float64{
			"AIN0": 0.0,
			"AIN1": 0.0,
		},
		Labels: map[string]string{},
		Acquisition: AcquisitionConfig{
			SamplingRate:    2.0,
			AveragingPeriod: 15,
			ProjectName:     "Channel_Averages",
			OutputDir:       ".",
		},
		Outputs: OutputsConfig{
			Console: true,
			MQTT: MQTTConfig{
				Enabled:  false,
				Server:   "tcp://localhost:1883",
				ClientID: "godaq",
				Topic:    "godaq",
			},
		},
		Mock: MockConfig{
			Level:     1.5,
			Amplitude: 0.25,
			Noise:     0.005,
			Period:    20 * time.Second,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure minimum required fields are set (use defaults if missing)
	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the constraints that Load cannot default away.
func (c *Config) Validate() error {
	if c.Acquisition.SamplingRate <= 0 {
		return fmt.Errorf("sampling_rate must be > 0, got %g", c.Acquisition.SamplingRate)
	}
	if c.Acquisition.AveragingPeriod <= 1 {
		return fmt.Errorf("averaging_period must be > 1 second, got %d", c.Acquisition.AveragingPeriod)
	}
	if len(c.Channels) == 0 {
		return fmt.Errorf("at least one channel must be configured")
	}

	seen := make(map[string]bool, len(c.Channels))
	for _, name := range c.Channels {
		if name == "" {
			return fmt.Errorf("channel names must not be empty")
		}
		if seen[name] {
			return fmt.Errorf("duplicate channel %q", name)
		}
		seen[name] = true

		if _, ok := c.Slopes[name]; !ok {
			return fmt.Errorf("channel %q: no slope configured", name)
		}
		if _, ok := c.Offsets[name]; !ok {
			return fmt.Errorf("channel %q: no offset configured", name)
		}
	}

	switch c.Device.Type {
	case "mock", "serial", "ads1115":
	default:
		return fmt.Errorf("unknown device type %q", c.Device.Type)
	}

	return nil
}

// ChannelList returns the configured channels in file order with slope,
// offset and label resolved. Labels fall back to the channel name.
func (c *Config) ChannelList() []Channel {
	out := make([]Channel, 0, len(c.Channels))
	for _, name := range c.Channels {
		ch := Channel{
			Name:   name,
			Slope:  c.Slopes[name],
			Offset: c.Offsets[name],
			Label:  name,
		}
		if label, ok := c.Labels[name]; ok && label != "" {
			ch.Label = label
		}
		out = append(out, ch)
	}
	return out
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Device.Type == "" {
		c.Device.Type = def.Device.Type
	}
	if c.Device.BaudRate == 0 {
		c.Device.BaudRate = def.Device.BaudRate
	}
	if c.Device.I2CBus == "" {
		c.Device.I2CBus = def.Device.I2CBus
	}
	if c.Device.I2CAddress == 0 {
		c.Device.I2CAddress = def.Device.I2CAddress
	}

	if c.Slopes == nil {
		c.Slopes = map[string]float64{}
	}
	if c.Offsets == nil {
		c.Offsets = map[string]float64{}
	}
	if c.Labels == nil {
		c.Labels = map[string]string{}
	}

	if c.Acquisition.SamplingRate == 0 {
		c.Acquisition.SamplingRate = def.Acquisition.SamplingRate
	}
	if c.Acquisition.AveragingPeriod == 0 {
		c.Acquisition.AveragingPeriod = def.Acquisition.AveragingPeriod
	}
	if c.Acquisition.ProjectName == "" {
		c.Acquisition.ProjectName = def.Acquisition.ProjectName
	}
	if c.Acquisition.OutputDir == "" {
		c.Acquisition.OutputDir = def.Acquisition.OutputDir
	}

	if c.Outputs.MQTT.Server == "" {
		c.Outputs.MQTT.Server = def.Outputs.MQTT.Server
	}
	if c.Outputs.MQTT.ClientID == "" {
		c.Outputs.MQTT.ClientID = def.Outputs.MQTT.ClientID
	}
	if c.Outputs.MQTT.Topic == "" {
		c.Outputs.MQTT.Topic = def.Outputs.MQTT.Topic
	}

	if c.Mock.Period == 0 {
		c.Mock.Period = def.Mock.Period
	}
}
