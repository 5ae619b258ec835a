package clusterbridge

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jd3nn1s/clusterbridge/forwarder"
	"github.com/jd3nn1s/clusterbridge/pins"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	FormatTOML = "toml"
	FormatYAML = "yaml"

	OutputsLog    = "log"
	OutputsPeriph = "periph"

	ClockSystem = "system"
	ClockZero   = "zero"
)

type Config struct {
	Host    HostConfig          `toml:"host" yaml:"host"`
	CAN     CANConfig           `toml:"can" yaml:"can"`
	KBus    KBusConfig          `toml:"kbus" yaml:"kbus"`
	Outputs OutputsConfig       `toml:"outputs" yaml:"outputs"`
	Cycle   CycleConfig         `toml:"cycle" yaml:"cycle"`
	Tap     forwarder.UDPConfig `toml:"tap" yaml:"tap"`
}

type HostConfig struct {
	// Port is a serial device, or "auto" for the first USB serial port.
	Port string `toml:"port" yaml:"port"`
	Baud int    `toml:"baud" yaml:"baud"`
}

type CANConfig struct {
	Interface string `toml:"interface" yaml:"interface"`
}

type KBusConfig struct {
	Port string `toml:"port" yaml:"port"`
}

// OutputsConfig selects the output driver. Pins are periph.io names such as
// "GPIO18"; the tone pin needs hardware PWM.
type OutputsConfig struct {
	Driver    string `toml:"driver" yaml:"driver"`
	Backlight string `toml:"backlight" yaml:"backlight"`
	ABS       string `toml:"abs" yaml:"abs"`
	EBrake    string `toml:"ebrake" yaml:"ebrake"`
	Tone      string `toml:"tone" yaml:"tone"`
}

type CycleConfig struct {
	IntervalMS int    `toml:"interval_ms" yaml:"interval_ms"`
	Clock      string `toml:"clock" yaml:"clock"`
}

func DefaultConfig() Config {
	return Config{
		Host: HostConfig{
			Port: autoPort,
			Baud: 19200,
		},
		CAN: CANConfig{
			Interface: "can0",
		},
		KBus: KBusConfig{
			Port: "/dev/ttyAMA0",
		},
		Outputs: OutputsConfig{
			Driver:    OutputsLog,
			Backlight: "GPIO10",
			ABS:       "GPIO5",
			EBrake:    "GPIO4",
			Tone:      "GPIO18",
		},
		Cycle: CycleConfig{
			IntervalMS: 20,
			Clock:      ClockSystem,
		},
	}
}

// LoadConfig reads fileName, relative paths being resolved against the
// directory of the binary. Files ending in .yaml or .yml are YAML, anything
// else TOML.
func LoadConfig(fileName string) (*Config, error) {
	path := fileName
	if !filepath.IsAbs(path) {
		dir, err := filepath.Abs(filepath.Dir(os.Args[0]))
		if err != nil {
			return nil, errors.Wrapf(err, "unable to determine binary location")
		}
		path = filepath.Join(dir, fileName)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open file %s", fileName)
	}
	defer file.Close()
	return LoadConfigFromReader(file, formatOf(fileName))
}

func formatOf(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatTOML
}

// LoadConfigFromReader decodes over DefaultConfig, so missing keys keep
// their defaults.
func LoadConfigFromReader(configReader io.Reader, format string) (*Config, error) {
	configData, err := io.ReadAll(configReader)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read config reader")
	}
	config := DefaultConfig()
	switch format {
	case FormatTOML:
		if _, err := toml.Decode(string(configData), &config); err != nil {
			return nil, errors.Wrap(err, "unable to decode toml configuration")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(configData))
		dec.KnownFields(true)
		if err := dec.Decode(&config); err != nil && err != io.EOF {
			return nil, errors.Wrap(err, "unable to decode yaml configuration")
		}
	default:
		return nil, errors.Errorf("unknown config format %q", format)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	if c.Cycle.IntervalMS <= 0 {
		return errors.Errorf("cycle interval must be positive, got %d ms", c.Cycle.IntervalMS)
	}
	switch c.Cycle.Clock {
	case ClockSystem, ClockZero:
	default:
		return errors.Errorf("unknown clock mode %q", c.Cycle.Clock)
	}
	switch c.Outputs.Driver {
	case OutputsLog, OutputsPeriph:
	default:
		return errors.Errorf("unknown outputs driver %q", c.Outputs.Driver)
	}
	if c.Host.Port == "" {
		return errors.New("host port is required")
	}
	if c.Host.Baud <= 0 {
		return errors.Errorf("host baud rate must be positive, got %d", c.Host.Baud)
	}
	return nil
}

func (c *Config) Interval() time.Duration {
	return time.Duration(c.Cycle.IntervalMS) * time.Millisecond
}

// ClockFunc is the time source for the cluster clock frame.
func (c *Config) ClockFunc() func() time.Time {
	if c.Cycle.Clock == ClockZero {
		return nil
	}
	return time.Now
}

func (c OutputsConfig) Periph() pins.PeriphConfig {
	return pins.PeriphConfig{
		Lines: map[pins.Pin]string{
			pins.Backlight: c.Backlight,
			pins.ABS:       c.ABS,
			pins.EBrake:    c.EBrake,
		},
		Tone: c.Tone,
	}
}
