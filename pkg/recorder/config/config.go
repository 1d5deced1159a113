package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Duration accepts either a Go duration string ("90s") or a bare number of
// seconds, matching the reference configuration. yaml.v2 hands numeric
// scalars over as strings, so both forms arrive through the same path.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	if v, err := time.ParseDuration(s); err == nil {
		*d = Duration(v)
		return nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse duration %q: neither duration nor seconds", s)
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

type Config struct {
	Driver            string   `yaml:"driver"`
	CenterFreq        int      `yaml:"center_freq"`
	SampleRate        int      `yaml:"sample_rate"`
	Duration          Duration `yaml:"duration"`
	Output            string   `yaml:"output"`
	RTLSDRDeviceIndex int      `yaml:"rtlsdr_device_index"`
	PlaybackLocation  string   `yaml:"playback_location"`
	SimToneHz         int      `yaml:"sim_tone_hz"`
	StatusPort        int      `yaml:"status_port"`
	InfluxDB          struct {
		Host         string `yaml:"host"`
		Organization string `yaml:"organization"`
		Bucket       string `yaml:"bucket"`
	} `yaml:"influxdb"`
}

// Default returns the reference recording parameters: RTL-SDR, 100 MHz,
// 2 MS/s, ten seconds, radio_recording.wav.
func Default() Config {
	return Config{
		Driver:     "rtlsdr",
		CenterFreq: 100e6,
		SampleRate: 2e6,
		Duration:   Duration(10 * time.Second),
		Output:     "radio_recording.wav",
		SimToneHz:  1000,
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	contents, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.CenterFreq <= 0 {
		return fmt.Errorf("center_freq must be positive, got %d", c.CenterFreq)
	}
	// One read is a tenth of a second of samples; below 10 S/s there is
	// no whole block to read.
	if c.SampleRate < 10 {
		return fmt.Errorf("sample_rate must be at least 10, got %d", c.SampleRate)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %s", time.Duration(c.Duration))
	}
	if c.Output == "" {
		return fmt.Errorf("output path must not be empty")
	}
	if c.Driver == "file" && c.PlaybackLocation == "" {
		return fmt.Errorf("driver %q requires playback_location", c.Driver)
	}
	return nil
}
