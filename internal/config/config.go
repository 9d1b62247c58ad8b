// Package config loads the station configuration file. Every field is a
// pointer so a partial file is valid; the Get* methods supply defaults for
// anything left unset.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/groundstation/internal/serialmux"
)

// DefaultConfigPath is where the command looks when --config is not given.
const DefaultConfigPath = "config/groundstation.yaml"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// MinSampleRate is the lowest audio.sample_rate accepted.
const MinSampleRate = 8000

// ErrUnknownBackend is returned by Validate for a backend name it does not
// recognise.
var ErrUnknownBackend = errors.New("unknown backend")

// Backend names.
const (
	BackendNone     = "none"
	BackendMemory   = "memory"
	BackendLog      = "log"
	BackendTermbox  = "termbox"
	BackendGPIO     = "gpio"
	BackendOto      = "oto"
	BackendKeyboard = "keyboard"
)

// Config is the root of the station config file.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Display DisplayConfig `yaml:"display"`
	Audio   AudioConfig   `yaml:"audio"`
	Buttons ButtonsConfig `yaml:"buttons"`
	Timing  TimingConfig  `yaml:"timing"`
	HTTP    HTTPConfig    `yaml:"http"`
	DB      DBConfig      `yaml:"db"`
}

type SerialConfig struct {
	Port           *string `yaml:"port,omitempty"`
	Disabled       *bool   `yaml:"disabled,omitempty"`
	BaudRate       *int    `yaml:"baud_rate,omitempty"`
	DataBits       *int    `yaml:"data_bits,omitempty"`
	StopBits       *int    `yaml:"stop_bits,omitempty"`
	Parity         *string `yaml:"parity,omitempty"`
	LineTerminator *string `yaml:"line_terminator,omitempty"`
}

type DisplayConfig struct {
	Backend *string `yaml:"backend,omitempty"` // memory, log or termbox
}

// LineConfig selects how one audio line is driven.
type LineConfig struct {
	Backend *string `yaml:"backend,omitempty"`
	Pin     *string `yaml:"pin,omitempty"`
}

type AudioConfig struct {
	Buzzer     LineConfig `yaml:"buzzer"`
	Headphones LineConfig `yaml:"headphones"`
	SampleRate *int       `yaml:"sample_rate,omitempty"`
}

type ButtonsConfig struct {
	Backend   *string `yaml:"backend,omitempty"`
	PausePin  *string `yaml:"pause_pin,omitempty"`
	OutputPin *string `yaml:"output_pin,omitempty"`
}

// TimingConfig holds duration strings like "500ms".
type TimingConfig struct {
	Tone        *string `yaml:"tone,omitempty"`
	Gap         *string `yaml:"gap,omitempty"`
	PausedTone  *string `yaml:"paused_tone,omitempty"`
	CycleDelay  *string `yaml:"cycle_delay,omitempty"`
	SkipStartup *bool   `yaml:"skip_startup,omitempty"`
}

type HTTPConfig struct {
	Listen *string `yaml:"listen,omitempty"`
}

type DBConfig struct {
	Path *string `yaml:"path,omitempty"`
}

// Load reads a Config from a YAML file. The file must have a .yaml or .yml
// extension and be under 1MB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML config bytes.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func checkBackend(field string, v *string, allowed ...string) error {
	if v == nil {
		return nil
	}
	for _, a := range allowed {
		if *v == a {
			return nil
		}
	}
	return fmt.Errorf("%s %q: %w (expected one of %s)", field, *v, ErrUnknownBackend, strings.Join(allowed, ", "))
}

func checkDuration(field string, v *string) error {
	if v == nil || *v == "" {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("invalid %s '%s': %w", field, *v, err)
	}
	if d < 0 {
		return fmt.Errorf("%s must be non-negative, got %s", field, d)
	}
	return nil
}

// Validate checks the values that are set.
func (c *Config) Validate() error {
	checks := []error{
		checkBackend("display.backend", c.Display.Backend, BackendMemory, BackendLog, BackendTermbox),
		checkBackend("audio.buzzer.backend", c.Audio.Buzzer.Backend, BackendGPIO, BackendOto, BackendNone),
		checkBackend("audio.headphones.backend", c.Audio.Headphones.Backend, BackendGPIO, BackendOto, BackendNone),
		checkBackend("buttons.backend", c.Buttons.Backend, BackendGPIO, BackendKeyboard, BackendTermbox, BackendNone),
		checkDuration("timing.tone", c.Timing.Tone),
		checkDuration("timing.gap", c.Timing.Gap),
		checkDuration("timing.paused_tone", c.Timing.PausedTone),
		checkDuration("timing.cycle_delay", c.Timing.CycleDelay),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}

	if _, err := c.GetPortOptions().Normalise(); err != nil {
		return fmt.Errorf("serial: %w", err)
	}

	// One oto context per process.
	if c.GetBuzzerBackend() == BackendOto && c.GetHeadphonesBackend() == BackendOto {
		return errors.New("audio: buzzer and headphones cannot both use the oto backend")
	}
	if c.Audio.SampleRate != nil && *c.Audio.SampleRate < MinSampleRate {
		return fmt.Errorf("audio.sample_rate must be at least %d, got %d", MinSampleRate, *c.Audio.SampleRate)
	}

	// termbox owns the terminal, so its key events only exist with its display.
	if c.GetButtonsBackend() == BackendTermbox && c.GetDisplayBackend() != BackendTermbox {
		return errors.New("buttons.backend termbox requires display.backend termbox")
	}
	if c.GetButtonsBackend() == BackendKeyboard && c.GetDisplayBackend() == BackendTermbox {
		return errors.New("buttons.backend keyboard conflicts with display.backend termbox; use termbox")
	}
	return nil
}

func stringOr(v *string, def string) string {
	if v == nil || *v == "" {
		return def
	}
	return *v
}

func durationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def
	}
	return d
}

// GetSerialPort returns the serial device path.
func (c *Config) GetSerialPort() string { return stringOr(c.Serial.Port, "/dev/ttyUSB0") }

// GetSerialDisabled reports whether the link should be replaced by a no-op.
func (c *Config) GetSerialDisabled() bool {
	return c.Serial.Disabled != nil && *c.Serial.Disabled
}

// GetPortOptions returns the serial options; zero values are filled in by
// PortOptions.Normalise.
func (c *Config) GetPortOptions() serialmux.PortOptions {
	var opts serialmux.PortOptions
	if c.Serial.BaudRate != nil {
		opts.BaudRate = *c.Serial.BaudRate
	}
	if c.Serial.DataBits != nil {
		opts.DataBits = *c.Serial.DataBits
	}
	if c.Serial.StopBits != nil {
		opts.StopBits = *c.Serial.StopBits
	}
	if c.Serial.Parity != nil {
		opts.Parity = *c.Serial.Parity
	}
	return opts
}

// GetLineTerminator returns the line ending written after each frame's
// newline. An explicit empty string disables it.
func (c *Config) GetLineTerminator() string {
	if c.Serial.LineTerminator == nil {
		return serialmux.DefaultLineTerminator
	}
	return *c.Serial.LineTerminator
}

func (c *Config) GetDisplayBackend() string { return stringOr(c.Display.Backend, BackendMemory) }

func (c *Config) GetBuzzerBackend() string { return stringOr(c.Audio.Buzzer.Backend, BackendNone) }

// GetBuzzerPin defaults to the PWM-capable header pin 12.
func (c *Config) GetBuzzerPin() string { return stringOr(c.Audio.Buzzer.Pin, "GPIO18") }

func (c *Config) GetHeadphonesBackend() string {
	return stringOr(c.Audio.Headphones.Backend, BackendNone)
}

func (c *Config) GetHeadphonesPin() string { return stringOr(c.Audio.Headphones.Pin, "GPIO13") }

func (c *Config) GetSampleRate() int {
	if c.Audio.SampleRate == nil {
		return 44100
	}
	return *c.Audio.SampleRate
}

func (c *Config) GetButtonsBackend() string { return stringOr(c.Buttons.Backend, BackendNone) }

func (c *Config) GetPausePin() string { return stringOr(c.Buttons.PausePin, "GPIO10") }

func (c *Config) GetOutputPin() string { return stringOr(c.Buttons.OutputPin, "GPIO24") }

func (c *Config) GetTone() time.Duration { return durationOr(c.Timing.Tone, 500*time.Millisecond) }

func (c *Config) GetGap() time.Duration { return durationOr(c.Timing.Gap, 500*time.Millisecond) }

func (c *Config) GetPausedTone() time.Duration {
	return durationOr(c.Timing.PausedTone, 1000*time.Millisecond)
}

func (c *Config) GetCycleDelay() time.Duration {
	return durationOr(c.Timing.CycleDelay, 1000*time.Millisecond)
}

func (c *Config) GetSkipStartup() bool {
	return c.Timing.SkipStartup != nil && *c.Timing.SkipStartup
}

// GetListen returns the HTTP listen address; empty disables the server.
func (c *Config) GetListen() string {
	if c.HTTP.Listen == nil {
		return ":8080"
	}
	return *c.HTTP.Listen
}

// GetDBPath returns the history database path; empty disables history.
func (c *Config) GetDBPath() string {
	if c.DB.Path == nil {
		return "groundstation.db"
	}
	return *c.DB.Path
}
