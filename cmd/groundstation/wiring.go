package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/banshee-data/groundstation/internal/audio"
	"github.com/banshee-data/groundstation/internal/buttons"
	"github.com/banshee-data/groundstation/internal/config"
	"github.com/banshee-data/groundstation/internal/lcd"
	"github.com/banshee-data/groundstation/internal/serialmux"
	"github.com/banshee-data/groundstation/internal/station"
)

type flagOverrides struct {
	listen        string
	port          string
	dbPath        string
	disableSerial bool
	skipStartup   bool
	dev           bool
}

// loadConfig reads path, or the default config file if path is empty and the
// file exists. With neither, every setting takes its default.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigPath); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return &config.Config{}, nil
			}
			return nil, err
		}
		path = config.DefaultConfigPath
	}
	return config.Load(path)
}

func applyFlags(cfg *config.Config, o flagOverrides) {
	if o.listen != "" {
		cfg.HTTP.Listen = &o.listen
	}
	if o.port != "" {
		cfg.Serial.Port = &o.port
	}
	if o.dbPath != "" {
		cfg.DB.Path = &o.dbPath
	}
	if o.disableSerial {
		cfg.Serial.Disabled = &o.disableSerial
	}
	if o.skipStartup {
		cfg.Timing.SkipStartup = &o.skipStartup
	}
	if o.dev {
		applyDevMode(cfg)
	}
}

// applyDevMode removes every dependency on station hardware. A termbox
// display is kept since it only needs a terminal.
func applyDevMode(cfg *config.Config) {
	none, logBackend := config.BackendNone, config.BackendLog
	if cfg.GetDisplayBackend() != config.BackendTermbox {
		cfg.Display.Backend = &logBackend
	}
	if cfg.GetBuzzerBackend() == config.BackendGPIO {
		cfg.Audio.Buzzer.Backend = &none
	}
	if cfg.GetHeadphonesBackend() == config.BackendGPIO {
		cfg.Audio.Headphones.Backend = &none
	}
	if cfg.GetButtonsBackend() == config.BackendGPIO {
		cfg.Buttons.Backend = &none
	}
}

func needsGPIO(cfg *config.Config) bool {
	return cfg.GetBuzzerBackend() == config.BackendGPIO ||
		cfg.GetHeadphonesBackend() == config.BackendGPIO ||
		cfg.GetButtonsBackend() == config.BackendGPIO
}

// termboxLogFile receives the log when termbox owns the terminal.
const termboxLogFile = "groundstation.log"

// logDestination returns the file the log should be appended to, or "" for
// stderr.
func logDestination(logFile string, cfg *config.Config) string {
	if logFile == "" && cfg.GetDisplayBackend() == config.BackendTermbox {
		return termboxLogFile
	}
	return logFile
}

func stationOptions(cfg *config.Config) station.Options {
	opts := station.DefaultOptions()
	opts.ToneOn = cfg.GetTone()
	opts.ToneGap = cfg.GetGap()
	opts.PausedTone = cfg.GetPausedTone()
	opts.CycleDelay = cfg.GetCycleDelay()
	opts.SkipStartup = cfg.GetSkipStartup()
	return opts
}

func openDisplay(cfg *config.Config) (lcd.Display, func(), error) {
	switch backend := cfg.GetDisplayBackend(); backend {
	case config.BackendMemory:
		return lcd.NewMemory(), func() {}, nil
	case config.BackendLog:
		return lcd.NewLogged(), func() {}, nil
	case config.BackendTermbox:
		t, err := lcd.NewTermbox()
		if err != nil {
			return nil, nil, err
		}
		return t, func() { t.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("display %q: %w", backend, config.ErrUnknownBackend)
	}
}

type adminLink interface {
	serialmux.LinkInterface
	AttachAdminRoutes(mux *http.ServeMux)
}

func describeSerial(cfg *config.Config, dev bool) string {
	switch {
	case cfg.GetSerialDisabled():
		return "disabled"
	case dev:
		return "mock"
	default:
		return cfg.GetSerialPort() + " " + cfg.GetPortOptions().String()
	}
}

func openLink(cfg *config.Config, dev bool) (adminLink, error) {
	opts := []serialmux.Option{serialmux.WithLineTerminator(cfg.GetLineTerminator())}
	switch {
	case cfg.GetSerialDisabled():
		return serialmux.NewDisabledLink(), nil
	case dev:
		link, err := serialmux.NewMockLink(os.TempDir(), opts...)
		if err != nil {
			return nil, err
		}
		return link, nil
	default:
		portOpts, err := cfg.GetPortOptions().Normalise()
		if err != nil {
			return nil, err
		}
		link, err := serialmux.NewRealLink(cfg.GetSerialPort(), portOpts, opts...)
		if err != nil {
			return nil, err
		}
		return link, nil
	}
}

func openLine(backend, pin string, sampleRate int) (audio.Line, error) {
	switch backend {
	case config.BackendNone:
		return audio.Silent{}, nil
	case config.BackendGPIO:
		line, err := audio.OpenPinLine(pin)
		if err != nil {
			return nil, err
		}
		return line, nil
	case config.BackendOto:
		line, err := audio.OpenSpeakerLine(sampleRate)
		if err != nil {
			return nil, err
		}
		return line, nil
	default:
		return nil, fmt.Errorf("audio %q: %w", backend, config.ErrUnknownBackend)
	}
}

func openButtons(cfg *config.Config) (buttons.Source, error) {
	switch backend := cfg.GetButtonsBackend(); backend {
	case config.BackendNone:
		return buttons.NoneSource{}, nil
	case config.BackendGPIO:
		src, err := buttons.OpenGPIOSource(cfg.GetPausePin(), cfg.GetOutputPin())
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.BackendKeyboard:
		return buttons.KeyboardSource{}, nil
	case config.BackendTermbox:
		return buttons.TermboxSource{}, nil
	default:
		return nil, fmt.Errorf("buttons %q: %w", backend, config.ErrUnknownBackend)
	}
}
