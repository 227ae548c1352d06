package emu

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"

	"svision/emu/log"
	"svision/hw/gpu"
	"svision/hw/input"
	"svision/hw/sound"
)

type Config struct {
	Video   VideoConfig   `toml:"video"`
	Audio   AudioConfig   `toml:"audio"`
	General GeneralConfig `toml:"general"`
	Input   input.Script  `toml:"input"`
}

type VideoConfig struct {
	ColorScheme string `toml:"color_scheme"`
	Ghosting    int    `toml:"ghosting"`
}

// Scheme returns the configured color scheme, falling back to the default
// one for unknown names.
func (vcfg *VideoConfig) Scheme() gpu.ColorScheme {
	if vcfg.ColorScheme == "" {
		return gpu.SchemeDefault
	}
	cs, ok := gpu.SchemeByName(vcfg.ColorScheme)
	if !ok {
		log.ModEmu.Warnf("Invalid color scheme %q, fallback to %q", vcfg.ColorScheme, gpu.SchemeDefault)
		return gpu.SchemeDefault
	}
	return cs
}

type AudioConfig struct {
	// SampleRate is the rate at which the sound hardware is emulated.
	SampleRate int `toml:"sample_rate"`
	// OutputRate is the rate of the written audio, if different from
	// SampleRate.
	OutputRate int  `toml:"output_rate"`
	Disabled   bool `toml:"disabled"`
}

type GeneralConfig struct {
	// StateDir is the directory relative state file paths are resolved in.
	// When empty they are relative to the current directory.
	StateDir string `toml:"state_dir"`
	// Frames is the number of frames to run when not specified on the
	// command line.
	Frames int `toml:"frames"`
}

// DefaultConfig returns the configuration used when none is found.
func DefaultConfig() Config {
	return Config{
		Video: VideoConfig{
			ColorScheme: gpu.SchemeDefault.String(),
		},
		Audio: AudioConfig{
			SampleRate: sound.DefaultSampleRate,
			OutputRate: sound.DefaultSampleRate,
		},
		General: GeneralConfig{
			Frames: 600,
		},
	}
}

// Check fixes invalid values, and validates the input script.
func (cfg *Config) Check() error {
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = sound.DefaultSampleRate
	}
	if cfg.Audio.OutputRate <= 0 {
		cfg.Audio.OutputRate = cfg.Audio.SampleRate
	}
	if cfg.Video.Ghosting < 0 || cfg.Video.Ghosting > gpu.MaxGhosting {
		log.ModEmu.Warnf("Ghosting %d out of range, clamped", cfg.Video.Ghosting)
		cfg.Video.Ghosting = min(max(cfg.Video.Ghosting, 0), gpu.MaxGhosting)
	}
	if cfg.General.Frames < 0 {
		cfg.General.Frames = 0
	}
	if err := cfg.Input.Validate(); err != nil {
		return fmt.Errorf("input: %w", err)
	}
	return nil
}

var ConfigDir = sync.OnceValue(func() string {
	return configdir.LocalConfig("svision")
})

const cfgFilename = "config.toml"

// ConfigPath is the path of the default configuration file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), cfgFilename)
}

// LoadConfig loads the configuration at path. Missing keys keep their
// default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, err
	}
	for _, key := range md.Undecoded() {
		log.ModEmu.Warnf("%s: unknown config key %q", path, key.String())
	}
	if err := cfg.Check(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigOrDefault loads the configuration at path, or from the default
// location if path is empty. If the file doesn't exist the default
// configuration is returned.
func LoadConfigOrDefault(path string) (Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	cfg, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.ModEmu.DebugZ("no config file, using defaults").String("path", path).End()
		cfg = DefaultConfig()
		return cfg, cfg.Check()
	}
	return cfg, err
}

// SaveConfig writes cfg at path, creating the directory if needed.
func SaveConfig(cfg Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := configdir.MakePath(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}
