package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/bretbouchard/whiteroom-rhythm/parameter"
)

// Config is the demo's TOML configuration.
type Config struct {
	SampleRate   int     `toml:"sample_rate"`
	BlockSize    int     `toml:"block_size"`
	Seed         uint32  `toml:"seed"`
	Tempo        float64 `toml:"tempo"`
	Swing        float64 `toml:"swing"`
	MasterVolume float64 `toml:"master_volume"`
	DataDir      string  `toml:"data_dir"`
}

func defaultConfig() Config {
	return Config{
		SampleRate:   int(parameter.DefaultSampleRate),
		BlockSize:    parameter.DefaultBlockSize,
		Seed:         1,
		Tempo:        parameter.DefaultBPM,
		Swing:        0.0,
		MasterVolume: 0.8,
		DataDir:      ".",
	}
}

// loadConfig reads the TOML file at path. A missing file yields defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return cfg, fmt.Errorf("config: %w", err)
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = int(parameter.DefaultSampleRate)
	}
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = parameter.DefaultBlockSize
	}
	if cfg.MasterVolume < 0 || cfg.MasterVolume > 1 {
		cfg.MasterVolume = 0.8
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}
	return cfg, nil
}
