package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Env holds process-level overrides read once at startup.
type Env struct {
	Home         string `env:"HYLAUNCHER_HOME"`
	ControlAddr  string `env:"HYLAUNCHER_CONTROL_ADDR" envDefault:"127.0.0.1:47310"`
	EmulatorAddr string `env:"HYLAUNCHER_EMULATOR_ADDR"`
}

// LoadEnv parses launcher overrides from the environment.
func LoadEnv() (Env, error) {
	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Home = strings.TrimSpace(cfg.Home)
	cfg.ControlAddr = strings.TrimSpace(cfg.ControlAddr)
	if cfg.ControlAddr == "" {
		cfg.ControlAddr = DefaultControlAddr
	}
	cfg.EmulatorAddr = strings.TrimSpace(cfg.EmulatorAddr)
	return cfg, nil
}

// Paths resolves the directory layout for the configured home.
func (e Env) Paths() Paths {
	return GetPaths(e.Home)
}
