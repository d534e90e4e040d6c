// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/someonegg/roomalloc/hostel"
	"github.com/someonegg/roomalloc/internal/logging"
)

type Config struct {
	Allocation AllocationConfig `yaml:"allocation"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Audit      AuditConfig      `yaml:"audit"`
}

type AllocationConfig struct {
	MaxWantsPerStudent *int          `yaml:"max_wants_per_student"` // 0 disables the check
	Timeout            time.Duration `yaml:"timeout"`
	Parallelism        int           `yaml:"parallelism"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
	Textfile  string `yaml:"textfile"` // written after every command when set
}

type AuditConfig struct {
	File string `yaml:"file"` // JSON lines, appended
}

const (
	defaultTimeout   = 30 * time.Second
	defaultLogLevel  = "info"
	defaultLogFormat = "text"
	defaultNamespace = "roomalloc"
)

func DefaultConfig() Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return cfg
}

// ApplyDefaults fills every unset field of cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Allocation.MaxWantsPerStudent == nil {
		v := hostel.DefaultMaxWantsPerStudent
		cfg.Allocation.MaxWantsPerStudent = &v
	}
	if cfg.Allocation.Timeout == 0 {
		cfg.Allocation.Timeout = defaultTimeout
	}
	if cfg.Allocation.Parallelism == 0 {
		cfg.Allocation.Parallelism = hostel.DefaultParallelism
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaultLogFormat
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = defaultNamespace
	}
}

func (cfg *Config) Validate() error {
	var errs []error
	if *cfg.Allocation.MaxWantsPerStudent < 0 {
		errs = append(errs, errors.New("allocation.max_wants_per_student must not be negative"))
	}
	if cfg.Allocation.Timeout < 0 {
		errs = append(errs, errors.New("allocation.timeout must be positive"))
	}
	if cfg.Allocation.Parallelism < 0 {
		errs = append(errs, errors.New("allocation.parallelism must be positive"))
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", cfg.Log.Format))
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML config file. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	ApplyDefaults(&cfg)
	return cfg, cfg.Validate()
}
