// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/someonegg/roomalloc/hostel"
	"github.com/someonegg/roomalloc/internal/logging"
)

// env holds what every command needs, built from the config file and the
// global flags.
type env struct {
	cfg       Config
	logger    *logging.SlogLogger
	allocator *hostel.Allocator
	registry  *prometheus.Registry
	audit     *hostel.AuditLog
	auditFile *os.File
	out       io.Writer
}

func newEnv(ctx *cli.Context) (*env, error) {
	cfg, err := LoadConfig(ctx.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	if ctx.IsSet("log-level") {
		cfg.Log.Level = ctx.String("log-level")
	}
	if ctx.IsSet("log-format") {
		cfg.Log.Format = ctx.String("log-format")
	}
	if ctx.IsSet("audit") {
		cfg.Audit.File = ctx.String("audit")
	}
	if ctx.IsSet("metrics-file") {
		cfg.Metrics.Textfile = ctx.String("metrics-file")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(ctx.App.ErrWriter, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics, err := hostel.NewMetrics(registry, cfg.Metrics.Namespace)
	if err != nil {
		return nil, err
	}

	e := &env{
		cfg:    cfg,
		logger: logger,
		allocator: &hostel.Allocator{
			Parallelism: &cfg.Allocation.Parallelism,
			Logger:      logger,
			Metrics:     metrics,
		},
		registry: registry,
		audit:    hostel.NewAuditLog(io.Discard),
		out:      ctx.App.Writer,
	}

	if cfg.Audit.File != "" {
		f, err := os.OpenFile(cfg.Audit.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open audit file failed: %w", err)
		}
		e.auditFile = f
		e.audit = hostel.NewAuditLog(f)
	}

	return e, nil
}

func (e *env) close() error {
	var errs []error
	if e.cfg.Metrics.Textfile != "" {
		if err := prometheus.WriteToTextfile(e.cfg.Metrics.Textfile, e.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics failed: %w", err))
		}
	}
	if e.auditFile != nil {
		errs = append(errs, e.auditFile.Close())
	}
	return errors.Join(errs...)
}

// withEnv wraps a command action with env setup and teardown.
func withEnv(action func(ctx *cli.Context, e *env) error) cli.ActionFunc {
	return func(ctx *cli.Context) (err error) {
		e, err := newEnv(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := e.close(); err == nil {
				err = cerr
			}
		}()
		return action(ctx, e)
	}
}
