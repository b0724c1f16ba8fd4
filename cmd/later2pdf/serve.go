package main

import (
	"context"
	"errors"
	"fmt"

	later2pdf "github.com/alnah/go-later2pdf"
	"github.com/alnah/go-later2pdf/internal/progress"
	"github.com/alnah/go-later2pdf/internal/server"
)

// runServe starts the HTTP API and blocks until ctx is cancelled.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if flags.pool < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkerCount, flags.pool)
	}

	a, err := loadApp(&flags.common, &flags.backend, env)
	if err != nil {
		return err
	}
	if flags.addr != "" {
		a.cfg.Server.Addr = flags.addr
	}
	if flags.pool > 0 {
		a.cfg.Server.PoolSize = flags.pool
	}

	src, err := a.newSource()
	if err != nil {
		return err
	}
	opts, err := a.converterOptions()
	if err != nil {
		return err
	}

	// Fail on bad assets at startup, not on the first request.
	preflight, err := later2pdf.NewConverter(src, opts...)
	if err != nil {
		return err
	}
	_ = preflight.Close()

	size := later2pdf.ResolvePoolSize(a.cfg.Server.PoolSize)
	pool := later2pdf.NewConverterPool(size, func() (*later2pdf.Converter, error) {
		return later2pdf.NewConverter(src, opts...)
	})
	defer func() {
		if err := pool.Close(); err != nil {
			a.logger.Warn("closing converter pool", "error", err)
		}
	}()
	a.logger.Info("converter pool ready", "size", size, "backend", src.Name())

	srv := server.New(ctx, server.Config{
		ListPerMinute:  a.cfg.Server.ListPerMinute,
		ConvertPerHour: a.cfg.Server.ConvertPerHour,
		MaxIndex:       a.cfg.Listing.MaxIndex,
	}, src, server.PoolConverter{Pool: pool},
		server.WithLogger(a.logger),
		server.WithHub(progress.NewHub(progress.DefaultBuffer)),
	)

	if err := srv.Run(ctx, a.cfg.Server.Addr); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
