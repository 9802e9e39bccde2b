// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command pgviewd runs the animated pattern view against an in-process
// loopback host, writing snapshots of what a remote client would see.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/pgview"
	"github.com/gogpu/pgview/internal/config"
	"github.com/gogpu/pgview/internal/memhost"
)

func main() {
	var (
		configPath = flag.String("config", "", "TOML configuration file (watched for changes)")
		duration   = flag.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
		outDir     = flag.String("out", "", "directory for PNG snapshots (overrides output.dir)")
		logLevel   = flag.String("log-level", "", "debug, info, warn or error (overrides log.level)")
		pointer    = flag.Bool("pointer", false, "simulate a client pointer circling the view")
		screenshot = flag.String("screenshot", "", "write a Screenshot command result to this JPEG file on exit")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, "pgviewd:", err)
			os.Exit(1)
		}
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "pgviewd:", err)
		os.Exit(2)
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	pgview.SetLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	if err := run(ctx, log, cfg, *configPath, *pointer, *screenshot); err != nil {
		log.Error("pgviewd failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, cfg config.Config, configPath string, pointer bool, screenshotPath string) error {
	host := memhost.New()
	if err := cfg.Flags.Apply(host.Store); err != nil {
		return err
	}

	sched, err := pgview.NewScheduler(host.Host(), cfg.Options()...)
	if err != nil {
		return err
	}
	defer sched.Close()
	name := sched.Name()

	if err := resize(sched, host.Pipeline, cfg.ClientSize()); err != nil {
		return err
	}

	if configPath != "" {
		w, err := config.Watch(ctx, configPath, func(next config.Config) {
			if err := next.Flags.Apply(host.Store); err != nil {
				log.Warn("flags not applied", "err", err)
			}
			if err := resize(sched, host.Pipeline, next.ClientSize()); err != nil {
				log.Warn("client resize failed", "err", err)
			}
		})
		if err != nil {
			return fmt.Errorf("watch %s: %w", configPath, err)
		}
		defer w.Close()
	}

	if cfg.Output.Dir != "" {
		if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
			return err
		}
	}

	// The first render pass starts generation; everything after that is
	// driven by the scheduler's ticker and our flushes.
	if err := sched.Invoke(func() { _ = host.Pipeline.RenderImmediate(name) }); err != nil {
		return err
	}
	if err := sched.Start(ctx); err != nil {
		return err
	}
	log.Info("pgviewd running",
		"view", name,
		"size", sched.ActualSize(),
		"tick", cfg.TickPeriod(),
		"flush", cfg.FlushPeriod())

	flush := time.NewTicker(max(cfg.FlushPeriod(), time.Millisecond))
	defer flush.Stop()
	snapshots := newOptionalTicker(cfg.SnapshotPeriod())
	defer snapshots.Stop()
	statsTicks := newOptionalTicker(cfg.StatsPeriod())
	defer statsTicks.Stop()

	started := time.Now()
	var (
		flushed int
		written int
		angle   float64
	)
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-flush.C:
			_ = sched.Invoke(func() {
				flushed += host.Pipeline.Flush()
				if pointer {
					angle += 0.05
					s := sched.ActualSize()
					sched.PostMouseEvent(pgview.MouseEvent{
						Type: pgview.MouseMove,
						X:    float64(s.Width)/2 + float64(s.Width)/3*math.Cos(angle),
						Y:    float64(s.Height)/2 + float64(s.Height)/3*math.Sin(angle),
					})
				}
			})
		case <-snapshots.C():
			if cfg.Output.Dir == "" {
				continue
			}
			path := filepath.Join(cfg.Output.Dir, fmt.Sprintf("frame-%05d.png", written))
			if err := writeSnapshot(sched, host.Pipeline, path); err != nil {
				log.Warn("snapshot failed", "path", path, "err", err)
				continue
			}
			written++
		case <-statsTicks.C():
			logStats(log, sched, host.Pipeline, flushed, time.Since(started))
		}
	}

	if screenshotPath != "" {
		if err := saveScreenshot(host, screenshotPath); err != nil {
			log.Warn("screenshot failed", "err", err)
		} else {
			log.Info("screenshot written", "path", screenshotPath)
		}
	}
	logStats(log, sched, host.Pipeline, flushed, time.Since(started))
	return nil
}

// optionalTicker is a time.Ticker that never fires when its period is not
// positive.
type optionalTicker struct {
	t *time.Ticker
}

func newOptionalTicker(d time.Duration) optionalTicker {
	if d <= 0 {
		return optionalTicker{}
	}
	return optionalTicker{t: time.NewTicker(d)}
}

// C returns the tick channel, or nil for a disabled ticker.
func (o optionalTicker) C() <-chan time.Time {
	if o.t == nil {
		return nil
	}
	return o.t.C
}

func (o optionalTicker) Stop() {
	if o.t != nil {
		o.t.Stop()
	}
}

// resize forwards a client surface size to the view on its UI loop.
func resize(sched *pgview.Scheduler, pipe *memhost.Pipeline, size pgview.Size) error {
	var err error
	if ierr := sched.Invoke(func() { err = pipe.Resize(sched.Name(), size) }); ierr != nil {
		return ierr
	}
	return err
}

// writeSnapshot saves what the client currently sees.
func writeSnapshot(sched *pgview.Scheduler, pipe *memhost.Pipeline, path string) error {
	var img *image.RGBA
	if err := sched.Invoke(func() { img = pipe.Snapshot(sched.Name()) }); err != nil {
		return err
	}
	if img == nil {
		return errors.New("view not rendered yet")
	}

	f, err := os.Create(path) //nolint:gosec // path is built from the configured output dir
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func saveScreenshot(host *memhost.Host, path string) error {
	res, err := host.Commands.Dispatch(pgview.ScreenshotCommand, uuid.New(), nil)
	if err != nil {
		return err
	}
	key, err := uuid.Parse(res["ResourceKey"])
	if err != nil {
		return err
	}
	stored, ok := host.Resources.Load(key)
	if !ok {
		return fmt.Errorf("resource %s missing", key)
	}
	return os.WriteFile(path, stored.Data, 0o644) //nolint:gosec // operator-chosen output file
}

func logStats(log *slog.Logger, sched *pgview.Scheduler, pipe *memhost.Pipeline, flushed int, elapsed time.Duration) {
	st := sched.Stats()
	c := pipe.Counts(sched.Name())
	fps := 0.0
	if s := elapsed.Seconds(); s > 0 {
		fps = float64(c.Renders) / s
	}
	log.Info("pgviewd stats",
		"elapsed", elapsed.Round(time.Millisecond),
		"ticks", st.Ticks,
		"dropped_ticks", st.DroppedTicks,
		"dispatches", st.Dispatches,
		"dispatch_failures", st.DispatchFailures,
		"renders", c.Renders,
		"flushed", flushed,
		"fps", math.Round(fps*10)/10,
		"state", sched.Generator().State())
}
