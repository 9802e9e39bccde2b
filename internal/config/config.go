// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads the pgviewd service configuration from TOML and keeps
// it current while the file changes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/pgview"
)

// Config is the decoded configuration file.
//
//	[view]
//	name = "PGView"
//	width = 800
//	height = 900
//	frames = 25
//	format = "rgba32"
//	tick = "15ms"
//
//	[flags]
//	async_generation = true
type Config struct {
	View       View       `toml:"view"`
	Flags      Flags      `toml:"flags"`
	Screenshot Screenshot `toml:"screenshot"`
	Client     Client     `toml:"client"`
	Output     Output     `toml:"output"`
	Log        Log        `toml:"log"`
}

// View configures the generator and scheduler.
type View struct {
	Name     string  `toml:"name"`
	Width    int     `toml:"width"`
	Height   int     `toml:"height"`
	Frames   int     `toml:"frames"`
	Format   string  `toml:"format"`
	RowShift float64 `toml:"row_shift"`
	Workers  int     `toml:"workers"`
	Tick     string  `toml:"tick"`
}

// Flags are the display switches. Unset entries leave the store alone.
type Flags struct {
	AsyncGeneration   *bool `toml:"async_generation"`
	RapidGeneration   *bool `toml:"rapid_generation"`
	DeferredRendering *bool `toml:"deferred_rendering"`
	UseClientSize     *bool `toml:"use_client_size"`
	ShowCursorMarker  *bool `toml:"show_cursor_marker"`
	ShowFrameInfo     *bool `toml:"show_frame_info"`
}

// Screenshot configures the Screenshot command.
type Screenshot struct {
	MaxWidth int `toml:"max_width"`
	Quality  int `toml:"quality"`
}

// Client describes the simulated remote client surface.
type Client struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Output configures the loopback pipeline and what pgviewd writes.
type Output struct {
	Flush         string `toml:"flush"`
	Dir           string `toml:"dir"`
	SnapshotEvery string `toml:"snapshot_every"`
	StatsEvery    string `toml:"stats_every"`
}

// Log configures logging.
type Log struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		View: View{
			Name:     pgview.DefaultViewName,
			Width:    pgview.DefaultSize.Width,
			Height:   pgview.DefaultSize.Height,
			Frames:   pgview.DefaultFrameCount,
			Format:   pgview.FormatRGBA32.String(),
			RowShift: pgview.DefaultRowShift,
			Tick:     pgview.DefaultTickPeriod.String(),
		},
		Screenshot: Screenshot{Quality: 85},
		Client: Client{
			Width:  pgview.DefaultSize.Width,
			Height: pgview.DefaultSize.Height,
		},
		Output: Output{
			Flush:      "15ms",
			StatsEvery: "5s",
		},
		Log: Log{Level: "info"},
	}
}

// Load reads and validates the file at path. Values missing from the file
// keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is chosen by the operator
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates TOML. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var (
			derr *toml.DecodeError
			serr *toml.StrictMissingError
		)
		switch {
		case errors.As(err, &derr):
			row, col := derr.Position()
			return Config{}, fmt.Errorf("line %d column %d: %w", row, col, err)
		case errors.As(err, &serr):
			return Config{}, fmt.Errorf("%w\n%s", err, serr.String())
		}
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and that every duration parses.
func (c Config) Validate() error {
	var errs []error
	if c.View.Width <= 0 || c.View.Height <= 0 {
		errs = append(errs, fmt.Errorf("view size %dx%d: %w", c.View.Width, c.View.Height, pgview.ErrInvalidSize))
	}
	if c.Client.Width <= 0 || c.Client.Height <= 0 {
		errs = append(errs, fmt.Errorf("client size %dx%d: %w", c.Client.Width, c.Client.Height, pgview.ErrInvalidSize))
	}
	if c.View.Frames < 1 {
		errs = append(errs, fmt.Errorf("view.frames must be at least 1, got %d", c.View.Frames))
	}
	if c.View.Workers < 0 {
		errs = append(errs, fmt.Errorf("view.workers must not be negative, got %d", c.View.Workers))
	}
	if rs := c.View.RowShift; rs < 0 || math.IsNaN(rs) || math.IsInf(rs, 0) {
		errs = append(errs, fmt.Errorf("view.row_shift must be a finite non-negative number, got %v", rs))
	}
	if _, err := pgview.ParsePixelFormat(c.View.Format); err != nil {
		errs = append(errs, err)
	}
	if q := c.Screenshot.Quality; q < 1 || q > 100 {
		errs = append(errs, fmt.Errorf("screenshot.quality must be in 1..100, got %d", q))
	}
	if c.Screenshot.MaxWidth < 0 {
		errs = append(errs, fmt.Errorf("screenshot.max_width must not be negative, got %d", c.Screenshot.MaxWidth))
	}
	for name, s := range map[string]string{
		"view.tick":             c.View.Tick,
		"output.flush":          c.Output.Flush,
		"output.snapshot_every": c.Output.SnapshotEvery,
		"output.stats_every":    c.Output.StatsEvery,
	} {
		if _, err := duration(s); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// duration parses s; the empty string means zero (disabled).
func duration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}

// TickPeriod returns the parsed view.tick.
func (c Config) TickPeriod() time.Duration {
	d, _ := duration(c.View.Tick)
	return d
}

// FlushPeriod returns the parsed output.flush.
func (c Config) FlushPeriod() time.Duration {
	d, _ := duration(c.Output.Flush)
	return d
}

// SnapshotPeriod returns the parsed output.snapshot_every; zero disables
// snapshots.
func (c Config) SnapshotPeriod() time.Duration {
	d, _ := duration(c.Output.SnapshotEvery)
	return d
}

// StatsPeriod returns the parsed output.stats_every; zero disables the
// periodic stats line.
func (c Config) StatsPeriod() time.Duration {
	d, _ := duration(c.Output.StatsEvery)
	return d
}

// ClientSize returns the simulated client surface size.
func (c Config) ClientSize() pgview.Size {
	return pgview.Size{Width: c.Client.Width, Height: c.Client.Height}
}

// Options converts the view and screenshot sections to scheduler options.
// c must be valid.
func (c Config) Options() []pgview.Option {
	format, _ := pgview.ParsePixelFormat(c.View.Format)
	return []pgview.Option{
		pgview.WithViewName(c.View.Name),
		pgview.WithDefaultSize(pgview.Size{Width: c.View.Width, Height: c.View.Height}),
		pgview.WithFrameCount(c.View.Frames),
		pgview.WithPixelFormat(format),
		pgview.WithRowShift(c.View.RowShift),
		pgview.WithWorkers(c.View.Workers),
		pgview.WithTickPeriod(c.TickPeriod()),
		pgview.WithScreenshotMaxWidth(c.Screenshot.MaxWidth),
		pgview.WithScreenshotQuality(c.Screenshot.Quality),
	}
}

// SlogLevel parses the level name.
func (l Log) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// Values returns the flags that are set, keyed by flag.
func (f Flags) Values() map[pgview.Flag]bool {
	out := make(map[pgview.Flag]bool)
	for flag, p := range map[pgview.Flag]*bool{
		pgview.FlagAsyncGeneration:   f.AsyncGeneration,
		pgview.FlagRapidGeneration:   f.RapidGeneration,
		pgview.FlagDeferredRendering: f.DeferredRendering,
		pgview.FlagUseClientSize:     f.UseClientSize,
		pgview.FlagShowCursorMarker:  f.ShowCursorMarker,
		pgview.FlagShowFrameInfo:     f.ShowFrameInfo,
	} {
		if p != nil {
			out[flag] = *p
		}
	}
	return out
}

// Apply writes the set flags into store, which is how a running view
// learns about them. Every set flag is attempted; write errors are joined.
func (f Flags) Apply(store pgview.StateStore) error {
	values := f.Values()
	var errs []error
	for _, flag := range pgview.Flags() {
		v, ok := values[flag]
		if !ok {
			continue
		}
		if err := store.Set(flag.Path(), v); err != nil {
			errs = append(errs, fmt.Errorf("%v: %w", flag, err))
		}
	}
	return errors.Join(errs...)
}
