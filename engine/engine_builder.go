package engine

import (
	"log/slog"
	"time"
)

// GameBuilderOption is a functional option for configuring a Game.
// Use the With* functions to create options that are applied directly to the game instance.
type GameBuilderOption func(*game)

// WithProfiling enables or disables per-stage timing of builds.
//
// Parameters:
//   - enabled: if true, builds record stage timings in Game.Profiler
//
// Returns:
//   - GameBuilderOption: option function to apply
func WithProfiling(enabled bool) GameBuilderOption {
	return func(g *game) {
		g.profilingEnabled = enabled
	}
}

// WithMouse controls whether the generated host struct carries the mouse vector.
//
// Parameters:
//   - enabled: include the mouse field (default true)
//
// Returns:
//   - GameBuilderOption: option function to apply
func WithMouse(enabled bool) GameBuilderOption {
	return func(g *game) {
		g.mouse = enabled
	}
}

// WithKeys controls whether the generated host struct carries the raw key array.
//
// Parameters:
//   - enabled: include the keys field (default true)
//
// Returns:
//   - GameBuilderOption: option function to apply
func WithKeys(enabled bool) GameBuilderOption {
	return func(g *game) {
		g.keys = enabled
	}
}

// WithAssets controls whether Build loads the referenced assets.
// Tools that only need the processed source and metadata disable it.
//
// Parameters:
//   - enabled: load assets (default true)
//
// Returns:
//   - GameBuilderOption: option function to apply
func WithAssets(enabled bool) GameBuilderOption {
	return func(g *game) {
		g.loadAssets = enabled
	}
}

// WithWorkers sets the maximum number of concurrent asset loads.
// Values <= 0 keep the default of one worker per CPU.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - GameBuilderOption: option function to apply
func WithWorkers(n int) GameBuilderOption {
	return func(g *game) {
		g.workers = n
	}
}

// WithDebounce sets how long Watch waits after the last file event before rebuilding.
//
// Parameters:
//   - d: the debounce interval (default 100ms)
//
// Returns:
//   - GameBuilderOption: option function to apply
func WithDebounce(d time.Duration) GameBuilderOption {
	return func(g *game) {
		if d > 0 {
			g.debounce = d
		}
	}
}

// WithLogger sets the logger used by the game and every component it creates.
//
// Parameters:
//   - logger: the logger, nil keeps the shared default
//
// Returns:
//   - GameBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) GameBuilderOption {
	return func(g *game) {
		if logger != nil {
			g.logger = logger
		}
	}
}
