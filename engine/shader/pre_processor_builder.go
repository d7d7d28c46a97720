package shader

import (
	"log/slog"

	"github.com/Carmen-Shannon/wgsl-game/engine/profiler"
)

// PreProcessorBuilderOption is a functional option for configuring a PreProcessor via
// NewPreProcessor.
type PreProcessorBuilderOption func(*preProcessor)

// WithMouse controls whether the generated host struct carries the mouse vector.
//
// Parameters:
//   - enabled: include the mouse field (default true)
//
// Returns:
//   - PreProcessorBuilderOption: option function to apply
func WithMouse(enabled bool) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		p.mouse = enabled
	}
}

// WithKeys controls whether the generated host struct carries the raw key state array
// and the header declares the KEY_* constants.
//
// Parameters:
//   - enabled: include the key array (default true)
//
// Returns:
//   - PreProcessorBuilderOption: option function to apply
func WithKeys(enabled bool) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		p.keys = enabled
	}
}

// WithLogger sets the logger for import tracing and soft errors. Without it the package
// logger from common.Logger is used.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - PreProcessorBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		p.logger = logger
	}
}

// WithProfiler records the duration of each preprocessing stage.
//
// Parameters:
//   - prof: the profiler receiving stage timings
//
// Returns:
//   - PreProcessorBuilderOption: option function to apply
func WithProfiler(prof *profiler.Profiler) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		p.profiler = prof
	}
}
