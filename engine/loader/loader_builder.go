package loader

import "log/slog"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithWorkers is an option builder that sets the maximum number of concurrent loads.
//
// Parameters:
//   - n: the worker count, values below 1 are treated as 1
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker count to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.workers = max(n, 1)
	}
}

// WithLogger is an option builder that sets the logger used for load diagnostics.
//
// Parameters:
//   - logger: the logger, nil keeps the shared default
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger to a loader
func WithLogger(logger *slog.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithModel is an option builder that pre-populates the model cache with a mesh.
//
// Parameters:
//   - key: the model file name the mesh is cached under
//   - mesh: the mesh to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the model option to a loader
func WithModel(key string, mesh *Mesh) LoaderBuilderOption {
	return func(l *loader) {
		l.modelCache[key] = mesh
	}
}
