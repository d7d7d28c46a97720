// Package engine drives a game build: it opens the game source, runs the preprocessor
// over the entry shader, derives the GPU reflection of the processed shader and stages
// every referenced asset. A Game can watch a game directory and rebuild on change.
package engine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Carmen-Shannon/wgsl-game/common"
	"github.com/Carmen-Shannon/wgsl-game/engine/loader"
	"github.com/Carmen-Shannon/wgsl-game/engine/metadata"
	"github.com/Carmen-Shannon/wgsl-game/engine/profiler"
	"github.com/Carmen-Shannon/wgsl-game/engine/renderer/shader"
	preprocess "github.com/Carmen-Shannon/wgsl-game/engine/shader"
	"github.com/Carmen-Shannon/wgsl-game/engine/source"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// ErrNotWatchable is returned by Watch for sources that are not a directory on disk.
var ErrNotWatchable = errors.New("game source cannot be watched")

// Build is the immutable result of one build of a game.
type Build struct {
	// Source is the processed WGSL.
	Source string

	// Metadata describes the resources and host state of the processed shader.
	Metadata metadata.Metadata

	// Layout is the byte layout of the host state buffer.
	Layout metadata.HostLayout

	// Shader is the GPU reflection of the processed source.
	Shader shader.Shader

	// Assets holds the staged resources, nil when asset loading is disabled.
	Assets *loader.Assets

	// Time is when the build finished.
	Time time.Time
}

// game implements the Game interface.
type game struct {
	mu sync.RWMutex

	src   source.Source
	entry string

	mouse      bool
	keys       bool
	loadAssets bool
	workers    int
	debounce   time.Duration

	logger           *slog.Logger
	profiler         *profiler.Profiler
	profilingEnabled bool

	pre    preprocess.PreProcessor
	loader loader.Loader

	current *Build
}

// Game is the main entry point for building a WGSL game.
type Game interface {
	// Build preprocesses the entry shader, reflects its bind group layouts and loads
	// its assets. A successful build becomes the current build.
	//
	// Parameters:
	//   - ctx: cancels asset loading
	//
	// Returns:
	//   - *Build: the new build
	//   - error: the first preprocessing or asset error
	Build(ctx context.Context) (*Build, error)

	// Current returns the last successful build, nil before the first one.
	Current() *Build

	// Watch rebuilds whenever a file below the game directory changes, until ctx is
	// cancelled. Bursts of events are coalesced. onReload receives every rebuild
	// result, failed ones included; a failed rebuild keeps the previous current build.
	//
	// Parameters:
	//   - ctx: stops watching
	//   - onReload: called after each rebuild
	//
	// Returns:
	//   - error: ErrNotWatchable for archive sources, watcher setup errors, or nil
	//     once ctx is done
	Watch(ctx context.Context, onReload func(*Build, error)) error

	// Source returns the game source.
	Source() source.Source

	// Entry returns the name of the entry shader within the source.
	Entry() string

	// Profiler returns the pass profiler, nil unless profiling is enabled.
	Profiler() *profiler.Profiler

	// Close releases the game source.
	Close() error
}

var _ Game = &game{}

// NewGame opens a game from a shader file, a game directory or a zip archive.
//
// Parameters:
//   - path: the path handed to source.Open
//   - options: functional options for game configuration
//
// Returns:
//   - Game: the opened game
//   - error: error if the source cannot be opened
func NewGame(path string, options ...GameBuilderOption) (Game, error) {
	src, err := source.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open game %s", path)
	}
	return NewGameFromSource(src, source.EntryName(path), options...), nil
}

// NewGameFromSource creates a Game over an already opened source.
//
// Parameters:
//   - src: the game source
//   - entry: the entry shader name within src
//   - options: functional options for game configuration
//
// Returns:
//   - Game: the new game
func NewGameFromSource(src source.Source, entry string, options ...GameBuilderOption) Game {
	g := &game{
		src:        src,
		entry:      entry,
		mouse:      true,
		keys:       true,
		loadAssets: true,
		debounce:   100 * time.Millisecond,
		logger:     common.Logger(),
	}
	for _, opt := range options {
		opt(g)
	}
	if g.profilingEnabled {
		g.profiler = profiler.NewProfiler()
	}

	g.pre = preprocess.NewPreProcessor(src,
		preprocess.WithMouse(g.mouse),
		preprocess.WithKeys(g.keys),
		preprocess.WithLogger(g.logger),
		preprocess.WithProfiler(g.profiler),
	)
	loaderOptions := []loader.LoaderBuilderOption{loader.WithLogger(g.logger)}
	if g.workers > 0 {
		loaderOptions = append(loaderOptions, loader.WithWorkers(g.workers))
	}
	g.loader = loader.NewLoader(src, loaderOptions...)
	return g
}

func (g *game) Build(ctx context.Context) (*Build, error) {
	out, meta, err := g.pre.ProcessFile(g.entry)
	if err != nil {
		return nil, err
	}

	stop := g.profiler.Start("reflect")
	reflected := shader.NewShader(g.entry, out, meta)
	stop()

	b := &Build{
		Source:   out,
		Metadata: meta,
		Layout:   meta.HostLayout(),
		Shader:   reflected,
	}

	if g.loadAssets {
		stop := g.profiler.Start("assets")
		b.Assets, err = g.loader.Load(ctx, meta)
		stop()
		if err != nil {
			return nil, err
		}
	}
	b.Time = time.Now()

	g.mu.Lock()
	g.current = b
	g.mu.Unlock()

	g.logger.Info("game built", "entry", g.entry, "title", meta.Title, "host_buffer", b.Layout.Size)
	return b, nil
}

func (g *game) Current() *Build {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}

func (g *game) Source() source.Source {
	return g.src
}

func (g *game) Entry() string {
	return g.entry
}

func (g *game) Profiler() *profiler.Profiler {
	return g.profiler
}

func (g *game) Close() error {
	g.loader.Close()
	return g.src.Close()
}

func (g *game) Watch(ctx context.Context, onReload func(*Build, error)) error {
	dir, ok := g.src.(*source.Directory)
	if !ok {
		return ErrNotWatchable
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	if err := watchTree(watcher, dir.Root()); err != nil {
		return err
	}
	g.logger.Info("watching game directory", "root", dir.Root())

	// The timer starts stopped; each event pushes the rebuild back by the debounce
	// interval.
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := watchTree(watcher, ev.Name); err != nil {
						g.logger.Warn("failed to watch new directory", "dir", ev.Name, "err", err)
					}
				}
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			g.logger.Debug("game file changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(g.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			g.logger.Warn("file watcher error", "err", err)
		case <-timer.C:
			g.loader.Reset()
			b, err := g.Build(ctx)
			if err != nil {
				g.logger.Warn("rebuild failed", "err", err)
			}
			if onReload != nil {
				onReload(b, err)
			}
		}
	}
}

// watchTree adds root and every directory below it to the watcher.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return errors.Wrapf(err, "failed to watch %s", path)
		}
		return nil
	})
}
