// Package loader stages the external resources a processed shader references: it reads
// every texture, sound, video and model named in the Metadata through the game Source,
// decodes textures to RGBA and parses models into vertex data ready for the storage
// bindings the header declares.
package loader

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/wgsl-game/common"
	"github.com/Carmen-Shannon/wgsl-game/engine/metadata"
	"github.com/Carmen-Shannon/wgsl-game/engine/source"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

// Assets holds the staged resources of one build. Each list is indexed by the slot the
// resource has in the Metadata.
type Assets struct {
	// Textures holds decoded RGBA pixels by texture slot.
	Textures []common.TextureStagingData

	// Sounds holds raw sound file bytes by sound slot.
	Sounds [][]byte

	// Videos holds raw video file bytes by video slot.
	Videos [][]byte

	// Models holds parsed geometry by model slot.
	Models []*Mesh
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	src     source.Source
	workers int
	logger  *slog.Logger

	modelCache map[string]*Mesh

	// pool is created by the first Load and shared by every later one.
	poolMu sync.Mutex
	pool   worker.DynamicWorkerPool
	closed bool
}

// Loader defines the public-facing interface for staging the resources of a processed
// shader. Parsed models are cached by file name until Reset.
type Loader interface {
	// Load reads every resource listed in meta concurrently. The first failure cancels
	// the remaining work and is returned.
	//
	// Parameters:
	//   - ctx: cancels the load
	//   - meta: the metadata of the processed shader
	//
	// Returns:
	//   - *Assets: the staged resources, indexed by slot
	//   - error: the first read, decode or parse error
	Load(ctx context.Context, meta metadata.Metadata) (*Assets, error)

	// LoadTexture reads and decodes one texture.
	//
	// Parameters:
	//   - name: the texture file name
	//
	// Returns:
	//   - common.TextureStagingData: the RGBA pixels
	//   - error: error if reading or decoding fails
	LoadTexture(name string) (common.TextureStagingData, error)

	// LoadModel reads and parses one model, returning the cached mesh if it was
	// loaded before. The backend is selected by file extension (.obj, .gltf, .glb).
	//
	// Parameters:
	//   - name: the model file name
	//
	// Returns:
	//   - *Mesh: the parsed model
	//   - error: error if reading or parsing fails
	LoadModel(name string) (*Mesh, error)

	// Get retrieves a cached model by name. Returns nil if not found.
	Get(name string) *Mesh

	// Models returns a copy of the model cache.
	Models() map[string]*Mesh

	// Reset drops every cached model, e.g. after the files changed on disk.
	Reset()

	// Close stops the worker pool. Load fails with ErrClosed afterwards.
	//
	// Returns:
	//   - error: always nil, present to satisfy io.Closer
	Close() error
}

var _ Loader = &loader{}

// NewLoader creates a new Loader reading from src with the given options applied.
//
// Parameters:
//   - src: the game source the resources are read from
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new Loader
func NewLoader(src source.Source, options ...LoaderBuilderOption) Loader {
	if src == nil {
		panic("loader: nil source")
	}
	l := &loader{
		src:        src,
		workers:    runtime.NumCPU(),
		logger:     common.Logger(),
		modelCache: make(map[string]*Mesh),
	}
	for _, option := range options {
		option(l)
	}
	return l
}

// EngineSampler returns the configuration of the sampler bound as _engine_sampler:
// clamp to edge, linear magnification and minification, nearest mipmap selection.
//
// Returns:
//   - common.SamplerStagingData: the sampler configuration
func EngineSampler() common.SamplerStagingData {
	return common.SamplerStagingData{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
}

func (l *loader) Load(ctx context.Context, meta metadata.Metadata) (*Assets, error) {
	l.poolMu.Lock()
	closed := l.closed
	l.poolMu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	assets := &Assets{
		Textures: make([]common.TextureStagingData, len(meta.Textures)),
		Sounds:   make([][]byte, len(meta.Sounds)),
		Videos:   make([][]byte, len(meta.Videos)),
		Models:   make([]*Mesh, len(meta.Models)),
	}

	var jobs []func() error
	for i, name := range meta.Textures {
		jobs = append(jobs, func() (err error) {
			assets.Textures[i], err = l.LoadTexture(name)
			return err
		})
	}
	for i, name := range meta.Sounds {
		jobs = append(jobs, func() (err error) {
			assets.Sounds[i], err = l.readFile(name)
			return err
		})
	}
	for i, name := range meta.Videos {
		jobs = append(jobs, func() (err error) {
			assets.Videos[i], err = l.readFile(name)
			return err
		})
	}
	for i, name := range meta.Models {
		jobs = append(jobs, func() (err error) {
			assets.Models[i], err = l.LoadModel(name)
			return err
		})
	}
	if len(jobs) == 0 {
		return assets, nil
	}

	if err := l.run(ctx, jobs); err != nil {
		return nil, err
	}
	l.logger.Debug("assets loaded",
		"textures", len(assets.Textures), "sounds", len(assets.Sounds),
		"videos", len(assets.Videos), "models", len(assets.Models))
	return assets, nil
}

// workerPool returns the shared pool, creating it on first use.
func (l *loader) workerPool() (worker.DynamicWorkerPool, error) {
	l.poolMu.Lock()
	defer l.poolMu.Unlock()
	if l.closed {
		return nil, ErrClosed
	}
	if l.pool == nil {
		l.pool = worker.NewDynamicWorkerPool(l.workers, 256, time.Second)
	}
	return l.pool, nil
}

// run executes jobs on the shared pool. The pool's Wait returns when the queue drains,
// not when the last task finishes, so a WaitGroup per call is the barrier.
func (l *loader) run(ctx context.Context, jobs []func() error) error {
	pool, err := l.workerPool()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for id, job := range jobs {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				if err := job(); err != nil {
					once.Do(func() {
						firstErr = err
						cancel()
					})
					return nil, err
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

func (l *loader) Close() error {
	l.poolMu.Lock()
	defer l.poolMu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.pool != nil {
		l.pool.Stop()
	}
	return nil
}

func (l *loader) LoadTexture(name string) (common.TextureStagingData, error) {
	data, err := l.readFile(name)
	if err != nil {
		return common.TextureStagingData{}, err
	}
	tex, err := common.DecodeTexture(data)
	if err != nil {
		return common.TextureStagingData{}, errors.Wrapf(err, "texture %s", name)
	}
	l.logger.Debug("texture decoded", "name", name, "format", tex.Format, "width", tex.Width, "height", tex.Height)
	return tex, nil
}

func (l *loader) LoadModel(name string) (*Mesh, error) {
	l.mu.RLock()
	if cached, ok := l.modelCache[name]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	backend, err := resolveBackend(name)
	if err != nil {
		return nil, err
	}
	data, err := l.readFile(name)
	if err != nil {
		return nil, err
	}
	mesh, err := backend.Load(name, data)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("model loaded", "name", name, "vertices", mesh.VertexCount(), "triangles", mesh.TriangleCount())

	l.mu.Lock()
	l.modelCache[name] = mesh
	l.mu.Unlock()
	return mesh, nil
}

func (l *loader) Get(name string) *Mesh {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[name]
}

func (l *loader) Models() map[string]*Mesh {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*Mesh, len(l.modelCache))
	for k, v := range l.modelCache {
		result[k] = v
	}
	return result
}

func (l *loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.modelCache = make(map[string]*Mesh)
}

func (l *loader) readFile(name string) ([]byte, error) {
	data, err := l.src.ReadBytes(name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read asset %s", name)
	}
	return data, nil
}
