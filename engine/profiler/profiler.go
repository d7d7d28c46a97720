package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/wgsl-game/common"
)

// StageStats summarizes the timings recorded for one named stage.
type StageStats struct {
	// Name is the stage name.
	Name string

	// Count is the number of recorded runs.
	Count int

	// Last, Max and Total are the most recent, longest and summed run durations.
	Last  time.Duration
	Max   time.Duration
	Total time.Duration
}

// Average returns the mean run duration.
func (s StageStats) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Profiler records how long each stage of a build takes, across builds. It is safe for
// concurrent use and a nil *Profiler records nothing, so callers can keep it optional.
type Profiler struct {
	mu             sync.Mutex
	stages         map[string]*StageStats
	order          []string
	memStats       runtime.MemStats
	lastTotalAlloc uint64
	lastGCCount    uint32
}

// NewProfiler creates an empty Profiler.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		stages: make(map[string]*StageStats),
	}
}

// Start begins timing a stage and returns the function that ends it.
//
// Parameters:
//   - stage: the stage name
//
// Returns:
//   - func(): records the elapsed time when called
func (p *Profiler) Start(stage string) func() {
	if p == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		p.Record(stage, time.Since(start))
	}
}

// Record adds one run of a stage.
//
// Parameters:
//   - stage: the stage name
//   - d: the run duration
func (p *Profiler) Record(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.stages[stage]
	if !ok {
		s = &StageStats{Name: stage}
		p.stages[stage] = s
		p.order = append(p.order, stage)
	}
	s.Count++
	s.Last = d
	s.Total += d
	s.Max = max(s.Max, d)
}

// Stages returns a snapshot of every stage in first-recorded order.
//
// Returns:
//   - []StageStats: the stage summaries
func (p *Profiler) Stages() []StageStats {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]StageStats, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, *p.stages[name])
	}
	return out
}

// Report logs every stage summary followed by heap statistics at debug level, then
// clears the recorded stages.
// Heap statistics include: live heap, bytes allocated since the last report, GC count.
func (p *Profiler) Report() {
	if p == nil {
		return
	}
	logger := common.Logger()
	for _, s := range p.Stages() {
		logger.Debug("profiler: stage", "stage", s.Name, "runs", s.Count, "last", s.Last, "avg", s.Average(), "max", s.Max)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	churnMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024
	logger.Debug("profiler: memory", "heap_mb", allocMB, "allocated_mb", churnMB, "gc", p.memStats.NumGC-p.lastGCCount)

	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.lastGCCount = p.memStats.NumGC
	p.stages = make(map[string]*StageStats)
	p.order = p.order[:0]
}
