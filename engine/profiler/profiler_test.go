package profiler

import (
	"testing"
	"time"
)

func TestRecord(t *testing.T) {
	p := NewProfiler()
	p.Record("parse", 2*time.Millisecond)
	p.Record("assets", time.Millisecond)
	p.Record("parse", 4*time.Millisecond)

	stages := p.Stages()
	if len(stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(stages))
	}
	if stages[0].Name != "parse" || stages[1].Name != "assets" {
		t.Errorf("expected first-recorded order, got %s, %s", stages[0].Name, stages[1].Name)
	}

	parse := stages[0]
	if parse.Count != 2 || parse.Last != 4*time.Millisecond || parse.Max != 4*time.Millisecond {
		t.Errorf("unexpected stats %+v", parse)
	}
	if parse.Average() != 3*time.Millisecond {
		t.Errorf("expected 3ms average, got %v", parse.Average())
	}
}

func TestStart(t *testing.T) {
	p := NewProfiler()
	stop := p.Start("build")
	stop()

	stages := p.Stages()
	if len(stages) != 1 || stages[0].Count != 1 {
		t.Errorf("expected one build run, got %+v", stages)
	}
}

func TestReportClears(t *testing.T) {
	p := NewProfiler()
	p.Record("build", time.Millisecond)
	p.Report()
	if len(p.Stages()) != 0 {
		t.Error("expected Report to clear the stages")
	}
}

func TestNilProfiler(t *testing.T) {
	var p *Profiler
	p.Start("x")()
	p.Record("x", time.Second)
	p.Report()
	if p.Stages() != nil {
		t.Error("expected a nil profiler to record nothing")
	}
	if (StageStats{}).Average() != 0 {
		t.Error("expected a zero average without runs")
	}
}
