// pre_processor.go implements the shader preprocessor. It expands @import directives,
// scans the expanded text for resource directives to build a metadata.Metadata record,
// computes the GameState storage layout, synthesizes the generated header (host struct,
// input constants and binding declarations) and rewrites every directive into the
// accessor or literal the header declares.
//
// Every call runs in its own session, so a PreProcessor can serve concurrent passes such
// as hot reloads without sharing import state.
package shader

import (
	"log/slog"
	"strings"

	"github.com/Carmen-Shannon/wgsl-game/common"
	"github.com/Carmen-Shannon/wgsl-game/engine/metadata"
	"github.com/Carmen-Shannon/wgsl-game/engine/profiler"
	"github.com/Carmen-Shannon/wgsl-game/engine/source"
	"github.com/pkg/errors"
)

// Stage names recorded on the profiler.
const (
	StageImports = "shader.imports"
	StageScan    = "shader.scan"
	StageLayout  = "shader.layout"
	StageHeader  = "shader.header"
	StageRewrite = "shader.rewrite"
)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// src resolves @import file names and ProcessFile entries. May be nil for callers
	// that only process self-contained sources.
	src source.Source

	// mouse controls whether the host struct carries a mouse vector.
	mouse bool

	// keys controls whether the host struct carries the raw key array and the header
	// declares the KEY_* constants.
	keys bool

	// logger overrides the package logger when set.
	logger *slog.Logger

	// profiler receives stage timings when set.
	profiler *profiler.Profiler
}

// PreProcessor turns an annotated shader into plain WGSL plus the metadata record the
// host needs to bind and feed it.
type PreProcessor interface {
	// Process preprocesses shader source text. Imports are resolved through the
	// PreProcessor's source.
	//
	// Parameters:
	//   - text: the annotated shader source
	//
	// Returns:
	//   - string: the generated header followed by the rewritten body
	//   - metadata.Metadata: the resources and layout the shader requires
	//   - error: the first import, directive or layout error; no partial result is returned
	Process(text string) (string, metadata.Metadata, error)

	// ProcessFile reads an entry file from the PreProcessor's source and preprocesses it.
	// The entry file counts as already imported, so an import of it from elsewhere in the
	// pass becomes an "already imported" comment.
	//
	// Parameters:
	//   - name: the entry file name, relative to the source root
	//
	// Returns:
	//   - string: the generated header followed by the rewritten body
	//   - metadata.Metadata: the resources and layout the shader requires
	//   - error: the first read, import, directive or layout error
	ProcessFile(name string) (string, metadata.Metadata, error)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor reading imports from src. Mouse and key state are
// included in the host struct unless disabled by options.
//
// Parameters:
//   - src: the source store imports and entry files are read from, may be nil
//   - options: functional options to configure the pre-processor
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(src source.Source, options ...PreProcessorBuilderOption) PreProcessor {
	p := &preProcessor{
		src:   src,
		mouse: true,
		keys:  true,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *preProcessor) Process(text string) (string, metadata.Metadata, error) {
	return p.run(p.newSession(), text, "")
}

func (p *preProcessor) ProcessFile(name string) (string, metadata.Metadata, error) {
	if p.src == nil {
		return "", metadata.Metadata{}, errors.Errorf("process %s: pre-processor has no source", name)
	}
	text, err := p.src.ReadText(name)
	if err != nil {
		return "", metadata.Metadata{}, errors.Wrapf(err, "read entry %s", name)
	}

	sess := p.newSession()
	sess.markExpanded(name)
	return p.run(sess, text, name)
}

func (p *preProcessor) newSession() *session {
	return newSession(p.sourceOrEmpty(), p.log())
}

func (p *preProcessor) sourceOrEmpty() source.Source {
	if p.src == nil {
		return source.Map{}
	}
	return p.src
}

func (p *preProcessor) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return common.Logger()
}

// run executes one top-level pass: import expansion, directive scan, GameState layout,
// header synthesis and rewriting.
func (p *preProcessor) run(sess *session, text, name string) (string, metadata.Metadata, error) {
	logger := p.log()

	stop := p.profiler.Start(StageImports)
	expanded, err := sess.expandImports(text, name)
	stop()
	if err != nil {
		return "", metadata.Metadata{}, err
	}

	stop = p.profiler.Start(StageScan)
	meta := metadata.New()
	meta.Mouse, meta.Keys = p.mouse, p.keys
	directives, err := lexDirectives(expanded)
	if err == nil {
		err = scanMetadata(directives, &meta)
	}
	stop()
	if err != nil {
		return "", metadata.Metadata{}, errors.Wrapf(err, "scan %s", displayName(name))
	}

	stop = p.profiler.Start(StageLayout)
	decl, hasState := FindStruct(expanded, GameStateName)
	var removals []edit
	if hasState {
		layout, err := ComputeStructLayout(decl.Text)
		if err != nil {
			stop()
			return "", metadata.Metadata{}, errors.Wrapf(err, "%s", displayName(name))
		}
		meta.StateSize, meta.StateAlign = layout.Size, layout.Align
		removals = append(removals, edit{start: decl.Start, end: decl.End})
	}
	stop()

	stop = p.profiler.Start(StageHeader)
	var sb strings.Builder
	sb.Grow(len(expanded) + 8192)
	writeHeader(&sb, meta, decl.Text)
	stop()

	stop = p.profiler.Start(StageRewrite)
	body, err := rewriteDirectives(expanded, directives, removals, meta, logger)
	stop()
	if err != nil {
		return "", metadata.Metadata{}, errors.Wrapf(err, "rewrite %s", displayName(name))
	}
	sb.WriteString(body)

	logger.Debug("shader: preprocessed",
		"entry", displayName(name),
		"textures", len(meta.Textures),
		"sounds", len(meta.Sounds),
		"videos", len(meta.Videos),
		"cameras", len(meta.Cameras),
		"models", len(meta.Models),
		"osc", len(meta.OSCParams),
		"state_size", meta.StateSize,
	)
	return sb.String(), meta, nil
}
