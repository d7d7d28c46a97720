package shader

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Carmen-Shannon/wgsl-game/engine/source"
	"github.com/pkg/errors"
)

// session carries the state of one top-level preprocessing call. It is created per call
// and never stored on the PreProcessor, so concurrent passes do not share the set of
// expanded imports.
type session struct {
	// src resolves @import file names.
	src source.Source

	// expanded holds every file name already inlined (or being inlined) in this pass.
	expanded map[string]struct{}

	// logger receives import tracing.
	logger *slog.Logger
}

// newSession creates an empty session reading imports from src.
func newSession(src source.Source, logger *slog.Logger) *session {
	return &session{
		src:      src,
		expanded: make(map[string]struct{}),
		logger:   logger,
	}
}

// markExpanded records name as expanded and reports whether it already was.
func (s *session) markExpanded(name string) bool {
	if _, ok := s.expanded[name]; ok {
		return true
	}
	s.expanded[name] = struct{}{}
	return false
}

// expandImports inlines every @import directive of text depth-first. The first
// occurrence of a file name in the pass is replaced by the file's own expanded text
// wrapped in marker comments; every later occurrence becomes a one-line comment. A file
// is marked before it is read, so import cycles terminate.
//
// Parameters:
//   - text: the source text to expand
//   - from: the file text was read from, empty for inline sources; used in errors
//
// Returns:
//   - string: text with no @import directives left
//   - error: the first read or scan error, wrapped with the import chain
func (s *session) expandImports(text, from string) (string, error) {
	directives, err := lexDirectives(text)
	if err != nil {
		return "", errors.Wrapf(err, "scan imports of %s", displayName(from))
	}

	var edits []edit

	for _, d := range directives {
		if d.Kind != DirectiveImport {
			continue
		}
		name := d.Args[0]
		if s.markExpanded(name) {
			s.logger.Debug("shader: skipping repeated import", "file", name, "from", displayName(from))
			edits = append(edits, edit{start: d.Start, end: d.End, text: fmt.Sprintf("// Already imported: %s", name)})
			continue
		}

		imported, err := s.src.ReadText(name)
		if err != nil {
			return "", errors.Wrapf(err, "%s line %d: import %q", displayName(from), d.Line, name)
		}
		expanded, err := s.expandImports(imported, name)
		if err != nil {
			return "", err
		}
		s.logger.Debug("shader: inlined import", "file", name, "bytes", len(expanded))
		edits = append(edits, edit{start: d.Start, end: d.End, text: fmt.Sprintf("// Imported from %s\n%s\n// End of %s", name, expanded, name)})
	}

	return applyEdits(text, edits), nil
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "<source>"
	}
	return name
}
