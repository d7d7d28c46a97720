package shader

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/wgsl-game/engine/metadata"
	"github.com/pkg/errors"
)

// edit replaces text[start:end] with text.
type edit struct {
	start int
	end   int
	text  string
}

// engineFields maps @engine.<field> names to their generated accessor. Names outside the
// map are left untouched.
var engineFields = map[string]string{
	metadata.FieldButtons:      metadata.HostField(metadata.FieldButtons),
	metadata.FieldTime:         metadata.HostField(metadata.FieldTime),
	metadata.FieldDeltaTime:    metadata.HostField(metadata.FieldDeltaTime),
	metadata.FieldScreenWidth:  metadata.HostField(metadata.FieldScreenWidth),
	metadata.FieldScreenHeight: metadata.HostField(metadata.FieldScreenHeight),
	metadata.FieldMouse:        metadata.HostField(metadata.FieldMouse),
	metadata.FieldKeys:         metadata.HostField(metadata.FieldKeys),
	metadata.FieldState:        metadata.HostField(metadata.FieldState),
	metadata.FieldOSC:          metadata.HostField(metadata.FieldOSC),
	"sampler":                  metadata.SamplerVarName,
}

// rewriteDirectives computes the replacement of every directive and applies them, plus
// the extra removals, to text. Directives are looked up in the already scanned metadata,
// so slots are the ones the header declared.
//
// Parameters:
//   - text: the import-expanded source the directives were lexed from
//   - directives: the directives of text, in source order
//   - removals: additional spans to delete, such as the GameState declaration
//   - meta: the scanned metadata
//   - logger: receives soft errors
//
// Returns:
//   - string: the rewritten body
//   - error: an error if a directive references a resource missing from meta
func rewriteDirectives(text string, directives []Directive, removals []edit, meta metadata.Metadata, logger *slog.Logger) (string, error) {
	edits := make([]edit, 0, len(directives)+len(removals))
	edits = append(edits, removals...)

	for _, d := range directives {
		replacement, ok, err := replaceDirective(d, meta, logger)
		if err != nil {
			return "", errors.Wrapf(err, "line %d: @%s", d.Line, d.Kind)
		}
		if !ok {
			continue
		}

		end := d.End
		if d.Kind == DirectiveSetTitle || d.Kind == DirectiveSetSize {
			end = lineEnd(text, d.End)
		}
		edits = append(edits, edit{start: d.Start, end: end, text: replacement})
	}

	return applyEdits(text, edits), nil
}

// replaceDirective returns the replacement text of one directive. The bool result is
// false when the directive stays as written.
func replaceDirective(d Directive, meta metadata.Metadata, logger *slog.Logger) (string, bool, error) {
	switch d.Kind {
	case DirectiveSetTitle, DirectiveSetSize:
		return "", true, nil

	case DirectiveEngine:
		accessor, ok := engineFields[d.Args[0]]
		if !ok {
			logger.Debug("shader: leaving unknown engine field", "field", d.Args[0], "line", d.Line)
		}
		return accessor, ok, nil

	case DirectiveOSC:
		slot, err := lookup(meta.OSCSlot, d.Args[0])
		return fmt.Sprintf("%s.%s[%d]", metadata.HostVarName, metadata.FieldOSC, slot), err == nil, err

	case DirectiveSound, DirectiveSoundPlay, DirectiveSoundStop:
		slot, err := lookup(meta.SoundSlot, d.Args[0])
		if err != nil {
			return "", false, err
		}
		switch d.Kind {
		case DirectiveSoundPlay:
			return fmt.Sprintf("%s.%s[%d]++", metadata.HostVarName, metadata.FieldAudio, slot), true, nil
		case DirectiveSoundStop:
			return fmt.Sprintf("/* stop sound %d - not implemented */", slot), true, nil
		}
		return fmt.Sprintf("%s.%s[%d]", metadata.HostVarName, metadata.FieldAudio, slot), true, nil

	case DirectiveTexture:
		slot, err := lookup(meta.TextureSlot, d.Args[0])
		return metadata.TextureVar(slot), err == nil, err

	case DirectiveTextureIndex:
		slot, err := lookup(meta.TextureSlot, d.Args[0])
		return fmt.Sprintf("%du", slot), err == nil, err

	case DirectiveVideo:
		slot, err := lookup(meta.VideoSlot, d.Args[0])
		return metadata.VideoVar(slot), err == nil, err

	case DirectiveCamera:
		index, err := parseUint32(d.Args[0])
		if err != nil {
			return "", false, err
		}
		slot, err := lookup(meta.CameraSlot, index)
		return metadata.CameraVar(slot), err == nil, err

	case DirectiveModel, DirectiveModelPositions, DirectiveModelNormals:
		slot, err := lookup(meta.ModelSlot, d.Args[0])
		if err != nil {
			return "", false, err
		}
		positions, normals := metadata.ModelVars(slot)
		switch d.Kind {
		case DirectiveModelPositions:
			return positions + ".data", true, nil
		case DirectiveModelNormals:
			return normals + ".data", true, nil
		}
		logger.Warn("shader: @model used without .positions or .normals", "model", d.Args[0], "line", d.Line)
		return fmt.Sprintf("/* @model(%q) - use .positions or .normals */", d.Args[0]), true, nil

	case DirectiveStr:
		return encodeString(d.Args[0], d.Line, logger), true, nil
	}

	return "", false, nil
}

func lookup[T any](slotOf func(T) (int, bool), key T) (int, error) {
	slot, ok := slotOf(key)
	if !ok {
		return 0, errors.Errorf("%v has no slot", key)
	}
	return slot, nil
}

// encodeString converts a @str literal to an array<u32, N> constructor of its code
// points, zero padded to metadata.StringLength. Longer strings are truncated.
func encodeString(raw string, line int, logger *slog.Logger) string {
	codes := []rune(unescape(raw))
	if len(codes) > metadata.StringLength {
		logger.Warn("shader: @str literal truncated", "line", line, "length", len(codes), "max", metadata.StringLength)
		codes = codes[:metadata.StringLength]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "array<u32, %d>(", metadata.StringLength)
	for i := 0; i < metadata.StringLength; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		var code rune
		if i < len(codes) {
			code = codes[i]
		}
		fmt.Fprintf(&sb, "%du", code)
	}
	sb.WriteString(")")
	return sb.String()
}

// unescape resolves the \n, \r, \t, \" and \\ escapes of a @str literal. Other
// backslash sequences are kept as written.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			sb.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '"', '\\':
			sb.WriteByte(s[i])
		default:
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// lineEnd returns the offset of the newline ending the line that contains from, or
// len(text) on the last line.
func lineEnd(text string, from int) int {
	if i := strings.IndexByte(text[from:], '\n'); i >= 0 {
		return from + i
	}
	return len(text)
}

// applyEdits applies edits to text back to front so every span still refers to the
// original offsets when it is replaced. An edit starting inside an earlier edit's span
// is dropped: the earlier edit already removed its text.
func applyEdits(text string, edits []edit) string {
	if len(edits) == 0 {
		return text
	}
	slices.SortStableFunc(edits, func(a, b edit) int { return a.start - b.start })

	kept := edits[:0]
	covered := 0
	for _, e := range edits {
		if e.start < covered {
			continue
		}
		kept = append(kept, e)
		covered = e.end
	}

	out := []byte(text)
	for i := len(kept) - 1; i >= 0; i-- {
		e := kept[i]
		out = slices.Replace(out, e.start, e.end, []byte(e.text)...)
	}
	return string(out)
}
