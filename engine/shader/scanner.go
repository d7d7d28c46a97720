package shader

import (
	"strconv"

	"github.com/Carmen-Shannon/wgsl-game/engine/metadata"
	"github.com/pkg/errors"
)

// scanMetadata records every resource reference of an import-expanded source into meta.
// Each list keeps the order of first occurrence; cameras are sorted once scanning is
// done. The last @set_title and @set_size win.
//
// Parameters:
//   - directives: the directives of the expanded source, in source order
//   - meta: the record to populate
//
// Returns:
//   - error: ErrMalformedDirective for unparsable numbers, ErrTooManyOSCParams when the
//     OSC slots run out
func scanMetadata(directives []Directive, meta *metadata.Metadata) error {
	for _, d := range directives {
		switch d.Kind {
		case DirectiveSetTitle:
			meta.Title = d.Args[0]
		case DirectiveSetSize:
			w, err := parseUint32(d.Args[0])
			if err != nil {
				return errors.Wrapf(err, "line %d: @set_size width", d.Line)
			}
			h, err := parseUint32(d.Args[1])
			if err != nil {
				return errors.Wrapf(err, "line %d: @set_size height", d.Line)
			}
			meta.Width, meta.Height = w, h
		case DirectiveSound, DirectiveSoundPlay, DirectiveSoundStop:
			meta.AddSound(d.Args[0])
		case DirectiveTexture, DirectiveTextureIndex:
			meta.AddTexture(d.Args[0])
		case DirectiveVideo:
			meta.AddVideo(d.Args[0])
		case DirectiveCamera:
			index, err := parseUint32(d.Args[0])
			if err != nil {
				return errors.Wrapf(err, "line %d: @camera index", d.Line)
			}
			meta.AddCamera(index)
		case DirectiveModel, DirectiveModelPositions, DirectiveModelNormals:
			meta.AddModel(d.Args[0])
		case DirectiveOSC:
			if slot := meta.AddOSCParam(d.Args[0]); slot >= metadata.OSCFloatCount {
				return errors.Wrapf(ErrTooManyOSCParams, "line %d: @osc(%q) needs slot %d, only %d available", d.Line, d.Args[0], slot, metadata.OSCFloatCount)
			}
		}
	}

	meta.SortCameras()
	return nil
}

// parseUint32 parses a decimal directive argument.
func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedDirective, "%q is not a 32-bit unsigned integer", s)
	}
	return uint32(v), nil
}
