package sink

import (
	"encoding/json"

	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/render"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	compact bool
	visible bool
}

// WithJSONCompact writes the document without indentation.
func WithJSONCompact() JSONOption { return func(r *jsonRenderer) { r.compact = true } }

// WithJSONVisibleOnly drops hidden and unmeasured lines from the output.
func WithJSONVisibleOnly() JSONOption { return func(r *jsonRenderer) { r.visible = true } }

// RenderJSON exports the frame as a JSON geometry document: the canvas,
// element boxes and every line's full geometry (path commands, stroke,
// outline, plug transforms and label placements).
//
// The document is the data interchange format of the render service. It can
// be read back with [DecodeJSON], although the decoded geometries carry no
// arc-length lookup tables.
func RenderJSON(f render.Frame, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}
	if r.visible {
		f = visibleOnly(f)
	}
	if f.Elements == nil {
		f.Elements = []render.Element{}
	}
	if f.Lines == nil {
		f.Lines = []render.Line{}
	}

	var (
		data []byte
		err  error
	)
	if r.compact {
		data, err = json.Marshal(f)
	} else {
		data, err = json.MarshalIndent(f, "", "  ")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode json")
	}
	return data, nil
}

// DecodeJSON reads a document written by RenderJSON.
func DecodeJSON(data []byte) (render.Frame, error) {
	var f render.Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return render.Frame{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json frame")
	}
	return f, nil
}

func visibleOnly(f render.Frame) render.Frame {
	lines := make([]render.Line, 0, len(f.Lines))
	for _, l := range f.Lines {
		if l.Geometry != nil && l.Geometry.Visible {
			lines = append(lines, l)
		}
	}
	f.Lines = lines
	return f
}
