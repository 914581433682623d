package sink

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/render"
)

// RenderMsgpack encodes the frame with the same schema as RenderJSON in
// msgpack, for clients that poll geometry at animation rates.
func RenderMsgpack(f render.Frame) ([]byte, error) {
	data, err := msgpack.Marshal(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode msgpack")
	}
	return data, nil
}

// DecodeMsgpack reads a document written by RenderMsgpack.
func DecodeMsgpack(data []byte) (render.Frame, error) {
	var f render.Frame
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return render.Frame{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode msgpack frame")
	}
	return f, nil
}
