package vcdiff

// Decode/NewDecoder is the single-shot convenience pair callers reach
// for when they don't need chunked delivery, built entirely on top of
// the streaming core below instead of duplicating any parsing logic.

// Decoder applies a single VCDIFF delta against a fixed source in one
// call.
type Decoder interface {
	Decode(delta []byte) ([]byte, error)
}

type decoder struct {
	source []byte
	opts   []Option
}

// NewDecoder returns a Decoder that reconstructs targets against source.
func NewDecoder(source []byte, opts ...Option) Decoder {
	return &decoder{source: source, opts: opts}
}

// Decode feeds delta through a StreamingDecoder in one shot.
func (d *decoder) Decode(delta []byte) ([]byte, error) {
	return decodeOnce(d.source, delta, d.opts...)
}

// Decode reconstructs the target produced from source by delta,
// without requiring the caller to manage a StreamingDecoder directly.
func Decode(source []byte, delta []byte, opts ...Option) ([]byte, error) {
	return decodeOnce(source, delta, opts...)
}

func decodeOnce(source, delta []byte, opts ...Option) ([]byte, error) {
	sd := NewStreamingDecoder(opts...)
	if err := sd.Start(source); err != nil {
		return nil, err
	}

	sink := &BufferSink{}
	if err := sd.DecodeChunk(delta, sink); err != nil {
		return nil, err
	}
	if err := sd.Finish(); err != nil {
		return nil, err
	}

	return sink.Bytes(), nil
}
