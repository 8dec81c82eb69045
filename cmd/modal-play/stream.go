package main

import (
	"encoding/binary"
	"math"

	"github.com/cwbudde/algo-modal/internal/engine"
)

// stream adapts the engine to the io.Reader oto pulls little-endian float32
// frames from. Read runs on the audio goroutine.
type stream struct {
	e        *engine.Engine
	block    []float32
	raw      []byte
	pending  []byte
	channels int
}

func newStream(e *engine.Engine, blockSize int) *stream {
	blockSize = max(blockSize, 1)
	return &stream{
		e:        e,
		block:    make([]float32, blockSize*e.Channels()),
		raw:      make([]byte, blockSize*e.Channels()*4),
		channels: e.Channels(),
	}
}

func (s *stream) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(s.pending) == 0 {
			s.fill()
		}
		c := copy(p[n:], s.pending)
		s.pending = s.pending[c:]
		n += c
	}
	return n, nil
}

func (s *stream) fill() {
	frames := len(s.block) / s.channels
	s.e.Process(s.block, frames)
	for i, v := range s.block {
		binary.LittleEndian.PutUint32(s.raw[i*4:], math.Float32bits(v))
	}
	s.pending = s.raw
}
