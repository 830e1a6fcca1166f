package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"ambientctx/internal/domain"
)

// ErrUnsupportedFormat is returned for sample formats the pipeline cannot normalize.
var ErrUnsupportedFormat = errors.New("unsupported sample format")

// Decoder converts little-endian raw stream bytes into normalized float samples.
type Decoder func(raw []byte) []float32

// DecoderFor returns the decoder specialized for format.
func DecoderFor(format domain.SampleFormat) (Decoder, error) {
	switch format {
	case domain.SampleFormatF32:
		return decodeF32, nil
	case domain.SampleFormatS16:
		return decodeS16, nil
	case domain.SampleFormatU16:
		return decodeU16, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func decodeF32(raw []byte) []float32 {
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}

func decodeS16(raw []byte) []float32 {
	out := make([]float32, len(raw)/2)
	for i := range out {
		out[i] = S16ToFloat(int16(binary.LittleEndian.Uint16(raw[i*2:])))
	}
	return out
}

func decodeU16(raw []byte) []float32 {
	out := make([]float32, len(raw)/2)
	for i := range out {
		out[i] = U16ToFloat(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return out
}

// S16ToFloat maps a signed 16-bit sample into [-1, 1).
func S16ToFloat(s int16) float32 {
	return float32(s) / 32768.0
}

// U16ToFloat maps an unsigned 16-bit sample into [-0.5, 0.5].
func U16ToFloat(s uint16) float32 {
	return float32(s)/65535.0 - 0.5
}

// FloatToS16 clamps and quantizes a normalized sample.
func FloatToS16(f float32) int16 {
	switch {
	case f >= 1:
		return math.MaxInt16
	case f <= -1:
		return math.MinInt16
	default:
		return int16(f * 32767)
	}
}

// EncodeS16 renders samples as little-endian linear16 PCM.
func EncodeS16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(FloatToS16(s)))
	}
	return out
}
