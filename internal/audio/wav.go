// Package audio turns WAV and raw PCM16 input into the mono float32 samples
// the engine consumes.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"

	"github.com/obiente/translate/whisperbridge/internal/whisper"
)

var (
	ErrInvalidWAV = errors.New("audio: invalid wav file")
	ErrOddPCM     = errors.New("audio: pcm16 length must be even")
)

// DecodeWAV decodes a WAV stream into mono float32 samples in [-1, 1],
// averaging interleaved channels. It returns the file's sample rate.
func DecodeWAV(r io.ReadSeeker) ([]float32, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, ErrInvalidWAV
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, 0, fmt.Errorf("audio: decode wav: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, fmt.Errorf("%w: no samples", ErrInvalidWAV)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = int(dec.BitDepth)
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float32(int64(1) << (bitDepth - 1))
	if bitDepth == 8 {
		// 8-bit WAV is unsigned
		scale = 128
	}

	interleaved := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		if bitDepth == 8 {
			v -= 128
		}
		interleaved[i] = float32(v) / scale
	}

	channels := int(dec.NumChans)
	rate := int(dec.SampleRate)
	if buf.Format != nil {
		if channels == 0 {
			channels = buf.Format.NumChannels
		}
		if rate == 0 {
			rate = buf.Format.SampleRate
		}
	}
	if rate == 0 {
		rate = whisper.SampleRate
	}
	return Downmix(interleaved, channels), rate, nil
}

// DecodeWAVBytes is DecodeWAV over an in-memory blob.
func DecodeWAVBytes(b []byte) ([]float32, int, error) {
	return DecodeWAV(bytes.NewReader(b))
}

// DecodePCM16LE converts little-endian signed 16-bit mono PCM into float32.
func DecodePCM16LE(b []byte) ([]float32, error) {
	if len(b)%2 != 0 {
		return nil, ErrOddPCM
	}
	out := make([]float32, len(b)/2)
	for i := range out {
		v := int16(uint16(b[2*i]) | uint16(b[2*i+1])<<8)
		out[i] = float32(v) / 32768.0
	}
	return out, nil
}

// Downmix averages interleaved frames of the given channel count into mono.
// A trailing partial frame is dropped.
func Downmix(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return interleaved
	}
	out := make([]float32, len(interleaved)/channels)
	for i := range out {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// LoadFile reads a .wav file, or a raw PCM16LE file (.pcm, .raw) recorded
// at rawRate, and returns 16 kHz mono samples ready for the engine.
func LoadFile(path string, rawRate int) ([]float32, error) {
	samples, rate, err := readFile(path, rawRate)
	if err != nil {
		return nil, err
	}
	return ResampleLinear(samples, rate, whisper.SampleRate), nil
}

func readFile(path string, rawRate int) ([]float32, int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pcm", ".raw":
		if rawRate <= 0 {
			return nil, 0, fmt.Errorf("audio: %s: raw pcm needs a sample rate", path)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, 0, fmt.Errorf("audio: %w", err)
		}
		samples, err := DecodePCM16LE(b)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", path, err)
		}
		return samples, rawRate, nil
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, 0, fmt.Errorf("audio: %w", err)
		}
		defer f.Close()
		samples, rate, err := DecodeWAV(f)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", path, err)
		}
		return samples, rate, nil
	}
}
