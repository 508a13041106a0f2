package torque

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWav encodes an interleaved stereo float32 buffer as a 16-bit PCM wave
// file.
func WriteWav(w io.WriteSeeker, buffer []float32, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 2, 1)
	intBuf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 2,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(buffer)),
		SourceBitDepth: 16,
	}
	for i, v := range buffer {
		intBuf.Data[i] = toInt16(v)
	}
	if err := enc.Write(intBuf); err != nil {
		enc.Close()
		return fmt.Errorf("WriteWav failed: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("WriteWav failed: %w", err)
	}
	return nil
}

// Raw converts a float32 buffer to headerless little endian bytes, either
// int16 or float32.
func Raw(buffer []float32, pcm16 bool) ([]byte, error) {
	buf := new(bytes.Buffer)
	var err error
	if pcm16 {
		int16data := make([]int16, len(buffer))
		for i, v := range buffer {
			int16data[i] = int16(toInt16(v))
		}
		err = binary.Write(buf, binary.LittleEndian, int16data)
	} else {
		err = binary.Write(buf, binary.LittleEndian, buffer)
	}
	if err != nil {
		return nil, fmt.Errorf("Raw failed: %w", err)
	}
	return buf.Bytes(), nil
}

func toInt16(v float32) int {
	return min(max(int(v*math.MaxInt16), math.MinInt16), math.MaxInt16)
}
