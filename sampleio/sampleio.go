// Package sampleio decodes sample files into torque.SampleData. WAV, Ogg
// Vorbis and MP3 files are supported.
package sampleio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"github.com/torque-tracker/torque"
)

var ErrUnknownFormat = errors.New("unknown sample format")

// LoadFile decodes the sample file at path, picking the decoder by the file
// extension.
func LoadFile(path string) (*torque.SampleData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open: %w", path, err)
	}
	defer f.Close()
	s, err := Decode(filepath.Ext(path), f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Decode decodes a sample; ext is the file extension including the dot.
func Decode(ext string, r io.ReadSeeker) (*torque.SampleData, error) {
	switch strings.ToLower(ext) {
	case ".wav":
		return DecodeWav(r)
	case ".ogg":
		return DecodeOgg(r)
	case ".mp3":
		return DecodeMP3(r)
	}
	return nil, fmt.Errorf("%q: %w", ext, ErrUnknownFormat)
}

// DecodeWav decodes an integer PCM wave file. Files with more than two
// channels keep their first two.
func DecodeWav(r io.ReadSeeker) (*torque.SampleData, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding WAV failed: %w", err)
	}
	bitDepth := int(decoder.BitDepth)
	if bitDepth == 0 {
		return nil, errors.New("unknown bit depth for WAV file")
	}
	nchannels := buf.Format.NumChannels
	if nchannels < 1 {
		return nil, fmt.Errorf("WAV file has %d channels: %w", nchannels, torque.ErrInvalidSample)
	}
	keep := min(nchannels, 2)
	factor := float32(math.Pow(2, float64(bitDepth-1)))
	nframes := len(buf.Data) / nchannels
	data := make([]float32, nframes*keep)
	for i := 0; i < nframes; i++ {
		for c := 0; c < keep; c++ {
			data[i*keep+c] = float32(buf.Data[i*nchannels+c]) / factor
		}
	}
	return torque.NewSampleData(buf.Format.SampleRate, keep, data)
}

// DecodeOgg decodes an Ogg Vorbis file.
func DecodeOgg(r io.Reader) (*torque.SampleData, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decoding Ogg Vorbis failed: %w", err)
	}
	if format.Channels > 2 {
		return nil, fmt.Errorf("Ogg Vorbis file has %d channels: %w", format.Channels, torque.ErrInvalidSample)
	}
	return torque.NewSampleData(format.SampleRate, format.Channels, data)
}

// DecodeMP3 decodes an MP3 file. The decoder always produces stereo.
func DecodeMP3(r io.Reader) (*torque.SampleData, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3 failed: %w", err)
	}
	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3 failed: %w", err)
	}
	nsamples := len(raw) / 2 // FormatSignedInt16LE
	nsamples -= nsamples % 2
	data := make([]float32, nsamples)
	for i := range data {
		data[i] = float32(int16(binary.LittleEndian.Uint16(raw[2*i:]))) / 32768
	}
	return torque.NewSampleData(decoder.SampleRate(), 2, data)
}
