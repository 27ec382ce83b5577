// Package audio loads recordings as PCM clips and cuts them by timestamp.
package audio

import (
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM = 1
	pcmBitDepth  = 16

	// frames decoded per read
	decodeChunkFrames = 4096
)

// Clip is decoded 16-bit PCM audio. Samples are interleaved when Channels > 1.
type Clip struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Samples    []int16
}

// Frames returns the number of sample frames (samples per channel).
func (c *Clip) Frames() int {
	if c.Channels == 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate == 0 {
		return 0
	}
	return float64(c.Frames()) / float64(c.SampleRate)
}

// Slice returns the frames in [start, end) seconds. Bounds are clamped to the
// clip; an inverted or out-of-range window yields an empty clip.
func (c *Clip) Slice(start, end float64) *Clip {
	from := c.frameAt(start)
	to := c.frameAt(end)
	if to < from {
		to = from
	}

	out := &Clip{SampleRate: c.SampleRate, Channels: c.Channels, BitDepth: c.BitDepth}
	out.Samples = append([]int16(nil), c.Samples[from*c.Channels:to*c.Channels]...)
	return out
}

func (c *Clip) frameAt(sec float64) int {
	frame := int(math.Floor(sec * float64(c.SampleRate)))
	if frame < 0 {
		return 0
	}
	if n := c.Frames(); frame > n {
		return n
	}
	return frame
}

// Decode reads a 16-bit PCM WAV stream chunk by chunk so only the int16
// samples of the whole recording are held in memory.
func Decode(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("not a valid wav stream")
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("unsupported wav format %d (want PCM)", dec.WavAudioFormat)
	}
	if dec.BitDepth != pcmBitDepth {
		return nil, fmt.Errorf("unsupported bit depth %d (want %d)", dec.BitDepth, pcmBitDepth)
	}

	channels := int(dec.NumChans)
	chunk := &goaudio.IntBuffer{Data: make([]int, decodeChunkFrames*channels)}
	var samples []int16
	for {
		n, err := dec.PCMBuffer(chunk)
		if err != nil {
			return nil, fmt.Errorf("decode pcm: %w", err)
		}
		if n == 0 {
			break
		}
		for _, v := range chunk.Data[:n] {
			samples = append(samples, int16(v))
		}
	}

	return &Clip{
		SampleRate: int(dec.SampleRate),
		Channels:   channels,
		BitDepth:   pcmBitDepth,
		Samples:    samples,
	}, nil
}

// ReadWAV decodes the PCM WAV file at path.
func ReadWAV(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	clip, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return clip, nil
}

// WriteWAV encodes the clip as a 16-bit PCM WAV file at path. The samples are
// widened for the encoder here, so call it on slices rather than whole recordings.
func (c *Clip) WriteWAV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}

	data := make([]int, len(c.Samples))
	for i, v := range c.Samples {
		data[i] = int(v)
	}

	enc := wav.NewEncoder(f, c.SampleRate, pcmBitDepth, c.Channels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: c.Channels, SampleRate: c.SampleRate},
		Data:           data,
		SourceBitDepth: pcmBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize wav: %w", err)
	}
	return f.Close()
}
