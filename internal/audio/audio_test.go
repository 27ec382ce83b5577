package audio

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/nguyentantai21042004/minutes-flow/internal/logger"
)

func testClip(seconds, rate int) *Clip {
	samples := make([]int16, seconds*rate)
	for i := range samples {
		samples[i] = int16(i % 1000)
	}
	return &Clip{SampleRate: rate, Channels: 1, BitDepth: 16, Samples: samples}
}

func TestClipDuration(t *testing.T) {
	clip := testClip(3, 16000)
	if clip.Frames() != 48000 {
		t.Errorf("Frames() = %d, want 48000", clip.Frames())
	}
	if clip.Duration() != 3 {
		t.Errorf("Duration() = %v, want 3", clip.Duration())
	}
}

func TestClipSlice(t *testing.T) {
	clip := testClip(4, 1000)

	tests := []struct {
		name       string
		start, end float64
		wantFrames int
		wantFirst  int16
	}{
		{"inner window", 1.0, 2.5, 1500, 1000 % 1000},
		{"fractional start", 0.0015, 0.0025, 1, 1},
		{"clamped end", 3.5, 10, 500, 3500 % 1000},
		{"negative start", -1, 0.01, 10, 0},
		{"inverted", 2, 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clip.Slice(tt.start, tt.end)
			if got.Frames() != tt.wantFrames {
				t.Fatalf("Frames() = %d, want %d", got.Frames(), tt.wantFrames)
			}
			if tt.wantFrames > 0 && got.Samples[0] != tt.wantFirst {
				t.Errorf("first sample = %d, want %d", got.Samples[0], tt.wantFirst)
			}
		})
	}
}

func TestSliceStereo(t *testing.T) {
	clip := &Clip{SampleRate: 10, Channels: 2, BitDepth: 16, Samples: make([]int16, 40)}
	for i := range clip.Samples {
		clip.Samples[i] = int16(i)
	}
	got := clip.Slice(0.5, 1.0)
	if got.Frames() != 5 {
		t.Fatalf("Frames() = %d, want 5", got.Frames())
	}
	if got.Samples[0] != 10 || got.Samples[1] != 11 {
		t.Errorf("slice should start at interleaved frame 5, got %v", got.Samples[:2])
	}
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	clip := testClip(1, 8000)

	if err := clip.WriteWAV(path); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	got, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV() error = %v", err)
	}
	if got.SampleRate != 8000 || got.Channels != 1 || got.BitDepth != 16 {
		t.Errorf("format = %d Hz/%d ch/%d bit", got.SampleRate, got.Channels, got.BitDepth)
	}
	if got.Frames() != clip.Frames() {
		t.Fatalf("Frames() = %d, want %d", got.Frames(), clip.Frames())
	}
	if got.Samples[999] != clip.Samples[999] {
		t.Errorf("sample 999 = %d, want %d", got.Samples[999], clip.Samples[999])
	}
}

func TestWAVRoundTripKeepsNegativeSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signed.wav")
	clip := &Clip{SampleRate: 16000, Channels: 1, BitDepth: 16, Samples: []int16{-32768, -1, 0, 1, 32767}}
	if err := clip.WriteWAV(path); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	got, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV() error = %v", err)
	}
	if len(got.Samples) != len(clip.Samples) {
		t.Fatalf("len(Samples) = %d, want %d", len(got.Samples), len(clip.Samples))
	}
	for i := range clip.Samples {
		if got.Samples[i] != clip.Samples[i] {
			t.Errorf("sample %d = %d, want %d", i, got.Samples[i], clip.Samples[i])
		}
	}
}

func TestReadWAVSpansDecodeChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "long.wav")
	clip := &Clip{SampleRate: 16000, Channels: 2, BitDepth: 16, Samples: make([]int16, (decodeChunkFrames*3+7)*2)}
	for i := range clip.Samples {
		clip.Samples[i] = int16(i % 30000)
	}
	if err := clip.WriteWAV(path); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	got, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV() error = %v", err)
	}
	if got.Frames() != clip.Frames() {
		t.Fatalf("Frames() = %d, want %d", got.Frames(), clip.Frames())
	}
	last := len(clip.Samples) - 1
	if got.Samples[last] != clip.Samples[last] {
		t.Errorf("last sample = %d, want %d", got.Samples[last], clip.Samples[last])
	}
}

func TestReadWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("definitely not riff"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadWAV(path); err == nil {
		t.Error("ReadWAV() should fail on a non-wav file")
	}
}

// fakeFFmpeg writes a fixture WAV to the output path ffmpeg was asked for
type fakeFFmpeg struct {
	calls int
	clip  *Clip
}

func (f *fakeFFmpeg) Execute(ctx context.Context, name string, args ...string) (string, error) {
	f.calls++
	return "", f.clip.WriteWAV(args[len(args)-1])
}

func (f *fakeFFmpeg) ExecuteWithEnv(ctx context.Context, env []string, name string, args ...string) (string, error) {
	return f.Execute(ctx, name, args...)
}

func TestLoaderReadsPCMWavDirectly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meeting.wav")
	if err := testClip(2, 16000).WriteWAV(path); err != nil {
		t.Fatal(err)
	}

	exec := &fakeFFmpeg{clip: testClip(1, 16000)}
	loader := NewLoader(exec, filepath.Join(dir, "tmp"), logger.NewWithWriter(io.Discard, "error", "text"))

	clip, err := loader.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if exec.calls != 0 {
		t.Errorf("ffmpeg called %d times for a PCM wav", exec.calls)
	}
	if clip.Duration() != 2 {
		t.Errorf("Duration() = %v, want 2", clip.Duration())
	}
}

func TestLoaderConvertsOtherFormats(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meeting.m4a")
	if err := os.WriteFile(path, []byte("aac"), 0644); err != nil {
		t.Fatal(err)
	}

	tempDir := filepath.Join(dir, "tmp")
	exec := &fakeFFmpeg{clip: testClip(1, 16000)}
	loader := NewLoader(exec, tempDir, logger.NewWithWriter(io.Discard, "error", "text"))

	clip, err := loader.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if exec.calls != 1 {
		t.Errorf("ffmpeg calls = %d, want 1", exec.calls)
	}
	if clip.SampleRate != 16000 {
		t.Errorf("SampleRate = %d", clip.SampleRate)
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir should be empty after load, has %d entries", len(entries))
	}
}

func TestLoaderMissingFile(t *testing.T) {
	loader := NewLoader(&fakeFFmpeg{}, t.TempDir(), logger.NewWithWriter(io.Discard, "error", "text"))
	if _, err := loader.Load(context.Background(), "missing.wav"); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestLoaderConvertsNonSpeechWav(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "studio.wav")
	stereo := &Clip{SampleRate: 44100, Channels: 2, BitDepth: 16, Samples: make([]int16, 44100*2)}
	if err := stereo.WriteWAV(path); err != nil {
		t.Fatal(err)
	}

	exec := &fakeFFmpeg{clip: testClip(1, 16000)}
	loader := NewLoader(exec, filepath.Join(dir, "tmp"), logger.NewWithWriter(io.Discard, "error", "text"))

	clip, err := loader.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if exec.calls != 1 {
		t.Errorf("ffmpeg calls = %d, want 1", exec.calls)
	}
	if clip.Channels != 1 || clip.SampleRate != 16000 {
		t.Errorf("clip = %d Hz/%d ch, want 16000/1", clip.SampleRate, clip.Channels)
	}
}
