package audio

import (
	"errors"
	"path/filepath"
	"testing"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passthroughReducer struct{}

func (passthroughReducer) Reduce(samples []float64, sampleRate int) ([]float64, error) {
	return samples, nil
}

type failingReducer struct{}

func (failingReducer) Reduce(samples []float64, sampleRate int) ([]float64, error) {
	return nil, errors.New("denoiser unavailable")
}

func writeWAV(t *testing.T, fs afero.Fs, path string, data []int, channels, sampleRate int) {
	t.Helper()
	f, err := fs.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           data,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func TestDownmixAveragesChannels(t *testing.T) {
	// channel A = [0,2,4], channel B = [2,4,6], interleaved
	buf := &gaudio.IntBuffer{
		Format: &gaudio.Format{NumChannels: 2, SampleRate: 8000},
		Data:   []int{0, 2, 2, 4, 4, 6},
	}
	assert.Equal(t, []float64{1, 3, 5}, Downmix(buf))
}

func TestDownmixMonoPassthrough(t *testing.T) {
	buf := &gaudio.IntBuffer{
		Format: &gaudio.Format{NumChannels: 1, SampleRate: 8000},
		Data:   []int{7, -3, 12},
	}
	assert.Equal(t, []float64{7, -3, 12}, Downmix(buf))
}

func TestCleanWritesMonoFileBesideOriginal(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.Join("uploads", "audio", "rec.wav")
	writeWAV(t, fs, path, []int{100, 200, 300, 400, 500, 600}, 2, 8000)

	p := NewPreprocessor(fs, passthroughReducer{})
	cleaned, err := p.Clean(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("uploads", "audio", "cleaned_rec.wav"), cleaned)

	f, err := fs.Open(cleaned)
	require.NoError(t, err)
	defer f.Close()
	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, 1, buf.Format.NumChannels)
	// (100+200)/2, (300+400)/2, (500+600)/2
	assert.Equal(t, []int{150, 350, 550}, buf.Data)
}

func TestCleanReducerFailureLeavesNoFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "rec.wav"
	writeWAV(t, fs, path, []int{1, 2, 3}, 1, 8000)

	p := NewPreprocessor(fs, failingReducer{})
	_, err := p.Clean(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reduce noise")

	exists, _ := afero.Exists(fs, "cleaned_rec.wav")
	assert.False(t, exists, "no partial cleaned file should remain")
}

func TestCleanMissingFile(t *testing.T) {
	p := NewPreprocessor(afero.NewMemMapFs(), passthroughReducer{})
	_, err := p.Clean("nope.wav")
	require.Error(t, err)
}

func TestRemoveDeletesCleanedFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "cleaned_rec.wav", []byte("x"), 0o644))

	p := NewPreprocessor(fs, passthroughReducer{})
	p.Remove("cleaned_rec.wav")

	exists, _ := afero.Exists(fs, "cleaned_rec.wav")
	assert.False(t, exists)
}

func TestGateLeavesUniformSignalAlone(t *testing.T) {
	samples := make([]float64, 1600)
	for i := range samples {
		samples[i] = 0.5
	}
	out, err := DefaultGate().Reduce(samples, 8000)
	require.NoError(t, err)
	assert.Equal(t, samples, out)
}

func TestGateAttenuatesQuietWindows(t *testing.T) {
	// loud first half, near-silence second half
	samples := make([]float64, 3200)
	for i := 0; i < 1600; i++ {
		samples[i] = 0.5
	}
	for i := 1600; i < 3200; i++ {
		samples[i] = 0.001
	}
	out, err := DefaultGate().Reduce(samples, 8000)
	require.NoError(t, err)
	assert.Equal(t, 0.5, out[0], "loud region untouched")
	assert.InDelta(t, 0.0001, out[3000], 1e-9, "quiet region attenuated")
}

func TestGateInvalidSampleRate(t *testing.T) {
	_, err := DefaultGate().Reduce([]float64{0.1}, 0)
	require.Error(t, err)
}
