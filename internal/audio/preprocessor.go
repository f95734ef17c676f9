package audio

import (
	"fmt"
	"math"
	"path/filepath"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"artisan-voice-go/internal/logger"
)

// NoiseReducer cleans a mono waveform. Implementations are injectable so a
// real denoiser can replace the built-in gate without touching the pipeline.
type NoiseReducer interface {
	Reduce(samples []float64, sampleRate int) ([]float64, error)
}

// Preprocessor turns an uploaded recording into a cleaned mono file the
// transcriber can consume. The cleaned file is transient: the caller removes
// it once transcription finishes, and Clean removes it itself if writing
// fails partway.
type Preprocessor struct {
	fs      afero.Fs
	reducer NoiseReducer
	log     *logrus.Entry
}

func NewPreprocessor(fs afero.Fs, reducer NoiseReducer) *Preprocessor {
	return &Preprocessor{
		fs:      fs,
		reducer: reducer,
		log:     logger.WithComponent("audio.preprocessor"),
	}
}

// Clean decodes the WAV at path, collapses multi-channel audio to mono by
// per-sample averaging, runs noise reduction and writes the result beside the
// original as cleaned_<name>. It returns the cleaned file's path.
func (p *Preprocessor) Clean(path string) (string, error) {
	f, err := p.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return "", fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 {
		return "", fmt.Errorf("decode wav: missing format header")
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}

	samples := Downmix(buf)
	p.log.WithFields(logrus.Fields{
		"path":        path,
		"sample_rate": buf.Format.SampleRate,
		"channels":    buf.Format.NumChannels,
		"frames":      len(samples),
	}).Debug("decoded upload")

	cleaned, err := p.reducer.Reduce(normalize(samples, bitDepth), buf.Format.SampleRate)
	if err != nil {
		return "", fmt.Errorf("reduce noise: %w", err)
	}

	dir, name := filepath.Split(path)
	outPath := filepath.Join(dir, "cleaned_"+name)
	if err := p.writeMono(outPath, cleaned, buf.Format.SampleRate, bitDepth); err != nil {
		// never leave a partial cleaned file behind
		_ = p.fs.Remove(outPath)
		return "", fmt.Errorf("write cleaned audio: %w", err)
	}
	return outPath, nil
}

// Remove deletes a transient cleaned file. Missing files are not an error;
// the pipeline calls this on both the success and the failure path.
func (p *Preprocessor) Remove(path string) {
	if path == "" {
		return
	}
	if err := p.fs.Remove(path); err != nil {
		p.log.WithField("path", path).WithError(err).Warn("failed to remove cleaned audio")
	}
}

func (p *Preprocessor) writeMono(path string, samples []float64, sampleRate, bitDepth int) error {
	out, err := p.fs.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	enc := wav.NewEncoder(out, sampleRate, bitDepth, 1, 1)
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: bitDepth,
		Data:           denormalize(samples, bitDepth),
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// Downmix collapses an interleaved PCM buffer to one float64 sample per
// frame, averaging across channels. Mono input passes through unchanged.
func Downmix(buf *gaudio.IntBuffer) []float64 {
	ch := 1
	if buf.Format != nil && buf.Format.NumChannels > 1 {
		ch = buf.Format.NumChannels
	}
	frames := len(buf.Data) / ch
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < ch; c++ {
			sum += float64(buf.Data[i*ch+c])
		}
		out[i] = sum / float64(ch)
	}
	return out
}

func normalize(samples []float64, bitDepth int) []float64 {
	scale := float64(int64(1) << uint(bitDepth-1))
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s / scale
	}
	return out
}

func denormalize(samples []float64, bitDepth int) []int {
	scale := float64(int64(1) << uint(bitDepth-1))
	max := scale - 1
	out := make([]int, len(samples))
	for i, s := range samples {
		v := math.Round(s * scale)
		if v > max {
			v = max
		}
		if v < -scale {
			v = -scale
		}
		out[i] = int(v)
	}
	return out
}
