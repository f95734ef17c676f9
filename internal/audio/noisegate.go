package audio

import (
	"fmt"
	"math"
)

// Gate is the built-in NoiseReducer: a short-window energy gate. Windows
// whose RMS sits below FloorRatio times the quietest window are attenuated.
// It is intentionally conservative; deployments wanting a real spectral
// denoiser inject their own NoiseReducer.
type Gate struct {
	// WindowSec is the analysis window length in seconds.
	WindowSec float64
	// FloorRatio scales the estimated noise floor into a gate threshold.
	FloorRatio float64
	// Attenuation multiplies samples in gated windows.
	Attenuation float64
}

func DefaultGate() Gate {
	return Gate{WindowSec: 0.02, FloorRatio: 2.0, Attenuation: 0.1}
}

func (g Gate) Reduce(samples []float64, sampleRate int) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("noise gate: invalid sample rate %d", sampleRate)
	}
	out := make([]float64, len(samples))
	copy(out, samples)
	if len(samples) == 0 {
		return out, nil
	}

	win := int(g.WindowSec * float64(sampleRate))
	if win < 1 {
		win = 1
	}

	rms := make([]float64, 0, len(samples)/win+1)
	for start := 0; start < len(samples); start += win {
		end := start + win
		if end > len(samples) {
			end = len(samples)
		}
		rms = append(rms, windowRMS(samples[start:end]))
	}

	floor, global := rms[0], 0.0
	for _, r := range rms {
		if r < floor {
			floor = r
		}
		global += r
	}
	global /= float64(len(rms))

	// A floor close to the overall level means there is no quiet segment to
	// learn noise from; gating would eat signal, so leave the audio alone.
	if global == 0 || floor > 0.5*global {
		return out, nil
	}

	threshold := floor * g.FloorRatio
	for w, r := range rms {
		if r >= threshold {
			continue
		}
		start := w * win
		end := start + win
		if end > len(out) {
			end = len(out)
		}
		for i := start; i < end; i++ {
			out[i] *= g.Attenuation
		}
	}
	return out, nil
}

func windowRMS(w []float64) float64 {
	if len(w) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range w {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(w)))
}
