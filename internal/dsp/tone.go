// internal/dsp/tone.go
package dsp

import (
	"errors"
	"fmt"
	"math"
)

const (
	// q15Max is the largest positive Q15 sample value
	q15Max = 32767
	// magSquaredShift mirrors Q31 magnitude-squared scaling (result in 3.29 format)
	magSquaredShift = 33
	// maxShift bounds the down-shift applied to each correlation sum
	maxShift = 32
)

var (
	// ErrInvalidSampleRate indicates sample rate must be positive
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	// ErrInvalidFrequency indicates frequency must be positive and below Nyquist
	ErrInvalidFrequency = errors.New("tone frequency must be positive and less than Nyquist frequency")
	// ErrFractionalCycle indicates the sample rate is not an integer multiple of the tone frequency
	ErrFractionalCycle = errors.New("sample rate must be an integer multiple of tone frequency")
	// ErrInvalidCycles indicates the window must span at least one tone cycle
	ErrInvalidCycles = errors.New("cycles per window must be at least 1")
	// ErrInvalidShift indicates the energy down-shift is out of range
	ErrInvalidShift = errors.New("energy shift must be between 0 and 32")
)

// DetectorConfig holds configuration for the fixed-point tone detector.
// All values should come from the application config file.
type DetectorConfig struct {
	// SampleRate is the audio sample rate in Hz (from config: sample_rate)
	SampleRate int
	// ToneFrequency is the frequency to detect in Hz (from config: tone_frequency)
	ToneFrequency int
	// CyclesPerWindow is the window length in tone cycles (from config: cycles_per_window)
	CyclesPerWindow int
	// Shift is applied to each correlation sum before squaring (from config: energy_shift)
	Shift uint
	// Threshold is the energy above which a window is tone-present (from config: energy_threshold)
	Threshold uint32
}

// ToneDetector classifies fixed-length windows of Q15 samples as tone-present
// or tone-absent by correlating them against sine and cosine references.
// It holds no mutable state; Detect and Energy are safe for concurrent use.
type ToneDetector struct {
	config    DetectorConfig
	sine      []int16
	cosine    []int16
	windowLen int
}

// NewToneDetector validates cfg and builds the reference waveforms.
func NewToneDetector(cfg DetectorConfig) (*ToneDetector, error) {
	if cfg.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if cfg.ToneFrequency <= 0 || 2*cfg.ToneFrequency >= cfg.SampleRate {
		return nil, ErrInvalidFrequency
	}
	if cfg.SampleRate%cfg.ToneFrequency != 0 {
		return nil, ErrFractionalCycle
	}
	if cfg.CyclesPerWindow < 1 {
		return nil, ErrInvalidCycles
	}
	if cfg.Shift > maxShift {
		return nil, ErrInvalidShift
	}

	samplesPerCycle := cfg.SampleRate / cfg.ToneFrequency
	windowLen := cfg.CyclesPerWindow * samplesPerCycle
	sine, cosine := ReferenceWaveforms(samplesPerCycle, cfg.CyclesPerWindow)

	return &ToneDetector{
		config:    cfg,
		sine:      sine,
		cosine:    cosine,
		windowLen: windowLen,
	}, nil
}

// ReferenceWaveforms returns full-scale Q15 sine and cosine tables spanning
// the given number of cycles. For 16 samples per cycle the values match the
// classic 1 kHz @ 16 kHz tables (0, 12539, 23170, 30273, 32767, ...).
func ReferenceWaveforms(samplesPerCycle, cycles int) (sine, cosine []int16) {
	n := samplesPerCycle * cycles
	sine = make([]int16, n)
	cosine = make([]int16, n)
	for i := 0; i < n; i++ {
		phase := 2 * math.Pi * float64(i%samplesPerCycle) / float64(samplesPerCycle)
		sine[i] = int16(math.Round(q15Max * math.Sin(phase)))
		cosine[i] = int16(math.Round(q15Max * math.Cos(phase)))
	}
	return sine, cosine
}

// Detect reports whether the target tone is present in window.
// It panics if len(window) != WindowLen().
func (d *ToneDetector) Detect(window []int16) bool {
	return d.Energy(window) > d.config.Threshold
}

// Energy returns the magnitude-squared correlation of window against the
// reference waveforms. It panics if len(window) != WindowLen().
func (d *ToneDetector) Energy(window []int16) uint32 {
	if len(window) != d.windowLen {
		panic(fmt.Sprintf("dsp: window length %d, want %d", len(window), d.windowLen))
	}

	// |sample * ref| < 2^30, so an int64 sum has ample headroom for any window
	// that fits in memory.
	var accSin, accCos int64
	for i, s := range window {
		accSin += int64(s) * int64(d.sine[i])
		accCos += int64(s) * int64(d.cosine[i])
	}

	re := saturate32(accSin >> d.config.Shift)
	im := saturate32(accCos >> d.config.Shift)

	return magSquared(re, im)
}

// magSquared computes re² + im² with Q31 scaling. Each term is below 2^29,
// so the sum always fits in uint32.
func magSquared(re, im int32) uint32 {
	r := (int64(re) * int64(re)) >> magSquaredShift
	i := (int64(im) * int64(im)) >> magSquaredShift
	return uint32(r + i)
}

func saturate32(v int64) int32 {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int32(v)
}

// WindowLen returns the number of samples per analysis window
func (d *ToneDetector) WindowLen() int {
	return d.windowLen
}

// Config returns the current configuration (for testing and inspection)
func (d *ToneDetector) Config() DetectorConfig {
	return d.config
}
