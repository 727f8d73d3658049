// internal/audio/synth.go
package audio

import (
	"math"
	"time"

	"github.com/ColonelBlimp/gtsdetect/internal/gts"
)

// Sequence describes a synthetic GTS signal: Lead silence, five short tones
// each followed by Gap, one long tone, then Tail silence.
type Sequence struct {
	SampleRate    int
	ToneFrequency int
	// Amplitude is the tone peak as a fraction of full scale
	Amplitude float64

	Lead      time.Duration
	ShortTone time.Duration
	Gap       time.Duration
	LongTone  time.Duration
	Tail      time.Duration
}

// DefaultSequence returns the nominal sequence at half scale
func DefaultSequence() Sequence {
	return Sequence{
		SampleRate:    16000,
		ToneFrequency: 1000,
		Amplitude:     0.5,
		ShortTone:     100 * time.Millisecond,
		Gap:           900 * time.Millisecond,
		LongTone:      500 * time.Millisecond,
		Tail:          500 * time.Millisecond,
	}
}

// Samples renders the sequence
func (s Sequence) Samples() []int16 {
	out := AppendSilence(nil, s.count(s.Lead))
	for i := 0; i < gts.Repetitions; i++ {
		out = AppendTone(out, s.ToneFrequency, s.SampleRate, s.count(s.ShortTone), s.Amplitude)
		out = AppendSilence(out, s.count(s.Gap))
	}
	out = AppendTone(out, s.ToneFrequency, s.SampleRate, s.count(s.LongTone), s.Amplitude)
	return AppendSilence(out, s.count(s.Tail))
}

func (s Sequence) count(d time.Duration) int {
	return int(d * time.Duration(s.SampleRate) / time.Second)
}

// AppendTone appends n samples of a sine at freq Hz starting at zero phase.
// amplitude is clamped to [0, 1] of full scale.
func AppendTone(dst []int16, freq, sampleRate, n int, amplitude float64) []int16 {
	amplitude = math.Max(0, math.Min(1, amplitude))
	peak := amplitude * math.MaxInt16
	step := 2 * math.Pi * float64(freq) / float64(sampleRate)
	for i := 0; i < n; i++ {
		dst = append(dst, int16(math.Round(peak*math.Sin(step*float64(i)))))
	}
	return dst
}

// AppendSilence appends n zero samples
func AppendSilence(dst []int16, n int) []int16 {
	return append(dst, make([]int16, n)...)
}
