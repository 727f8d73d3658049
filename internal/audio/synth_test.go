package audio

import (
	"math"
	"testing"
	"time"
)

func TestDefaultSequence_Length(t *testing.T) {
	samples := DefaultSequence().Samples()

	// 5 x (100 + 900) + 500 + 500 ms at 16 kHz
	if want := 96000; len(samples) != want {
		t.Errorf("len(Samples()) = %d, want %d", len(samples), want)
	}
}

func TestSequence_Layout(t *testing.T) {
	seq := DefaultSequence()
	seq.Lead = 10 * time.Millisecond
	samples := seq.Samples()

	lead := 160
	short := 1600
	gap := 14400

	for i := 0; i < lead; i++ {
		if samples[i] != 0 {
			t.Fatalf("lead sample %d = %d, want 0", i, samples[i])
		}
	}

	// A quarter cycle into the first tone is the positive peak
	if got := samples[lead+4]; got != int16(math.Round(0.5*math.MaxInt16)) {
		t.Errorf("first tone peak = %d, want %d", got, int16(math.Round(0.5*math.MaxInt16)))
	}

	gapStart := lead + short
	for i := gapStart; i < gapStart+gap; i++ {
		if samples[i] != 0 {
			t.Fatalf("gap sample %d = %d, want 0", i, samples[i])
		}
	}
	if samples[gapStart+gap+4] == 0 {
		t.Error("second short tone missing after the first gap")
	}
}

func TestAppendTone_ClampsAmplitude(t *testing.T) {
	tests := []struct {
		name      string
		amplitude float64
		peak      int16
	}{
		{"full scale", 1, math.MaxInt16},
		{"over range", 3, math.MaxInt16},
		{"negative", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AppendTone(nil, 1000, 16000, 16, tt.amplitude)
			if got[4] != tt.peak {
				t.Errorf("peak = %d, want %d", got[4], tt.peak)
			}
		})
	}
}

func TestAppendSilence(t *testing.T) {
	got := AppendSilence([]int16{7}, 3)
	if len(got) != 4 || got[0] != 7 || got[3] != 0 {
		t.Errorf("AppendSilence() = %v, want [7 0 0 0]", got)
	}
}
