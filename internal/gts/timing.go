// internal/gts/timing.go
package gts

import (
	"errors"
	"fmt"
)

// Reference GTS protocol durations in milliseconds
const (
	// DefaultShortToneMs is the nominal length of each short tone
	DefaultShortToneMs = 100
	// DefaultLongToneMs is the nominal length of the terminating long tone
	DefaultLongToneMs = 500
	// DefaultGapMs is the nominal silence following each short tone
	DefaultGapMs = 900
	// DefaultSlackWindows is the ± tolerance applied to every band
	DefaultSlackWindows = 2
)

var (
	// ErrInvalidWindowRate indicates tone frequency and cycles per window must be positive
	ErrInvalidWindowRate = errors.New("tone frequency and cycles per window must be positive")
	// ErrInvalidDuration indicates a nominal duration must be positive
	ErrInvalidDuration = errors.New("nominal durations must be positive")
	// ErrInvalidSlack indicates slack must be non-negative
	ErrInvalidSlack = errors.New("slack windows must be non-negative")
	// ErrEmptyBand indicates a nominal duration is too short to survive the slack
	ErrEmptyBand = errors.New("tolerance band has no positive window counts")
)

// Band is an inclusive [Min, Max] window-count range.
type Band struct {
	Min int
	Max int
}

// Contains reports whether n falls inside the band
func (b Band) Contains(n int) bool {
	return n >= b.Min && n <= b.Max
}

func (b Band) String() string {
	return fmt.Sprintf("[%d,%d]", b.Min, b.Max)
}

// TimingConfig holds the protocol durations and window geometry.
// All values should come from the application config file.
type TimingConfig struct {
	// ToneFrequency in Hz; together with CyclesPerWindow it fixes the window duration
	ToneFrequency int
	// CyclesPerWindow is the window length in tone cycles (from config: cycles_per_window)
	CyclesPerWindow int
	// ShortToneMs is the nominal short tone duration (from config: short_tone_ms)
	ShortToneMs int
	// LongToneMs is the nominal long tone duration (from config: long_tone_ms)
	LongToneMs int
	// GapMs is the nominal silence after each short tone (from config: gap_ms)
	GapMs int
	// SlackWindows widens every band by this many windows each side (from config: slack_windows)
	SlackWindows int
}

// DefaultTimingConfig returns the reference protocol at 1 kHz with 4-cycle windows
func DefaultTimingConfig() TimingConfig {
	return TimingConfig{
		ToneFrequency:   1000,
		CyclesPerWindow: 4,
		ShortToneMs:     DefaultShortToneMs,
		LongToneMs:      DefaultLongToneMs,
		GapMs:           DefaultGapMs,
		SlackWindows:    DefaultSlackWindows,
	}
}

// Timing is the set of tolerance bands, in windows, used by the decoder.
type Timing struct {
	// Short bounds the length of a short tone run
	Short Band
	// Long bounds the length of the long tone run
	Long Band
	// Gap bounds the silence following a short tone
	Gap Band
	// Seq bounds the windows from the end of one short tone to the end of the next
	Seq Band
	// SeqLong bounds the windows from the end of the last short tone to the end of the long tone
	SeqLong Band
}

// NewTiming derives tolerance bands from cfg. For the reference protocol the
// bands are Short [23,27], Long [123,127], Gap [223,227], Seq [248,252] and
// SeqLong [348,352].
func NewTiming(cfg TimingConfig) (Timing, error) {
	if cfg.ToneFrequency <= 0 || cfg.CyclesPerWindow <= 0 {
		return Timing{}, ErrInvalidWindowRate
	}
	if cfg.ShortToneMs <= 0 || cfg.LongToneMs <= 0 || cfg.GapMs <= 0 {
		return Timing{}, ErrInvalidDuration
	}
	if cfg.SlackWindows < 0 {
		return Timing{}, ErrInvalidSlack
	}

	t := Timing{
		Short:   cfg.band(cfg.ShortToneMs),
		Long:    cfg.band(cfg.LongToneMs),
		Gap:     cfg.band(cfg.GapMs),
		Seq:     cfg.band(cfg.GapMs + cfg.ShortToneMs),
		SeqLong: cfg.band(cfg.GapMs + cfg.LongToneMs),
	}
	if t.Short.Min < 1 {
		return Timing{}, fmt.Errorf("short tone %v: %w", t.Short, ErrEmptyBand)
	}
	if t.Long.Min < 1 {
		return Timing{}, fmt.Errorf("long tone %v: %w", t.Long, ErrEmptyBand)
	}
	if t.Gap.Min < 1 {
		return Timing{}, fmt.Errorf("gap %v: %w", t.Gap, ErrEmptyBand)
	}
	return t, nil
}

// windows converts a duration to a whole number of windows, truncating.
func (c TimingConfig) windows(ms int) int {
	return ms * c.ToneFrequency / (1000 * c.CyclesPerWindow)
}

func (c TimingConfig) band(ms int) Band {
	n := c.windows(ms)
	return Band{Min: n - c.SlackWindows, Max: n + c.SlackWindows}
}
