// internal/cli/detect/pipeline.go
// Package detect wires an audio source through the tone detector and the
// sequence decoder.
package detect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ColonelBlimp/gtsdetect/internal/audio"
	"github.com/ColonelBlimp/gtsdetect/internal/config"
	"github.com/ColonelBlimp/gtsdetect/internal/dsp"
	"github.com/ColonelBlimp/gtsdetect/internal/gts"
	"github.com/ColonelBlimp/gtsdetect/internal/metrics"
)

// Detection is a recognized GTS sequence
type Detection struct {
	// Window is the index of the window that completed the sequence
	Window uint64
	// Offset is the stream time at the end of that window
	Offset time.Duration
}

// Sink receives detections on the processing goroutine. Must not block.
type Sink func(Detection)

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// WithMetrics records window and sequence counters
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithSink adds a detection sink. Sinks run in the order they were added.
func WithSink(s Sink) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.sinks = append(p.sinks, s)
		}
	}
}

// Pipeline slices blocks into windows, classifies each window and feeds the
// decoder. It is driven by a single goroutine.
type Pipeline struct {
	settings config.Settings
	detector *dsp.ToneDetector
	decoder  *gts.Decoder
	framer   *dsp.Framer

	log     *zap.Logger
	metrics *metrics.Metrics
	sinks   []Sink

	detections uint64
}

// New builds a pipeline from validated settings
func New(s *config.Settings, opts ...Option) (*Pipeline, error) {
	if s == nil {
		return nil, errors.New("nil settings")
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	detector, err := dsp.NewToneDetector(dsp.DetectorConfig{
		SampleRate:      s.SampleRate,
		ToneFrequency:   s.ToneFrequency,
		CyclesPerWindow: s.CyclesPerWindow,
		Shift:           s.EnergyShift,
		Threshold:       s.EnergyThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("create tone detector: %w", err)
	}

	timing, err := gts.NewTiming(gts.TimingConfig{
		ToneFrequency:   s.ToneFrequency,
		CyclesPerWindow: s.CyclesPerWindow,
		ShortToneMs:     s.ShortToneMs,
		LongToneMs:      s.LongToneMs,
		GapMs:           s.GapMs,
		SlackWindows:    s.SlackWindows,
	})
	if err != nil {
		return nil, fmt.Errorf("derive timing: %w", err)
	}

	p := &Pipeline{
		settings: *s,
		detector: detector,
		decoder:  gts.NewDecoder(timing),
		framer:   dsp.NewFramer(detector.WindowLen()),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.decoder.SetCallback(p.emit)

	p.log.Debug("pipeline ready",
		zap.Int("window_len", detector.WindowLen()),
		zap.Duration("window", s.WindowDuration()),
		zap.Stringer("short", timing.Short),
		zap.Stringer("long", timing.Long),
		zap.Stringer("gap", timing.Gap),
		zap.Stringer("seq", timing.Seq),
		zap.Stringer("seq_long", timing.SeqLong),
		zap.Bool("rearm", s.Rearm))

	return p, nil
}

// Process runs every complete window in block. A partial trailing window
// is kept for the next call.
func (p *Pipeline) Process(block []int16) {
	p.framer.Push(block, p.processWindow)
}

func (p *Pipeline) processWindow(window []int16) {
	tone := p.detector.Detect(window)
	prev := p.decoder.State()
	// Detections are delivered through the decoder callback
	_, detected := p.decoder.Step(tone)
	next := p.decoder.State()

	if p.metrics != nil {
		p.metrics.WindowsProcessed.Inc()
		if tone {
			p.metrics.ToneWindows.Inc()
		}
		// A rearm after a detection is not an abandoned attempt
		if isCounting(prev) && next == gts.WaitTone && !detected {
			p.metrics.DecoderResets.Inc()
		}
	}

	if prev != next {
		if ce := p.log.Check(zap.DebugLevel, "decoder state"); ce != nil {
			ce.Write(
				zap.Uint64("window", p.decoder.Windows()-1),
				zap.Stringer("from", prev),
				zap.Stringer("to", next),
				zap.Int("repetitions", p.decoder.Repetitions()))
		}
	}
}

func isCounting(s gts.State) bool {
	return s == gts.CountShortTone || s == gts.CountGap || s == gts.CountLongTone
}

func (p *Pipeline) emit(ev gts.Event) {
	p.detections++
	d := Detection{
		Window: ev.Window,
		Offset: p.windowEnd(ev.Window),
	}

	if p.metrics != nil {
		p.metrics.SequencesDetected.Inc()
	}
	p.log.Info("gts sequence detected",
		zap.Uint64("window", d.Window),
		zap.Duration("offset", d.Offset))

	for _, sink := range p.sinks {
		sink(d)
	}

	if p.settings.Rearm {
		p.decoder.Reset()
	}
}

// windowEnd converts a window index to the stream time at its end
func (p *Pipeline) windowEnd(window uint64) time.Duration {
	samples := (window + 1) * uint64(p.detector.WindowLen())
	return time.Duration(samples) * time.Second / time.Duration(p.settings.SampleRate)
}

// Run reads BlockSize blocks from src until it is exhausted or ctx is done.
// End of stream is not an error.
func (p *Pipeline) Run(ctx context.Context, src audio.Source) error {
	block := make([]int16, p.settings.BlockSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := src.Read(block)
		if n > 0 {
			p.Process(block[:n])
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read audio: %w", err)
		}
	}
}

// Consume processes blocks from a channel, such as audio.Capture.Samples,
// until the channel is closed or ctx is done.
func (p *Pipeline) Consume(ctx context.Context, blocks <-chan []int16) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case block, ok := <-blocks:
			if !ok {
				return nil
			}
			p.Process(block)
		}
	}
}

// Reset re-arms the decoder and drops any buffered partial window
func (p *Pipeline) Reset() {
	p.decoder.Reset()
	p.framer.Reset()
}

// State returns the decoder state
func (p *Pipeline) State() gts.State {
	return p.decoder.State()
}

// Windows returns the number of windows processed
func (p *Pipeline) Windows() uint64 {
	return p.decoder.Windows()
}

// Detections returns the number of sequences recognized
func (p *Pipeline) Detections() uint64 {
	return p.detections
}

// WindowLen returns the analysis window length in samples
func (p *Pipeline) WindowLen() int {
	return p.detector.WindowLen()
}

// ListAudioDevices returns the capture devices in index order
func ListAudioDevices() ([]string, error) {
	capture := audio.New(audio.DefaultConfig())
	if err := capture.Init(); err != nil {
		return nil, err
	}
	defer capture.Close()

	infos, err := capture.ListDevices()
	if err != nil {
		return nil, err
	}

	names := make([]string, len(infos))
	for i := range infos {
		name := infos[i].Name()
		if infos[i].IsDefault != 0 {
			name += " (default)"
		}
		names[i] = name
	}
	return names, nil
}
