// internal/gts/decoder.go
// Package gts recognizes the GTS trigger: five short tones, each followed by
// a silence gap, then one long tone.
package gts

// Repetitions is the number of short tone + gap pairs preceding the long tone.
const Repetitions = 5

// State is a position in the GTS sequence.
type State int

const (
	// WaitTone waits for the first tone window
	WaitTone State = iota
	// CountShortTone counts windows of a short tone
	CountShortTone
	// CountGap counts silent windows after a short tone
	CountGap
	// CountLongTone counts windows of the final long tone
	CountLongTone
	// Detected is entered once the long tone validates; it immediately
	// yields to DetectedIdle on the same step
	Detected
	// DetectedIdle ignores input until Reset
	DetectedIdle
)

var stateNames = [...]string{
	WaitTone:       "wait_tone",
	CountShortTone: "count_short_tone",
	CountGap:       "count_gap",
	CountLongTone:  "count_long_tone",
	Detected:       "detected",
	DetectedIdle:   "detected_idle",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Event is emitted once per recognized sequence.
type Event struct {
	// Window is the zero-based index of the window that completed the sequence,
	// counted since the decoder was created
	Window uint64
}

// DetectedCallback is called when a sequence is recognized.
// Must be non-blocking and fast - called from the audio processing path.
type DetectedCallback func(event Event)

// Decoder is the GTS sequence state machine. It consumes one symbol per
// window, strictly in stream order. A Decoder is not safe for concurrent use;
// it is owned by the goroutine that delivers windows.
type Decoder struct {
	timing Timing
	state  State

	run         int // windows in the current tone or gap run
	elapsed     int // windows since the end of the previous short tone
	repetitions int // completed short tone + gap pairs

	windows  uint64 // total Step calls
	callback DetectedCallback
}

// NewDecoder creates a decoder in WaitTone using the given tolerance bands.
func NewDecoder(t Timing) *Decoder {
	return &Decoder{timing: t, state: WaitTone}
}

// SetCallback sets the callback for detection events.
func (d *Decoder) SetCallback(cb DetectedCallback) {
	d.callback = cb
}

// Step advances the state machine by one window. tone reports whether the
// window contained the target tone. ok is true on the single step that
// completes a sequence.
func (d *Decoder) Step(tone bool) (ev Event, ok bool) {
	index := d.windows
	d.windows++
	d.elapsed++

	switch d.state {
	case WaitTone:
		d.stepWaitTone(tone)
	case CountShortTone:
		d.stepShortTone(tone)
	case CountGap:
		d.stepGap(tone)
	case CountLongTone:
		d.stepLongTone(tone)
	case DetectedIdle:
		return Event{}, false
	}

	if d.state != Detected {
		return Event{}, false
	}

	d.state = DetectedIdle
	d.repetitions = 0
	ev = Event{Window: index}
	if d.callback != nil {
		d.callback(ev)
	}
	return ev, true
}

func (d *Decoder) stepWaitTone(tone bool) {
	d.elapsed = 0
	if tone {
		d.run = 1
		d.state = CountShortTone
	}
}

func (d *Decoder) stepShortTone(tone bool) {
	if tone {
		d.run++
		return
	}
	if !d.timing.Short.Contains(d.run) {
		d.reset()
		return
	}
	// The first short tone has no predecessor to measure spacing from
	if d.repetitions > 0 && !d.timing.Seq.Contains(d.elapsed) {
		d.reset()
		return
	}
	d.run = 1
	d.elapsed = 1
	d.state = CountGap
}

func (d *Decoder) stepGap(tone bool) {
	d.run++
	if d.run < d.timing.Gap.Min {
		return
	}
	if tone {
		d.repetitions++
		if d.repetitions == Repetitions {
			d.repetitions = 0
			d.state = CountLongTone
		} else {
			d.state = CountShortTone
		}
		d.run = 1
		return
	}
	if d.run > d.timing.Gap.Max {
		d.reset()
	}
}

func (d *Decoder) stepLongTone(tone bool) {
	if tone {
		d.run++
		return
	}
	if d.timing.Long.Contains(d.run) && d.timing.SeqLong.Contains(d.elapsed) {
		d.run = 0
		d.state = Detected
		return
	}
	d.reset()
}

// reset abandons the current attempt. Counters are cleared together.
func (d *Decoder) reset() {
	d.state = WaitTone
	d.run = 0
	d.elapsed = 0
	d.repetitions = 0
}

// Reset re-arms the decoder, typically after DetectedIdle. The window
// index keeps counting so event positions stay relative to the stream.
func (d *Decoder) Reset() {
	d.reset()
}

// State returns the current state
func (d *Decoder) State() State {
	return d.state
}

// Repetitions returns the number of completed short tone + gap pairs
func (d *Decoder) Repetitions() int {
	return d.repetitions
}

// Windows returns the number of windows processed
func (d *Decoder) Windows() uint64 {
	return d.windows
}

// Timing returns the tolerance bands in use
func (d *Decoder) Timing() Timing {
	return d.timing
}
