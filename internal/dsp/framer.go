// internal/dsp/framer.go
package dsp

// WindowFunc receives one complete analysis window. The slice is only valid
// for the duration of the call.
type WindowFunc func(window []int16)

// Framer slices an arbitrary-sized block stream into consecutive,
// non-overlapping windows, carrying any partial window over to the next block.
type Framer struct {
	windowLen int
	buf       []int16
}

// NewFramer creates a framer for windows of windowLen samples.
// windowLen must be positive.
func NewFramer(windowLen int) *Framer {
	if windowLen <= 0 {
		panic("dsp: framer window length must be positive")
	}
	return &Framer{
		windowLen: windowLen,
		buf:       make([]int16, 0, windowLen),
	}
}

// Push appends block and calls fn once per complete window, in stream order.
func (f *Framer) Push(block []int16, fn WindowFunc) {
	// Top up a partial window left from the previous block
	if len(f.buf) > 0 {
		need := f.windowLen - len(f.buf)
		if len(block) < need {
			f.buf = append(f.buf, block...)
			return
		}
		f.buf = append(f.buf, block[:need]...)
		block = block[need:]
		fn(f.buf)
		f.buf = f.buf[:0]
	}

	// Whole windows straight from the block, no copy
	for len(block) >= f.windowLen {
		fn(block[:f.windowLen])
		block = block[f.windowLen:]
	}

	f.buf = append(f.buf, block...)
}

// Buffered returns the number of samples waiting for a complete window
func (f *Framer) Buffered() int {
	return len(f.buf)
}

// WindowLen returns the configured window length
func (f *Framer) WindowLen() int {
	return f.windowLen
}

// Reset discards any partial window
func (f *Framer) Reset() {
	f.buf = f.buf[:0]
}
