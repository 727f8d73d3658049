// internal/audio/wav.go
package audio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
	wavHeaderSize       = 44
	// Largest fmt chunk we parse (WAVE_FORMAT_EXTENSIBLE); any excess is skipped
	maxFmtChunkSize = 40
)

var (
	// ErrNotWAV indicates the stream does not start with a RIFF/WAVE header
	ErrNotWAV = errors.New("not a RIFF/WAVE stream")
	// ErrUnsupportedFormat indicates the WAV data is not 16-bit PCM
	ErrUnsupportedFormat = errors.New("only 16-bit PCM WAV is supported")
	// ErrNoDataChunk indicates the stream ended before a data chunk
	ErrNoDataChunk = errors.New("WAV data chunk not found")
)

// Source supplies a continuous stream of mono Q15 samples.
type Source interface {
	// Read fills block with up to len(block) samples and returns the count.
	// It returns io.EOF once the stream is exhausted.
	Read(block []int16) (int, error)
}

// Format describes a PCM stream
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// WAVReader streams 16-bit PCM samples from a WAV file, down-mixing to mono
// by keeping the first channel.
type WAVReader struct {
	r      *bufio.Reader
	closer io.Closer
	format Format

	remaining int64 // bytes left in the data chunk
	frame     []byte
}

// OpenWAV opens path and parses its header.
func OpenWAV(path string) (*WAVReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	w, err := NewWAVReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	w.closer = f
	return w, nil
}

// NewWAVReader parses the RIFF header from r and positions the reader at
// the first sample. Chunks other than "fmt " and "data" are skipped.
func NewWAVReader(r io.Reader) (*WAVReader, error) {
	br := bufio.NewReader(r)

	var riff [12]byte
	if _, err := io.ReadFull(br, riff[:]); err != nil {
		return nil, ErrNotWAV
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	w := &WAVReader{r: br}
	haveFmt := false

	for {
		var hdr [8]byte
		if _, err := io.ReadFull(br, hdr[:]); err != nil {
			return nil, ErrNoDataChunk
		}
		id := string(hdr[0:4])
		size := int64(binary.LittleEndian.Uint32(hdr[4:8]))

		switch id {
		case "fmt ":
			if err := w.readFmt(size); err != nil {
				return nil, err
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("data chunk before fmt chunk: %w", ErrUnsupportedFormat)
			}
			w.remaining = size
			w.frame = make([]byte, 2*w.format.Channels)
			return w, nil
		default:
			// Chunks are word aligned
			if _, err := br.Discard(int(size + size&1)); err != nil {
				return nil, ErrNoDataChunk
			}
		}
	}
}

func (w *WAVReader) readFmt(size int64) error {
	if size < 16 {
		return fmt.Errorf("fmt chunk too short (%d bytes): %w", size, ErrUnsupportedFormat)
	}
	keep := min(size, maxFmtChunkSize)
	buf := make([]byte, keep)
	if _, err := io.ReadFull(w.r, buf); err != nil {
		return fmt.Errorf("read fmt chunk: %w", err)
	}
	// Chunks are word aligned
	if rest := size + size&1 - keep; rest > 0 {
		if _, err := w.r.Discard(int(rest)); err != nil {
			return fmt.Errorf("skip fmt chunk: %w", err)
		}
	}

	audioFormat := binary.LittleEndian.Uint16(buf[0:2])
	w.format = Format{
		Channels:      int(binary.LittleEndian.Uint16(buf[2:4])),
		SampleRate:    int(binary.LittleEndian.Uint32(buf[4:8])),
		BitsPerSample: int(binary.LittleEndian.Uint16(buf[14:16])),
	}

	if audioFormat != wavFormatPCM && audioFormat != wavFormatExtensible {
		return fmt.Errorf("audio format %d: %w", audioFormat, ErrUnsupportedFormat)
	}
	if w.format.BitsPerSample != 16 {
		return fmt.Errorf("%d bits per sample: %w", w.format.BitsPerSample, ErrUnsupportedFormat)
	}
	if w.format.Channels < 1 || w.format.SampleRate <= 0 {
		return fmt.Errorf("channels=%d sample_rate=%d: %w", w.format.Channels, w.format.SampleRate, ErrUnsupportedFormat)
	}
	return nil
}

// Read implements Source.
func (w *WAVReader) Read(block []int16) (int, error) {
	frameSize := int64(len(w.frame))
	n := 0
	for n < len(block) {
		if w.remaining < frameSize {
			break
		}
		if _, err := io.ReadFull(w.r, w.frame); err != nil {
			w.remaining = 0
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				// Truncated file: deliver what we have, then EOF
				break
			}
			return n, fmt.Errorf("read wav data: %w", err)
		}
		w.remaining -= frameSize
		block[n] = int16(binary.LittleEndian.Uint16(w.frame[0:2]))
		n++
	}
	if n == 0 && len(block) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Format returns the stream format from the header
func (w *WAVReader) Format() Format {
	return w.format
}

// Close releases the underlying file, if any
func (w *WAVReader) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}

// WriteWAV writes mono 16-bit PCM samples as a complete WAV stream.
func WriteWAV(w io.Writer, samples []int16, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	dataSize := uint32(len(samples) * 2)
	hdr := make([]byte, wavHeaderSize)
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], 36+dataSize)
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(hdr[22:24], 1)
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(sampleRate)*2)
	binary.LittleEndian.PutUint16(hdr[32:34], 2)
	binary.LittleEndian.PutUint16(hdr[34:36], 16)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], dataSize)

	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, samples); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	return nil
}
