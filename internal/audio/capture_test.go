package audio

import (
	"context"
	"math"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DeviceIndex != -1 {
		t.Errorf("DefaultConfig().DeviceIndex = %d, want -1", cfg.DeviceIndex)
	}
	if cfg.SampleRate != 16000 {
		t.Errorf("DefaultConfig().SampleRate = %d, want 16000", cfg.SampleRate)
	}
	if cfg.BufferSize != 512 {
		t.Errorf("DefaultConfig().BufferSize = %d, want 512", cfg.BufferSize)
	}
}

func TestNew(t *testing.T) {
	cfg := Config{
		DeviceIndex: 2,
		SampleRate:  8000,
		BufferSize:  1024,
	}

	capture := New(cfg)

	if capture == nil {
		t.Fatal("New() returned nil")
	}
	if capture.config != cfg {
		t.Errorf("capture.config = %+v, want %+v", capture.config, cfg)
	}
	if cap(capture.Samples) != 64 {
		t.Errorf("capture.Samples capacity = %d, want 64", cap(capture.Samples))
	}
}

func TestCapture_IsRunning_InitialState(t *testing.T) {
	capture := New(DefaultConfig())

	if capture.IsRunning() {
		t.Error("IsRunning() = true for new capture, want false")
	}
}

func TestCapture_ListDevices_NotInitialized(t *testing.T) {
	capture := New(DefaultConfig())

	_, err := capture.ListDevices()
	if err != ErrNotInitialized {
		t.Errorf("ListDevices() error = %v, want ErrNotInitialized", err)
	}
}

func TestCapture_Start_NotInitialized(t *testing.T) {
	capture := New(DefaultConfig())

	err := capture.Start(context.Background())
	if err != ErrNotInitialized {
		t.Errorf("Start() error = %v, want ErrNotInitialized", err)
	}
}

func TestCapture_Start_AlreadyRunning(t *testing.T) {
	capture := New(DefaultConfig())
	capture.running.Store(true)

	err := capture.Start(context.Background())
	if err != ErrAlreadyRunning {
		t.Errorf("Start() when running error = %v, want ErrAlreadyRunning", err)
	}
}

func TestCapture_Stop_NotRunning(t *testing.T) {
	capture := New(DefaultConfig())

	err := capture.Stop()
	if err != ErrNotRunning {
		t.Errorf("Stop() error = %v, want ErrNotRunning", err)
	}
}

func TestBytesToInt16(t *testing.T) {
	tests := []struct {
		name     string
		bytes    []byte
		expected []int16
	}{
		{"empty", []byte{}, []int16{}},
		{"zero", []byte{0x00, 0x00}, []int16{0}},
		{"one", []byte{0x01, 0x00}, []int16{1}},
		{"max", []byte{0xFF, 0x7F}, []int16{math.MaxInt16}},
		{"min", []byte{0x00, 0x80}, []int16{math.MinInt16}},
		{"minus one", []byte{0xFF, 0xFF}, []int16{-1}},
		{"trailing byte ignored", []byte{0x39, 0x30, 0xAA}, []int16{12345}},
		{"multiple", []byte{0x00, 0x00, 0xFF, 0x7F, 0x01, 0x80}, []int16{0, 32767, -32767}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bytesToInt16(tt.bytes)
			if len(got) != len(tt.expected) {
				t.Fatalf("length = %d, want %d", len(got), len(tt.expected))
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("[%d] = %d, want %d", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestErrors(t *testing.T) {
	if ErrNotInitialized.Error() != "audio capture not initialized" {
		t.Errorf("ErrNotInitialized message wrong")
	}
	if ErrAlreadyRunning.Error() != "audio capture already running" {
		t.Errorf("ErrAlreadyRunning message wrong")
	}
	if ErrNotRunning.Error() != "audio capture not running" {
		t.Errorf("ErrNotRunning message wrong")
	}
}

func TestCapture_SafeSend_NormalOperation(t *testing.T) {
	capture := New(DefaultConfig())

	capture.safeSend([]int16{1, 2, 3})

	select {
	case got := <-capture.Samples:
		if len(got) != 3 || got[2] != 3 {
			t.Errorf("received %v, want [1 2 3]", got)
		}
	default:
		t.Error("safeSend() did not deliver samples")
	}
}

func TestCapture_SafeSend_ChannelFull(t *testing.T) {
	capture := New(DefaultConfig())

	for i := 0; i < cap(capture.Samples)+5; i++ {
		capture.safeSend([]int16{int16(i)})
	}

	if got := capture.Dropped.Load(); got != 5 {
		t.Errorf("Dropped = %d, want 5", got)
	}
	if len(capture.Samples) != cap(capture.Samples) {
		t.Errorf("channel length = %d, want %d", len(capture.Samples), cap(capture.Samples))
	}
}

func TestCapture_CloseOnce_MultipleCloses(t *testing.T) {
	capture := New(DefaultConfig())

	for i := 0; i < 3; i++ {
		if err := capture.Close(); err != nil {
			t.Errorf("Close() #%d error = %v", i+1, err)
		}
	}
	if !capture.closed.Load() {
		t.Error("closed flag not set after Close()")
	}
	if _, ok := <-capture.Samples; ok {
		t.Error("Samples channel not closed")
	}
}

func TestCapture_SafeSend_AfterClose(t *testing.T) {
	capture := New(DefaultConfig())
	_ = capture.Close()

	// Must not panic on the closed channel
	capture.safeSend([]int16{1})
}

func BenchmarkBytesToInt16(b *testing.B) {
	data := make([]byte, 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bytesToInt16(data)
	}
}
