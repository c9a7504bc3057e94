package audio

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DeviceIndex != -1 {
		t.Errorf("DefaultConfig().DeviceIndex = %d, want -1", cfg.DeviceIndex)
	}
	if cfg.SampleRate != 44100 {
		t.Errorf("DefaultConfig().SampleRate = %d, want 44100", cfg.SampleRate)
	}
	if cfg.Channels != 1 {
		t.Errorf("DefaultConfig().Channels = %d, want 1", cfg.Channels)
	}
	if cfg.BufferSize != 1024 {
		t.Errorf("DefaultConfig().BufferSize = %d, want 1024", cfg.BufferSize)
	}
}

func TestNew(t *testing.T) {
	capture := New(Config{DeviceIndex: 2, SampleRate: 48000, Channels: 2, BufferSize: 512})

	if capture == nil {
		t.Fatal("New() returned nil")
	}
	if got := capture.Config(); got.DeviceIndex != 2 || got.SampleRate != 48000 || got.Channels != 2 {
		t.Errorf("Config() = %+v", got)
	}
	if cap(capture.Samples) != 64 {
		t.Errorf("capture.Samples capacity = %d, want 64", cap(capture.Samples))
	}
}

func TestNew_ClampsChannels(t *testing.T) {
	capture := New(Config{SampleRate: 8000})
	if capture.Config().Channels != 1 {
		t.Errorf("Channels = %d, want 1", capture.Config().Channels)
	}
}

func TestCapture_InitialState(t *testing.T) {
	capture := New(DefaultConfig())

	if capture.IsRunning() {
		t.Error("IsRunning() = true for new capture, want false")
	}
	if capture.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", capture.Dropped())
	}
}

func TestCapture_SetCallback(t *testing.T) {
	capture := New(DefaultConfig())

	capture.SetCallback(func(samples []float32) {})
	if capture.callbackPtr.Load() == nil {
		t.Error("SetCallback() did not set callback")
	}

	capture.SetCallback(nil)
	if capture.callbackPtr.Load() != nil {
		t.Error("SetCallback(nil) should clear callback")
	}
}

func TestCapture_NotInitialized(t *testing.T) {
	capture := New(DefaultConfig())

	if _, err := capture.ListDevices(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ListDevices() error = %v, want %v", err, ErrNotInitialized)
	}
	if err := capture.Start(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Start() error = %v, want %v", err, ErrNotInitialized)
	}
}

func TestCapture_Start_AlreadyRunning(t *testing.T) {
	capture := New(DefaultConfig())
	capture.running.Store(true)

	if err := capture.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("Start() when running error = %v, want %v", err, ErrAlreadyRunning)
	}
}

func TestCapture_Stop_NotRunning(t *testing.T) {
	capture := New(DefaultConfig())

	if err := capture.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop() error = %v, want %v", err, ErrNotRunning)
	}
}

func TestCapture_SafeSend(t *testing.T) {
	capture := New(DefaultConfig())

	for i := 0; i < cap(capture.Samples)+3; i++ {
		capture.safeSend([]float32{float32(i)})
	}
	if len(capture.Samples) != cap(capture.Samples) {
		t.Errorf("queued = %d, want %d", len(capture.Samples), cap(capture.Samples))
	}
	if capture.Dropped() != 3 {
		t.Errorf("Dropped() = %d, want 3", capture.Dropped())
	}
}

func TestCapture_CloseWithoutInit(t *testing.T) {
	capture := New(DefaultConfig())

	if err := capture.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !capture.closed {
		t.Error("closed flag should be true after Close()")
	}
	if _, ok := <-capture.Samples; ok {
		t.Error("Samples should be closed")
	}

	// Second close is a no-op and sends after close are discarded.
	if err := capture.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	capture.safeSend([]float32{1})
}

func TestCapture_ConcurrentCloseAndSend(t *testing.T) {
	for iteration := 0; iteration < 50; iteration++ {
		capture := New(DefaultConfig())
		var wg sync.WaitGroup

		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					capture.safeSend([]float32{1})
				}
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = capture.Close()
		}()

		wg.Wait()
		if !capture.closed {
			t.Fatalf("iteration %d: closed flag should be true", iteration)
		}
	}
}

func TestCapture_ConcurrentSetCallbackAndRead(t *testing.T) {
	capture := New(DefaultConfig())

	var wg sync.WaitGroup
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				capture.SetCallback(func(samples []float32) {})
			}
		}()
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				if cb := capture.callbackPtr.Load(); cb != nil {
					(*cb)(nil)
				}
			}
		}()
	}

	wg.Wait()
}

func TestBytesAsFloat32(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
		want  []float32
	}{
		{"empty", []byte{}, []float32{}},
		{"partial sample", []byte{0x00, 0x00, 0x80}, []float32{}},
		{"one", []byte{0x00, 0x00, 0x80, 0x3F}, []float32{1}},
		{"trailing bytes", []byte{0x00, 0x00, 0x80, 0x3F, 0xFF}, []float32{1}},
		{
			"several",
			[]byte{
				0x00, 0x00, 0x00, 0x00, // 0.0
				0x00, 0x00, 0x00, 0x3F, // 0.5
				0x00, 0x00, 0x80, 0xBF, // -1.0
			},
			[]float32{0, 0.5, -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bytesAsFloat32(tt.bytes)
			if len(got) != len(tt.want) {
				t.Fatalf("length = %d, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("sample[%d] = %f, want %f", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBytesAsFloat32_SpecialValues(t *testing.T) {
	got := bytesAsFloat32([]byte{
		0x00, 0x00, 0xC0, 0x7F, // NaN
		0x00, 0x00, 0x80, 0x7F, // +Inf
		0x00, 0x00, 0x80, 0xFF, // -Inf
	})
	if !math.IsNaN(float64(got[0])) {
		t.Errorf("got[0] = %f, want NaN", got[0])
	}
	if !math.IsInf(float64(got[1]), 1) {
		t.Errorf("got[1] = %f, want +Inf", got[1])
	}
	if !math.IsInf(float64(got[2]), -1) {
		t.Errorf("got[2] = %f, want -Inf", got[2])
	}
}

func TestDownmix(t *testing.T) {
	mono := []float32{1, 2, 3}
	if got := downmix(mono, 1); &got[0] != &mono[0] {
		t.Error("downmix(mono) should return its input")
	}

	got := downmix([]float32{1, 3, -1, 1, 0.5, 0.5, 9}, 2)
	want := []float32{2, 0, 0.5}
	if len(got) != len(want) {
		t.Fatalf("length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func BenchmarkBytesAsFloat32(b *testing.B) {
	data := make([]byte, 1024*4)
	for i := range data {
		data[i] = byte(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bytesAsFloat32(data)
	}
}
