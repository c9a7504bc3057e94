package decode

import (
	"testing"

	"github.com/ColonelBlimp/cwfft/internal/config"
	"github.com/ColonelBlimp/cwfft/internal/synth"
)

func validSettings() config.Settings {
	return config.Settings{
		CenterFrequency:      800,
		Bandwidth:            180,
		FrameDuration:        0.02,
		MonitorBandwidth:     60,
		MonitorFrameDuration: 0.05,
		CalibrationSeconds:   2,
		Sensitivity:          3,
		HistorySeconds:       30,
		DeviceIndex:          -1,
		SampleRate:           44100,
		BufferSize:           1024,
		UnknownSymbol:        "#",
	}
}

func TestNewDecoder(t *testing.T) {
	p, err := NewDecoder(validSettings())
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}

	cfg := p.Config()
	if cfg.CenterFrequency != 800 || cfg.Bandwidth != 180 || cfg.FrameDuration != 0.02 {
		t.Errorf("pipeline config = %+v", cfg)
	}
	if got := cfg.Decode("......."); got != "#" {
		t.Errorf("unknown code decoded to %q, want the configured placeholder", got)
	}
	if got := cfg.Decode(".-"); got != "A" {
		t.Errorf("Decode(.-) = %q, want A", got)
	}
}

func TestNewDecoder_InvalidSettings(t *testing.T) {
	if _, err := NewDecoder(config.Settings{}); err == nil {
		t.Error("NewDecoder() with zero settings should fail")
	}
}

func TestNewDecoder_DecodesSyntheticAudio(t *testing.T) {
	k, err := synth.NewKeyer(44100, 800, 20, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	k.PadDits = 2
	samples, err := k.Render("73")
	if err != nil {
		t.Fatal(err)
	}

	p, err := NewDecoder(validSettings())
	if err != nil {
		t.Fatal(err)
	}
	got, err := p.Decode(samples, 44100)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got != "73" {
		t.Errorf("Decode() = %q, want 73", got)
	}
}

func TestNewMonitor(t *testing.T) {
	m, err := NewMonitor(validSettings())
	if err != nil {
		t.Fatalf("NewMonitor() error = %v", err)
	}
	// 0.05 s at 44.1 kHz
	if m.FrameLength() != 2205 {
		t.Errorf("FrameLength() = %d, want 2205", m.FrameLength())
	}
	// 2 s of 50 ms frames
	if m.CalibrationFrames() != 40 {
		t.Errorf("CalibrationFrames() = %d, want 40", m.CalibrationFrames())
	}
	if got := m.Config().Bandwidth; got != 60 {
		t.Errorf("monitor bandwidth = %v, want 60", got)
	}
}

func TestCaptureConfig(t *testing.T) {
	s := validSettings()
	s.DeviceIndex = 2
	cfg := CaptureConfig(s)
	if cfg.DeviceIndex != 2 || cfg.SampleRate != 44100 || cfg.BufferSize != 1024 || cfg.Channels != 1 {
		t.Errorf("CaptureConfig() = %+v", cfg)
	}
}

func TestHistoryFrames(t *testing.T) {
	s := validSettings()
	if got := HistoryFrames(s); got != 600 {
		t.Errorf("HistoryFrames() = %d, want 600", got)
	}

	s.HistorySeconds = 0.01
	if got := HistoryFrames(s); got != 1 {
		t.Errorf("HistoryFrames() = %d, want 1", got)
	}

	s.MonitorFrameDuration = 0
	if got := HistoryFrames(s); got != 1 {
		t.Errorf("HistoryFrames() with zero frame = %d, want 1", got)
	}
}
