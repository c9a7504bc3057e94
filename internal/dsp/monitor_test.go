// internal/dsp/monitor_test.go
package dsp

import (
	"errors"
	"sync"
	"testing"
)

// Test configuration constants matching config file defaults for the live monitor
const (
	monitorTestSampleRate  = 8000
	monitorTestFrameLen    = 400 // 50ms
	monitorTestCalibFrames = 10  // 0.5s
)

// createTestMonitorConfig creates a valid monitor config for testing
func createTestMonitorConfig() MonitorConfig {
	return MonitorConfig{
		SampleRate:         monitorTestSampleRate,
		FrameDuration:      0.05,
		CenterFrequency:    800,
		Bandwidth:          60,
		CalibrationSeconds: 0.5,
		Sensitivity:        3,
	}
}

// feedInChunks passes samples to the monitor in uneven pieces
func feedInChunks(t *testing.T, m *Monitor, samples []float32, chunk int) {
	t.Helper()
	for len(samples) > 0 {
		n := chunk
		if n > len(samples) {
			n = len(samples)
		}
		if err := m.Process(samples[:n]); err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		samples = samples[n:]
	}
}

func TestNewMonitor_ValidConfig(t *testing.T) {
	m, err := NewMonitor(createTestMonitorConfig())
	if err != nil {
		t.Fatalf("NewMonitor() error = %v", err)
	}
	if m.FrameLength() != monitorTestFrameLen {
		t.Errorf("FrameLength() = %d, want %d", m.FrameLength(), monitorTestFrameLen)
	}
	if m.CalibrationFrames() != monitorTestCalibFrames {
		t.Errorf("CalibrationFrames() = %d, want %d", m.CalibrationFrames(), monitorTestCalibFrames)
	}
	if m.Calibrated() {
		t.Error("new monitor should not be calibrated")
	}
	if m.Config().Sensitivity != 3 {
		t.Errorf("Config().Sensitivity = %v, want 3", m.Config().Sensitivity)
	}
}

func TestNewMonitor_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*MonitorConfig)
		want   error
	}{
		{"zero frame", func(c *MonitorConfig) { c.FrameDuration = 0 }, ErrInvalidConfiguration},
		{"zero rate", func(c *MonitorConfig) { c.SampleRate = 0 }, ErrInvalidConfiguration},
		{"empty calibration window", func(c *MonitorConfig) { c.CalibrationSeconds = 0 }, ErrEmptyCalibration},
		{"calibration shorter than a frame", func(c *MonitorConfig) { c.CalibrationSeconds = 0.01 }, ErrInvalidConfiguration},
		{"frequency above Nyquist", func(c *MonitorConfig) { c.CenterFrequency = 5000 }, ErrInvalidFrequency},
		{"zero bandwidth", func(c *MonitorConfig) { c.Bandwidth = 0 }, ErrInvalidBandwidth},
		{"zero sensitivity", func(c *MonitorConfig) { c.Sensitivity = 0 }, ErrInvalidSensitivity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createTestMonitorConfig()
			tt.modify(&cfg)
			_, err := NewMonitor(cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("NewMonitor() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMonitor_CalibratesOnceFromQuietWindow(t *testing.T) {
	m, err := NewMonitor(createTestMonitorConfig())
	if err != nil {
		t.Fatalf("NewMonitor() error = %v", err)
	}

	var calls int
	var window []float64
	m.SetCalibratedCallback(func(threshold float64, w []float64) {
		calls++
		window = append([]float64(nil), w...)
	})
	var events int
	m.SetCallback(func(ActivityEvent) { events++ })

	// One sample short of the calibration window
	feedInChunks(t, m, generateNoise(monitorTestCalibFrames*monitorTestFrameLen-1, 0.01), 123)
	if m.Calibrated() || calls != 0 {
		t.Fatalf("calibrated before the window was full")
	}

	feedInChunks(t, m, generateNoise(1, 0.01), 1)
	if !m.Calibrated() || calls != 1 {
		t.Fatalf("Calibrated() = %v, calls = %d, want true, 1", m.Calibrated(), calls)
	}
	if len(window) != monitorTestCalibFrames {
		t.Errorf("calibration window = %d frames, want %d", len(window), monitorTestCalibFrames)
	}
	if events != 0 {
		t.Errorf("calibration frames emitted %d activity events, want 0", events)
	}

	want, _ := MedianMAD(window, 3)
	if m.Threshold() != want {
		t.Errorf("Threshold() = %v, want %v", m.Threshold(), want)
	}

	// Threshold does not move afterwards
	feedInChunks(t, m, generateSineWave(800, monitorTestSampleRate, 5*monitorTestFrameLen, 1), 400)
	if m.Threshold() != want || calls != 1 {
		t.Errorf("threshold changed after calibration")
	}
}

func TestMonitor_ActivityEvents(t *testing.T) {
	m, err := NewMonitor(createTestMonitorConfig())
	if err != nil {
		t.Fatalf("NewMonitor() error = %v", err)
	}

	var mu sync.Mutex
	var got []ActivityEvent
	m.SetCallback(func(e ActivityEvent) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e)
	})

	feedInChunks(t, m, generateNoise(monitorTestCalibFrames*monitorTestFrameLen, 0.01), 512)

	var samples []float32
	samples = append(samples, generateSilence(2*monitorTestFrameLen)...)
	samples = append(samples, generateSineWave(800, monitorTestSampleRate, 3*monitorTestFrameLen, 0.8)...)
	samples = append(samples, generateSilence(2*monitorTestFrameLen)...)
	feedInChunks(t, m, samples, 333)

	wantActive := []bool{false, false, true, true, true, false, false}
	wantChanged := []bool{false, false, true, false, false, true, false}
	if len(got) != len(wantActive) {
		t.Fatalf("got %d events, want %d", len(got), len(wantActive))
	}
	for i, e := range got {
		if e.Frame != i {
			t.Errorf("event %d: Frame = %d", i, e.Frame)
		}
		if e.Active != wantActive[i] {
			t.Errorf("event %d: Active = %v, want %v (energy %v, threshold %v)", i, e.Active, wantActive[i], e.Energy, e.Threshold)
		}
		if e.Changed != wantChanged[i] {
			t.Errorf("event %d: Changed = %v, want %v", i, e.Changed, wantChanged[i])
		}
	}
	if got[2].PeakHz < 780 || got[2].PeakHz > 820 {
		t.Errorf("tone onset PeakHz = %v, want ~800", got[2].PeakHz)
	}
	if !got[2].OnTarget {
		t.Error("tone onset OnTarget = false, want true")
	}
	if m.Active() {
		t.Error("Active() = true after trailing silence")
	}
}

func TestMonitor_NilCallback(t *testing.T) {
	m, err := NewMonitor(createTestMonitorConfig())
	if err != nil {
		t.Fatalf("NewMonitor() error = %v", err)
	}
	m.SetCallback(func(ActivityEvent) { t.Error("cleared callback was invoked") })
	m.SetCallback(nil)
	m.SetCalibratedCallback(nil)

	feedInChunks(t, m, generateNoise((monitorTestCalibFrames+3)*monitorTestFrameLen, 0.01), 1000)
}

func TestMonitor_Reset(t *testing.T) {
	m, err := NewMonitor(createTestMonitorConfig())
	if err != nil {
		t.Fatalf("NewMonitor() error = %v", err)
	}
	feedInChunks(t, m, generateNoise((monitorTestCalibFrames+1)*monitorTestFrameLen+17, 0.01), 1000)
	if !m.Calibrated() {
		t.Fatal("expected calibration to complete")
	}

	m.Reset()
	if m.Calibrated() || m.Threshold() != 0 || m.Active() {
		t.Error("Reset() did not clear calibration and activity state")
	}
	if len(m.frameBuffer) != 0 {
		t.Errorf("Reset() left %d pending samples", len(m.frameBuffer))
	}
}
