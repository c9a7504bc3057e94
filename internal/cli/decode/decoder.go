// Package decode builds the decoding components from application settings.
package decode

import (
	"log/slog"
	"math"

	"github.com/ColonelBlimp/cwfft/internal/audio"
	"github.com/ColonelBlimp/cwfft/internal/config"
	"github.com/ColonelBlimp/cwfft/internal/cw"
	"github.com/ColonelBlimp/cwfft/internal/dsp"
	"github.com/ColonelBlimp/cwfft/internal/pipeline"
)

// NewDecoder returns the offline pipeline configured by s.
func NewDecoder(s config.Settings) (*pipeline.Pipeline, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return pipeline.New(pipeline.Config{
		CenterFrequency: s.CenterFrequency,
		Bandwidth:       s.Bandwidth,
		FrameDuration:   s.FrameDuration,
		Decode:          cw.NewSymbolDecoder(s.UnknownSymbol),
		Logger:          slog.Default(),
	}), nil
}

// NewMonitor returns the streaming monitor configured by s.
func NewMonitor(s config.Settings) (*dsp.Monitor, error) {
	return dsp.NewMonitor(MonitorConfig(s))
}

// MonitorConfig maps settings to the streaming monitor configuration.
func MonitorConfig(s config.Settings) dsp.MonitorConfig {
	return dsp.MonitorConfig{
		SampleRate:         s.SampleRate,
		FrameDuration:      s.MonitorFrameDuration,
		CenterFrequency:    s.CenterFrequency,
		Bandwidth:          s.MonitorBandwidth,
		CalibrationSeconds: s.CalibrationSeconds,
		Sensitivity:        s.Sensitivity,
	}
}

// CaptureConfig maps settings to the capture device configuration.
func CaptureConfig(s config.Settings) audio.Config {
	return audio.Config{
		DeviceIndex: s.DeviceIndex,
		SampleRate:  s.SampleRate,
		Channels:    1,
		BufferSize:  s.BufferSize,
	}
}

// HistoryFrames is the number of monitor frames covered by history_seconds.
func HistoryFrames(s config.Settings) int {
	if s.MonitorFrameDuration <= 0 {
		return 1
	}
	// tolerate float error in the quotient (30/0.05 is not exactly 600)
	return max(1, int(math.Ceil(s.HistorySeconds/s.MonitorFrameDuration-1e-9)))
}

// ListAudioDevices returns the available capture devices.
func ListAudioDevices() ([]audio.Device, error) {
	return audio.ListDevices()
}
