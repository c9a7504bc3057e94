// internal/dsp/monitor.go
package dsp

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	// ErrInvalidSensitivity indicates the MAD multiplier must be positive
	ErrInvalidSensitivity = errors.New("sensitivity must be positive")
	// ErrInvalidBandwidth indicates the band width must be positive
	ErrInvalidBandwidth = errors.New("bandwidth must be positive")
	// ErrInvalidFrequency indicates the centre frequency must be positive and below Nyquist
	ErrInvalidFrequency = errors.New("center frequency must be positive and less than Nyquist frequency")
)

// ActivityEvent describes one analysed frame of the live stream.
type ActivityEvent struct {
	// Frame is the zero-based frame index counted from the end of calibration
	Frame int
	// Energy is the band energy of the frame
	Energy float64
	// Threshold is the calibrated cutoff the energy was compared against
	Threshold float64
	// Active is true when Energy >= Threshold
	Active bool
	// Changed is true when Active differs from the previous frame
	Changed bool
	// PeakHz is the strongest bin's frequency, filled only when Changed is true
	PeakHz float64
	// OnTarget is true when PeakHz lies within PeakTolerance of the centre
	OnTarget bool
}

// PeakTolerance is how far the strongest bin may sit from the centre
// frequency while still counting as the expected tone.
const PeakTolerance = 20.0

// ActivityCallback receives every post-calibration frame.
// Must be non-blocking and fast - called from the processing path.
type ActivityCallback func(event ActivityEvent)

// CalibratedCallback is called once when the threshold has been computed.
type CalibratedCallback func(threshold float64, window []float64)

// MonitorConfig holds configuration for the streaming tone monitor.
// All values should come from the application config file.
type MonitorConfig struct {
	// SampleRate is the capture rate in Hz (from config: sample_rate)
	SampleRate int
	// FrameDuration is the frame length in seconds (from config: monitor_frame_duration)
	FrameDuration float64
	// CenterFrequency is the tone frequency in Hz (from config: center_frequency)
	CenterFrequency float64
	// Bandwidth is the measured band width in Hz (from config: monitor_bandwidth)
	Bandwidth float64
	// CalibrationSeconds is the quiet window used to place the threshold (from config: calibration_seconds)
	CalibrationSeconds float64
	// Sensitivity is the MAD multiplier k (from config: sensitivity)
	Sensitivity float64
}

// Monitor compares the band energy of each live frame against a threshold
// calibrated once from the opening quiet window. It performs no run-length
// assembly.
type Monitor struct {
	config   MonitorConfig
	frameLen int

	// Pending samples not yet forming a whole frame
	frameBuffer []float32

	// Calibration state
	calibrationFrames int
	calibration       []float64
	threshold         float64
	calibrated        bool

	// Activity state
	frame  int
	active bool

	callbackPtr   atomic.Pointer[ActivityCallback]
	calibratedPtr atomic.Pointer[CalibratedCallback]
}

// NewMonitor creates a monitor. A calibration window shorter than one frame
// is rejected with ErrInvalidConfiguration.
func NewMonitor(cfg MonitorConfig) (*Monitor, error) {
	frameLen, err := FrameLength(cfg.SampleRate, cfg.FrameDuration)
	if err != nil {
		return nil, err
	}
	if cfg.CenterFrequency <= 0 || cfg.CenterFrequency >= float64(cfg.SampleRate)/2 {
		return nil, ErrInvalidFrequency
	}
	if cfg.Bandwidth <= 0 {
		return nil, ErrInvalidBandwidth
	}
	if cfg.Sensitivity <= 0 {
		return nil, ErrInvalidSensitivity
	}

	calibrationFrames := int(cfg.CalibrationSeconds * float64(cfg.SampleRate) / float64(frameLen))
	if calibrationFrames < 1 {
		return nil, fmt.Errorf("%w: calibration window of %vs is shorter than one %d-sample frame",
			ErrEmptyCalibration, cfg.CalibrationSeconds, frameLen)
	}

	return &Monitor{
		config:            cfg,
		frameLen:          frameLen,
		frameBuffer:       make([]float32, 0, frameLen),
		calibrationFrames: calibrationFrames,
		calibration:       make([]float64, 0, calibrationFrames),
	}, nil
}

// SetCallback sets the callback for activity events.
func (m *Monitor) SetCallback(cb ActivityCallback) {
	if cb == nil {
		m.callbackPtr.Store(nil)
	} else {
		m.callbackPtr.Store(&cb)
	}
}

// SetCalibratedCallback sets the callback fired once calibration completes.
func (m *Monitor) SetCalibratedCallback(cb CalibratedCallback) {
	if cb == nil {
		m.calibratedPtr.Store(nil)
	} else {
		m.calibratedPtr.Store(&cb)
	}
}

// Process consumes incoming samples, analysing every complete frame.
func (m *Monitor) Process(samples []float32) error {
	for len(samples) > 0 {
		need := m.frameLen - len(m.frameBuffer)
		if need > len(samples) {
			need = len(samples)
		}
		m.frameBuffer = append(m.frameBuffer, samples[:need]...)
		samples = samples[need:]

		if len(m.frameBuffer) == m.frameLen {
			if err := m.processFrame(m.frameBuffer); err != nil {
				return err
			}
			m.frameBuffer = m.frameBuffer[:0]
		}
	}
	return nil
}

// processFrame handles a single full frame
func (m *Monitor) processFrame(frame []float32) error {
	spec := ComputeSpectrum(frame, m.config.SampleRate)
	energy := spec.BandEnergy(m.config.CenterFrequency, m.config.Bandwidth)

	if !m.calibrated {
		m.calibration = append(m.calibration, energy)
		if len(m.calibration) < m.calibrationFrames {
			return nil
		}
		threshold, err := MedianMAD(m.calibration, m.config.Sensitivity)
		if err != nil {
			return err
		}
		m.threshold = threshold
		m.calibrated = true
		if cbPtr := m.calibratedPtr.Load(); cbPtr != nil {
			(*cbPtr)(threshold, m.calibration)
		}
		return nil
	}

	active := energy >= m.threshold
	event := ActivityEvent{
		Frame:     m.frame,
		Energy:    energy,
		Threshold: m.threshold,
		Active:    active,
		Changed:   active != m.active,
	}
	if event.Changed {
		event.OnTarget, event.PeakHz = DetectTone(spec, m.config.CenterFrequency, PeakTolerance)
	}
	m.active = active
	m.frame++

	if cbPtr := m.callbackPtr.Load(); cbPtr != nil {
		(*cbPtr)(event)
	}
	return nil
}

// Calibrated reports whether the threshold has been set.
func (m *Monitor) Calibrated() bool {
	return m.calibrated
}

// Threshold returns the calibrated threshold (0 before calibration).
func (m *Monitor) Threshold() float64 {
	return m.threshold
}

// Active returns the activity state of the most recent frame.
func (m *Monitor) Active() bool {
	return m.active
}

// FrameLength returns the number of samples per analysed frame.
func (m *Monitor) FrameLength() int {
	return m.frameLen
}

// CalibrationFrames returns the size of the calibration window in frames.
func (m *Monitor) CalibrationFrames() int {
	return m.calibrationFrames
}

// Reset discards pending samples and returns to the calibrating state.
func (m *Monitor) Reset() {
	m.frameBuffer = m.frameBuffer[:0]
	m.calibration = m.calibration[:0]
	m.threshold = 0
	m.calibrated = false
	m.frame = 0
	m.active = false
}

// Config returns the current configuration
func (m *Monitor) Config() MonitorConfig {
	return m.config
}
