// internal/audio/capture.go
package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

var (
	ErrNotInitialized = errors.New("audio capture not initialized")
	ErrAlreadyRunning = errors.New("audio capture already running")
	ErrNotRunning     = errors.New("audio capture not running")
	ErrClosed         = errors.New("audio capture closed")
	ErrDeviceIndex    = errors.New("device index out of range")
)

// Config holds audio capture configuration
type Config struct {
	DeviceIndex int // -1 for default device
	SampleRate  int // e.g., 44100
	Channels    int // interleaved channels requested from the device
	BufferSize  int // frames per callback
}

// DefaultConfig returns the capture defaults used by the live monitor
func DefaultConfig() Config {
	return Config{
		DeviceIndex: -1,
		SampleRate:  44100,
		Channels:    1,
		BufferSize:  1024,
	}
}

// SampleCallback is called directly from the audio thread with mono samples.
// Must be non-blocking and fast.
type SampleCallback func(samples []float32)

// Device describes one capture device.
type Device struct {
	Index     int
	Name      string
	IsDefault bool
}

// Capture delivers mono float32 samples from a capture device
type Capture struct {
	config Config

	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	running atomic.Bool

	callbackPtr atomic.Pointer[SampleCallback]
	dropped     atomic.Uint64

	// sendMu orders sends against close(Samples)
	sendMu    sync.RWMutex
	closed    bool
	closeOnce sync.Once

	// Samples receives each device period as mono samples in [-1, 1]
	Samples chan []float32
}

// New creates a new audio capture instance
func New(cfg Config) *Capture {
	if cfg.Channels < 1 {
		cfg.Channels = 1
	}
	return &Capture{
		config:  cfg,
		Samples: make(chan []float32, 64),
	}
}

// SetCallback sets a callback for real-time sample processing. Passing nil
// clears it. Safe to call while running.
func (c *Capture) SetCallback(cb SampleCallback) {
	if cb == nil {
		c.callbackPtr.Store(nil)
		return
	}
	c.callbackPtr.Store(&cb)
}

// Config returns the capture configuration.
func (c *Capture) Config() Config {
	return c.config
}

// Dropped returns how many periods were discarded because Samples was full.
func (c *Capture) Dropped() uint64 {
	return c.dropped.Load()
}

// Init initializes the audio backend
func (c *Capture) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx != nil {
		return nil
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("init audio context: %w", err)
	}
	c.ctx = ctx
	return nil
}

// ListDevices returns available capture devices
func (c *Capture) ListDevices() ([]Device, error) {
	infos, err := c.deviceInfos()
	if err != nil {
		return nil, err
	}

	devices := make([]Device, len(infos))
	for i, info := range infos {
		devices[i] = Device{Index: i, Name: info.Name(), IsDefault: info.IsDefault != 0}
	}
	return devices, nil
}

func (c *Capture) deviceInfos() ([]malgo.DeviceInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx == nil {
		return nil, ErrNotInitialized
	}
	infos, err := c.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	return infos, nil
}

// Start begins audio capture. Capture stops when ctx is cancelled.
func (c *Capture) Start(ctx context.Context) error {
	if c.running.Load() {
		return ErrAlreadyRunning
	}
	c.mu.Lock()
	initialized := c.ctx != nil
	c.mu.Unlock()
	if !initialized {
		return ErrNotInitialized
	}

	deviceConfig := malgo.DeviceConfig{
		DeviceType:         malgo.Capture,
		SampleRate:         uint32(c.config.SampleRate),
		PeriodSizeInFrames: uint32(c.config.BufferSize),
		Capture: malgo.SubConfig{
			Format:   malgo.FormatF32,
			Channels: uint32(c.config.Channels),
		},
	}

	if c.config.DeviceIndex >= 0 {
		infos, err := c.deviceInfos()
		if err != nil {
			return err
		}
		if c.config.DeviceIndex >= len(infos) {
			return fmt.Errorf("%w: %d (have %d devices)", ErrDeviceIndex, c.config.DeviceIndex, len(infos))
		}
		deviceConfig.Capture.DeviceID = infos[c.config.DeviceIndex].ID.Pointer()
	}

	channels := c.config.Channels
	onRecvFrames := func(_, inputSamples []byte, _ uint32) {
		if len(inputSamples) == 0 {
			return
		}
		samples := downmix(bytesAsFloat32(inputSamples), channels)

		if cb := c.callbackPtr.Load(); cb != nil {
			(*cb)(samples)
		}
		c.safeSend(samples)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	device, err := malgo.InitDevice(c.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onRecvFrames})
	if err != nil {
		return fmt.Errorf("init device: %w", err)
	}
	if err = device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("start device: %w", err)
	}

	c.device = device
	c.running.Store(true)

	go func() {
		<-ctx.Done()
		_ = c.Stop()
	}()

	return nil
}

// safeSend forwards samples without blocking the audio thread and never
// sends on a closed channel.
func (c *Capture) safeSend(samples []float32) {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()

	if c.closed {
		return
	}
	select {
	case c.Samples <- samples:
	default:
		c.dropped.Add(1)
	}
}

// Stop stops audio capture
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running.Load() {
		return ErrNotRunning
	}
	c.stopDevice()
	return nil
}

func (c *Capture) stopDevice() {
	if c.device != nil {
		_ = c.device.Stop()
		c.device.Uninit()
		c.device = nil
	}
	c.running.Store(false)
}

// Close releases all audio resources and closes Samples. It is idempotent.
func (c *Capture) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.stopDevice()
		if c.ctx != nil {
			if uerr := c.ctx.Uninit(); uerr != nil {
				err = fmt.Errorf("uninit context: %w", uerr)
			}
			c.ctx.Free()
			c.ctx = nil
		}
		c.mu.Unlock()

		c.sendMu.Lock()
		c.closed = true
		close(c.Samples)
		c.sendMu.Unlock()
	})
	return err
}

// IsRunning returns true if capture is active
func (c *Capture) IsRunning() bool {
	return c.running.Load()
}

// ListDevices opens a temporary backend context and lists capture devices.
func ListDevices() ([]Device, error) {
	c := New(DefaultConfig())
	defer c.Close()

	if err := c.Init(); err != nil {
		return nil, err
	}
	return c.ListDevices()
}

// bytesAsFloat32 decodes little-endian IEEE 754 samples. Trailing bytes that
// do not form a whole sample are ignored.
func bytesAsFloat32(data []byte) []float32 {
	samples := make([]float32, len(data)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return samples
}

// downmix averages interleaved channels into mono. Mono input is returned
// as is; a trailing partial frame is dropped.
func downmix(samples []float32, channels int) []float32 {
	if channels <= 1 {
		return samples
	}
	mono := make([]float32, len(samples)/channels)
	for i := range mono {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += samples[i*channels+ch]
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}
