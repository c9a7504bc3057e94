// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	AppName       = "cwfft"
	ConfigType    = "yaml"
	DefaultConfig = `# cwfft configuration

# Offline decoding (cwfft decode)
center_frequency: 800   # CW tone centre frequency in Hz
bandwidth: 180          # Width of the measured band in Hz
frame_duration: 0.02    # Analysis frame length in seconds (non-overlapping)
wav_skip: 0.0           # Seconds to skip at the start of a WAV file

# Live monitoring (cwfft monitor)
monitor_bandwidth: 60          # Width of the measured band in Hz
monitor_frame_duration: 0.05   # Analysis frame length in seconds
calibration_seconds: 2.0       # Quiet period used to learn the noise floor
sensitivity: 3.0               # Threshold = median + sensitivity * MAD
history_seconds: 30            # Energy history kept for --timeline

# Audio device settings
device_index: -1        # -1 for default device
sample_rate: 44100      # Capture sample rate in Hz
buffer_size: 1024       # Frames per capture period

# Output
unknown_symbol: "*"     # Printed for codes with no mapping
debug: false            # Enable debug logging
`
)

// Settings holds all application configuration
type Settings struct {
	// Offline decoding
	CenterFrequency float64 `mapstructure:"center_frequency"`
	Bandwidth       float64 `mapstructure:"bandwidth"`
	FrameDuration   float64 `mapstructure:"frame_duration"`
	WavSkip         float64 `mapstructure:"wav_skip"`

	// Live monitoring
	MonitorBandwidth     float64 `mapstructure:"monitor_bandwidth"`
	MonitorFrameDuration float64 `mapstructure:"monitor_frame_duration"`
	CalibrationSeconds   float64 `mapstructure:"calibration_seconds"`
	Sensitivity          float64 `mapstructure:"sensitivity"`
	HistorySeconds       float64 `mapstructure:"history_seconds"`

	// Audio device settings
	DeviceIndex int `mapstructure:"device_index"`
	SampleRate  int `mapstructure:"sample_rate"`
	BufferSize  int `mapstructure:"buffer_size"`

	// Output
	UnknownSymbol string `mapstructure:"unknown_symbol"`
	Debug         bool   `mapstructure:"debug"`
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("center_frequency", 800)
	viper.SetDefault("bandwidth", 180)
	viper.SetDefault("frame_duration", 0.02)
	viper.SetDefault("wav_skip", 0.0)
	viper.SetDefault("monitor_bandwidth", 60)
	viper.SetDefault("monitor_frame_duration", 0.05)
	viper.SetDefault("calibration_seconds", 2.0)
	viper.SetDefault("sensitivity", 3.0)
	viper.SetDefault("history_seconds", 30)
	viper.SetDefault("device_index", -1)
	viper.SetDefault("sample_rate", 44100)
	viper.SetDefault("buffer_size", 1024)
	viper.SetDefault("unknown_symbol", "*")
	viper.SetDefault("debug", false)
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/cwfft/
func Init() error {
	SetDefaults()

	viper.SetConfigType(ConfigType)
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	// .config.yaml (hidden) wins over config.yaml
	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("read config: %w", err)
		}
		// First run: write the default file to ~/.config/cwfft/ and read it back
		if err = ensureConfigExists(filepath.Join(configDir, AppName)); err != nil {
			return err
		}
		if err = viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	// Offline decoding
	if s.CenterFrequency < 100 || s.CenterFrequency > 3000 {
		errs = append(errs, fmt.Errorf("center_frequency must be between 100 and 3000 Hz, got %v", s.CenterFrequency))
	}
	if s.Bandwidth < 1 || s.Bandwidth > 2000 {
		errs = append(errs, fmt.Errorf("bandwidth must be between 1 and 2000 Hz, got %v", s.Bandwidth))
	}
	if s.FrameDuration < 0.001 || s.FrameDuration > 0.5 {
		errs = append(errs, fmt.Errorf("frame_duration must be between 0.001 and 0.5 seconds, got %v", s.FrameDuration))
	}
	if s.WavSkip < 0 {
		errs = append(errs, fmt.Errorf("wav_skip must not be negative, got %v", s.WavSkip))
	}

	// Live monitoring
	if s.MonitorBandwidth < 1 || s.MonitorBandwidth > 2000 {
		errs = append(errs, fmt.Errorf("monitor_bandwidth must be between 1 and 2000 Hz, got %v", s.MonitorBandwidth))
	}
	if s.MonitorFrameDuration < 0.001 || s.MonitorFrameDuration > 0.5 {
		errs = append(errs, fmt.Errorf("monitor_frame_duration must be between 0.001 and 0.5 seconds, got %v", s.MonitorFrameDuration))
	}
	// The calibration window must hold at least one monitor frame
	if s.CalibrationSeconds <= 0 || s.CalibrationSeconds < s.MonitorFrameDuration {
		errs = append(errs, fmt.Errorf("calibration_seconds must cover at least one monitor frame (%v s), got %v",
			s.MonitorFrameDuration, s.CalibrationSeconds))
	}
	if s.Sensitivity <= 0 || s.Sensitivity > 100 {
		errs = append(errs, fmt.Errorf("sensitivity must be between 0 (exclusive) and 100, got %v", s.Sensitivity))
	}
	if s.HistorySeconds <= 0 || s.HistorySeconds > 3600 {
		errs = append(errs, fmt.Errorf("history_seconds must be between 0 (exclusive) and 3600, got %v", s.HistorySeconds))
	}

	// Audio device settings
	if s.DeviceIndex < -1 {
		errs = append(errs, fmt.Errorf("device_index must be -1 (default) or a device number, got %d", s.DeviceIndex))
	}
	if s.SampleRate < 8000 || s.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %d", s.SampleRate))
	}
	if s.BufferSize < 64 || s.BufferSize > 8192 {
		errs = append(errs, fmt.Errorf("buffer_size must be between 64 and 8192, got %d", s.BufferSize))
	}
	if s.BufferSize&(s.BufferSize-1) != 0 {
		errs = append(errs, fmt.Errorf("buffer_size should be a power of 2, got %d", s.BufferSize))
	}

	// Nyquist check: the whole offline band must sit below half the capture rate
	nyquist := float64(s.SampleRate) / 2
	if s.CenterFrequency+s.Bandwidth/2 >= nyquist {
		errs = append(errs, fmt.Errorf("center_frequency + bandwidth/2 (%v Hz) must be less than Nyquist frequency (%v Hz)",
			s.CenterFrequency+s.Bandwidth/2, nyquist))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
