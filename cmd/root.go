// cmd/root.go
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ColonelBlimp/cwfft/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys maps command-line flags to the config keys they override.
var flagKeys = map[string]string{
	"device":    "device_index",
	"frequency": "center_frequency",
	"bandwidth": "bandwidth",
	"debug":     "debug",
	"skip":      "wav_skip",
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cwfft",
		Short: "CW (Morse code) decoder using FFT band energy",
		Long: `cwfft measures the energy of a narrow band around the CW tone frame by frame,
turns it into tone on/off runs and assembles Morse letters from their lengths.
It decodes WAV recordings offline and monitors live audio for tone activity.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd)
		},
	}

	// Global flags (override config file)
	root.PersistentFlags().IntP("device", "d", -1, "audio device index (-1 for default)")
	root.PersistentFlags().Float64P("frequency", "f", 800, "CW tone centre frequency in Hz")
	root.PersistentFlags().Float64P("bandwidth", "b", 180, "measured band width in Hz for decoding")
	root.PersistentFlags().BoolP("debug", "D", false, "enable debug output")

	root.AddCommand(
		newDecodeCmd(),
		newMonitorCmd(),
		newDevicesCmd(),
		newGenerateCmd(),
	)
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig binds the flags of the running command, loads the config file
// and installs the default logger.
func initConfig(cmd *cobra.Command) error {
	for name, key := range flagKeys {
		if f := cmd.Flag(name); f != nil {
			if err := viper.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if err := config.Init(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	setupLogging(cmd.ErrOrStderr(), viper.GetBool("debug"))
	return nil
}

func setupLogging(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// loadSettings returns validated settings for a command.
func loadSettings() (*config.Settings, error) {
	s, err := config.Get()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	return s, nil
}
