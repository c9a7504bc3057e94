package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/ColonelBlimp/cwfft/internal/synth"
	"github.com/ColonelBlimp/cwfft/internal/wavio"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write keyed CW for the given text to a WAV file",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}
	cmd.Flags().String("text", "", "text to key")
	cmd.Flags().Float64("wpm", 20, "keying speed in words per minute")
	cmd.Flags().String("out", "", "output WAV file")
	cmd.Flags().Float64("amplitude", 0.5, "tone amplitude (0..1]")
	cmd.Flags().Float64("pad", 2, "silence before and after the text, in dits")
	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	text, _ := cmd.Flags().GetString("text")
	path, _ := cmd.Flags().GetString("out")
	if text == "" || path == "" {
		return errors.New("generate: --text and --out are required")
	}
	wpm, _ := cmd.Flags().GetFloat64("wpm")
	amplitude, _ := cmd.Flags().GetFloat64("amplitude")
	pad, _ := cmd.Flags().GetFloat64("pad")

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	keyer, err := synth.NewKeyer(settings.SampleRate, settings.CenterFrequency, wpm, amplitude)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	keyer.PadDits = pad

	samples, err := keyer.Render(text)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	if err = wavio.Save(path, samples, settings.SampleRate); err != nil {
		return err
	}

	size := "?"
	if info, statErr := os.Stat(path); statErr == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s: %q at %.0f WPM, %d Hz, %s\n",
		path, text, wpm, settings.SampleRate, size)
	return nil
}
