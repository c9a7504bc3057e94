package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ColonelBlimp/cwfft/internal/cli/decode"
	"github.com/ColonelBlimp/cwfft/internal/timeline"
	"github.com/ColonelBlimp/cwfft/internal/wavio"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode FILE",
		Short: "Decode CW from a WAV recording",
		Args:  cobra.ExactArgs(1),
		RunE:  runDecode,
	}
	cmd.Flags().Float64("skip", 0, "seconds to skip at the start of the recording")
	cmd.Flags().String("timeline", "", "write per-frame energy and activity to this CSV file")
	return cmd
}

func runDecode(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	decoder, err := decode.NewDecoder(*settings)
	if err != nil {
		return err
	}

	path := args[0]
	loaded, err := wavio.Load(path)
	if err != nil {
		return err
	}
	clip := loaded.Skip(settings.WavSkip)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "WAV loaded: %s (fs=%d, N=%d)\n", path, clip.SampleRate, len(clip.Samples))
	slog.Debug("wav clip",
		"path", path,
		"samples", humanize.Comma(int64(len(clip.Samples))),
		"duration", clip.Duration().Round(time.Millisecond),
		"skipped", humanize.Comma(int64(len(loaded.Samples)-len(clip.Samples))),
	)

	res, err := decoder.Analyze(clip.Samples, clip.SampleRate)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if res.NoSignal {
		slog.Info("no tone found", "path", path, "frames", len(res.Energies))
	}

	if file, _ := cmd.Flags().GetString("timeline"); file != "" {
		points := timeline.FromSeries(res.Energies, res.Activity, res.Threshold)
		if err = timeline.WriteFile(file, points, settings.FrameDuration); err != nil {
			return err
		}
		slog.Info("timeline written", "path", file, "frames", humanize.Comma(int64(len(points))))
	}

	fmt.Fprintf(out, "Final Decoded Text: %s\n", res.Text)
	return nil
}
