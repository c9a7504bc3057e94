package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ColonelBlimp/cwfft/internal/audio"
	"github.com/ColonelBlimp/cwfft/internal/cli/decode"
	"github.com/ColonelBlimp/cwfft/internal/dsp"
	"github.com/ColonelBlimp/cwfft/internal/recovery"
	"github.com/ColonelBlimp/cwfft/internal/timeline"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

const statusInterval = 5 * time.Second

func newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Report live tone activity from the capture device",
		Long: `monitor listens to the capture device, learns the noise floor during the
calibration window and then prints a line every time the tone keys on or off.`,
		Args: cobra.NoArgs,
		RunE: runMonitor,
	}
	cmd.Flags().String("timeline", "", "write the energy history to this CSV file on exit")
	return cmd
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	mon, err := decode.NewMonitor(*settings)
	if err != nil {
		return err
	}

	capture := audio.New(decode.CaptureConfig(*settings))
	if err = capture.Init(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	defer capture.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := newMonitorSession(cmd.OutOrStdout(), mon, audio.NewRing(decode.HistoryFrames(*settings)))
	session.dropped = capture.Dropped

	fmt.Fprintf(session.out, "Calibrating for %.1fs, keep the band quiet (Ctrl+C to stop)\n", settings.CalibrationSeconds)
	if err = capture.Start(ctx); err != nil {
		return fmt.Errorf("audio: %w", err)
	}

	err = session.run(ctx, capture.Samples, func() { _ = capture.Close() })
	slog.Info("monitor stopped",
		"frames", humanize.Comma(session.frames.Load()),
		"dropped_periods", humanize.Comma(int64(capture.Dropped())),
	)
	if err != nil {
		return err
	}

	if file, _ := cmd.Flags().GetString("timeline"); file != "" {
		if err = timeline.WriteFile(file, session.points(), settings.MonitorFrameDuration); err != nil {
			return err
		}
		slog.Info("timeline written", "path", file)
	}
	return nil
}

// monitorSession connects a sample source to the monitor and reports
// activity changes.
type monitorSession struct {
	out     io.Writer
	mon     *dsp.Monitor
	history *audio.Ring

	frames  atomic.Int64
	dropped func() uint64
}

func newMonitorSession(out io.Writer, mon *dsp.Monitor, history *audio.Ring) *monitorSession {
	s := &monitorSession{out: out, mon: mon, history: history}
	mon.SetCalibratedCallback(s.onCalibrated)
	mon.SetCallback(s.onActivity)
	return s
}

func (s *monitorSession) onCalibrated(threshold float64, window []float64) {
	mean, sd := stat.MeanStdDev(window, nil)
	fmt.Fprintf(s.out, "Calibrated: threshold=%.3f (noise mean=%.3f sd=%.3f over %d frames)\n",
		threshold, mean, sd, len(window))
}

func (s *monitorSession) onActivity(ev dsp.ActivityEvent) {
	s.history.Push(ev.Energy)
	s.frames.Store(int64(ev.Frame) + 1)
	if !ev.Changed {
		return
	}

	state := "-----"
	if ev.Active {
		state = "TONE"
	}
	at := float64(ev.Frame) * s.mon.Config().FrameDuration
	fmt.Fprintf(s.out, "[%8.2fs] %-5s energy=%.3f\n", at, state, ev.Energy)
	slog.Debug("activity change",
		"frame", ev.Frame,
		"energy", ev.Energy,
		"threshold", ev.Threshold,
		"peak_hz", ev.PeakHz,
		"on_target", ev.OnTarget,
	)
}

// run feeds samples to the monitor until ctx is done or samples is closed.
// cleanup runs if a goroutine panics.
func (s *monitorSession) run(ctx context.Context, samples <-chan []float32, cleanup func()) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer recovery.HandlePanicFunc(cleanup)
		// A closed sample channel ends the session.
		defer cancel()
		for {
			select {
			case <-gctx.Done():
				return nil
			case buf, ok := <-samples:
				if !ok {
					return nil
				}
				if err := s.mon.Process(buf); err != nil {
					return fmt.Errorf("monitor: %w", err)
				}
			}
		}
	})

	g.Go(func() error {
		defer recovery.HandlePanicFunc(cleanup)
		ticker := time.NewTicker(statusInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				var dropped uint64
				if s.dropped != nil {
					dropped = s.dropped()
				}
				slog.Debug("monitor status",
					"frames", humanize.Comma(s.frames.Load()),
					"history", s.history.Len(),
					"dropped_periods", dropped,
				)
			}
		}
	})

	return g.Wait()
}

// points converts the energy history into timeline rows. Frame numbers
// count from the end of calibration.
func (s *monitorSession) points() []timeline.Point {
	energies := s.history.Snapshot()
	threshold := s.mon.Threshold()
	first := int(s.frames.Load()) - len(energies)

	points := make([]timeline.Point, len(energies))
	for i, e := range energies {
		points[i] = timeline.Point{
			Frame:     first + i,
			Energy:    e,
			Threshold: threshold,
			Active:    e >= threshold,
		}
	}
	return points
}
