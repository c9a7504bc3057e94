package cmd

import (
	"fmt"

	"github.com/ColonelBlimp/cwfft/internal/cli/decode"
	"github.com/spf13/cobra"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio capture devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			devices, err := decode.ListAudioDevices()
			if err != nil {
				return fmt.Errorf("audio: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(devices) == 0 {
				fmt.Fprintln(out, "No capture devices found")
				return nil
			}
			for _, d := range devices {
				marker := " "
				if d.IsDefault {
					marker = "*"
				}
				fmt.Fprintf(out, "%s [%d] %s\n", marker, d.Index, d.Name)
			}
			return nil
		},
	}
}
