package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/smazurov/docscan/internal/camera"
	"github.com/smazurov/docscan/internal/scanner"
	"github.com/spf13/cobra"
)

// PlatformFactory returns the configured camera backend.
type PlatformFactory func() (camera.Platform, error)

type devicesReport struct {
	Availability camera.Availability `json:"availability"`
	Message      string              `json:"message,omitempty"`
	Devices      []camera.DeviceInfo `json:"devices"`
}

// CreateDevicesCmd creates the devices command.
func CreateDevicesCmd(newPlatform PlatformFactory) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:          "devices",
		Short:        "List cameras",
		Long:         `Checks camera availability and lists the video inputs the configured backend can open.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := newPlatform()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			logger := commandLogger("devices")
			report := devicesReport{
				Availability: camera.CheckAvailability(ctx, p, logger),
				Devices:      []camera.DeviceInfo{},
			}
			if report.Availability.Reason != nil {
				report.Message = scanner.UserMessage(report.Availability.Reason)
			}
			if p != nil && report.Availability.Usable {
				if report.Devices, err = p.Devices(ctx); err != nil {
					return fmt.Errorf("list devices: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			if !report.Availability.Usable {
				fmt.Fprintln(out, report.Message)
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLABEL\tFACING")
			for _, d := range report.Devices {
				facing := string(d.Facing)
				if facing == "" {
					facing = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.ID, d.Label, facing)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if report.Availability.Multiple {
				fmt.Fprintln(out, "Multiple cameras found, switching is available.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}
