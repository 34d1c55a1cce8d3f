package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/smazurov/docscan/internal/scanner"
	"github.com/spf13/cobra"
)

// PipelineFactory builds a scanner pipeline from the parsed options.
type PipelineFactory func() (*scanner.Pipeline, error)

// CreateSnapCmd creates the snap command.
func CreateSnapCmd(newPipeline PipelineFactory) *cobra.Command {
	var (
		output string
		title  string
		folder string
		submit bool
		settle time.Duration
	)

	cmd := &cobra.Command{
		Use:   "snap",
		Short: "Capture one enhanced document image",
		Long: `Starts the camera, waits for the image to settle, captures and enhances one frame and ` +
			`writes it as JPEG. With --save the image is also sent to the configured save endpoint.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output == "" && !submit {
				return errors.New("nothing to do: set --output and/or --save")
			}

			p, err := newPipeline()
			if err != nil {
				return err
			}
			defer p.Close()

			logger := commandLogger("snap")
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if err := p.Start(ctx); err != nil {
				return fmt.Errorf("%s: %w", scanner.UserMessage(err), err)
			}
			if settle > 0 {
				logger.Debug("Waiting for camera to settle", "duration", settle)
				select {
				case <-time.After(settle):
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			img, err := p.Capture(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", scanner.UserMessage(err), err)
			}
			logger.Info("Captured", "width", img.Width, "height", img.Height, "bytes", len(img.Data))

			out := cmd.OutOrStdout()
			if output != "" {
				if err := os.WriteFile(output, img.Data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				fmt.Fprintf(out, "Wrote %s (%dx%d, %d bytes)\n", output, img.Width, img.Height, len(img.Data))
			}

			if submit {
				var folderID *string
				if folder != "" {
					folderID = &folder
				}
				res, err := p.Submit(ctx, title, folderID)
				if err != nil {
					return fmt.Errorf("%s: %w", scanner.UserMessage(err), err)
				}
				fmt.Fprintf(out, "Saved %q", title)
				if res.RedirectURL != "" {
					fmt.Fprintf(out, " -> %s", res.RedirectURL)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the enhanced JPEG to this file")
	cmd.Flags().StringVarP(&title, "title", "t", "Camera scan", "Document title sent with --save")
	cmd.Flags().StringVar(&folder, "folder", "", "Folder ID sent with --save (empty for none)")
	cmd.Flags().BoolVar(&submit, "save", false, "Send the image to the save endpoint")
	cmd.Flags().DurationVar(&settle, "settle", 500*time.Millisecond, "Wait after the camera starts before capturing")
	return cmd
}
