// cmd/scan.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ColonelBlimp/gtsdetect/internal/audio"
	"github.com/ColonelBlimp/gtsdetect/internal/cli/detect"
)

var scanCmd = &cobra.Command{
	Use:   "scan <file.wav>",
	Short: "Scan a WAV file for GTS sequences",
	Long: `Streams a 16-bit PCM WAV file through the detector and prints the
offset of every recognized sequence. Use --rearm to report more than one.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	settings, log, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	src, err := audio.OpenWAV(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	format := src.Format()
	if format.SampleRate != settings.SampleRate {
		log.Warn("file sample rate differs from configured rate, timing will be off",
			zap.String("file", args[0]),
			zap.Int("file_rate", format.SampleRate),
			zap.Int("sample_rate", settings.SampleRate))
	}

	out := cmd.OutOrStdout()
	p, err := detect.New(settings,
		detect.WithLogger(log),
		detect.WithSink(func(d detect.Detection) {
			fmt.Fprintf(out, "GTS detected at %s (window %d)\n", d.Offset, d.Window)
		}))
	if err != nil {
		return err
	}

	if err := p.Run(cmd.Context(), src); err != nil {
		return fmt.Errorf("scan %s: %w", args[0], err)
	}

	fmt.Fprintf(out, "%d sequence(s) detected in %d windows\n", p.Detections(), p.Windows())
	return nil
}
