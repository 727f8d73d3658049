// cmd/generate.go
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/gtsdetect/internal/audio"
	"github.com/ColonelBlimp/gtsdetect/internal/config"
)

var generateCmd = &cobra.Command{
	Use:   "generate <out.wav>",
	Short: "Write a WAV file containing a GTS sequence",
	Long: `Synthesizes the nominal GTS sequence using the configured sample rate,
tone frequency and durations. Useful as a test signal for scan and listen.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().Float64P("amplitude", "a", 0.5, "tone amplitude as a fraction of full scale")
	generateCmd.Flags().Duration("lead", 0, "silence before the sequence")
	generateCmd.Flags().Duration("tail", 500*time.Millisecond, "silence after the sequence")
	generateCmd.Flags().IntP("repeat", "n", 1, "number of sequences to write")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	settings, err := config.Get()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	flags := cmd.Flags()
	amplitude, _ := flags.GetFloat64("amplitude")
	lead, _ := flags.GetDuration("lead")
	tail, _ := flags.GetDuration("tail")
	repeat, _ := flags.GetInt("repeat")
	if repeat < 1 {
		return fmt.Errorf("repeat must be at least 1, got %d", repeat)
	}

	seq := sequenceFromSettings(settings)
	seq.Amplitude = amplitude
	seq.Lead = lead
	seq.Tail = tail

	one := seq.Samples()
	samples := make([]int16, 0, len(one)*repeat)
	for i := 0; i < repeat; i++ {
		samples = append(samples, one...)
	}

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := audio.WriteWAV(f, samples, settings.SampleRate); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d sequence(s), %d samples at %d Hz to %s\n",
		repeat, len(samples), settings.SampleRate, args[0])
	return nil
}

func sequenceFromSettings(s *config.Settings) audio.Sequence {
	return audio.Sequence{
		SampleRate:    s.SampleRate,
		ToneFrequency: s.ToneFrequency,
		ShortTone:     time.Duration(s.ShortToneMs) * time.Millisecond,
		Gap:           time.Duration(s.GapMs) * time.Millisecond,
		LongTone:      time.Duration(s.LongToneMs) * time.Millisecond,
	}
}
