// cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ColonelBlimp/gtsdetect/internal/config"
	"github.com/ColonelBlimp/gtsdetect/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "gtsdetect",
	Short: "GTS tone sequence detector",
	Long: `Detects the GTS trigger sequence (five short 1 kHz tones, each followed
by a silence gap, then one long tone) in a WAV file or live audio input.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// flagKeys maps persistent flags to their config keys
var flagKeys = map[string]string{
	"device":    "device_index",
	"frequency": "tone_frequency",
	"threshold": "energy_threshold",
	"rearm":     "rearm",
	"debug":     "debug",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags (override config file)
	rootCmd.PersistentFlags().IntP("device", "d", -1, "audio device index (-1 for default)")
	rootCmd.PersistentFlags().IntP("frequency", "f", 1000, "GTS tone frequency in Hz")
	rootCmd.PersistentFlags().Uint32P("threshold", "t", 0x20000, "tone energy threshold")
	rootCmd.PersistentFlags().BoolP("rearm", "r", false, "keep listening after a detection")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "enable debug output")
}

// initConfig loads the config file and binds the flags over it
func initConfig(cmd *cobra.Command, _ []string) error {
	if err := config.Init(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for name, key := range flagKeys {
		if err := viper.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(name)); err != nil {
			return fmt.Errorf("config: bind flag %s: %w", name, err)
		}
	}
	return nil
}

// loadSettings returns validated settings and a logger writing to the
// command's stderr
func loadSettings(cmd *cobra.Command) (*config.Settings, *zap.Logger, error) {
	settings, err := config.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	return settings, logging.NewWithWriter(cmd.ErrOrStderr(), settings.Debug), nil
}
