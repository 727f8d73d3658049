// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	AppName       = "gtsdetect"
	ConfigType    = "yaml"
	DefaultConfig = `# GTS Detector Configuration

# Audio device settings
device_index: -1        # -1 for default capture device
sample_rate: 16000      # Audio sample rate in Hz
block_size: 512         # Samples per read block (must be a multiple of the window length)

# Tone detection
tone_frequency: 1000    # GTS tone frequency in Hz (sample_rate must be a multiple)
cycles_per_window: 4    # Analysis window length in tone cycles (1, 2 or 4)
energy_shift: 6         # Right shift applied to each correlation sum
energy_threshold: 131072  # Energy above which a window holds the tone
                          # Retune when cycles_per_window changes

# Sequence timing (milliseconds)
short_tone_ms: 100      # Each of the five short tones
long_tone_ms: 500       # The terminating long tone
gap_ms: 900             # Silence after each short tone
slack_windows: 2        # +/- tolerance in windows for every duration

# Behaviour after detection
rearm: false            # Resume listening for another sequence after a detection
alert_interval: 1s      # Alert effect tick period
alert_cycle: 60         # Ticks per alert cycle (on at tick 1, off at tick 2)

# Output
metrics_addr: ""        # Serve Prometheus metrics on this address when listening (e.g. ":9090")
debug: false            # Enable debug output
`
)

// Settings holds all application configuration
type Settings struct {
	// Audio device settings
	DeviceIndex int `mapstructure:"device_index"`
	SampleRate  int `mapstructure:"sample_rate"`
	BlockSize   int `mapstructure:"block_size"`

	// Tone detection
	ToneFrequency   int    `mapstructure:"tone_frequency"`
	CyclesPerWindow int    `mapstructure:"cycles_per_window"`
	EnergyShift     uint   `mapstructure:"energy_shift"`
	EnergyThreshold uint32 `mapstructure:"energy_threshold"`

	// Sequence timing
	ShortToneMs  int `mapstructure:"short_tone_ms"`
	LongToneMs   int `mapstructure:"long_tone_ms"`
	GapMs        int `mapstructure:"gap_ms"`
	SlackWindows int `mapstructure:"slack_windows"`

	// Behaviour after detection
	Rearm         bool          `mapstructure:"rearm"`
	AlertInterval time.Duration `mapstructure:"alert_interval"`
	AlertCycle    int           `mapstructure:"alert_cycle"`

	// Output
	MetricsAddr string `mapstructure:"metrics_addr"`
	Debug       bool   `mapstructure:"debug"`
}

// SetDefaults registers the default value of every key
func SetDefaults() {
	viper.SetDefault("device_index", -1)
	viper.SetDefault("sample_rate", 16000)
	viper.SetDefault("block_size", 512)
	viper.SetDefault("tone_frequency", 1000)
	viper.SetDefault("cycles_per_window", 4)
	viper.SetDefault("energy_shift", 6)
	viper.SetDefault("energy_threshold", 0x20000)
	viper.SetDefault("short_tone_ms", 100)
	viper.SetDefault("long_tone_ms", 500)
	viper.SetDefault("gap_ms", 900)
	viper.SetDefault("slack_windows", 2)
	viper.SetDefault("rearm", false)
	viper.SetDefault("alert_interval", time.Second)
	viper.SetDefault("alert_cycle", 60)
	viper.SetDefault("metrics_addr", "")
	viper.SetDefault("debug", false)
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/gtsdetect/
func Init() error {
	SetDefaults()

	viper.SetConfigType(ConfigType)
	viper.SetEnvPrefix("GTSDETECT")
	viper.AutomaticEnv()

	// Priority order: current directory first, then XDG config
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	// Try .config.yaml first (hidden file), then config.yaml
	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("read config: %w", err)
		}
		// No config found - create default in ~/.config/gtsdetect/
		if err = ensureConfigExists(filepath.Join(configDir, AppName)); err != nil {
			return err
		}
		if err = viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// WindowLen returns the analysis window length in samples.
// Only meaningful for settings that pass Validate.
func (s *Settings) WindowLen() int {
	return s.CyclesPerWindow * s.SampleRate / s.ToneFrequency
}

// WindowDuration returns the real-time length of one analysis window
func (s *Settings) WindowDuration() time.Duration {
	return time.Duration(s.WindowLen()) * time.Second / time.Duration(s.SampleRate)
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	// Audio device settings
	if s.SampleRate < 8000 || s.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %d", s.SampleRate))
	}

	// Tone detection
	if s.ToneFrequency < 100 || s.ToneFrequency > 4000 {
		errs = append(errs, fmt.Errorf("tone_frequency must be between 100 and 4000 Hz, got %d", s.ToneFrequency))
	}
	if s.CyclesPerWindow < 1 || s.CyclesPerWindow > 64 {
		errs = append(errs, fmt.Errorf("cycles_per_window must be between 1 and 64, got %d", s.CyclesPerWindow))
	}
	if s.EnergyShift > 32 {
		errs = append(errs, fmt.Errorf("energy_shift must be between 0 and 32, got %d", s.EnergyShift))
	}

	// Nyquist check: tone frequency must be less than half the sample rate
	if s.ToneFrequency > 0 && 2*s.ToneFrequency >= s.SampleRate {
		errs = append(errs, fmt.Errorf("tone_frequency (%d Hz) must be less than Nyquist frequency (%d Hz)", s.ToneFrequency, s.SampleRate/2))
	}
	if s.ToneFrequency > 0 && s.SampleRate%s.ToneFrequency != 0 {
		errs = append(errs, fmt.Errorf("sample_rate (%d Hz) must be an integer multiple of tone_frequency (%d Hz)", s.SampleRate, s.ToneFrequency))
	}

	// Block size must hold whole windows
	if s.BlockSize < 1 || s.BlockSize > 65536 {
		errs = append(errs, fmt.Errorf("block_size must be between 1 and 65536, got %d", s.BlockSize))
	} else if s.ToneFrequency > 0 && s.SampleRate%s.ToneFrequency == 0 && s.CyclesPerWindow > 0 {
		if n := s.WindowLen(); s.BlockSize%n != 0 {
			errs = append(errs, fmt.Errorf("block_size (%d) must be a multiple of the window length (%d samples)", s.BlockSize, n))
		}
	}

	// Sequence timing
	if s.ShortToneMs <= 0 {
		errs = append(errs, fmt.Errorf("short_tone_ms must be positive, got %d", s.ShortToneMs))
	}
	if s.LongToneMs <= s.ShortToneMs {
		errs = append(errs, fmt.Errorf("long_tone_ms (%d) must exceed short_tone_ms (%d)", s.LongToneMs, s.ShortToneMs))
	}
	if s.GapMs <= 0 {
		errs = append(errs, fmt.Errorf("gap_ms must be positive, got %d", s.GapMs))
	}
	if s.SlackWindows < 0 || s.SlackWindows > 50 {
		errs = append(errs, fmt.Errorf("slack_windows must be between 0 and 50, got %d", s.SlackWindows))
	}

	// Alert effect
	if s.AlertInterval < 10*time.Millisecond {
		errs = append(errs, fmt.Errorf("alert_interval must be at least 10ms, got %v", s.AlertInterval))
	}
	if s.AlertCycle < 2 {
		errs = append(errs, fmt.Errorf("alert_cycle must be at least 2, got %d", s.AlertCycle))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
