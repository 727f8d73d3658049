// cmd/listen.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ColonelBlimp/gtsdetect/internal/alert"
	"github.com/ColonelBlimp/gtsdetect/internal/audio"
	"github.com/ColonelBlimp/gtsdetect/internal/cli/detect"
	"github.com/ColonelBlimp/gtsdetect/internal/config"
	"github.com/ColonelBlimp/gtsdetect/internal/metrics"
	"github.com/ColonelBlimp/gtsdetect/internal/recovery"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Listen for GTS sequences on an audio input",
	Long: `Captures audio from the configured device until interrupted. A detection
starts the periodic alert effect. Set metrics_addr to expose Prometheus metrics.`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, _ []string) error {
	settings, log, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)
	if settings.MetricsAddr != "" {
		srv := serveMetrics(settings.MetricsAddr, m, log)
		defer shutdownMetrics(srv, log)
	}

	effect, err := alert.NewPeriodic(settings.AlertInterval, settings.AlertCycle,
		func() { log.Info("alert", zap.String("effect", "on")) },
		func() { log.Info("alert", zap.String("effect", "off")) })
	if err != nil {
		return err
	}
	defer effect.Stop()

	p, err := detect.New(settings,
		detect.WithLogger(log),
		detect.WithMetrics(m),
		detect.WithSink(func(detect.Detection) { effect.Start(ctx) }))
	if err != nil {
		return err
	}

	capture := audio.New(captureConfig(settings))
	if err := capture.Init(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	defer capture.Close()
	m.WatchDropped(capture.Dropped.Load)
	defer recovery.HandlePanicFunc(log, func() { _ = capture.Close() })

	if err := capture.Start(ctx); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	log.Info("listening",
		zap.Int("device_index", settings.DeviceIndex),
		zap.Int("sample_rate", settings.SampleRate),
		zap.Int("tone_frequency", settings.ToneFrequency))

	err = p.Consume(ctx, capture.Samples)
	if dropped := capture.Dropped.Load(); dropped > 0 {
		log.Warn("audio blocks dropped", zap.Uint64("count", dropped))
	}
	log.Info("stopped",
		zap.Uint64("windows", p.Windows()),
		zap.Uint64("detections", p.Detections()))

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func captureConfig(s *config.Settings) audio.Config {
	return audio.Config{
		DeviceIndex: s.DeviceIndex,
		SampleRate:  uint32(s.SampleRate),
		BufferSize:  uint32(s.BlockSize),
	}
}

func serveMetrics(addr string, m *metrics.Metrics, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", addr))
	return srv
}

func shutdownMetrics(srv *http.Server, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("metrics server shutdown", zap.Error(err))
	}
}
