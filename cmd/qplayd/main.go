// Package main provides the playback daemon entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/qplay/internal/api/connect"
	"github.com/osa030/qplay/internal/app/manager"
	"github.com/osa030/qplay/internal/app/notify"
	"github.com/osa030/qplay/internal/app/playback"
	"github.com/osa030/qplay/internal/audio"
	"github.com/osa030/qplay/internal/infra/config"
	"github.com/osa030/qplay/internal/infra/logger"
)

var (
	app        = kingpin.New("qplayd", "qplay playback daemon")
	configPath = app.Flag("config", "Path to config file").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
	addr       = app.Flag("addr", "Listen address (overrides config)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		zlog.Info().Msgf("Loading config from %s", *configPath)
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *logfile == "" && !*verbose {
		loggerConfig.Output = cfg.Log.Output
		loggerConfig.Level = cfg.Log.Level
		if err := logger.Init(loggerConfig); err != nil {
			zlog.Fatal().Msgf("Failed to initialize logger: %v", err)
		}
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Daemon error: %v", err)
		os.Exit(1)
	}
}

// run executes the main daemon logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	sink, err := audio.NewSink(cfg.Output.Backend, cfg.Output.Settings)
	if err != nil {
		return fmt.Errorf("failed to open output backend: %w", err)
	}
	defer sink.Close()

	decoder := audio.NewFileDecoder(sink.Format())
	controller := playback.NewController(playback.Config{
		DefaultVolume: cfg.Playback.DefaultVolume,
	}, decoder, sink)
	hub := notify.NewHub()

	// Event pump: log every playback event and fan it out to watchers. The
	// pump exits when the controller is closed.
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		for e := range controller.Events() {
			logEvent(e)
			hub.Broadcast(e)
		}
	}()

	mgr := manager.New(controller, decoder)
	service := apiconnect.NewPlayerService(mgr, hub)

	mux := http.NewServeMux()
	service.Register(mux)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting daemon: addr=%s backend=%s", cfg.Server.Addr, cfg.Output.Backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zlog.Info().Msgf("Received %v, shutting down...", sig)
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	controller.Close()
	<-pumpDone

	zlog.Info().Msg("Daemon stopped")
	return nil
}

func logEvent(e playback.Event) {
	switch e.Type {
	case playback.EventTrackFailed:
		zlog.Warn().Msgf("playback: %s: index=%d title=%s err=%v", e.Type, e.Index, e.Track.DisplayTitle(), e.Err)
	case playback.EventQueueEmpty:
		zlog.Info().Msgf("playback: %s", e.Type)
	default:
		zlog.Info().Msgf("playback: %s: index=%d title=%s state=%s", e.Type, e.Index, e.Track.DisplayTitle(), e.State)
	}
}
