package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"rigpath/backend/internal/assets"
	"rigpath/backend/internal/config"
	"rigpath/backend/internal/health"
	"rigpath/backend/internal/logging"
	"rigpath/backend/internal/path"
	"rigpath/backend/internal/playback"
	"rigpath/backend/internal/telemetry"
	"rigpath/backend/internal/transport/ws"
	"rigpath/backend/internal/world"
)

const shutdownTimeout = 5 * time.Second

func main() {
	flags := config.Flags("rigpath")
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := config.BindFlags(flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	configDir, _ := flags.GetString("config")
	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
	logger.Info().Msg("server stopped")
}

// app holds the long lived components shared by the HTTP, gRPC and playback
// goroutines.
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	stream    *ws.Server
	telemetry *telemetry.Manager
	ticker    *playback.Ticker
	health    *health.Server
}

func newApp(cfg *config.Config, logger zerolog.Logger) *app {
	a := &app{
		cfg:    cfg,
		logger: logger,
		stream: ws.NewServer(ws.Options{
			UpdateInterval: cfg.Stream.Interval,
			PingInterval:   cfg.Stream.Ping,
		}, logging.Component(logger, "ws")),
		telemetry: telemetry.NewManager(cfg.Telemetry.MaxEntries, cfg.Telemetry.PrintInterval,
			logging.Component(logger, "telemetry")),
		ticker: playback.NewTicker(cfg.Playback.TPS, logging.Component(logger, "ticker")),
		health: health.NewServer(logging.Component(logger, "health")),
	}
	a.telemetry.SetEnabled(cfg.Telemetry.Enabled)
	return a
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	a := newApp(cfg, logger)

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTP.Addr).Str("static", cfg.Static.Dir).Msg("http listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.GRPC.Enabled {
		g.Go(func() error {
			return a.health.ListenAndServe(ctx, cfg.GRPC.Addr)
		})
	}

	g.Go(func() error {
		return a.runPlayback(ctx)
	})

	return g.Wait()
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", a.stream.HandleWS)
	mux.HandleFunc("/telemetry", a.handleTelemetry)
	mux.HandleFunc("/telemetry/ticker", a.handleTickerStats)
	mux.Handle("/", http.FileServer(http.Dir(a.cfg.Static.Dir)))
	return mux
}

// handleTelemetry serves recorded frames on GET and drops them on DELETE.
func (a *app) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		data, err := a.telemetry.JSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(data); err != nil {
			a.logger.Error().Err(err).Msg("writing telemetry")
		}
	case http.MethodDelete:
		a.telemetry.Clear()
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "GET, DELETE")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type tickerResponse struct {
	Ticker  playback.TickerStats `json:"ticker"`
	Clients int                  `json:"clients"`
}

func (a *app) handleTickerStats(w http.ResponseWriter, r *http.Request) {
	resp := tickerResponse{
		Ticker:  a.ticker.Stats(),
		Clients: a.stream.ClientCount(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		a.logger.Error().Err(err).Msg("writing ticker stats")
	}
}

// runPlayback loads the rig, waits for every part and then runs the driver
// until ctx is done. Missing parts are reported to clients and leave the
// service up but not serving.
func (a *app) runPlayback(ctx context.Context) error {
	log := logging.Component(a.logger, "bootstrap")

	loader := assets.NewLoader(a.cfg.Assets.Dir, a.cfg.Assets.Concurrency, logging.Component(a.logger, "assets"))
	loader.OnError = func(name string, err error) {
		a.stream.ReportError(fmt.Sprintf("Error loading model: %s - %v", name, err))
	}

	loadCtx, cancel := context.WithTimeout(ctx, a.cfg.Assets.Timeout)
	defer cancel()

	// A failed load means Await can never complete, so it is cut short.
	awaitCtx, cancelAwait := context.WithCancel(loadCtx)
	defer cancelAwait()

	manager := world.NewManager()
	go func() {
		if err := loader.LoadAll(loadCtx, world.TrackedNames, manager); err != nil {
			log.Warn().Err(err).Msg("some models failed to load")
			cancelAwait()
		}
	}()

	registry, err := manager.Await(awaitCtx, world.TrackedNames...)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		log.Error().Err(err).Msg("rig incomplete, playback not started")
		return nil
	}

	waypoints, err := a.cfg.Waypoints()
	if err != nil {
		return err
	}

	overlay, err := path.NewOverlay(waypoints)
	if err != nil {
		a.stream.ReportError("Error drawing motion path: " + err.Error())
	}

	driver, err := playback.NewDriver(playback.DriverConfig{
		Waypoints:   waypoints,
		TotalFrames: a.cfg.Playback.TotalFrames,
		Layout:      a.cfg.Layout(),
	}, registry, logging.Component(a.logger, "playback"))
	if err != nil {
		return err
	}
	driver.AddObserver(a.stream)
	driver.AddObserver(a.telemetry)

	a.stream.SetScene(overlay, registry.Objects(), driver.TotalFrames())
	a.stream.SetController(a.ticker)
	a.ticker.RegisterSystem(driver)

	if err := a.ticker.Start(ctx); err != nil {
		log.Debug().Err(err).Msg("playback not started")
		return nil
	}
	a.health.MarkServing()
	log.Info().
		Int("totalFrames", driver.TotalFrames()).
		Int("waypoints", len(waypoints)).
		Msg("playback started")

	<-ctx.Done()
	a.ticker.Stop()
	a.health.MarkNotServing()
	return nil
}
