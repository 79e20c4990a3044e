package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roman-kulish/skytrack/internal/alignment"
	"github.com/roman-kulish/skytrack/internal/catalog"
	"github.com/roman-kulish/skytrack/internal/mount"
	"github.com/roman-kulish/skytrack/internal/mount/indi"
	"github.com/roman-kulish/skytrack/internal/mount/sim"
	"github.com/roman-kulish/skytrack/internal/sky"
	"github.com/roman-kulish/skytrack/internal/telescope"
	"github.com/roman-kulish/skytrack/internal/tracking"
)

const (
	statusInterval  = time.Minute
	shutdownTimeout = 5 * time.Second
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	store, err := createCatalog(ctx, &config.Catalog, logger)
	if err != nil {
		return fmt.Errorf("failed to create catalog: %w", err)
	}
	defer store.Close()

	link, err := createLink(&config.Mount, config.Observer.Observer(), logger)
	if err != nil {
		return fmt.Errorf("failed to create mount link: %w", err)
	}

	options := []func(*tracking.Tracker){
		tracking.WithLogger(logger),
		tracking.WithInterval(config.Tracking.Interval),
		tracking.WithAlertThreshold(config.Tracking.AlertThreshold),
		tracking.WithHistoryCapacity(config.Tracking.HistoryCapacity),
		tracking.WithLinkTimeout(config.Tracking.LinkTimeout),
		tracking.WithAlertHandler(func(a tracking.Alert) {
			logger.Warn(a.String(), slog.String("tracker", config.Settings.ID))
		}),
	}

	if config.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		metrics, err := tracking.NewMetrics(reg, config.Settings.ID)
		if err != nil {
			return fmt.Errorf("failed to create metrics: %w", err)
		}
		options = append(options, tracking.WithMetrics(metrics))

		stop := serveMetrics(config.Metrics.Listen, reg, logger)
		defer stop()
	}

	pool := alignment.NewPool(store, sky.NewAssessor(config.Alignment.Visibility), sky.LowPrecisionEphemeris{},
		alignment.WithMagnitudeCeiling(config.Alignment.MagnitudeCeiling),
		alignment.WithPoolLogger(logger),
	)
	ranker := alignment.NewRanker(alignment.WithMaxCandidates(config.Alignment.MaxCandidates))

	controller := telescope.New(tracking.New(link, options...),
		telescope.WithLogger(logger),
		telescope.WithAlignment(pool, ranker),
	)

	if err = controller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start tracking: %w", err)
	}
	started := time.Now()

	if config.Alignment.Enabled {
		suggest(ctx, controller, &config.Observer, config.Alignment.MaxGroups, logger)
	}

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			logStatus(controller, started, logger)
		}
	}

	controller.Stop()
	logStatus(controller, started, logger)

	if config.Export.Path != "" {
		export(controller, &config.Export, logger)
	}

	return nil
}

func createLink(config *MountConfig, observer sky.Observer, logger *slog.Logger) (mount.Link, error) {
	switch config.Type {
	case MountTypeSim:
		return sim.New(
			sim.WithObserver(observer),
			sim.WithPosition(mount.RADec{RAHours: config.Sim.RAHours, DecDegrees: config.Sim.DecDegrees}),
			sim.WithDrift(config.Sim.DriftRA, config.Sim.DriftDec),
		), nil

	case MountTypeINDI:
		link, err := indi.New(&config.INDI, indi.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("creating INDI link: %w", err)
		}
		logger.Info(fmt.Sprintf("using INDI device %s", config.INDI.String()))
		return link, nil

	default:
		return nil, fmt.Errorf("creating mount link: unknown type '%s'", config.Type)
	}
}

func createCatalog(ctx context.Context, config *CatalogConfig, logger *slog.Logger) (*catalog.SqliteCatalog, error) {
	store := catalog.NewSqliteCatalog(config.Path)

	if config.Seed {
		if err := store.Seed(ctx, catalog.DefaultObjects()); err != nil {
			return nil, errors.Join(fmt.Errorf("seeding catalog: %w", err), store.Close())
		}
	}

	if config.SeedFile != "" {
		objects, err := loadSeedFile(config.SeedFile)
		if err != nil {
			return nil, errors.Join(err, store.Close())
		}
		if err = store.Seed(ctx, objects); err != nil {
			return nil, errors.Join(fmt.Errorf("seeding catalog from %s: %w", config.SeedFile, err), store.Close())
		}
	}

	n, err := store.Count(ctx)
	if err != nil {
		return nil, errors.Join(err, store.Close())
	}
	if n == 0 {
		logger.Warn("catalog is empty, alignment suggestions will be empty", slog.String("path", config.Path))
	}
	logger.Info(fmt.Sprintf("catalog holds %s objects", humanize.Comma(int64(n))), slog.String("path", config.Path))

	return store, nil
}

func loadSeedFile(path string) ([]sky.Object, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()

	objects, err := catalog.LoadYAML(f)
	if err != nil {
		return nil, fmt.Errorf("loading seed file %s: %w", path, err)
	}
	return objects, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("serving metrics", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(fmt.Sprintf("metrics server failed: %s", err.Error()))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warn(fmt.Sprintf("metrics server shutdown: %s", err.Error()))
		}
	}
}

func suggest(ctx context.Context, c *telescope.Controller, observer *ObserverConfig, maxGroups int, logger *slog.Logger) {
	groups, err := c.SuggestSkyAlignObjects(ctx, observer.Latitude, observer.Longitude, maxGroups)
	if err != nil {
		logger.Error(fmt.Sprintf("alignment suggestions failed: %s", err.Error()))
		return
	}
	if len(groups) == 0 {
		logger.Info("no alignment groups available for the current sky")
		return
	}

	for i, g := range groups {
		names := make([]string, 0, len(g.Candidates))
		for _, cand := range g.Candidates {
			names = append(names, fmt.Sprintf("%s (%.0f°)", cand.Name, cand.AltitudeDeg))
		}
		logger.Info(fmt.Sprintf("alignment group %d: %s", i+1, strings.Join(names, ", ")),
			slog.Float64("score", g.Score),
			slog.Float64("minSeparation", g.MinSeparationDeg),
		)
	}
}

func logStatus(c *telescope.Controller, started time.Time, logger *slog.Logger) {
	state := c.State()
	stats := c.HistoryStats()

	logger.Info(fmt.Sprintf("tracking started %s, %s samples", humanize.RelTime(started, time.Now(), "ago", "from now"), humanize.Comma(int64(stats.Count))),
		slog.Group("drift",
			slog.Float64("ra_arcsec", stats.RADriftArcsec),
			slog.Float64("dec_arcsec", stats.DecDriftArcsec),
		),
		slog.Int64("errors", state.ErrorCount),
		slog.Int64("alerts", state.AlertCount),
	)
}

func export(c *telescope.Controller, config *ExportConfig, logger *slog.Logger) {
	ok, msg := c.ExportHistory(config.Path, config.Format)
	if !ok {
		logger.Warn(msg, slog.String("path", config.Path))
		return
	}

	attrs := []any{slog.String("path", config.Path)}
	if stat, err := os.Stat(config.Path); err == nil {
		attrs = append(attrs, slog.String("size", humanize.Bytes(uint64(stat.Size()))))
	}
	logger.Info(msg, attrs...)
}
