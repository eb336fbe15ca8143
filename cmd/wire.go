package main

import (
	"context"
	"docscan/internal/chrome"
	"docscan/internal/config"
	"docscan/internal/engine"
	"docscan/internal/engine/directory"
	"docscan/internal/engine/escl"
	"docscan/internal/host"
	"docscan/internal/launcher"
	"docscan/internal/resource"
	"docscan/internal/sanitizer"
	"docscan/internal/session"
	"docscan/pkg/logger"
	"docscan/pkg/metrics"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// getEngine builds the scanning engine selected in the configuration.
func getEngine(cfg *config.Config) (engine.Engine, error) {
	if err := os.MkdirAll(cfg.Engine.PageStore, 0o750); err != nil {
		return nil, fmt.Errorf("could not create page store: %w", err)
	}

	switch cfg.Engine.Kind {
	case config.EngineESCL:
		return escl.New(&http.Client{Timeout: cfg.Engine.ESCL.Timeout}, escl.Options{ //nolint: wrapcheck
			URL:          cfg.Engine.ESCL.URL,
			PageStore:    cfg.Engine.PageStore,
			PollInterval: cfg.Engine.ESCL.PollInterval,
			Resolution:   cfg.Engine.ESCL.Resolution,
			ColorMode:    cfg.Engine.ESCL.ColorMode,
			Source:       cfg.Engine.ESCL.Source,
		})
	case config.EngineDirectory:
		return directory.New(directory.Options{ //nolint: wrapcheck
			Inbox:     cfg.Engine.Directory.Inbox,
			PageStore: cfg.Engine.PageStore,
		})
	default:
		return nil, fmt.Errorf("unknown engine kind %q", cfg.Engine.Kind)
	}
}

// scanService is the wired scan session stack.
type scanService struct {
	coordinator *session.Coordinator
	window      *host.Window
}

// getScanService wires engine, launcher, sanitizer, chrome guard and the host
// window into a coordinator. The coordinator loop runs until ctx is done.
func getScanService(ctx context.Context, cfg *config.Config) *scanService {
	e, err := getEngine(cfg)
	if err != nil {
		logger.Fatal(ctx, "could not create scanning engine", zap.Error(err), zap.String("kind", cfg.Engine.Kind))
	}

	mp, err := metrics.NewMeterProvider(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal(ctx, "could not create meter provider", zap.Error(err))
	}
	sessionMetrics, err := metrics.NewSessions(mp)
	if err != nil {
		logger.Fatal(ctx, "could not create session metrics", zap.Error(err))
	}

	window := host.NewWindow(ctx, cfg.Host.SurfaceID, cfg.Host.ChromeVisible)
	if !cfg.Host.Attached {
		window.Detach()
	}

	resolver := resource.NewMux(resource.File{}, resource.NewHTTP(&http.Client{Timeout: cfg.Sanitizer.ResourceTimeout}))

	coordinator := session.New(session.Deps{
		Surfaces:  host.Static{Surface: window},
		Launcher:  launcher.New(e, launcher.Options{Mode: engine.Mode(cfg.Engine.Mode)}),
		Sanitizer: sanitizer.New(resolver, sanitizer.Options{Workers: cfg.Sanitizer.Workers}),
		Guard:     chrome.New(chrome.Enabled(cfg.Host.PlatformVersion, cfg.Session.ChromeGuardVersion)),
		Metrics:   sessionMetrics,
	}, session.Options{
		PlatformVersion:    cfg.Host.PlatformVersion,
		MinPlatformVersion: cfg.Session.MinPlatformVersion,
		QueueSize:          cfg.Session.QueueSize,
	})

	go func() {
		coordinator.Run(ctx)
		logger.Info(ctx, "scan coordinator stopped")
		if err := mp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn(ctx, "could not shut down meter provider", zap.Error(err))
		}
	}()
	logger.Info(ctx, "scan coordinator started",
		zap.String("engine", cfg.Engine.Kind),
		zap.String("surface", cfg.Host.SurfaceID),
		zap.Int("platformVersion", cfg.Host.PlatformVersion))

	return &scanService{coordinator: coordinator, window: window}
}
