package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/bus"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/config"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/indexer"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/launcher"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/logging"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/mcp"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/session"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/store"
)

var serviceLog = logging.ForComponent(logging.CompService)

// Transport selects the endpoint the providers are served on
type Transport string

const (
	TransportDBus Transport = "dbus"
	TransportMCP  Transport = "mcp"
)

// ParseTransport validates a transport name
func ParseTransport(name string) (Transport, error) {
	switch t := Transport(name); t {
	case TransportDBus, TransportMCP:
		return t, nil
	default:
		return "", fmt.Errorf("unknown transport %q (want %s or %s)", name, TransportDBus, TransportMCP)
	}
}

// ErrNoProviders is returned when none of the enabled IDEs is installed
var ErrNoProviders = errors.New("no installed IDE found")

// Options locate the user environment. Zero values use the real one.
type Options struct {
	ConfigHome string            // Base directory of IDE configuration
	DataDirs   []string          // XDG data directories searched for desktop entries
	Launcher   launcher.Launcher // Starts applications
}

// Provider is one registered search provider
type Provider struct {
	Definition config.Provider
	App        launcher.App
	Indexer    *indexer.Indexer
	Manager    *session.Manager

	configHome string
}

// WatchTargets returns the directories the provider's store lives in
func (p *Provider) WatchTargets() []store.WatchTarget {
	return store.WatchTargetsFor(p.configHome, p.Definition.Location)
}

// Service holds the search providers of all installed IDEs
type Service struct {
	config    config.Config
	providers []*Provider
}

// New builds a provider for every enabled IDE whose application is installed.
// IDEs without a desktop entry are skipped.
func New(cfg config.Config, opts Options) (*Service, error) {
	if opts.ConfigHome == "" {
		home, err := config.ConfigHome()
		if err != nil {
			return nil, err
		}
		opts.ConfigHome = home
	}
	if opts.DataDirs == nil {
		opts.DataDirs = launcher.DataDirs()
	}
	if opts.Launcher == nil {
		opts.Launcher = launcher.NewCommandLauncher(cfg.Launch.Command)
	}

	s := &Service{config: cfg}
	for _, def := range cfg.Enabled() {
		app, err := launcher.FindAppIn(opts.DataDirs, def.DesktopID)
		if errors.Is(err, launcher.ErrAppNotFound) {
			serviceLog.Debug("provider_skipped", slog.String("desktop_id", def.DesktopID), slog.String("reason", err.Error()))
			continue
		}
		if err != nil {
			serviceLog.Warn("provider_skipped", slog.String("desktop_id", def.DesktopID), slog.String("error", err.Error()))
			continue
		}

		reader := store.Locate(def.DesktopID, opts.ConfigHome, def.Location)
		idx := indexer.New([]store.Reader{reader}, cfg.Indexer())
		s.providers = append(s.providers, &Provider{
			Definition: def,
			App:        app,
			Indexer:    idx,
			Manager:    session.New(app, idx, opts.Launcher, cfg.Session()),
			configHome: opts.ConfigHome,
		})
		serviceLog.Info("provider_created",
			slog.String("desktop_id", def.DesktopID),
			slog.String("app", app.Name),
			slog.String("store", reader.Path()))
	}
	return s, nil
}

// Providers returns the registered providers in table order
func (s *Service) Providers() []*Provider {
	return s.providers
}

// Definitions returns the table entries of the registered providers
func (s *Service) Definitions() []config.Provider {
	defs := make([]config.Provider, len(s.providers))
	for i, p := range s.providers {
		defs[i] = p.Definition
	}
	return defs
}

// Prefetch starts loading the first snapshot of every provider
func (s *Service) Prefetch(ctx context.Context) {
	for _, p := range s.providers {
		p.Indexer.Prefetch(ctx)
	}
}

// Watch runs the store watchers of all providers until ctx is done.
// A watcher that cannot start is logged; the provider keeps working
// on its debounce window alone.
func (s *Service) Watch(ctx context.Context) error {
	var g errgroup.Group
	for _, p := range s.providers {
		g.Go(func() error {
			if err := p.Indexer.Watch(ctx, p.WatchTargets, indexer.DefaultWatchDelay); err != nil {
				serviceLog.Warn("watch_failed",
					slog.String("desktop_id", p.Definition.DesktopID),
					slog.String("error", err.Error()))
			}
			return nil
		})
	}
	return g.Wait()
}

// Register exports every provider on srv, then acquires the bus names.
func (s *Service) Register(ctx context.Context, srv *bus.Server) error {
	for _, p := range s.providers {
		if err := srv.Export(ctx, p.Definition.ObjectPath(), p.Manager); err != nil {
			return err
		}
	}
	return srv.RequestNames(config.BusNames(s.Definitions()))
}

// MCPProviders returns the providers for the MCP endpoint
func (s *Service) MCPProviders() []mcp.Provider {
	out := make([]mcp.Provider, len(s.providers))
	for i, p := range s.providers {
		out[i] = mcp.Provider{
			DesktopID:  p.Definition.DesktopID,
			Label:      p.Definition.Label,
			ObjectPath: p.Definition.ObjectPath(),
			Searcher:   p.Manager,
		}
	}
	return out
}

// Run serves the providers on transport until ctx is done
func (s *Service) Run(ctx context.Context, transport Transport, version string) error {
	if len(s.providers) == 0 {
		return ErrNoProviders
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	if s.config.Watch {
		g.Go(func() error { return s.Watch(ctx) })
	}
	s.Prefetch(ctx)

	g.Go(func() error {
		// The endpoint ending, cleanly or not, stops the watchers too.
		defer cancel()
		switch transport {
		case TransportMCP:
			return s.serveMCP(ctx, version)
		default:
			return s.serveBus(ctx)
		}
	})
	return g.Wait()
}

func (s *Service) serveBus(ctx context.Context) error {
	conn, err := bus.ConnectSession()
	if err != nil {
		return err
	}
	srv := bus.NewServer(conn)
	defer func() { _ = srv.Close() }()

	if err := s.Register(ctx, srv); err != nil {
		return err
	}
	serviceLog.Info("service_ready",
		slog.String("transport", string(TransportDBus)),
		slog.Int("providers", len(s.providers)))

	<-ctx.Done()
	return nil
}

func (s *Service) serveMCP(ctx context.Context, version string) error {
	srv, err := mcp.NewServer(version, s.MCPProviders())
	if err != nil {
		return err
	}
	serviceLog.Info("service_ready",
		slog.String("transport", string(TransportMCP)),
		slog.Int("providers", len(s.providers)))

	errChan := make(chan error, 1)
	go func() { errChan <- srv.Serve(ctx) }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errChan:
		return err
	}
}
