package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/satsrate/internal/config"
	"github.com/five82/satsrate/internal/logging"
	"github.com/five82/satsrate/internal/offline"
	"github.com/five82/satsrate/internal/prefs"
	"github.com/five82/satsrate/internal/quote"
	"github.com/five82/satsrate/internal/server"
	"github.com/five82/satsrate/internal/state"
	"github.com/five82/satsrate/internal/ui"
)

const shutdownTimeout = 10 * time.Second

// Options configure the satsrate application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/satsrate/prefs.toml
	// Seed is a share-link query ("jpy=1000") or a full share link.
	Seed string
	// Host is the base URL of a running host for the update commands; empty
	// uses the configured listen address.
	Host string
}

type runtime struct {
	cfg       config.Config
	log       *logging.Log
	store     *state.Store
	refresher *Refresher
}

func setup(opts Options) (*runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logging.Default()
	if err := log.Configure(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cfg.LogFile,
		MaxAge: cfg.LogMaxAge,
	}); err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}

	client, err := quote.NewClient(cfg.QuoteURL, quote.WithMinInterval(cfg.MinRefreshInterval))
	if err != nil {
		return nil, fmt.Errorf("init quote client: %w", err)
	}
	log.WithComponent("app").WithField("endpoint", client.Endpoint()).Debug("quote client ready")

	store := &state.Store{}
	return &runtime{
		cfg:       cfg,
		log:       log,
		store:     store,
		refresher: NewRefresher(client, store, log),
	}, nil
}

// Run boots the converter TUI until the user quits or the context is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	userPrefs, _ := prefs.Load(opts.PrefsPath)

	rt.log.WithComponent("app").Info("starting converter")
	err = ui.Run(ui.Options{
		Context:      ctx,
		Refresher:    rt.refresher,
		Store:        rt.store,
		ShareBaseURL: rt.cfg.ShareBaseURL,
		Seed:         opts.Seed,
		ThemeName:    userPrefs.Theme,
		Focus:        userPrefs.FocusField(),
		PrefsPath:    opts.PrefsPath,
		LogPath:      rt.cfg.LogFile,
		Log:          rt.log,
	})
	if err != nil && ctx.Err() != nil {
		// Interrupted by a signal rather than a UI failure.
		return nil
	}
	return err
}

// Serve runs the HTTP host: rate API, offline asset cache and the page
// message socket. It returns once ctx is cancelled and in-flight lifecycle
// work has finished.
func Serve(ctx context.Context, opts Options) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	log := rt.log.WithComponent("app")

	storage, closeStorage, err := openStorage(ctx, rt.cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	fetcher, err := offline.NewHTTPFetcher(rt.cfg.AssetOrigin, nil)
	if err != nil {
		return err
	}
	mgr, err := offline.NewManager(offline.Options{
		Storage:         storage,
		Fetcher:         fetcher,
		Assets:          rt.cfg.Assets,
		Prefix:          rt.cfg.CachePrefix,
		AutoSkipWaiting: rt.cfg.AutoSkipWaiting,
		Log:             rt.log,
	})
	if err != nil {
		return fmt.Errorf("init offline cache: %w", err)
	}

	handler := server.New(server.Options{
		Store:        rt.store,
		Refresher:    rt.refresher,
		Offline:      mgr,
		ShareBaseURL: rt.cfg.ShareBaseURL,
		Log:          rt.log,
		Busy:         func(err error) bool { return errors.Is(err, ErrRefreshInFlight) },
	})
	httpSrv := &http.Server{
		Addr:              rt.cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		if _, err := rt.refresher.Refresh(ctx); err != nil {
			log.WithError(err).Warn("initial rate fetch failed")
		}
	}()
	go func() {
		if err := mgr.Install(ctx, rt.cfg.CacheVersion); err != nil {
			log.WithError(err).Warn("initial install failed")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("listen", rt.cfg.Listen).Info("serving")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	if err := mgr.Close(shutdownCtx); err != nil {
		return fmt.Errorf("wait for offline cache: %w", err)
	}
	log.Info("stopped")
	return nil
}

func openStorage(ctx context.Context, cfg config.Config) (offline.Storage, func(), error) {
	switch cfg.CacheBackend {
	case config.BackendRedis:
		rs, err := offline.NewRedisStorage(ctx, cfg.RedisURL, strings.TrimSuffix(cfg.CachePrefix, "-"))
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil
	default:
		return offline.NewMemoryStorage(), func() {}, nil
	}
}

// CheckUpdate asks a running host whether a new asset version is installed
// and waiting.
func CheckUpdate(ctx context.Context, opts Options) (string, error) {
	port, err := dialHost(ctx, opts)
	if err != nil {
		return "", err
	}
	defer port.Close()
	return port.CheckUpdate(ctx)
}

// SkipWaiting activates the waiting version on a running host and returns
// the version now active.
func SkipWaiting(ctx context.Context, opts Options) (string, error) {
	port, err := dialHost(ctx, opts)
	if err != nil {
		return "", err
	}
	defer port.Close()
	if err := port.SkipWaiting(); err != nil {
		return "", err
	}
	return port.Version(ctx)
}

func dialHost(ctx context.Context, opts Options) (*offline.Port, error) {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		cfg, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		host = cfg.Listen
	}
	target, err := socketURL(host)
	if err != nil {
		return nil, err
	}
	return offline.Dial(ctx, target)
}

// socketURL turns a host address or base URL into the /sw websocket URL.
func socketURL(host string) (string, error) {
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	u, err := url.Parse(host)
	if err != nil {
		return "", fmt.Errorf("parse host: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("host %q: unsupported scheme", host)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/sw"
	u.RawQuery = ""
	return u.String(), nil
}
