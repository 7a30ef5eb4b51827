package offline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/five82/satsrate/internal/logging"
)

var (
	ErrClosed       = errors.New("offline manager closed")
	ErrNoWaiting    = errors.New("no generation waiting")
	ErrEmptyVersion = errors.New("empty version")
)

// StatusError reports a non-2xx asset response during install.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Code)
}

// Options configure a Manager.
type Options struct {
	Storage Storage
	Fetcher Fetcher
	// Assets are relative to Scope; DefaultAssets when empty.
	Assets []string
	// Prefix is prepended to the version to name a store.
	Prefix string
	Scope  string
	// AutoSkipWaiting activates a generation as soon as it installs.
	AutoSkipWaiting bool
	Log             *logging.Log
}

// pendingInstall tracks one running install. installed is set before done
// is closed.
type pendingInstall struct {
	done      chan struct{}
	installed bool
}

// Manager owns the generation registry and serves cached assets.
type Manager struct {
	storage  Storage
	fetcher  Fetcher
	assets   []string
	prefix   string
	autoSkip bool
	log      *logging.Entry

	mu       sync.Mutex
	registry Registry
	pending  map[string]*pendingInstall
	clients  map[string]*Client
	closed   bool
	wg       sync.WaitGroup
}

func NewManager(opts Options) (*Manager, error) {
	if opts.Storage == nil {
		return nil, errors.New("offline: storage is required")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("offline: fetcher is required")
	}
	assets := opts.Assets
	if len(assets) == 0 {
		assets = DefaultAssets
	}
	resolved, err := resolveAssets(opts.Scope, assets)
	if err != nil {
		return nil, err
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	log := opts.Log
	if log == nil {
		log = logging.Default()
	}
	return &Manager{
		storage:  opts.Storage,
		fetcher:  opts.Fetcher,
		assets:   resolved,
		prefix:   prefix,
		autoSkip: opts.AutoSkipWaiting,
		log:      log.WithComponent("offline"),
		pending:  make(map[string]*pendingInstall),
		clients:  make(map[string]*Client),
	}, nil
}

// StoreName is the storage name used for version.
func (m *Manager) StoreName(version string) string {
	return m.prefix + version
}

// Generations returns a snapshot of the registry.
func (m *Manager) Generations() []Generation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.Generations()
}

// Installing reports whether an install is running.
func (m *Manager) Installing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.Installing()
}

// ActiveVersion is the version serving requests, or "" before the first
// activation.
func (m *Manager) ActiveVersion() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, _ := m.registry.Active()
	return g.Version
}

// WaitUntil runs fn as lifecycle work; Close waits for it to finish.
func (m *Manager) WaitUntil(ctx context.Context, fn func(context.Context) error) error {
	if err := m.hold(); err != nil {
		return err
	}
	defer m.wg.Done()
	return fn(ctx)
}

func (m *Manager) hold() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.wg.Add(1)
	return nil
}

// Close refuses new lifecycle work and waits for in-flight work.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Install fetches every asset into a new store for version. On failure the
// partial store is removed, the generation becomes redundant and whatever was
// active keeps serving.
func (m *Manager) Install(ctx context.Context, version string) error {
	return m.WaitUntil(ctx, func(ctx context.Context) error {
		return m.install(ctx, version)
	})
}

func (m *Manager) install(ctx context.Context, version string) error {
	version = strings.TrimSpace(version)
	if version == "" {
		return ErrEmptyVersion
	}
	name := m.StoreName(version)

	m.mu.Lock()
	if g, ok := m.registry.Get(version); ok && g.Status == StatusActive {
		m.mu.Unlock()
		m.log.WithField("version", version).Debug("version already active")
		return nil
	}
	if err := m.registry.Begin(version, time.Now()); err != nil {
		m.mu.Unlock()
		return err
	}
	pending := &pendingInstall{done: make(chan struct{})}
	m.pending[version] = pending
	m.mu.Unlock()

	log := m.log.WithFields(logging.Fields{"version": version, "store": name})
	log.Info("installing")

	err := m.populate(ctx, name)

	m.mu.Lock()
	var superseded []string
	if err != nil {
		m.registry.MarkFailed(version, time.Now())
	} else {
		superseded, err = m.registry.MarkInstalled(version, time.Now())
	}
	pending.installed = err == nil
	delete(m.pending, version)
	close(pending.done)
	keep := m.liveStoresLocked()
	m.mu.Unlock()

	if err != nil {
		if _, derr := m.storage.Delete(ctx, name); derr != nil {
			log.WithError(derr).Warn("failed to remove partial store")
		}
		log.WithError(err).Warn("install failed")
		return fmt.Errorf("install %s: %w", version, err)
	}
	if len(superseded) > 0 {
		log.WithField("superseded", superseded).Info("replaced waiting generation")
	}
	log.Info("installed")

	m.broadcast(Reply{Type: TypeNewVersionInstalled})
	m.sweep(ctx, keep)

	if m.autoSkip {
		if err := m.activate(ctx); err != nil && !errors.Is(err, ErrNoWaiting) {
			return err
		}
	}
	return nil
}

// populate fetches every asset before storing any so a failed fetch leaves no
// half-written entries behind.
func (m *Manager) populate(ctx context.Context, name string) error {
	entries := make([]Entry, 0, len(m.assets))
	for _, asset := range m.assets {
		entry, err := m.fetchAsset(ctx, asset)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	if err := m.storage.Open(ctx, name); err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	for _, entry := range entries {
		if err := m.storage.Put(ctx, name, entry); err != nil {
			return fmt.Errorf("store %s: %w", entry.URL, err)
		}
	}
	return nil
}

func (m *Manager) fetchAsset(ctx context.Context, asset string) (Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return Entry{}, err
	}
	req.URL.Path = asset
	resp, err := m.fetcher.Fetch(ctx, req)
	if err != nil {
		return Entry{}, fmt.Errorf("fetch %s: %w", asset, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Entry{}, &StatusError{URL: asset, Code: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Entry{}, fmt.Errorf("read %s: %w", asset, err)
	}
	header := resp.Header.Clone()
	stripHopHeaders(header)
	header.Del("Content-Length")
	return Entry{URL: asset, Status: resp.StatusCode, Header: header, Body: body}, nil
}

// Activate promotes the waiting generation, removes every other store and
// claims attached clients.
func (m *Manager) Activate(ctx context.Context) error {
	return m.WaitUntil(ctx, m.activate)
}

func (m *Manager) activate(ctx context.Context) error {
	m.mu.Lock()
	waiting, ok := m.registry.Waiting()
	if !ok {
		m.mu.Unlock()
		return ErrNoWaiting
	}
	removed, err := m.registry.Promote(waiting.Version, time.Now())
	if err != nil {
		m.mu.Unlock()
		return err
	}
	keep := m.liveStoresLocked()
	m.mu.Unlock()

	m.log.WithFields(logging.Fields{"version": waiting.Version, "dropped": removed}).Info("activated")
	m.sweep(ctx, keep)
	m.claim(waiting.Version)
	return nil
}

func (m *Manager) liveStoresLocked() map[string]bool {
	keep := make(map[string]bool)
	for _, v := range m.registry.Live() {
		keep[m.StoreName(v)] = true
	}
	return keep
}

// sweep deletes every store not in keep. Errors are logged; the next
// transition sweeps again.
func (m *Manager) sweep(ctx context.Context, keep map[string]bool) {
	names, err := m.storage.Keys(ctx)
	if err != nil {
		m.log.WithError(err).Warn("list stores")
		return
	}
	for _, name := range names {
		if keep[name] {
			continue
		}
		if _, err := m.storage.Delete(ctx, name); err != nil {
			m.log.WithError(err).WithField("store", name).Warn("delete store")
			continue
		}
		m.log.WithField("store", name).Debug("deleted store")
	}
}

// CheckUpdateStatus answers whether a new version is installed. While an
// install is running it waits for the outcome; a successful install counts
// even if it was activated straight away.
func (m *Manager) CheckUpdateStatus(ctx context.Context) Reply {
	for {
		m.mu.Lock()
		if _, ok := m.registry.Waiting(); ok {
			m.mu.Unlock()
			return Reply{Type: TypeNewVersionInstalled}
		}
		var awaited *pendingInstall
		for _, p := range m.pending {
			awaited = p
			break
		}
		m.mu.Unlock()

		if awaited == nil {
			return Reply{Type: TypeNoUpdateFound}
		}
		select {
		case <-awaited.done:
			if awaited.installed {
				return Reply{Type: TypeNewVersionInstalled}
			}
		case <-ctx.Done():
			return Reply{Type: TypeNoUpdateFound}
		}
	}
}

// Handle processes one page message. Answers go to reply; a nil reply drops
// them. CHECK_UPDATE_STATUS may wait on an install, so it answers from its
// own goroutine.
func (m *Manager) Handle(ctx context.Context, msg Message, reply chan<- Reply) error {
	switch msg.Kind {
	case MsgSkipWaiting:
		err := m.Activate(ctx)
		if errors.Is(err, ErrNoWaiting) {
			m.log.Debug("skipWaiting with nothing waiting")
			return nil
		}
		return err
	case MsgCheckUpdateStatus:
		if err := m.hold(); err != nil {
			return err
		}
		go func() {
			defer m.wg.Done()
			send(ctx, reply, m.CheckUpdateStatus(ctx))
		}()
		return nil
	case MsgGetVersion:
		send(ctx, reply, versionReply(m.ActiveVersion()))
		return nil
	default:
		return fmt.Errorf("%w: kind %d", ErrUnknownMessage, int(msg.Kind))
	}
}

func send(ctx context.Context, reply chan<- Reply, r Reply) {
	if reply == nil {
		return
	}
	select {
	case reply <- r:
	case <-ctx.Done():
	}
}
