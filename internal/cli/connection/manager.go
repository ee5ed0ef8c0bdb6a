package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"connectrpc.com/connect"

	"github.com/yndnr/netverify-go/internal/cli/config"
	"github.com/yndnr/netverify-go/internal/engine"
	"github.com/yndnr/netverify-go/internal/infra/tlsroots"
)

// ErrClosed is returned by Client after Close.
var ErrClosed = errors.New("connection: manager closed")

// Manager owns the engine client of one CLI invocation or REPL session.
type Manager struct {
	cfg        config.EngineConfig
	logger     *slog.Logger
	httpClient connect.HTTPClient

	mu     sync.Mutex
	client *engine.Client
	certs  *tlsroots.Watcher
	closed bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for engine calls and certificate reloads.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithHTTPClient overrides the HTTP transport.
func WithHTTPClient(c connect.HTTPClient) Option {
	return func(m *Manager) {
		m.httpClient = c
	}
}

// NewManager creates a manager for the given engine settings.
func NewManager(cfg config.EngineConfig, opts ...Option) *Manager {
	m := &Manager{
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Address returns the configured engine address.
func (m *Manager) Address() string {
	return m.cfg.Address
}

// Client returns the engine client, creating it on first use.
func (m *Manager) Client() (*engine.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if m.client != nil {
		return m.client, nil
	}

	ecfg := engine.Config{
		Address:    m.cfg.Address,
		APIKey:     m.cfg.APIKey,
		Timeout:    m.cfg.Timeout,
		RateLimit:  m.cfg.RateLimit,
		Burst:      m.cfg.Burst,
		HTTPClient: m.httpClient,
		Logger:     m.logger,
	}

	tlsOpts := tlsroots.ClientOptions{
		CAFile:     m.cfg.CAFile,
		CertFile:   m.cfg.CertFile,
		KeyFile:    m.cfg.KeyFile,
		ServerName: m.cfg.ServerName,
		Insecure:   m.cfg.Insecure,
	}
	var certs *tlsroots.Watcher
	if tlsOpts.Enabled() {
		tlsCfg, w, err := tlsroots.ClientConfig(tlsOpts, tlsroots.WithLogger(m.logger))
		if err != nil {
			return nil, err
		}
		ecfg.TLSConfig = tlsCfg
		certs = w
	}

	client, err := engine.NewClient(ecfg)
	if err != nil {
		if certs != nil {
			certs.Stop()
		}
		return nil, err
	}

	if certs != nil {
		certs.StartAsync()
		m.certs = certs
	}
	m.client = client
	m.logger.Debug("engine client ready", "address", client.BaseURL(), "tls", ecfg.TLSConfig != nil)
	return client, nil
}

// Ping checks that the engine answers.
func (m *Manager) Ping(ctx context.Context) error {
	c, err := m.Client()
	if err != nil {
		return err
	}
	_, err = c.ListNetworks(ctx)
	return err
}

// Close releases the certificate watcher. The manager cannot be reused.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	if m.certs != nil {
		m.certs.Stop()
	}
	m.client = nil
	return nil
}
