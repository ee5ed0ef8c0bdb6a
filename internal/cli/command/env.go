package command

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/netverify-go/internal/cli/config"
	"github.com/yndnr/netverify-go/internal/cli/connection"
	"github.com/yndnr/netverify-go/internal/cli/output"
	"github.com/yndnr/netverify-go/internal/core/domain"
	"github.com/yndnr/netverify-go/internal/core/service"
	"github.com/yndnr/netverify-go/internal/infra/shutdown"
	"github.com/yndnr/netverify-go/internal/storage"
	"github.com/yndnr/netverify-go/internal/telemetry/logger"
	"github.com/yndnr/netverify-go/internal/telemetry/metric"
)

// DiagnosticRetention bounds how long journal entries are kept.
const DiagnosticRetention = 30 * 24 * time.Hour

// Env is the runtime of one CLI invocation or REPL session.
type Env struct {
	Config     *config.CLIConfig
	ConfigPath string
	Logger     *slog.Logger
	Out        io.Writer
	Err        io.Writer

	conn       *connection.Manager
	metrics    *metric.Registry
	shutdown   *shutdown.Handler
	store      storage.Store
	ownStore   bool
	depth      int
	lineFormat output.Format

	once     sync.Once
	initErr  error
	contexts *storage.ContextStore
	journal  *storage.Journal
	session  *service.SessionService
	executor *service.QueryExecutor
	orch     *service.Orchestrator
}

func newEnv(c *cli.Context, o *appOptions) (*Env, error) {
	path := c.String("config")
	cfg, err := config.Load(path, flagOverrides(c))
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	slogger := log.Slog()
	if !config.Exists(path) {
		slogger.Debug("config file not found, using defaults", "path", path)
	}

	connOpts := []connection.Option{connection.WithLogger(slogger)}
	if o.httpClient != nil {
		connOpts = append(connOpts, connection.WithHTTPClient(o.httpClient))
	}

	env := &Env{
		Config:     cfg,
		ConfigPath: path,
		Logger:     slogger,
		Out:        c.App.Writer,
		Err:        c.App.ErrWriter,
		conn:       connection.NewManager(cfg.Engine, connOpts...),
		metrics:    metric.NewRegistry(),
		shutdown:   shutdown.NewHandler(shutdown.DefaultTimeout),
		store:      o.store,
	}

	// Hooks run in reverse order: metrics are written first, the state
	// store is closed last.
	env.shutdown.OnShutdown("state", func(context.Context) error {
		if env.ownStore && env.store != nil {
			return env.store.Close()
		}
		return nil
	})
	env.shutdown.OnShutdown("engine", func(context.Context) error {
		return env.conn.Close()
	})
	env.shutdown.OnShutdown("metrics", func(context.Context) error {
		return env.metrics.WriteTextfile(cfg.Metrics.Textfile)
	})
	return env, nil
}

// Close runs the shutdown hooks.
func (e *Env) Close() error {
	return e.shutdown.Shutdown()
}

// Format returns the output format of the current command line.
func (e *Env) Format() output.Format {
	if e.lineFormat != "" {
		return e.lineFormat
	}
	f, err := output.ParseFormat(e.Config.Output.Format)
	if err != nil {
		return output.FormatTable
	}
	return f
}

func (e *Env) setLineFormat(s string) error {
	f, err := output.ParseFormat(s)
	if err != nil {
		return err
	}
	e.lineFormat = f
	return nil
}

// Print renders data in the current output format.
func (e *Env) Print(data any) error {
	return output.NewFormatter(e.Format()).Format(e.Out, data)
}

// Spinner returns a spinner on stderr for a long engine operation. It is
// silent unless stderr is a terminal and the output format is a table.
func (e *Env) Spinner(message string) *output.Spinner {
	w := e.Err
	if e.Format() != output.FormatTable {
		w = io.Discard
	}
	s := output.NewSpinner(w, message)
	s.Start()
	return s
}

// Session returns the session service, building the services on first use.
func (e *Env) Session(ctx context.Context) (*service.SessionService, error) {
	if err := e.init(ctx); err != nil {
		return nil, err
	}
	return e.session, nil
}

// Executor returns the query executor.
func (e *Env) Executor(ctx context.Context) (*service.QueryExecutor, error) {
	if err := e.init(ctx); err != nil {
		return nil, err
	}
	return e.executor, nil
}

// Orchestrator returns the differential orchestrator.
func (e *Env) Orchestrator(ctx context.Context) (*service.Orchestrator, error) {
	if err := e.init(ctx); err != nil {
		return nil, err
	}
	return e.orch, nil
}

// Journal returns the diagnostic journal.
func (e *Env) Journal(ctx context.Context) (*storage.Journal, error) {
	if err := e.init(ctx); err != nil {
		return nil, err
	}
	return e.journal, nil
}

// ActiveContext returns the active context without building the engine
// client.
func (e *Env) ActiveContext(ctx context.Context) (domain.Context, error) {
	if e.session != nil {
		return e.session.Context(), nil
	}
	store, err := e.stateStore()
	if err != nil {
		return domain.Context{}, err
	}
	active, err := storage.NewContextStore(store).Load(ctx)
	if err != nil {
		return domain.Context{}, err
	}
	if !active.HasNetwork() && e.Config.Session.Network != "" {
		active = domain.Context{Network: e.Config.Session.Network, Snapshot: e.Config.Session.Snapshot}
	}
	return active, nil
}

func (e *Env) init(ctx context.Context) error {
	e.once.Do(func() {
		e.initErr = e.build(ctx)
	})
	return e.initErr
}

func (e *Env) build(ctx context.Context) error {
	client, err := e.conn.Client()
	if err != nil {
		return err
	}
	store, err := e.stateStore()
	if err != nil {
		return err
	}

	e.contexts = storage.NewContextStore(store)
	e.journal = storage.NewJournal(store, DiagnosticRetention)
	cache := service.NewResultCache(e.Config.Session.CacheSize)

	e.session = service.NewSessionService(client,
		service.WithContextStore(e.contexts),
		service.WithSessionCache(cache),
		service.WithSessionLogger(e.Logger),
	)
	if _, err := e.session.Restore(ctx); err != nil {
		e.Logger.Warn("persisted context not restored", "error", err)
	}
	e.session.Seed(domain.Context{Network: e.Config.Session.Network, Snapshot: e.Config.Session.Snapshot})

	e.executor = service.NewQueryExecutor(client, e.session,
		service.WithCache(cache),
		service.WithRecorder(service.NewJournalRecorder(e.journal)),
		service.WithMetrics(e.metrics),
		service.WithLogger(e.Logger),
	)
	e.orch = service.NewOrchestrator(client, e.session, e.executor)
	return nil
}

// State returns the local state store.
func (e *Env) State() (storage.Store, error) {
	return e.stateStore()
}

// stateStore opens the badger store under state.dir once. When it cannot
// be opened (another netverify-cli holds the lock) an in-memory store is
// used and context changes are not persisted.
func (e *Env) stateStore() (storage.Store, error) {
	if e.store != nil {
		return e.store, nil
	}

	dir := e.Config.State.Dir
	var (
		store *storage.BadgerStore
		err   error
	)
	if err = os.MkdirAll(dir, 0o700); err == nil {
		store, err = storage.OpenBadger(storage.DefaultConfig(dir), e.Logger)
	}
	if err != nil {
		e.Logger.Warn("state store unavailable, context will not persist", "dir", dir, "error", err)
		if store, err = storage.OpenBadger(storage.InMemoryConfig(), e.Logger); err != nil {
			return nil, domain.ErrStorageError.WithDetails("open in-memory state").WithCause(err)
		}
	}
	if err := store.RegisterMetrics(e.metrics.Registerer()); err != nil {
		e.Logger.Debug("state metrics not registered", "error", err)
	}

	e.store = store
	e.ownStore = true
	return store, nil
}
