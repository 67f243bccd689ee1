package daemon

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/matheus3301/lounge/internal/adapter"
	"github.com/matheus3301/lounge/internal/bridge"
	"github.com/matheus3301/lounge/internal/bus"
	"github.com/matheus3301/lounge/internal/chatstate"
	"github.com/matheus3301/lounge/internal/config"
	"github.com/matheus3301/lounge/internal/lock"
	"github.com/matheus3301/lounge/internal/logging"
	"github.com/matheus3301/lounge/internal/network"
	"github.com/matheus3301/lounge/internal/profile"
	"github.com/matheus3301/lounge/internal/protocol"
	"github.com/matheus3301/lounge/internal/state"
	"github.com/matheus3301/lounge/internal/store"
	"github.com/matheus3301/lounge/internal/wa"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Version is reported to the protocol as the application version.
var Version = "0.1.0"

// Params holds the resolved profile configuration passed to the fx modules.
type Params struct {
	Profile string
	// Binary names the log file.
	Binary string
	// Config is the loaded global config; nil loads it from ConfigPath.
	Config     *config.Config
	ConfigPath string
	SocketPath string // optional override for testing; empty = use default
	// Stderr mirrors the log to stderr. Hosts owning the terminal leave it off.
	Stderr bool
	// Prompter answers handshake prompts; nil makes prompts fail.
	Prompter adapter.Prompter
}

// EventLogger routes fx's own events to the profile log instead of stderr.
var EventLogger = fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: l.Named("fx")}
})

// Core returns the fx module shared by every host: the cache, the WhatsApp
// device, the event bus, the chat store, the bridge, the adapter and the
// network worker. The host is responsible for draining the bus.
func Core(p Params) fx.Option {
	return fx.Module("core",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideLock,
			provideCache,
			provideDevice,
			provideBus,
			provideChatStore,
			provideBridge,
			provideAdapter,
			provideManager,
		),
		fx.Invoke(registerCore),
	)
}

// Module returns the headless daemon: Core plus the tick loop and the
// health server.
func Module(p Params) fx.Option {
	if p.Binary == "" {
		p.Binary = "lounged"
	}
	return fx.Options(
		Core(p),
		fx.Module("daemon",
			fx.Provide(NewServer),
			fx.Invoke(registerDaemon),
		),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	if err := profile.EnsureDir(p.Profile); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}
	binary := p.Binary
	if binary == "" {
		binary = "lounge"
	}
	return logging.New(profile.LogPath(p.Profile, binary), p.Profile, logging.Options{Stderr: p.Stderr})
}

func provideConfig(p Params) (*config.FileStore, *config.Config, error) {
	path := p.ConfigPath
	if path == "" {
		path = profile.ConfigPath()
	}
	cfg := p.Config
	if cfg == nil {
		var err error
		if cfg, err = config.LoadOrDefault(path); err != nil {
			return nil, nil, err
		}
	}
	return config.NewFileStore(path, cfg), cfg, nil
}

func provideLock(lc fx.Lifecycle, p Params, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring profile lock", zap.String("profile", p.Profile))
	l, err := lock.Acquire(profile.Dir(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired", zap.String("path", l.Path()))
	lc.Append(fx.StopHook(func() {
		if err := l.Release(); err != nil {
			logger.Warn("error releasing lock", zap.Error(err))
		}
	}))
	return l, nil
}

// provideCache depends on the lock so no two processes migrate or write
// the same cache.
func provideCache(lc fx.Lifecycle, p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.CacheDBPath(p.Profile)
	db, result, err := store.OpenMigrated(dbPath)
	if err != nil {
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	lc.Append(fx.StopHook(db.Close))
	return db, nil
}

func provideDevice(lc fx.Lifecycle, p Params, cfg *config.Config, _ *lock.Lock, logger *zap.Logger) (*wa.Device, error) {
	if cfg.Protocol != "" && cfg.Protocol != "whatsapp" {
		return nil, fmt.Errorf("unsupported protocol %q", cfg.Protocol)
	}
	dev, err := wa.OpenDevice(context.Background(), profile.DeviceDBPath(p.Profile), logger.Named("wa"))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(dev.Close))
	return dev, nil
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideChatStore() *chatstate.Store {
	return chatstate.NewStore()
}

func provideBridge(lc fx.Lifecycle, b *bus.Bus, st *chatstate.Store, cfg *config.Config, logger *zap.Logger) *bridge.Bridge {
	br := bridge.Register(b, st, bridge.Options{MaxChats: cfg.UI.MaxChats}, logger.Named("bridge"))
	lc.Append(fx.StopHook(br.Close))
	return br
}

func provideAdapter(p Params, dev *wa.Device, db *store.DB, b *bus.Bus, creds *config.FileStore, cfg *config.Config, logger *zap.Logger) *adapter.Adapter {
	source := cfg.Protocol
	if source == "" {
		source = "whatsapp"
	}
	return adapter.New(wa.Opener(dev, db, logger.Named("wa")), b, creds, p.Prompter, adapter.Options{
		Source:             source,
		PollTimeout:        cfg.Network.PollTimeout.Duration,
		AggregationTimeout: cfg.Network.AggregationTimeout.Duration,
		Parameters: protocol.SetParameters{
			DatabaseDir:    profile.Dir(p.Profile),
			DeviceModel:    wa.DeviceName,
			AppVersion:     Version,
			SystemLanguage: "en",
		},
	}, logger.Named("adapter"))
}

func provideManager(a *adapter.Adapter, cfg *config.Config, logger *zap.Logger) *network.Manager {
	return network.NewManager(a, network.Options{QueueSize: cfg.Network.QueueSize}, logger.Named("network"))
}

func registerCore(lc fx.Lifecycle, mgr *network.Manager, st *chatstate.Store, _ *bridge.Bridge, cfg *config.Config, logger *zap.Logger) {
	var tok state.Token
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			tok = WatchReady(st, func() {
				logger.Info("backend ready, requesting chats", zap.Int("limit", cfg.UI.ChatLimit))
				mgr.RequestChats(cfg.UI.ChatLimit)
			})
			return mgr.Start()
		},
		OnStop: func(context.Context) error {
			mgr.Stop()
			st.Unsubscribe(tok)
			return nil
		},
	})
}

// WatchReady calls onReady every time the backend becomes ready.
// Subscribers run on the dispatching goroutine, so onReady must not block.
func WatchReady(st *chatstate.Store, onReady func()) state.Token {
	var ready atomic.Bool
	return st.Subscribe(func(s chatstate.State) {
		if was := ready.Swap(s.BackendReady); s.BackendReady && !was {
			onReady()
		}
	})
}

func registerDaemon(lc fx.Lifecycle, sh fx.Shutdowner, srv *Server, mgr *network.Manager, b *bus.Bus, st *chatstate.Store, cfg *config.Config, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	pumped := make(chan struct{})
	var tok state.Token

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			tok = st.Subscribe(func(s chatstate.State) { srv.SetServing(s.BackendReady) })

			go func() {
				if err := srv.Serve(); err != nil {
					logger.Error("health server failed", zap.Error(err))
				}
			}()

			go func() {
				defer close(pumped)
				_ = Pump(ctx, b, cfg.UI.TickInterval.Duration)
			}()

			go func() {
				select {
				case <-mgr.Done():
				case <-ctx.Done():
					return
				}
				if err := mgr.Err(); err != nil {
					logger.Error("backend failed to start", zap.Error(err))
					_ = sh.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			<-pumped
			st.Unsubscribe(tok)
			srv.Stop(stopCtx)
			logger.Info("daemon stopped")
			return nil
		},
	})
}

// Pump drains the bus every interval until ctx is done. It is the host
// loop for processes without a UI.
func Pump(ctx context.Context, b *bus.Bus, interval time.Duration) error {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.Dispatch()
		case <-ctx.Done():
			b.Dispatch()
			return ctx.Err()
		}
	}
}
