package agent

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gilestrolab/ethosensor/internal/config"
	"github.com/gilestrolab/ethosensor/internal/discovery"
	"github.com/gilestrolab/ethosensor/internal/logging"
	"github.com/gilestrolab/ethosensor/internal/sensor"
	"github.com/gilestrolab/ethosensor/internal/server"
	"github.com/gilestrolab/ethosensor/internal/storage"
	"github.com/gilestrolab/ethosensor/internal/version"
)

// ErrRestart is returned by Run when a /reset request asked the daemon to
// restart. The caller decides whether to loop or exit and let the service
// manager bring it back.
var ErrRestart = errors.New("restart requested")

// Agent owns the daemon lifecycle: storage, sensor, discovery and the
// HTTP server, brought up in boot order and torn down together.
type Agent struct {
	cfg *Config
}

// New creates an Agent from a validated configuration.
func New(cfg *Config) *Agent {
	return &Agent{cfg: cfg}
}

// Run boots the node and serves until the context is cancelled or a
// restart is requested.
func (a *Agent) Run(ctx context.Context) error {
	logging.Info("Starting sensor node",
		zap.String("version", version.Version),
		zap.String("backend", a.cfg.Storage.Backend),
		zap.String("sensor", a.cfg.Sensor.Driver),
	)

	// Storage comes up first: the device configuration drives everything
	// else (instance name, mDNS TXT records).
	store := storage.New(a.newBackend())
	if err := store.Begin(); err != nil {
		return fmt.Errorf("storage init: %w", err)
	}

	deviceCfg := config.Default()
	if err := store.LoadConfig(&deviceCfg); err != nil {
		logging.Warn("No valid stored configuration, using defaults",
			zap.String("error", storage.ErrorString(store.LastError())),
		)
	} else {
		logging.Info("Loaded stored configuration",
			zap.String("name", deviceCfg.Name),
			zap.String("location", deviceCfg.Location),
		)
	}

	ip := waitForNetwork(ctx)
	if ip == "" {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Warn("No network address yet, continuing without one")
	}
	mac := macAddress()
	logging.Info("Node identity", zap.String("mac", mac), zap.String("ip", ip))

	poller := sensor.NewPoller(a.newReader())
	if err := poller.Init(ctx); err != nil {
		// The node still serves its configuration API; readings stay
		// marked stale until the driver comes up on a later poll.
		logging.Error("Sensor init failed", zap.Error(err))
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	go poller.Run(runCtx, a.cfg.PollInterval())

	if a.cfg.MDNS.Enabled {
		advertiser, err := discovery.Advertise(deviceCfg.Name, a.cfg.MDNS.Port, map[string]string{
			"id":       mac,
			"location": deviceCfg.Location,
			"version":  version.Version,
		})
		if err != nil {
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			logging.Info("Advertising service",
				zap.String("instance", deviceCfg.Name),
				zap.String("type", discovery.ServiceType),
			)
			defer advertiser.Shutdown()
		}
	}

	srv := server.New(&server.Config{
		Addr:           a.cfg.Listen,
		ID:             mac,
		IP:             ip,
		StreamInterval: a.cfg.PollInterval(),
	}, store, poller, deviceCfg, func() {
		cancel(ErrRestart)
	})

	err := srv.Run(runCtx)

	if cause := context.Cause(runCtx); errors.Is(cause, ErrRestart) {
		logging.Info("Restart requested, shutting down")
		return ErrRestart
	}
	return err
}

// newBackend builds the configured storage backend. The config is
// validated up front, so an unknown name here is a programming error.
func (a *Agent) newBackend() storage.Backend {
	switch a.cfg.Storage.Backend {
	case "kv":
		return storage.NewKVStore(filepath.Join(a.cfg.DataDir, "prefs"))
	default:
		return storage.NewBlockStore(filepath.Join(a.cfg.DataDir, "config.dat"))
	}
}

func (a *Agent) newReader() sensor.Reader {
	switch a.cfg.Sensor.Driver {
	case "sim":
		return sensor.NewSimReader(a.cfg.Sensor.SimSeed)
	default:
		return sensor.NewIIOReader(a.cfg.Sensor.IIODir)
	}
}
