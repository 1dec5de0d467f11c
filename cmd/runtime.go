package cmd

import (
	"fmt"

	"reattach/core/bridge"
	"reattach/core/config"
	"reattach/core/database"
	"reattach/core/gormorm"
	"reattach/core/introspect"
	"reattach/core/logger"
	"reattach/core/metrics"
	"reattach/feature/catalog/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// runtime holds the components shared by the commands.
type runtime struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *gorm.DB
	meta     *gormorm.Metamodel
	factory  *gormorm.Factory
	bridge   *bridge.Bridge
	registry *prometheus.Registry
}

// newRuntime loads the configuration and wires the engine. Without connect the
// factory has no database, which is enough for metadata commands.
func newRuntime(connect bool) (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	rt := &runtime{cfg: cfg, logger: logg, registry: prometheus.NewRegistry()}
	if connect {
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		rt.db = db
		logg.Info("Connected to database",
			zap.String("driver", cfg.Database.Driver),
			zap.String("name", cfg.Database.Name))
	}

	rt.meta = gormorm.NewMetamodel(introspect.New())
	if err := models.Register(rt.meta); err != nil {
		return nil, fmt.Errorf("failed to register models: %w", err)
	}
	rt.factory = gormorm.NewFactory(rt.db, rt.meta, logg)

	rt.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(rt.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	rt.bridge = bridge.New(rt.factory, rt.meta.Introspector(), cfg.Bridge, logg, bridge.WithMetrics(m))
	return rt, nil
}

// Close releases the database connection and flushes the logger.
func (rt *runtime) Close() {
	if rt.db != nil {
		if sqlDB, err := rt.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = rt.logger.Sync()
}
