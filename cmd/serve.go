package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"reattach/core/loader"
	"reattach/core/logger"
	"reattach/core/middleware/auth"
	"reattach/core/middleware/rayid"
	"reattach/core/storage"
	"reattach/core/store"
	"reattach/feature/catalog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateOnStart bool

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reconciliation server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)

		// 1. Configuration, logger, database and engine
		rt, err := newRuntime(true)
		if err != nil {
			return err
		}
		defer rt.Close()
		logg := rt.logger
		zap.ReplaceGlobals(logg)

		// 2. Schema
		if migrateOnStart {
			if err := rt.factory.Migrate(ctx); err != nil {
				return err
			}
			logg.Info("Schema migrated")
		}
		if _, err := rt.factory.Verify(ctx); err != nil {
			logg.Warn("Schema verification failed", zap.Error(err))
		}

		// 3. Descriptor store
		var objects storage.Client
		if rt.cfg.Store.Backend == "minio" {
			if objects, err = storage.NewClient(rt.cfg.Storage); err != nil {
				return err
			}
		}
		descriptors, err := store.New(ctx, rt.cfg.Store, objects, rt.cfg.Storage.Bucket, logg)
		if err != nil {
			return err
		}

		// 4. Fiber app
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// RayID must come first to trace everything.
		app.Use(rayid.New())
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			start := time.Now()
			err := c.Next()
			l.Info("Request handled",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
				zap.Int("status", c.Response().StatusCode()),
				zap.Duration("latency", time.Since(start)),
			)
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		var public []string
		if path := rt.cfg.Server.MetricsPath; path != "" {
			app.Get(path, adaptor.HTTPHandler(promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{})))
			public = append(public, path)
		}
		app.Use(auth.New(auth.Config{ApiKey: rt.cfg.Server.ApiKey, Skip: public}))

		// 5. Features
		mgr := loader.NewManager(logg)
		mgr.Register(catalog.NewFeature(rt.bridge, descriptors, logg))
		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		// 6. Start server
		errs := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("address", rt.cfg.Server.Address()))
			errs <- app.Listen(rt.cfg.Server.Address())
		}()

		// 7. Graceful shutdown
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(signals)
		select {
		case err := <-errs:
			return err
		case <-signals:
		}
		logg.Info("Shutting down server...")
		return app.ShutdownWithTimeout(rt.cfg.Server.ShutdownTimeout())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "Create or update the tables before serving")
	RootCmd.AddCommand(serveCmd)
}
