package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pi-account-checker/core/loader"
	"pi-account-checker/core/logger"
	"pi-account-checker/core/middleware/auth"
	"pi-account-checker/core/middleware/rayid"
	"pi-account-checker/feature/mining"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the account checker server",
	Long:  `Starts the HTTP server, the display tick and the background sync loop.`,
	Run: func(cmd *cobra.Command, args []string) {
		deps, err := setup()
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		logg := deps.logger
		defer logg.Sync()

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Logging Middleware (Custom to use Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 3. Auth (Protect API when a key is configured)
		if deps.cfg.Server.RequiresAuth() {
			app.Use(auth.New(auth.Config{ApiKey: deps.cfg.Server.ApiKey}))
		}

		// 4. Load Features
		mgr := loader.NewManager()
		mgr.Register(deps.accountsFt)
		mgr.Register(deps.miningFt)

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 5. Background Loops
		sched := mining.NewScheduler(
			deps.accountsSvc,
			deps.miningSvc,
			time.Duration(deps.cfg.Tick.DisplaySeconds)*time.Second,
			time.Duration(deps.cfg.Tick.SyncMinutes)*time.Minute,
			logg,
		)
		sched.Start()

		// Prime the stores once at startup so the first dashboard view is
		// fresh instead of waiting for the first sync tick.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if outcome, err := deps.accountsSvc.Sync(ctx, true); err != nil {
				logg.Warn("Startup sync failed", zap.Error(err))
			} else if outcome.Ran {
				logg.Info("Startup sync finished",
					zap.Int("pushed", outcome.Pushed),
					zap.Int("pulled", outcome.Pulled))
			}
		}()

		// 6. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", deps.cfg.Server.Port))
			if err := app.Listen(":" + deps.cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 7. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		sched.Stop()
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
