package cmd

import (
	"context"
	"fmt"
	"time"

	"pi-account-checker/core/archive"
	"pi-account-checker/core/config"
	"pi-account-checker/core/database"
	"pi-account-checker/core/localstore"
	"pi-account-checker/core/logger"
	"pi-account-checker/core/reconcile"
	"pi-account-checker/feature/accounts"
	"pi-account-checker/feature/mining"

	"go.uber.org/zap"
)

// appDeps holds the wired-up application services shared by the commands.
type appDeps struct {
	cfg         *config.Config
	logger      *zap.Logger
	local       *accounts.LocalStore
	reconciler  *reconcile.Reconciler
	accountsSvc *accounts.Service
	miningSvc   *mining.Service
	accountsFt  *accounts.Feature
	miningFt    *mining.Feature
}

// setup loads configuration and wires every service. The remote database
// and the archive are optional: their absence degrades features instead of
// failing startup.
func setup() (*appDeps, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logg)

	localDB, err := localstore.Open(cfg.Local)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	local, err := accounts.NewLocalStore(localDB)
	if err != nil {
		return nil, err
	}

	// Remote database is optional: without it the device runs standalone
	// and sync reports that it cannot run.
	var reconciler *reconcile.Reconciler
	if conn, err := database.Connect(cfg.Database); err != nil {
		logg.Warn("Optional remote database connection failed", zap.Error(err))
	} else {
		remote, err := accounts.NewRemoteStore(conn)
		if err != nil {
			return nil, err
		}
		reconciler = reconcile.New(local, remote, logg, cfg.Sync.Options())
		logg.Info("Connected to shared database")
	}

	var archiver *archive.Archiver
	if cfg.Archive.Enabled {
		client, err := archive.NewClient(cfg.Archive)
		if err != nil {
			return nil, fmt.Errorf("failed to create archive client: %w", err)
		}
		archiver = archive.New(client, cfg.Archive.Bucket, logg)

		// A missing bucket would fail every Store call, so create it now.
		ctx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Archive.TimeoutSeconds)*time.Second)
		err = archiver.EnsureBucket(ctx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to ensure archive bucket: %w", err)
		}
	}

	sessionCfg := cfg.Session.Config()
	prober := mining.NewProber(cfg.Pi.BaseURL, time.Duration(cfg.Pi.TimeoutSeconds)*time.Second)

	accountsFt := accounts.NewFeature(local, reconciler, sessionCfg, logg)
	miningFt := mining.NewFeature(local, prober, archiver, sessionCfg, logg)

	return &appDeps{
		cfg:         cfg,
		logger:      logg,
		local:       local,
		reconciler:  reconciler,
		accountsSvc: accountsFt.Service(),
		miningSvc:   miningFt.Service(),
		accountsFt:  accountsFt,
		miningFt:    miningFt,
	}, nil
}
