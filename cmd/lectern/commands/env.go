package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"lectern/lib/batchstore"
	"lectern/lib/configutil"
	"lectern/lib/manifest"
	"lectern/lib/scrapers/learn"
	"lectern/lib/serviceutil"

	"github.com/dgraph-io/badger/v4"
)

type Config struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
	// OutputDir receives the downloaded .txt and .pdf files.
	OutputDir string `json:"output_dir"`
	// StateDir holds the batch cursor and the output manifest.
	StateDir     string `json:"state_dir"`
	DelaySeconds int    `json:"delay_seconds"`
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config](*configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if cfg.BaseUrl == "" {
		serviceutil.Fatal("invalid config", fmt.Errorf("base_url is required"))
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "downloads"
	}
	if cfg.StateDir == "" {
		cfg.StateDir = ".lectern"
	}
	if cfg.DelaySeconds <= 0 {
		cfg.DelaySeconds = 2
	}
	return cfg
}

// env bundles everything a command needs: config, the cursor store and the
// output manifest.
type env struct {
	cfg    Config
	db     *badger.DB
	store  batchstore.Store
	ledger manifest.Manifest
}

func openEnv() env {
	cfg := readConfig()

	err := os.MkdirAll(cfg.OutputDir, 0o755)
	if err != nil {
		serviceutil.Fatal("failed to create output directory", err)
	}
	err = os.MkdirAll(cfg.StateDir, 0o755)
	if err != nil {
		serviceutil.Fatal("failed to create state directory", err)
	}

	// badger's default logger talks too much for a CLI
	db, err := badger.Open(
		badger.DefaultOptions(filepath.Join(cfg.StateDir, "batch")).WithLogger(nil),
	)
	if err != nil {
		serviceutil.Fatal("failed to open batch state store", err)
	}

	ledger, err := manifest.Open(filepath.Join(cfg.StateDir, "manifest.db"))
	if err != nil {
		db.Close()
		serviceutil.Fatal("failed to open output manifest", err)
	}

	return env{
		cfg:    cfg,
		db:     db,
		store:  batchstore.New(db),
		ledger: ledger,
	}
}

func (e env) Close() {
	e.ledger.Close()
	e.db.Close()
}

func (e env) delay() time.Duration {
	return time.Duration(e.cfg.DelaySeconds) * time.Second
}

func loggedInClient(ctx context.Context, cfg Config) *learn.Client {
	client, err := learn.NewClient(ctx, learn.ClientOptions{BaseUrl: cfg.BaseUrl})
	if err != nil {
		serviceutil.Fatal("failed to initialize site client", err)
	}

	err = client.Login(ctx, cfg.Username, cfg.Password)
	if err != nil {
		serviceutil.Fatal("failed to login", err)
	}
	slog.Info("logged in", "username", cfg.Username)

	return client
}
