package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"hse-portal/internal/config"
	"hse-portal/internal/service"
	"hse-portal/internal/storage"
)

var (
	backendFlag string
	dataDirFlag string
	dbPathFlag  string
	rootCmd     = &cobra.Command{
		Use:           "hsectl",
		Short:         "Operator CLI for the HSE portal document store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	rootCmd.PersistentFlags().StringVarP(&backendFlag, "backend", "b", "", "Store backend: file, sqlite or bolt (default from STORE_BACKEND)")
	rootCmd.PersistentFlags().StringVarP(&dataDirFlag, "data-dir", "d", "", "Data directory (default from DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db-path", "", "Database file for sqlite and bolt (default from DB_PATH)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore opens the configured store with every default registered.
// Flags override the environment.
func openStore() (*storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	backendKind := cfg.StoreBackend
	if backendFlag != "" {
		backendKind = backendFlag
	}
	dataDir := cfg.DataDir
	if dataDirFlag != "" {
		dataDir = dataDirFlag
	}
	dbPath := cfg.DBPath
	switch {
	case dbPathFlag != "":
		dbPath = dbPathFlag
	case os.Getenv("DB_PATH") == "":
		// The configured path belongs to the configured backend and data dir.
		dbPath = config.DefaultDBPath(backendKind, dataDir)
	}

	backend, err := storage.OpenBackend(backendKind, dataDir, dbPath)
	if err != nil {
		return nil, err
	}
	store := storage.NewStore(backend, cfg.StoreStrict)
	if err := service.RegisterDefaults(store, time.Now()); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// withStore runs fn against an opened store and closes it afterwards.
func withStore(out io.Writer, fn func(*storage.Store, io.Writer) error) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()
	return fn(store, out)
}
