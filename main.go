package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vegn-telegram/api"
	"vegn-telegram/bot"
	"vegn-telegram/config"
	"vegn-telegram/db"
	"vegn-telegram/logging"
	"vegn-telegram/services"
	"vegn-telegram/storage"
)

var version = "dev"

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vegn-telegram",
	Short: "Telegram front-end for the Veg'N Bio restaurants",
	Long: `Runs the customer bot: browse restaurant menus, filter by price, diet and
allergens, keep a cart and favorites, and book restaurant events.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if logger, err = logging.New(cfg.Log.Level, cfg.Log.Format); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runBot,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the Postgres migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.Init(cmd.Context(), cfg.DB); err != nil {
			return fmt.Errorf("db: %w", err)
		}
		defer db.Close()
		return applyMigrations(cmd.Context(), logger)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runBot(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()

	kv, closeKV, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeKV()

	client := api.New(cfg.API.BaseURL, cfg.API.Timeout, logger.Named("api"))
	popularity := services.NewPopularity(ctx, kv, logger.Named("popularity"))
	b, err := bot.New(cfg, bot.Deps{
		Sessions: services.NewSessions(kv, popularity, logger.Named("session")),
		Catalog:  services.NewCatalog(client, logger.Named("catalog")),
		API:      client,
		Throttle: services.NewLoginThrottle(),
		Logger:   logger.Named("bot"),
	})
	if err != nil {
		return fmt.Errorf("bot: %w", err)
	}

	logger.Info("bot started", zap.String("storage", cfg.Storage.Driver), zap.String("api", cfg.API.BaseURL))
	b.Start(ctx)
	logger.Info("bot stopped")
	return nil
}

// openStore returns the key-value store selected by STORAGE_DRIVER.
func openStore(ctx context.Context) (storage.KV, func(), error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		if err := db.Init(ctx, cfg.DB); err != nil {
			return nil, nil, fmt.Errorf("db: %w", err)
		}
		if err := applyMigrations(ctx, logger); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return storage.NewPostgres(db.Pool), db.Close, nil
	case config.StorageSQLite:
		conn, err := db.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		kv, err := storage.NewSQLite(ctx, conn)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		return kv, func() { conn.Close() }, nil
	default:
		logger.Warn("using in-memory storage, customer state is lost on restart")
		return storage.NewMemory(), func() {}, nil
	}
}
