package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"erp-admin/internal/auth"
	"erp-admin/internal/config"
	"erp-admin/internal/infrastructure"
	"erp-admin/internal/logger"
	"erp-admin/internal/metrics"
	"erp-admin/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

type app struct {
	cfgFile string
	v       *viper.Viper
}

// NewRootCommand は serve / migrate / seed サブコマンドを持つルートコマンドを作成
func NewRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:           "erp-admin",
		Short:         "ERP admin REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = a.v.BindPFlag("log.level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(a.serveCommand(), a.migrateCommand(), a.seedCommand())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) load() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.FromViper(a.v, a.cfgFile)
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	return cfg, logger.New(cfg.Log.Level, cfg.Log.Format), nil
}

// open はDBに接続する。呼び出し側がCloseDatabaseする
func open(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := infrastructure.ConnectDatabase(cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func migrate(db *gorm.DB, log zerolog.Logger) error {
	if err := infrastructure.MigrateAllSchemas(db); err != nil {
		return fmt.Errorf("failed to migrate database schemas: %w", err)
	}
	log.Info().Msg("database schema is up to date")
	return nil
}

func seed(ctx context.Context, db *gorm.DB, cfg *config.Config, log zerolog.Logger) error {
	if err := infrastructure.NewSeedDataManager(db, cfg.Seed, log).SeedAll(ctx); err != nil {
		return fmt.Errorf("failed to seed data: %w", err)
	}
	return nil
}

func (a *app) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := a.load()
			if err != nil {
				return err
			}
			db, err := open(cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = infrastructure.CloseDatabase(db) }()

			if cfg.Database.AutoMigrate {
				if err := migrate(db, log); err != nil {
					return err
				}
			}
			if cfg.Seed.Enabled {
				if err := seed(cmd.Context(), db, cfg, log); err != nil {
					return err
				}
			}

			gin.SetMode(cfg.Server.Mode)
			engine := router.New(router.Dependencies{
				DB:      db,
				Tokens:  auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer),
				Metrics: metrics.New(),
				Logger:  log,
			})
			return serve(cmd.Context(), &http.Server{
				Addr:              cfg.Server.Addr(),
				Handler:           engine,
				ReadHeaderTimeout: 10 * time.Second,
			}, log)
		},
	}
	cmd.Flags().Int("port", 0, "HTTP port (overrides server.port)")
	_ = a.v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	return cmd
}

// serve はSIGINT/SIGTERMを受けるまでリクエストを処理し、その後グレースフルに停止する
func serve(ctx context.Context, srv *http.Server, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func (a *app) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, log, err := a.load()
			if err != nil {
				return err
			}
			db, err := open(cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = infrastructure.CloseDatabase(db) }()
			return migrate(db, log)
		},
	}
}

func (a *app) seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the permission catalog, default roles and the bootstrap admin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := a.load()
			if err != nil {
				return err
			}
			db, err := open(cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = infrastructure.CloseDatabase(db) }()

			// 初回実行でも動くようにスキーマを先に作る
			if err := migrate(db, log); err != nil {
				return err
			}
			return seed(cmd.Context(), db, cfg, log)
		},
	}
}
