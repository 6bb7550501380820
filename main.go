// Package main is the entry point for the landing backend. It loads the
// configuration, connects to PostgreSQL, applies the embedded migrations,
// wires the credential store, the token service and the posts repository
// into the HTTP router, and serves until it receives SIGINT or SIGTERM.
//
// @title Landing API
// @version 1.0
// @description Accounts, login and posts for the landing site.
// @contact.name API Support
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/user/landing-go/accounts"
	"github.com/user/landing-go/auth"
	"github.com/user/landing-go/config"
	"github.com/user/landing-go/db"
	_ "github.com/user/landing-go/docs" // Generated Swagger docs
	"github.com/user/landing-go/logging"
	"github.com/user/landing-go/posts"
	"github.com/user/landing-go/server"
	"github.com/user/landing-go/web"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "landing: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:           "landing",
		Usage:          "accounts and posts API with an embedded frontend",
		DefaultCommand: "serve",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "dotenv file to seed the environment from; a missing file is ignored",
			},
		},
		Before: func(c *cli.Context) error {
			path := c.String("env-file")
			if err := config.LoadDotEnv(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("loading %s: %w", path, err)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply pending database migrations and exit",
				Action: migrateUp,
				Subcommands: []*cli.Command{
					{Name: "up", Usage: "apply pending migrations", Action: migrateUp},
					{Name: "down", Usage: "roll back every migration", Action: migrateDown},
					{Name: "version", Usage: "print the current schema version", Action: migrateVersion},
				},
			},
		},
	}
}

// setup loads the configuration and builds the process logger from it.
func setup() (*config.AppConfig, logging.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.NewJSON(os.Stdout, cfg.LogLevel), nil
}

func serve(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Server.MigrateOnStart {
		if err := db.RunMigrations(cfg.Database.URL, logger); err != nil {
			return err
		}
		logger.Info(ctx, "database migrations applied")
	}

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info(ctx, "connected to database", "pool", pool.String())

	// The signing secret is read once here and never changes afterwards.
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)
	if err != nil {
		return err
	}
	hasher := auth.NewHasher(auth.DefaultCost)

	router := server.NewRouter(cfg.Server, server.Deps{
		Accounts: accounts.NewHandlers(accounts.NewStore(pool, hasher), tokens),
		Posts:    posts.NewHandlers(posts.NewRepository(pool)),
		Tokens:   tokens,
		DB:       pool,
		Logger:   logger,
		Frontend: web.Handler(web.Assets()),
	})
	srv := server.NewHTTPServer(cfg.Server, router)

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info(context.Background(), "server stopped gracefully")
	return nil
}

func migrateUp(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if err := db.RunMigrations(cfg.Database.URL, logger); err != nil {
		return err
	}
	logger.Info(c.Context, "database migrations applied")
	return nil
}

func migrateDown(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if err := db.MigrateDown(cfg.Database.URL, logger); err != nil {
		return err
	}
	logger.Info(c.Context, "database migrations rolled back")
	return nil
}

func migrateVersion(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	version, dirty, err := db.MigrationVersion(cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "version %d (dirty: %t)\n", version, dirty)
	return nil
}
