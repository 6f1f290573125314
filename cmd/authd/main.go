package main

import (
	"context"
	"database/sql"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	auth "github.com/citadelle/go-auth-api"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config   *AppConfig
	bunDB    *bun.DB
	repo     auth.RepositoryManager
	auther   *auth.Auther
	resets   *auth.PasswordResetManager
	notifier *auth.AsyncNotifier
	srv      router.Server[*fiber.App]
	logger   *glog.BaseLogger
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	configPath := flag.String("config", "config/app.yaml", "path to the config file")
	flag.Parse()

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Debug),
		glog.WithName("authd"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		lgr.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		lgr.Error("failed to initialize persistence", "error", err)
		os.Exit(1)
	}

	if err := WithAuth(app); err != nil {
		lgr.Error("failed to initialize auth", "error", err)
		os.Exit(1)
	}

	WithHTTPServer(app)

	lgr.Info("authd listening", "address", cfg.Server.Address)

	app.srv.Serve(cfg.Server.Address)

	WaitExitSignal()

	app.notifier.Stop()

	if err := app.bunDB.Close(); err != nil {
		lgr.Error("database close error", "error", err)
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	sqldb, err := sql.Open(sqliteshim.ShimName, app.config.Database.DSN)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to open database")
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	migrations, err := fs.Sub(auth.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to scope migrations fs")
	}

	if err := auth.RunMigrations(ctx, db, migrations, app.GetLogger("migrations")); err != nil {
		return err
	}

	app.bunDB = db
	app.repo = auth.NewRepositoryManager(db)

	return nil
}

func WithAuth(app *App) error {
	cfg := app.config.Auth

	users := app.repo.Users()

	resetTTL := time.Duration(cfg.GetResetTokenExpiration()) * time.Hour
	app.resets = auth.NewPasswordResetManager(users, resetTTL).
		WithLogger(app.GetLogger("resets"))

	app.notifier = auth.NewAsyncNotifier(
		auth.NewLogNotifier(cfg.GetBaseURL(), app.GetLogger("notifier")),
		app.config.Notifier.Buffer,
	).WithLogger(app.GetLogger("notifier"))
	app.notifier.Start()

	provider := auth.NewUserProvider(users).
		WithLogger(app.GetLogger("identity"))

	app.auther = auth.NewAuthenticator(provider, cfg).
		WithLogger(app.GetLogger("auth"))

	return nil
}

func WithHTTPServer(app *App) {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
			AppName:       "authd",
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	cfg := app.config.Auth
	httpLogger := app.GetLogger("http")

	auth.RegisterAuthRoutes(srv.Router(),
		auth.WithControllerLogger(httpLogger),
		auth.WithControllerRepository(app.repo),
		auth.WithControllerAuthenticator(app.auther),
		auth.WithControllerResetManager(app.resets),
		auth.WithControllerNotifier(app.notifier),
		auth.WithControllerDebug(app.config.Server.Debug),
	)

	protected := auth.ProtectedRoute(cfg, app.auther.TokenService(), auth.AuthErrorHandler(httpLogger))

	auth.RegisterUserRoutes(srv.Router(),
		[]router.MiddlewareFunc{protected},
		auth.WithUsersLogger(httpLogger),
		auth.WithUsersRepository(app.repo),
		auth.WithUsersContextKey(cfg.GetContextKey()),
	)

	app.srv = srv
}

func WaitExitSignal() os.Signal {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	return <-sigs
}
