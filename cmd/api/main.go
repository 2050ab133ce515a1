package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	httpadp "loans-service/internal/adapter/http"
	idempmw "loans-service/internal/adapter/middleware"
	"loans-service/internal/adapter/remote"
	"loans-service/internal/adapter/repository/memory"
	"loans-service/internal/adapter/repository/mysql"
	"loans-service/internal/adapter/repository/postgres"
	"loans-service/internal/config"
	domain "loans-service/internal/domain/loan"
	"loans-service/internal/infrastructure/cache"
	"loans-service/internal/infrastructure/clock"
	"loans-service/internal/infrastructure/db"
	"loans-service/internal/infrastructure/logging"
	"loans-service/internal/infrastructure/pg"
	ucLoan "loans-service/internal/usecase/loan"
	"loans-service/pkg/id"
	"loans-service/pkg/retry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("service stopped", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	users, books, err := remoteServices(cfg, store, log)
	if err != nil {
		return err
	}

	uc := ucLoan.NewUsecase(store, users, books, clock.System{}, id.NewUUID(), log)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())

	var mutating echo.MiddlewareFunc
	if cfg.RedisAddr != "" {
		rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		mutating = idempmw.Idempotency(rdb, cfg.IdempotencyTTL(), log)
		log.Info("idempotency enabled", "redis_addr", cfg.RedisAddr, "ttl", cfg.IdempotencyTTL().String())
	}

	httpadp.Register(e, httpadp.NewHandler(), httpadp.NewLoanHandler(uc), mutating)

	addr := ":" + cfg.AppPort
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr, "store_driver", cfg.StoreDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.Repository, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memory.NewLoanRepository(), func() {}, nil

	case config.DriverSQLite, config.DriverMySQL:
		var (
			gdb *gorm.DB
			err error
		)
		if cfg.StoreDriver == config.DriverSQLite {
			gdb, err = db.OpenSQLite(cfg.SQLitePath)
		} else {
			gdb, err = db.OpenMySQL(cfg.MySQLDSN())
		}
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("gorm sql handle: %w", err)
		}
		if err := db.Migrate(gdb); err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("migrate loans: %w", err)
		}
		log.Info("gorm store ready", "dialect", gdb.Dialector.Name())
		return mysql.NewLoanRepository(gdb), func() { _ = sqlDB.Close() }, nil

	case config.DriverPostgres:
		pool, err := pg.OpenPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		repo := postgres.NewLoanRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("postgres store ready")
		return repo, pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// remoteServices returns HTTP clients for the configured base URLs and
// in-process stubs for the ones left unset.
func remoteServices(cfg *config.Config, store domain.Repository, log *slog.Logger) (domain.UserDirectory, domain.BookCatalog, error) {
	policy, err := retry.New(
		retry.WithMaxAttempts(cfg.RemoteMaxAttempts),
		retry.WithBackoff(retry.Fixed(cfg.RemoteRetryDelay)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("retry policy: %w", err)
	}
	opts := []remote.Option{
		remote.WithPolicy(policy),
		remote.WithTimeout(cfg.RemoteTimeout),
		remote.WithLogger(log),
	}

	var users domain.UserDirectory = remote.NewUsersStub(store)
	if cfg.UsersBaseURL != "" {
		users = remote.NewUsersClient(cfg.UsersBaseURL, opts...)
	} else {
		log.Warn("USERS_BASE_URL not set, using in-process users stub")
	}

	var books domain.BookCatalog = remote.NewBooksStub()
	if cfg.BooksBaseURL != "" {
		books = remote.NewBooksClient(cfg.BooksBaseURL, opts...)
	} else {
		log.Warn("BOOKS_BASE_URL not set, using in-process books stub")
	}
	return users, books, nil
}
