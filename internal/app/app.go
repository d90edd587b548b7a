package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/kurochkinivan/shipment_tracker/internal/config"
	v1 "github.com/kurochkinivan/shipment_tracker/internal/controller/http/v1"
	"github.com/kurochkinivan/shipment_tracker/internal/importer"
	"github.com/kurochkinivan/shipment_tracker/internal/repository/postgresql"
	"golang.org/x/sync/errgroup"
)

type App struct {
	log *slog.Logger
	cfg *config.Config
}

func New(log *slog.Logger, cfg *config.Config) *App {
	return &App{
		log: log,
		cfg: cfg,
	}
}

func (a *App) Run(ctx context.Context) error {
	a.log.InfoContext(ctx, "starting app",
		slog.Int64("max_upload_bytes", a.cfg.App.MaxUploadBytes),
	)

	a.log.InfoContext(ctx, "establishing postgresql connection",
		slog.String("postgresql_host", a.cfg.PostgreSQL.Host),
		slog.String("postgresql_port", a.cfg.PostgreSQL.Port),
		slog.String("postgresql_dbname", a.cfg.PostgreSQL.DBName),
	)

	pool, err := postgresql.NewConnection(ctx, a.log, a.cfg.PostgreSQL)
	if err != nil {
		return fmt.Errorf("failed to create db connection: %w", err)
	}
	defer pool.Close()

	catalogRepository := postgresql.NewCatalogRepository(pool)
	shipmentsRepository := postgresql.NewShipmentsRepository(pool)
	importRunsRepository := postgresql.NewImportRunsRepository(pool)
	txManager := postgresql.NewTxManager(pool)

	decoder := importer.NewDecoder(a.log)
	validator := importer.NewValidator(a.log, catalogRepository, catalogRepository, catalogRepository)
	importService := importer.NewService(a.log, decoder, validator, shipmentsRepository, importRunsRepository, txManager)

	server := v1.NewServer(
		a.cfg.HTTP,
		shipmentsRepository,
		importService,
		importRunsRepository,
		a.cfg.App.MaxUploadBytes,
	)

	return a.serve(ctx, server)
}

func (a *App) serve(ctx context.Context, server *v1.Server) error {
	erg, ctx := errgroup.WithContext(ctx)

	erg.Go(func() error {
		a.log.InfoContext(ctx, "starting http server",
			slog.String("addr", net.JoinHostPort(a.cfg.HTTP.Host, a.cfg.HTTP.Port)),
		)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}

		return nil
	})

	erg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if err := erg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		a.log.ErrorContext(ctx, "app stopped with error", slog.String("err", err.Error()))

		return err
	}

	a.log.InfoContext(ctx, "app stopped gracefully")

	return nil
}
