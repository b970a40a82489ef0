package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/safar/go-bookshop/internal/api"
	"github.com/safar/go-bookshop/internal/auth"
	"github.com/safar/go-bookshop/internal/cart"
	"github.com/safar/go-bookshop/internal/checkout"
	"github.com/safar/go-bookshop/internal/config"
	"github.com/safar/go-bookshop/internal/database"
	"github.com/safar/go-bookshop/internal/logging"
	"github.com/safar/go-bookshop/internal/metadata"
	"github.com/safar/go-bookshop/internal/seed"
	"github.com/safar/go-bookshop/internal/stock"
	"github.com/safar/go-bookshop/internal/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Load config: %v", err)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		logrus.Fatalf("Build logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("bookshop stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Info("Connected to database successfully")

	applied, err := database.Migrate(ctx, db, database.Up)
	if err != nil {
		return err
	}
	log.WithField("files", applied).Info("migrations applied")

	st := store.New(db, log, store.Options{StockPolicy: cfg.Checkout.StockPolicy})

	if cfg.Database.Seed {
		data, err := seed.Default()
		if err != nil {
			return err
		}
		if err := seed.Run(ctx, st, data, auth.HashPassword, log); err != nil {
			return err
		}
	}

	lookup := metadata.NewClient(cfg.Metadata, log)

	handler := api.NewRouter(api.Deps{
		Auth:     auth.NewService(st.Users, log),
		Tokens:   auth.NewTokens(cfg.Auth),
		Catalog:  st.Catalog,
		Cart:     cart.NewService(st.Carts, st.Catalog, log),
		Checkout: checkout.NewService(checkout.StoreRepository(st), log),
		Orders:   st.Orders,
		Stock:    stock.NewService(st.Catalog, lookup, log),
		Health:   db.PingContext,
		Logger:   log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
