package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"campkitchen/api"
	"campkitchen/config"
	"campkitchen/migrations"
	"campkitchen/shopping"
	"campkitchen/store"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	cfg.ConfigureLogging()

	db, err := store.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("failed to open DB")
	}
	defer db.Close()

	err = migrations.Migrate(db.DB, cfg.DBDriver)
	if err != nil {
		logrus.WithError(err).Fatal("failed to migrate")
	}

	unitTable, categorizer, err := cfg.Tables()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load lookup tables")
	}

	log := logrus.StandardLogger()
	repo := store.NewSQLStore(db, log)
	agg := shopping.NewAggregator(unitTable, categorizer, log)

	ws := api.New(repo, agg, log).App(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if cfg.TLSCert != "" && cfg.TLSKey != "" {
			err = ws.ListenTLS(cfg.BindAddr, cfg.TLSCert, cfg.TLSKey)
		} else {
			err = ws.Listen(cfg.BindAddr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logrus.Info("shutting down web server")
		return ws.Shutdown()
	})

	logrus.WithFields(logrus.Fields{
		"addr":   cfg.BindAddr,
		"driver": cfg.DBDriver,
	}).Info("web server started")

	if err := g.Wait(); err != nil {
		logrus.WithError(err).Fatal("web server failed")
	}
}
