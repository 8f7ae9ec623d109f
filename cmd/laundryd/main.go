package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	logger "github.com/sirupsen/logrus"
	"github.com/wellywell/laundry/internal/auth"
	"github.com/wellywell/laundry/internal/config"
	"github.com/wellywell/laundry/internal/db"
	"github.com/wellywell/laundry/internal/handlers"
	"github.com/wellywell/laundry/internal/laundry"
	"github.com/wellywell/laundry/internal/live"
	"github.com/wellywell/laundry/internal/queue"
	"github.com/wellywell/laundry/internal/router"
)

const shutdownTimeout = 10 * time.Second

func bootstrapAdmin(ctx context.Context, conf *config.ServerConfig, database *db.Database) error {
	if conf.AdminUsername == "" || conf.AdminPassword == "" {
		return nil
	}
	hashed, err := auth.HashPassword(conf.AdminPassword)
	if err != nil {
		return err
	}
	created, err := database.EnsureUser(ctx, conf.AdminUsername, hashed, "admin")
	if err != nil {
		return err
	}
	if created {
		logger.Infof("Created admin user %s", conf.AdminUsername)
	}
	return nil
}

func main() {
	conf, err := config.NewConfig()
	if err != nil {
		panic(err)
	}

	level, err := logger.ParseLevel(conf.LogLevel)
	if err != nil {
		panic(err)
	}
	logger.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.NewDatabase(conf.DatabaseDSN)
	if err != nil {
		panic(err)
	}
	defer database.Close()

	if err := bootstrapAdmin(ctx, conf, database); err != nil {
		panic(err)
	}

	views := queue.NewViewBuilder(database)
	engine := queue.NewEngine(database)

	hub := live.NewHub()
	broadcaster := live.NewBroadcaster(views, hub)
	if conf.NATSURL != "" {
		relay, err := live.NewNATSRelay(conf.NATSURL, hub)
		if err != nil {
			panic(err)
		}
		defer relay.Close()
		if err := relay.Start(ctx); err != nil {
			panic(err)
		}
		broadcaster = broadcaster.WithEmitter(relay)
		logger.Infof("Relaying queue updates through %s", conf.NATSURL)
	}

	orders := laundry.NewService(database, engine, broadcaster)

	connAuth := &auth.ConnectionAuthenticator{Secret: conf.Secret}
	dispatcher := live.NewDispatcher(hub, views, orders)
	liveHandlers := router.LiveHandlers{
		WebSocket: live.NewWSHandler(hub, dispatcher, connAuth),
		Stream:    live.NewSSEHandler(hub, views, connAuth),
	}

	handlerSet := handlers.NewHandlerSet(handlers.TokenSettings{
		Secret:     conf.Secret,
		AccessTTL:  conf.AccessTokenTTL,
		RefreshTTL: conf.RefreshTokenTTL,
	}, database, orders, views)

	r := router.NewRouter(conf, handlerSet, liveHandlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := r.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Shutdown failed: %s", err.Error())
		}
	}()

	logger.Infof("Listening on %s", conf.RunAddress)
	err = r.ListenAndServe()
	if err != nil {
		panic(err)
	}
}
