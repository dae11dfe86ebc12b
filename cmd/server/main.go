package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mediadrop/gateway/internal/api"
	"mediadrop/gateway/internal/config"
	"mediadrop/gateway/internal/discord"
	"mediadrop/gateway/internal/repository"
	mongorepo "mediadrop/gateway/internal/repository/mongo"
	"mediadrop/gateway/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("could not load config")
	}

	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	// A weak sealing secret must stop the process here, not surface later on
	// some request.
	codec, err := session.NewCodec(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		logrus.WithError(err).Fatal("could not initialize session codec")
	}

	var identity api.IdentityExchanger
	if cfg.Discord.Enabled() {
		identity = discord.NewClient(cfg.Discord)
		logrus.Info("role-gating enabled")
	} else {
		logrus.Warn("role-gating disabled: identity provider is not fully configured")
	}

	var uploads repository.UploadRepository
	if cfg.DatabaseURI != "" {
		dbClient, err := mongorepo.ConnectDB(cfg.DatabaseURI)
		if err != nil {
			logrus.WithError(err).Fatal("could not connect to MongoDB")
		}
		defer func() {
			if err := mongorepo.DisconnectDB(dbClient); err != nil {
				logrus.WithError(err).Error("failed to disconnect MongoDB")
			}
		}()

		db := dbClient.Database(cfg.DatabaseName)
		uploads = mongorepo.NewMongoUploadRepository(db)

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := mongorepo.EnsureUploadIndexes(ctx, db.Collection("uploads")); err != nil {
				logrus.WithError(err).Warn("failed to ensure upload indexes")
			}
		}()
		logrus.Info("upload records enabled")
	}

	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger())
	api.SetupRoutes(router, cfg, codec, identity, uploads)

	server := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logrus.WithField("address", cfg.Address).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("listen and serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("server forced to shutdown")
	}

	logrus.Info("server exited")
}
