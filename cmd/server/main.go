package main

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"steelprice/server/config"
	"steelprice/server/internal/api"
	"steelprice/server/internal/calculation"
	"steelprice/server/internal/database"
	"steelprice/server/internal/logging"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := logging.New(cfg)
	gin.SetMode(cfg.Server.GinMode)

	if cfg.Database.Driver == "sqlite3" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0755); err != nil {
			logger.WithError(err).Fatal("Failed to create database directory")
		}
	}

	// Run database migrations
	logger.Info("Running database migrations...")
	gdb, err := database.OpenGorm(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open database for migrations")
	}
	if err := database.MigrateSchema(gdb); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}

	db, err := database.NewDatabase(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	service := calculation.NewService(db, cfg, logger)
	handler := api.NewHandler(service, db, logger)
	router := api.NewRouter(cfg, handler, logger)

	logger.WithFields(logrus.Fields{
		"port":   cfg.Server.Port,
		"driver": cfg.Database.Driver,
	}).Info("Starting server")
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
