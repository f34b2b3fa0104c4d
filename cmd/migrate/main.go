package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/prohmpiriya/webinar-service/migrations"
	"github.com/prohmpiriya/webinar-service/pkg/config"
	"github.com/prohmpiriya/webinar-service/pkg/database"
	"github.com/prohmpiriya/webinar-service/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(&logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: "webinar-migrate",
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLog := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:          cfg.Database.Host,
		Port:          cfg.Database.Port,
		User:          cfg.Database.User,
		Password:      cfg.Database.Password,
		Database:      cfg.Database.DBName,
		SSLMode:       cfg.Database.SSLMode,
		MaxConns:      2,
		MinConns:      1,
		MaxRetries:    5,
		RetryInterval: 2 * time.Second,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}
	defer db.Close()

	applied, err := migrations.Apply(ctx, db.Pool())
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Migration failed: %v", err))
	}

	if len(applied) == 0 {
		appLog.Info("Schema is up to date")
		return
	}
	for _, name := range applied {
		appLog.Info(fmt.Sprintf("Applied %s", name))
	}
}
