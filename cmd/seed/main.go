package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/prohmpiriya/webinar-service/internal/domain"
	"github.com/prohmpiriya/webinar-service/internal/repository"
	"github.com/prohmpiriya/webinar-service/migrations"
	"github.com/prohmpiriya/webinar-service/pkg/config"
	"github.com/prohmpiriya/webinar-service/pkg/database"
	"github.com/prohmpiriya/webinar-service/pkg/logger"
)

func main() {
	var (
		id        = flag.String("id", "test-webinar", "webinar id")
		organizer = flag.String("organizer", "test-user", "organizer user id")
		title     = flag.String("title", "My webinar", "webinar title")
		seats     = flag.Int("seats", 10, "initial seat count")
		start     = flag.String("start", "", "start date (RFC3339), defaults to tomorrow")
		duration  = flag.Duration("duration", 2*time.Hour, "webinar length")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(&logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: "webinar-seed",
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLog := logger.Get()

	startDate := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	if *start != "" {
		startDate, err = time.Parse(time.RFC3339, *start)
		if err != nil {
			appLog.Fatal(fmt.Sprintf("Invalid -start: %v", err))
		}
	}

	webinar, err := domain.NewWebinar(*id, *organizer, *title, startDate, startDate.Add(*duration), *seats)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Invalid webinar: %v", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
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
		MaxRetries:    3,
		RetryInterval: time.Second,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}
	defer db.Close()

	if _, err := migrations.Apply(ctx, db.Pool()); err != nil {
		appLog.Fatal(fmt.Sprintf("Migration failed: %v", err))
	}

	repo := repository.NewPostgresWebinarRepository(db.Pool())
	if err := repo.Create(ctx, webinar); err != nil {
		if domain.IsConflictError(err) {
			appLog.Warn("Webinar already exists", zap.String("webinar_id", webinar.ID))
			return
		}
		appLog.Fatal(fmt.Sprintf("Failed to create webinar: %v", err))
	}

	appLog.Info("Webinar created",
		zap.String("webinar_id", webinar.ID),
		zap.String("organizer_id", webinar.OrganizerID),
		zap.Int("seats", webinar.Seats),
	)
}
