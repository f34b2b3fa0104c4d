package di

import (
	"time"

	"github.com/prohmpiriya/webinar-service/internal/handler"
	"github.com/prohmpiriya/webinar-service/internal/repository"
	"github.com/prohmpiriya/webinar-service/internal/service"
	"github.com/prohmpiriya/webinar-service/pkg/database"
	"github.com/prohmpiriya/webinar-service/pkg/redis"
)

// Container holds all dependencies for the webinar service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	WebinarRepo repository.WebinarRepository

	// Publishers
	EventPublisher service.EventPublisher

	// Services
	WebinarService service.WebinarService

	// Handlers
	HealthHandler  *handler.HealthHandler
	WebinarHandler *handler.WebinarHandler
}

// ContainerConfig contains configuration for building the container.
// A nil DB selects the in-memory repository; a nil Redis disables the read cache.
type ContainerConfig struct {
	DB             *database.PostgresDB
	Redis          *redis.Client
	WebinarRepo    repository.WebinarRepository
	EventPublisher service.EventPublisher
	ServiceConfig  *service.WebinarServiceConfig
	CacheTTL       time.Duration
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:             cfg.DB,
		Redis:          cfg.Redis,
		WebinarRepo:    cfg.WebinarRepo,
		EventPublisher: cfg.EventPublisher,
	}

	if c.EventPublisher == nil {
		c.EventPublisher = service.NewNoOpEventPublisher()
	}

	// Initialize repositories
	if c.WebinarRepo == nil {
		if c.DB != nil {
			c.WebinarRepo = repository.NewPostgresWebinarRepository(c.DB.Pool())
		} else {
			c.WebinarRepo = repository.NewMemoryWebinarRepository()
		}
	}
	if c.Redis != nil {
		c.WebinarRepo = repository.NewCachedWebinarRepository(c.WebinarRepo, c.Redis, cfg.CacheTTL)
	}

	// Initialize services
	c.WebinarService = service.NewWebinarService(c.WebinarRepo, c.EventPublisher, cfg.ServiceConfig)

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(c.healthComponents())
	c.WebinarHandler = handler.NewWebinarHandler(c.WebinarService)

	return c
}

func (c *Container) healthComponents() map[string]handler.HealthChecker {
	components := map[string]handler.HealthChecker{
		"postgres": nil,
		"redis":    nil,
		"kafka":    nil,
	}
	if c.DB != nil {
		components["postgres"] = c.DB
	}
	if c.Redis != nil {
		components["redis"] = c.Redis
	}
	if checker, ok := c.EventPublisher.(handler.HealthChecker); ok {
		components["kafka"] = checker
	}
	return components
}

// Close releases the resources the container owns
func (c *Container) Close() error {
	return c.EventPublisher.Close()
}
