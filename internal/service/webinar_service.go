package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/prohmpiriya/webinar-service/internal/domain"
	"github.com/prohmpiriya/webinar-service/internal/repository"
	"github.com/prohmpiriya/webinar-service/pkg/logger"
	"github.com/prohmpiriya/webinar-service/pkg/retry"
	"github.com/prohmpiriya/webinar-service/pkg/telemetry"
)

// WebinarService defines the interface for webinar business logic
type WebinarService interface {
	// ChangeSeats raises the seat capacity of a webinar owned by the caller
	ChangeSeats(ctx context.Context, input *ChangeSeatsInput) error

	// GetWebinar retrieves a webinar by ID
	GetWebinar(ctx context.Context, id string) (*domain.Webinar, error)
}

// ChangeSeatsInput is the request to change a webinar's capacity
type ChangeSeatsInput struct {
	User      domain.User
	WebinarID string
	Seats     int
}

// WebinarServiceConfig contains configuration for webinar service
type WebinarServiceConfig struct {
	// MaxAttempts bounds how often a change is re-run after a version conflict
	MaxAttempts  int
	RetryBackoff time.Duration
}

type webinarService struct {
	repo      repository.WebinarRepository
	publisher EventPublisher
	retrier   *retry.Retrier
	log       *logger.Logger
	now       func() time.Time
}

// NewWebinarService creates a new webinar service
func NewWebinarService(repo repository.WebinarRepository, publisher EventPublisher, cfg *WebinarServiceConfig) WebinarService {
	attempts := 3
	backoff := 20 * time.Millisecond
	if cfg != nil {
		if cfg.MaxAttempts > 0 {
			attempts = cfg.MaxAttempts
		}
		if cfg.RetryBackoff > 0 {
			backoff = cfg.RetryBackoff
		}
	}
	if publisher == nil {
		publisher = NewNoOpEventPublisher()
	}

	return &webinarService{
		repo:      repo,
		publisher: publisher,
		retrier: retry.New(&retry.Config{
			MaxRetries:      attempts - 1,
			InitialInterval: backoff,
			MaxInterval:     8 * backoff,
			Multiplier:      2.0,
			JitterFactor:    0.2,
			RetryIf: func(err error) bool {
				return errors.Is(err, domain.ErrVersionConflict)
			},
		}),
		log: logger.Get(),
		now: time.Now,
	}
}

// ChangeSeats applies the seat change, re-reading the webinar when a concurrent
// writer won the version race
func (s *webinarService) ChangeSeats(ctx context.Context, input *ChangeSeatsInput) error {
	ctx, span := telemetry.StartSpan(ctx, "service.webinar.change_seats")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", input.User.ID),
		attribute.String("webinar_id", input.WebinarID),
		attribute.Int("seats", input.Seats),
	)

	var (
		updated  *domain.Webinar
		previous int
	)

	result := s.retrier.DoWithCallback(ctx, func(ctx context.Context) error {
		w, prev, err := s.changeSeatsOnce(ctx, input)
		if err != nil {
			return err
		}
		updated, previous = w, prev
		return nil
	}, func(attempt int, err error, next time.Duration) {
		s.log.Debug("retrying seat change after version conflict",
			zap.String("webinar_id", input.WebinarID),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", next),
		)
	})
	span.SetAttributes(attribute.Int("attempts", result.Attempts))

	if result.Err != nil {
		span.SetStatus(codes.Error, result.Err.Error())
		if errors.Is(result.Err, domain.ErrVersionConflict) {
			s.log.Warn("seat change gave up after version conflicts",
				zap.String("webinar_id", input.WebinarID),
				zap.Int("attempts", result.Attempts),
			)
		}
		return result.Err
	}

	event := domain.NewSeatsChangedEvent(updated, previous, s.now())
	if err := s.publisher.PublishSeatsChanged(ctx, event); err != nil {
		s.log.Warn("failed to publish seats changed event",
			zap.String("webinar_id", updated.ID),
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
	}

	return nil
}

// changeSeatsOnce runs one read-validate-write pass. Checks run in a fixed
// order and the webinar is mutated only after all of them pass.
func (s *webinarService) changeSeatsOnce(ctx context.Context, input *ChangeSeatsInput) (*domain.Webinar, int, error) {
	webinar, err := s.repo.FindByID(ctx, input.WebinarID)
	if err != nil {
		return nil, 0, err
	}
	if webinar == nil {
		return nil, 0, domain.ErrWebinarNotFound
	}
	if !webinar.IsOrganizer(input.User.ID) {
		return nil, 0, domain.ErrWebinarNotOrganizer
	}
	if input.Seats <= webinar.Seats {
		return nil, 0, domain.ErrWebinarReduceSeats
	}
	if input.Seats > domain.MaxSeats {
		return nil, 0, domain.ErrWebinarTooManySeats
	}

	previous := webinar.Seats
	if err := webinar.SetSeats(input.Seats); err != nil {
		return nil, 0, err
	}
	if err := s.repo.Update(ctx, webinar); err != nil {
		return nil, 0, err
	}
	return webinar, previous, nil
}

// GetWebinar retrieves a webinar by ID
func (s *webinarService) GetWebinar(ctx context.Context, id string) (*domain.Webinar, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.webinar.get")
	defer span.End()
	span.SetAttributes(attribute.String("webinar_id", id))

	webinar, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if webinar == nil {
		span.SetStatus(codes.Error, "webinar not found")
		return nil, domain.ErrWebinarNotFound
	}
	return webinar, nil
}
