package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/prohmpiriya/webinar-service/internal/domain"
	"github.com/prohmpiriya/webinar-service/internal/dto"
	"github.com/prohmpiriya/webinar-service/internal/service"
	"github.com/prohmpiriya/webinar-service/pkg/logger"
	"github.com/prohmpiriya/webinar-service/pkg/response"
	"github.com/prohmpiriya/webinar-service/pkg/telemetry"
)

// Response messages
const (
	MsgSeatsUpdated      = "Seats updated"
	MsgWebinarNotFound   = "Webinar not found"
	MsgNotOrganizer      = "You are not the organizer"
	MsgCannotReduceSeats = "You cannot reduce the number of seats"
	MsgTooManySeats      = "Webinar must have at most 1000 seats"
	MsgInvalidBody       = "Invalid request body"
	MsgConcurrentUpdate  = "Webinar was modified concurrently, please retry"
)

// WebinarHandler handles webinar HTTP requests
type WebinarHandler struct {
	webinarService service.WebinarService
	log            *logger.Logger
}

// NewWebinarHandler creates a new webinar handler
func NewWebinarHandler(webinarService service.WebinarService) *WebinarHandler {
	return &WebinarHandler{
		webinarService: webinarService,
		log:            logger.Get(),
	}
}

// ChangeSeats handles PATCH /webinars/:id/seats
func (h *WebinarHandler) ChangeSeats(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.webinar.change_seats")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.GetString("user_id")
	if userID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c)
		return
	}

	var req dto.ChangeSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, MsgInvalidBody)
		return
	}

	webinarID := c.Param("id")
	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("webinar_id", webinarID),
		attribute.Int("seats", *req.Seats),
	)

	err := h.webinarService.ChangeSeats(ctx, &service.ChangeSeatsInput{
		User:      domain.User{ID: userID},
		WebinarID: webinarID,
		Seats:     *req.Seats,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Message(c, http.StatusOK, MsgSeatsUpdated)
}

// GetByID handles GET /webinars/:id
func (h *WebinarHandler) GetByID(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.webinar.get")
	defer span.End()

	webinar, err := h.webinarService.GetWebinar(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		h.handleError(c, err)
		return
	}

	response.OK(c, dto.FromWebinar(webinar))
}

func (h *WebinarHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrWebinarNotFound):
		response.NotFound(c, MsgWebinarNotFound)
	case errors.Is(err, domain.ErrWebinarNotOrganizer):
		response.Forbidden(c, MsgNotOrganizer)
	case errors.Is(err, domain.ErrWebinarReduceSeats):
		response.BadRequest(c, MsgCannotReduceSeats)
	case errors.Is(err, domain.ErrWebinarTooManySeats):
		response.BadRequest(c, MsgTooManySeats)
	case errors.Is(err, domain.ErrVersionConflict):
		response.Conflict(c, MsgConcurrentUpdate)
	default:
		h.log.Error("webinar request failed",
			zap.String("path", c.FullPath()),
			zap.String("webinar_id", c.Param("id")),
			zap.Error(err),
		)
		response.InternalError(c)
	}
}
