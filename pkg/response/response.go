package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MessageResponse is the body of every non-data response
type MessageResponse struct {
	Message string `json:"message"`
}

// Body returns the message body for msg
func Body(msg string) MessageResponse {
	return MessageResponse{Message: msg}
}

// Message writes {"message": msg} with the given status
func Message(c *gin.Context, status int, msg string) {
	c.JSON(status, Body(msg))
}

// Abort writes {"message": msg} and stops the handler chain
func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Body(msg))
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func BadRequest(c *gin.Context, msg string) {
	Message(c, http.StatusBadRequest, msg)
}

func Unauthorized(c *gin.Context) {
	Abort(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context, msg string) {
	Message(c, http.StatusForbidden, msg)
}

func NotFound(c *gin.Context, msg string) {
	Message(c, http.StatusNotFound, msg)
}

func Conflict(c *gin.Context, msg string) {
	Message(c, http.StatusConflict, msg)
}

// InternalError hides err from the client; callers log it
func InternalError(c *gin.Context) {
	Message(c, http.StatusInternalServerError, "Internal server error")
}
