package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		write      func(c *gin.Context)
		wantStatus int
		wantBody   string
	}{
		{"bad request", func(c *gin.Context) { BadRequest(c, "Invalid request body") }, http.StatusBadRequest, `{"message":"Invalid request body"}`},
		{"unauthorized", Unauthorized, http.StatusUnauthorized, `{"message":"Unauthorized"}`},
		{"forbidden", func(c *gin.Context) { Forbidden(c, "nope") }, http.StatusForbidden, `{"message":"nope"}`},
		{"not found", func(c *gin.Context) { NotFound(c, "gone") }, http.StatusNotFound, `{"message":"gone"}`},
		{"conflict", func(c *gin.Context) { Conflict(c, "again") }, http.StatusConflict, `{"message":"again"}`},
		{"internal", InternalError, http.StatusInternalServerError, `{"message":"Internal server error"}`},
		{"ok", func(c *gin.Context) { OK(c, gin.H{"seats": 3}) }, http.StatusOK, `{"seats":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			tt.write(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestAbort_StopsChain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Abort(c, http.StatusTooManyRequests, "slow down")

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
