package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/prohmpiriya/webinar-service/pkg/response"
)

const (
	// UserIDKey is the context key for the authenticated user
	UserIDKey = "user_id"
	// UserIDHeader carries the user id set by a trusted gateway
	UserIDHeader = "X-User-ID"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// JWTConfig holds configuration for JWT authentication
type JWTConfig struct {
	Secret string
	// Issuer is checked against the "iss" claim when set
	Issuer string
	// TrustUserHeader accepts X-User-ID from an upstream gateway that already authenticated the caller
	TrustUserHeader bool
	SkipPaths       []string
}

// JWTMiddleware authenticates the caller and stores its id under UserIDKey.
// Tokens are HS256 with the user id in the "user_id" claim ("sub" is accepted too).
func JWTMiddleware(config *JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, path := range config.SkipPaths {
			if matchPath(c.Request.URL.Path, path) {
				c.Next()
				return
			}
		}

		if config.TrustUserHeader {
			if userID := c.GetHeader(UserIDHeader); userID != "" {
				c.Set(UserIDKey, userID)
				c.Next()
				return
			}
		}

		userID, err := parseBearer(c.GetHeader("Authorization"), config)
		if err != nil {
			_ = c.Error(err)
			response.Unauthorized(c)
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

func parseBearer(header string, config *JWTConfig) (string, error) {
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(tokenString) == "" {
		return "", ErrMissingToken
	}
	if config.Secret == "" {
		return "", ErrInvalidToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}

	token, err := jwt.Parse(strings.TrimSpace(tokenString), func(token *jwt.Token) (interface{}, error) {
		return []byte(config.Secret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if userID, ok := claims["user_id"].(string); ok && userID != "" {
		return userID, nil
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}
	return "", ErrInvalidToken
}

// GetUserID returns the authenticated user id
func GetUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(UserIDKey)
	return userID, userID != ""
}
