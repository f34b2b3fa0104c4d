package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/prohmpiriya/webinar-service/pkg/logger"
	"github.com/prohmpiriya/webinar-service/pkg/response"
)

const (
	IdempotencyKeyHeader     = "X-Idempotency-Key"
	ContextKeyIdempotencyKey = "idempotency_key"
	// IdempotentReplayHeader marks a response served from a stored record
	IdempotentReplayHeader = "Idempotent-Replayed"
	IdempotencyKeyPrefix   = "idempotency:"

	DefaultIdempotencyTTL     = 5 * time.Minute
	defaultIdempotencyPending = time.Minute
)

type IdempotencyStatus string

const (
	StatusProcessing IdempotencyStatus = "processing"
	StatusCompleted  IdempotencyStatus = "completed"
)

// IdempotencyRecord is what gets stored in Redis under IdempotencyKeyPrefix+key.
type IdempotencyRecord struct {
	Status       IdempotencyStatus `json:"status"`
	Fingerprint  string            `json:"fingerprint"`
	ResponseCode int               `json:"response_code,omitempty"`
	ResponseBody string            `json:"response_body,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

// RedisClient is the subset of *redis.Client the middleware touches.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type IdempotencyConfig struct {
	Redis RedisClient
	// TTL keeps completed responses for replay
	TTL time.Duration
	// ProcessingTTL bounds how long an unfinished request blocks its key
	ProcessingTTL time.Duration
	// RequireKey rejects tracked requests that carry no key
	RequireKey bool
	SkipPaths  []string
	// Methods lists the HTTP methods that are tracked
	Methods []string
}

func DefaultIdempotencyConfig(rdb RedisClient) *IdempotencyConfig {
	return &IdempotencyConfig{
		Redis:         rdb,
		TTL:           DefaultIdempotencyTTL,
		ProcessingTTL: defaultIdempotencyPending,
		Methods:       []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
	}
}

// idempotencyStore reads and writes records for one Redis keyspace.
type idempotencyStore struct {
	rdb RedisClient
}

func (s idempotencyStore) key(k string) string { return IdempotencyKeyPrefix + k }

// load returns redis.Nil when no record exists.
func (s idempotencyStore) load(ctx context.Context, k string) (*IdempotencyRecord, error) {
	raw, err := s.rdb.Get(ctx, s.key(k)).Bytes()
	if err != nil {
		return nil, err
	}
	rec := &IdempotencyRecord{}
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// reserve claims k for a new request; false means someone else holds it.
func (s idempotencyStore) reserve(ctx context.Context, k string, rec *IdempotencyRecord, ttl time.Duration) (bool, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, s.key(k), raw, ttl).Result()
}

func (s idempotencyStore) save(ctx context.Context, k string, rec *IdempotencyRecord, ttl time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(k), raw, ttl).Err()
}

func (s idempotencyStore) release(ctx context.Context, k string) error {
	return s.rdb.Del(ctx, s.key(k)).Err()
}

// IdempotencyMiddleware replays the stored response when a client repeats a
// write with the same X-Idempotency-Key. Requests without a key pass through
// unless RequireKey is set. When Redis is unavailable requests are served
// without deduplication.
func IdempotencyMiddleware(config *IdempotencyConfig) gin.HandlerFunc {
	ttl, pending := config.TTL, config.ProcessingTTL
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	if pending <= 0 {
		pending = defaultIdempotencyPending
	}
	store := idempotencyStore{rdb: config.Redis}
	log := logger.Get()

	return func(c *gin.Context) {
		if !slices.Contains(config.Methods, c.Request.Method) || skipped(c.Request.URL.Path, config.SkipPaths) {
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			if config.RequireKey {
				response.Abort(c, http.StatusBadRequest, IdempotencyKeyHeader+" header is required")
				return
			}
			c.Next()
			return
		}
		c.Set(ContextKeyIdempotencyKey, key)

		ctx := c.Request.Context()
		fp := fingerprint(c)

		switch rec, err := store.load(ctx, key); {
		case err == nil:
			replay(c, rec, fp)
			return
		case !errors.Is(err, redis.Nil):
			log.Warn("Idempotency lookup failed, serving without it",
				zap.String("idempotency_key", key), zap.Error(err))
			c.Next()
			return
		}

		rec := &IdempotencyRecord{Status: StatusProcessing, Fingerprint: fp, CreatedAt: time.Now()}
		if ok, err := store.reserve(ctx, key, rec, pending); err == nil && !ok {
			// a concurrent request with the same key got there first
			if other, err := store.load(ctx, key); err == nil {
				replay(c, other, fp)
				return
			}
		}

		capture := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = capture
		c.Next()

		status := capture.Status()
		if !replayable(status) {
			_ = store.release(ctx, key)
			return
		}

		done := time.Now()
		rec.Status = StatusCompleted
		rec.ResponseCode = status
		rec.ResponseBody = capture.buf.String()
		rec.CompletedAt = &done
		if err := store.save(ctx, key, rec, ttl); err != nil {
			log.Warn("Failed to store idempotent response",
				zap.String("idempotency_key", key), zap.Error(err))
		}
	}
}

// replayable reports whether a response is final for its key. Server errors and
// 409 (concurrent modification) ask the client to retry, so they free the key.
func replayable(status int) bool {
	return status < http.StatusInternalServerError && status != http.StatusConflict
}

func replay(c *gin.Context, rec *IdempotencyRecord, fp string) {
	switch {
	case rec.Fingerprint != fp:
		response.Abort(c, http.StatusUnprocessableEntity, "Idempotency key already used with a different request")
	case rec.Status != StatusCompleted:
		response.Abort(c, http.StatusConflict, "A request with this idempotency key is already being processed")
	default:
		c.Header(IdempotentReplayHeader, "true")
		c.Data(rec.ResponseCode, gin.MIMEJSON+"; charset=utf-8", []byte(rec.ResponseBody))
		c.Abort()
	}
}

// fingerprint hashes method, path, caller and body so a key cannot be reused
// for a different request. The body is restored for the handler.
func fingerprint(c *gin.Context) string {
	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}
	userID, _ := GetUserID(c)

	h := sha256.New()
	for _, part := range [][]byte{[]byte(c.Request.Method), []byte(c.Request.URL.Path), []byte(userID), body} {
		h.Write(part)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

type capturingWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func skipped(path string, patterns []string) bool {
	return slices.ContainsFunc(patterns, func(p string) bool { return matchPath(path, p) })
}

// matchPath matches exactly, or by prefix when pattern ends in "*"
func matchPath(path, pattern string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(path, prefix)
	}
	return path == pattern
}
