// Package retry runs an operation again after transient failures, waiting an
// exponentially growing, jittered interval between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

var (
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrContextCanceled    = errors.New("context canceled during retry")
)

const (
	defaultInitialInterval = time.Second
	defaultMaxInterval     = 30 * time.Second
	defaultMultiplier      = 2.0
)

// Config controls how many attempts are made and how long to wait between them.
type Config struct {
	// MaxRetries counts retries after the first attempt; 0 means a single attempt.
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	// JitterFactor spreads each interval by up to ±JitterFactor of its value.
	JitterFactor float64
	// RetryIf filters which errors get another attempt. Nil retries everything
	// not marked Permanent.
	RetryIf func(err error) bool
}

// DefaultConfig waits 1s, 2s, 4s, 8s, 16s before giving up.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      5,
		InitialInterval: defaultInitialInterval,
		MaxInterval:     defaultMaxInterval,
		Multiplier:      defaultMultiplier,
		JitterFactor:    0.1,
	}
}

// normalized returns a copy of c with out-of-range fields replaced.
func (c Config) normalized() Config {
	c.MaxRetries = max(c.MaxRetries, 0)
	if c.InitialInterval <= 0 {
		c.InitialInterval = defaultInitialInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = defaultMaxInterval
	}
	if c.Multiplier <= 0 {
		c.Multiplier = defaultMultiplier
	}
	c.JitterFactor = min(max(c.JitterFactor, 0), 1)
	return c
}

type Operation func(ctx context.Context) error

// RetryCallback observes a failed attempt before the retrier sleeps.
type RetryCallback func(attempt int, err error, nextInterval time.Duration)

type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable forces another attempt regardless of RetryIf.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

type PermanentError struct{ Err error }

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent stops retrying; the wrapped error is returned as is.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Result describes how a retried operation ended.
type Result struct {
	// Err is nil on success. After the last allowed attempt it wraps both
	// ErrMaxRetriesExceeded and LastError.
	Err           error
	Attempts      int
	TotalDuration time.Duration
	LastError     error
}

type Retrier struct {
	config *Config
}

// New copies config, filling defaults. A nil config means DefaultConfig.
func New(config *Config) *Retrier {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := config.normalized()
	return &Retrier{config: &cfg}
}

func (r *Retrier) Do(ctx context.Context, op Operation) *Result {
	return r.DoWithCallback(ctx, op, nil)
}

func (r *Retrier) DoWithCallback(ctx context.Context, op Operation, callback RetryCallback) *Result {
	started := time.Now()
	res := &Result{}
	done := func(err error) *Result {
		res.Err = err
		res.TotalDuration = time.Since(started)
		return res
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return done(canceled(err))
		}

		res.Attempts = attempt + 1
		err := op(ctx)
		if err == nil {
			return done(nil)
		}

		again, cause := r.classify(err)
		res.LastError = cause
		if !again {
			return done(cause)
		}
		if attempt >= r.config.MaxRetries {
			return done(fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, err))
		}

		wait := r.calculateInterval(attempt)
		if callback != nil {
			callback(attempt+1, err, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return done(canceled(err))
		}
	}
}

// classify reports whether err deserves another attempt, unwrapping
// Permanent markers so callers get the wrapped error back.
func (r *Retrier) classify(err error) (bool, error) {
	var perm *PermanentError
	if errors.As(err, &perm) {
		return false, perm.Err
	}
	var forced *RetryableError
	if errors.As(err, &forced) {
		return true, err
	}
	if r.config.RetryIf == nil {
		return true, err
	}
	return r.config.RetryIf(err), err
}

// calculateInterval returns InitialInterval*Multiplier^attempt, jittered and
// capped at MaxInterval.
func (r *Retrier) calculateInterval(attempt int) time.Duration {
	base := float64(r.config.InitialInterval) * math.Pow(r.config.Multiplier, float64(attempt))
	if f := r.config.JitterFactor; f > 0 {
		base += base * f * (2*rand.Float64() - 1)
	}
	switch {
	case base > float64(r.config.MaxInterval):
		return r.config.MaxInterval
	case base < 0:
		return r.config.InitialInterval
	}
	return time.Duration(base)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func canceled(cause error) error {
	return fmt.Errorf("%w: %w", ErrContextCanceled, cause)
}

// Do runs op with a one-off Retrier built from config.
func Do(ctx context.Context, config *Config, op Operation) *Result {
	return New(config).Do(ctx, op)
}

// DoWithCallback is Do with a callback before each retry.
func DoWithCallback(ctx context.Context, config *Config, op Operation, callback RetryCallback) *Result {
	return New(config).DoWithCallback(ctx, op, callback)
}
