// Package ratelimit provides domain types and interfaces for rate limiting.
package ratelimit

import (
	"context"
	"time"
)

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerWindow is the maximum number of requests allowed in the window.
	RequestsPerWindow int
	// WindowSize is the duration of the sliding window.
	WindowSize time.Duration
}

// Result represents the outcome of a rate limit check.
type Result struct {
	// Allowed indicates whether the request is allowed.
	Allowed bool
	// Remaining is the number of requests remaining in the current window.
	Remaining int
	// ResetAt is when the rate limit window resets.
	ResetAt time.Time
	// RetryAfter is the duration to wait before retrying (only set when not allowed).
	RetryAfter time.Duration
}

// Limiter is the interface for rate limiting implementations.
type Limiter interface {
	// Allow checks if a request identified by key is allowed under the rate limit.
	Allow(ctx context.Context, key string) (*Result, error)

	// Close releases any resources held by the limiter.
	Close() error
}

// MiddlewareConfig configures the rate limiting middleware.
type MiddlewareConfig struct {
	// IPConfig is the rate limit configuration for IP-based limiting.
	IPConfig Config
	// UserConfig is the rate limit configuration for authenticated user limiting.
	UserConfig Config
	// KeyPrefix is the prefix for all rate limit keys in Redis.
	KeyPrefix string
}

// DefaultIPConfig returns the default IP-based rate limit configuration.
func DefaultIPConfig() Config {
	return Config{
		RequestsPerWindow: 100,
		WindowSize:        time.Minute,
	}
}

// DefaultUserConfig returns the default user-based rate limit configuration.
// Authenticated users get a higher allowance than anonymous IPs.
func DefaultUserConfig() Config {
	return Config{
		RequestsPerWindow: 600,
		WindowSize:        time.Minute,
	}
}

// DefaultMiddlewareConfig returns the default middleware configuration.
func DefaultMiddlewareConfig() MiddlewareConfig {
	return MiddlewareConfig{
		IPConfig:   DefaultIPConfig(),
		UserConfig: DefaultUserConfig(),
		KeyPrefix:  "taskboard:ratelimit:",
	}
}
