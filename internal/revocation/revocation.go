// Package revocation keeps the blocklist of token ids that must no longer be
// accepted. Entries expire on their own when the token would have expired.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrUnavailable is returned when the registry cannot be reached.
var ErrUnavailable = errors.New("revocation registry unavailable")

// Registry stores revoked token ids until they expire.
type Registry interface {
	// Revoke blocks id until expiresAt. It is a no-op when expiresAt has passed.
	Revoke(ctx context.Context, id string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, id string) (bool, error)
	Ping(ctx context.Context) error
}

// Policy decides what a registry outage means for callers.
type Policy int

const (
	// FailOpen treats tokens as not revoked while the registry is down.
	FailOpen Policy = iota
	// FailClosed treats every token as revoked while the registry is down.
	FailClosed
)

// Checker applies a Policy on top of a Registry.
type Checker struct {
	registry Registry
	policy   Policy
	logger   *slog.Logger
}

// NewChecker creates a Checker.
func NewChecker(registry Registry, policy Policy, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{registry: registry, policy: policy, logger: logger}
}

// IsRevoked reports whether id is blocked. Under FailClosed an outage returns
// an error wrapping ErrUnavailable; under FailOpen it is logged and ignored.
func (c *Checker) IsRevoked(ctx context.Context, id string) (bool, error) {
	revoked, err := c.registry.IsRevoked(ctx, id)
	if err == nil {
		return revoked, nil
	}
	if c.policy == FailClosed {
		return true, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	c.logger.Warn("revocation check skipped, registry unavailable",
		"jti", id,
		"error", err,
	)
	return false, nil
}

// Consume revokes the token a stage transition replaces. Under FailOpen an
// outage is logged and the transition continues.
func (c *Checker) Consume(ctx context.Context, id string, expiresAt time.Time) error {
	err := c.registry.Revoke(ctx, id, expiresAt)
	if err == nil {
		return nil
	}
	if c.policy == FailClosed {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	c.logger.Warn("token not revoked, registry unavailable",
		"jti", id,
		"error", err,
	)
	return nil
}

// Revoke blocks id regardless of policy. Outages are always returned.
func (c *Checker) Revoke(ctx context.Context, id string, expiresAt time.Time) error {
	if err := c.registry.Revoke(ctx, id, expiresAt); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Ping checks the underlying registry.
func (c *Checker) Ping(ctx context.Context) error {
	return c.registry.Ping(ctx)
}
