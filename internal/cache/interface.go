package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

// Store is a byte-oriented key/value cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
	// Available reports whether the store connection is open.
	Available() bool
	Close() error
}

// Keys builds cache keys under a common prefix.
type Keys struct {
	Prefix string
}

func (k Keys) Websites(organizationID string) string {
	return fmt.Sprintf("%s:websites:%s", k.Prefix, organizationID)
}

func (k Keys) Snapshots(organizationID, websiteID string, limit int) string {
	return fmt.Sprintf("%s%d", k.SnapshotsPrefix(organizationID, websiteID), limit)
}

// SnapshotsPrefix matches every cached snapshot page of a website.
func (k Keys) SnapshotsPrefix(organizationID, websiteID string) string {
	return fmt.Sprintf("%s:snapshots:%s:%s:", k.Prefix, organizationID, websiteID)
}

func (k Keys) Results(organizationID, websiteID string) string {
	return fmt.Sprintf("%s:results:%s:%s", k.Prefix, organizationID, websiteID)
}
