package storage

import (
	"context"

	"gameradar/internal/core"
)

// Gateway is durable storage for the whole store. Save always overwrites.
type Gateway interface {
	// Load returns the saved store; ok is false when nothing was saved yet.
	Load(ctx context.Context) (s core.Store, ok bool, err error)
	Save(ctx context.Context, s core.Store) error
}
