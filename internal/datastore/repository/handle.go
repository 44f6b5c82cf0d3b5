package repository

import (
	"context"
	"errors"

	"github.com/addynamo/surge-alerts/internal/datastore/entities"
)

// ErrHandleNotFound indicates the referenced handle does not exist.
var ErrHandleNotFound = errors.New("handle not found")

// HandleRepository handles tracked-handle persistence.
type HandleRepository interface {
	// GetByName returns the handle record for a handle name, or
	// ErrHandleNotFound.
	GetByName(ctx context.Context, handle string) (*entities.Handle, error)

	// GetOrCreate returns the handle record for a handle name, creating
	// it on first reference.
	GetOrCreate(ctx context.Context, handle string) (*entities.Handle, error)

	// HandleForConfig resolves the handle that owns a surge config, or
	// ErrHandleNotFound when the link is broken.
	HandleForConfig(ctx context.Context, configID string) (*entities.Handle, error)
}
