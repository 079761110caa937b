package store

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines read access to store anchors; stores are owned
// externally and never written by this core.
type Repository interface {
	GetByID(ctx context.Context, storeID uuid.UUID) (*Store, error)
}
