package position

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository exposes append and read access only; the history is immutable.
type Repository interface {
	Create(ctx context.Context, sample *Sample) error
	ListByTrolley(ctx context.Context, trolleyID uuid.UUID, since time.Time, limit int) ([]*Sample, error)
}
