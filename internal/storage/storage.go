package storage

import (
	"context"
	"errors"

	"fuzzworker/internal/domain"
)

// Storage persists finished runs
type Storage interface {
	Save(ctx context.Context, record *domain.RunRecord) error
}

// Multi saves to every storage in order and joins their errors.
type Multi []Storage

// Save writes record to each storage; a failing storage does not stop the rest
func (m Multi) Save(ctx context.Context, record *domain.RunRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
