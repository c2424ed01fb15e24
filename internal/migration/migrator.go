package migration

import "context"

// Migrator prepares the results database
type Migrator interface {
	Run(ctx context.Context) error
}
