package store

import (
	"context"
	"fmt"

	"github.com/Olyame/tg-meditation/internal/domain"
)

// Repo persists subscriptions. Implementations must round-trip exactly:
// Load after any sequence of Upsert/Delete returns the resulting set.
type Repo interface {
	Load(ctx context.Context) ([]domain.Subscription, error)
	Upsert(ctx context.Context, s domain.Subscription) error
	Delete(ctx context.Context, chatID int64) error
	Close() error
}

// Supported drivers.
const (
	DriverMemory = "memory"
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Open returns the Repo for driver, creating files under path as needed.
func Open(ctx context.Context, driver, path string) (Repo, error) {
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverJSON:
		r, err := OpenJSON(path)
		if err != nil {
			return nil, err
		}
		return r, nil
	case DriverSQLite:
		r, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
