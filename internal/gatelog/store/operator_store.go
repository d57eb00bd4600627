package store

import (
	"context"

	"github.com/BrandonDHaskell/gatelog/internal/gatelog/types"
)

type OperatorStore interface {
	Lookup(ctx context.Context, operatorID string) (types.User, bool, error)
}
