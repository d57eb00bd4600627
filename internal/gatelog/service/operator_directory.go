package service

import (
	"context"
	"strings"

	"github.com/BrandonDHaskell/gatelog/internal/gatelog/store"
	"github.com/BrandonDHaskell/gatelog/internal/gatelog/types"
)

type OperatorDirectory struct {
	store store.OperatorStore
}

func NewOperatorDirectory(st store.OperatorStore) *OperatorDirectory {
	return &OperatorDirectory{store: st}
}

func (d *OperatorDirectory) Resolve(ctx context.Context, operatorID string) (types.User, error) {
	operatorID = strings.TrimSpace(operatorID)
	if operatorID == "" {
		return types.User{}, ErrUnknownOperator
	}
	u, ok, err := d.store.Lookup(ctx, operatorID)
	if err != nil {
		return types.User{}, err
	}
	if !ok {
		return types.User{}, ErrUnknownOperator
	}
	return u, nil
}
