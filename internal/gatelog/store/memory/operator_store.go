package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/BrandonDHaskell/gatelog/internal/gatelog/types"
)

type OperatorStore struct {
	mu        sync.RWMutex
	operators map[string]types.User
}

func NewOperatorStore(users []types.User) *OperatorStore {
	ops := make(map[string]types.User, len(users))
	for _, u := range users {
		id := strings.TrimSpace(u.ID)
		if id == "" {
			continue
		}
		u.ID = id
		if u.Name == "" {
			u.Name = id
		}
		if !u.Role.Valid() {
			u.Role = types.RoleOperator
		}
		ops[id] = u
	}
	return &OperatorStore{operators: ops}
}

func (s *OperatorStore) Lookup(_ context.Context, operatorID string) (types.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.operators[operatorID]
	return u, ok, nil
}
