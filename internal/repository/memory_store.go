package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"settlement-service/internal/models"

	"github.com/google/uuid"
)

// MemoryStore is the in-process PolicyStore used in tests and DB-less runs.
type MemoryStore struct {
	mu       sync.RWMutex
	policies map[uuid.UUID]*models.PolicyInstance
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{policies: make(map[uuid.UUID]*models.PolicyInstance)}
}

func (s *MemoryStore) Create(ctx context.Context, policy *models.PolicyInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.policies[policy.ID]; exists {
		return fmt.Errorf("policy %s already exists", policy.ID)
	}
	s.policies[policy.ID] = policy.Clone()
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*models.PolicyInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	policy, ok := s.policies[id]
	if !ok {
		return nil, ErrNotFound
	}
	return policy.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, policy *models.PolicyInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[policy.ID]; !ok {
		return ErrNotFound
	}
	s.policies[policy.ID] = policy.Clone()
	return nil
}

func (s *MemoryStore) ListByHolder(ctx context.Context, holderID string) ([]models.PolicyInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.PolicyInstance
	for _, policy := range s.policies {
		if policy.HolderID == holderID {
			out = append(out, *policy.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
