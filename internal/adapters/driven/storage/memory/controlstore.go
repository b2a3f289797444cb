// Package memory provides in-memory store implementations, used as
// test fixtures and for ephemeral pipeline runs.
package memory

import (
	"context"
	"sync"

	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
	"github.com/zeegglar/GRCora-sub003/internal/core/ports/driven"
)

// Ensure ControlStore implements the interface.
var _ driven.ControlStore = (*ControlStore)(nil)

// ControlStore is an in-memory implementation of driven.ControlStore.
type ControlStore struct {
	mu       sync.RWMutex
	controls map[string]domain.ControlRecord
}

// NewControlStore creates a new in-memory control store.
func NewControlStore() *ControlStore {
	return &ControlStore{controls: make(map[string]domain.ControlRecord)}
}

func controlKey(framework domain.Framework, controlID string) string {
	return string(framework) + "/" + controlID
}

// SaveControl stores or updates a control record.
func (s *ControlStore) SaveControl(_ context.Context, record *domain.ControlRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls[controlKey(record.Framework, record.ControlID)] = *record
	return nil
}

// GetControl retrieves a control by framework and ID.
func (s *ControlStore) GetControl(_ context.Context, framework domain.Framework, controlID string) (*domain.ControlRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.controls[controlKey(framework, controlID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &record, nil
}

// ListControls returns all controls for a framework.
func (s *ControlStore) ListControls(_ context.Context, framework domain.Framework) ([]domain.ControlRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.ControlRecord
	for _, record := range s.controls {
		if record.Framework == framework {
			result = append(result, record)
		}
	}
	return result, nil
}

// CountControls returns the number of controls for a framework.
func (s *ControlStore) CountControls(ctx context.Context, framework domain.Framework) (int, error) {
	records, err := s.ListControls(ctx, framework)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}
