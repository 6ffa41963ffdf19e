package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"gameradar/internal/core"
	"gameradar/internal/storage"
)

var _ storage.Gateway = (*Store)(nil)

// Store keeps the saved state in process memory.
type Store struct {
	mu    sync.Mutex
	state *core.Store
	saves int
}

func New() *Store {
	return &Store{}
}

// NewFromFile seeds the store from a JSON snapshot such as one written by
// `radarctl categories --json`. Missing or unreadable files leave it empty.
func NewFromFile(path string) *Store {
	s := New()
	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var seed core.Store
	if err := json.Unmarshal(data, &seed); err != nil || len(seed.Categories) == 0 {
		return s
	}
	s.state = &seed
	return s
}

// Load implements storage.Gateway.
func (s *Store) Load(_ context.Context) (core.Store, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return core.Store{}, false, nil
	}
	return s.state.Clone(), true, nil
}

// Save implements storage.Gateway.
func (s *Store) Save(_ context.Context, st core.Store) error {
	if st.Categories == nil {
		return fmt.Errorf("save: nil category list")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := st.Clone()
	s.state = &cp
	s.saves++
	return nil
}

// Saves reports how many times Save succeeded.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
