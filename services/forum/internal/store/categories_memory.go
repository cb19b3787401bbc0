package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryCategoryStore is a development-only in-memory category index,
// pre-seeded with a default set.
type MemoryCategoryStore struct {
	mu         sync.RWMutex
	nextID     int64
	categories map[int64]Category
}

func NewMemoryCategoryStore() *MemoryCategoryStore {
	s := &MemoryCategoryStore{categories: make(map[int64]Category)}
	for _, seed := range []struct{ name, desc string }{
		{"General", "Anything goes"},
		{"Help", "Questions and answers"},
		{"Announcements", "News from the team"},
	} {
		_, _ = s.Create(context.Background(), seed.name, seed.desc)
	}
	return s
}

func (s *MemoryCategoryStore) Create(_ context.Context, name, description string) (Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if strings.EqualFold(c.Name, name) {
			return Category{}, ErrCategoryConflict
		}
	}

	s.nextID++
	c := Category{
		ID:          s.nextID,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	s.categories[c.ID] = c
	return c, nil
}

func (s *MemoryCategoryStore) GetByID(_ context.Context, id int64) (Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return Category{}, ErrCategoryNotFound
	}
	return c, nil
}

func (s *MemoryCategoryStore) CategoryExists(_ context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.categories[id]
	return ok, nil
}

func (s *MemoryCategoryStore) List(_ context.Context) ([]Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
