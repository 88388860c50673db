package inmemory

import (
	"context"
	"strings"
	"time"

	"quashMarket/internal/models/category"
	repo "quashMarket/internal/repository"

	"github.com/google/uuid"
)

func (s *Storage) CreateCategory(ctx context.Context, c *category.Category) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.categories[c.UUID] = c.Clone()
	s.categoryIDs = append(s.categoryIDs, c.UUID)
	return nil
}

func (s *Storage) GetCategoryByID(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *Storage) GetCategoryByTitle(ctx context.Context, title string) (*category.Category, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, id := range s.categoryIDs {
		if c := s.categories[id]; strings.EqualFold(c.Title, title) {
			return c.Clone(), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *Storage) ListCategories(ctx context.Context) ([]*category.Category, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*category.Category{}
	for i := len(s.categoryIDs) - 1; i >= 0; i-- {
		res = append(res, s.categories[s.categoryIDs[i]].Clone())
	}
	return res, nil
}

func (s *Storage) UpdateCategory(ctx context.Context, c *category.Category) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.categories[c.UUID]; !ok {
		return repo.ErrNotFound
	}
	now := time.Now()
	c.UpdatedAt = &now
	s.categories[c.UUID] = c.Clone()
	return nil
}

func (s *Storage) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.categories[id]; !ok {
		return repo.ErrNotFound
	}
	for _, t := range s.tasks {
		if t.CategoryID == id {
			return repo.ErrCategoryInUse
		}
	}

	delete(s.categories, id)
	s.categoryIDs = removeID(s.categoryIDs, id)
	return nil
}
