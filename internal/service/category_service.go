package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quashMarket/internal/logger"
	"quashMarket/internal/models/category"
	"quashMarket/internal/normalize"
	repo "quashMarket/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CategoryService struct {
	categories CategoryRepository
}

func NewCategoryService(categories CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) CreateCategory(ctx context.Context, in CategoryInput) (*category.Category, error) {
	title, err := normalize.Title(in.Title, true)
	if err != nil {
		return nil, fromNormalize(err)
	}
	c := &category.Category{
		UUID:  uuid.New(),
		Title: *title,
	}
	if in.Description != nil {
		c.Description = strings.TrimSpace(*in.Description)
	}

	if err := s.categories.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("создание категории: %w", err)
	}
	return c, nil
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]*category.Category, error) {
	list, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение категорий: %w", err)
	}
	return list, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryInput) (*category.Category, error) {
	if in.Title == nil && in.Description == nil {
		return nil, NewValidationError("body", "нет полей для обновления")
	}

	c, err := s.categories.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound(ResourceCategory, id.String())
		}
		return nil, fmt.Errorf("получение категории: %w", err)
	}

	if in.Title != nil {
		title, err := normalize.Title(in.Title, false)
		if err != nil {
			return nil, fromNormalize(err)
		}
		c.Title = *title
	}
	if in.Description != nil {
		c.Description = strings.TrimSpace(*in.Description)
	}

	if err := s.categories.UpdateCategory(ctx, c); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound(ResourceCategory, id.String())
		}
		return nil, fmt.Errorf("обновление категории: %w", err)
	}
	return c, nil
}

func (s *CategoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.categories.DeleteCategory(ctx, id); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return NewNotFound(ResourceCategory, id.String())
		case errors.Is(err, repo.ErrCategoryInUse):
			return NewConflict("Категория используется задачами", ToDetail("id", id.String()))
		}
		return fmt.Errorf("удаление категории: %w", err)
	}
	return nil
}

// EnsureCategories создаёт отсутствующие категории; совпадение ищется по названию без учёта регистра
func (s *CategoryService) EnsureCategories(ctx context.Context, seeds []CategoryInput) (int, error) {
	created := 0
	for _, seed := range seeds {
		title, err := normalize.Title(seed.Title, true)
		if err != nil {
			return created, fromNormalize(err)
		}

		_, err = s.categories.GetCategoryByTitle(ctx, *title)
		if err == nil {
			continue
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return created, fmt.Errorf("поиск категории: %w", err)
		}

		if _, err := s.CreateCategory(ctx, seed); err != nil {
			return created, err
		}
		created++
	}

	if created > 0 {
		logger.Info("Service: Категории засеяны", zap.Int("created", created))
	}
	return created, nil
}
