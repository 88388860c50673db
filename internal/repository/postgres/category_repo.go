package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quashMarket/internal/logger"
	"quashMarket/internal/models/category"
	repo "quashMarket/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const categoryColumns = `uuid, title, description, created_at, updated_at`

func scanCategory(row rowScanner, c *category.Category) error {
	return row.Scan(&c.UUID, &c.Title, &c.Description, &c.CreatedAt, &c.UpdatedAt)
}

func (s *Storage) CreateCategory(ctx context.Context, c *category.Category) error {
	start := time.Now()
	defer warnIfSlow("CreateCategory", start)

	err := s.pool.QueryRow(ctx, `INSERT INTO task_categories (uuid, title, description, created_at)
				VALUES ($1, $2, $3, $4)
				RETURNING created_at`,
		c.UUID, c.Title, c.Description, time.Now(),
	).Scan(&c.CreatedAt)
	if err != nil {
		logger.Error("Repository: Не удалось добавить категорию", err)
		return fmt.Errorf("добавление категории: %w", err)
	}
	return nil
}

func (s *Storage) GetCategoryByID(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	return s.getCategory(ctx, `SELECT `+categoryColumns+` FROM task_categories WHERE uuid = $1`, id)
}

func (s *Storage) GetCategoryByTitle(ctx context.Context, title string) (*category.Category, error) {
	return s.getCategory(ctx, `SELECT `+categoryColumns+` FROM task_categories
				WHERE LOWER(title) = LOWER($1)
				ORDER BY created_at
				LIMIT 1`, title)
}

func (s *Storage) getCategory(ctx context.Context, query string, arg any) (*category.Category, error) {
	start := time.Now()
	defer warnIfSlow("GetCategory", start)

	c := &category.Category{}
	if err := scanCategory(s.pool.QueryRow(ctx, query, arg), c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить категорию", err)
		return nil, fmt.Errorf("получение категории: %w", err)
	}
	return c, nil
}

func (s *Storage) ListCategories(ctx context.Context) ([]*category.Category, error) {
	start := time.Now()
	defer warnIfSlow("ListCategories", start)

	rows, err := s.pool.Query(ctx, `SELECT `+categoryColumns+` FROM task_categories ORDER BY created_at DESC`)
	if err != nil {
		logger.Error("Repository: Не удалось получить категории", err)
		return nil, fmt.Errorf("получение категорий: %w", err)
	}
	defer rows.Close()

	res := []*category.Category{}
	for rows.Next() {
		c := &category.Category{}
		if err := scanCategory(rows, c); err != nil {
			return nil, fmt.Errorf("сканирование категории: %w", err)
		}
		res = append(res, c)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return res, nil
}

func (s *Storage) UpdateCategory(ctx context.Context, c *category.Category) error {
	start := time.Now()
	defer warnIfSlow("UpdateCategory", start)

	err := s.pool.QueryRow(ctx, `UPDATE task_categories
				SET title = $1, description = $2, updated_at = NOW()
				WHERE uuid = $3
				RETURNING updated_at`,
		c.Title, c.Description, c.UUID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить категорию", err)
		return fmt.Errorf("обновление категории: %w", err)
	}
	return nil
}

// DeleteCategory - категорию, на которую ссылаются задачи, удалить нельзя (ON DELETE RESTRICT)
func (s *Storage) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	defer warnIfSlow("DeleteCategory", start)

	tag, err := s.pool.Exec(ctx, `DELETE FROM task_categories WHERE uuid = $1`, id)
	if err != nil {
		if pgErrorCode(err) == codeForeignKeyViolation {
			return repo.ErrCategoryInUse
		}
		logger.Error("Repository: Не удалось удалить категорию", err)
		return fmt.Errorf("удаление категории: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
