package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quashMarket/internal/logger"
	"quashMarket/internal/models/category"
	"quashMarket/internal/models/offer"
	"quashMarket/internal/models/task"
	repo "quashMarket/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const taskColumns = `t.uuid, t.owner_id, t.title, t.description, t.category_id,
	t.range_min, t.range_max, t.reward, t.deadline, t.reach, t.status,
	t.attachments, t.created_at, t.updated_at, t.version`

const categoryJoinColumns = `c.uuid, c.title, c.description, c.created_at, c.updated_at`

func scanTask(row rowScanner, t *task.Task, extra ...any) error {
	dest := []any{
		&t.UUID, &t.OwnerID, &t.Title, &t.Description, &t.CategoryID,
		&t.Range.Min, &t.Range.Max, &t.Reward, &t.Deadline, &t.Reach, &t.Status,
		&t.Attachments, &t.CreatedAt, &t.UpdatedAt, &t.Version,
	}
	return row.Scan(append(dest, extra...)...)
}

func (s *Storage) CreateTask(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()
	defer warnIfSlow("CreateTask", start)

	if taskToCreate.Attachments == nil {
		taskToCreate.Attachments = []string{}
	}

	query := `INSERT INTO tasks
				(uuid, owner_id, title, description, category_id, range_min, range_max,
				 reward, deadline, reach, status, attachments, created_at, version)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1)
				RETURNING created_at, version`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.UUID,
		taskToCreate.OwnerID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.CategoryID,
		taskToCreate.Range.Min,
		taskToCreate.Range.Max,
		taskToCreate.Reward,
		taskToCreate.Deadline,
		taskToCreate.Reach,
		taskToCreate.Status,
		taskToCreate.Attachments,
		time.Now(),
	).Scan(&taskToCreate.CreatedAt, &taskToCreate.Version)

	if err != nil {
		if pgErrorCode(err) == codeForeignKeyViolation {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось добавить задачу", err)
		return fmt.Errorf("добавление задачи: %w", err)
	}
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()
	defer warnIfSlow("GetTaskByID", start)

	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.uuid = $1`

	taskToGet := &task.Task{}
	if err := scanTask(s.pool.QueryRow(ctx, query, id), taskToGet); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err)
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return taskToGet, nil
}

// UpdateTask сохраняет задачу, если её версия не изменилась с момента чтения
func (s *Storage) UpdateTask(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()
	defer warnIfSlow("UpdateTask", start)

	if taskToUpdate.Attachments == nil {
		taskToUpdate.Attachments = []string{}
	}

	query := `UPDATE tasks
				SET title = $1, description = $2, category_id = $3, range_min = $4, range_max = $5,
					reward = $6, deadline = $7, reach = $8, status = $9, attachments = $10,
					updated_at = NOW(), version = version + 1
				WHERE uuid = $11 AND version = $12
				RETURNING updated_at, version`

	err := s.pool.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.CategoryID,
		taskToUpdate.Range.Min,
		taskToUpdate.Range.Max,
		taskToUpdate.Reward,
		taskToUpdate.Deadline,
		taskToUpdate.Reach,
		taskToUpdate.Status,
		taskToUpdate.Attachments,
		taskToUpdate.UUID,
		taskToUpdate.Version,
	).Scan(&taskToUpdate.UpdatedAt, &taskToUpdate.Version)

	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		exists, existsErr := s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE uuid = $1)`, taskToUpdate.UUID)
		if existsErr != nil {
			return existsErr
		}
		if !exists {
			return repo.ErrNotFound
		}
		logger.Warn("Repository: Конфликт версий при обновлении задачи",
			zap.String("task_id", taskToUpdate.UUID.String()),
			zap.Int("expected_version", taskToUpdate.Version))
		return repo.ErrVersionConflict
	}
	if pgErrorCode(err) == codeForeignKeyViolation {
		return repo.ErrNotFound
	}
	logger.Error("Repository: Не удалось обновить задачу", err)
	return fmt.Errorf("обновление задачи: %w", err)
}

// DeleteTask удаляет задачу владельца; предложения удаляются каскадно
func (s *Storage) DeleteTask(ctx context.Context, id, ownerID uuid.UUID) error {
	start := time.Now()
	defer warnIfSlow("DeleteTask", start)

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE uuid = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err)
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) LoadTaskWithRelations(ctx context.Context, id uuid.UUID) (*task.Details, error) {
	list, err := s.listDetails(ctx, "LoadTaskWithRelations", `WHERE t.uuid = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, repo.ErrNotFound
	}
	return list[0], nil
}

// ListTasksWithRelations - все задачи (owner == nil) или задачи владельца, новые первыми
func (s *Storage) ListTasksWithRelations(ctx context.Context, ownerID *uuid.UUID) ([]*task.Details, error) {
	if ownerID == nil {
		return s.listDetails(ctx, "ListTasksWithRelations", ``)
	}
	return s.listDetails(ctx, "ListTasksWithRelations", `WHERE t.owner_id = $1`, *ownerID)
}

// ListQuashedTasks - задачи в работе или завершённые, где у пользователя принятое предложение
func (s *Storage) ListQuashedTasks(ctx context.Context, userID uuid.UUID) ([]*task.Details, error) {
	where := `WHERE t.status IN ($2, $3)
		AND EXISTS (SELECT 1 FROM offers o WHERE o.task_id = t.uuid AND o.user_id = $1 AND o.status = $4)`
	return s.listDetails(ctx, "ListQuashedTasks", where,
		userID, task.StatusInProgress, task.StatusCompleted, offer.StatusAccepted)
}

// listDetails - явный join задач с категориями, затем одним запросом предложения всех найденных задач
func (s *Storage) listDetails(ctx context.Context, op, where string, args ...any) ([]*task.Details, error) {
	start := time.Now()
	defer warnIfSlow(op, start)

	query := `SELECT ` + taskColumns + `, ` + categoryJoinColumns + `
				FROM tasks t
				JOIN task_categories c ON c.uuid = t.category_id
				` + where + `
				ORDER BY t.created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	res := []*task.Details{}
	byID := map[uuid.UUID]*task.Details{}
	ids := []uuid.UUID{}
	for rows.Next() {
		t := &task.Task{}
		c := &category.Category{}
		err := scanTask(rows, t, &c.UUID, &c.Title, &c.Description, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			logger.Error("Repository: Ошибка сканирования задачи", err)
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		d := &task.Details{Task: t, Category: c, Offers: []*offer.Offer{}}
		res = append(res, d)
		byID[t.UUID] = d
		ids = append(ids, t.UUID)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return res, nil
	}

	offers, err := s.queryOffers(ctx, `SELECT `+offerColumns+` FROM offers
				WHERE task_id = ANY($1)
				ORDER BY created_at DESC`, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range offers {
		if d, ok := byID[o.TaskID]; ok {
			d.Offers = append(d.Offers, o)
		}
	}
	return res, nil
}

func (s *Storage) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		logger.Error("Repository: Не удалось проверить существование записи", err)
		return false, fmt.Errorf("проверка существования: %w", err)
	}
	return exists, nil
}
