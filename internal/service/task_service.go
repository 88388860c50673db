package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quashMarket/internal/access"
	"quashMarket/internal/audit"
	"quashMarket/internal/logger"
	"quashMarket/internal/models/category"
	"quashMarket/internal/models/offer"
	"quashMarket/internal/models/task"
	"quashMarket/internal/normalize"
	repo "quashMarket/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

type TaskService struct {
	tasks      TaskRepository
	offers     OfferRepository
	categories CategoryRepository
	audit      audit.Recorder
}

func NewTaskService(tasks TaskRepository, offers OfferRepository, categories CategoryRepository, recorder audit.Recorder) *TaskService {
	if recorder == nil {
		recorder = audit.Discard{}
	}
	return &TaskService{
		tasks:      tasks,
		offers:     offers,
		categories: categories,
		audit:      recorder,
	}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.tasks.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

// CreateTask создаёт открытую задачу; вложения - уже сохранённые ссылки
func (s *TaskService) CreateTask(ctx context.Context, ownerID uuid.UUID, in TaskInput, attachments []string) (*task.Details, error) {
	title, err := normalize.Title(in.Title, true)
	if err != nil {
		return nil, fromNormalize(err)
	}
	if in.Category == nil || strings.TrimSpace(*in.Category) == "" {
		return nil, NewValidationError("category", "обязательное поле")
	}
	cat, err := s.resolveCategory(ctx, *in.Category)
	if err != nil {
		return nil, err
	}
	budget, err := normalize.Range(in.Range, true)
	if err != nil {
		return nil, fromNormalize(err)
	}
	reward, err := normalize.Reward(in.Reward, true)
	if err != nil {
		return nil, fromNormalize(err)
	}
	deadline, err := normalize.Deadline("deadLine", in.Deadline, true)
	if err != nil {
		return nil, fromNormalize(err)
	}

	reach := task.ReachLocal
	if in.Reach != nil {
		reach = normalize.SanitizeReach(*in.Reach, task.ReachLocal)
	}
	description := ""
	if in.Description != nil {
		description = strings.TrimSpace(*in.Description)
	}
	if attachments == nil {
		attachments = []string{}
	}

	newTask := &task.Task{
		UUID:        uuid.New(),
		OwnerID:     ownerID,
		Title:       *title,
		Description: description,
		CategoryID:  cat.UUID,
		Range:       *budget,
		Reward:      *reward,
		Deadline:    *deadline,
		Reach:       reach,
		Status:      task.StatusOpen,
		Attachments: attachments,
	}

	if err := s.tasks.CreateTask(ctx, newTask); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound(ResourceCategory, cat.UUID.String())
		}
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", newTask.UUID.String()),
		zap.String("owner_id", ownerID.String()))
	s.audit.Record(audit.Event{
		Action:   audit.TaskCreated,
		ActorID:  ownerID,
		Entity:   audit.EntityTask,
		EntityID: newTask.UUID,
		TaskID:   newTask.UUID,
		To:       string(newTask.Status),
	})

	return &task.Details{Task: newTask, Category: cat, Offers: []*offer.Offer{}}, nil
}

func (s *TaskService) GetAllTasks(ctx context.Context) ([]*task.Details, error) {
	tasks, err := s.tasks.ListTasksWithRelations(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) GetUserTasks(ctx context.Context, ownerID uuid.UUID) ([]*task.Details, error) {
	tasks, err := s.tasks.ListTasksWithRelations(ctx, &ownerID)
	if err != nil {
		return nil, fmt.Errorf("получение задач пользователя: %w", err)
	}
	return tasks, nil
}

// GetQuashedTasks - задачи, где пользователь нанят исполнителем
func (s *TaskService) GetQuashedTasks(ctx context.Context, userID uuid.UUID) ([]*task.Details, error) {
	tasks, err := s.tasks.ListQuashedTasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("получение задач исполнителя: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Details, error) {
	details, err := s.tasks.LoadTaskWithRelations(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound(ResourceTask, id.String())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return details, nil
}

// UpdateTask применяет частичное обновление от владельца или нанятого исполнителя.
// Порядок проверок: существование, роль, валидация полей, права на поля, переход статуса.
func (s *TaskService) UpdateTask(ctx context.Context, callerID, id uuid.UUID, in TaskInput) (*task.Details, error) {
	current, err := s.tasks.GetTaskByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound(ResourceTask, id.String())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	offers, err := s.offers.GetOffersByTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("получение предложений задачи: %w", err)
	}

	role := access.ResolveRole(current, callerID, offers)
	if role == access.RoleNone {
		logger.Warn("Service: Попытка изменить чужую задачу",
			zap.String("task_id", id.String()),
			zap.String("caller_id", callerID.String()))
		return nil, NewForbidden("Изменять задачу может только владелец или нанятый исполнитель")
	}

	patch, err := s.buildPatch(ctx, current, in)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, NewValidationError("body", "нет полей для обновления")
	}
	if !access.CanEditFields(role, patch) {
		return nil, NewForbidden("Исполнитель может менять только статус задачи")
	}
	if patch.OnlyStatus() && *patch.Status == current.Status {
		return s.GetTaskByID(ctx, id)
	}
	if current.Status.IsTerminal() {
		return nil, NewInvalidState(fmt.Sprintf("Задача в статусе %s не изменяется", current.Status),
			ToDetail("status", current.Status))
	}

	// перенос дедлайна в работе без явного статуса
	if role == access.RoleOwner && patch.Status == nil && patch.Deadline != nil &&
		current.Status == task.StatusInProgress && !patch.Deadline.Equal(current.Deadline) {
		updated := task.StatusDeadlineUpdated
		patch.Status = &updated
	}

	from := current.Status
	if patch.Status != nil && !access.CanSetStatus(role, from, *patch.Status) {
		return nil, NewInvalidState(
			fmt.Sprintf("Переход %s -> %s недоступен для роли %s", from, *patch.Status, role),
			ToDetail("from", from), ToDetail("to", *patch.Status), ToDetail("role", role))
	}

	for _, opt := range patch.Options() {
		opt(current)
	}

	if err := s.tasks.UpdateTask(ctx, current); err != nil {
		switch {
		case errors.Is(err, repo.ErrVersionConflict):
			return nil, NewVersionConflict(ResourceTask, id.String(), err)
		case errors.Is(err, repo.ErrNotFound):
			return nil, NewNotFound(ResourceTask, id.String())
		}
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}

	s.audit.Record(audit.Event{
		Action:   audit.TaskUpdated,
		ActorID:  callerID,
		Entity:   audit.EntityTask,
		EntityID: id,
		TaskID:   id,
		From:     string(from),
		To:       string(current.Status),
	})

	return s.GetTaskByID(ctx, id)
}

// buildPatch нормализует только переданные поля
func (s *TaskService) buildPatch(ctx context.Context, current *task.Task, in TaskInput) (task.Patch, error) {
	patch := task.Patch{}

	if in.Title != nil {
		title, err := normalize.Title(in.Title, false)
		if err != nil {
			return patch, fromNormalize(err)
		}
		patch.Title = title
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		patch.Description = &description
	}
	if in.Category != nil {
		cat, err := s.resolveCategory(ctx, *in.Category)
		if err != nil {
			return patch, err
		}
		patch.CategoryID = &cat.UUID
	}
	// пустые значения при обновлении означают "без изменений"
	budget, err := normalize.Range(in.Range, false)
	if err != nil {
		return patch, fromNormalize(err)
	}
	patch.Range = budget

	reward, err := normalize.Reward(in.Reward, false)
	if err != nil {
		return patch, fromNormalize(err)
	}
	patch.Reward = reward

	deadline, err := normalize.Deadline("deadLine", in.Deadline, false)
	if err != nil {
		return patch, fromNormalize(err)
	}
	patch.Deadline = deadline

	if in.Reach != nil {
		if reach := normalize.SanitizeReach(*in.Reach, current.Reach); reach != current.Reach {
			patch.Reach = &reach
		}
	}
	if in.Status != nil {
		status := task.Status(strings.TrimSpace(*in.Status))
		if !status.Valid() {
			return patch, NewValidationError("status", fmt.Sprintf("недопустимый статус '%s'", *in.Status))
		}
		patch.Status = &status
	}
	return patch, nil
}

// DeleteTask удаляет задачу владельца вместе с предложениями
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.tasks.DeleteTask(ctx, id, ownerID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound(ResourceTask, id.String())
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}

	logger.Info("Service: Задача удалена", zap.String("task_id", id.String()))
	s.audit.Record(audit.Event{
		Action:   audit.TaskDeleted,
		ActorID:  ownerID,
		Entity:   audit.EntityTask,
		EntityID: id,
		TaskID:   id,
	})
	return nil
}

func (s *TaskService) resolveCategory(ctx context.Context, raw string) (*category.Category, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, NewValidationError("category", "некорректный идентификатор категории")
	}
	cat, err := s.categories.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound(ResourceCategory, id.String())
		}
		return nil, fmt.Errorf("получение категории: %w", err)
	}
	return cat, nil
}
