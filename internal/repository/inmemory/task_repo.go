package inmemory

import (
	"context"
	"time"

	"quashMarket/internal/models/offer"
	"quashMarket/internal/models/task"
	repo "quashMarket/internal/repository"

	"github.com/google/uuid"
)

func (s *Storage) CreateTask(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}
	taskToCreate.Version = 1

	s.tasks[taskToCreate.UUID] = taskToCreate.Clone()
	s.taskIDs = append(s.taskIDs, taskToCreate.UUID)
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.tasks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return taskToGet.Clone(), nil
}

// UpdateTask сохраняет задачу, если её версия не изменилась с момента чтения
func (s *Storage) UpdateTask(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored, ok := s.tasks[taskToUpdate.UUID]
	if !ok {
		return repo.ErrNotFound
	}
	if stored.Version != taskToUpdate.Version {
		return repo.ErrVersionConflict
	}

	now := time.Now()
	taskToUpdate.UpdatedAt = &now
	taskToUpdate.Version++
	s.tasks[taskToUpdate.UUID] = taskToUpdate.Clone()
	return nil
}

// DeleteTask удаляет задачу владельца вместе с предложениями по ней
func (s *Storage) DeleteTask(ctx context.Context, id, ownerID uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored, ok := s.tasks[id]
	if !ok || stored.OwnerID != ownerID {
		return repo.ErrNotFound
	}

	delete(s.tasks, id)
	s.taskIDs = removeID(s.taskIDs, id)

	for _, offerID := range append([]uuid.UUID(nil), s.offerIDs...) {
		if s.offers[offerID].TaskID == id {
			delete(s.offers, offerID)
			s.offerIDs = removeID(s.offerIDs, offerID)
		}
	}
	return nil
}

func (s *Storage) LoadTaskWithRelations(ctx context.Context, id uuid.UUID) (*task.Details, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	stored, ok := s.tasks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return s.details(stored), nil
}

// ListTasksWithRelations - все задачи (owner == nil) или задачи владельца, новые первыми
func (s *Storage) ListTasksWithRelations(ctx context.Context, ownerID *uuid.UUID) ([]*task.Details, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Details{}
	for i := len(s.taskIDs) - 1; i >= 0; i-- {
		stored := s.tasks[s.taskIDs[i]]
		if ownerID != nil && stored.OwnerID != *ownerID {
			continue
		}
		res = append(res, s.details(stored))
	}
	return res, nil
}

// ListQuashedTasks - задачи в работе или завершённые, где у пользователя принятое предложение
func (s *Storage) ListQuashedTasks(ctx context.Context, userID uuid.UUID) ([]*task.Details, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Details{}
	for i := len(s.taskIDs) - 1; i >= 0; i-- {
		stored := s.tasks[s.taskIDs[i]]
		if stored.Status != task.StatusInProgress && stored.Status != task.StatusCompleted {
			continue
		}

		hired := false
		for _, o := range s.offers {
			if o.TaskID == stored.UUID && o.UserID == userID && o.Status == offer.StatusAccepted {
				hired = true
				break
			}
		}
		if hired {
			res = append(res, s.details(stored))
		}
	}
	return res, nil
}

// вызывать под блокировкой
func (s *Storage) details(stored *task.Task) *task.Details {
	d := &task.Details{
		Task:   stored.Clone(),
		Offers: s.offersByTask(stored.UUID),
	}
	if c, ok := s.categories[stored.CategoryID]; ok {
		d.Category = c.Clone()
	}
	return d
}
