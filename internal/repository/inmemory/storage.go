package inmemory

import (
	"context"
	"sync"

	"quashMarket/internal/logger"
	"quashMarket/internal/models/category"
	"quashMarket/internal/models/offer"
	"quashMarket/internal/models/skill"
	"quashMarket/internal/models/task"

	"github.com/google/uuid"
)

// Storage хранит все сущности в памяти под одним мьютексом,
// поэтому многошаговые операции (принятие предложения) атомарны.
type Storage struct {
	tasks      map[uuid.UUID]*task.Task
	offers     map[uuid.UUID]*offer.Offer
	categories map[uuid.UUID]*category.Category
	skills     map[uuid.UUID]*skill.Skill

	// порядок вставки
	taskIDs     []uuid.UUID
	offerIDs    []uuid.UUID
	categoryIDs []uuid.UUID
	skillIDs    []uuid.UUID

	mtx *sync.RWMutex
}

func New() *Storage {
	return &Storage{
		tasks:      make(map[uuid.UUID]*task.Task),
		offers:     make(map[uuid.UUID]*offer.Offer),
		categories: make(map[uuid.UUID]*category.Category),
		skills:     make(map[uuid.UUID]*skill.Skill),
		mtx:        &sync.RWMutex{},
	}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) Close() {}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for ind, val := range ids {
		if val == id {
			return append(ids[:ind], ids[ind+1:]...)
		}
	}
	return ids
}
