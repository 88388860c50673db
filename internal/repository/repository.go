package repository

import (
	"errors"

	"quashMarket/internal/models/offer"
	"quashMarket/internal/models/task"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("запись не найдена")
	ErrVersionConflict = errors.New("конфликт версий")
	ErrDuplicateOffer  = errors.New("предложение от этого пользователя уже существует")
	ErrStatusConflict  = errors.New("статус записи изменился")
	ErrCategoryInUse   = errors.New("категория используется задачами")
)

// AcceptResult - итог атомарного принятия предложения
type AcceptResult struct {
	Offer    *offer.Offer
	Task     *task.Task
	Rejected []uuid.UUID
}
