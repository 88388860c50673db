package service_test

import (
	"context"
	"errors"
	"testing"

	"quashMarket/internal/models/category"
	"quashMarket/internal/models/offer"
	"quashMarket/internal/models/task"
	"quashMarket/internal/repository/inmemory"
	"quashMarket/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDeadline = "2030-01-01T10:00:00Z"

// fixture - сервисы поверх хранилища в памяти
type fixture struct {
	store    *inmemory.Storage
	tasks    *service.TaskService
	offers   *service.OfferService
	audit    *recorder
	category *category.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := inmemory.New()
	rec := &recorder{}

	cat := &category.Category{UUID: uuid.New(), Title: "Сантехника"}
	require.NoError(t, store.CreateCategory(context.Background(), cat))

	return &fixture{
		store:    store,
		tasks:    service.NewTaskService(store, store, store, rec),
		offers:   service.NewOfferService(store, store, rec),
		audit:    rec,
		category: cat,
	}
}

func (f *fixture) taskInput() service.TaskInput {
	return service.TaskInput{
		Title:    strPtr("Починить кран"),
		Category: strPtr(f.category.UUID.String()),
		Range:    []any{100.0, 300.0},
		Reward:   200.0,
		Deadline: testDeadline,
	}
}

func (f *fixture) createTask(t *testing.T, owner uuid.UUID) *task.Task {
	t.Helper()
	details, err := f.tasks.CreateTask(context.Background(), owner, f.taskInput(), nil)
	require.NoError(t, err)
	return details.Task
}

func (f *fixture) bid(t *testing.T, bidder, taskID uuid.UUID, amount float64) *offer.Offer {
	t.Helper()
	o, err := f.offers.CreateOffer(context.Background(), bidder, service.OfferInput{
		TaskID:   taskID.String(),
		Amount:   amount,
		Deadline: testDeadline,
		Message:  "Готов начать завтра",
	})
	require.NoError(t, err)
	return o
}

// forceStatus меняет статус в обход сервиса
func (f *fixture) forceStatus(t *testing.T, taskID uuid.UUID, status task.Status) {
	t.Helper()
	stored, err := f.store.GetTaskByID(context.Background(), taskID)
	require.NoError(t, err)
	stored.Status = status
	require.NoError(t, f.store.UpdateTask(context.Background(), stored))
}

func (f *fixture) offerStatus(t *testing.T, id uuid.UUID) offer.Status {
	t.Helper()
	o, err := f.store.GetOfferByID(context.Background(), id)
	require.NoError(t, err)
	return o.Status
}

func (f *fixture) taskStatus(t *testing.T, id uuid.UUID) task.Status {
	t.Helper()
	stored, err := f.store.GetTaskByID(context.Background(), id)
	require.NoError(t, err)
	return stored.Status
}

func strPtr(s string) *string {
	return &s
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var busErr *service.BusinessError
	require.True(t, errors.As(err, &busErr), "ожидалась BusinessError, получено: %v", err)
	assert.Equal(t, code, busErr.Code, busErr.Message)
}

var categoryFixture = category.Category{UUID: uuid.New(), Title: "Разное"}
