package service_test

import (
	"context"
	"sync"
	"testing"

	"quashMarket/internal/audit"
	"quashMarket/internal/models/offer"
	"quashMarket/internal/models/task"
	repo "quashMarket/internal/repository"
	"quashMarket/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestOfferService_CreateOffer_Validation тестирует разбор ввода предложения
func TestOfferService_CreateOffer_Validation(t *testing.T) {
	f := newFixture(t)
	created := f.createTask(t, uuid.New())

	tests := []struct {
		name string
		in   service.OfferInput
		code string
	}{
		{"missing task id", service.OfferInput{Amount: 10.0, Deadline: testDeadline}, service.CodeValidation},
		{"malformed task id", service.OfferInput{TaskID: "42", Amount: 10.0, Deadline: testDeadline}, service.CodeValidation},
		{"zero amount", service.OfferInput{TaskID: created.UUID.String(), Amount: 0.0, Deadline: testDeadline}, service.CodeValidation},
		{"text amount", service.OfferInput{TaskID: created.UUID.String(), Amount: "много", Deadline: testDeadline}, service.CodeValidation},
		{"missing deadline", service.OfferInput{TaskID: created.UUID.String(), Amount: 10.0}, service.CodeValidation},
		{"unknown task", service.OfferInput{TaskID: uuid.NewString(), Amount: 10.0, Deadline: testDeadline}, service.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.offers.CreateOffer(context.Background(), uuid.New(), tt.in)
			requireCode(t, err, tt.code)
		})
	}
}

// TestOfferService_CreateOffer_ClosedForBidding - ставки по задачам в работе и закрытым запрещены
func TestOfferService_CreateOffer_ClosedForBidding(t *testing.T) {
	for _, status := range []task.Status{task.StatusInProgress, task.StatusCompleted, task.StatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			created := f.createTask(t, uuid.New())
			f.forceStatus(t, created.UUID, status)

			_, err := f.offers.CreateOffer(context.Background(), uuid.New(), service.OfferInput{
				TaskID: created.UUID.String(), Amount: 100.0, Deadline: testDeadline,
			})
			requireCode(t, err, service.CodeInvalidState)
		})
	}

	// остальные статусы ставки принимают
	for _, status := range []task.Status{task.StatusClosed, task.StatusConflict, task.StatusDeadlineUpdated} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			created := f.createTask(t, uuid.New())
			f.forceStatus(t, created.UUID, status)
			f.bid(t, uuid.New(), created.UUID, 100)
		})
	}
}

// TestOfferService_CreateOffer_RaceAtWrite - задача ушла в работу между чтением и записью ставки
func TestOfferService_CreateOffer_RaceAtWrite(t *testing.T) {
	ctx := context.Background()
	taskID := uuid.New()
	bidder := uuid.New()

	tasks := new(MockTaskRepository)
	offers := new(MockOfferRepository)
	tasks.On("GetTaskByID", mock.Anything, taskID).
		Return(&task.Task{UUID: taskID, OwnerID: uuid.New(), Status: task.StatusOpen}, nil)
	offers.On("CreateOffer", mock.Anything, mock.AnythingOfType("*offer.Offer")).Return(repo.ErrStatusConflict)

	rec := &recorder{}
	svc := service.NewOfferService(tasks, offers, rec)
	_, err := svc.CreateOffer(ctx, bidder, service.OfferInput{
		TaskID: taskID.String(), Amount: 100.0, Deadline: testDeadline,
	})
	requireCode(t, err, service.CodeInvalidState)
	assert.Empty(t, rec.actions())

	tasks.AssertExpectations(t)
	offers.AssertExpectations(t)
}

// snapshotTasks отдаёт сервису снимок задачи, сделанный до её изменения
type snapshotTasks struct {
	service.TaskRepository
	snapshot *task.Task
}

func (s snapshotTasks) GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	if id == s.snapshot.UUID {
		return s.snapshot.Clone(), nil
	}
	return s.TaskRepository.GetTaskByID(ctx, id)
}

// TestOfferService_CreateOffer_AfterAccept - задача принята после чтения, ставка не сохраняется
func TestOfferService_CreateOffer_AfterAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	created := f.createTask(t, owner)
	first := f.bid(t, uuid.New(), created.UUID, 100)

	_, err := f.offers.AcceptOffer(ctx, owner, first.UUID)
	require.NoError(t, err)

	stale := service.NewOfferService(snapshotTasks{TaskRepository: f.store, snapshot: created}, f.store, f.audit)
	_, err = stale.CreateOffer(ctx, uuid.New(), service.OfferInput{
		TaskID: created.UUID.String(), Amount: 90.0, Deadline: testDeadline,
	})
	requireCode(t, err, service.CodeInvalidState)

	offers, err := f.offers.GetTaskOffers(ctx, created.UUID)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, offer.StatusAccepted, offers[0].Status)
}

// TestOfferService_BidOnConflictTask - ставка по задаче в споре принимается, но принять её нельзя
func TestOfferService_BidOnConflictTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	created := f.createTask(t, owner)
	hired := f.bid(t, uuid.New(), created.UUID, 100)

	_, err := f.offers.AcceptOffer(ctx, owner, hired.UUID)
	require.NoError(t, err)
	_, err = f.tasks.UpdateTask(ctx, owner, created.UUID, service.TaskInput{Status: strPtr(string(task.StatusConflict))})
	require.NoError(t, err)

	late := f.bid(t, uuid.New(), created.UUID, 80)
	_, err = f.offers.AcceptOffer(ctx, owner, late.UUID)
	requireCode(t, err, service.CodeInvalidState)
	assert.Equal(t, offer.StatusPending, f.offerStatus(t, late.UUID))
	assert.Equal(t, offer.StatusAccepted, f.offerStatus(t, hired.UUID))

	_, err = f.offers.RejectOffer(ctx, owner, late.UUID)
	require.NoError(t, err)
}

// TestOfferService_CreateOffer_Rules тестирует одно предложение на пользователя и запрет на свою задачу
func TestOfferService_CreateOffer_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	bidder := uuid.New()
	created := f.createTask(t, owner)

	_, err := f.offers.CreateOffer(ctx, owner, service.OfferInput{
		TaskID: created.UUID.String(), Amount: 100.0, Deadline: testDeadline,
	})
	requireCode(t, err, service.CodeForbidden)

	first := f.bid(t, bidder, created.UUID, 100)
	assert.Equal(t, offer.StatusPending, first.Status)
	assert.Equal(t, "Готов начать завтра", first.Message)

	_, err = f.offers.CreateOffer(ctx, bidder, service.OfferInput{
		TaskID: created.UUID.String(), Amount: 90.0, Deadline: testDeadline,
	})
	requireCode(t, err, service.CodeConflict)

	// после отзыва повторная ставка всё равно запрещена
	_, err = f.offers.WithdrawOffer(ctx, bidder, first.UUID)
	require.NoError(t, err)
	_, err = f.offers.CreateOffer(ctx, bidder, service.OfferInput{
		TaskID: created.UUID.String(), Amount: 80.0, Deadline: testDeadline,
	})
	requireCode(t, err, service.CodeConflict)

	offers, err := f.offers.GetTaskOffers(ctx, created.UUID)
	require.NoError(t, err)
	assert.Len(t, offers, 1)
}

// TestOfferService_CreateOffer_Concurrent тестирует гонку двух ставок одного пользователя
func TestOfferService_CreateOffer_Concurrent(t *testing.T) {
	f := newFixture(t)
	created := f.createTask(t, uuid.New())
	bidder := uuid.New()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.offers.CreateOffer(context.Background(), bidder, service.OfferInput{
				TaskID: created.UUID.String(), Amount: 100.0, Deadline: testDeadline,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		requireCode(t, err, service.CodeConflict)
	}
	assert.Equal(t, 1, succeeded)
}

// TestOfferService_AcceptOffer_Scenario - принятие A отклоняет B, повторное принятие B запрещено
func TestOfferService_AcceptOffer_Scenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()

	created := f.createTask(t, u1)
	a := f.bid(t, u2, created.UUID, 100)
	b := f.bid(t, u3, created.UUID, 150)

	accepted, err := f.offers.AcceptOffer(ctx, u1, a.UUID)
	require.NoError(t, err)
	assert.Equal(t, offer.StatusAccepted, accepted.Status)

	assert.Equal(t, offer.StatusAccepted, f.offerStatus(t, a.UUID))
	assert.Equal(t, offer.StatusRejected, f.offerStatus(t, b.UUID))
	assert.Equal(t, task.StatusInProgress, f.taskStatus(t, created.UUID))

	_, err = f.offers.AcceptOffer(ctx, u1, b.UUID)
	requireCode(t, err, service.CodeInvalidState)

	assert.Equal(t, offer.StatusAccepted, f.offerStatus(t, a.UUID))
	assert.Equal(t, task.StatusInProgress, f.taskStatus(t, created.UUID))

	assert.Equal(t, []audit.Action{
		audit.TaskCreated,
		audit.OfferCreated,
		audit.OfferCreated,
		audit.OfferAccepted,
		audit.TaskUpdated,
		audit.OffersAutoRejected,
	}, f.audit.actions())
}

// TestOfferService_AcceptOffer_LeavesDecidedOffers - отклонённые и отозванные предложения не трогаются
func TestOfferService_AcceptOffer_LeavesDecidedOffers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	created := f.createTask(t, owner)

	a := f.bid(t, uuid.New(), created.UUID, 100)
	rejectedBidder := uuid.New()
	rejected := f.bid(t, rejectedBidder, created.UUID, 120)
	withdrawnBidder := uuid.New()
	withdrawn := f.bid(t, withdrawnBidder, created.UUID, 130)
	pending := f.bid(t, uuid.New(), created.UUID, 140)

	_, err := f.offers.RejectOffer(ctx, owner, rejected.UUID)
	require.NoError(t, err)
	_, err = f.offers.WithdrawOffer(ctx, withdrawnBidder, withdrawn.UUID)
	require.NoError(t, err)

	before, err := f.store.GetOfferByID(ctx, rejected.UUID)
	require.NoError(t, err)

	_, err = f.offers.AcceptOffer(ctx, owner, a.UUID)
	require.NoError(t, err)

	after, err := f.store.GetOfferByID(ctx, rejected.UUID)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, offer.StatusWithdrawn, f.offerStatus(t, withdrawn.UUID))
	assert.Equal(t, offer.StatusRejected, f.offerStatus(t, pending.UUID))
}

// TestOfferService_AcceptOffer_Preconditions тестирует отказ без побочных эффектов
func TestOfferService_AcceptOffer_Preconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	created := f.createTask(t, owner)
	a := f.bid(t, uuid.New(), created.UUID, 100)
	b := f.bid(t, uuid.New(), created.UUID, 100)

	_, err := f.offers.AcceptOffer(ctx, uuid.New(), a.UUID)
	requireCode(t, err, service.CodeForbidden)

	_, err = f.offers.AcceptOffer(ctx, owner, uuid.New())
	requireCode(t, err, service.CodeNotFound)

	_, err = f.offers.RejectOffer(ctx, owner, a.UUID)
	require.NoError(t, err)

	_, err = f.offers.AcceptOffer(ctx, owner, a.UUID)
	requireCode(t, err, service.CodeInvalidState)

	assert.Equal(t, task.StatusOpen, f.taskStatus(t, created.UUID))
	assert.Equal(t, offer.StatusPending, f.offerStatus(t, b.UUID))

	// задача отменена владельцем
	f.forceStatus(t, created.UUID, task.StatusCancelled)
	_, err = f.offers.AcceptOffer(ctx, owner, b.UUID)
	requireCode(t, err, service.CodeInvalidState)
	assert.Equal(t, offer.StatusPending, f.offerStatus(t, b.UUID))
}

// TestOfferService_AcceptOffer_Concurrent - двойной клик по разным предложениям нанимает одного
func TestOfferService_AcceptOffer_Concurrent(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	created := f.createTask(t, owner)

	ids := []uuid.UUID{}
	for i := 0; i < 10; i++ {
		ids = append(ids, f.bid(t, uuid.New(), created.UUID, float64(100+i)).UUID)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := f.offers.AcceptOffer(context.Background(), owner, id)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		requireCode(t, err, service.CodeInvalidState)
	}
	assert.Equal(t, 1, succeeded)

	accepted := 0
	for _, id := range ids {
		if f.offerStatus(t, id) == offer.StatusAccepted {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
}

// TestOfferService_AcceptOffer_RaceAtWrite - предусловие перепроверяется в момент записи
func TestOfferService_AcceptOffer_RaceAtWrite(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	taskID := uuid.New()
	offerID := uuid.New()

	tasks := new(MockTaskRepository)
	offers := new(MockOfferRepository)
	offers.On("GetOfferByID", mock.Anything, offerID).
		Return(&offer.Offer{UUID: offerID, TaskID: taskID, UserID: uuid.New(), Status: offer.StatusPending}, nil)
	tasks.On("GetTaskByID", mock.Anything, taskID).
		Return(&task.Task{UUID: taskID, OwnerID: owner, Status: task.StatusOpen}, nil)
	offers.On("AcceptOffer", mock.Anything, offerID).Return(nil, repo.ErrStatusConflict)

	rec := &recorder{}
	svc := service.NewOfferService(tasks, offers, rec)
	_, err := svc.AcceptOffer(ctx, owner, offerID)
	requireCode(t, err, service.CodeInvalidState)
	assert.Empty(t, rec.actions())

	tasks.AssertExpectations(t)
	offers.AssertExpectations(t)
}

// TestOfferService_RejectOffer тестирует отклонение владельцем
func TestOfferService_RejectOffer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	created := f.createTask(t, owner)
	o := f.bid(t, uuid.New(), created.UUID, 100)

	_, err := f.offers.RejectOffer(ctx, uuid.New(), o.UUID)
	requireCode(t, err, service.CodeForbidden)

	rejected, err := f.offers.RejectOffer(ctx, owner, o.UUID)
	require.NoError(t, err)
	assert.Equal(t, offer.StatusRejected, rejected.Status)
	assert.Equal(t, task.StatusOpen, f.taskStatus(t, created.UUID))

	_, err = f.offers.RejectOffer(ctx, owner, o.UUID)
	requireCode(t, err, service.CodeInvalidState)

	_, err = f.offers.RejectOffer(ctx, owner, uuid.New())
	requireCode(t, err, service.CodeNotFound)
}

// TestOfferService_RejectOffer_Accepted - принятое предложение нельзя отклонить
func TestOfferService_RejectOffer_Accepted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	created := f.createTask(t, owner)
	o := f.bid(t, uuid.New(), created.UUID, 100)

	_, err := f.offers.AcceptOffer(ctx, owner, o.UUID)
	require.NoError(t, err)

	_, err = f.offers.RejectOffer(ctx, owner, o.UUID)
	requireCode(t, err, service.CodeInvalidState)
	assert.Equal(t, offer.StatusAccepted, f.offerStatus(t, o.UUID))
}

// TestOfferService_WithdrawOffer тестирует отзыв автором
func TestOfferService_WithdrawOffer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	bidder := uuid.New()
	created := f.createTask(t, owner)
	o := f.bid(t, bidder, created.UUID, 100)

	_, err := f.offers.WithdrawOffer(ctx, owner, o.UUID)
	requireCode(t, err, service.CodeForbidden)

	_, err = f.offers.WithdrawOffer(ctx, bidder, uuid.New())
	requireCode(t, err, service.CodeNotFound)

	withdrawn, err := f.offers.WithdrawOffer(ctx, bidder, o.UUID)
	require.NoError(t, err)
	assert.Equal(t, offer.StatusWithdrawn, withdrawn.Status)

	_, err = f.offers.WithdrawOffer(ctx, bidder, o.UUID)
	requireCode(t, err, service.CodeInvalidState)

	// решённое предложение отозвать нельзя
	second := uuid.New()
	o2 := f.bid(t, second, created.UUID, 120)
	_, err = f.offers.AcceptOffer(ctx, owner, o2.UUID)
	require.NoError(t, err)
	_, err = f.offers.WithdrawOffer(ctx, second, o2.UUID)
	requireCode(t, err, service.CodeInvalidState)

	assert.Contains(t, f.audit.actions(), audit.OfferWithdrawn)
}

// TestOfferService_GetTaskOffers тестирует список предложений
func TestOfferService_GetTaskOffers(t *testing.T) {
	f := newFixture(t)
	created := f.createTask(t, uuid.New())
	first := f.bid(t, uuid.New(), created.UUID, 100)
	second := f.bid(t, uuid.New(), created.UUID, 200)

	offers, err := f.offers.GetTaskOffers(context.Background(), created.UUID)
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, second.UUID, offers[0].UUID)
	assert.Equal(t, first.UUID, offers[1].UUID)

	_, err = f.offers.GetTaskOffers(context.Background(), uuid.New())
	requireCode(t, err, service.CodeNotFound)
}

// TestOfferService_RejectStaleOffers - предложение, вставленное во время принятия, отклоняется фоном
func TestOfferService_RejectStaleOffers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createTask(t, uuid.New())
	late := f.bid(t, uuid.New(), created.UUID, 100)
	f.forceStatus(t, created.UUID, task.StatusInProgress)

	n, err := f.offers.RejectStaleOffers(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, offer.StatusRejected, f.offerStatus(t, late.UUID))
	assert.Contains(t, f.audit.actions(), audit.OffersAutoRejected)

	n, err = f.offers.RejectStaleOffers(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, n)
}
