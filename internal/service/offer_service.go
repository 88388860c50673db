package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quashMarket/internal/access"
	"quashMarket/internal/audit"
	"quashMarket/internal/logger"
	"quashMarket/internal/models/offer"
	"quashMarket/internal/models/task"
	"quashMarket/internal/normalize"
	repo "quashMarket/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OfferService struct {
	tasks  TaskRepository
	offers OfferRepository
	audit  audit.Recorder
}

func NewOfferService(tasks TaskRepository, offers OfferRepository, recorder audit.Recorder) *OfferService {
	if recorder == nil {
		recorder = audit.Discard{}
	}
	return &OfferService{
		tasks:  tasks,
		offers: offers,
		audit:  recorder,
	}
}

// CreateOffer - одна ставка на пользователя, только по открытой чужой задаче
func (s *OfferService) CreateOffer(ctx context.Context, bidderID uuid.UUID, in OfferInput) (*offer.Offer, error) {
	if strings.TrimSpace(in.TaskID) == "" {
		return nil, NewValidationError("taskId", "обязательное поле")
	}
	taskID, err := uuid.Parse(strings.TrimSpace(in.TaskID))
	if err != nil {
		return nil, NewValidationError("taskId", "некорректный идентификатор задачи")
	}
	amount, err := normalize.Amount(in.Amount, true)
	if err != nil {
		return nil, fromNormalize(err)
	}
	deadline, err := normalize.Deadline("deadLine", in.Deadline, true)
	if err != nil {
		return nil, fromNormalize(err)
	}

	target, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !target.Status.AcceptsOffers() {
		return nil, NewInvalidState(fmt.Sprintf("Задача в статусе %s не принимает предложения", target.Status),
			ToDetail("status", target.Status))
	}
	if access.IsOwner(target, bidderID) {
		return nil, NewForbidden("Нельзя делать предложение по своей задаче")
	}

	newOffer := &offer.Offer{
		UUID:     uuid.New(),
		TaskID:   taskID,
		UserID:   bidderID,
		Amount:   *amount,
		Deadline: *deadline,
		Message:  strings.TrimSpace(in.Message),
		Status:   offer.StatusPending,
	}

	if err := s.offers.CreateOffer(ctx, newOffer); err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicateOffer):
			return nil, NewConflict("Вы уже сделали предложение по этой задаче",
				ToDetail("task_id", taskID.String()))
		case errors.Is(err, repo.ErrStatusConflict):
			return nil, NewInvalidState("Задача уже не принимает предложения",
				ToDetail("task_id", taskID.String()))
		case errors.Is(err, repo.ErrNotFound):
			return nil, NewNotFound(ResourceTask, taskID.String())
		}
		return nil, fmt.Errorf("создание предложения: %w", err)
	}

	logger.Info("Service: Предложение создано",
		zap.String("offer_id", newOffer.UUID.String()),
		zap.String("task_id", taskID.String()))
	s.audit.Record(audit.Event{
		Action:   audit.OfferCreated,
		ActorID:  bidderID,
		Entity:   audit.EntityOffer,
		EntityID: newOffer.UUID,
		TaskID:   taskID,
		To:       string(newOffer.Status),
	})
	return newOffer, nil
}

// GetTaskOffers - предложения по задаче, новые первыми
func (s *OfferService) GetTaskOffers(ctx context.Context, taskID uuid.UUID) ([]*offer.Offer, error) {
	if _, err := s.loadTask(ctx, taskID); err != nil {
		return nil, err
	}
	offers, err := s.offers.GetOffersByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("получение предложений: %w", err)
	}
	return offers, nil
}

// AcceptOffer нанимает автора предложения. Предусловия проверяются повторно в хранилище
// в момент записи, поэтому проигравший в гонке получает INVALID_STATE.
func (s *OfferService) AcceptOffer(ctx context.Context, callerID, offerID uuid.UUID) (*offer.Offer, error) {
	target, owner, err := s.loadOfferForOwner(ctx, callerID, offerID)
	if err != nil {
		return nil, err
	}
	if target.Status != offer.StatusPending {
		return nil, NewInvalidState(fmt.Sprintf("Предложение в статусе %s нельзя принять", target.Status),
			ToDetail("status", target.Status))
	}
	if !owner.Status.AcceptsOffers() {
		return nil, NewInvalidState(fmt.Sprintf("Задача в статусе %s уже не принимает предложения", owner.Status),
			ToDetail("status", owner.Status))
	}

	res, err := s.offers.AcceptOffer(ctx, offerID)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrStatusConflict):
			logger.Warn("Service: Предложение уже не ожидает решения", zap.String("offer_id", offerID.String()))
			return nil, NewInvalidState("Предложение или задача уже изменили статус")
		case errors.Is(err, repo.ErrNotFound):
			return nil, NewNotFound(ResourceOffer, offerID.String())
		}
		return nil, fmt.Errorf("принятие предложения: %w", err)
	}

	s.audit.Record(audit.Event{
		Action:   audit.OfferAccepted,
		ActorID:  callerID,
		Entity:   audit.EntityOffer,
		EntityID: offerID,
		TaskID:   owner.UUID,
		From:     string(offer.StatusPending),
		To:       string(offer.StatusAccepted),
	})
	s.audit.Record(audit.Event{
		Action:   audit.TaskUpdated,
		ActorID:  callerID,
		Entity:   audit.EntityTask,
		EntityID: owner.UUID,
		TaskID:   owner.UUID,
		From:     string(owner.Status),
		To:       string(task.StatusInProgress),
	})
	for _, rejectedID := range res.Rejected {
		s.audit.Record(audit.Event{
			Action:   audit.OffersAutoRejected,
			ActorID:  callerID,
			Entity:   audit.EntityOffer,
			EntityID: rejectedID,
			TaskID:   owner.UUID,
			From:     string(offer.StatusPending),
			To:       string(offer.StatusRejected),
		})
	}

	logger.Info("Service: Предложение принято",
		zap.String("offer_id", offerID.String()),
		zap.String("task_id", owner.UUID.String()),
		zap.Int("auto_rejected", len(res.Rejected)))
	return res.Offer, nil
}

// RejectOffer отклоняет ожидающее предложение; статус задачи не меняется
func (s *OfferService) RejectOffer(ctx context.Context, callerID, offerID uuid.UUID) (*offer.Offer, error) {
	target, owner, err := s.loadOfferForOwner(ctx, callerID, offerID)
	if err != nil {
		return nil, err
	}
	if target.Status != offer.StatusPending {
		return nil, NewInvalidState(fmt.Sprintf("Предложение в статусе %s нельзя отклонить", target.Status),
			ToDetail("status", target.Status))
	}

	updated, err := s.transition(ctx, offerID, offer.StatusRejected)
	if err != nil {
		return nil, err
	}

	s.audit.Record(audit.Event{
		Action:   audit.OfferRejected,
		ActorID:  callerID,
		Entity:   audit.EntityOffer,
		EntityID: offerID,
		TaskID:   owner.UUID,
		From:     string(offer.StatusPending),
		To:       string(offer.StatusRejected),
	})
	return updated, nil
}

// WithdrawOffer - автор отзывает своё ожидающее предложение
func (s *OfferService) WithdrawOffer(ctx context.Context, bidderID, offerID uuid.UUID) (*offer.Offer, error) {
	target, err := s.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if target.UserID != bidderID {
		return nil, NewForbidden("Отозвать предложение может только его автор")
	}
	if target.Status != offer.StatusPending {
		return nil, NewInvalidState(fmt.Sprintf("Предложение в статусе %s нельзя отозвать", target.Status),
			ToDetail("status", target.Status))
	}

	updated, err := s.transition(ctx, offerID, offer.StatusWithdrawn)
	if err != nil {
		return nil, err
	}

	s.audit.Record(audit.Event{
		Action:   audit.OfferWithdrawn,
		ActorID:  bidderID,
		Entity:   audit.EntityOffer,
		EntityID: offerID,
		TaskID:   target.TaskID,
		From:     string(offer.StatusPending),
		To:       string(offer.StatusWithdrawn),
	})
	return updated, nil
}

// RejectStaleOffers отклоняет ожидающие предложения по задачам, закрытым для ставок
func (s *OfferService) RejectStaleOffers(ctx context.Context, limit int) (int, error) {
	rejected, err := s.offers.RejectStaleOffers(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("отклонение устаревших предложений: %w", err)
	}
	for _, o := range rejected {
		s.audit.Record(audit.Event{
			Action:   audit.OffersAutoRejected,
			ActorID:  uuid.Nil,
			Entity:   audit.EntityOffer,
			EntityID: o.UUID,
			TaskID:   o.TaskID,
			From:     string(offer.StatusPending),
			To:       string(offer.StatusRejected),
		})
	}
	return len(rejected), nil
}

func (s *OfferService) transition(ctx context.Context, offerID uuid.UUID, to offer.Status) (*offer.Offer, error) {
	updated, err := s.offers.TransitionOffer(ctx, offerID, offer.StatusPending, to)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrStatusConflict):
			return nil, NewInvalidState("Предложение уже изменило статус")
		case errors.Is(err, repo.ErrNotFound):
			return nil, NewNotFound(ResourceOffer, offerID.String())
		}
		return nil, fmt.Errorf("смена статуса предложения: %w", err)
	}
	return updated, nil
}

// loadOfferForOwner загружает предложение и его задачу; решать по предложению может только владелец задачи
func (s *OfferService) loadOfferForOwner(ctx context.Context, callerID, offerID uuid.UUID) (*offer.Offer, *task.Task, error) {
	target, err := s.loadOffer(ctx, offerID)
	if err != nil {
		return nil, nil, err
	}
	owner, err := s.loadTask(ctx, target.TaskID)
	if err != nil {
		return nil, nil, err
	}
	if !access.IsOwner(owner, callerID) {
		return nil, nil, NewForbidden("Решение по предложению принимает только владелец задачи")
	}
	return target, owner, nil
}

func (s *OfferService) loadOffer(ctx context.Context, id uuid.UUID) (*offer.Offer, error) {
	o, err := s.offers.GetOfferByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound(ResourceOffer, id.String())
		}
		return nil, fmt.Errorf("получение предложения: %w", err)
	}
	return o, nil
}

func (s *OfferService) loadTask(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	t, err := s.tasks.GetTaskByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound(ResourceTask, id.String())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}
