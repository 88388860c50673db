package inmemory

import (
	"context"
	"time"

	"quashMarket/internal/models/offer"
	"quashMarket/internal/models/task"
	repo "quashMarket/internal/repository"

	"github.com/google/uuid"
)

// CreateOffer вставляет предложение; пара (задача, пользователь) уникальна,
// а задача должна принимать ставки в момент записи
func (s *Storage) CreateOffer(ctx context.Context, offerToCreate *offer.Offer) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	target, ok := s.tasks[offerToCreate.TaskID]
	if !ok {
		return repo.ErrNotFound
	}
	if !target.Status.AcceptsOffers() {
		return repo.ErrStatusConflict
	}
	for _, existing := range s.offers {
		if existing.TaskID == offerToCreate.TaskID && existing.UserID == offerToCreate.UserID {
			return repo.ErrDuplicateOffer
		}
	}

	if offerToCreate.Status == "" {
		offerToCreate.Status = offer.StatusPending
	}
	if offerToCreate.CreatedAt.IsZero() {
		offerToCreate.CreatedAt = time.Now()
	}
	offerToCreate.Version = 1

	s.offers[offerToCreate.UUID] = offerToCreate.Clone()
	s.offerIDs = append(s.offerIDs, offerToCreate.UUID)
	return nil
}

func (s *Storage) GetOfferByID(ctx context.Context, id uuid.UUID) (*offer.Offer, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	stored, ok := s.offers[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return stored.Clone(), nil
}

func (s *Storage) GetOffersByTask(ctx context.Context, taskID uuid.UUID) ([]*offer.Offer, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.offersByTask(taskID), nil
}

// TransitionOffer меняет статус, только если текущий статус равен from
func (s *Storage) TransitionOffer(ctx context.Context, id uuid.UUID, from, to offer.Status) (*offer.Offer, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored, ok := s.offers[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if stored.Status != from {
		return nil, repo.ErrStatusConflict
	}

	s.setOfferStatus(stored, to, time.Now())
	return stored.Clone(), nil
}

// AcceptOffer атомарно: предложение pending -> accepted, задача -> inProgress,
// остальные pending предложения задачи -> rejected
func (s *Storage) AcceptOffer(ctx context.Context, id uuid.UUID) (*repo.AcceptResult, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	target, ok := s.offers[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if target.Status != offer.StatusPending {
		return nil, repo.ErrStatusConflict
	}

	stored, ok := s.tasks[target.TaskID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if !stored.Status.AcceptsOffers() {
		return nil, repo.ErrStatusConflict
	}
	for _, o := range s.offers {
		if o.TaskID == stored.UUID && o.Status == offer.StatusAccepted {
			return nil, repo.ErrStatusConflict
		}
	}

	now := time.Now()
	s.setOfferStatus(target, offer.StatusAccepted, now)

	stored.Status = task.StatusInProgress
	stored.UpdatedAt = &now
	stored.Version++

	rejected := []uuid.UUID{}
	for _, offerID := range s.offerIDs {
		o := s.offers[offerID]
		if o.TaskID == stored.UUID && o.UUID != target.UUID && o.Status == offer.StatusPending {
			s.setOfferStatus(o, offer.StatusRejected, now)
			rejected = append(rejected, o.UUID)
		}
	}

	return &repo.AcceptResult{
		Offer:    target.Clone(),
		Task:     stored.Clone(),
		Rejected: rejected,
	}, nil
}

// RejectStaleOffers отклоняет pending предложения по задачам, закрытым для ставок
func (s *Storage) RejectStaleOffers(ctx context.Context, limit int) ([]*offer.Offer, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	now := time.Now()
	res := []*offer.Offer{}
	for _, offerID := range s.offerIDs {
		if len(res) >= limit {
			break
		}
		o := s.offers[offerID]
		if o.Status != offer.StatusPending {
			continue
		}
		t, ok := s.tasks[o.TaskID]
		if !ok || t.Status.AcceptsOffers() {
			continue
		}
		s.setOfferStatus(o, offer.StatusRejected, now)
		res = append(res, o.Clone())
	}
	return res, nil
}

// вызывать под блокировкой
func (s *Storage) setOfferStatus(o *offer.Offer, status offer.Status, now time.Time) {
	o.Status = status
	o.UpdatedAt = &now
	o.Version++
}

// вызывать под блокировкой, новые первыми
func (s *Storage) offersByTask(taskID uuid.UUID) []*offer.Offer {
	res := []*offer.Offer{}
	for i := len(s.offerIDs) - 1; i >= 0; i-- {
		o := s.offers[s.offerIDs[i]]
		if o.TaskID == taskID {
			res = append(res, o.Clone())
		}
	}
	return res
}
