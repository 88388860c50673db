package inmemory

import (
	"context"
	"time"

	"quashMarket/internal/models/skill"
	repo "quashMarket/internal/repository"

	"github.com/google/uuid"
)

func (s *Storage) CreateSkill(ctx context.Context, sk *skill.Skill) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if sk.CreatedAt.IsZero() {
		sk.CreatedAt = time.Now()
	}
	s.skills[sk.UUID] = sk.Clone()
	s.skillIDs = append(s.skillIDs, sk.UUID)
	return nil
}

// GetSkill - чужие навыки для пользователя не существуют
func (s *Storage) GetSkill(ctx context.Context, id, ownerID uuid.UUID) (*skill.Skill, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	sk, ok := s.skills[id]
	if !ok || sk.OwnerID != ownerID {
		return nil, repo.ErrNotFound
	}
	return sk.Clone(), nil
}

func (s *Storage) ListSkills(ctx context.Context, ownerID uuid.UUID) ([]*skill.Skill, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*skill.Skill{}
	for i := len(s.skillIDs) - 1; i >= 0; i-- {
		if sk := s.skills[s.skillIDs[i]]; sk.OwnerID == ownerID {
			res = append(res, sk.Clone())
		}
	}
	return res, nil
}

func (s *Storage) UpdateSkill(ctx context.Context, sk *skill.Skill) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored, ok := s.skills[sk.UUID]
	if !ok || stored.OwnerID != sk.OwnerID {
		return repo.ErrNotFound
	}
	now := time.Now()
	sk.UpdatedAt = &now
	s.skills[sk.UUID] = sk.Clone()
	return nil
}

func (s *Storage) DeleteSkill(ctx context.Context, id, ownerID uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	sk, ok := s.skills[id]
	if !ok || sk.OwnerID != ownerID {
		return repo.ErrNotFound
	}
	delete(s.skills, id)
	s.skillIDs = removeID(s.skillIDs, id)
	return nil
}
