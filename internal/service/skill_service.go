package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quashMarket/internal/models/skill"
	"quashMarket/internal/models/task"
	"quashMarket/internal/normalize"
	repo "quashMarket/internal/repository"

	"github.com/google/uuid"
)

// SkillService - навыки видит и меняет только их владелец
type SkillService struct {
	skills SkillRepository
}

func NewSkillService(skills SkillRepository) *SkillService {
	return &SkillService{skills: skills}
}

func (s *SkillService) CreateSkill(ctx context.Context, ownerID uuid.UUID, in SkillInput) (*skill.Skill, error) {
	title, err := normalize.Title(in.Title, true)
	if err != nil {
		return nil, fromNormalize(err)
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

	sk := &skill.Skill{
		UUID:     uuid.New(),
		OwnerID:  ownerID,
		Title:    *title,
		Range:    budget.Max,
		Reward:   *reward,
		Deadline: *deadline,
		Reach:    task.ReachLocal,
		Status:   skill.StatusActive,
	}
	if in.Description != nil {
		sk.Description = strings.TrimSpace(*in.Description)
	}
	if in.Reach != nil {
		sk.Reach = normalize.SanitizeReach(*in.Reach, task.ReachLocal)
	}
	if in.Status != nil {
		status, err := skillStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		sk.Status = status
	}

	if err := s.skills.CreateSkill(ctx, sk); err != nil {
		return nil, fmt.Errorf("создание навыка: %w", err)
	}
	return sk, nil
}

func (s *SkillService) ListUserSkills(ctx context.Context, ownerID uuid.UUID) ([]*skill.Skill, error) {
	list, err := s.skills.ListSkills(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("получение навыков: %w", err)
	}
	return list, nil
}

func (s *SkillService) GetSkill(ctx context.Context, ownerID, id uuid.UUID) (*skill.Skill, error) {
	sk, err := s.skills.GetSkill(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound(ResourceSkill, id.String())
		}
		return nil, fmt.Errorf("получение навыка: %w", err)
	}
	return sk, nil
}

func (s *SkillService) UpdateSkill(ctx context.Context, ownerID, id uuid.UUID, in SkillInput) (*skill.Skill, error) {
	sk, err := s.GetSkill(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	changed := false
	if in.Title != nil {
		title, err := normalize.Title(in.Title, false)
		if err != nil {
			return nil, fromNormalize(err)
		}
		sk.Title = *title
		changed = true
	}
	if in.Description != nil {
		sk.Description = strings.TrimSpace(*in.Description)
		changed = true
	}

	budget, err := normalize.Range(in.Range, false)
	if err != nil {
		return nil, fromNormalize(err)
	}
	if budget != nil {
		sk.Range = budget.Max
		changed = true
	}
	reward, err := normalize.Reward(in.Reward, false)
	if err != nil {
		return nil, fromNormalize(err)
	}
	if reward != nil {
		sk.Reward = *reward
		changed = true
	}
	deadline, err := normalize.Deadline("deadLine", in.Deadline, false)
	if err != nil {
		return nil, fromNormalize(err)
	}
	if deadline != nil {
		sk.Deadline = *deadline
		changed = true
	}
	if in.Reach != nil {
		sk.Reach = normalize.SanitizeReach(*in.Reach, sk.Reach)
		changed = true
	}
	if in.Status != nil {
		status, err := skillStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		sk.Status = status
		changed = true
	}

	if !changed {
		return nil, NewValidationError("body", "нет полей для обновления")
	}

	if err := s.skills.UpdateSkill(ctx, sk); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound(ResourceSkill, id.String())
		}
		return nil, fmt.Errorf("обновление навыка: %w", err)
	}
	return sk, nil
}

func (s *SkillService) DeleteSkill(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.skills.DeleteSkill(ctx, id, ownerID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound(ResourceSkill, id.String())
		}
		return fmt.Errorf("удаление навыка: %w", err)
	}
	return nil
}

func skillStatus(raw string) (skill.Status, error) {
	status := skill.Status(strings.TrimSpace(raw))
	if !status.Valid() {
		return "", NewValidationError("status", fmt.Sprintf("недопустимый статус '%s'", raw))
	}
	return status, nil
}
