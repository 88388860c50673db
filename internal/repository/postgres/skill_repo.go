package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quashMarket/internal/logger"
	"quashMarket/internal/models/skill"
	repo "quashMarket/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const skillColumns = `uuid, owner_id, title, description, range_max, reward, deadline, reach, status, created_at, updated_at`

func scanSkill(row rowScanner, sk *skill.Skill) error {
	return row.Scan(&sk.UUID, &sk.OwnerID, &sk.Title, &sk.Description, &sk.Range, &sk.Reward,
		&sk.Deadline, &sk.Reach, &sk.Status, &sk.CreatedAt, &sk.UpdatedAt)
}

func (s *Storage) CreateSkill(ctx context.Context, sk *skill.Skill) error {
	start := time.Now()
	defer warnIfSlow("CreateSkill", start)

	err := s.pool.QueryRow(ctx, `INSERT INTO skills
				(uuid, owner_id, title, description, range_max, reward, deadline, reach, status, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				RETURNING created_at`,
		sk.UUID, sk.OwnerID, sk.Title, sk.Description, sk.Range, sk.Reward,
		sk.Deadline, sk.Reach, sk.Status, time.Now(),
	).Scan(&sk.CreatedAt)
	if err != nil {
		logger.Error("Repository: Не удалось добавить навык", err)
		return fmt.Errorf("добавление навыка: %w", err)
	}
	return nil
}

// GetSkill - чужие навыки для пользователя не существуют
func (s *Storage) GetSkill(ctx context.Context, id, ownerID uuid.UUID) (*skill.Skill, error) {
	start := time.Now()
	defer warnIfSlow("GetSkill", start)

	sk := &skill.Skill{}
	err := scanSkill(s.pool.QueryRow(ctx, `SELECT `+skillColumns+` FROM skills
				WHERE uuid = $1 AND owner_id = $2`, id, ownerID), sk)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить навык", err)
		return nil, fmt.Errorf("получение навыка: %w", err)
	}
	return sk, nil
}

func (s *Storage) ListSkills(ctx context.Context, ownerID uuid.UUID) ([]*skill.Skill, error) {
	start := time.Now()
	defer warnIfSlow("ListSkills", start)

	rows, err := s.pool.Query(ctx, `SELECT `+skillColumns+` FROM skills
				WHERE owner_id = $1
				ORDER BY created_at DESC`, ownerID)
	if err != nil {
		logger.Error("Repository: Не удалось получить навыки", err)
		return nil, fmt.Errorf("получение навыков: %w", err)
	}
	defer rows.Close()

	res := []*skill.Skill{}
	for rows.Next() {
		sk := &skill.Skill{}
		if err := scanSkill(rows, sk); err != nil {
			return nil, fmt.Errorf("сканирование навыка: %w", err)
		}
		res = append(res, sk)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return res, nil
}

func (s *Storage) UpdateSkill(ctx context.Context, sk *skill.Skill) error {
	start := time.Now()
	defer warnIfSlow("UpdateSkill", start)

	err := s.pool.QueryRow(ctx, `UPDATE skills
				SET title = $1, description = $2, range_max = $3, reward = $4, deadline = $5,
					reach = $6, status = $7, updated_at = NOW()
				WHERE uuid = $8 AND owner_id = $9
				RETURNING updated_at`,
		sk.Title, sk.Description, sk.Range, sk.Reward, sk.Deadline, sk.Reach, sk.Status,
		sk.UUID, sk.OwnerID,
	).Scan(&sk.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить навык", err)
		return fmt.Errorf("обновление навыка: %w", err)
	}
	return nil
}

func (s *Storage) DeleteSkill(ctx context.Context, id, ownerID uuid.UUID) error {
	start := time.Now()
	defer warnIfSlow("DeleteSkill", start)

	tag, err := s.pool.Exec(ctx, `DELETE FROM skills WHERE uuid = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		logger.Error("Repository: Не удалось удалить навык", err)
		return fmt.Errorf("удаление навыка: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
