package service

import (
	"context"

	"quashMarket/internal/models/category"
	"quashMarket/internal/models/offer"
	"quashMarket/internal/models/skill"
	"quashMarket/internal/models/task"
	repo "quashMarket/internal/repository"

	"github.com/google/uuid"
)

type TaskRepository interface {
	HealthCheck(ctx context.Context) error
	CreateTask(ctx context.Context, t *task.Task) error
	GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error)
	UpdateTask(ctx context.Context, t *task.Task) error
	DeleteTask(ctx context.Context, id, ownerID uuid.UUID) error
	LoadTaskWithRelations(ctx context.Context, id uuid.UUID) (*task.Details, error)
	ListTasksWithRelations(ctx context.Context, ownerID *uuid.UUID) ([]*task.Details, error)
	ListQuashedTasks(ctx context.Context, userID uuid.UUID) ([]*task.Details, error)
}

type OfferRepository interface {
	CreateOffer(ctx context.Context, o *offer.Offer) error
	GetOfferByID(ctx context.Context, id uuid.UUID) (*offer.Offer, error)
	GetOffersByTask(ctx context.Context, taskID uuid.UUID) ([]*offer.Offer, error)
	TransitionOffer(ctx context.Context, id uuid.UUID, from, to offer.Status) (*offer.Offer, error)
	AcceptOffer(ctx context.Context, id uuid.UUID) (*repo.AcceptResult, error)
	RejectStaleOffers(ctx context.Context, limit int) ([]*offer.Offer, error)
}

type CategoryRepository interface {
	CreateCategory(ctx context.Context, c *category.Category) error
	GetCategoryByID(ctx context.Context, id uuid.UUID) (*category.Category, error)
	GetCategoryByTitle(ctx context.Context, title string) (*category.Category, error)
	ListCategories(ctx context.Context) ([]*category.Category, error)
	UpdateCategory(ctx context.Context, c *category.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type SkillRepository interface {
	CreateSkill(ctx context.Context, sk *skill.Skill) error
	GetSkill(ctx context.Context, id, ownerID uuid.UUID) (*skill.Skill, error)
	ListSkills(ctx context.Context, ownerID uuid.UUID) ([]*skill.Skill, error)
	UpdateSkill(ctx context.Context, sk *skill.Skill) error
	DeleteSkill(ctx context.Context, id, ownerID uuid.UUID) error
}

// Repository - полный набор хранилищ; его реализуют inmemory.Storage и postgres.Storage
type Repository interface {
	TaskRepository
	OfferRepository
	CategoryRepository
	SkillRepository
	Close()
}
