package handlers

import (
	"context"
	"mime/multipart"

	"quashMarket/internal/models/category"
	"quashMarket/internal/models/offer"
	"quashMarket/internal/models/skill"
	"quashMarket/internal/models/task"
	"quashMarket/internal/service"

	"github.com/google/uuid"
)

type TaskService interface {
	HealthCheck(ctx context.Context) error
	CreateTask(ctx context.Context, ownerID uuid.UUID, in service.TaskInput, attachments []string) (*task.Details, error)
	GetAllTasks(ctx context.Context) ([]*task.Details, error)
	GetUserTasks(ctx context.Context, ownerID uuid.UUID) ([]*task.Details, error)
	GetQuashedTasks(ctx context.Context, userID uuid.UUID) ([]*task.Details, error)
	GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Details, error)
	UpdateTask(ctx context.Context, callerID, id uuid.UUID, in service.TaskInput) (*task.Details, error)
	DeleteTask(ctx context.Context, ownerID, id uuid.UUID) error
}

type OfferService interface {
	CreateOffer(ctx context.Context, bidderID uuid.UUID, in service.OfferInput) (*offer.Offer, error)
	GetTaskOffers(ctx context.Context, taskID uuid.UUID) ([]*offer.Offer, error)
	AcceptOffer(ctx context.Context, callerID, offerID uuid.UUID) (*offer.Offer, error)
	RejectOffer(ctx context.Context, callerID, offerID uuid.UUID) (*offer.Offer, error)
	WithdrawOffer(ctx context.Context, bidderID, offerID uuid.UUID) (*offer.Offer, error)
}

type CategoryService interface {
	CreateCategory(ctx context.Context, in service.CategoryInput) (*category.Category, error)
	ListCategories(ctx context.Context) ([]*category.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, in service.CategoryInput) (*category.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type SkillService interface {
	CreateSkill(ctx context.Context, ownerID uuid.UUID, in service.SkillInput) (*skill.Skill, error)
	ListUserSkills(ctx context.Context, ownerID uuid.UUID) ([]*skill.Skill, error)
	GetSkill(ctx context.Context, ownerID, id uuid.UUID) (*skill.Skill, error)
	UpdateSkill(ctx context.Context, ownerID, id uuid.UUID, in service.SkillInput) (*skill.Skill, error)
	DeleteSkill(ctx context.Context, ownerID, id uuid.UUID) error
}

// AttachmentStore сохраняет загруженные файлы и возвращает ссылки на них
type AttachmentStore interface {
	SaveAll(files []*multipart.FileHeader) ([]string, error)
	Remove(refs []string)
}
