package dto

import (
	"time"

	"quashMarket/internal/models/category"
	"quashMarket/internal/models/offer"
	"quashMarket/internal/models/skill"
	"quashMarket/internal/models/task"
	"quashMarket/internal/service"

	"github.com/google/uuid"
)

// TaskRequest - тело создания и обновления задачи.
// range, reward и deadLine принимают число, строку, массив или объект.
type TaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Range       any     `json:"range,omitempty"`
	Reward      any     `json:"reward,omitempty"`
	DeadLine    any     `json:"deadLine,omitempty"`
	Reach       *string `json:"reach,omitempty"`
	Status      *string `json:"status,omitempty"`
}

func (r TaskRequest) ToInput() service.TaskInput {
	return service.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Range:       r.Range,
		Reward:      r.Reward,
		Deadline:    r.DeadLine,
		Reach:       r.Reach,
		Status:      r.Status,
	}
}

type OfferRequest struct {
	TaskID   string `json:"taskId"`
	Amount   any    `json:"amount"`
	DeadLine any    `json:"deadLine"`
	Message  string `json:"message"`
}

func (r OfferRequest) ToInput() service.OfferInput {
	return service.OfferInput{
		TaskID:   r.TaskID,
		Amount:   r.Amount,
		Deadline: r.DeadLine,
		Message:  r.Message,
	}
}

type CategoryRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (r CategoryRequest) ToInput() service.CategoryInput {
	return service.CategoryInput{Title: r.Title, Description: r.Description}
}

type SkillRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Range       any     `json:"range,omitempty"`
	Reward      any     `json:"reward,omitempty"`
	DeadLine    any     `json:"deadLine,omitempty"`
	Reach       *string `json:"reach,omitempty"`
	Status      *string `json:"status,omitempty"`
}

func (r SkillRequest) ToInput() service.SkillInput {
	return service.SkillInput{
		Title:       r.Title,
		Description: r.Description,
		Range:       r.Range,
		Reward:      r.Reward,
		Deadline:    r.DeadLine,
		Reach:       r.Reach,
		Status:      r.Status,
	}
}

type RangeResponse struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type CategoryResponse struct {
	UUID        uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

type OfferResponse struct {
	UUID      uuid.UUID  `json:"id"`
	TaskID    uuid.UUID  `json:"taskId"`
	UserID    uuid.UUID  `json:"userId"`
	Amount    float64    `json:"amount"`
	DeadLine  time.Time  `json:"deadLine"`
	Message   string     `json:"message"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

type TaskResponse struct {
	UUID            uuid.UUID         `json:"id"`
	OwnerID         uuid.UUID         `json:"ownerId"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	CategoryID      uuid.UUID         `json:"categoryId"`
	Category        *CategoryResponse `json:"category,omitempty"`
	Range           RangeResponse     `json:"range"`
	Reward          float64           `json:"reward"`
	DeadLine        time.Time         `json:"deadLine"`
	Reach           string            `json:"reach"`
	Status          string            `json:"status"`
	Attachments     []string          `json:"attachments"`
	Offers          []OfferResponse   `json:"offers"`
	OffersCount     int               `json:"offersCount"`
	AcceptedOfferID *uuid.UUID        `json:"acceptedOfferId,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       *time.Time        `json:"updatedAt,omitempty"`
	Version         int               `json:"version"`
}

type SkillResponse struct {
	UUID        uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"ownerId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Range       float64    `json:"range"`
	Reward      float64    `json:"reward"`
	DeadLine    time.Time  `json:"deadLine"`
	Reach       string     `json:"reach"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

type DeletedResponse struct {
	UUID uuid.UUID `json:"id"`
}

func FromCategory(c *category.Category) CategoryResponse {
	return CategoryResponse{
		UUID:        c.UUID,
		Title:       c.Title,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func FromCategoryList(categories []*category.Category) []CategoryResponse {
	result := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		result[i] = FromCategory(c)
	}
	return result
}

func FromOffer(o *offer.Offer) OfferResponse {
	return OfferResponse{
		UUID:      o.UUID,
		TaskID:    o.TaskID,
		UserID:    o.UserID,
		Amount:    o.Amount,
		DeadLine:  o.Deadline,
		Message:   o.Message,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func FromOfferList(offers []*offer.Offer) []OfferResponse {
	result := make([]OfferResponse, len(offers))
	for i, o := range offers {
		result[i] = FromOffer(o)
	}
	return result
}

func FromTaskDetails(d *task.Details) TaskResponse {
	t := d.Task
	attachments := t.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	resp := TaskResponse{
		UUID:        t.UUID,
		OwnerID:     t.OwnerID,
		Title:       t.Title,
		Description: t.Description,
		CategoryID:  t.CategoryID,
		Range:       RangeResponse{Min: t.Range.Min, Max: t.Range.Max},
		Reward:      t.Reward,
		DeadLine:    t.Deadline,
		Reach:       string(t.Reach),
		Status:      string(t.Status),
		Attachments: attachments,
		Offers:      FromOfferList(d.Offers),
		OffersCount: len(d.Offers),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Version:     t.Version,
	}
	if d.Category != nil {
		c := FromCategory(d.Category)
		resp.Category = &c
	}
	if accepted := d.AcceptedOffer(); accepted != nil {
		id := accepted.UUID
		resp.AcceptedOfferID = &id
	}
	return resp
}

func FromTaskDetailsList(list []*task.Details) []TaskResponse {
	result := make([]TaskResponse, len(list))
	for i, d := range list {
		result[i] = FromTaskDetails(d)
	}
	return result
}

func FromSkill(s *skill.Skill) SkillResponse {
	return SkillResponse{
		UUID:        s.UUID,
		OwnerID:     s.OwnerID,
		Title:       s.Title,
		Description: s.Description,
		Range:       s.Range,
		Reward:      s.Reward,
		DeadLine:    s.Deadline,
		Reach:       string(s.Reach),
		Status:      string(s.Status),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func FromSkillList(skills []*skill.Skill) []SkillResponse {
	result := make([]SkillResponse, len(skills))
	for i, s := range skills {
		result[i] = FromSkill(s)
	}
	return result
}
