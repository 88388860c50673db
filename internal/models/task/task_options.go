package task

import (
	"time"

	"github.com/google/uuid"
)

type TaskOption func(*Task)

// Patch - нормализованное частичное обновление задачи, nil поле означает "без изменений"
type Patch struct {
	Title       *string
	Description *string
	CategoryID  *uuid.UUID
	Range       *Range
	Reward      *float64
	Deadline    *time.Time
	Reach       *Reach
	Status      *Status
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.CategoryID == nil && p.Range == nil &&
		p.Reward == nil && p.Deadline == nil && p.Reach == nil && p.Status == nil
}

// OnlyStatus - патч меняет только статус
func (p Patch) OnlyStatus() bool {
	return p.Status != nil && p.Title == nil && p.Description == nil && p.CategoryID == nil &&
		p.Range == nil && p.Reward == nil && p.Deadline == nil && p.Reach == nil
}

func (p Patch) Options() []TaskOption {
	options := []TaskOption{}
	if p.Title != nil {
		options = append(options, WithTitle(*p.Title))
	}
	if p.Description != nil {
		options = append(options, WithDescription(*p.Description))
	}
	if p.CategoryID != nil {
		options = append(options, WithCategory(*p.CategoryID))
	}
	if p.Range != nil {
		options = append(options, WithRange(*p.Range))
	}
	if p.Reward != nil {
		options = append(options, WithReward(*p.Reward))
	}
	if p.Deadline != nil {
		options = append(options, WithDeadline(*p.Deadline))
	}
	if p.Reach != nil {
		options = append(options, WithReach(*p.Reach))
	}
	if p.Status != nil {
		options = append(options, WithStatus(*p.Status))
	}
	return options
}

func WithTitle(title string) TaskOption {
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description string) TaskOption {
	return func(task *Task) {
		task.Description = description
	}
}

func WithCategory(categoryID uuid.UUID) TaskOption {
	return func(task *Task) {
		task.CategoryID = categoryID
	}
}

func WithRange(r Range) TaskOption {
	return func(task *Task) {
		task.Range = r
	}
}

func WithReward(reward float64) TaskOption {
	return func(task *Task) {
		task.Reward = reward
	}
}

func WithDeadline(deadline time.Time) TaskOption {
	return func(task *Task) {
		task.Deadline = deadline
	}
}

func WithReach(reach Reach) TaskOption {
	if !reach.Valid() {
		return func(*Task) {}
	}
	return func(task *Task) {
		task.Reach = reach
	}
}

func WithStatus(status Status) TaskOption {
	return func(task *Task) {
		task.Status = status
	}
}
