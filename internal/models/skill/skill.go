package skill

import (
	"time"

	"quashMarket/internal/models/task"

	"github.com/google/uuid"
)

// Skill - услуга, которую пользователь предлагает сам
type Skill struct {
	UUID        uuid.UUID  `json:"id" db:"uuid"`
	OwnerID     uuid.UUID  `json:"owner_id" db:"owner_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Range       float64    `json:"range" db:"range"`
	Reward      float64    `json:"reward" db:"reward"`
	Deadline    time.Time  `json:"deadline" db:"deadline"`
	Reach       task.Reach `json:"reach" db:"reach"`
	Status      Status     `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at,omitempty"`
}

type Status string

const StatusActive Status = "active"
const StatusInactive Status = "inactive"

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

func (s *Skill) Clone() *Skill {
	if s == nil {
		return nil
	}
	c := *s
	if s.UpdatedAt != nil {
		updated := *s.UpdatedAt
		c.UpdatedAt = &updated
	}
	return &c
}
