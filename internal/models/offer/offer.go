package offer

import (
	"time"

	"github.com/google/uuid"
)

type Offer struct {
	UUID      uuid.UUID  `json:"id" db:"uuid"`
	TaskID    uuid.UUID  `json:"task_id" db:"task_id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	Amount    float64    `json:"amount" db:"amount"`
	Deadline  time.Time  `json:"deadline" db:"deadline"`
	Message   string     `json:"message" db:"message"`
	Status    Status     `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at,omitempty"`
	Version   int        `json:"version" db:"version"`
}

type Status string

const StatusPending Status = "pending"
const StatusAccepted Status = "accepted"
const StatusRejected Status = "rejected"
const StatusWithdrawn Status = "withdrawn"

// IsTerminal - из терминального статуса переходов нет
func (s Status) IsTerminal() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusWithdrawn:
		return true
	default:
		return false
	}
}

func (s Status) Valid() bool {
	return s == StatusPending || s.IsTerminal()
}

func (o *Offer) Clone() *Offer {
	if o == nil {
		return nil
	}
	c := *o
	if o.UpdatedAt != nil {
		updated := *o.UpdatedAt
		c.UpdatedAt = &updated
	}
	return &c
}
