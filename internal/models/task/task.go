package task

import (
	"time"

	"quashMarket/internal/models/category"
	"quashMarket/internal/models/offer"

	"github.com/google/uuid"
)

type Task struct {
	UUID        uuid.UUID  `json:"id" db:"uuid"`
	OwnerID     uuid.UUID  `json:"owner_id" db:"owner_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	CategoryID  uuid.UUID  `json:"category_id" db:"category_id"`
	Range       Range      `json:"range"`
	Reward      float64    `json:"reward" db:"reward"`
	Deadline    time.Time  `json:"deadline" db:"deadline"`
	Reach       Reach      `json:"reach" db:"reach"`
	Status      Status     `json:"status" db:"status"`
	Attachments []string   `json:"attachments" db:"attachments"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at,omitempty"`
	Version     int        `json:"version" db:"version"`
}

// Range - бюджет задачи, Min <= Max
type Range struct {
	Min float64 `json:"min" db:"range_min"`
	Max float64 `json:"max" db:"range_max"`
}

// Details - задача вместе с категорией и предложениями (явный join)
type Details struct {
	Task     *Task
	Category *category.Category
	Offers   []*offer.Offer
}

// AcceptedOffer возвращает принятое предложение, если оно есть
func (d *Details) AcceptedOffer() *offer.Offer {
	for _, o := range d.Offers {
		if o.Status == offer.StatusAccepted {
			return o
		}
	}
	return nil
}

type Status string
type Reach string

const StatusOpen Status = "open"
const StatusClosed Status = "closed"
const StatusInProgress Status = "inProgress"
const StatusDeadlineUpdated Status = "deadlineUpdated"
const StatusCompleted Status = "completed"
const StatusCancelled Status = "cancelled"
const StatusConflict Status = "conflict"

const ReachLocal Reach = "local"
const ReachRegional Reach = "regional"
const ReachGlobal Reach = "global"

// ClosedForBidding - статусы, в которых нельзя делать новые предложения
var ClosedForBidding = []Status{StatusInProgress, StatusCompleted, StatusCancelled}

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusInProgress, StatusDeadlineUpdated,
		StatusCompleted, StatusCancelled, StatusConflict:
		return true
	default:
		return false
	}
}

func (s Status) AcceptsOffers() bool {
	for _, closed := range ClosedForBidding {
		if s == closed {
			return false
		}
	}
	return true
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (r Reach) Valid() bool {
	switch r {
	case ReachLocal, ReachRegional, ReachGlobal:
		return true
	default:
		return false
	}
}

// Clone возвращает копию задачи, не разделяющую слайс вложений
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.Attachments != nil {
		c.Attachments = append([]string(nil), t.Attachments...)
	}
	if t.UpdatedAt != nil {
		updated := *t.UpdatedAt
		c.UpdatedAt = &updated
	}
	return &c
}
