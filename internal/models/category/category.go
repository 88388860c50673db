package category

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	UUID        uuid.UUID  `json:"id" db:"uuid"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at,omitempty"`
}

func (c *Category) Clone() *Category {
	if c == nil {
		return nil
	}
	cp := *c
	if c.UpdatedAt != nil {
		updated := *c.UpdatedAt
		cp.UpdatedAt = &updated
	}
	return &cp
}
