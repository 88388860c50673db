// Package access решает, кем является вызывающий по отношению к задаче
// и какие переходы статуса ему разрешены. Собственного состояния не хранит.
package access

import (
	"quashMarket/internal/models/offer"
	"quashMarket/internal/models/task"

	"github.com/google/uuid"
)

type Role string

const RoleNone Role = "none"
const RoleOwner Role = "owner"
const RoleHiredQuasher Role = "hired_quasher"

func IsOwner(t *task.Task, userID uuid.UUID) bool {
	return t != nil && userID != uuid.Nil && t.OwnerID == userID
}

// IsHiredQuasher - у пользователя есть принятое предложение по этой задаче
func IsHiredQuasher(t *task.Task, userID uuid.UUID, offers []*offer.Offer) bool {
	if t == nil || userID == uuid.Nil {
		return false
	}
	for _, o := range offers {
		if o.TaskID == t.UUID && o.UserID == userID && o.Status == offer.StatusAccepted {
			return true
		}
	}
	return false
}

func ResolveRole(t *task.Task, userID uuid.UUID, offers []*offer.Offer) Role {
	switch {
	case IsOwner(t, userID):
		return RoleOwner
	case IsHiredQuasher(t, userID, offers):
		return RoleHiredQuasher
	default:
		return RoleNone
	}
}

type transitions map[task.Status][]task.Status

// в inProgress из open/closed владелец не переводит: это делает только принятие предложения
var ownerTransitions = transitions{
	task.StatusOpen:            {task.StatusClosed, task.StatusCancelled},
	task.StatusClosed:          {task.StatusOpen, task.StatusCancelled},
	task.StatusInProgress:      {task.StatusDeadlineUpdated, task.StatusConflict, task.StatusCompleted, task.StatusCancelled},
	task.StatusDeadlineUpdated: {task.StatusInProgress, task.StatusConflict, task.StatusCompleted, task.StatusCancelled},
	task.StatusConflict:        {task.StatusInProgress, task.StatusCompleted, task.StatusCancelled},
}

var quasherTransitions = transitions{
	task.StatusInProgress:      {task.StatusConflict},
	task.StatusDeadlineUpdated: {task.StatusInProgress, task.StatusConflict},
}

// CanSetStatus проверяет переход статуса задачи для роли.
// Повторная установка текущего статуса разрешена любой роли с правом на изменение.
func CanSetStatus(role Role, from, to task.Status) bool {
	if !to.Valid() {
		return false
	}

	var table transitions
	switch role {
	case RoleOwner:
		table = ownerTransitions
	case RoleHiredQuasher:
		table = quasherTransitions
	default:
		return false
	}

	if from == to {
		return true
	}
	for _, allowed := range table[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanEditFields - исполнитель может менять только статус
func CanEditFields(role Role, patch task.Patch) bool {
	switch role {
	case RoleOwner:
		return true
	case RoleHiredQuasher:
		return patch.OnlyStatus()
	default:
		return false
	}
}
