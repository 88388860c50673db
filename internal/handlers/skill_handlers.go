package handlers

import (
	"net/http"
	"time"

	"quashMarket/internal/handlers/dto"
	"quashMarket/internal/logger"

	"go.uber.org/zap"
)

// SkillHandler - все операции ограничены навыками вызывающего пользователя
type SkillHandler struct {
	SkillService SkillService
}

func NewSkillHandler(skillService SkillService) *SkillHandler {
	return &SkillHandler{SkillService: skillService}
}

func (h *SkillHandler) PostSkill(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}

	var request dto.SkillRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	created, err := h.SkillService.CreateSkill(r.Context(), ownerID, request.ToInput())
	if err != nil {
		handleError(w, r, err, "create_skill")
		return
	}

	logger.Info("HTTP_OUT: Навык создан",
		zap.String("skill_id", created.UUID.String()),
		zap.Duration("ms", time.Since(start)))
	responseWithData(w, http.StatusCreated, dto.FromSkill(created))
}

func (h *SkillHandler) GetUserSkills(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}

	list, err := h.SkillService.ListUserSkills(r.Context(), ownerID)
	if err != nil {
		handleError(w, r, err, "list_skills")
		return
	}
	responseWithData(w, http.StatusOK, dto.FromSkillList(list))
}

func (h *SkillHandler) GetSkill(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	found, err := h.SkillService.GetSkill(r.Context(), ownerID, id)
	if err != nil {
		handleError(w, r, err, "get_skill")
		return
	}
	responseWithData(w, http.StatusOK, dto.FromSkill(found))
}

func (h *SkillHandler) UpdateSkill(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var request dto.SkillRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	updated, err := h.SkillService.UpdateSkill(r.Context(), ownerID, id, request.ToInput())
	if err != nil {
		handleError(w, r, err, "update_skill")
		return
	}

	logger.Info("HTTP_OUT: Навык обновлён",
		zap.String("skill_id", id.String()),
		zap.Duration("ms", time.Since(start)))
	responseWithData(w, http.StatusOK, dto.FromSkill(updated))
}

func (h *SkillHandler) DeleteSkill(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.SkillService.DeleteSkill(r.Context(), ownerID, id); err != nil {
		handleError(w, r, err, "delete_skill")
		return
	}
	responseWithData(w, http.StatusOK, dto.DeletedResponse{UUID: id})
}
