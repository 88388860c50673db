package handlers

import (
	"net/http"
	"time"

	"quashMarket/internal/handlers/dto"
	"quashMarket/internal/logger"

	"go.uber.org/zap"
)

type CategoryHandler struct {
	CategoryService CategoryService
}

func NewCategoryHandler(categoryService CategoryService) *CategoryHandler {
	return &CategoryHandler{CategoryService: categoryService}
}

func (h *CategoryHandler) PostCategory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.CategoryRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	created, err := h.CategoryService.CreateCategory(r.Context(), request.ToInput())
	if err != nil {
		handleError(w, r, err, "create_category")
		return
	}

	logger.Info("HTTP_OUT: Категория создана",
		zap.String("category_id", created.UUID.String()),
		zap.Duration("ms", time.Since(start)))
	responseWithData(w, http.StatusCreated, dto.FromCategory(created))
}

func (h *CategoryHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.CategoryService.ListCategories(r.Context())
	if err != nil {
		handleError(w, r, err, "list_categories")
		return
	}
	responseWithData(w, http.StatusOK, dto.FromCategoryList(list))
}

func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var request dto.CategoryRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	updated, err := h.CategoryService.UpdateCategory(r.Context(), id, request.ToInput())
	if err != nil {
		handleError(w, r, err, "update_category")
		return
	}

	logger.Info("HTTP_OUT: Категория обновлена",
		zap.String("category_id", id.String()),
		zap.Duration("ms", time.Since(start)))
	responseWithData(w, http.StatusOK, dto.FromCategory(updated))
}

func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.CategoryService.DeleteCategory(r.Context(), id); err != nil {
		handleError(w, r, err, "delete_category")
		return
	}

	logger.Info("HTTP_OUT: Категория удалена", zap.String("category_id", id.String()))
	responseWithData(w, http.StatusOK, dto.DeletedResponse{UUID: id})
}
