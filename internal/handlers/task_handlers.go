package handlers

import (
	"net/http"
	"strings"
	"time"

	"quashMarket/internal/handlers/dto"
	"quashMarket/internal/logger"
	"quashMarket/internal/service"

	"go.uber.org/zap"
)

const defaultMaxUpload = 10 << 20

type TaskHandler struct {
	TaskService TaskService
	store       AttachmentStore
	maxUpload   int64
}

// NewTaskHandler - store может быть nil, тогда загрузка файлов недоступна
func NewTaskHandler(taskService TaskService, store AttachmentStore, maxUpload int64) *TaskHandler {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &TaskHandler{
		TaskService: taskService,
		store:       store,
		maxUpload:   maxUpload,
	}
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := h.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Warn("HTTP: Health check не пройден", zap.Error(err))
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("service", "quash-market"),
			toPayload("error", codeUnavailable),
		)
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("service", "quash-market"),
		toPayload("time", time.Now().UTC()),
	)
}

// PostTask принимает application/json или multipart/form-data с файлами в поле attachments
func (h *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}

	var in service.TaskInput
	var refs []string

	switch mediaType(r) {
	case "multipart/form-data":
		input, saved, ok := h.readMultipart(w, r)
		if !ok {
			return
		}
		in, refs = input, saved
	default:
		var request dto.TaskRequest
		if !decodeJSON(w, r, &request) {
			return
		}
		in = request.ToInput()
		in.Status = nil
	}

	logger.Info("HTTP: Вызов сервиса создания задачи")
	details, err := h.TaskService.CreateTask(r.Context(), ownerID, in, refs)
	if err != nil {
		if len(refs) > 0 {
			h.store.Remove(refs)
		}
		handleError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", details.Task.UUID.String()),
		zap.Int("attachments", len(refs)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithData(w, http.StatusCreated, dto.FromTaskDetails(details))
}

func (h *TaskHandler) readMultipart(w http.ResponseWriter, r *http.Request) (service.TaskInput, []string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		logger.Warn("HTTP: Ошибка чтения multipart формы",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, codeBadRequest, "Неверная multipart форма")
		return service.TaskInput{}, nil, false
	}
	form := r.MultipartForm

	in := service.TaskInput{
		Title:       formString(form.Value, "title"),
		Description: formString(form.Value, "description"),
		Category:    formString(form.Value, "category"),
		Range:       formAny(form.Value, "range"),
		Reward:      formAny(form.Value, "reward"),
		Deadline:    formAny(form.Value, "deadLine"),
		Reach:       formString(form.Value, "reach"),
	}

	files := form.File["attachments"]
	if len(files) == 0 {
		return in, nil, true
	}
	if h.store == nil {
		responseWithError(w, http.StatusBadRequest, codeBadRequest, "Загрузка вложений недоступна")
		return service.TaskInput{}, nil, false
	}

	refs, err := h.store.SaveAll(files)
	if err != nil {
		logger.Warn("HTTP: Ошибка сохранения вложений",
			zap.Error(err),
			zap.Int("files", len(files)))
		responseWithError(w, http.StatusBadRequest, codeBadRequest, "Не удалось загрузить вложения")
		return service.TaskInput{}, nil, false
	}
	return in, refs, true
}

func formString(values map[string][]string, key string) *string {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return nil
	}
	s := v[0]
	return &s
}

func formAny(values map[string][]string, key string) any {
	v, ok := values[key]
	if !ok || len(v) == 0 || strings.TrimSpace(v[0]) == "" {
		return nil
	}
	return v[0]
}

// GetAllTasks - все задачи площадки
func (h *TaskHandler) GetAllTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	list, err := h.TaskService.GetAllTasks(r.Context())
	if err != nil {
		handleError(w, r, err, "get_all_tasks")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(list)),
		zap.Duration("ms", time.Since(start)))
	responseWithData(w, http.StatusOK, dto.FromTaskDetailsList(list))
}

// GetUserTasks - задачи, созданные вызывающим пользователем
func (h *TaskHandler) GetUserTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	list, err := h.TaskService.GetUserTasks(r.Context(), userID)
	if err != nil {
		handleError(w, r, err, "get_user_tasks")
		return
	}

	logger.Info("HTTP_OUT: Задачи пользователя получены",
		zap.Int("count", len(list)),
		zap.Duration("ms", time.Since(start)))
	responseWithData(w, http.StatusOK, dto.FromTaskDetailsList(list))
}

// GetQuashedTasks - задачи, на которые вызывающий пользователь нанят
func (h *TaskHandler) GetQuashedTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	list, err := h.TaskService.GetQuashedTasks(r.Context(), userID)
	if err != nil {
		handleError(w, r, err, "get_quashed_tasks")
		return
	}

	logger.Info("HTTP_OUT: Задачи исполнителя получены",
		zap.Int("count", len(list)),
		zap.Duration("ms", time.Since(start)))
	responseWithData(w, http.StatusOK, dto.FromTaskDetailsList(list))
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	details, err := h.TaskService.GetTaskByID(r.Context(), id)
	if err != nil {
		handleError(w, r, err, "get_task")
		return
	}

	logger.Info("HTTP_OUT: Задача получена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))
	responseWithData(w, http.StatusOK, dto.FromTaskDetails(details))
}

func (h *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var request dto.TaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	logger.Info("HTTP: Запрос к сервису обновления задачи")
	details, err := h.TaskService.UpdateTask(r.Context(), userID, id, request.ToInput())
	if err != nil {
		handleError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", id.String()),
		zap.String("status", string(details.Task.Status)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))
	responseWithData(w, http.StatusOK, dto.FromTaskDetails(details))
}

func (h *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.TaskService.DeleteTask(r.Context(), userID, id); err != nil {
		handleError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))
	responseWithData(w, http.StatusOK, dto.DeletedResponse{UUID: id})
}
