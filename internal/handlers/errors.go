package handlers

import (
	"errors"
	"net/http"

	"quashMarket/internal/logger"
	"quashMarket/internal/middleware"
	"quashMarket/internal/service"

	"go.uber.org/zap"
)

const (
	codeBadRequest   = "BAD_REQUEST"
	codeUnsupported  = "UNSUPPORTED_MEDIA_TYPE"
	codeUnauthorized = "UNAUTHORIZED"
	codeInternal     = "INTERNAL_ERROR"
	codeUnavailable  = "SERVICE_UNAVAILABLE"
)

// handleError пишет ответ для ошибки сервиса. Бизнес-ошибки отдаются клиенту как есть,
// остальные скрываются за 500.
func handleError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	var businessErr *service.BusinessError
	if errors.As(err, &businessErr) {
		statusCode := mapBusinessErrorToHTTP(businessErr.Code)

		logger.Warn("HTTP: Бизнес-ошибка",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("operation", operation),
			zap.String("error_code", businessErr.Code),
			zap.Int("http_status", statusCode))

		payload := []Payload{
			toPayload("error", businessErr.Code),
			toPayload("message", businessErr.Message),
		}
		if len(businessErr.Details) > 0 {
			payload = append(payload, toPayload("details", businessErr.Details))
		}
		responseWithJSON(w, statusCode, payload...)
		return
	}

	logger.Error("HTTP: Ошибка Service", err,
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("operation", operation),
		zap.String("client_ip", r.RemoteAddr))

	responseWithError(w, http.StatusInternalServerError, codeInternal, "Внутренняя ошибка сервера")
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation, service.CodeInvalidState:
		return http.StatusBadRequest
	case service.CodeForbidden:
		return http.StatusForbidden
	case service.CodeConflict, service.CodeVersionConflict:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
