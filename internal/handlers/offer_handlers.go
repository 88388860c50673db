package handlers

import (
	"context"
	"net/http"
	"time"

	"quashMarket/internal/handlers/dto"
	"quashMarket/internal/logger"
	"quashMarket/internal/models/offer"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OfferHandler struct {
	OfferService OfferService
}

func NewOfferHandler(offerService OfferService) *OfferHandler {
	return &OfferHandler{OfferService: offerService}
}

func (h *OfferHandler) PostOffer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	bidderID, ok := callerID(w, r)
	if !ok {
		return
	}

	var request dto.OfferRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	created, err := h.OfferService.CreateOffer(r.Context(), bidderID, request.ToInput())
	if err != nil {
		handleError(w, r, err, "create_offer")
		return
	}

	logger.Info("HTTP_OUT: Предложение создано",
		zap.String("offer_id", created.UUID.String()),
		zap.String("task_id", created.TaskID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))
	responseWithData(w, http.StatusCreated, dto.FromOffer(created))
}

func (h *OfferHandler) GetTaskOffers(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	taskID, ok := pathID(w, r, "taskId")
	if !ok {
		return
	}

	offers, err := h.OfferService.GetTaskOffers(r.Context(), taskID)
	if err != nil {
		handleError(w, r, err, "get_task_offers")
		return
	}

	logger.Info("HTTP_OUT: Предложения получены",
		zap.String("task_id", taskID.String()),
		zap.Int("count", len(offers)),
		zap.Duration("ms", time.Since(start)))
	responseWithData(w, http.StatusOK, dto.FromOfferList(offers))
}

func (h *OfferHandler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "accept_offer", h.OfferService.AcceptOffer)
}

func (h *OfferHandler) RejectOffer(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "reject_offer", h.OfferService.RejectOffer)
}

func (h *OfferHandler) WithdrawOffer(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "withdraw_offer", h.OfferService.WithdrawOffer)
}

type offerAction func(ctx context.Context, callerID, offerID uuid.UUID) (*offer.Offer, error)

func (h *OfferHandler) transition(w http.ResponseWriter, r *http.Request, operation string, action offerAction) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	offerID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	updated, err := action(r.Context(), userID, offerID)
	if err != nil {
		handleError(w, r, err, operation)
		return
	}

	logger.Info("HTTP_OUT: Статус предложения изменён",
		zap.String("operation", operation),
		zap.String("offer_id", offerID.String()),
		zap.String("status", string(updated.Status)),
		zap.Duration("ms", time.Since(start)))
	responseWithData(w, http.StatusOK, dto.FromOffer(updated))
}
