package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/pricedrop/notifier/internal/service"
	"github.com/pricedrop/notifier/internal/utils"
)

// SubscribeHandler handles the subscription HTTP endpoint.
type SubscribeHandler struct {
	subscribeService *service.SubscribeService
}

// NewSubscribeHandler constructs a SubscribeHandler.
func NewSubscribeHandler(subscribeService *service.SubscribeService) *SubscribeHandler {
	return &SubscribeHandler{subscribeService: subscribeService}
}

// Subscribe handles POST /subscribe
func (h *SubscribeHandler) Subscribe(c *gin.Context) {
	var req service.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "MISSING_FIELD", "url and email are required")
		return
	}

	result, err := h.subscribeService.Subscribe(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	message := "Subscription created"
	if !result.EmailSent {
		message = "Subscription created, confirmation email could not be sent"
	}
	utils.Success(c, 200, message, result)
}

func (h *SubscribeHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrInvalidURL):
		utils.Error(c, 400, "INVALID_URL", "A valid http or https product URL is required")
	case errors.Is(err, utils.ErrInvalidEmail):
		utils.Error(c, 400, "INVALID_EMAIL", "A valid email address is required")
	case errors.Is(err, utils.ErrAlreadySubscribed):
		utils.Error(c, 409, "ALREADY_SUBSCRIBED", "This email is already subscribed to this product")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to create subscription")
	}
}
