package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pricedrop/notifier/internal/mailer"
	"github.com/pricedrop/notifier/internal/service"
	"github.com/pricedrop/notifier/internal/utils"
)

// UnsubscribeHandler handles token-based unsubscribe links. Responses are
// HTML because the endpoint is opened from an email client, not called by
// an API consumer.
type UnsubscribeHandler struct {
	unsubscribeService *service.UnsubscribeService
}

// NewUnsubscribeHandler constructs an UnsubscribeHandler.
func NewUnsubscribeHandler(unsubscribeService *service.UnsubscribeService) *UnsubscribeHandler {
	return &UnsubscribeHandler{unsubscribeService: unsubscribeService}
}

// Unsubscribe handles GET /unsubscribe?token=...
func (h *UnsubscribeHandler) Unsubscribe(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		h.page(c, http.StatusBadRequest, mailer.BuildErrorPage())
		return
	}

	result, err := h.unsubscribeService.Unsubscribe(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			h.page(c, http.StatusNotFound, mailer.BuildAlreadyUnsubscribedPage())
			return
		}
		h.page(c, http.StatusInternalServerError, mailer.BuildErrorPage())
		return
	}

	if result.AlreadyInactive {
		h.page(c, http.StatusOK, mailer.BuildAlreadyUnsubscribedPage())
		return
	}
	h.page(c, http.StatusOK, mailer.BuildUnsubscribePage(result.ProductName))
}

func (h *UnsubscribeHandler) page(c *gin.Context, status int, html string) {
	c.Data(status, "text/html; charset=utf-8", []byte(html))
}
