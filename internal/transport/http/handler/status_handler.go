package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa/internal/app"
	"docqa/internal/transport/http/middleware"
)

type StatusHandler struct {
	status *app.StatusService
}

func NewStatusHandler(status *app.StatusService) *StatusHandler {
	return &StatusHandler{status: status}
}

func (h *StatusHandler) Status(c *gin.Context) {
	status, err := h.status.Status(middleware.UserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
