package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docqa/internal/app"
	"docqa/internal/transport/http/middleware"
	"docqa/internal/transport/http/response"
)

type DocumentHandler struct {
	ingest *app.IngestService
}

func NewDocumentHandler(ingest *app.IngestService) *DocumentHandler {
	return &DocumentHandler{ingest: ingest}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	userID := middleware.UserID(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		writeServiceError(c, app.ErrNoFile)
		return
	}
	defer file.Close()

	doc, err := h.ingest.Upload(c.Request.Context(), app.UploadInput{
		UserID:   userID,
		FileName: header.Filename,
		Size:     header.Size,
		Reader:   file,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "PDF processed successfully",
		"document": doc,
	})
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.ingest.List(middleware.UserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid document id")
		return
	}

	if err := h.ingest.Delete(c.Request.Context(), middleware.UserID(c), uint(id)); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
