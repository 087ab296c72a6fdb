package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa/internal/ai"
	"docqa/internal/app"
	"docqa/internal/index"
	"docqa/internal/transport/http/response"
)

// writeServiceError maps service sentinels to HTTP statuses. Anything not
// recognized is an internal error and gets logged with its full chain.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidInput),
		errors.Is(err, app.ErrNoFile),
		errors.Is(err, app.ErrNotPDF),
		errors.Is(err, app.ErrFileTooLarge),
		errors.Is(err, app.ErrEmptyQuestion),
		errors.Is(err, app.ErrNoProcessedDocuments),
		errors.Is(err, app.ErrPasswordMismatch),
		errors.Is(err, app.ErrUsernameExists),
		errors.Is(err, app.ErrEmailExists),
		errors.Is(err, app.ErrStudentIDExists):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ai.ErrUnreachable):
		response.Error(c, http.StatusBadRequest, "No internet connection detected. Please check your connection and try again.")
	case errors.Is(err, app.ErrInvalidCredential):
		response.Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrDocumentNotFound),
		errors.Is(err, app.ErrProfileNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	// A delete can race an in-flight ask and remove the index between the
	// processed-documents check and the search; that is a server-side
	// inconsistency, not a caller mistake.
	case errors.Is(err, index.ErrIndexMissing):
		response.Error(c, http.StatusInternalServerError, err.Error())
	default:
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		response.Error(c, http.StatusInternalServerError, "internal server error")
	}
}
