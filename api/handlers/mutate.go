package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/peopledesk/mailbridge/dto"
	mailbridge_errors "github.com/peopledesk/mailbridge/errors"
	"github.com/peopledesk/mailbridge/internal/tracing"
)

// MoveToTrash moves one message by UID out of a friendly source folder.
func (h *MailHandler) MoveToTrash() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "MailHandler.MoveToTrash", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.MoveToTrashRequest
		if err := c.ShouldBindJSON(&request); err != nil || !request.Present() {
			h.respondError(c, span, http.StatusBadRequest, "Email and password are required")
			return
		}
		tracing.TagAccount(span, request.Email)

		if request.UID == 0 {
			h.respondError(c, span, http.StatusBadRequest, "Message UID is required")
			return
		}

		err := h.store.MoveToTrash(ctx, accountFromCredentials(request.Credentials), request.UID, request.SourceFolder)
		if err != nil {
			if errors.Is(err, mailbridge_errors.ErrUnknownSourceFolder) {
				h.respondError(c, span, http.StatusNotFound, err.Error())
				return
			}
			h.respondError(c, span, http.StatusInternalServerError, err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Email moved to trash",
		})
	}
}

// DeletePermanently expunges one message from the trash folder by UID.
func (h *MailHandler) DeletePermanently() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "MailHandler.DeletePermanently", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.DeleteRequest
		if err := c.ShouldBindJSON(&request); err != nil || !request.Present() {
			h.respondError(c, span, http.StatusBadRequest, "Email and password are required")
			return
		}
		tracing.TagAccount(span, request.Email)

		if request.UID == 0 {
			h.respondError(c, span, http.StatusBadRequest, "Message UID is required")
			return
		}

		err := h.store.DeletePermanently(ctx, accountFromCredentials(request.Credentials), request.UID)
		if err != nil {
			h.respondError(c, span, http.StatusInternalServerError, err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Email permanently deleted",
		})
	}
}
