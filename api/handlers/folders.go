package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peopledesk/mailbridge/dto"
	"github.com/peopledesk/mailbridge/internal/tracing"
)

// Folders dumps every folder with its attributes. Also serves the
// debug-folders route; both return the same payload.
func (h *MailHandler) Folders() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "MailHandler.Folders", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.ConnectionRequest
		if err := c.ShouldBindJSON(&request); err != nil || !request.Present() {
			h.respondError(c, span, http.StatusBadRequest, "Email and password are required")
			return
		}
		tracing.TagAccount(span, request.Email)

		folders, err := h.store.ListFolders(ctx, accountFromCredentials(request.Credentials))
		if err != nil {
			h.respondError(c, span, http.StatusBadRequest, err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"folders": folders,
		})
	}
}
