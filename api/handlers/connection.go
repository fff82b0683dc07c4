package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/peopledesk/mailbridge/dto"
	mailbridge_errors "github.com/peopledesk/mailbridge/errors"
	"github.com/peopledesk/mailbridge/internal/tracing"
)

// TestConnection verifies the supplied credentials against the mail store
// and reports the INBOX message count.
func (h *MailHandler) TestConnection() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "MailHandler.TestConnection", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.ConnectionRequest
		if err := c.ShouldBindJSON(&request); err != nil || !request.Present() {
			h.respondError(c, span, http.StatusBadRequest, "Email and password are required")
			return
		}
		tracing.TagAccount(span, request.Email)

		total, err := h.store.TestConnection(ctx, accountFromCredentials(request.Credentials))
		if err != nil {
			if errors.Is(err, mailbridge_errors.ErrConnectionTimeout) {
				h.respondError(c, span, http.StatusBadRequest,
					fmt.Sprintf("Connection timed out - mail server did not respond within %s", h.cfg.IMAP.TestConnectionTimeout))
				return
			}
			h.respondError(c, span, http.StatusBadRequest, err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"totalMessages": total,
		})
	}
}
