package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peopledesk/mailbridge/dto"
	"github.com/peopledesk/mailbridge/internal/models"
	"github.com/peopledesk/mailbridge/internal/tracing"
	"github.com/peopledesk/mailbridge/internal/utils"
)

const (
	defaultFetchLimit = uint32(10)
	defaultFolder     = "INBOX"
)

// Fetch returns one page of a named folder, newest first.
func (h *MailHandler) Fetch() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "MailHandler.Fetch", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.FetchRequest
		if err := c.ShouldBindJSON(&request); err != nil || !request.Present() {
			h.respondError(c, span, http.StatusBadRequest, "Email and password are required")
			return
		}
		tracing.TagAccount(span, request.Email)

		folder := request.Folder
		if folder == "" {
			folder = defaultFolder
		}
		limit := utils.GetOrDefault(request.Limit, defaultFetchLimit)
		offset := utils.GetOrDefault(request.Offset, 0)

		emails, err := h.store.FetchFolder(ctx, accountFromCredentials(request.Credentials), folder, limit, offset)
		if err != nil {
			h.respondError(c, span, http.StatusBadRequest, err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"emails":  emails,
		})
	}
}

// FetchTrash returns one page of the trash folder, trying the configured
// candidate names in order.
func (h *MailHandler) FetchTrash() gin.HandlerFunc {
	return h.fetchFirstAvailable("MailHandler.FetchTrash", models.TrashFetchCandidates)
}

// FetchSent returns one page of the sent folder.
func (h *MailHandler) FetchSent() gin.HandlerFunc {
	return h.fetchFirstAvailable("MailHandler.FetchSent", models.SentFetchCandidates)
}

func (h *MailHandler) fetchFirstAvailable(operation string, candidates []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), operation, c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.FetchPageRequest
		if err := c.ShouldBindJSON(&request); err != nil || !request.Present() {
			h.respondError(c, span, http.StatusBadRequest, "Email and password are required")
			return
		}
		tracing.TagAccount(span, request.Email)

		limit := utils.GetOrDefault(request.Limit, defaultFetchLimit)
		offset := utils.GetOrDefault(request.Offset, 0)

		emails, err := h.store.FetchFirstAvailable(ctx, accountFromCredentials(request.Credentials), candidates, limit, offset)
		if err != nil {
			h.respondError(c, span, http.StatusInternalServerError, err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"emails":  emails,
		})
	}
}
