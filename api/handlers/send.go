package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	custom_err "github.com/peopledesk/mailbridge/api/errors"
	"github.com/peopledesk/mailbridge/dto"
	"github.com/peopledesk/mailbridge/internal/models"
	"github.com/peopledesk/mailbridge/internal/tracing"
)

// Send accepts a multipart form (fields plus file attachments), validates
// it and submits the message through the dispatcher. Validation failures
// answer 400 before any connection is attempted.
func (h *MailHandler) Send() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "MailHandler.Send", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		creds := dto.Credentials{
			Email:    c.PostForm("email"),
			Password: c.PostForm("password"),
		}
		tracing.TagAccount(span, creds.Email)

		errs := custom_err.NewMultiErrors()
		if !creds.Present() {
			errs.Add("credentials", "email and password are required", errors.New("missing credentials"))
		}

		to, err := parseAddressList(c.PostForm("to"))
		if err != nil {
			errs.Add("to", err.Error(), err)
		} else if len(to) == 0 {
			errs.Add("to", "please provide at least one valid to address", errors.New("to is empty"))
		}

		cc, err := parseAddressList(c.PostForm("cc"))
		if err != nil {
			errs.Add("cc", err.Error(), err)
		}

		bcc, err := parseAddressList(c.PostForm("bcc"))
		if err != nil {
			errs.Add("bcc", err.Error(), err)
		}

		subject := c.PostForm("subject")
		if subject == "" {
			errs.Add("subject", "please provide an email subject", errors.New("subject is empty"))
		}

		body := c.PostForm("body")
		if body == "" {
			errs.Add("body", "please provide an email body", errors.New("body is empty"))
		}

		if errs.HasErrors() {
			tracing.TraceErr(span, errs)
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   errs.Error(),
			})
			return
		}

		attachments, err := h.collectAttachments(c)
		if err != nil {
			h.respondError(c, span, http.StatusBadRequest, err.Error())
			return
		}

		message := &models.OutboundMessage{
			From:        creds.Email,
			To:          to,
			Cc:          cc,
			Bcc:         bcc,
			Subject:     subject,
			BodyHTML:    body,
			Attachments: attachments,
		}

		result, err := h.dispatcher.Send(ctx, accountFromCredentials(creds), message, models.DispatchOptions{})
		if err != nil {
			tracing.TraceErr(span, err)
			var dispatchErr *models.DispatchError
			if errors.As(err, &dispatchErr) {
				c.JSON(http.StatusInternalServerError, gin.H{
					"success":  false,
					"error":    dispatchErr.Err.Error(),
					"code":     dispatchErr.Code,
					"attempts": dispatchErr.Attempts,
				})
				return
			}
			h.respondError(c, span, http.StatusInternalServerError, err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"messageId": result.MessageID,
			"response":  result.Response,
		})
	}
}

// parseAddressList splits a comma-separated address field and validates
// each entry's syntax.
func parseAddressList(value string) ([]string, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	parts := strings.Split(value, ",")
	addresses := make([]string, 0, len(parts))
	for _, part := range parts {
		address := strings.TrimSpace(part)
		if address == "" {
			continue
		}
		validation := mailvalidate.ValidateEmailSyntax(address)
		if !validation.IsValid {
			return nil, errors.Errorf("invalid email address: %s", address)
		}
		addresses = append(addresses, validation.CleanEmail)
	}

	return addresses, nil
}

func (h *MailHandler) collectAttachments(c *gin.Context) ([]*models.OutboundAttachment, error) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		// no multipart body at all is fine; fields came in as form data
		return nil, nil
	}

	files := form.File["attachments"]
	attachments := make([]*models.OutboundAttachment, 0, len(files))
	for _, file := range files {
		f, err := file.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open attachment %s", file.Filename)
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read attachment %s", file.Filename)
		}

		attachments = append(attachments, &models.OutboundAttachment{
			Filename:    file.Filename,
			ContentType: file.Header.Get("Content-Type"),
			Content:     content,
		})
	}

	return attachments, nil
}
