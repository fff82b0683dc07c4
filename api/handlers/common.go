package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/peopledesk/mailbridge/config"
	"github.com/peopledesk/mailbridge/dto"
	"github.com/peopledesk/mailbridge/interfaces"
	"github.com/peopledesk/mailbridge/internal/logger"
	"github.com/peopledesk/mailbridge/internal/models"
	"github.com/peopledesk/mailbridge/internal/tracing"
)

// MailHandler serves the mail proxy endpoints. Every operation builds a
// fresh MailAccount from the request body; nothing is cached between
// requests.
type MailHandler struct {
	cfg        *config.Config
	store      interfaces.MailStore
	dispatcher interfaces.EmailDispatcher
	log        logger.Logger
}

func NewMailHandler(cfg *config.Config, store interfaces.MailStore, dispatcher interfaces.EmailDispatcher, log logger.Logger) *MailHandler {
	return &MailHandler{
		cfg:        cfg,
		store:      store,
		dispatcher: dispatcher,
		log:        log,
	}
}

func accountFromCredentials(creds dto.Credentials) *models.MailAccount {
	return &models.MailAccount{
		Email:    creds.Email,
		Password: creds.Password,
	}
}

// respondError writes the failure envelope and marks the span.
func (h *MailHandler) respondError(c *gin.Context, span opentracing.Span, statusCode int, message string) {
	tracing.TraceErr(span, errors.New(message))
	c.JSON(statusCode, gin.H{
		"success": false,
		"error":   message,
	})
}
