package handlers

import (
	"github.com/peopledesk/mailbridge/config"
	"github.com/peopledesk/mailbridge/interfaces"
	"github.com/peopledesk/mailbridge/internal/logger"
)

type APIHandlers struct {
	Mail *MailHandler
}

func InitHandlers(cfg *config.Config, store interfaces.MailStore, dispatcher interfaces.EmailDispatcher, log logger.Logger) *APIHandlers {
	return &APIHandlers{
		Mail: NewMailHandler(cfg, store, dispatcher, log),
	}
}
