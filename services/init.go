package services

import (
	"github.com/peopledesk/mailbridge/config"
	"github.com/peopledesk/mailbridge/interfaces"
	"github.com/peopledesk/mailbridge/internal/logger"
	"github.com/peopledesk/mailbridge/services/imap"
	"github.com/peopledesk/mailbridge/services/smtp"
)

type Services struct {
	MailStore  interfaces.MailStore
	Dispatcher interfaces.EmailDispatcher
}

func InitServices(cfg *config.Config, log logger.Logger) *Services {
	mailStore := imap.NewMailStoreService(cfg.IMAP, log)

	return &Services{
		MailStore:  mailStore,
		Dispatcher: smtp.NewDispatchService(cfg.SMTP, log, mailStore),
	}
}
