package config

import (
	"time"

	"github.com/peopledesk/mailbridge/internal/logger"
	"github.com/peopledesk/mailbridge/internal/tracing"
)

type Config struct {
	AppConfig *AppConfig
	Logger    *logger.Config
	Tracing   *tracing.JaegerConfig
	IMAP      *IMAPConfig
	SMTP      *SMTPConfig
}

type AppConfig struct {
	APIPort string `env:"PORT" envDefault:"3001"`
	// APIKey guards the /mail group when set; empty disables the check.
	APIKey string `env:"API_KEY"`
}

// IMAPConfig describes the mail-store endpoint. TLSSkipVerify disables
// certificate validation against the store; the original deployment runs
// this way, so it defaults on but is an explicit, logged flag.
type IMAPConfig struct {
	Host                  string        `env:"IMAP_HOST" envDefault:"imap.hostinger.com"`
	Port                  int           `env:"IMAP_PORT" envDefault:"993"`
	TLSSkipVerify         bool          `env:"IMAP_TLS_SKIP_VERIFY" envDefault:"true"`
	ConnectTimeout        time.Duration `env:"IMAP_CONNECT_TIMEOUT" envDefault:"30s"`
	AuthTimeout           time.Duration `env:"IMAP_AUTH_TIMEOUT" envDefault:"30s"`
	KeepAlive             time.Duration `env:"IMAP_KEEPALIVE" envDefault:"30s"`
	TestConnectionTimeout time.Duration `env:"IMAP_TEST_CONNECTION_TIMEOUT" envDefault:"30s"`
}

// SMTPConfig describes the submission endpoint and the dispatch defaults.
// RetryDelay is only a default; callers may supply their own per send.
type SMTPConfig struct {
	Host          string        `env:"SMTP_HOST" envDefault:"smtp.hostinger.com"`
	Port          int           `env:"SMTP_PORT" envDefault:"465"`
	TLSSkipVerify bool          `env:"SMTP_TLS_SKIP_VERIFY" envDefault:"true"`
	VerifyTimeout time.Duration `env:"SMTP_VERIFY_TIMEOUT" envDefault:"30s"`
	SendTimeout   time.Duration `env:"SMTP_SEND_TIMEOUT" envDefault:"60s"`
	MaxAttempts   int           `env:"SMTP_MAX_ATTEMPTS" envDefault:"3"`
	RetryDelay    time.Duration `env:"SMTP_RETRY_DELAY" envDefault:"1s"`
}
