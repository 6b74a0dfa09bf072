package email

import (
	"fmt"

	"github.com/artpar/invoicer/config"
	"github.com/artpar/invoicer/ports"
)

// NewSender creates an email sender based on configuration.
func NewSender(cfg config.EmailConfig) (ports.EmailSender, error) {
	switch cfg.Provider {
	case "smtp":
		return NewSMTPSender(SMTPConfig{
			Host:        cfg.SMTP.Host,
			Port:        cfg.SMTP.Port,
			Username:    cfg.SMTP.Username,
			Password:    cfg.SMTP.Password,
			From:        cfg.FromAddress,
			FromName:    cfg.FromName,
			UseTLS:      cfg.SMTP.UseTLS,
			UseImplicit: cfg.SMTP.UseImplicit,
		})

	case "mock":
		return NewMockSender(cfg.FromName), nil

	case "none", "":
		return NewNoopSender(), nil

	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
	}
}
