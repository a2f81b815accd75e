package email

import (
	"github.com/smallbiznis/partdesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) (Provider, error) {
	if !cfg.Email.Enabled {
		log.Info("email delivery disabled")
		return &NoOpProvider{}, nil
	}
	return NewSMTP(Config{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.SMTPFrom,
		FromName:  cfg.Email.FromName,
	})
}
