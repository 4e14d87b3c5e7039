package email

import (
	"github.com/privehub/privehub/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("email",
	fx.Provide(NewFromConfig),
)

// NewFromConfig selects the provider named by EMAIL_PROVIDER. Unknown values
// fall back to noop so a misconfigured environment degrades to silence rather
// than crash-looping the scheduler.
func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	switch cfg.Email.Provider {
	case "relay":
		return NewRelayProvider(RelayConfig{
			BaseURL: cfg.Email.RelayBaseURL,
			APIKey:  cfg.Email.RelayAPIKey,
			From:    cfg.Email.From,
		})
	case "smtp":
		return NewSMTPProvider(SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.SMTPUsername,
			Password: cfg.Email.SMTPPassword,
			From:     cfg.Email.From,
		})
	case "noop":
		return NoOpProvider{}
	default:
		log.Warn("unknown email provider, using noop", zap.String("provider", cfg.Email.Provider))
		return NoOpProvider{}
	}
}
