package email

import (
	"github.com/voluntaria/platform/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	if !cfg.Email.Enabled || cfg.Email.APIKey == "" {
		log.Warn("email provider disabled, outbound mail is a no-op")
		return &NoOpProvider{}
	}
	return NewHTTP(Config{
		BaseURL: cfg.Email.BaseURL,
		APIKey:  cfg.Email.APIKey,
		From:    cfg.Email.From,
		Timeout: cfg.Email.Timeout,
	})
}
