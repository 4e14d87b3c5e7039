package pixgateway

import (
	"github.com/privehub/privehub/internal/checkout/domain"
	"github.com/privehub/privehub/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("pixgateway",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) domain.Gateway {
	return NewClient(Config{
		BaseURL: cfg.Pix.BaseURL,
		Token:   cfg.Pix.Token,
	})
}
