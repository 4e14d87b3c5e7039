package checkout

import (
	"context"

	"github.com/privehub/privehub/internal/checkout/domain"
	"github.com/privehub/privehub/internal/checkout/repository"
	checkoutservice "github.com/privehub/privehub/internal/checkout/service"
	"go.uber.org/fx"
)

var Module = fx.Module("checkout",
	fx.Provide(repository.Provide),
	fx.Provide(checkoutservice.NewService),
	fx.Provide(func(s *checkoutservice.Service) domain.Service { return s }),
	fx.Invoke(registerShutdown),
)

func registerShutdown(lc fx.Lifecycle, s *checkoutservice.Service) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = ctx
			s.Shutdown()
			return nil
		},
	})
}
