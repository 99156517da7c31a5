package order

import (
	"go.uber.org/fx"

	"github.com/dwfit/pos-backend-sub000/internal/order/channel"
	"github.com/dwfit/pos-backend-sub000/internal/order/repository"
	"github.com/dwfit/pos-backend-sub000/internal/order/service"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(channel.NewNormalizer),
)
