package tax

import (
	"github.com/dwfit/pos-backend-sub000/internal/money"
	"github.com/dwfit/pos-backend-sub000/internal/tax/domain"
	"github.com/dwfit/pos-backend-sub000/internal/tax/repository"
	"github.com/dwfit/pos-backend-sub000/internal/tax/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tax.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(func(svc domain.Service) money.DefaultTaxRateProvider { return svc }),
)
