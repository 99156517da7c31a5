package discount

import (
	"github.com/dwfit/pos-backend-sub000/internal/discount/repository"
	"github.com/dwfit/pos-backend-sub000/internal/discount/service"
	"go.uber.org/fx"
)

var Module = fx.Module("discount.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
