package shift

import (
	"go.uber.org/fx"

	"github.com/dwfit/pos-backend-sub000/internal/shift/repository"
	"github.com/dwfit/pos-backend-sub000/internal/shift/service"
)

var Module = fx.Module("shift.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
