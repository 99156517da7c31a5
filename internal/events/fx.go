package events

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("events",
	fx.Provide(NewHub),
	fx.Provide(NewDispatcher),
	fx.Provide(func(d *Dispatcher) Emitter { return d }),
	fx.Invoke(func(lc fx.Lifecycle, d *Dispatcher) {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return d.Close()
			},
		})
	}),
)
