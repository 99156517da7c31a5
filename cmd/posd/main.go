package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/dwfit/pos-backend-sub000/internal/clock"
	"github.com/dwfit/pos-backend-sub000/internal/config"
	"github.com/dwfit/pos-backend-sub000/internal/logger"
	"github.com/dwfit/pos-backend-sub000/internal/migration"
	"github.com/dwfit/pos-backend-sub000/internal/server"
	"github.com/dwfit/pos-backend-sub000/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) *snowflake.Node {
	node, err := snowflake.NewNode(int64(cfg.NodeID))
	if err != nil {
		panic(err)
	}
	return node
}
