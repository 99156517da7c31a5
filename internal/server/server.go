package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dwfit/pos-backend-sub000/internal/catalog"
	"github.com/dwfit/pos-backend-sub000/internal/config"
	"github.com/dwfit/pos-backend-sub000/internal/discount"
	discountdomain "github.com/dwfit/pos-backend-sub000/internal/discount/domain"
	"github.com/dwfit/pos-backend-sub000/internal/events"
	"github.com/dwfit/pos-backend-sub000/internal/order"
	orderchannel "github.com/dwfit/pos-backend-sub000/internal/order/channel"
	orderdomain "github.com/dwfit/pos-backend-sub000/internal/order/domain"
	"github.com/dwfit/pos-backend-sub000/internal/shift"
	shiftdomain "github.com/dwfit/pos-backend-sub000/internal/shift/domain"
	"github.com/dwfit/pos-backend-sub000/internal/tax"
	taxdomain "github.com/dwfit/pos-backend-sub000/internal/tax/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	catalog.Module,
	events.Module,
	tax.Module,
	discount.Module,
	order.Module,
	shift.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	orderSvc    orderdomain.Service
	discountSvc discountdomain.Service
	shiftSvc    shiftdomain.Service
	taxSvc      taxdomain.Service
	normalizer  *orderchannel.Normalizer
	hub         *events.Hub
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	OrderSvc    orderdomain.Service
	DiscountSvc discountdomain.Service
	ShiftSvc    shiftdomain.Service
	TaxSvc      taxdomain.Service
	Normalizer  *orderchannel.Normalizer
	Hub         *events.Hub
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		log:         p.Log.Named("server"),
		genID:       p.GenID,
		orderSvc:    p.OrderSvc,
		discountSvc: p.DiscountSvc,
		shiftSvc:    p.ShiftSvc,
		taxSvc:      p.TaxSvc,
		normalizer:  p.Normalizer,
		hub:         p.Hub,
	}

	svc.registerOrderRoutes()
	svc.registerPOSRoutes()
	svc.registerDiscountRoutes()
	svc.registerTaxRoutes()

	return svc
}

func (s *Server) registerOrderRoutes() {
	group := s.engine.Group("/orders", IdentityMiddleware())
	group.POST("", s.createOrderGeneric)
	group.GET("", s.listOrders)
	group.GET("/events", s.streamOrderEvents)
	group.GET("/:id", s.getOrder)
	group.POST("/:id/close", s.closeOrder)
	group.POST("/:id/void", s.voidOrder)
	group.POST("/:id/callcenter-accept", s.acceptOrder)
	group.POST("/:id/callcenter-decline", s.declineOrder)
}

func (s *Server) registerPOSRoutes() {
	group := s.engine.Group("/pos", IdentityMiddleware())
	group.POST("/orders", s.createOrderPOS)
	group.POST("/clock-in", s.clockIn)
	group.POST("/clock-out", s.clockOut)
	group.POST("/till/open", s.tillOpen)
	group.POST("/till/close", s.tillClose)
	group.GET("/till/status", s.tillStatus)

	callcenter := s.engine.Group("/callcenter", IdentityMiddleware())
	callcenter.POST("/orders", s.createOrderCallCenter)
}

func (s *Server) registerDiscountRoutes() {
	group := s.engine.Group("/discounts", IdentityMiddleware())
	group.GET("", s.listDiscounts)
	group.POST("", s.createDiscount)
	group.PATCH("/:id", s.updateDiscount)
	group.DELETE("/:id", s.deleteDiscount)
	group.PUT("/:id/branches", s.replaceDiscountBranches)
}

func (s *Server) registerTaxRoutes() {
	group := s.engine.Group("/tax-rates", IdentityMiddleware())
	group.GET("", s.listTaxRates)
	group.POST("", s.createTaxRate)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
