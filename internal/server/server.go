package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/rentalops/internal/billing"
	billingdomain "github.com/smallbiznis/rentalops/internal/billing/domain"
	"github.com/smallbiznis/rentalops/internal/booking"
	bookingdomain "github.com/smallbiznis/rentalops/internal/booking/domain"
	"github.com/smallbiznis/rentalops/internal/config"
	"github.com/smallbiznis/rentalops/internal/degressiverate"
	degressiveratedomain "github.com/smallbiznis/rentalops/internal/degressiverate/domain"
	"github.com/smallbiznis/rentalops/internal/inventory"
	inventorydomain "github.com/smallbiznis/rentalops/internal/inventory/domain"
	"github.com/smallbiznis/rentalops/internal/material"
	materialdomain "github.com/smallbiznis/rentalops/internal/material/domain"
	"github.com/smallbiznis/rentalops/internal/observability"
	obsmiddleware "github.com/smallbiznis/rentalops/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/rentalops/internal/observability/metrics"
	obstracing "github.com/smallbiznis/rentalops/internal/observability/tracing"
	"github.com/smallbiznis/rentalops/internal/park"
	parkdomain "github.com/smallbiznis/rentalops/internal/park/domain"
	"github.com/smallbiznis/rentalops/internal/setting"
	settingdomain "github.com/smallbiznis/rentalops/internal/setting/domain"
	"github.com/smallbiznis/rentalops/internal/tax"
	taxdomain "github.com/smallbiznis/rentalops/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultHTTPAddr = ":8080"

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	setting.Module,
	park.Module,
	material.Module,
	degressiverate.Module,
	tax.Module,
	booking.Module,
	billing.Module,
	inventory.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = defaultHTTPAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine            *gin.Engine
	db                *gorm.DB
	settingSvc        settingdomain.Service
	parkSvc           parkdomain.Service
	materialSvc       materialdomain.Service
	degressiveRateSvc degressiveratedomain.Service
	taxSvc            taxdomain.Service
	bookingSvc        bookingdomain.Service
	billingSvc        billingdomain.Service
	inventorySvc      inventorydomain.Service
}

type ServerParams struct {
	fx.In

	Gin               *gin.Engine
	DB                *gorm.DB `optional:"true"`
	SettingSvc        settingdomain.Service
	ParkSvc           parkdomain.Service
	MaterialSvc       materialdomain.Service
	DegressiveRateSvc degressiveratedomain.Service
	TaxSvc            taxdomain.Service
	BookingSvc        bookingdomain.Service
	BillingSvc        billingdomain.Service
	InventorySvc      inventorydomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:            p.Gin,
		db:                p.DB,
		settingSvc:        p.SettingSvc,
		parkSvc:           p.ParkSvc,
		materialSvc:       p.MaterialSvc,
		degressiveRateSvc: p.DegressiveRateSvc,
		taxSvc:            p.TaxSvc,
		bookingSvc:        p.BookingSvc,
		billingSvc:        p.BillingSvc,
		inventorySvc:      p.InventorySvc,
	}

	svc.registerHealthRoutes()
	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerHealthRoutes() {
	s.engine.GET("/health", s.Health)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Settings --------
	api.GET("/settings", s.ListSettings)
	api.GET("/settings/:key", s.GetSetting)
	api.PUT("/settings/:key", s.SetSetting)

	// -------- Degressive rates --------
	api.GET("/degressive-rates", s.ListDegressiveRates)
	api.POST("/degressive-rates", s.CreateDegressiveRate)
	api.GET("/degressive-rates/:id", s.GetDegressiveRateByID)
	api.PATCH("/degressive-rates/:id", s.UpdateDegressiveRate)
	api.DELETE("/degressive-rates/:id", s.DeleteDegressiveRate)
	api.GET("/degressive-rates/:id/compute", s.ComputeDegressiveRate)

	// -------- Taxes --------
	api.GET("/taxes", s.ListTaxes)
	api.POST("/taxes", s.CreateTax)
	api.GET("/taxes/:id", s.GetTaxByID)
	api.PATCH("/taxes/:id", s.UpdateTax)
	api.DELETE("/taxes/:id", s.DeleteTax)

	// -------- Parks --------
	api.GET("/parks", s.ListParks)
	api.POST("/parks", s.CreatePark)
	api.GET("/parks/:id", s.GetParkByID)
	api.POST("/parks/:id/archive", s.ArchivePark)
	api.POST("/parks/:id/restore", s.RestorePark)

	// -------- Materials --------
	api.GET("/materials", s.ListMaterials)
	api.POST("/materials", s.CreateMaterial)
	api.GET("/materials/:id", s.GetMaterialByID)
	api.POST("/materials/:id/archive", s.ArchiveMaterial)
	api.POST("/materials/:id/restore", s.RestoreMaterial)
	api.DELETE("/materials/:id", s.DeleteMaterial)

	// -------- Events --------
	api.GET("/events", s.ListEvents)
	api.POST("/events", s.CreateEvent)
	api.GET("/events/:id", s.GetEventByID)
	api.PATCH("/events/:id", s.UpdateEvent)
	api.DELETE("/events/:id", s.DeleteEvent)
	api.POST("/events/:id/materials", s.AddEventMaterial)
	api.PATCH("/events/:id/materials/:line", s.UpdateEventMaterial)
	api.DELETE("/events/:id/materials/:line", s.RemoveEventMaterial)
	api.POST("/events/:id/materials/:line/resync", s.ResyncEventMaterial)
	api.GET("/events/:id/totals", s.GetEventTotals)

	// -------- Documents --------
	api.GET("/events/:id/invoices", s.ListEventInvoices)
	api.POST("/events/:id/invoices", s.CreateInvoice)
	api.GET("/events/:id/estimates", s.ListEventEstimates)
	api.POST("/events/:id/estimates", s.CreateEstimate)
	api.GET("/documents/:id", s.GetDocumentByID)
	api.DELETE("/estimates/:id", s.DeleteEstimate)

	// -------- Inventories --------
	api.GET("/parks/:id/inventories", s.ListParkInventories)
	api.POST("/parks/:id/inventories", s.GetOrCreateDraftInventory)
	api.GET("/inventories/:id", s.GetInventoryByID)
	api.PUT("/inventories/:id/quantities", s.UpdateInventoryQuantities)
	api.POST("/inventories/:id/terminate", s.TerminateInventory)
	api.DELETE("/inventories/:id", s.DeleteDraftInventory)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}

func (s *Server) Health(c *gin.Context) {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
