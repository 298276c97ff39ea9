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

	"github.com/treadstone/maxtt-billing/internal/config"
	"github.com/treadstone/maxtt-billing/internal/franchisee"
	franchiseedomain "github.com/treadstone/maxtt-billing/internal/franchisee/domain"
	"github.com/treadstone/maxtt-billing/internal/invoice"
	invoicedomain "github.com/treadstone/maxtt-billing/internal/invoice/domain"
	"github.com/treadstone/maxtt-billing/internal/providers"
	"github.com/treadstone/maxtt-billing/internal/providers/pdf"
	"github.com/treadstone/maxtt-billing/internal/ratelimit"
	"github.com/treadstone/maxtt-billing/internal/vehicle"
)

var Module = fx.Module("http.server",
	vehicle.Module,
	invoice.Module,
	franchisee.Module,
	providers.Module,
	ratelimit.Module,
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
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

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node

	invoiceSvc    invoicedomain.Service
	franchiseeSvc franchiseedomain.Service
	pdfProvider   pdf.Provider
	submitLimiter *ratelimit.SubmitLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	InvoiceSvc    invoicedomain.Service
	FranchiseeSvc franchiseedomain.Service
	PDFProvider   pdf.Provider
	SubmitLimiter *ratelimit.SubmitLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine: p.Gin,
		cfg:    p.Cfg,
		db:     p.DB,
		log:    p.Log.Named("server"),
		genID:  p.GenID,

		invoiceSvc:    p.InvoiceSvc,
		franchiseeSvc: p.FranchiseeSvc,
		pdfProvider:   p.PDFProvider,
		submitLimiter: p.SubmitLimiter,
	}

	svc.registerAPIRoutes()
	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.GET("/invoices/:id/pdf", s.RenderInvoicePDF)
	api.GET("/summary", s.GetSummary)

	api.GET("/profile", s.GetProfile)
	api.GET("/franchisees/:id", s.GetFranchisee)
	api.PUT("/franchisees/:id", s.UpdateFranchisee)
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
