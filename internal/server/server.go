package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/partdesk/internal/catalog"
	catalogdomain "github.com/smallbiznis/partdesk/internal/catalog/domain"
	"github.com/smallbiznis/partdesk/internal/config"
	"github.com/smallbiznis/partdesk/internal/discount"
	discountdomain "github.com/smallbiznis/partdesk/internal/discount/domain"
	"github.com/smallbiznis/partdesk/internal/observability"
	obsmiddleware "github.com/smallbiznis/partdesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/partdesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/partdesk/internal/observability/tracing"
	"github.com/smallbiznis/partdesk/internal/pricing"
	"github.com/smallbiznis/partdesk/internal/providers"
	"github.com/smallbiznis/partdesk/internal/quotation"
	quotationdomain "github.com/smallbiznis/partdesk/internal/quotation/domain"
	"github.com/smallbiznis/partdesk/internal/scheduler"
	"github.com/smallbiznis/partdesk/internal/tablestore"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	tablestore.Module,
	providers.Module,
	catalog.Module,
	discount.Module,
	pricing.Module,
	quotation.Module,
	scheduler.Module,
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

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
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

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	catalogSvc   catalogdomain.Service
	discountSvc  discountdomain.Service
	quotationSvc quotationdomain.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	CatalogSvc   catalogdomain.Service
	DiscountSvc  discountdomain.Service
	QuotationSvc quotationdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		catalogSvc:   p.CatalogSvc,
		discountSvc:  p.DiscountSvc,
		quotationSvc: p.QuotationSvc,
	}

	api := svc.engine.Group("/api")

	api.GET("/parts/search", svc.SearchParts)
	api.GET("/parts/:code", svc.GetPartByCode)

	api.GET("/discounts", svc.ListDiscountRules)
	api.POST("/discounts", svc.CreateDiscountRule)
	api.GET("/discounts/customer/:email", svc.GetCustomerDiscount)

	api.POST("/quotes/calculate", svc.CalculateQuote)
	api.POST("/quotes", svc.CreateQuote)
	api.GET("/quotes", svc.ListQuotes)
	api.GET("/quotes/:token", svc.GetQuote)
	api.GET("/quotes/:token/accept", svc.AcceptQuote)
	api.POST("/quotes/:token/accept", svc.AcceptQuote)

	api.POST("/cache/sync", svc.TriggerCatalogSync)
	api.GET("/cache/stats", svc.CacheStats)

	return svc
}
