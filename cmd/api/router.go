package main

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lodging/internal/audit"
	"lodging/internal/cache"
	"lodging/internal/config"
	"lodging/internal/database"
	"lodging/internal/metrics"
	"lodging/internal/middleware"
	"lodging/internal/modules/availability"
	"lodging/internal/modules/booking"
	"lodging/internal/modules/housekeeping"
	"lodging/internal/modules/ledger"
	"lodging/internal/modules/report"
	"lodging/internal/modules/reservation"
	jwtsvc "lodging/internal/pkg/jwt"
)

type services struct {
	availability *availability.Service
	booking      *booking.Service
	reservation  *reservation.Service
	ledger       *ledger.Service
	housekeeping *housekeeping.Service
	report       *report.Service
}

func newServices(db *gorm.DB, cfg *config.Config, catalog *cache.CatalogCache, m *metrics.Metrics, lg *zap.Logger) *services {
	recorder := audit.NewRecorder()
	txOpts := database.TxOptions{
		Isolation:  sql.LevelSerializable,
		Timeout:    cfg.Booking.TxTimeout,
		MaxRetries: cfg.Booking.MaxTxRetries,
	}

	reservations := reservation.NewService(db, recorder, txOpts, lg.Named("reservation"), reservation.WithMetrics(m))
	return &services{
		availability: availability.NewService(db, catalog, lg.Named("availability")),
		booking:      booking.NewService(db, recorder, reservations, cfg.Booking, lg.Named("booking"), booking.WithMetrics(m)),
		reservation:  reservations,
		ledger:       ledger.NewService(db, recorder, reservations, txOpts, lg.Named("ledger"), ledger.WithMetrics(m)),
		housekeeping: housekeeping.NewService(db, recorder, txOpts, lg.Named("housekeeping")),
		report:       report.NewService(db),
	}
}

func newRouter(svc *services, j *jwtsvc.Service, corsOrigins []string, lg *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.ErrorLogger(lg), middleware.CORS(corsOrigins))
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	v1 := r.Group("/api/v1")
	{
		// public
		availability.NewHandler(svc.availability).RegisterRoutes(v1)
		bookings := booking.NewHandler(svc.booking)
		bookings.RegisterRoutes(v1)

		admin := v1.Group("/admin")
		admin.Use(middleware.JWTAuth(j))
		{
			bookings.RegisterStaffRoutes(admin)
			reservation.NewHandler(svc.reservation).RegisterRoutes(admin)
			housekeeping.NewHandler(svc.housekeeping).RegisterRoutes(admin)
			reports := report.NewHandler(svc.report)
			reports.RegisterFrontDeskRoutes(admin)

			finance := admin.Group("")
			finance.Use(middleware.FinanceOnly())
			ledger.NewHandler(svc.ledger).RegisterRoutes(finance)
			reports.RegisterRoutes(finance)
		}
	}
	return r
}
