package server

import (
	"net/http"
	"time"

	"equiprent/internal/config"
	"equiprent/internal/middleware"
	"equiprent/internal/modules/activity"
	"equiprent/internal/modules/auth"
	"equiprent/internal/modules/inventory"
	"equiprent/internal/modules/rental"
	"equiprent/internal/pkg/jwt"
	"equiprent/internal/pkg/metrics"
	"equiprent/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App is the wired HTTP surface. Hub must be closed on shutdown.
type App struct {
	Router    *gin.Engine
	Hub       *activity.Hub
	Auth      *auth.Service
	Rentals   *rental.Service
	Inventory *inventory.Service
}

func New(db *gorm.DB, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)

	j := jwt.New(cfg.JWTSecret, cfg.JWTTTL)
	hub := activity.NewHub(logger.Named("activity"))

	authService := auth.NewService(userRepo, sessionRepo, j, cfg.AdminEmail, logger)
	authHandler := auth.NewHandler(authService)

	inventoryService := inventory.NewService(equipmentRepo, hub, m, logger)
	inventoryHandler := inventory.NewHandler(inventoryService)

	rentalService := rental.NewService(rental.NewStore(db), hub, m, logger, rental.Options{
		Mode:       rental.Mode(cfg.BookingMode),
		MaxRetries: cfg.BookingMaxRetries,
		Location:   cfg.Location,
	})
	rentalHandler := rental.NewHandler(rentalService)

	activityHandler := activity.NewHandler(hub, j, authService, logger)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger.Named("http"), m))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "ok",
			"booking_mode": string(rentalService.Mode()),
			"time":         time.Now().UTC(),
		})
	})
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterPublicRoutes(v1)
		inventoryHandler.RegisterPublicRoutes(v1)
		rentalHandler.RegisterPublicRoutes(v1)
		activityHandler.RegisterRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(j, authService))
		{
			authHandler.RegisterProtectedRoutes(protected)
			rentalHandler.RegisterProtectedRoutes(protected)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.JWTAuth(j, authService), middleware.AdminOnly())
		{
			inventoryHandler.RegisterAdminRoutes(admin)
			rentalHandler.RegisterAdminRoutes(admin)
		}
	}

	return &App{
		Router:    r,
		Hub:       hub,
		Auth:      authService,
		Rentals:   rentalService,
		Inventory: inventoryService,
	}
}
