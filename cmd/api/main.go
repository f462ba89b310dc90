package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"medislot/internal/config"
	"medislot/internal/database"
	"medislot/internal/middleware"
	"medislot/internal/modules/admin"
	"medislot/internal/modules/auth"
	"medislot/internal/modules/booking"
	"medislot/internal/modules/directory"
	"medislot/internal/modules/feed"
	"medislot/internal/modules/reconciler"
	jwtsvc "medislot/internal/pkg/jwt"
	"medislot/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	hub := feed.NewHub()
	defer hub.Close()
	feedHandler := feed.NewHandler(hub)

	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService)

	directoryService := directory.NewService(doctorRepo, slotRepo)
	directoryHandler := directory.NewHandler(directoryService)

	bookingService := booking.NewService(bookingRepo, hub)
	bookingHandler := booking.NewHandler(bookingService)

	adminService := admin.NewService(bookingRepo, bookingService, slotRepo, doctorRepo)
	adminHandler := admin.NewHandler(adminService)

	rec := reconciler.NewService(bookingRepo, hub, cfg.PendingTTL, cfg.BufferTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go rec.Run(ctx, cfg.SweepInterval)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterRoutes(v1)
		directoryHandler.RegisterPublicRoutes(v1)
		feedHandler.RegisterRoutes(v1)

		// authenticated patients
		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j))
		{
			bookingHandler.RegisterRoutes(protected)
		}

		// admin only
		adminGroup := v1.Group("/")
		adminGroup.Use(middleware.JWTAuth(j), middleware.AdminOnly())
		{
			directoryHandler.RegisterAdminRoutes(adminGroup)
			adminHandler.RegisterRoutes(adminGroup)
		}
	}

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
