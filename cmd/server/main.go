package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdg-garage/workshop-booking-api/internal/admission"
	"github.com/gdg-garage/workshop-booking-api/internal/auth"
	"github.com/gdg-garage/workshop-booking-api/internal/config"
	"github.com/gdg-garage/workshop-booking-api/internal/database"
	"github.com/gdg-garage/workshop-booking-api/internal/handlers"
	"github.com/gdg-garage/workshop-booking-api/internal/notifier"
	"github.com/gdg-garage/workshop-booking-api/internal/store"
	"github.com/gdg-garage/workshop-booking-api/internal/telemetry"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load Configuration
	cfg := config.LoadConfig()

	shutdownTracing, err := telemetry.Setup(ctx, "workshop-booking-api", cfg.OTLPEndpoint)
	if err != nil {
		log.Printf("Tracing not initialized: %v", err)
	}

	// Connect to Database
	db := database.Connect(cfg)
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database handle: %v", err)
	}

	notifiers, closeNotifiers := notifier.FromConfig(cfg)

	// Initialize Handlers
	s := store.New(db)
	engine := admission.NewEngine(s,
		admission.WithNotifier(notifiers),
		admission.WithMaxAttempts(cfg.BookingMaxAttempts),
	)
	authHandler := auth.NewAuthHandler(cfg, db)
	bookingHandler := handlers.NewBookingHandler(engine, s, authHandler)
	workshopHandler := handlers.NewWorkshopHandler(engine)

	// Initialize Router
	r := chi.NewRouter()
	handlers.RegisterRoutes(r, authHandler, bookingHandler, workshopHandler, handlers.RouteOptions{
		EnableCORS:  cfg.EnableCORS,
		FrontendURL: cfg.FrontendURL,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server error: %v", err)
	}

	closeNotifiers()
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.Printf("Failed to flush traces: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}
	log.Println("Server stopped")
}
