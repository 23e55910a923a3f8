package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mithilsmehta/TaskFlow/internal/api"
	"github.com/mithilsmehta/TaskFlow/internal/config"
	"github.com/mithilsmehta/TaskFlow/internal/database"
	"github.com/mithilsmehta/TaskFlow/internal/models"
	"github.com/mithilsmehta/TaskFlow/internal/realtime"
	"github.com/mithilsmehta/TaskFlow/internal/services"
)

// store is what a persistence backend has to offer
type store interface {
	services.TaskRepository
	services.NotificationRepository
	services.UserDirectory
	Close() error
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize persistence
	var db store
	if cfg.MongoDB.Enabled() {
		mongoClient, err := database.NewMongoDBClient(cfg.MongoDB)
		if err != nil {
			log.Fatalf("Failed to initialize MongoDB: %v", err)
		}
		db = mongoClient
	} else {
		log.Println("WARNING: MongoDB is not configured, using in-memory store (data is lost on restart)")
		db = database.NewMemoryStore()
	}

	// Initialize delivery metrics
	var metrics services.MetricsRecorder = services.NopMetrics{}
	var influxMetrics *services.InfluxMetrics
	if cfg.InfluxDB.Enabled() {
		influxMetrics, err = services.NewInfluxMetrics(cfg.InfluxDB.URL, cfg.InfluxDB.Token, cfg.InfluxDB.Org, cfg.InfluxDB.Bucket)
		if err != nil {
			log.Printf("WARNING: Failed to initialize InfluxDB metrics: %v", err)
		} else {
			metrics = influxMetrics
		}
	}

	// Initialize attachment links
	var linker services.AttachmentLinker
	if cfg.S3.Enabled() {
		s3Linker, err := services.NewS3AttachmentLinker(context.Background(), &cfg.S3)
		if err != nil {
			log.Fatalf("Failed to initialize S3 attachment links: %v", err)
		}
		linker = s3Linker
	}

	// Initialize services
	hub := realtime.NewHub(realtime.NewRegistry())
	jwtService := services.NewJWTService(cfg.JWT.Secret, cfg.JWT.TTL)
	notificationService := services.NewNotificationService(db)
	notifier := services.NewNotifier(notificationService, db, hub, metrics)
	dispatcher := services.NewDispatcher()
	taskService := services.NewTaskService(db, db, services.NewTaskStateEngine(), notifier, dispatcher, hub)

	if cfg.Email.Enabled() {
		notifier.EnableEmail(services.NewEmailService(cfg.Email),
			models.NotificationTaskAssigned, models.NotificationTaskDueSoon)
		log.Printf("Email fallback enabled for offline recipients")
	} else {
		log.Printf("SendGrid API key not configured, notification emails disabled")
	}

	var sweeper *services.DueSoonSweeper
	if cfg.DueSoon.Enabled {
		sweeper = services.NewDueSoonSweeper(db, notifier, cfg.DueSoon.Window)
		if _, err := sweeper.Schedule(cfg.DueSoon.Schedule); err != nil {
			log.Fatalf("Failed to schedule due-soon reminders: %v", err)
		}
		sweeper.Start()
	}

	// Setup router
	handlers := api.NewHandlers(taskService, notificationService, jwtService, db, linker, hub)
	router := api.SetupRoutes(handlers, api.RouterOptions{
		CORSOrigin:      cfg.Server.CORSOrigin,
		MockAuthEnabled: cfg.Auth.MockEnabled,
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Printf("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutting down gracefully...")

	if sweeper != nil {
		sweeper.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	dispatcher.Wait()
	hub.Close()

	if influxMetrics != nil {
		influxMetrics.Close()
	}
	if err := db.Close(); err != nil {
		log.Printf("Failed to close store: %v", err)
	}
	log.Println("Server stopped")
}
