package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hospital-service/config"
	"hospital-service/internal/api"
	"hospital-service/internal/broker"
	"hospital-service/internal/redisclient"
	"hospital-service/internal/service"
	"hospital-service/internal/store"
	"hospital-service/internal/util"
	"hospital-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting hospital service")

	tp, err := util.InitTracer("hospital-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL, cfg.Business.LockTimeout)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicLowStock)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	dispatcher := service.NewDispatcher(eventPublisher, cfg.Business.DispatchQueueDepth)
	purchaseService := service.NewPurchaseService(db, dispatcher, eventPublisher, redisClient, cfg.Business.RemainPolicy)
	inventoryService := service.NewInventoryService(db, redisClient)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	go dispatcher.Start(workerCtx)

	reminderConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicLowStock, cfg.Kafka.ConsumerGroup)
	reminderWorker := worker.NewReminderWorker(reminderConsumer, redisClient, cfg.Business.ReminderDedupe)
	go func() {
		if err := reminderWorker.Start(workerCtx); err != nil {
			log.Printf("Reminder worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(purchaseService, inventoryService, db, redisClient)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	dispatcher.Wait()
	reminderWorker.Stop()

	log.Println("Server exited")
}
