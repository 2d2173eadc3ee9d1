// Entry point for the SKUD event ingest worker.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"attendance.service/internal/config"
	"attendance.service/internal/core"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"attendance.service/internal/worker"
	"attendance.service/internal/worker/ingest"
	"attendance.service/pkg/aws"
	"attendance.service/pkg/database"
	"attendance.service/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Could not load configuration: %v", err)
	}

	logger.Setup(cfg.IsLocalDev)

	// DB connection
	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()
	log.Println("Successfully connected to the database.")

	// AWS SDK Config
	awsCfg, err := aws.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatalf("unable to load SDK config: %v", err)
	}

	// Initialize Dependencies
	sqsClient := sqs.NewFromConfig(awsCfg)

	repo := repository.NewAttendanceRepository(db)
	employees := repository.NewPostgresEmployeeDirectory(db)
	producer := messaging.NewSQSProducer(sqsClient, cfg.AuditSQSQueueURL, cfg.AlertSQSQueueURL)

	coordinator := core.NewProcessor(repo, employees)
	coordinator.Concurrency = cfg.RebuildWorkers
	coordinator.AttachAuditRecorder(messaging.NewAuditPublisher(producer))
	coordinator.AttachNotifier(messaging.NewAlertPublisher(producer))

	normalizer := core.NewNormalizer(employees)
	processor := ingest.NewProcessor(repo, normalizer, coordinator)

	// Start Worker
	ctx, cancel := context.WithCancel(context.Background())
	app := worker.NewWorker(sqsClient, cfg.IngestSQSQueueURL, processor)

	go func() {
		app.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down worker...")

	// Cancel the context to signal the worker to stop polling.
	cancel()

	log.Println("Worker exited gracefully")
}
