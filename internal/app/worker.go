package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kartikpanaganti/textlaire-sub002/internal/attendance"
	"github.com/kartikpanaganti/textlaire-sub002/internal/employee"
	"github.com/kartikpanaganti/textlaire-sub002/internal/messaging/kafka"
	"github.com/kartikpanaganti/textlaire-sub002/internal/messaging/kafka/producer"
	"github.com/kartikpanaganti/textlaire-sub002/internal/payroll"
	"github.com/kartikpanaganti/textlaire-sub002/internal/scheduler"
	"github.com/kartikpanaganti/textlaire-sub002/internal/shared/connection"
)

// RunWorker hosts the two background loops: the outbox-to-kafka producer
// and the monthly generation cron.
func RunWorker() error {
	logger := zap.L().Named("app.worker")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(kafkaBroker, 5)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	employeeRepo := employee.NewRepository(gormDB)
	attendanceRepo := attendance.NewRepository(gormDB)
	payrollRepo := payroll.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(sqlDB)

	weekend := payroll.ParseWeekend(os.Getenv("WEEKEND_DAYS"))
	payrollService := payroll.NewService(sqlDB, payrollRepo, attendanceRepo, employeeRepo, outboxRepo, weekend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go producer.ProcessOutboxEvents(
		ctx,
		outboxRepo,
		kafkaWriter,
		logger,
		3*time.Second,
	)

	sched := scheduler.New(scheduler.NewRedisStore(redisClient), payrollService, zap.L())
	if err := sched.Start(ctx); err != nil {
		return err
	}
	go sched.WatchConfig(ctx, time.Minute)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()
	sched.Stop()

	return nil
}
