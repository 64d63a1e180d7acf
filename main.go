package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eursukkul/booking-microservice/inventory-service/config"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/consumer"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/dto"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/handler"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/jobs"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/middleware"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/repository"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/service"
	"github.com/Eursukkul/booking-microservice/inventory-service/pkg/cache"
	"github.com/Eursukkul/booking-microservice/inventory-service/pkg/database"
	"github.com/Eursukkul/booking-microservice/inventory-service/pkg/mailer"
	"github.com/Eursukkul/booking-microservice/inventory-service/pkg/rabbitmq"
	"github.com/covalenthq/lumberjack"
	"github.com/go-co-op/gocron/v2"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	if cfg.LogFile != "" {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}))
	}

	db := openDB(cfg)
	tx := database.NewTransactor(db, database.TxOptions{
		MaxAttempts: cfg.TxMaxAttempts,
		LockTimeout: cfg.TxLockTimeout,
		Backoff:     cfg.TxBackoff,
	})

	var publisher service.EventPublisher
	if cfg.RabbitURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		defer p.Close()
		publisher = p
	}

	var mail service.Mailer
	if cfg.SMTPHost != "" {
		m, err := mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		if err != nil {
			log.Fatalf("failed to configure SMTP: %v", err)
		}
		mail = m
	}

	eventRepo := repository.NewEventRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	tokenRepo := repository.NewSpecialPriceRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	waitingRepo := repository.NewWaitingQueueRepository(db)
	emailRepo := repository.NewEmailRepository(db)

	eventSvc := service.NewEventService(tx, eventRepo, categoryRepo, ticketRepo, publisher)
	categorySvc := service.NewCategoryService(tx, eventRepo, categoryRepo, ticketRepo, tokenRepo, publisher)
	ticketSvc := service.NewTicketService(tx, eventRepo, categoryRepo, ticketRepo, reservationRepo, waitingRepo, cfg.ReservationTTL)
	waitingSvc := service.NewWaitingQueueService(tx, eventRepo, categoryRepo, ticketRepo, reservationRepo, waitingRepo, emailRepo, publisher, cfg.ReservationTTL)
	specialSvc := service.NewSpecialPriceService(tx, eventRepo, categoryRepo, tokenRepo, emailRepo)
	notificationSvc := service.NewNotificationService(tx, emailRepo, mail, cfg.EmailBatchSize, cfg.EmailMaxAttempts)

	if cfg.RabbitURL != "" {
		c, err := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitPrefetch)
		if err != nil {
			log.Fatalf("failed to connect consumer to RabbitMQ: %v", err)
		}
		defer c.Close()
		msgs, err := c.Consume()
		if err != nil {
			log.Fatalf("failed to start consuming: %v", err)
		}
		consumer.NewReservationConsumer(ticketSvc, cfg.ConsumerCommandTimeout).Start(msgs)
	}

	if cfg.JobsEnabled {
		var locker gocron.Locker
		if cfg.RedisURL != "" {
			rdb, err := cache.NewRedisClient(cfg.RedisURL)
			if err != nil {
				log.Fatalf("failed to connect to Redis: %v", err)
			}
			defer rdb.Close()
			locker = jobs.NewRedisLocker(rdb, cfg.JobLockTTL)
		}

		tasks := jobs.Table(jobs.Deps{
			Tickets:       ticketSvc,
			WaitingQueue:  waitingSvc,
			SpecialPrices: specialSvc,
			Notifications: notificationSvc,
			DemoProfile:   cfg.HasProfile("demo"),
			ExpirySlack:   cfg.ReservationSlack,
		}, cfg.JobIntervals)
		scheduler, err := jobs.NewScheduler(tasks, locker)
		if err != nil {
			log.Fatalf("failed to create scheduler: %v", err)
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				log.Printf("[Scheduler] shutdown: %v", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Validator = dto.NewValidator()
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "inventory-service"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	events := e.Group("/api/v1/events")
	handler.NewEventHandler(eventSvc).RegisterRoutes(events)
	categories := handler.NewCategoryHandler(eventSvc, categorySvc, specialSvc)
	categories.RegisterRoutes(events)
	categories.RegisterCodeRoutes(e.Group("/api/v1/codes"))
	handler.NewWaitingQueueHandler(waitingSvc).RegisterRoutes(events)
	handler.NewTicketHandler(ticketSvc).RegisterRoutes(e.Group("/api/v1/tickets"))

	go func() {
		log.Printf("Inventory Service starting on :%s", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Inventory Service shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

func openDB(cfg *config.Config) *gorm.DB {
	switch cfg.DBDriver {
	case "sqlite":
		db, err := database.NewSQLiteDB(cfg.SQLiteDSN)
		if err != nil {
			log.Fatalf("failed to open sqlite: %v", err)
		}
		return db
	case "postgres":
		return database.NewPostgresDB(cfg.DSN())
	}
	log.Fatalf("unknown DB_DRIVER %q", cfg.DBDriver)
	return nil
}
