package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event-ticketing/internal/auth"
	"event-ticketing/internal/config"
	"event-ticketing/internal/database/migrations"
	"event-ticketing/internal/email"
	"event-ticketing/internal/event"
	event_api "event-ticketing/internal/event/api"
	event_db "event-ticketing/internal/event/db"
	"event-ticketing/internal/gateway"
	"event-ticketing/internal/kafka"
	"event-ticketing/internal/logger"
	"event-ticketing/internal/models"
	"event-ticketing/internal/payment"
	payment_api "event-ticketing/internal/payment/api"
	payment_db "event-ticketing/internal/payment/db"
	"event-ticketing/internal/promotion"
	promotion_api "event-ticketing/internal/promotion/api"
	promotion_db "event-ticketing/internal/promotion/db"
	"event-ticketing/internal/report"
	report_api "event-ticketing/internal/report/api"
	"event-ticketing/internal/ticket"
	ticket_api "event-ticketing/internal/ticket/api"
	ticket_db "event-ticketing/internal/ticket/db"
	"event-ticketing/internal/user"
	user_api "event-ticketing/internal/user/api"
	user_db "event-ticketing/internal/user/db"
	"event-ticketing/internal/webhook"
	webhook_api "event-ticketing/internal/webhook/api"
	webhook_db "event-ticketing/internal/webhook/db"
	webhook_redis "event-ticketing/internal/webhook/redis"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func connectPostgres(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Connecting to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err == nil {
			err = sqldb.Ping()
			if err == nil {
				break
			}
		}
		log.Error("DATABASE", fmt.Sprintf("PostgreSQL connection failed: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func connectRedis(cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Addr))
	return client
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting ticketing service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()

	bunDB := connectPostgres(cfg.Database, log)
	defer bunDB.Close()

	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions(), log)
	if err := runner.RunMigrations(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}
	defer runner.Close()

	redisClient := connectRedis(cfg.Redis, log)
	defer redisClient.Close()

	var publisher payment.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		publisher = producer
		log.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for %v", cfg.Kafka.Brokers))
	} else {
		log.Warn("KAFKA", "Kafka disabled, payment events will not be published")
	}

	stripeGateway := gateway.NewStripeGateway(cfg.Stripe, cfg.Server.BaseURL, log)

	eventDB := &event_db.DB{Bun: bunDB}
	ticketDB := &ticket_db.DB{Bun: bunDB}
	paymentDB := &payment_db.DB{Bun: bunDB}
	promoDB := &promotion_db.DB{Bun: bunDB}
	userDB := &user_db.DB{Bun: bunDB}
	webhookDB := &webhook_db.DB{Bun: bunDB}

	promoService := promotion.NewService(promoDB, log)
	eventService := event.NewService(eventDB, promoDB, log)
	userService := user.NewService(userDB, log)
	paymentService := payment.NewService(paymentDB, stripeGateway, publisher, cfg.Kafka.Topics, log)
	ticketService := ticket.NewService(ticketDB, eventService, paymentService, stripeGateway, nil, log)

	mailer := email.NewSender(cfg.Email, userService, paymentService, ticketService, eventService, log)
	ticketService.Mailer = mailer

	dedup := webhook_redis.NewDedup(redisClient)
	webhookService := webhook.NewService(stripeGateway, dedup, webhookDB, paymentService, mailer, log)

	reportService := report.NewService(paymentService, userService, eventService, ticketService, log)

	eventHandler := event_api.NewHandler(eventService, log)
	ticketHandler := ticket_api.NewHandler(ticketService, log)
	paymentHandler := payment_api.NewHandler(paymentService, log)
	promoHandler := promotion_api.NewHandler(promoService, log)
	userHandler := user_api.NewHandler(userService, log)
	reportHandler := report_api.NewHandler(reportService, log)
	webhookHandler := webhook_api.NewHandler(webhookService, log)

	authMW := auth.NewMiddleware(cfg.Auth.JWTSecret, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// --- Public routes ---
	r.Get("/api/events", eventHandler.ListEvents)
	r.Get("/api/events/upcoming", eventHandler.UpcomingEvents)
	r.Get("/api/events/{eventId}", eventHandler.GetEvent)
	r.Get("/api/events/{eventId}/availability", eventHandler.CheckAvailability)
	r.Get("/api/events/{eventId}/price", eventHandler.QuotePrice)
	r.Get("/api/promotions/validate", promoHandler.ValidateCode)
	r.Post("/api/webhooks/stripe", webhookHandler.StripeWebhook)
	log.Info("ROUTER", "Public routes registered")

	// --- Authenticated routes ---
	r.Group(func(r chi.Router) {
		r.Use(authMW.Authenticate)

		r.Post("/api/tickets/purchase", ticketHandler.PurchaseTickets)
		r.Get("/api/tickets", ticketHandler.MyTickets)
		r.Get("/api/tickets/{ticketId}", ticketHandler.GetTicket)
		r.Post("/api/tickets/{ticketId}/cancel", ticketHandler.CancelTicket)
		r.Post("/api/tickets/{ticketId}/refund", ticketHandler.RefundTicket)

		r.Get("/api/payments", paymentHandler.MyPayments)
		r.Get("/api/payments/validate", paymentHandler.ValidatePayment)
		r.Get("/api/payments/{paymentId}", paymentHandler.GetPayment)

		r.Get("/api/users/me", userHandler.Me)
		log.Info("ROUTER", "Customer routes registered")

		// --- Organizer routes ---
		r.Group(func(r chi.Router) {
			r.Use(authMW.RequireRoles(models.RoleOrganizer, models.RoleAdmin))

			r.Post("/api/events", eventHandler.CreateEvent)
			r.Put("/api/events/{eventId}", eventHandler.UpdateEvent)
			r.Delete("/api/events/{eventId}", eventHandler.DeleteEvent)
			r.Get("/api/events/{eventId}/tickets", ticketHandler.EventTickets)
			r.Get("/api/events/{eventId}/promotions", promoHandler.EventPromotions)

			r.Get("/api/organizer/events", eventHandler.MyEvents)
			r.Get("/api/organizer/revenue", paymentHandler.OrganizerRevenue)
			r.Post("/api/organizer/tickets/validate", ticketHandler.ValidateTicket)

			r.Post("/api/promotions", promoHandler.CreatePromotion)
			r.Get("/api/promotions/{promotionId}", promoHandler.GetPromotion)
			r.Put("/api/promotions/{promotionId}", promoHandler.UpdatePromotion)
			r.Delete("/api/promotions/{promotionId}", promoHandler.DeletePromotion)
			log.Info("ROUTER", "Organizer routes registered")
		})

		// --- Admin routes ---
		r.Group(func(r chi.Router) {
			r.Use(authMW.RequireRoles(models.RoleAdmin))

			r.Get("/api/admin/events", eventHandler.AdminListEvents)
			r.Get("/api/admin/payments", paymentHandler.AdminListPayments)
			r.Get("/api/admin/users", userHandler.AdminListUsers)
			r.Put("/api/admin/users/{userId}", userHandler.AdminUpdateUser)

			r.Get("/api/admin/reports/revenue", reportHandler.RevenueSummary)
			r.Get("/api/admin/reports/sales.csv", reportHandler.SalesCSV)
			r.Get("/api/admin/reports/users.csv", reportHandler.UsersCSV)
			r.Get("/api/admin/reports/events.csv", reportHandler.EventsCSV)
			r.Get("/api/admin/reports/revenue.csv", reportHandler.RevenueCSV)
			log.Info("ROUTER", "Admin routes registered")
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Ticketing service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "Ticketing service shutdown complete")
	}
}
