package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-ordering/internal/analytics"
	"ms-ordering/internal/analytics/analytics_api"
	"ms-ordering/internal/auth"
	"ms-ordering/internal/config"
	"ms-ordering/internal/kafka"
	"ms-ordering/internal/kitchen"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/menu"
	menudb "ms-ordering/internal/menu/db"
	"ms-ordering/internal/menu/menu_api"
	"ms-ordering/internal/notify"
	notifydb "ms-ordering/internal/notify/db"
	"ms-ordering/internal/order"
	"ms-ordering/internal/order/db"
	orderkafka "ms-ordering/internal/order/kafka"
	"ms-ordering/internal/order/order_api"
	orderredis "ms-ordering/internal/order/redis"
	"ms-ordering/internal/rbac"
	rbacdb "ms-ordering/internal/rbac/db"
	"ms-ordering/internal/screen"
	screendb "ms-ordering/internal/screen/db"
	"ms-ordering/internal/screen/screen_api"
	"ms-ordering/internal/sse"
	"ms-ordering/internal/tablesession"
	tablesessiondb "ms-ordering/internal/tablesession/db"
	"ms-ordering/internal/tablesession/tablesession_api"
	"ms-ordering/internal/utils"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.PingContext(ctx)
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	log.Info("DATABASE", "PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s (DB: %d)", cfg.Redis.Addr, redisClient.Options().DB))

	return bunDB, redisClient
}

// requestLogger writes one API line per request.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.LogAPI(r.Method, r.URL.Path, strconv.Itoa(ww.Status()), time.Since(start).String())
		})
	}
}

func instanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "ordering"
	}
	return host + "-" + uuid.NewString()[:8]
}

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Options{Service: "ms-ordering", Dir: cfg.Log.Dir, MinLevel: logger.ParseLevel(cfg.Log.Level)})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("APP", "Starting ordering service initialization")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	origin := instanceID()
	emitter := sse.NewBoardEventEmitter()

	var events order.EventPublisher = orderkafka.LogPublisher{Log: log}
	if cfg.Kafka.Enabled {
		topics := orderkafka.Topics(cfg.Kafka.TopicPrefix)
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}

		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		events = orderkafka.NewPublisher(producer, cfg.Kafka.TopicPrefix, origin)

		// every instance needs every event, so each one gets its own group
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topics, "ms-ordering-boards-"+origin, log)
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx, orderkafka.BoardRelay(origin, emitter)); err != nil && ctx.Err() == nil {
				log.Error("KAFKA", fmt.Sprintf("board relay stopped: %v", err))
			}
		}()
		log.Info("KAFKA", fmt.Sprintf("Publishing domain events as %s", origin))
	} else {
		log.Warn("KAFKA", "Kafka disabled, domain events are only logged")
	}

	var sender notify.Sender = notify.LogSender{Log: log}
	if cfg.SMS.GatewayURL != "" {
		sender = notify.NewGatewaySender(cfg.SMS.GatewayURL, cfg.SMS.APIKey, cfg.SMS.Sender, cfg.SMS.Timeout)
		log.Info("SMS", "Using SMS gateway at "+cfg.SMS.GatewayURL)
	} else {
		log.Warn("SMS", "SMS_GATEWAY_URL not set, messages are logged only")
	}
	notifier := notify.NewNotifier(&notifydb.DB{Bun: bunDB}, sender, log)

	orderService := order.NewOrderService(
		&db.DB{Bun: bunDB},
		orderredis.NewOrderLock(redisClient, cfg.Redis.OrderLockTTL, log),
		events,
		notifier,
		emitter,
		log,
		kitchen.TimestampPolicy{ClearOnRevert: cfg.Kitchen.ClearTimestampsOnRevert},
	)
	menuService := menu.NewService(&menudb.DB{Bun: bunDB}, log)
	screenService := screen.NewService(&screendb.DB{Bun: bunDB}, log)
	sessionService := tablesession.NewService(&tablesessiondb.DB{Bun: bunDB}, log)
	salesService := analytics.NewService(analytics.NewDB(bunDB))
	resolver := rbac.NewResolver(&rbacdb.DB{Bun: bunDB})
	tokens, err := auth.NewVerifier(ctx, cfg.Auth)
	if err != nil {
		log.Fatal("AUTH", fmt.Sprintf("Failed to set up token verification: %v", err))
	}
	if cfg.Auth.OIDCIssuer != "" {
		log.Info("AUTH", "Verifying staff tokens against "+cfg.Auth.OIDCIssuer)
	} else {
		log.Warn("AUTH", "OIDC_ISSUER not set, accepting HS256 tokens signed with JWT_SECRET")
	}

	orderHandler := order_api.NewHandler(orderService, log)
	sseHandler := order_api.NewSSEHandler(log, emitter)
	menuHandler := menu_api.NewHandler(menuService, log)
	screenHandler := screen_api.NewHandler(screenService, log)
	sessionHandler := tablesession_api.NewHandler(sessionService, log)
	salesHandler := analytics_api.NewHandler(salesService, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if err := bunDB.PingContext(r.Context()); err != nil {
			status, code = "database unavailable", http.StatusServiceUnavailable
		}
		utils.WriteJSON(w, code, map[string]string{"status": status, "instance": origin})
	})

	r.Route("/api", func(r chi.Router) {
		// --- Public Routes ---
		menuHandler.RegisterPublic(r)
		orderHandler.RegisterPublic(r)
		sessionHandler.RegisterPublic(r)
		log.Info("ROUTER", "Public menu, order and table session routes registered under /api")

		// --- Staff Routes ---
		r.Route("/staff", func(r chi.Router) {
			r.Use(auth.Middleware(tokens, log))
			r.Use(rbac.Middleware(resolver, log))

			orderHandler.RegisterStaff(r)
			menuHandler.RegisterStaff(r)
			screenHandler.RegisterStaff(r)
			sessionHandler.RegisterStaff(r)
			salesHandler.RegisterStaff(r)
			r.Get("/branches/{branchID}/events", sseHandler.HandleBranchEvents)
			log.Info("ROUTER", "Staff routes registered under /api/staff")
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
		log.Info("HTTP", fmt.Sprintf("Ordering service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Ordering service shutdown complete")
	}
}
