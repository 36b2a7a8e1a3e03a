package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpclib "google.golang.org/grpc"

	"github.com/parthbtw/WealthNest-Hackathon/internal/adapter/cooldown"
	"github.com/parthbtw/WealthNest-Hackathon/internal/adapter/events"
	grpcadapter "github.com/parthbtw/WealthNest-Hackathon/internal/adapter/grpc"
	"github.com/parthbtw/WealthNest-Hackathon/internal/adapter/health"
	"github.com/parthbtw/WealthNest-Hackathon/internal/adapter/repository/memory"
	"github.com/parthbtw/WealthNest-Hackathon/internal/adapter/repository/postgres"
	"github.com/parthbtw/WealthNest-Hackathon/internal/config"
	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
	"github.com/parthbtw/WealthNest-Hackathon/internal/logger"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/account"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/dashboard"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/goal"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/ledger"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/transfer"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()

	// 1. Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var checks []health.Check

	// 2. Setup Store
	var store domain.Store
	switch cfg.Store {
	case config.StoreMemory:
		store = memory.NewStore()
		logger.Warn("using in-memory store; balances are lost on restart", nil)
	default:
		db, err := postgres.NewDB(cfg.DatabaseDSN())
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}

		store = postgres.NewStore(db)
		checks = append(checks, health.Check{Name: "database", Probe: db.PingContext})
	}

	// 3. Setup incentive cooldown (disabled without Redis)
	var incentiveCooldown domain.IncentiveCooldown
	if cfg.RedisURL != "" {
		redisClient, err := cooldown.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()

		incentiveCooldown = cooldown.NewRedisCooldown(redisClient, cooldown.DefaultPrefix, cfg.IncentiveCooldown)
		checks = append(checks, health.Check{Name: "redis", Probe: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	} else {
		logger.Warn("REDIS_URL not set; parking incentive cooldown disabled", nil)
	}

	// 4. Setup event publisher (no-op fallback when RabbitMQ is unavailable)
	var publisher domain.EventPublisher = events.Fallback{}
	if cfg.RabbitMQURL != "" {
		producer, err := events.NewPublisher(cfg.RabbitMQURL, cfg.EventsExchange)
		if err != nil {
			logger.Error("rabbitmq unavailable, using fallback publisher", err, nil)
		} else {
			defer producer.Close()
			publisher = producer
		}
	}

	// 5. Initialize Services (Use Cases)
	accountService := account.NewAccountService(store)
	ledgerService := ledger.NewLedgerService(store, publisher, incentiveCooldown)
	transferService := transfer.NewTransferService(store, publisher)
	goalService := goal.NewGoalService(store, publisher)
	dashboardService := dashboard.NewDashboardService(store)

	// 6. Start gRPC Server
	grpcAdapter := grpcadapter.NewServer(accountService, ledgerService, transferService, goalService, dashboardService)
	grpcServer := grpcadapter.NewGRPCServer(grpcAdapter, []byte(cfg.JWTSecret))

	grpcAddr := ":" + cfg.GRPCPort
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", grpcAddr, err)
	}

	go func() {
		logger.Info("gRPC server listening", logger.Fields{"addr": grpcAddr})
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("Failed to serve gRPC server: %v", err)
		}
	}()

	// 7. Start health server
	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           health.NewRouter(cfg.CORSAllowedOrigins, checks...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("health server listening", logger.Fields{"addr": httpServer.Addr})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve health server: %v", err)
		}
	}()

	// Graceful shutdown
	waitForShutdown(grpcServer, httpServer)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down both servers
func waitForShutdown(grpcServer *grpclib.Server, httpServer *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal: %v. Shutting down gracefully...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("health server shutdown failed", err, nil)
	}

	grpcServer.GracefulStop()
	log.Println("gRPC server stopped")
}
