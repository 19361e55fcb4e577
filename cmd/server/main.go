package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"campanile/api/internal/attendance"
	"campanile/api/internal/config"
	"campanile/api/internal/db"
	"campanile/api/internal/directory"
	internalhttp "campanile/api/internal/http"
	"campanile/api/internal/jobs"
	"campanile/api/internal/session"
	"campanile/api/internal/token"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()

	accounts := directory.NewPostgresStore(pool)
	exceptions := attendance.NewRepository(pool)

	var sessionStore session.Store
	var pgSessions *session.PostgresStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatalf("redis ping failed: %v", err)
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("redis close error: %v", err)
			}
		}()
		sessionStore = session.NewRedisStore(redisClient)
	} else {
		pgSessions = session.NewPostgresStore(pool)
		sessionStore = pgSessions
	}

	sessions := session.NewManager(accounts, sessionStore, cfg.SessionTTL)
	tokens := token.NewManager(accounts, cfg.TokenSecret, cfg.TokenIssuer, cfg.TokenTTL)

	server := internalhttp.NewServer(cfg, sessions, tokens, exceptions)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	jobs.StartSessionSweepJob(ctx, cfg, pgSessions)

	go func() {
		log.Printf("api http listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
