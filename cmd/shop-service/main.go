package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"

	"github.com/simvol2030/project-kliee-sub000/internal/cache"
	h "github.com/simvol2030/project-kliee-sub000/internal/http"
	"github.com/simvol2030/project-kliee-sub000/internal/notify"
	"github.com/simvol2030/project-kliee-sub000/internal/repository"
	"github.com/simvol2030/project-kliee-sub000/internal/service"
)

type Config struct {
	HTTPPort        string        `env:"HTTP_PORT" envDefault:"8080"`
	DBPath          string        `env:"DB_PATH" envDefault:"shop.db"`
	MigrationsPath  string        `env:"MIGRATIONS_PATH" envDefault:"migrations"`
	RedisAddr       string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`

	SecureCookie bool   `env:"COOKIE_SECURE" envDefault:"false"`
	AdminAPIKey  string `env:"ADMIN_API_KEY"`

	RateLimit       int           `env:"RATE_LIMIT" envDefault:"60"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	FromEmail      string `env:"FROM_EMAIL" envDefault:"noreply@k-liee.com"`
	FromName       string `env:"FROM_NAME"`
	AdminEmail     string `env:"ADMIN_EMAIL"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `env:"TELEGRAM_CHAT_ID"`
}

func main() {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	repo, err := repository.NewRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open repository: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	cartCache := cache.NewRedisCache(redisClient)

	cartService := service.NewCartService(repo, cartCache)
	currencyService := service.NewCurrencyService(repo)

	dispatcher := notify.NewDispatcher(
		notify.NewSendGridEmail(notify.EmailConfig{
			APIKey:     cfg.SendGridAPIKey,
			FromEmail:  cfg.FromEmail,
			FromName:   cfg.FromName,
			AdminEmail: cfg.AdminEmail,
		}),
		notify.NewTelegram(notify.TelegramConfig{
			BotToken: cfg.TelegramBotToken,
			ChatID:   cfg.TelegramChatID,
		}),
	)

	orderService := service.NewOrderService(repo, currencyService, dispatcher, cartCache)

	limiter := h.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow)
	defer limiter.Close()

	router := h.NewRouter(h.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		SecureCookie:   cfg.SecureCookie,
		AdminKey:       cfg.AdminAPIKey,
		RateLimiter:    limiter,
		Sessions:       repo,
		Cart:           cartService,
		Orders:         orderService,
		Catalog:        repo,
		Rates:          repo,
	})

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	sweeper := service.NewSessionSweeper(repo, cfg.SweepInterval)
	go sweeper.Run(sweepCtx)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("shop service listening on :%s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
}
