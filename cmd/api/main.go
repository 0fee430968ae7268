package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pesaflow/internal/alerts"
	"pesaflow/internal/cache"
	"pesaflow/internal/db"
	"pesaflow/internal/express"
	"pesaflow/internal/mpesa"
	"pesaflow/internal/ratelimiter"
	"pesaflow/internal/store"
)

var version = "1.0.0"

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	core := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), zapcore.InfoLevel)

	return zap.New(core).Sugar(), nil
}

func envString(key, fallback string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
		fmt.Println("Invalid", key, "- defaulting to", fallback)
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
		fmt.Println("Invalid", key, "- defaulting to", fallback)
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if val, exists := os.LookupEnv(key); exists {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		fmt.Println("Invalid", key, "- defaulting to", fallback)
	}
	return fallback
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded:", err)
	}

	cfg := config{
		addr:   envString("ADDR", ":8080"),
		env:    envString("ENV", "development"),
		apiURL: envString("EXTERNAL_URL", "localhost:8080"),
		db: dbConfig{
			addr:        os.Getenv("DB_ADDR"),
			maxConns:    int32(envInt("DB_MAX_CONNS", 30)),
			maxIdleTime: envString("DB_MAX_IDLE_TIME", "15m"),
		},
		redis: redisConfig{
			addr:     envString("REDIS_ADDR", "localhost:6379"),
			password: os.Getenv("REDIS_PASSWORD"),
			db:       envInt("REDIS_DB", 0),
		},
		mpesa: mpesaConfig{
			baseURL:         envString("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke"),
			consumerKey:     os.Getenv("MPESA_CONSUMER_KEY"),
			consumerSecret:  os.Getenv("MPESA_CONSUMER_SECRET"),
			shortcode:       envString("MPESA_SHORTCODE", "174379"),
			passkey:         os.Getenv("MPESA_PASSKEY"),
			callbackURL:     os.Getenv("MPESA_CALLBACK_URL"),
			transactionType: envString("MPESA_TRANSACTION_TYPE", "CustomerPayBillOnline"),
			transactionDesc: envString("MPESA_TRANSACTION_DESC", "pesaflow payment"),
			pendingTTL:      envDuration("PENDING_TTL", cache.DefaultTTL),
		},
		alerts: alertsConfig{
			enabled:   envBool("ALERTS_ENABLED", false),
			smtpHost:  os.Getenv("ALERTS_SMTP_HOST"),
			smtpPort:  envInt("ALERTS_SMTP_PORT", 587),
			smtpUser:  os.Getenv("ALERTS_SMTP_USER"),
			smtpPass:  os.Getenv("ALERTS_SMTP_PASS"),
			fromEmail: os.Getenv("ALERTS_FROM_EMAIL"),
			toEmail:   os.Getenv("ALERTS_TO_EMAIL"),
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
		},
		rateLimiter: ratelimiter.Config{
			RequestsPerTimeFrame: envInt("RATELIMITER_REQUESTS_COUNT", 200),
			TimeFrame:            5 * time.Second,
			Enabled:              envBool("RATE_LIMITER_ENABLED", false),
		},
	}

	// Logger
	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	// Database
	pool, err := db.New(
		cfg.db.addr,
		cfg.db.maxConns,
		cfg.db.maxIdleTime,
	)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	// Storage
	storage := store.NewStorage(pool)

	// Redis pending-request store
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	redisClient, err := cache.NewRedisClient(ctx, cfg.redis.addr, cfg.redis.password, cfg.redis.db)
	cancel()
	if err != nil {
		logger.Fatal(err)
	}
	defer redisClient.Close()
	logger.Info("redis connection established")

	pendingStore := cache.NewRedisPendingStore(redisClient)

	// Gateway client and token provider
	tokens := mpesa.NewOAuthTokenProvider(cfg.mpesa.baseURL, cfg.mpesa.consumerKey, cfg.mpesa.consumerSecret)
	gateway := mpesa.NewClient(cfg.mpesa.baseURL)

	// Ops alerting
	var notifier alerts.Notifier = alerts.Noop{}
	if cfg.alerts.enabled {
		notifier = alerts.NewSMTPNotifier(
			cfg.alerts.smtpHost,
			cfg.alerts.smtpPort,
			cfg.alerts.smtpUser,
			cfg.alerts.smtpPass,
			cfg.alerts.fromEmail,
			cfg.alerts.toEmail,
		)
	}

	// Reconciliation engine
	engine := express.NewService(
		express.Config{
			Shortcode:       cfg.mpesa.shortcode,
			Passkey:         cfg.mpesa.passkey,
			CallbackURL:     cfg.mpesa.callbackURL,
			TransactionType: cfg.mpesa.transactionType,
			TransactionDesc: cfg.mpesa.transactionDesc,
			PendingTTL:      cfg.mpesa.pendingTTL,
		},
		tokens,
		gateway,
		pendingStore,
		storage.Transactions,
		notifier,
		logger,
	)

	// Rate limiter
	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)

	app := &application{
		config:      cfg,
		engine:      engine,
		store:       storage,
		logger:      logger,
		rateLimiter: rateLimiter,
	}

	// Metrics collected at /v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		stat := pool.Stat()
		return map[string]any{
			"total_conns":    stat.TotalConns(),
			"idle_conns":     stat.IdleConns(),
			"acquired_conns": stat.AcquiredConns(),
		}
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
