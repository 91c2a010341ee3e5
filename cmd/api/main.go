package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/Pedro-J-Kukul/chatrelay/internal/cache"
	"github.com/Pedro-J-Kukul/chatrelay/internal/conversation"
	"github.com/Pedro-J-Kukul/chatrelay/internal/data"
	"github.com/Pedro-J-Kukul/chatrelay/internal/dialog"
	"github.com/Pedro-J-Kukul/chatrelay/internal/mailer"
	"github.com/Pedro-J-Kukul/chatrelay/internal/personality"
	"github.com/Pedro-J-Kukul/chatrelay/internal/sheets"
	"github.com/Pedro-J-Kukul/chatrelay/internal/timeline"
	"github.com/Pedro-J-Kukul/chatrelay/internal/tone"
)

const version = "v1.0.0"

// upstream service credentials
type service struct {
	url      string
	username string
	password string
}

// Server configuration settings
type config struct {
	port            int
	env             string
	workspaceID     string
	upstreamTimeout time.Duration
	dialog          service
	tone            service
	personality     service
	twitter         struct {
		url    string
		key    string
		secret string
		count  int
	}
	logs struct {
		dsn      string
		user     string
		password string
	}
	redis struct {
		addr     string
		password string
		db       int
		ttl      time.Duration
	}
	sheets struct {
		credentials   string
		spreadsheetID string
	}
	smtp struct {
		host     string
		port     int
		username string
		password string
		sender   string
	}
	cors struct {
		trustedOrigins []string
	}
	rateLimit struct {
		rps     float64
		burst   int
		enabled bool
	}
}

type app struct {
	config        config
	logger        *slog.Logger
	relay         *conversation.Relay
	logs          data.LogStore
	logPassHash   []byte
	profiles      *cache.ProfileCache
	sheetsService *sheets.Service
	mailer        *mailer.Mailer
}

func main() {
	// a missing .env file is fine, the environment may already be set
	_ = godotenv.Load()

	cfg := loadConfig()

	logger := setupLogger(cfg)

	app, cleanup, err := newApp(cfg, logger)
	if err != nil {
		logger.Error("Error initialising application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	err = app.serve()
	if err != nil {
		logger.Error("Error starting server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func loadConfig() config {
	var cfg config

	flag.IntVar(&cfg.port, "port", envInt("PORT", 3000), "API server port")
	flag.StringVar(&cfg.env, "env", envString("ENV", "development"), "Environment (development|staging|production)")
	flag.StringVar(&cfg.workspaceID, "workspace-id", envString("WORKSPACE_ID", ""), "Dialog workspace id")
	flag.DurationVar(&cfg.upstreamTimeout, "upstream-timeout", envDuration("UPSTREAM_TIMEOUT", conversation.DefaultTimeout), "Timeout for one conversation turn")

	flag.StringVar(&cfg.dialog.url, "dialog-url", envString("DIALOG_URL", ""), "Dialog service URL")
	flag.StringVar(&cfg.dialog.username, "dialog-username", envString("DIALOG_USERNAME", ""), "Dialog service username")
	flag.StringVar(&cfg.dialog.password, "dialog-password", envString("DIALOG_PASSWORD", ""), "Dialog service password")

	flag.StringVar(&cfg.tone.url, "tone-url", envString("TONE_URL", ""), "Tone service URL")
	flag.StringVar(&cfg.tone.username, "tone-username", envString("TONE_USERNAME", ""), "Tone service username")
	flag.StringVar(&cfg.tone.password, "tone-password", envString("TONE_PASSWORD", ""), "Tone service password")

	flag.StringVar(&cfg.personality.url, "personality-url", envString("PERSONALITY_URL", ""), "Personality service URL")
	flag.StringVar(&cfg.personality.username, "personality-username", envString("PERSONALITY_USERNAME", ""), "Personality service username")
	flag.StringVar(&cfg.personality.password, "personality-password", envString("PERSONALITY_PASSWORD", ""), "Personality service password")

	flag.StringVar(&cfg.twitter.url, "twitter-url", envString("TWITTER_URL", "https://api.twitter.com"), "Timeline API URL")
	flag.StringVar(&cfg.twitter.key, "twitter-key", envString("TWITTER_CONSUMER_KEY", ""), "Timeline API consumer key")
	flag.StringVar(&cfg.twitter.secret, "twitter-secret", envString("TWITTER_CONSUMER_SECRET", ""), "Timeline API consumer secret")
	flag.IntVar(&cfg.twitter.count, "timeline-count", envInt("TIMELINE_COUNT", conversation.DefaultTimelineCount), "Posts fetched per personality profile")

	flag.StringVar(&cfg.logs.dsn, "log-dsn", envString("LOG_DSN", ""), "Conversation log store (postgres://... or sqlite:<path>)")
	flag.StringVar(&cfg.logs.user, "log-user", envString("LOG_USER", ""), "Username for the log endpoints")
	flag.StringVar(&cfg.logs.password, "log-pass", envString("LOG_PASS", ""), "Password for the log endpoints")

	flag.StringVar(&cfg.redis.addr, "redis-addr", envString("REDIS_ADDR", ""), "Redis address for the personality cache")
	flag.StringVar(&cfg.redis.password, "redis-password", envString("REDIS_PASSWORD", ""), "Redis password")
	flag.IntVar(&cfg.redis.db, "redis-db", envInt("REDIS_DB", 0), "Redis database")
	flag.DurationVar(&cfg.redis.ttl, "personality-cache-ttl", envDuration("PERSONALITY_CACHE_TTL", 24*time.Hour), "Personality cache entry lifetime")

	flag.StringVar(&cfg.sheets.credentials, "sheets-credentials", envString("SHEETS_CREDENTIALS", ""), "Google service account key file")
	flag.StringVar(&cfg.sheets.spreadsheetID, "sheets-spreadsheet-id", envString("SHEETS_SPREADSHEET_ID", ""), "Spreadsheet receiving log exports")

	flag.StringVar(&cfg.smtp.host, "smtp-host", envString("SMTP_HOST", ""), "SMTP host")
	flag.IntVar(&cfg.smtp.port, "smtp-port", envInt("SMTP_PORT", 587), "SMTP port")
	flag.StringVar(&cfg.smtp.username, "smtp-username", envString("SMTP_USERNAME", ""), "SMTP username")
	flag.StringVar(&cfg.smtp.password, "smtp-password", envString("SMTP_PASSWORD", ""), "SMTP password")
	flag.StringVar(&cfg.smtp.sender, "smtp-sender", envString("SMTP_SENDER", "Chat Relay <no-reply@chatrelay.local>"), "SMTP sender")

	flag.Float64Var(&cfg.rateLimit.rps, "rate-limit-rps", 5, "Requests per second")
	flag.IntVar(&cfg.rateLimit.burst, "rate-limit-burst", 10, "Burst limit")
	flag.BoolVar(&cfg.rateLimit.enabled, "rate-limit-enabled", false, "Enable rate limiting")

	flag.Func("cors-trusted-origins", "Trusted CORS origins (space separated)", func(val string) error {
		cfg.cors.trustedOrigins = append(cfg.cors.trustedOrigins, strings.Fields(val)...)
		return nil
	})
	flag.Parse()

	return cfg
}

func setupLogger(cfg config) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	// Output loaded configuration settings
	logger.Info("Starting server",
		slog.String("version", version),
		slog.String("env", cfg.env),
		slog.Int("port", cfg.port),
		slog.Bool("workspaceConfigured", cfg.workspaceID != ""),
		slog.Duration("upstreamTimeout", cfg.upstreamTimeout),
		slog.Bool("loggingEnabled", cfg.logs.dsn != ""),
		slog.Bool("personalityCache", cfg.redis.addr != ""),
		slog.Float64("rateLimitRPS", cfg.rateLimit.rps),
		slog.Int("rateLimitBurst", cfg.rateLimit.burst),
		slog.Bool("rateLimitEnabled", cfg.rateLimit.enabled),
	)

	return logger
}

// newApp builds every client from cfg. The returned cleanup closes the
// connections that were opened.
func newApp(cfg config, logger *slog.Logger) (*app, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	annotator := &conversation.Annotator{
		Tone:          tone.New(cfg.tone.url, cfg.tone.username, cfg.tone.password, cfg.upstreamTimeout),
		TimelineCount: cfg.twitter.count,
		Logger:        logger,
	}
	if cfg.personality.url != "" && cfg.twitter.key != "" {
		annotator.Personality = personality.New(cfg.personality.url, cfg.personality.username, cfg.personality.password, cfg.upstreamTimeout)
		annotator.Timeline = timeline.New(timeline.Config{
			BaseURL:        cfg.twitter.url,
			ConsumerKey:    cfg.twitter.key,
			ConsumerSecret: cfg.twitter.secret,
			Timeout:        cfg.upstreamTimeout,
		})
	}

	a := &app{
		config: cfg,
		logger: logger,
		relay: &conversation.Relay{
			Dialog:      dialog.New(cfg.dialog.url, cfg.dialog.username, cfg.dialog.password, cfg.upstreamTimeout),
			Annotator:   annotator,
			WorkspaceID: cfg.workspaceID,
			Timeout:     cfg.upstreamTimeout,
			Logger:      logger,
		},
	}

	if cfg.redis.addr != "" {
		rdb, err := cache.NewRedisClient(cfg.redis.addr, cfg.redis.password, cfg.redis.db)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { rdb.Close() })
		a.profiles = cache.NewProfileCache(rdb, cfg.redis.ttl)
		annotator.Cache = a.profiles
		logger.Info("Personality cache connected", slog.String("addr", cfg.redis.addr))
	}

	if cfg.logs.dsn != "" {
		if cfg.logs.user == "" || cfg.logs.password == "" {
			cleanup()
			return nil, nil, errors.New("LOG_USER and LOG_PASS must be set when conversation logging is enabled")
		}

		store, err := openLogStore(cfg.logs.dsn)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { store.Close() })

		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.logs.password), 12)
		if err != nil {
			cleanup()
			return nil, nil, err
		}

		a.logs = store
		a.logPassHash = hash
		a.relay.Logs = store
		logger.Info("Conversation log store ready")
	}

	if cfg.sheets.credentials != "" {
		client, err := sheets.NewClient(sheets.Config{
			ServiceAccountKeyPath: cfg.sheets.credentials,
			SpreadsheetID:         cfg.sheets.spreadsheetID,
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		a.sheetsService = sheets.NewService(client)
	}

	if cfg.smtp.host != "" {
		a.mailer = mailer.New(cfg.smtp.host, cfg.smtp.port, cfg.smtp.username, cfg.smtp.password, cfg.smtp.sender)
	}

	return a, cleanup, nil
}

// openLogStore picks the log backend from the DSN scheme and makes sure its table exists.
func openLogStore(dsn string) (data.LogStore, error) {
	var (
		driver string
		source string
	)
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		driver, source = "postgres", dsn
	case strings.HasPrefix(dsn, "sqlite:"):
		driver, source = "sqlite", strings.TrimPrefix(dsn, "sqlite:")
	default:
		return nil, fmt.Errorf("%w: %q", data.ErrUnsupportedDriver, dsn)
	}

	db, err := openDB(driver, source)
	if err != nil {
		return nil, err
	}

	var store data.LogStore
	if driver == "postgres" {
		store = &data.PostgresLogModel{DB: db}
	} else {
		// one writer at a time
		db.SetMaxOpenConns(1)
		store = &data.SQLiteLogModel{DB: db}
	}

	if err := store.Init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func openDB(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
