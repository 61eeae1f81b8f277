package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"caresync/internal/config"
	"caresync/internal/core"
	"caresync/internal/db"
	httpserver "caresync/internal/http"
	"caresync/internal/llm"
	"caresync/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.LoadAPI(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.L().Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.Log.ServiceName == "" {
		cfg.Log.ServiceName = "caresync-api"
	}
	logger.Init(cfg.Log)
	log := logger.L()
	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file, using process environment")
	}

	broker := db.NewBroker()
	var (
		store     db.Store
		publisher httpserver.Publisher = broker
	)
	if cfg.Database.URL != "" {
		conn, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open database")
		}
		defer conn.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = conn.PingContext(pingCtx)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		if err := db.Migrate(ctx, conn); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		store = db.NewRepository(conn)

		notifier := db.NewNotifier(conn, cfg.Database.URL, cfg.Database.NotifyChannel)
		publisher = notifier
		go func() {
			if err := notifier.Relay(ctx, broker); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("event relay stopped")
			}
		}()
		log.Info().Str("channel", cfg.Database.NotifyChannel).Msg("using postgres store")
	} else {
		store = db.NewMemoryStore()
		log.Warn().Msg("DATABASE_URL not set, using in-memory store")
	}

	var model llm.Client
	if cfg.OpenAI.APIKey != "" {
		model = llm.NewOpenAIClient(cfg.OpenAI)
		log.Info().Str("model", cfg.OpenAI.Model).Msg("language model configured")
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, answers fall back to a fixed reply")
	}

	srv := httpserver.NewServer(store, core.NewAnswerService(model), publisher, broker, httpserver.Options{
		AllowedOrigins: cfg.AllowedOrigins,
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", httpSrv.Addr).Msg("api listening")
	if err := runServer(ctx, httpSrv, cfg.ShutdownGrace); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		return err
	}
}
