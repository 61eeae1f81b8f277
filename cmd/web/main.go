package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"caresync/internal/apiclient"
	"caresync/internal/clinician"
	"caresync/internal/config"
	"caresync/internal/intake"
	"caresync/internal/logger"
	"caresync/internal/session"
	"caresync/internal/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.LoadWeb(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.L().Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.Log.ServiceName == "" {
		cfg.Log.ServiceName = "caresync-web"
	}
	logger.Init(cfg.Log)
	log := logger.L()
	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file, using process environment")
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		log.Warn().Err(err).Str("tz", cfg.TimeZone).Msg("unknown time zone, using local time")
		loc = time.Local
	}

	var store session.Store
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("failed to reach redis")
		}
		store = session.NewRedisStore(rdb, cfg.Redis.TTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis session store")
	} else {
		store = session.NewMemoryStore()
		log.Warn().Msg("REDIS_ADDR not set, sessions are kept in memory")
	}

	api := apiclient.New(cfg.APIBaseURL, cfg.RequestTimeout)
	ctrl := session.NewController(api, store, session.WithLocation(loc))

	srv, err := web.NewServer(ctrl, clinician.NewReviewer(api), intake.New(), api, web.Options{
		CookieName: cfg.CookieName,
		CookieTTL:  cfg.Redis.TTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct web server")
	}

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", httpSrv.Addr).Str("api", cfg.APIBaseURL).Msg("dashboard listening")
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
