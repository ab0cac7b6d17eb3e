package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/wasycim/cargo-notify/internal/api"
	"github.com/wasycim/cargo-notify/internal/cache"
	"github.com/wasycim/cargo-notify/internal/config"
	"github.com/wasycim/cargo-notify/internal/directory"
	"github.com/wasycim/cargo-notify/internal/dispatch"
	"github.com/wasycim/cargo-notify/internal/queue"
	"github.com/wasycim/cargo-notify/internal/scheduler"
	"github.com/wasycim/cargo-notify/internal/service"
	"github.com/wasycim/cargo-notify/internal/sms"
	"github.com/wasycim/cargo-notify/internal/verification"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open("pgx", cfg.Database.PostgresURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	q := queue.NewPostgresQueue(db)
	codes := verification.NewPostgresStore(db, cfg.Verification.TTL)
	dir := directory.NewPostgresDirectory(db)

	notifier := service.NewNotifier(q, codes, dir)
	if cfg.SMS.Configured {
		notifier.WithTransport(sms.NewTwilioClient(
			cfg.SMS.AccountSID,
			cfg.SMS.AuthToken,
			cfg.SMS.FromNumber,
			cfg.SMS.APIBaseURL,
		))
	}

	var sched *scheduler.Scheduler
	if cfg.Dispatcher.Enabled {
		d := dispatch.NewDispatcher(
			q,
			dispatch.NewGatewayClient(cfg.Dispatcher.GatewayURL),
			cfg.Dispatcher.BranchCode,
			cfg.Dispatcher.BatchSize,
		)
		if cfg.Redis.Enabled {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Address,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			d.WithReceiptCache(cache.NewRedisCache(rdb, cfg.Redis.TTL))
		}

		sched, err = scheduler.New(cfg.Dispatcher.Interval, func(ctx context.Context) {
			d.Tick(ctx)
		})
		if err != nil {
			log.Fatal(err)
		}
		sched.Start()
	}

	handler := loggingMiddleware(api.Router(api.NewHandler(notifier, q, sched)))

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: handler,
	}

	go func() {
		slog.Info("cargo-notify listening",
			"addr", cfg.Server.Address,
			"sms_configured", cfg.SMS.Configured,
			"dispatcher", cfg.Dispatcher.Enabled,
			"redis", cfg.Redis.Enabled,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
