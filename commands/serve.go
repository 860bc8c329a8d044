package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"

	"go-buildmart/cache"
	"go-buildmart/events"
	"go-buildmart/logger"
	"go-buildmart/middleware"
	"go-buildmart/repository"
	"go-buildmart/routes"
	"go-buildmart/utils"
)

var serveMemory bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveMemory, "memory", false, "use an in-memory store seeded with sample data instead of MongoDB")
}

// openStore connects to MongoDB, or builds a seeded in-memory store.
func openStore(ctx context.Context) (*repository.Store, func(), error) {
	if serveMemory {
		store, _ := repository.NewMemoryStore()
		if err := seed(ctx, store, "admin@buildmart.local", "admin123"); err != nil {
			return nil, nil, err
		}
		logger.L.Warn("serving from the in-memory store; data is lost on exit")
		return store, func() {}, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := utils.ConnectDB(cctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, err
	}
	// the catalog can fall back to sample data, so a failed ping is not fatal
	if err := utils.PingDB(cctx, client); err != nil {
		logger.L.Error("mongodb is not reachable", "error", err)
	}
	db := client.Database(cfg.MongoDatabase)
	if err := repository.EnsureIndexes(cctx, db); err != nil {
		logger.L.Warn("ensure indexes", "error", err)
	}
	closeFn := func() {
		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dcancel()
		if err := client.Disconnect(dctx); err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
			logger.L.Error("disconnect mongodb", "error", err)
		}
	}
	return repository.NewMongoStore(client, db), closeFn, nil
}

func serve(ctx context.Context) error {
	store, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	deps := routes.Deps{
		Store:           store,
		CORSOrigins:     cfg.CORSOrigins,
		NotificationTTL: cfg.NotificationTTL,
	}

	if cfg.RedisAddr != "" {
		c, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.CacheTTL)
		if err != nil {
			logger.L.Warn("redis unavailable, caching disabled", "error", err)
		} else {
			defer c.Close()
			deps.Cache = c
		}
	}
	if cfg.RateLimit > 0 {
		if rdb := deps.Cache.Client(); rdb != nil {
			deps.Limiter = middleware.NewRedisLimiter(rdb, cfg.RateLimit, time.Minute)
		} else {
			deps.Limiter = middleware.NewMemoryLimiter(cfg.RateLimit, time.Minute)
		}
	}

	if cfg.RabbitURL != "" {
		pub, err := events.NewAMQPPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			logger.L.Warn("rabbitmq unavailable, events are logged only", "error", err)
		} else {
			defer pub.Close()
			deps.Publisher = pub
		}
	}

	token := cfg.PostmarkAPIToken
	if cfg.MailDriver == "sendgrid" {
		token = cfg.SendgridAPIKey
	}
	mail, err := utils.NewEmailService(cfg.MailDriver, token, cfg.EmailSender, cfg.ContactInbox)
	if err != nil {
		return fmt.Errorf("mail: %w", err)
	}
	deps.Mail = mail

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.New(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L.Info("server listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.L.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}
