package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/treepeck/forumws/internal/auth"
	"github.com/treepeck/forumws/internal/env"
	"github.com/treepeck/forumws/internal/metrics"
	"github.com/treepeck/forumws/internal/mq"
	"github.com/treepeck/forumws/internal/store"
	"github.com/treepeck/forumws/internal/ws"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "forumws: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := env.Load(".env")
	if err != nil {
		return err
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	registry := ws.NewRegistry(m, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	var relay *mq.Relay
	if cfg.RabbitMQURL != "" {
		d, err := mq.Dial(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer d.Release()

		relay, err = mq.NewRelay(d, uuid.NewString(), log)
		if err != nil {
			return err
		}
		registry.UseRelay(relay)

		g.Go(func() error {
			return relay.Consume(ctx, registry.Deliver)
		})
		log.Info("relaying broadcasts through RabbitMQ")
	}

	srv := ws.NewServer(
		registry,
		store.NewBridge(db, cfg.MaxInflightWrites, cfg.PersistTimeout, log),
		authenticators(cfg, log),
		ws.Options{
			SendBuffer:     cfg.SendBuffer,
			WriteWait:      cfg.WriteWait,
			PongWait:       cfg.PongWait,
			MaxMessageSize: cfg.MaxMessageSize,
		},
		m,
		log,
	)

	router := mux.NewRouter()
	srv.Routes(router)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		log.Info("listening", "addr", cfg.Addr)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("cannot serve: %w", err)
		}
		return nil
	})

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http": func(ctx context.Context) error {
				// Hijacked WebSocket connections are not tracked by the server.
				err := httpSrv.Shutdown(ctx)
				registry.CloseAll()
				return err
			},
			"relay": func(context.Context) error {
				cancel()
				if relay == nil {
					return nil
				}
				return relay.Close()
			},
		},
	)

	failed := make(chan error, 1)
	go func() { failed <- g.Wait() }()

	select {
	case code := <-wait:
		cancel()
		if err := <-failed; err != nil {
			log.Warn("component stopped with error", "error", err)
		}
		if code != 0 {
			return fmt.Errorf("shutdown completed with exit code %d", code)
		}
		log.Info("shutdown completed")
		return nil

	case err := <-failed:
		if err != nil {
			return err
		}
		return errors.New("server stopped unexpectedly")
	}
}

// authenticators builds the chain of the configured authenticators.
func authenticators(cfg env.Config, log *slog.Logger) auth.Chain {
	var chain auth.Chain
	if cfg.JWTSecret != "" {
		chain = append(chain, auth.NewJWT(cfg.JWTSecret, log))
	}
	if cfg.AuthURL != "" {
		chain = append(chain, auth.NewRemote(cfg.AuthURL, log))
	}
	if len(chain) == 0 {
		log.Warn("no authenticator configured, every caller is anonymous")
	}
	return chain
}
