package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/finance/internal/config"
	"github.com/klokku/finance/internal/database"
	"github.com/klokku/finance/pkg/notification"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Application wires configuration, database, router, and server lifecycle.
type Application struct {
	cfg      config.Application
	db       *pgxpool.Pool
	natsConn *nats.Conn
	deps     *Dependencies
	srv      *http.Server
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication() (*Application, error) {
	cfg, err := config.Load("./config/application.yaml")
	if err != nil {
		return nil, err
	}

	// DB + migrations
	db, err := database.Open(context.Background(), cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(cfg.Database); err != nil {
		db.Close()
		return nil, err
	}

	var natsConn *nats.Conn
	var publisher notification.Publisher
	if cfg.Nats.Enabled {
		natsConn, err = notification.ConnectNats(cfg.Nats)
		if err != nil {
			db.Close()
			return nil, err
		}
		publisher = natsConn
	}

	deps := BuildDependencies(db, cfg, publisher)
	r, err := NewRouter(deps, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	srv := &http.Server{
		Handler:      r,
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, db: db, natsConn: natsConn, deps: deps, srv: srv}, nil
}

// NewRouter builds the router with middlewares and all API routes.
func NewRouter(deps *Dependencies, cfg config.Application) (*mux.Router, error) {
	r := mux.NewRouter()
	if err := SetupMiddleware(r, deps, cfg); err != nil {
		return nil, err
	}
	RegisterRoutes(r, deps)
	return r, nil
}

// Run starts the scheduler and the HTTP server and blocks until the process
// is interrupted or the server fails.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.Scheduler.Enabled {
		if err := a.deps.Scheduler.Start(ctx); err != nil {
			a.db.Close()
			return err
		}
	} else {
		log.Info("Recurring transaction scheduler disabled")
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", a.srv.Addr)
		serverErr <- a.srv.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case <-ctx.Done():
		log.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server shutdown failed: %v", err)
	}
	a.deps.Scheduler.Stop()
	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			log.Warnf("failed to drain NATS connection: %v", err)
		}
	}
	a.db.Close()
	return runErr
}
