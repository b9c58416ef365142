// Package app wires the relay's components together and owns their
// lifecycle.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"cardrelay/pkg/api"
	"cardrelay/pkg/banner"
	"cardrelay/pkg/config"
	"cardrelay/pkg/feedback"
	"cardrelay/pkg/ingest"
	"cardrelay/pkg/lark"
	"cardrelay/pkg/logger"
	"cardrelay/pkg/maintenance"
	"cardrelay/pkg/store"
)

// App encapsulates the relay components and lifecycle.
type App struct {
	cfg     *config.Config
	addr    string
	dbPath  string
	version string

	dispatcher *api.Dispatcher
	fanout     *ingest.Fanout
	queue      *ingest.Queue

	srv *http.Server
}

// New validates the effective config and initializes resources that do
// not require a running context (store, clients, queue). Call Run to
// start workers and the HTTP server.
func New(cfg *config.Config, addr, dbPath, version string) (*App, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	if err := store.Open(dbPath); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", dbPath, err)
	}

	baseURL := cfg.Lark.BaseURL
	if baseURL == "" {
		baseURL = lark.DefaultBaseURL
	}
	messenger := lark.NewClient(cfg.Lark.AppID, cfg.Lark.AppSecret, baseURL)

	forwarder := feedback.NewForwarder(feedback.NewHTTPInvoker(cfg.Downstream.FeedbackURL))

	queue := ingest.NewQueue(cfg.Queue.Capacity)
	publisher := ingest.NewHTTPPublisher(cfg.Downstream.TopicURL)
	fanout := ingest.NewFanout(queue, publisher, messenger)

	welcome := cfg.Lark.WelcomeMessage
	if welcome == "" {
		welcome = config.DefaultWelcomeMessage
	}
	dispatcher := api.NewDispatcher(cfg.Lark.VerificationToken, welcome, forwarder, fanout, messenger)

	return &App{
		cfg:        cfg,
		addr:       addr,
		dbPath:     dbPath,
		version:    version,
		dispatcher: dispatcher,
		fanout:     fanout,
		queue:      queue,
	}, nil
}

// Run starts the queue workers, the maintenance scheduler and the HTTP
// server, and blocks until ctx is canceled or a fatal server error
// occurs. Shutdown drains the queue and closes the store.
func (a *App) Run(ctx context.Context) error {
	banner.Print(a.cfg, a.addr, a.dbPath, a.version)

	workers := a.cfg.Queue.Workers
	if workers <= 0 {
		workers = 4
	}
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.fanout.RunWorker(stop)
		}()
	}
	logger.Info("queue_workers_started", "workers", workers, "capacity", a.queue.Cap())

	cancelMaint, err := maintenance.Start(ctx, a.cfg.Maintenance.Enabled, a.cfg.Maintenance.Cron, a.queue)
	if err != nil {
		return err
	}
	defer cancelMaint()

	errCh := a.startHTTP()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	a.shutdown(stop, &wg)
	return runErr
}

func (a *App) shutdown(stop chan struct{}, wg *sync.WaitGroup) {
	logger.Info("shutdown_started")

	if a.srv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.srv.Shutdown(sctx); err != nil {
			logger.Warn("http_shutdown_error", "error", err.Error())
		}
		cancel()
	}

	close(stop)
	wg.Wait()
	a.queue.CloseAndDrain()

	if err := store.Close(); err != nil {
		logger.Warn("store_close_error", "error", err.Error())
	}
	logger.Info("shutdown_complete")
}

func validateConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if cfg.Lark.VerificationToken == "" {
		return fmt.Errorf("lark.verification_token is required")
	}
	if cfg.Downstream.FeedbackURL == "" {
		return fmt.Errorf("downstream.feedback_url is required")
	}
	if cfg.Downstream.TopicURL == "" {
		return fmt.Errorf("downstream.topic_url is required")
	}
	return nil
}
