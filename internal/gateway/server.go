package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hostelhub/roomcast/internal/auth"
	"github.com/hostelhub/roomcast/internal/config"
	"github.com/hostelhub/roomcast/internal/database"
	"github.com/hostelhub/roomcast/internal/hostel"
	"github.com/hostelhub/roomcast/internal/notify"
)

// Gateway is the long-running daemon that combines:
//   - the notification registry and dispatcher
//   - the hostel service that announces room assignments
//   - a keep-alive scheduler for open streams
//   - a REST + SSE HTTP server
type Gateway struct {
	cfg        *config.Config
	db         database.DB
	registry   *notify.Registry
	dispatcher *notify.Dispatcher
	hostel     *hostel.Service
	resolver   *auth.JWTResolver
	keepalive  *KeepAlive
	startedAt  time.Time
}

// New creates a Gateway. Call Start() to begin serving.
func New(cfg *config.Config, db database.DB) (*Gateway, error) {
	reg := notify.NewRegistry(
		notify.WithShards(cfg.Notify.Shards),
		notify.WithBuffer(cfg.Notify.Buffer),
		notify.WithMaxLifetime(cfg.Notify.MaxLifetime),
	)
	disp := notify.NewDispatcher(reg,
		notify.WithMirror(notify.NewWebhookMirror(cfg.Notify.Webhook)),
	)
	store := hostel.NewStore(db)

	gw := &Gateway{
		cfg:        cfg,
		db:         db,
		registry:   reg,
		dispatcher: disp,
		hostel:     hostel.NewService(store, disp),
		resolver:   auth.NewJWTResolver(cfg.Auth.Secret, store),
		startedAt:  time.Now(),
	}

	spec := cfg.Gateway.KeepAlive
	if spec == "" {
		spec = config.DefaultKeepAlive
	}
	ka, err := newKeepAlive(spec, disp.Heartbeat)
	if err != nil {
		return nil, err
	}
	gw.keepalive = ka

	if cfg.Auth.Secret == "" {
		slog.Warn("gateway: auth.secret is empty; every subscribe request will be closed immediately")
	}
	return gw, nil
}

// Registry exposes the subscription registry.
func (gw *Gateway) Registry() *notify.Registry { return gw.registry }

// Dispatcher exposes the event dispatcher.
func (gw *Gateway) Dispatcher() *notify.Dispatcher { return gw.dispatcher }

// Hostel exposes the room assignment service.
func (gw *Gateway) Hostel() *hostel.Service { return gw.hostel }

// Handler returns the HTTP handler serving every gateway route.
func (gw *Gateway) Handler() http.Handler { return buildHandler(gw) }

// Start runs the gateway until ctx is cancelled. It:
//  1. Starts the keep-alive scheduler
//  2. Binds the HTTP server (blocks until shutdown)
//  3. On shutdown, completes every open stream so handlers return
func (gw *Gateway) Start(ctx context.Context) error {
	addr := gw.cfg.Gateway.Addr()

	gw.keepalive.Start()

	// No WriteTimeout: subscribe responses stay open indefinitely.
	srv := &http.Server{
		Addr:              addr,
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		gw.keepalive.Stop()
		gw.closeStreams()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		gw.dispatcher.Wait()
	}()

	slog.Info("gateway: listening", "addr", "http://"+addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// closeStreams completes every live subscription. Each completion removes
// itself from the registry and ends its SSE response.
func (gw *Gateway) closeStreams() {
	n := 0
	gw.registry.Each(func(s *notify.Subscription) {
		s.Complete()
		n++
	})
	if n > 0 {
		slog.Info("gateway: closed open streams", "count", n)
	}
}

func (gw *Gateway) currentStatus() Status {
	return Status{
		Recipients:    gw.registry.Recipients(),
		Subscriptions: gw.registry.Total(),
		Dispatch:      gw.dispatcher.Stats(),
		UptimeSeconds: int64(time.Since(gw.startedAt).Seconds()),
	}
}
