package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/skybridge-project/skybridge/fallback"
	"github.com/skybridge-project/skybridge/handshake"
	"github.com/skybridge-project/skybridge/identity"
	"github.com/skybridge-project/skybridge/internal/events"
	"github.com/skybridge-project/skybridge/internal/logger"
	"github.com/skybridge-project/skybridge/internal/metrics"
	"github.com/skybridge-project/skybridge/policy"
	"github.com/skybridge-project/skybridge/session"
	"github.com/skybridge-project/skybridge/suite"
	"github.com/skybridge-project/skybridge/transport"
	"github.com/skybridge-project/skybridge/transport/wstransport"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the WebSocket handshake responder and session endpoint",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// responderRegistry lazily builds one responder handshake.Driver per
// peer the first time a frame arrives from it, and hands established
// sessions to a session.Manager.
type responderRegistry struct {
	mu       sync.Mutex
	drivers  map[string]*handshake.Driver
	sender   transport.FrameSender
	identMgr *identity.Manager
	trust    identity.TrustStore
	hp       policy.Handshake
	cp       policy.Crypto
	caps     policy.Capabilities
	sink     handshake.EventSink
	sessions *session.Manager
	timeout  time.Duration
	log      logger.Logger
}

func (r *responderRegistry) ReceiverFor(peer string) (transport.Receiver, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.drivers[peer]; ok {
		return d, true
	}

	ctx, err := handshake.NewResponderContext(handshake.Config{
		IdentityManager:   r.identMgr,
		TrustStore:        r.trust,
		HandshakePolicy:   r.hp,
		CryptoPolicy:      r.cp,
		LocalCapabilities: r.caps,
		Sink:              r.sink,
	})
	if err != nil {
		r.log.Error("failed to build responder context", logger.String("peer", peer), logger.Error(err))
		return nil, false
	}

	driver := handshake.NewResponderDriver(ctx, r.sender, peer, r.timeout, r.sink)
	r.drivers[peer] = driver

	slot := driver.AcceptHandshake()
	metrics.HandshakesInitiated.WithLabelValues("server").Inc()
	started := time.Now()
	go func() {
		result := slot.Wait()
		metrics.HandshakeDuration.WithLabelValues("finished").Observe(time.Since(started).Seconds())
		if result.Err != nil {
			metrics.HandshakesCompleted.WithLabelValues("failure").Inc()
			r.log.Warn("handshake failed", logger.String("peer", peer), logger.Error(result.Err))
			return
		}
		metrics.HandshakesCompleted.WithLabelValues("success").Inc()

		id := session.NewID()
		if _, err := r.sessions.CreateSession(id, *result.SessionKeys); err != nil {
			r.log.Error("failed to open session", logger.String("peer", peer), logger.Error(err))
			return
		}
		r.log.Info("handshake established", logger.String("peer", peer), logger.String("session_id", id))
	}()

	return driver, true
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	configureLogger(cfg)
	log := logger.GetDefaultLogger()

	sink := events.NewLoggingSink(log)

	trustStore, err := openTrustStore(cfg)
	if err != nil {
		return fmt.Errorf("open trust store: %w", err)
	}

	identMgr := newIdentityManager(sink)
	if _, _, err := identMgr.GetOrCreateProtocolSigningKey(suite.SigEd25519); err != nil {
		return fmt.Errorf("provision protocol signing key: %w", err)
	}

	sessionMgr := session.NewManager()
	defer sessionMgr.Close()

	limiter := fallback.NewRateLimiter(cfg.Handshake.FallbackCooldown)
	_ = fallback.NewManager(limiter, sink) // wired for future initiator-side use by this same process

	registry := &responderRegistry{
		drivers:  make(map[string]*handshake.Driver),
		identMgr: identMgr,
		trust:    trustStore,
		hp: policy.Handshake{
			AllowClassicFallback: true,
			MinimumTier:          0,
		},
		cp: policy.Crypto{
			AllowExperimentalHybrid: true,
			AdvertiseHybrid:         true,
		},
		caps: policy.Capabilities{
			PQCAvailable: true,
		},
		sink:     sink,
		sessions: sessionMgr,
		timeout:  cfg.Handshake.Timeout,
		log:      log,
	}

	wsServer := wstransport.NewServer(registry).
		WithTimeouts(cfg.Transport.ReadTimeout, cfg.Transport.WriteTimeout)
	registry.sender = wsServer

	mux := http.NewServeMux()
	mux.Handle("/handshake", wsServer.Handler())
	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}
	if cfg.Health != nil && cfg.Health.Enabled {
		mux.HandleFunc(cfg.Health.Path, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, "ok, %d active connections\n", wsServer.ConnectionCount())
		})
	}

	httpServer := &http.Server{
		Addr:         cfg.Transport.ListenAddr,
		Handler:      mux,
		ReadTimeout:  cfg.Transport.ReadTimeout,
		WriteTimeout: cfg.Transport.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", logger.String("addr", cfg.Transport.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info("shutting down", logger.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return wsServer.Close()
}
