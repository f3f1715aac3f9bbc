// Package server ties the gateway together: the HTTP/WebSocket listener,
// the session registry, the command dispatcher, and the event forwarder,
// all sharing one driver handle.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"sync"

	"sechub/pkg/clients"
	"sechub/pkg/config"
	"sechub/pkg/dispatch"
	"sechub/pkg/driver"
	"sechub/pkg/driver/sim"
	"sechub/pkg/forward"
	"sechub/pkg/logger"
	"sechub/pkg/metrics"
	"sechub/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serverVersion = "1.0.0"

// Server represents the gateway process.
type Server struct {
	cfg        *config.ServerConfig
	drv        driver.Driver
	registry   *clients.Registry
	dispatcher *dispatch.Dispatcher
	forwarder  *forward.Forwarder
	store      storage.Store
	metrics    *metrics.Metrics
	promReg    *prometheus.Registry
	log        *logger.Logger

	httpServer *http.Server
	serverMu   sync.Mutex
}

// NewServer wires a gateway from configuration. The store is best-effort:
// a failed open logs and the gateway runs without session persistence.
func NewServer(cfg *config.ServerConfig) (*Server, error) {
	log := logger.Get().Component("server")

	drv, err := newDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.Database)
	if err != nil {
		log.ErrorWithErr("failed to open session store, continuing without persistence", err)
		store = nil
	}

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)

	registry := clients.NewRegistry(drv)
	dispatcher := dispatch.New(registry, m, logger.Get())
	if store != nil {
		dispatcher.OnSchemaNegotiated = func(clientID string, version int) {
			if err := store.UpdateSchemaVersion(clientID, version); err != nil {
				log.Debug("failed to persist schema version", "client", clientID, "error", err)
			}
		}
	}

	forwarder := forward.New(registry, dispatcher.Captcha(), m, logger.Get())

	return &Server{
		cfg:        cfg,
		drv:        drv,
		registry:   registry,
		dispatcher: dispatcher,
		forwarder:  forwarder,
		store:      store,
		metrics:    m,
		promReg:    promReg,
		log:        log,
	}, nil
}

func newDriver(cfg config.DriverConfig) (driver.Driver, error) {
	switch cfg.Mode {
	case "sim", "":
		return sim.NewPopulated(cfg.Sim.Stations, cfg.Sim.Devices), nil
	default:
		return nil, fmt.Errorf("unsupported driver mode: %s", cfg.Mode)
	}
}

// Start begins forwarding driver events and serves until the listener
// fails or Shutdown is called.
func (s *Server) Start() error {
	s.forwarder.Start()

	router := s.buildRouter()

	if s.cfg.TLS.Enabled && s.cfg.TLS.CertFile != "" && s.cfg.TLS.KeyFile != "" {
		tlsConfig := &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
		srv := &http.Server{
			Addr:      s.cfg.Address,
			Handler:   router,
			TLSConfig: tlsConfig,
		}
		s.serverMu.Lock()
		s.httpServer = srv
		s.serverMu.Unlock()

		s.log.Info("listening with TLS", "address", s.cfg.Address)
		return srv.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
	}

	srv := &http.Server{
		Addr:    s.cfg.Address,
		Handler: router,
	}
	s.serverMu.Lock()
	s.httpServer = srv
	s.serverMu.Unlock()

	s.log.Info("listening", "address", s.cfg.Address)
	return srv.ListenAndServe()
}

// buildRouter assembles the gin router with the WebSocket endpoint and the
// operational HTTP surface.
func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/ws", s.ginHandleWebSocket)
	router.GET("/healthz", s.ginHandleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.promReg, promhttp.HandlerOpts{})))
	router.GET("/api/sessions", s.ginHandleSessions)

	return router
}

func (s *Server) ginHandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"driver":        s.drv.Version(),
		"serverVersion": serverVersion,
		"sessions":      s.registry.Count(),
	})
}

func (s *Server) ginHandleSessions(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session store not available"})
		return
	}
	sessions, err := s.store.RecentSessions(100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// Shutdown stops the listener, disconnects every session, and closes the
// store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.serverMu.Lock()
	srv := s.httpServer
	s.serverMu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}

	for _, c := range s.registry.All() {
		c.MarkDisconnected()
	}
	s.registry.Sweep()

	if s.store != nil {
		if cerr := s.store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
