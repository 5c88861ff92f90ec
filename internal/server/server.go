package server

import (
	"context"
	"net/http"
	"time"

	"github.com/danmuck/tlvcodec/internal/clusters/application"
	"github.com/danmuck/tlvcodec/internal/observability"
	"github.com/danmuck/tlvcodec/internal/protocol/frame"
	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const shutdownGrace = 5 * time.Second

// Config wires the inspection service.
type Config struct {
	Name        string
	Addr        string
	CorsOrigins []string
	TLVLimits   tlv.Limits
	FrameLimits frame.Limits
	Registry    *application.Registry
}

// Inspector is an HTTP front end over the codec for debugging peers:
// it decodes posted TLV or framed TLV into readable forms, encodes typed
// JSON, and exposes codec metrics.
type Inspector struct {
	cfg      Config
	router   *gin.Engine
	appeared time.Time
}

func New(cfg Config) *Inspector {
	if cfg.Name == "" {
		cfg.Name = "tlvctl"
	}
	if cfg.Registry == nil {
		cfg.Registry = application.DefaultRegistry()
	}
	if cfg.TLVLimits.MaxDepth == 0 {
		cfg.TLVLimits = tlv.DefaultLimits()
	}
	if cfg.FrameLimits.MaxPayloadBytes == 0 {
		cfg.FrameLimits = frame.DefaultLimits()
	}

	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(observability.ServiceLogger(cfg.Name)))
	r.Use(observability.RequestMetricsMiddleware(cfg.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Inspector{cfg: cfg, router: r, appeared: time.Now()}
	s.registerRoutes()
	return s
}

func (s *Inspector) HTTPRouter() *gin.Engine {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Inspector) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("service", s.cfg.Name).Str("addr", s.cfg.Addr).Msg("inspector listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Str("service", s.cfg.Name).Msg("inspector stopped")
	return nil
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
