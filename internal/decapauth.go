package internal

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgellow/decap-auth/internal/bootstrap"
	"github.com/dgellow/decap-auth/internal/config"
	"github.com/dgellow/decap-auth/internal/idp"
	"github.com/dgellow/decap-auth/internal/log"
	"github.com/dgellow/decap-auth/internal/oauthstate"
	"github.com/dgellow/decap-auth/internal/server"
	"github.com/dgellow/decap-auth/internal/urlutil"
)

const shutdownTimeout = 30 * time.Second

// DecapAuth represents the complete OAuth broker application
type DecapAuth struct {
	config     config.Config
	handler    http.Handler
	httpServer *server.HTTPServer
}

// NewDecapAuth creates the application with all dependencies built
func NewDecapAuth(cfg config.Config) (*DecapAuth, error) {
	log.LogInfoWithFields("decapauth", "Building OAuth broker", map[string]any{
		"redirectBase": cfg.Server.RedirectBase,
		"basePath":     cfg.Server.BasePath,
		"adminPath":    cfg.Admin.Path,
		"provider":     cfg.OAuth.Provider,
		"scope":        cfg.OAuth.Scope,
	})

	provider, err := idp.NewProvider(cfg.OAuth)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity provider: %w", err)
	}

	authHandlers := server.NewAuthHandlers(
		provider,
		oauthstate.NewIssuer(cfg.Server.BasePath, cfg.OAuth.StateTTL),
		urlutil.Canonicalizer{
			Base:           cfg.Server.RedirectBase,
			TrustForwarded: cfg.Server.TrustForwarded,
		},
		cfg.Server.BasePath,
		cfg.Admin.Path,
	)

	adminHandlers := server.NewAdminHandlers(
		cfg.Admin.Path,
		cfg.Admin.EditorScript,
		provider.Type(),
		bootstrap.Options{
			ManualInit: true,
			ConfigPath: cfg.Admin.EditorConfig,
			Interval:   cfg.Admin.PollInterval,
		},
	)

	handler := server.NewRouter(cfg.Server.BasePath, authHandlers, adminHandlers)

	return &DecapAuth{
		config:     cfg,
		handler:    handler,
		httpServer: server.NewHTTPServer(handler, cfg.Server.Addr),
	}, nil
}

// Handler returns the fully wired HTTP handler.
func (d *DecapAuth) Handler() http.Handler {
	return d.handler
}

// Run serves until SIGINT/SIGTERM or a server error, then shuts down
// gracefully.
func (d *DecapAuth) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return d.serve(ctx)
}

func (d *DecapAuth) serve(ctx context.Context) error {
	log.LogInfoWithFields("decapauth", "Starting OAuth broker", map[string]any{
		"addr": d.config.Server.Addr,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := d.httpServer.Start(); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		reason := "shutdown requested"
		if ctx.Err() == nil {
			reason = "server error"
		}
		log.LogInfoWithFields("decapauth", "Starting graceful shutdown", map[string]any{
			"reason":  reason,
			"timeout": shutdownTimeout.String(),
		})

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := d.httpServer.Stop(shutdownCtx); err != nil {
			log.LogErrorWithFields("decapauth", "HTTP server shutdown error", map[string]any{
				"error": err.Error(),
			})
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.LogInfoWithFields("decapauth", "Shutdown complete", nil)
	return nil
}
