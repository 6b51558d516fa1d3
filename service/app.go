package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"yatube/app/cache"
	"yatube/app/config"
	"yatube/app/routes"
	"yatube/app/views"
	"yatube/pkg/logger"

	"github.com/spf13/cobra"
)

var flagPort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the blog service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := cfg.Server.Port
		if flagPort != "" {
			port = flagPort
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ln, err := net.Listen("tcp", ":"+port)
		if err != nil {
			return fmt.Errorf("listen on port %s: %w", port, err)
		}
		return RunAppServer(ctx, cfg, ln)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagPort, "port", "", "Override SERVER_PORT")
	rootCmd.AddCommand(serveCmd)
}

// RunAppServer serves the blog on ln until ctx is cancelled, then shuts down
// gracefully within the configured timeout.
func RunAppServer(ctx context.Context, cfg *config.Config, ln net.Listener) error {
	if cfg.JWT.Secret == config.DefaultJWTSecret {
		logger.Warn("jwt_default_secret", map[string]interface{}{
			"hint": "set JWT_SECRET; sessions and API tokens are signed with a public default",
		})
	}

	store, err := openStore(cfg)
	if err != nil {
		ln.Close()
		return err
	}
	defer store.Close()

	pageCache, err := cache.NewBadgerStore()
	if err != nil {
		ln.Close()
		return fmt.Errorf("open page cache: %w", err)
	}
	defer pageCache.Close()

	templates, err := views.Load()
	if err != nil {
		ln.Close()
		return fmt.Errorf("load templates: %w", err)
	}

	router := routes.SetupRoutes(routes.Options{
		Store:        store,
		PageCache:    pageCache,
		Templates:    templates,
		PageCacheTTL: cfg.Cache.PageTTL,
		PerPage:      cfg.Posts.PerPage,
		SecureCookie: cfg.JWT.SecureCookie,
	})

	srv := &http.Server{
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server_starting", map[string]interface{}{
			"addr":   ln.Addr().String(),
			"driver": cfg.Storage.Driver,
		})
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server_stopping", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server_stopped", nil)
	return nil
}
