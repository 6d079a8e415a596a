package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/outfitter-dev/firewatch/internal/feedback"
	"github.com/outfitter-dev/firewatch/internal/httpapi"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local JSON HTTP API over the cache (for editor/script integrations)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			logger := slog.Default()
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// GitHub auth is best-effort here: serve should still work in
			// read-only mode (entries/worklist/lookout) without a token.
			var bridge *feedback.Bridge
			if gh, ghErr := a.githubClient(ctx); ghErr != nil {
				logger.Warn("no GitHub token available, feedback endpoints disabled", "error", ghErr)
			} else {
				bridge = a.feedbackBridge(gh)
			}

			handler := httpapi.NewHandler(a.store, a.query, bridge, a.cfg.User.GitHubUsername, logger)
			mux := httpapi.NewServeMux(handler, logger)

			server := &http.Server{Addr: addr, Handler: mux}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("serving", "addr", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
					return
				}
				errCh <- nil
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("serve: %w", err)
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("graceful shutdown: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:4317", "address to listen on")
	return cmd
}
