package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/room-booking/internal/application"
	httptransport "github.com/example/room-booking/internal/http"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the booking HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(); cerr != nil {
					a.logger.Error("failed to close resources", "error", cerr)
				}
			}()

			handler, err := a.handler()
			if err != nil {
				return err
			}

			server := &http.Server{
				Addr:              fmt.Sprintf(":%d", a.cfg.HTTPPort),
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.logger.Error("failed to shutdown server", "error", err)
				}
			}()

			a.logger.Info("booking API listening", "addr", server.Addr, "store", a.cfg.Store, "lock", a.lockBackend)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server encountered error: %w", err)
			}
			a.logger.Info("booking API stopped")
			return nil
		},
	}
}

// handler builds the routed API with request logging and, when a key hash
// is configured, API key enforcement.
func (a *app) handler() (http.Handler, error) {
	middleware := []func(http.Handler) http.Handler{httptransport.RequestLogger(a.logger)}
	if a.cfg.APIKeyHash != "" {
		verifier, err := application.NewAPIKeyVerifier(a.cfg.APIKeyHash)
		if err != nil {
			return nil, fmt.Errorf("ROOMBOOK_API_KEY_HASH: %w", err)
		}
		middleware = append(middleware, httptransport.RequireAPIKey(verifier, a.logger))
	}

	return httptransport.NewRouter(httptransport.RouterConfig{
		Reservations: httptransport.NewReservationHandler(a.reservations, a.logger),
		Rooms:        httptransport.NewRoomHandler(a.rooms, a.reservations, a.cfg.Slots, a.logger),
		Health:       a.health,
		Middleware:   middleware,
	}), nil
}

func (a *app) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if a.pinger != nil {
		if err := a.pinger(r.Context()); err != nil {
			a.logger.WarnContext(r.Context(), "health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}` + "\n"))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}
