package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/rpattn/restquery/internal/countloader"
	"github.com/rpattn/restquery/internal/listing"
	"github.com/rpattn/restquery/internal/middleware"
)

const shutdownTimeout = 30 * time.Second

type Options struct {
	Addr string
}

// Server serves the listing API with graceful shutdown.
type Server struct {
	httpServer *http.Server
}

// NewRouter wraps the listing handler in CORS, request logging and a
// request-scoped count loader.
func NewRouter(service *listing.Service, counter countloader.Counter, allowedOrigins []string) http.Handler {
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Content-Disposition"},
	})

	return corsHandler.Handler(middleware.LoggingMiddleware(
		middleware.CountLoaderMiddleware(counter)(NewHandler(service)),
	))
}

func New(opts Options, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[SERVER] listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("[SERVER] shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Println("[SERVER] exited")
	return nil
}
