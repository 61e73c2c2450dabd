// Package web is the HTTP request layer: a thin JSON API over the ops
// package plus an embedded static page. It holds no import logic of its own.
package web

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sujankapadia/evernote-importer/internal/config"
)

//go:embed static/*
var staticFS embed.FS

// NewServer creates and configures the HTTP server.
func NewServer(database *sql.DB, cfg *config.Config, logger zerolog.Logger, version string) *http.Server {
	// Strip the "static/" prefix so the file server maps / to index.html.
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("static sub-FS: %v", err))
	}

	h := &Handlers{
		db:      database,
		cfg:     cfg,
		log:     logger,
		version: version,
		maxMem:  32 << 20,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("POST /api/import/upload", h.HandleImportUpload)
	mux.HandleFunc("GET /api/notes", h.HandleListNotes)
	mux.HandleFunc("GET /api/notes/{id}", h.HandleGetNote)
	mux.HandleFunc("DELETE /api/notes/{id}", h.HandleDeleteNote)
	mux.HandleFunc("GET /api/notes/{id}/attachments/{resourceID}", h.HandleAttachment)
	mux.HandleFunc("GET /api/search", h.HandleSearch)

	mux.Handle("GET /", http.FileServerFS(staticSub))

	handler := securityHeaders(requestLog(logger, mux))

	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port),
		Handler: handler,
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// requestLog logs one line per request.
func requestLog(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, logger zerolog.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info().Str("addr", srv.Addr).Msg("listening")

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		logger.Warn().Msg("binding to all interfaces; server may be reachable from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
