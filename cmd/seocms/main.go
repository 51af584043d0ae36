package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielledeleo/seocms/internal/server"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-token" {
		hashToken(os.Args[2:])
		return
	}

	app, conn := server.Setup()
	defer conn.Close()

	// Routes: / and /{path} serve pages, /sitemap.xml and /robots.txt are
	// special pages, /api/* is the JSON API and /metrics is for Prometheus.
	srv := &http.Server{
		Addr:              app.Config.Host,
		Handler:           server.NewRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("server starting", "url", "http://"+app.Config.Host, "base_url", app.Config.BaseURL)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting requests before draining the render queue.
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutting down render queue...")
	if err := app.Queue.Shutdown(ctx); err != nil {
		slog.Error("render queue shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

// hashToken prints the publish_token_hash value for a token.
func hashToken(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: seocms hash-token <token>")
		os.Exit(2)
	}
	hash, err := server.HashToken(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
