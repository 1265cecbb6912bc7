// main.go — chat streaming server
// Loads config.yaml and .env, wires the chat service and serves the
// HTTP/SSE surface until SIGINT or SIGTERM.
//
// Examples:
//
//	export IONOS_API_KEY=...
//	go run ./cmd/chatstream -config config.yaml
//
//	go run ./cmd/chatstream -config config.yaml -addr :9090
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	chatstream "github.com/Protocol-Lattice/go-chatstream"
	"github.com/Protocol-Lattice/go-chatstream/src/config"
	"github.com/Protocol-Lattice/go-chatstream/src/httpapi"
	"github.com/Protocol-Lattice/go-chatstream/src/observability"
)

var (
	flagConfig = flag.String("config", "config.yaml", "Path to the configuration file")
	flagEnv    = flag.String("env", ".env", "Env file loaded over the inherited environment; a missing file is ignored")
	flagAddr   = flag.String("addr", "", "Listen address, overrides the configured one")
)

func main() {
	flag.Parse()
	log := observability.Logger()

	// 1) Secrets. The env file wins over the inherited environment so a
	// local .env behaves the same as in development.
	if err := godotenv.Overload(*flagEnv); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("loading env file", "path", *flagEnv, "error", err)
	}

	// 2) Configuration, loaded once. A broken config refuses to serve.
	cfg, err := config.Load(*flagConfig)
	if err != nil {
		log.Error("loading configuration", "path", *flagConfig, "error", err)
		os.Exit(1)
	}

	svc, err := chatstream.New(chatstream.Options{Config: cfg})
	if err != nil {
		log.Error("building service", "error", err)
		os.Exit(1)
	}

	// 3) HTTP surface.
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	httpapi.RegisterRoutes(r, svc)

	addr := cfg.Server.Addr
	if *flagAddr != "" {
		addr = *flagAddr
	}
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		log.Info("listening", "addr", addr, "providers", cfg.ProviderNames())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	// 4) Graceful shutdown; in-flight streams get a drain window.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown", "error", err)
		os.Exit(1)
	}
}
