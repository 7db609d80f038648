package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcelsud/zipwhip-bridge/config"
	"github.com/marcelsud/zipwhip-bridge/forwards"
	"github.com/marcelsud/zipwhip-bridge/internal/http/chi"
	"github.com/marcelsud/zipwhip-bridge/metrics"
	"github.com/marcelsud/zipwhip-bridge/webhook"
	"github.com/marcelsud/zipwhip-bridge/webhook/memory"
	redisstore "github.com/marcelsud/zipwhip-bridge/webhook/redis"
	"github.com/marcelsud/zipwhip-bridge/zipwhip"
)

const TIMEOUT = 30 * time.Second

/* main wires the pipeline together: config -> store -> client -> service ->
 * router. All dependencies flow downward; the single shared state instance
 * is owned here and borrowed by every in-flight request.
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	signalCtx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	/* A downstream credential failure is fatal: every later dispatch
	 * fails identically, so the server drains and exits instead of
	 * limping along
	 */
	ctx, cancel := context.WithCancel(signalCtx)
	defer cancel()
	onFatal := func(err error) {
		fmt.Printf("fatal: %v\n", err)
		cancel()
	}

	dedupeTTL := time.Duration(cfg.DedupeTTLHours) * time.Hour
	var store webhook.Store
	if cfg.RedisAddr != "" {
		store, err = redisstore.NewStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, dedupeTTL)
		if err != nil {
			fmt.Println(err)
			return
		}
	} else {
		store = memory.NewStore(dedupeTTL)
	}
	defer store.Close(ctx)

	fw := forwards.NewLoader()
	if cfg.ForwardsFile != "" {
		if err := fw.Load(cfg.ForwardsFile); err != nil {
			fmt.Println(err)
			return
		}
	}

	client := zipwhip.NewClient(cfg.APIURL, cfg.SessionKey, time.Duration(cfg.DispatchTimeoutSeconds)*time.Second)
	service := webhook.NewService(store, client, fw, uint64(cfg.DispatchMaxRetries), 0)

	if cfg.MetricsPort != "" {
		collector := metrics.NewPipelineCollector(service, store)
		exporter, err := metrics.NewOTelExporter(collector)
		if err != nil {
			fmt.Println(err)
			return
		}
		defer exporter.Shutdown(context.Background())
		go serveMetrics(ctx, exporter, cfg.MetricsPort)
	}

	r := chi.Handlers(ctx, service, chi.Options{
		Secret:  cfg.WebhookSecret,
		OnFatal: onFatal,
	})
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	fmt.Printf("Listening on port %s\n", cfg.Port)
	fmt.Println("Ready to receive webhooks.")
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		fmt.Println(err)
		return
	}
	err = <-errShutdown
	if err != nil {
		fmt.Println(err)
		return
	}
}

func serveMetrics(ctx context.Context, exporter *metrics.OTelExporter, port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", exporter.Handler())
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), TIMEOUT)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Println(err)
	}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	default:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	}
}
