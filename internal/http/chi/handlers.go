package chi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"

	"github.com/marcelsud/zipwhip-bridge/webhook"
	"github.com/marcelsud/zipwhip-bridge/webhook/signature"
	"github.com/marcelsud/zipwhip-bridge/zipwhip"
)

// maxBodyBytes bounds the amount of an untrusted request body that is read
const maxBodyBytes = 1 << 20

/* Options carries the per-deployment knobs for the HTTP layer
 * Secret enables inbound signature verification when non-empty
 * OnFatal is invoked when the downstream reports a credential failure;
 * retrying cannot help, so the process should drain and exit
 */
type Options struct {
	Secret  string
	OnFatal func(error)
}

// Handlers sets up the webhook ingestion routes
func Handlers(ctx context.Context, service webhook.UseCase, opts Options) *chi.Mux {
	logger := httplog.NewLogger("zipwhip-bridge", httplog.Options{
		JSON: true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Liveness probe: no state access, always 200 while the process is alive
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Post("/receive", postReceive(service, opts).ServeHTTP)

	return r
}

// postReceive handles POST /receive
func postReceive(service webhook.UseCase, opts Options) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		oplog := httplog.LogEntry(r.Context())

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if opts.Secret != "" {
			if !signature.Verify(opts.Secret, body, r.Header.Get(signature.Header)) {
				oplog.Warn().Msg("webhook signature verification failed")
				http.Error(w, "invalid webhook signature", http.StatusUnauthorized)
				return
			}
		}

		wh, err := webhook.Parse(body)
		if err != nil {
			var malformed *webhook.MalformedPayloadError
			if errors.As(err, &malformed) && malformed.Field != "" {
				http.Error(w, fmt.Sprintf("malformed payload: field %s", malformed.Field), http.StatusBadRequest)
				return
			}
			http.Error(w, "malformed payload", http.StatusBadRequest)
			return
		}

		oplog.Info().
			Str("final_destination", wh.FinalDestination).
			Str("final_source", wh.FinalSource).
			Str("fingerprint", wh.Fingerprint).
			Msg("received webhook")

		receipt, err := service.Process(r.Context(), wh)
		if err != nil {
			respondDispatchError(w, r, err, opts.OnFatal)
			return
		}

		if receipt.Duplicate {
			oplog.Info().Str("correlation_id", receipt.CorrelationID).Msg("duplicate delivery")
		}

		w.Header().Set("X-Correlation-Id", receipt.CorrelationID)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// respondDispatchError maps a pipeline failure to an HTTP response.
// Parsing and authorization never reach here; only dispatch and store
// failures do.
func respondDispatchError(w http.ResponseWriter, r *http.Request, err error, onFatal func(error)) {
	oplog := httplog.LogEntry(r.Context())

	switch {
	case zipwhip.IsAuthenticationFailed(err):
		// Fatal: every subsequent dispatch will fail identically
		oplog.Error().Err(err).Msg("downstream authentication failed")
		if onFatal != nil {
			onFatal(err)
		}
		http.Error(w, "downstream authentication failed", http.StatusBadGateway)
	case zipwhip.IsRejected(err):
		oplog.Error().Err(err).Msg("dispatch rejected by provider")
		http.Error(w, "rejected by provider", http.StatusBadGateway)
	case zipwhip.IsTransient(err):
		oplog.Error().Err(err).Msg("dispatch failed after retries")
		if errors.Is(err, context.DeadlineExceeded) {
			http.Error(w, "downstream timeout", http.StatusGatewayTimeout)
			return
		}
		http.Error(w, "downstream unavailable", http.StatusBadGateway)
	default:
		oplog.Error().Err(err).Msg("processing failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
