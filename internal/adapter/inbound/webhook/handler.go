package webhook

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonny/times-relay/internal/adapter/inbound/webhook/middleware"
	"github.com/jonny/times-relay/internal/adapter/inbound/webhook/parser"
	"github.com/jonny/times-relay/internal/domain/model"
	"github.com/jonny/times-relay/internal/domain/port/inbound"
	"github.com/jonny/times-relay/internal/metrics"
	"github.com/jonny/times-relay/pkg/apierror"
)

const panicMessage = "Something went wrong while handling this command."

// Handler answers verified interaction callbacks.
type Handler struct {
	dispatcher inbound.InteractionDispatcher
	logger     *slog.Logger
}

func NewHandler(dispatcher inbound.InteractionDispatcher, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{dispatcher: dispatcher, logger: logger}
}

// ServeHTTP expects the body to have passed BodyReader and Ed25519Auth.
// Every outcome past that point is written with the outcome's status (200).
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, ok := middleware.RawBody(r.Context())
	if !ok {
		apierror.Write(w, apierror.Internal("request body not buffered"))
		return
	}

	ix, err := parser.ParseInteraction(body)
	if err != nil {
		h.logger.WarnContext(r.Context(), "undecodable interaction treated as unknown type", "error", err)
	}

	start := time.Now()
	outcome := h.dispatch(r, ix)
	metrics.InteractionDuration.WithLabelValues(string(ix.Kind)).Observe(time.Since(start).Seconds())
	metrics.InteractionsTotal.WithLabelValues(string(ix.Kind), ix.CommandName, metrics.Result(outcome.Succeeded())).Inc()

	writeJSON(w, outcome.HTTPStatus, Respond(outcome))
}

// dispatch converts a panic in the command path into an error outcome.
func (h *Handler) dispatch(r *http.Request, ix model.Interaction) (outcome model.CommandOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.ErrorContext(r.Context(), "panic while dispatching interaction",
				"panic", fmt.Sprint(rec),
				"interaction_id", ix.ID,
				"command", ix.CommandName,
			)
			outcome = model.Failure(panicMessage, &model.CommandError{
				Kind:    model.ErrKindUnknownType,
				Command: ix.CommandName,
				UserID:  ix.UserID,
				Err:     fmt.Errorf("panic: %v", rec),
			})
		}
	}()
	return h.dispatcher.Dispatch(r.Context(), ix)
}

// HelloHandler answers unauthenticated GET / requests with {"hello":"world"}.
func HelloHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"hello": "world"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
