package assessment

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"onboard/internal/platform/metrics"
	"onboard/internal/platform/middleware"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/platform/httputil"
	"onboard/pkg/requestcontext"
)

// Handler exposes the assessment entry point. Only completion access tokens
// pass the auth middleware; the opaque registration token is useless here.
type Handler struct {
	logger    *slog.Logger
	client    Client
	metrics   *metrics.Metrics
	validator middleware.TokenValidator
}

// NewHandler creates the assessment Handler.
func NewHandler(client Client, validator middleware.TokenValidator, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:    logger,
		client:    client,
		metrics:   m,
		validator: validator,
	}
}

// Register registers the assessment routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.Latency(h.metrics))
	router.Use(middleware.RequireAuth(h.validator, h.logger))
	router.Post("/", h.handleOpen)

	r.Mount("/assessment", router)
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID := requestcontext.SessionID(ctx)
	if sessionID.IsNil() {
		h.logger.ErrorContext(ctx, "session missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	opening, err := h.client.Open(ctx, sessionID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to open assessment",
				"request_id", middleware.GetRequestID(ctx),
				"session_id", sessionID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, opening)
}
