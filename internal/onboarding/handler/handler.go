// Package handler exposes the onboarding flow over HTTP. Handlers decode,
// delegate to the engine, and encode; every rule about steps and navigation
// lives behind the Service port.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"onboard/internal/onboarding/catalog"
	"onboard/internal/onboarding/engine"
	"onboard/internal/onboarding/models"
	"onboard/internal/platform/metrics"
	"onboard/internal/platform/middleware"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/email"
	"onboard/pkg/platform/httputil"
)

// Service defines the engine operations the transport layer needs.
type Service interface {
	Restore(ctx context.Context, tok string) (*engine.RestoreResult, error)
	Load(ctx context.Context, tok string) (*models.Session, error)
	GoToStep(ctx context.Context, session *models.Session, target catalog.Step, allowForward bool) (*engine.NavigationInstruction, error)
	NextStep(ctx context.Context, session *models.Session) (*engine.NavigationInstruction, error)
	PrevStep(ctx context.Context, session *models.Session) (*engine.NavigationInstruction, error)
	VerifyEmail(ctx context.Context, tok string, req engine.VerifyEmailRequest) (*engine.SubmitOutcome, error)
	SubmitPersonalInfo(ctx context.Context, tok string, req engine.PersonalInfoRequest) (*engine.SubmitOutcome, error)
	SubmitOrganizationInfo(ctx context.Context, tok string, req engine.OrganizationRequest) (*engine.SubmitOutcome, error)
	SubmitObjectiveInfo(ctx context.Context, tok string, req models.ObjectiveInfo) (*engine.SubmitOutcome, error)
}

// Handler handles the registration endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	metrics *metrics.Metrics
}

// New creates a new onboarding Handler.
func New(service Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		metrics: m,
	}
}

// Register registers the registration routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	reg := chi.NewRouter()
	reg.Use(middleware.Recovery(h.logger))
	reg.Use(middleware.RequestID)
	reg.Use(middleware.RequestTime)
	reg.Use(middleware.ClientMetadata)
	reg.Use(middleware.Logger(h.logger))
	reg.Use(middleware.Timeout(30 * time.Second))
	reg.Use(middleware.ContentTypeJSON)
	reg.Use(middleware.Latency(h.metrics))

	reg.Post("/restore", h.handleRestore)
	reg.Post("/navigate", h.handleNavigate)
	reg.Get("/progress", h.handleProgress)
	reg.Post("/verify-email", h.handleVerifyEmail)
	reg.Post("/personal-info", h.handlePersonalInfo)
	reg.Post("/organization-info", h.handleOrganizationInfo)
	reg.Post("/objective-info", h.handleObjectiveInfo)

	r.Mount("/registration", reg)
}

type restoreRequest struct {
	Token string `json:"token"`
}

type restoreResponse struct {
	SessionID   string                 `json:"session_id"`
	Step        string                 `json:"step,omitempty"`
	Destination catalog.Destination    `json:"destination"`
	Token       string                 `json:"token,omitempty"`
	Email       string                 `json:"email,omitempty"`
	UserData    *models.UserDataRecord `json:"user_data,omitempty"`

	// Prefill for the personal-info form, derived from the email address
	// when no personal data has been submitted yet.
	SuggestedFirstName string `json:"suggested_first_name,omitempty"`
	SuggestedLastName  string `json:"suggested_last_name,omitempty"`
}

type navigateRequest struct {
	// Direction is "next" or "prev"; Target names a step directly. Exactly
	// one of the two should be set.
	Direction string `json:"direction,omitempty"`
	Target    string `json:"target,omitempty"`
}

type navigationResponse struct {
	Applied     bool                `json:"applied"`
	Destination catalog.Destination `json:"destination"`
	Token       string              `json:"token,omitempty"`
	Email       string              `json:"email,omitempty"`
}

type progressResponse struct {
	Step        string              `json:"step,omitempty"`
	Destination catalog.Destination `json:"destination"`
	Stages      map[string]bool     `json:"stages"`
}

type submitResponse struct {
	Destination catalog.Destination `json:"destination"`
	Token       string              `json:"token,omitempty"`
	Email       string              `json:"email,omitempty"`
	AccessToken string              `json:"access_token,omitempty"`
}

// handleRestore reconciles the session for a token against the platform API
// and tells the client where to resume. A rejected token answers 401 and an
// unreachable platform 503; in both cases the client's next stop is the
// registration entry point.
func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// The token may arrive in the body or as a bearer header; an empty body
	// is fine when the header carries it.
	var req restoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	tok := req.Token
	if tok == "" {
		tok = bearerToken(r)
	}
	if tok == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "registration token is required"))
		return
	}

	result, err := h.service.Restore(ctx, tok)
	if err != nil {
		h.logger.WarnContext(ctx, "session restore failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	resp := restoreResponse{
		SessionID:   result.Session.ID.String(),
		Destination: result.Instruction.Destination,
		Token:       result.Instruction.Token,
		Email:       result.Instruction.Email,
		UserData:    &result.Session.UserData,
	}
	if step, ok := result.Session.Step(); ok {
		resp.Step = string(step)
	}
	if result.Session.UserData.Personal == nil && result.Session.UserData.Email != "" {
		resp.SuggestedFirstName, resp.SuggestedLastName = email.DeriveNameFromEmail(result.Session.UserData.Email)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// handleNavigate moves the session within the already-reached steps. A move
// the guard rejects is answered as a no-op pointing at the current position,
// not as an error: the client simply stays where it is.
func (h *Handler) handleNavigate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tok := bearerToken(r)
	if tok == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing registration token"))
		return
	}
	var req navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	session, err := h.service.Load(ctx, tok)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "unknown registration token"))
		return
	}

	var instruction *engine.NavigationInstruction
	switch {
	case req.Direction == "next":
		instruction, err = h.service.NextStep(ctx, session)
	case req.Direction == "prev":
		instruction, err = h.service.PrevStep(ctx, session)
	case req.Target != "":
		var target catalog.Step
		target, err = catalog.Parse(req.Target)
		if err == nil {
			instruction, err = h.service.GoToStep(ctx, session, target, false)
		}
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "direction or target is required"))
		return
	}

	if err != nil {
		if dErrors.Is(err, dErrors.CodeGuardViolation) {
			httputil.WriteJSON(w, http.StatusOK, noopResponse(session))
			return
		}
		h.logger.WarnContext(ctx, "navigation failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, navigationResponse{
		Applied:     true,
		Destination: instruction.Destination,
		Token:       instruction.Token,
		Email:       instruction.Email,
	})
}

// handleProgress reports which stages the session has passed, for the
// visual stepper.
func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tok := bearerToken(r)
	if tok == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing registration token"))
		return
	}
	session, err := h.service.Load(ctx, tok)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "unknown registration token"))
		return
	}

	resp := progressResponse{
		Destination: catalog.DestEntry,
		Stages:      stageCompletion(session),
	}
	if step, ok := session.Step(); ok {
		resp.Step = string(step)
		resp.Destination = catalog.DestinationOf(step)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	submitStep(h, w, r, func(ctx context.Context, tok string, req engine.VerifyEmailRequest) (*engine.SubmitOutcome, error) {
		return h.service.VerifyEmail(ctx, tok, req)
	})
}

func (h *Handler) handlePersonalInfo(w http.ResponseWriter, r *http.Request) {
	submitStep(h, w, r, func(ctx context.Context, tok string, req engine.PersonalInfoRequest) (*engine.SubmitOutcome, error) {
		return h.service.SubmitPersonalInfo(ctx, tok, req)
	})
}

func (h *Handler) handleOrganizationInfo(w http.ResponseWriter, r *http.Request) {
	submitStep(h, w, r, func(ctx context.Context, tok string, req engine.OrganizationRequest) (*engine.SubmitOutcome, error) {
		return h.service.SubmitOrganizationInfo(ctx, tok, req)
	})
}

func (h *Handler) handleObjectiveInfo(w http.ResponseWriter, r *http.Request) {
	submitStep(h, w, r, func(ctx context.Context, tok string, req models.ObjectiveInfo) (*engine.SubmitOutcome, error) {
		return h.service.SubmitObjectiveInfo(ctx, tok, req)
	})
}

// submitStep is the shared decode/submit/encode sequence for the four step
// submission endpoints.
func submitStep[T any](h *Handler, w http.ResponseWriter, r *http.Request, submit func(context.Context, string, T) (*engine.SubmitOutcome, error)) {
	ctx := r.Context()

	tok := bearerToken(r)
	if tok == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing registration token"))
		return
	}
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	outcome, err := submit(ctx, tok, req)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "step submission failed",
				"request_id", middleware.GetRequestID(ctx),
				"path", r.URL.Path,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, submitResponse{
		Destination: outcome.Instruction.Destination,
		Token:       outcome.Instruction.Token,
		Email:       outcome.Instruction.Email,
		AccessToken: outcome.AccessToken,
	})
}

// noopResponse describes the unchanged position after a denied move.
func noopResponse(session *models.Session) navigationResponse {
	resp := navigationResponse{
		Applied:     false,
		Destination: catalog.DestEntry,
		Token:       session.Token,
		Email:       session.UserData.Email,
	}
	if step, ok := session.Step(); ok {
		resp.Destination = catalog.DestinationOf(step)
	}
	return resp
}

// stageCompletion renders the per-stage booleans for the stepper. A stage is
// complete once the session has moved past it.
func stageCompletion(session *models.Session) map[string]bool {
	rank := session.StepNumber
	return map[string]bool{
		"email_verified":    rank >= catalog.Rank(catalog.StepEmailVerified),
		"personal_info":     rank >= catalog.Rank(catalog.StepOrganizationInfo) && session.UserData.Personal != nil,
		"organization_info": rank >= catalog.Rank(catalog.StepBusinessObjectives),
		"objectives":        rank >= catalog.Rank(catalog.StepCompleted),
		"completed":         rank >= catalog.Rank(catalog.StepCompleted),
	}
}

// bearerToken extracts the opaque registration token from the Authorization
// header.
func bearerToken(r *http.Request) string {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(raw)
}
