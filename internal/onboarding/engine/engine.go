// Package engine owns the onboarding session: it executes step transitions,
// reconciles local state against the platform API, and accumulates the data
// each step submits. Handlers stay thin; every rule about what may move
// where lives here or in the guard.
package engine

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"onboard/internal/enrichment"
	"onboard/internal/onboarding/catalog"
	"onboard/internal/onboarding/guard"
	"onboard/internal/onboarding/metrics"
	"onboard/internal/onboarding/models"
	"onboard/internal/onboarding/resolver"
	"onboard/internal/onboarding/store"
	"onboard/internal/token"
	"onboard/pkg/platform/audit"
	"onboard/pkg/requestcontext"
)

// CompliancePublisher emits regulatory-significant events with fail-closed
// semantics: a failed emit fails the operation.
type CompliancePublisher interface {
	Emit(ctx context.Context, event audit.ComplianceEvent) error
}

// SecurityPublisher emits security events asynchronously.
type SecurityPublisher interface {
	Emit(ctx context.Context, event audit.SecurityEvent)
}

// OpsPublisher emits operational events asynchronously, possibly sampled.
type OpsPublisher interface {
	Emit(ctx context.Context, event audit.OpsEvent)
}

// NavigationInstruction tells the transport layer where the client goes
// next and which token it should keep holding.
type NavigationInstruction struct {
	Destination catalog.Destination `json:"destination"`
	Token       string              `json:"token,omitempty"`
	Email       string              `json:"email,omitempty"`
}

// Engine coordinates sessions, the navigation guard, the platform API and
// the enrichment collaborator.
type Engine struct {
	sessions store.SessionStore
	resolver resolver.Client
	enrich   enrichment.Client
	tokens   *token.Service

	logger     *slog.Logger
	metrics    *metrics.Metrics
	compliance CompliancePublisher
	security   SecurityPublisher
	ops        OpsPublisher

	restores singleflight.Group
	now      func() time.Time
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithCompliancePublisher sets the fail-closed compliance audit publisher.
func WithCompliancePublisher(p CompliancePublisher) Option {
	return func(e *Engine) {
		e.compliance = p
	}
}

// WithSecurityPublisher sets the async security audit publisher.
func WithSecurityPublisher(p SecurityPublisher) Option {
	return func(e *Engine) {
		e.security = p
	}
}

// WithOpsPublisher sets the async operational audit publisher.
func WithOpsPublisher(p OpsPublisher) Option {
	return func(e *Engine) {
		e.ops = p
	}
}

// WithClock overrides the time source. Tests only.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New constructs an Engine. sessions, platform resolver, enrichment client
// and token service are required collaborators.
func New(sessions store.SessionStore, res resolver.Client, enrich enrichment.Client, tokens *token.Service, opts ...Option) *Engine {
	e := &Engine{
		sessions: sessions,
		resolver: res,
		enrich:   enrich,
		tokens:   tokens,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GoToStep executes a guard-checked transition to target and persists the
// session. allowForward bypasses the guard and is reserved for transitions
// backed by a confirmed platform response; direct navigation never sets it.
//
// A guard denial returns a GuardViolation error; the transport layer turns
// it into a no-op rather than surfacing it to the client.
func (e *Engine) GoToStep(ctx context.Context, session *models.Session, target catalog.Step, allowForward bool) (*NavigationInstruction, error) {
	if !allowForward {
		if err := guard.Check(session.CurrentStep, target); err != nil {
			if e.metrics != nil {
				e.metrics.RecordGuardRejection(string(target))
			}
			e.emitSecurity(ctx, audit.SecurityEvent{
				Subject:  session.ID.String(),
				Action:   string(audit.EventStepRejected),
				Step:     string(target),
				Reason:   "forward_navigation",
				Severity: audit.SeverityInfo,
			})
			return nil, err
		}
	}

	from := "unset"
	if step, ok := session.Step(); ok {
		from = string(step)
	}

	session.SetStep(target)
	session.UpdatedAt = e.now()
	if err := e.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.RecordTransition(string(target))
	}
	e.logger.InfoContext(ctx, "step transition applied",
		"session_id", session.ID,
		"from", from,
		"to", target,
	)

	return e.instructionFor(session, target), nil
}

// NextStep advances to the step after the current one in nominal order.
// At the last step, and when no step is set, the call is a no-op that
// returns the unchanged position: completion never slides anywhere by
// accident.
func (e *Engine) NextStep(ctx context.Context, session *models.Session) (*NavigationInstruction, error) {
	current, ok := session.Step()
	if !ok {
		return &NavigationInstruction{Destination: catalog.DestEntry}, nil
	}
	next, ok := catalog.Next(current)
	if !ok {
		return e.instructionFor(session, current), nil
	}
	// The caller just received a confirmed platform response for the
	// current step, so forward movement is legitimate here.
	return e.GoToStep(ctx, session, next, true)
}

// PrevStep moves to the step before the current one in nominal order. At
// the first step the call is a no-op.
func (e *Engine) PrevStep(ctx context.Context, session *models.Session) (*NavigationInstruction, error) {
	current, ok := session.Step()
	if !ok {
		return &NavigationInstruction{Destination: catalog.DestEntry}, nil
	}
	prev, ok := catalog.Prev(current)
	if !ok {
		return e.instructionFor(session, current), nil
	}
	return e.GoToStep(ctx, session, prev, false)
}

// Load returns the session persisted for a token.
func (e *Engine) Load(ctx context.Context, tok string) (*models.Session, error) {
	return e.sessions.FindByToken(ctx, tok)
}

// expire clears a session whose token the platform API no longer accepts.
// The stored record is deleted so a later restore starts from nothing.
func (e *Engine) expire(ctx context.Context, session *models.Session) {
	tok := session.Token
	session.Clear()
	if tok != "" {
		if err := e.sessions.DeleteByToken(ctx, tok); err != nil {
			e.logger.WarnContext(ctx, "failed to delete expired session",
				"session_id", session.ID, "error", err)
		}
	}
	if e.metrics != nil {
		e.metrics.SessionsExpired.Inc()
	}
	e.emitSecurity(ctx, audit.SecurityEvent{
		Subject:  session.ID.String(),
		Action:   string(audit.EventSessionExpired),
		Reason:   "invalid_token",
		Severity: audit.SeverityWarning,
	})
}

// rotateToken swaps the session onto a fresh token issued by the platform
// API. The old record is removed so the superseded token stops resolving.
func (e *Engine) rotateToken(ctx context.Context, session *models.Session, fresh string) error {
	old := session.Token
	if fresh == "" || fresh == old {
		return nil
	}
	session.Token = fresh
	if err := e.sessions.Save(ctx, session); err != nil {
		return err
	}
	if old != "" {
		if err := e.sessions.DeleteByToken(ctx, old); err != nil {
			e.logger.WarnContext(ctx, "failed to delete superseded token",
				"session_id", session.ID, "error", err)
		}
	}
	e.emitOps(ctx, audit.OpsEvent{
		Subject: session.ID.String(),
		Action:  string(audit.EventTokenRotated),
	})
	return nil
}

func (e *Engine) instructionFor(session *models.Session, step catalog.Step) *NavigationInstruction {
	return &NavigationInstruction{
		Destination: guard.RouteFor(step),
		Token:       session.Token,
		Email:       session.UserData.Email,
	}
}

func (e *Engine) emitCompliance(ctx context.Context, event audit.ComplianceEvent) error {
	event.RequestID = requestcontext.RequestID(ctx)
	e.logger.InfoContext(ctx, event.Action,
		"subject", event.Subject,
		"step", event.Step,
		"log_type", "audit",
	)
	if e.compliance == nil {
		return nil
	}
	return e.compliance.Emit(ctx, event)
}

func (e *Engine) emitSecurity(ctx context.Context, event audit.SecurityEvent) {
	event.RequestID = requestcontext.RequestID(ctx)
	event.Device = requestcontext.DeviceName(ctx)
	if e.security != nil {
		e.security.Emit(ctx, event)
	}
}

func (e *Engine) emitOps(ctx context.Context, event audit.OpsEvent) {
	event.RequestID = requestcontext.RequestID(ctx)
	if e.ops != nil {
		e.ops.Emit(ctx, event)
	}
}
