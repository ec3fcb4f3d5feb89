package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"onboard/internal/onboarding/catalog"
	"onboard/internal/onboarding/guard"
	"onboard/internal/onboarding/models"
	"onboard/internal/onboarding/resolver"
	id "onboard/pkg/domain"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/platform/audit"
	"onboard/pkg/platform/sentinel"
)

// resolveRemap adjusts steps the platform API reports during restoration.
// The API still answers ORGANIZATION_INFO for accounts that finished the
// whole flow before the objectives steps were introduced; those land on
// the assessment, not back in the form.
var resolveRemap = map[catalog.Step]catalog.Step{
	catalog.StepOrganizationInfo: catalog.StepCompleted,
}

// RestoreResult is the outcome of a restoration attempt.
type RestoreResult struct {
	Session     *models.Session
	Instruction *NavigationInstruction
	// Retryable is set when restoration failed only because the platform
	// API was unreachable; the client may try again with the same token.
	Retryable bool
}

// Restore reconciles the session for a token against the platform API. The
// API's answer is authoritative: the step is overwritten (after the resolve
// remap), data fragments are merged additively, and a fresh token replaces
// the current one. Any resolver failure clears the session completely and
// routes to the entry point.
//
// Concurrent restores of the same token collapse into one resolver call.
func (e *Engine) Restore(ctx context.Context, tok string) (*RestoreResult, error) {
	// The flight is shared by every caller that joins it, so it must not die
	// with whichever request happened to start it.
	flightCtx := context.WithoutCancel(ctx)
	result, err, _ := e.restores.Do(tok, func() (any, error) {
		return e.restore(flightCtx, tok)
	})
	if result == nil {
		return nil, err
	}
	return result.(*RestoreResult), err
}

func (e *Engine) restore(ctx context.Context, tok string) (*RestoreResult, error) {
	session, err := e.sessions.FindByToken(ctx, tok)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		session = e.newSession(ctx, tok)
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load session")
	}
	session.IsRestoring = true
	defer func() { session.IsRestoring = false }()

	status, err := e.resolver.ResolveStatus(ctx, tok)
	if err != nil {
		return e.restoreFailed(ctx, session, err)
	}

	resolved, err := catalog.Parse(status.StepName)
	if err != nil {
		// An unknown step from the platform is a contract break, not a
		// bad token. Fail loudly and leave the session alone.
		e.logger.ErrorContext(ctx, "platform reported unknown step",
			"session_id", session.ID, "step", status.StepName)
		return nil, err
	}
	if remapped, ok := resolveRemap[resolved]; ok {
		resolved = remapped
	}

	session.UserData.Merge(models.Fragment{
		Email:        status.Email,
		Personal:     status.Personal,
		Organization: status.Organization,
		Objectives:   status.Objectives,
	})
	session.SetStep(resolved)
	session.UpdatedAt = e.now()

	if err := e.sessions.Save(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist restored session")
	}
	if err := e.rotateToken(ctx, session, status.FreshToken); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "rotate session token")
	}

	if e.metrics != nil {
		e.metrics.RecordRestore("ok")
	}
	e.emitOps(ctx, audit.OpsEvent{
		Subject: session.ID.String(),
		Action:  string(audit.EventSessionRestored),
		Step:    string(resolved),
	})
	e.logger.InfoContext(ctx, "session restored",
		"session_id", session.ID,
		"step", resolved,
		"rotated", status.FreshToken != "" && status.FreshToken != tok,
	)

	return &RestoreResult{
		Session:     session,
		Instruction: e.instructionFor(session, resolved),
	}, nil
}

// restoreFailed clears the session and routes to entry. No partial state
// survives a failed restoration.
func (e *Engine) restoreFailed(ctx context.Context, session *models.Session, cause error) (*RestoreResult, error) {
	e.expire(ctx, session)

	result := &RestoreResult{
		Session:     session,
		Instruction: &NavigationInstruction{Destination: guard.RouteFor(catalog.StepExpired)},
	}
	if errors.Is(cause, resolver.ErrRemoteUnavailable) {
		if e.metrics != nil {
			e.metrics.RecordRestore("unavailable")
		}
		result.Retryable = true
		return result, dErrors.Wrap(cause, dErrors.CodeUnavailable, "platform api unavailable")
	}
	if e.metrics != nil {
		e.metrics.RecordRestore("invalid_token")
	}
	return result, dErrors.Wrap(cause, dErrors.CodeUnauthorized, "registration token rejected")
}

// newSession starts tracking a registration attempt first seen via this
// token.
func (e *Engine) newSession(ctx context.Context, tok string) *models.Session {
	now := e.now()
	session := &models.Session{
		ID:        id.SessionID(uuid.New()),
		Token:     tok,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if e.metrics != nil {
		e.metrics.RegistrationsStarted.Inc()
	}
	e.emitOps(ctx, audit.OpsEvent{
		Subject:   session.ID.String(),
		Action:    string(audit.EventRegistrationStarted),
		Timestamp: now,
	})
	return session
}
