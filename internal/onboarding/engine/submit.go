package engine

import (
	"context"
	"errors"

	"onboard/internal/onboarding/catalog"
	"onboard/internal/onboarding/models"
	"onboard/internal/onboarding/resolver"
	"onboard/internal/onboarding/secrets"
	"onboard/internal/onboarding/selection"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/email"
	"onboard/pkg/platform/audit"
	"onboard/pkg/platform/sentinel"
)

// SubmitOutcome is the result of a successful step submission.
type SubmitOutcome struct {
	Session     *models.Session
	Instruction *NavigationInstruction
	// AccessToken is issued once the registration reaches COMPLETED and
	// authorizes the assessment phase. Empty otherwise.
	AccessToken string
}

// VerifyEmailRequest carries the emailed verification code.
type VerifyEmailRequest struct {
	Code string `json:"code"`
}

// PersonalInfoRequest carries the personal-info form. The plaintext password
// travels to the platform API inside this request and is hashed before
// anything is stored locally.
type PersonalInfoRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	JobTitle  string `json:"job_title,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Password  string `json:"password"`
}

// OrganizationRequest carries the organization form.
type OrganizationRequest struct {
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
	Website string `json:"website,omitempty"`
}

// VerifyEmail confirms the emailed code with the platform API and advances
// past EMAIL_SENT.
func (e *Engine) VerifyEmail(ctx context.Context, tok string, req VerifyEmailRequest) (*SubmitOutcome, error) {
	if req.Code == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "verification code is required")
	}
	return e.submit(ctx, tok, req, models.Fragment{}, audit.EventEmailVerified)
}

// SubmitPersonalInfo submits the personal details. Only a bcrypt hash of the
// password survives in the session; the plaintext exists for the lifetime of
// this call.
func (e *Engine) SubmitPersonalInfo(ctx context.Context, tok string, req PersonalInfoRequest) (*SubmitOutcome, error) {
	if req.FirstName == "" || req.LastName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "first and last name are required")
	}
	if req.Password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password is required")
	}

	hash, err := secrets.Hash(req.Password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}
	fragment := models.Fragment{
		Personal: &models.PersonalInfo{
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			JobTitle:     req.JobTitle,
			Phone:        req.Phone,
			PasswordHash: hash,
		},
	}
	return e.submit(ctx, tok, req, fragment, audit.EventPersonalInfoSubmitted)
}

// SubmitOrganizationInfo submits the organization profile. Enrichment
// candidates are fetched for both dimensions; when the user has no prior
// selection, everything the enrichment proposes starts selected. An
// enrichment failure degrades to a submission without candidates rather
// than blocking the step.
func (e *Engine) SubmitOrganizationInfo(ctx context.Context, tok string, req OrganizationRequest) (*SubmitOutcome, error) {
	if req.Name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "organization name is required")
	}

	org := models.OrganizationInfo{
		Name:    req.Name,
		Country: req.Country,
		Website: req.Website,
	}

	if prior, err := e.sessions.FindByToken(ctx, tok); err == nil && prior.UserData.Organization != nil {
		org.SelectedObjectives = prior.UserData.Organization.SelectedObjectives
		org.SelectedFrameworks = prior.UserData.Organization.SelectedFrameworks
	}

	if e.enrich != nil {
		candidates, err := e.enrich.Candidates(ctx, org)
		if err != nil {
			e.logger.WarnContext(ctx, "enrichment unavailable, submitting without candidates",
				"organization", org.Name, "error", err)
		} else {
			org.ObjectiveCandidates = candidates.Objectives
			org.FrameworkCandidates = candidates.Frameworks
			org.SelectedObjectives = selection.Apply(org.SelectedObjectives, candidates.Objectives)
			org.SelectedFrameworks = selection.Apply(org.SelectedFrameworks, candidates.Frameworks)
		}
	}

	return e.submit(ctx, tok, req, models.Fragment{Organization: &org}, audit.EventOrganizationSubmitted)
}

// SubmitObjectiveInfo submits the selected objectives or frameworks and
// advances through the objectives steps toward COMPLETED.
func (e *Engine) SubmitObjectiveInfo(ctx context.Context, tok string, req models.ObjectiveInfo) (*SubmitOutcome, error) {
	fragment := models.Fragment{Objectives: &req}
	return e.submit(ctx, tok, req, fragment, audit.EventObjectivesSubmitted)
}

// submit runs the shared submission sequence: load the session, post the
// payload for its current step, and only after the platform confirms merge
// the fragment and advance. Local state never moves ahead of the backend.
func (e *Engine) submit(ctx context.Context, tok string, payload any, fragment models.Fragment, action audit.AuditEvent) (*SubmitOutcome, error) {
	session, err := e.sessions.FindByToken(ctx, tok)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown registration token")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load session")
	}
	current, ok := session.Step()
	if !ok || current == catalog.StepExpired {
		return nil, dErrors.New(dErrors.CodeBadRequest, "session has no active step")
	}

	session.IsLoading = true
	result, err := e.resolver.SubmitStep(ctx, string(current), tok, payload)
	session.IsLoading = false
	if err != nil {
		return nil, e.submitFailed(ctx, session, current, err)
	}
	if !result.Success {
		e.emitSecurity(ctx, audit.SecurityEvent{
			Subject:  session.ID.String(),
			Action:   string(audit.EventStepRejected),
			Step:     string(current),
			Reason:   result.Message,
			Severity: audit.SeverityInfo,
		})
		return nil, dErrors.New(dErrors.CodeValidation, result.Message)
	}

	session.UserData.Merge(fragment)

	next, err := e.nextAfterSubmit(session, current, result.FreshStep)
	if err != nil {
		return nil, err
	}
	session.SetStep(next)
	session.UpdatedAt = e.now()
	if err := e.sessions.Save(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist session")
	}
	if err := e.rotateToken(ctx, session, result.FreshToken); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "rotate session token")
	}

	if e.metrics != nil {
		e.metrics.RecordTransition(string(next))
	}
	if err := e.emitCompliance(ctx, audit.ComplianceEvent{
		UserID:  session.UserID,
		Subject: session.ID.String(),
		Action:  string(action),
		Step:    string(current),
		Email:   email.Mask(session.UserData.Email),
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "record audit event")
	}

	outcome := &SubmitOutcome{
		Session:     session,
		Instruction: e.instructionFor(session, next),
	}
	if next == catalog.StepCompleted {
		if err := e.complete(ctx, session, outcome); err != nil {
			return nil, err
		}
	}
	return outcome, nil
}

// nextAfterSubmit picks the step to land on after a confirmed submission.
// The platform's fresh step wins when it names one; a fresh step that would
// regress an already-advanced session is stale and is discarded.
func (e *Engine) nextAfterSubmit(session *models.Session, current catalog.Step, freshStep string) (catalog.Step, error) {
	if freshStep != "" {
		fresh, err := catalog.Parse(freshStep)
		if err != nil {
			return "", err
		}
		if catalog.Rank(fresh) < session.StepNumber {
			e.logger.Warn("discarding stale step from platform response",
				"session_id", session.ID,
				"fresh", fresh,
				"current_rank", session.StepNumber,
			)
			return current, nil
		}
		return fresh, nil
	}
	next, ok := catalog.Next(current)
	if !ok {
		return current, nil
	}
	return next, nil
}

// complete finishes the registration: a completion event is recorded and an
// access token for the assessment phase is issued.
func (e *Engine) complete(ctx context.Context, session *models.Session, outcome *SubmitOutcome) error {
	if e.metrics != nil {
		e.metrics.RegistrationsCompleted.Inc()
	}
	if err := e.emitCompliance(ctx, audit.ComplianceEvent{
		UserID:  session.UserID,
		Subject: session.ID.String(),
		Action:  string(audit.EventRegistrationCompleted),
		Step:    string(catalog.StepCompleted),
		Email:   email.Mask(session.UserData.Email),
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "record completion event")
	}

	accessToken, err := e.tokens.Issue(session.ID, string(catalog.StepCompleted))
	if err != nil {
		return err
	}
	outcome.AccessToken = accessToken
	e.logger.InfoContext(ctx, "registration completed", "session_id", session.ID)
	return nil
}

// submitFailed maps resolver errors onto the session. An invalid token
// expires the session; an unavailable platform leaves it untouched so the
// user can retry.
func (e *Engine) submitFailed(ctx context.Context, session *models.Session, step catalog.Step, cause error) error {
	if errors.Is(cause, resolver.ErrInvalidToken) {
		e.expire(ctx, session)
		return dErrors.Wrap(cause, dErrors.CodeUnauthorized, "registration token rejected")
	}
	if errors.Is(cause, resolver.ErrRemoteUnavailable) {
		return dErrors.Wrap(cause, dErrors.CodeUnavailable, "platform api unavailable")
	}
	e.logger.ErrorContext(ctx, "step submission failed",
		"session_id", session.ID, "step", step, "error", cause)
	return dErrors.Wrap(cause, dErrors.CodeInternal, "submit step")
}
