package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"church-portal/internal/audit"
	"church-portal/internal/authstate"
	identitydomain "church-portal/internal/identity/domain"
	"church-portal/internal/platform/validate"
	profiledomain "church-portal/internal/profile/domain"
	sessiondomain "church-portal/internal/session/domain"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// SignUpInput is a registration form.
type SignUpInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Role            profiledomain.Role
	ChurchID        string
}

// SignInResult holds the new session and the identity it belongs to.
type SignInResult struct {
	Session  *sessiondomain.Session
	Identity identitydomain.Identity
}

// SignUpResult holds the created identity. Session is nil when the provider requires
// email confirmation before sign-in.
type SignUpResult struct {
	Identity identitydomain.Identity
	Session  *sessiondomain.Session
}

// AuthService runs the credential flows. Credential errors are returned as
// *identitydomain.CredentialError; provider outages wrap identitydomain.ErrBackendUnavailable.
type AuthService struct {
	provider    Provider
	sessions    Sessions
	notifier    Notifier
	provisioner ProfileProvisioner
	audit       audit.AuditLogger
	logger      *zap.Logger
}

// NewAuthService returns an AuthService. notifier, provisioner, auditLogger and logger may be nil.
func NewAuthService(provider Provider, sessions Sessions, notifier Notifier, provisioner ProfileProvisioner, auditLogger audit.AuditLogger, logger *zap.Logger) *AuthService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		provider:    provider,
		sessions:    sessions,
		notifier:    notifier,
		provisioner: provisioner,
		audit:       auditLogger,
		logger:      logger,
	}
}

// SignIn verifies email and password with the provider and starts a session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalidInput("Email and password are required.")
	}
	toks, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.logFailure("sign in failed", err, zap.String("email", email))
		if _, ok := identitydomain.AsCredentialError(err); ok {
			s.audit.LogEvent(ctx, "", "", audit.ActionLoginFailure, audit.ResourceAuth, map[string]string{"email": email})
		}
		return nil, err
	}
	sess, err := s.sessions.Start(ctx, toks)
	if err != nil {
		s.logger.Error("failed to start session", zap.String("user_id", toks.Identity.ID), zap.Error(err))
		return nil, err
	}
	ident := toks.Identity
	s.notifier.Notify(sess.ID, authstate.Event{Kind: authstate.SignedIn, Identity: &ident})
	s.audit.LogEvent(ctx, ident.Attributes.ChurchID, ident.ID, audit.ActionLoginSuccess, audit.ResourceAuth, nil)
	return &SignInResult{Session: sess, Identity: ident}, nil
}

// SignUp registers a new identity and, when the provider returns tokens, signs it in.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*SignUpResult, error) {
	ident, toks, err := s.register(ctx, in)
	if err != nil {
		return nil, err
	}
	res := &SignUpResult{Identity: *ident}
	if toks.AccessToken == "" {
		return res, nil
	}
	sess, err := s.sessions.Start(ctx, toks)
	if err != nil {
		s.logger.Error("failed to start session after sign up", zap.String("user_id", ident.ID), zap.Error(err))
		return res, nil
	}
	s.notifier.Notify(sess.ID, authstate.Event{Kind: authstate.SignedIn, Identity: ident})
	res.Session = sess
	return res, nil
}

// CreateAccount registers an identity on behalf of an administrator. No session is started.
func (s *AuthService) CreateAccount(ctx context.Context, actorID string, in SignUpInput) (*identitydomain.Identity, error) {
	ident, _, err := s.register(ctx, in)
	if err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, in.ChurchID, actorID, audit.ActionMemberCreated, audit.ResourceProfile,
		map[string]string{"member_id": ident.ID, "role": string(in.Role)})
	return ident, nil
}

// SignOut revokes the provider session, deletes the session record and tears down its
// auth state. Provider failures are logged; the local session is removed regardless.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		s.logger.Warn("session store unavailable during sign out", zap.Error(err))
	}
	if sess != nil {
		if err := s.provider.SignOut(ctx, sess.AccessToken); err != nil {
			s.logger.Warn("provider sign out failed", zap.String("user_id", sess.UserID), zap.Error(err))
		}
		s.audit.LogEvent(ctx, "", sess.UserID, audit.ActionLogout, audit.ResourceAuth, nil)
	}
	s.notifier.Notify(sessionID, authstate.Event{Kind: authstate.SignedOut})
	return s.sessions.End(ctx, sessionID)
}

func (s *AuthService) register(ctx context.Context, in SignUpInput) (*identitydomain.Identity, *identitydomain.Tokens, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Role == "" {
		in.Role = profiledomain.RoleMember
	}
	if err := ValidateSignUp(in); err != nil {
		return nil, nil, err
	}
	toks, err := s.provider.SignUp(ctx, in.Email, in.Password, identitydomain.Attributes{
		Name:     in.Name,
		Role:     string(in.Role),
		ChurchID: in.ChurchID,
	})
	if err != nil {
		s.logFailure("sign up failed", err, zap.String("email", in.Email))
		return nil, nil, err
	}
	ident := toks.Identity
	s.provision(ctx, &ident, in)
	s.audit.LogEvent(ctx, in.ChurchID, ident.ID, audit.ActionSignUp, audit.ResourceAuth, map[string]string{"role": string(in.Role)})
	return &ident, toks, nil
}

// provision writes the profile row so the account is usable even where the database
// has no sign-up trigger. A failure leaves the account unprovisioned, which pages handle.
func (s *AuthService) provision(ctx context.Context, ident *identitydomain.Identity, in SignUpInput) {
	if s.provisioner == nil {
		return
	}
	err := s.provisioner.Upsert(ctx, &profiledomain.Profile{
		ID:       ident.ID,
		Email:    in.Email,
		Name:     in.Name,
		Role:     in.Role,
		ChurchID: in.ChurchID,
	})
	if err != nil {
		s.logger.Warn("profile provisioning failed", zap.String("user_id", ident.ID), zap.Error(err))
	}
}

func (s *AuthService) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	switch {
	case errors.Is(err, identitydomain.ErrBackendUnavailable):
		s.logger.Warn(msg, fields...)
	default:
		if _, ok := identitydomain.AsCredentialError(err); ok {
			s.logger.Info(msg, fields...)
			return
		}
		s.logger.Error(msg, fields...)
	}
}

// ValidateSignUp checks a registration form before it reaches the provider.
func ValidateSignUp(in SignUpInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalidInput("Name is required.")
	}
	if err := validateEmail(normalizeEmail(in.Email)); err != nil {
		return err
	}
	if len(in.Password) < MinPasswordLength {
		return &identitydomain.CredentialError{Reason: identitydomain.ReasonWeakPassword}
	}
	if in.Password != in.ConfirmPassword {
		return invalidInput("Passwords do not match.")
	}
	if _, ok := profiledomain.ParseRole(string(in.Role)); !ok {
		return invalidInput("Unknown role.")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return invalidInput("Email is required.")
	}
	if !validate.Email(email) {
		return invalidInput("Please enter a valid email address.")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func invalidInput(msg string) error {
	return &identitydomain.CredentialError{Reason: identitydomain.ReasonInvalidInput, Detail: msg}
}
