package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hughigh/loginserver/internal/oauth"
	"github.com/hughigh/loginserver/internal/store"
	"github.com/hughigh/loginserver/internal/token"
	"github.com/hughigh/loginserver/types"
	"golang.org/x/oauth2"
)

// Login flow errors. Handlers map each one to a single generic user-facing
// message; raw provider or internal detail never leaves the server.
var (
	ErrTokenExchangeFailed = errors.New("TOKEN_EXCHANGE_FAILED")
	ErrEmailNotVerified    = errors.New("EMAIL_NOT_VERIFIED")
	ErrUserNotRegistered   = errors.New("USER_NOT_REGISTERED")
	ErrLoginUnknown        = errors.New("UNKNOWN_ERROR")
)

// error_code column is VARCHAR(50)
const maxErrorCodeLen = 50

// IdentityProvider is the Google-facing side of the login flow.
type IdentityProvider interface {
	AuthCodeURL(state, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error)
	FetchIdentity(ctx context.Context, tok *oauth2.Token) (*oauth.Identity, error)
}

// AuditRecorder records one auth event per login or logout attempt.
type AuditRecorder interface {
	Record(ctx context.Context, event types.AuthEvent) error
}

// AuthService drives the login flow: code exchange, identity retrieval,
// user matching, session token issuance, and audit logging.
type AuthService struct {
	provider IdentityProvider
	users    UserRepository
	audit    AuditRecorder
	codec    *token.Codec
	logger   *slog.Logger
}

func NewAuthService(provider IdentityProvider, users UserRepository, audit AuditRecorder, codec *token.Codec, logger *slog.Logger) *AuthService {
	return &AuthService{
		provider: provider,
		users:    users,
		audit:    audit,
		codec:    codec,
		logger:   logger,
	}
}

// AuthorizationURL builds the Google authorization URL along with the state
// and PKCE verifier the callback must present. No network call is made.
func (s *AuthService) AuthorizationURL() (url, state, verifier string, err error) {
	state, err = oauth.GenerateState()
	if err != nil {
		return "", "", "", err
	}
	verifier = oauth.GenerateVerifier()
	return s.provider.AuthCodeURL(state, verifier), state, verifier, nil
}

// LoginWithGoogle runs the full login sequence for an authorization code and
// returns the matched user with a freshly issued session token. Every
// attempt, success or failure, records exactly one audit event.
func (s *AuthService) LoginWithGoogle(ctx context.Context, code, verifier, ip, userAgent string) (types.User, string, error) {
	tok, err := s.provider.Exchange(ctx, code, verifier)
	if err != nil {
		s.record(ctx, types.EventLoginFailTokenExchange, nil, ip, userAgent, strPtr("TOKEN_EXCHANGE_FAILED"))
		return types.User{}, "", ErrTokenExchangeFailed
	}

	ident, err := s.provider.FetchIdentity(ctx, tok)
	if err != nil {
		return types.User{}, "", s.failOther(ctx, err, ip, userAgent)
	}

	if !ident.EmailVerified {
		s.record(ctx, types.EventLoginFailEmailNotVerified, nil, ip, userAgent, strPtr("EMAIL_NOT_VERIFIED"))
		return types.User{}, "", ErrEmailNotVerified
	}

	user, err := s.users.GetByEmail(ctx, ident.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// No self-registration: the account must already exist.
			s.record(ctx, types.EventLoginFailNotRegistered, nil, ip, userAgent, strPtr("USER_NOT_REGISTERED"))
			return types.User{}, "", ErrUserNotRegistered
		}
		return types.User{}, "", s.failOther(ctx, err, ip, userAgent)
	}

	if user.GoogleSubject == nil {
		// One-time binding; a concurrent login may win the race, in which
		// case the stored binding stands.
		bound, err := s.users.BindGoogleSubject(ctx, user.ID, ident.Subject)
		if err != nil {
			return types.User{}, "", s.failOther(ctx, err, ip, userAgent)
		}
		if bound {
			sub := ident.Subject
			user.GoogleSubject = &sub
		}
	}

	sessionToken, err := s.codec.Issue(user.ID, user.Role)
	if err != nil {
		return types.User{}, "", s.failOther(ctx, err, ip, userAgent)
	}

	s.record(ctx, types.EventLoginSuccess, &user.ID, ip, userAgent, nil)
	return user, sessionToken, nil
}

// Logout records the logout event. Session tokens are stateless, so the
// outstanding token stays valid until it expires; only the client-held copy
// is cleared by the handler.
func (s *AuthService) Logout(ctx context.Context, user types.User, ip, userAgent string) {
	s.record(ctx, types.EventLogout, &user.ID, ip, userAgent, nil)
}

// RejectCallback audits a callback rejected before the exchange could run
// (e.g. a state mismatch) and returns the generic login error.
func (s *AuthService) RejectCallback(ctx context.Context, reason, ip, userAgent string) error {
	s.record(ctx, types.EventLoginFailOther, nil, ip, userAgent, strPtr(truncate(reason)))
	return ErrLoginUnknown
}

// failOther is the catch-all terminal failure: the truncated error text goes
// to the audit trail, the caller only sees UNKNOWN_ERROR.
func (s *AuthService) failOther(ctx context.Context, cause error, ip, userAgent string) error {
	s.logger.Error("login failed", "error", cause)
	s.record(ctx, types.EventLoginFailOther, nil, ip, userAgent, strPtr(truncate(cause.Error())))
	return ErrLoginUnknown
}

func (s *AuthService) record(ctx context.Context, eventType string, userID *string, ip, userAgent string, errorCode *string) {
	err := s.audit.Record(ctx, types.AuthEvent{
		UserID:    userID,
		EventType: eventType,
		IPAddress: ip,
		UserAgent: userAgent,
		ErrorCode: errorCode,
	})
	if err != nil {
		s.logger.Error("audit record failed", "event_type", eventType, "error", err)
	}
}

func truncate(s string) string {
	if len(s) > maxErrorCodeLen {
		return s[:maxErrorCodeLen]
	}
	return s
}

func strPtr(s string) *string {
	return &s
}
