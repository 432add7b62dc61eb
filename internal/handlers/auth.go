package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hughigh/loginserver/config"
	"github.com/hughigh/loginserver/internal/services"
	"github.com/hughigh/loginserver/types"
)

const (
	stateCookieName    = "oauth_state"
	verifierCookieName = "oauth_verifier"

	// How long the state/PKCE cookies survive between the login request and
	// the provider callback.
	loginFlowTTL = 10 * time.Minute
)

// One generic message per login error category; raw detail stays server-side.
var loginErrorMessages = map[error]string{
	services.ErrUserNotRegistered: "login failed: contact your administrator",
	services.ErrEmailNotVerified:  "login failed: email address not verified",
}

const genericLoginFailure = "login failed"

// AuthHandler provides the Google OAuth login endpoints and session
// endpoints.
type AuthHandler struct {
	auth        *services.AuthService
	cookie      config.CookieConfig
	sessionTTL  time.Duration
	frontendURL string
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
// frontendURL is the base the post-login redirect paths are appended to.
func NewAuthHandler(auth *services.AuthService, cookie config.CookieConfig, sessionTTL time.Duration, frontendURL string) *AuthHandler {
	return &AuthHandler{
		auth:        auth,
		cookie:      cookie,
		sessionTTL:  sessionTTL,
		frontendURL: frontendURL,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler, guard *SessionGuard) {
	r.Get("/google/login", handler.GoogleLogin)
	r.Get("/google/callback", handler.GoogleCallback)
	r.With(guard.RequireAuth).Post("/logout", handler.Logout)
	r.With(guard.RequireAuth).Get("/me", handler.Me)
}

// GoogleLogin returns the Google authorization URL. The state and PKCE
// verifier the callback must present ride in short-lived HTTP-only cookies.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	url, state, verifier, err := h.auth.AuthorizationURL()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build authorization url")
		return
	}

	h.setFlowCookie(w, stateCookieName, state)
	h.setFlowCookie(w, verifierCookieName, verifier)
	writeJSON(w, http.StatusOK, GoogleAuthURLResponse{AuthURL: url})
}

// GoogleCallback receives the authorization code, runs the login flow, and
// on success sets the session cookie and returns the role-based redirect.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing code")
		return
	}

	ip, userAgent := clientInfo(r)

	// The state cookie may legitimately be gone (expired, cross-device
	// flows); when it is present it must match.
	if c, err := r.Cookie(stateCookieName); err == nil && c.Value != "" {
		if r.URL.Query().Get("state") != c.Value {
			h.clearFlowCookies(w)
			_ = h.auth.RejectCallback(r.Context(), "state mismatch", ip, userAgent)
			writeError(w, http.StatusUnauthorized, genericLoginFailure)
			return
		}
	}

	verifier := ""
	if c, err := r.Cookie(verifierCookieName); err == nil {
		verifier = c.Value
	}

	user, sessionToken, err := h.auth.LoginWithGoogle(r.Context(), code, verifier, ip, userAgent)
	h.clearFlowCookies(w)
	if err != nil {
		message, ok := loginErrorMessages[err]
		if !ok {
			message = genericLoginFailure
		}
		writeError(w, http.StatusUnauthorized, message)
		return
	}

	h.setSessionCookie(w, sessionToken)
	writeJSON(w, http.StatusOK, LoginResponse{
		Message:     "login successful",
		RedirectURL: h.frontendURL + redirectPath(user.Role),
	})
}

// Logout records the logout event and clears the session cookie. The token
// itself stays valid until expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ip, userAgent := clientInfo(r)
	h.auth.Logout(r.Context(), user, ip, userAgent)

	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the current authenticated user's summary.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, userSummary(user))
}

type GoogleAuthURLResponse struct {
	AuthURL string `json:"auth_url"`
}

type LoginResponse struct {
	Message     string `json:"message"`
	RedirectURL string `json:"redirect_url"`
}

// UserSummary is the /auth/me payload.
type UserSummary struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Role      types.Role `json:"role"`
	Name      *string    `json:"name"`
	StudentID *string    `json:"student_id"`
	ClassName *string    `json:"class_name"`
}

func userSummary(user types.User) UserSummary {
	return UserSummary{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		Name:      user.Name,
		StudentID: user.StudentID,
		ClassName: user.ClassName,
	}
}

func redirectPath(role types.Role) string {
	switch role {
	case types.RoleStudent:
		return "/students"
	case types.RoleTeacher:
		return "/teachers"
	case types.RoleAdmin:
		return "/admin"
	default:
		return "/"
	}
}

func (h *AuthHandler) setFlowCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/auth/google",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: sameSite(h.cookie.SameSite),
		MaxAge:   int(loginFlowTTL.Seconds()),
	})
}

func (h *AuthHandler) clearFlowCookies(w http.ResponseWriter) {
	for _, name := range []string{stateCookieName, verifierCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/auth/google",
			HttpOnly: true,
			MaxAge:   -1,
		})
	}
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   cookieDomain(h.cookie.Domain),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: sameSite(h.cookie.SameSite),
		MaxAge:   int(h.sessionTTL.Seconds()),
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   cookieDomain(h.cookie.Domain),
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// cookieDomain omits the domain attribute for localhost so browsers accept
// the cookie in development.
func cookieDomain(domain string) string {
	if domain == "localhost" {
		return ""
	}
	return domain
}

func sameSite(mode string) http.SameSite {
	switch mode {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
