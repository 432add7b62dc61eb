package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hughigh/loginserver/config"
	"github.com/hughigh/loginserver/internal/oauth"
	"github.com/hughigh/loginserver/internal/services"
	"github.com/hughigh/loginserver/internal/store"
	"github.com/hughigh/loginserver/internal/token"
	"github.com/hughigh/loginserver/types"
	"golang.org/x/oauth2"
)

const testFrontendURL = "http://localhost:3000"

// testEnv wires the full handler stack over in-memory fakes.
type testEnv struct {
	router   *chi.Mux
	repo     *fakeUserRepo
	events   *fakeEventRepo
	codec    *token.Codec
	provider *fakeProvider
}

func newTestEnv() *testEnv {
	repo := newFakeUserRepo()
	events := &fakeEventRepo{}
	codec := token.NewCodec("handler-secret", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := &fakeProvider{authURL: "https://accounts.google.com/o/oauth2/v2/auth"}

	auditService := services.NewAuditService(events, nil, "auth-events", logger)
	userService := services.NewUserService(repo)
	authService := services.NewAuthService(provider, repo, auditService, codec, logger)

	guard := NewSessionGuard(userService, codec)
	cookieCfg := config.CookieConfig{Secure: false, SameSite: "lax", Domain: "localhost"}
	authHandler := NewAuthHandler(authService, cookieCfg, time.Hour, testFrontendURL)
	adminHandler := NewAdminHandler(userService, auditService)

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, authHandler, guard)
	})
	router.Route("/admin", func(r chi.Router) {
		AdminRouter(r, adminHandler, guard)
	})
	router.Route("/students", func(r chi.Router) {
		r.Use(guard.RequireAuth, guard.RequireRole(types.RoleStudent))
		r.Get("/dashboard", StudentDashboard)
	})
	router.Route("/teachers", func(r chi.Router) {
		r.Use(guard.RequireAuth, guard.RequireRole(types.RoleTeacher, types.RoleAdmin))
		r.Get("/dashboard", TeacherDashboard)
	})

	return &testEnv{
		router:   router,
		repo:     repo,
		events:   events,
		codec:    codec,
		provider: provider,
	}
}

// addUser registers a user and returns it with a valid session token.
func (e *testEnv) addUser(email string, role types.Role) (types.User, string) {
	user := e.repo.add(types.User{Email: email, Role: role})
	tokenString, err := e.codec.Issue(user.ID, user.Role)
	if err != nil {
		panic(err)
	}
	return user, tokenString
}

type fakeUserRepo struct {
	users  map[string]types.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]types.User{}}
}

func (r *fakeUserRepo) add(user types.User) types.User {
	if user.ID == "" {
		r.nextID++
		user.ID = fmt.Sprintf("user-%d", r.nextID)
	}
	r.users[user.ID] = user
	return user
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) GetByGoogleSubject(_ context.Context, sub string) (types.User, error) {
	for _, user := range r.users {
		if user.GoogleSubject != nil && *user.GoogleSubject == sub {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) List(_ context.Context, skip, limit int) ([]types.User, error) {
	all := make([]types.User, 0, len(r.users))
	for _, user := range r.users {
		all = append(all, user)
	}
	if skip >= len(all) {
		return []types.User{}, nil
	}
	end := skip + limit
	if end > len(all) {
		end = len(all)
	}
	return all[skip:end], nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int, error) {
	return len(r.users), nil
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	return r.add(user), nil
}

func (r *fakeUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) BindGoogleSubject(_ context.Context, id, sub string) (bool, error) {
	user, ok := r.users[id]
	if !ok || user.GoogleSubject != nil {
		return false, nil
	}
	user.GoogleSubject = &sub
	r.users[id] = user
	return true, nil
}

type fakeEventRepo struct {
	events []types.AuthEvent
	nextID int
}

func (r *fakeEventRepo) Insert(_ context.Context, event types.AuthEvent) (types.AuthEvent, error) {
	r.nextID++
	event.ID = fmt.Sprintf("event-%d", r.nextID)
	event.OccurredAt = time.Now()
	r.events = append(r.events, event)
	return event, nil
}

func (r *fakeEventRepo) List(_ context.Context, skip, limit int, eventType string) ([]types.AuthEvent, error) {
	matched := []types.AuthEvent{}
	for _, event := range r.events {
		if eventType == "" || event.EventType == eventType {
			matched = append(matched, event)
		}
	}
	if skip >= len(matched) {
		return []types.AuthEvent{}, nil
	}
	end := skip + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], nil
}

func (r *fakeEventRepo) Count(_ context.Context, eventType string) (int, error) {
	count := 0
	for _, event := range r.events {
		if eventType == "" || event.EventType == eventType {
			count++
		}
	}
	return count, nil
}

type fakeProvider struct {
	authURL      string
	exchangeErr  error
	fetchErr     error
	identity     *oauth.Identity
	lastVerifier string
}

func (p *fakeProvider) AuthCodeURL(state, verifier string) string {
	return p.authURL + "?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code, verifier string) (*oauth2.Token, error) {
	p.lastVerifier = verifier
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &oauth2.Token{AccessToken: "provider-access-token"}, nil
}

func (p *fakeProvider) FetchIdentity(_ context.Context, _ *oauth2.Token) (*oauth.Identity, error) {
	if p.fetchErr != nil {
		return nil, p.fetchErr
	}
	return p.identity, nil
}
