package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hughigh/loginserver/internal/oauth"
	"github.com/hughigh/loginserver/internal/store"
	"github.com/hughigh/loginserver/types"
	"golang.org/x/oauth2"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	users       map[string]types.User
	nextID      int
	createCalls int
	emailCalls  int
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
	r.emailCalls++
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
	r.createCalls++
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

// fakeAudit collects recorded events.
type fakeAudit struct {
	events []types.AuthEvent
}

func (a *fakeAudit) Record(_ context.Context, event types.AuthEvent) error {
	a.events = append(a.events, event)
	return nil
}

// fakeProvider scripts the Google side of the flow.
type fakeProvider struct {
	authURL       string
	exchangeErr   error
	fetchErr      error
	identity      *oauth.Identity
	lastState     string
	lastVerifier  string
	exchangeCalls int
}

func (p *fakeProvider) AuthCodeURL(state, verifier string) string {
	p.lastState = state
	p.lastVerifier = verifier
	return p.authURL + "?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code, verifier string) (*oauth2.Token, error) {
	p.exchangeCalls++
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
