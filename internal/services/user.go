package services

import (
	"context"
	"errors"

	"github.com/hughigh/loginserver/internal/store"
	"github.com/hughigh/loginserver/types"
)

// ErrSelfDelete is returned when an admin tries to delete their own account.
var ErrSelfDelete = errors.New("cannot delete own account")

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByGoogleSubject(ctx context.Context, sub string) (types.User, error)
	List(ctx context.Context, skip, limit int) ([]types.User, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id string) error
	BindGoogleSubject(ctx context.Context, id, sub string) (bool, error)
}

// CreateUser carries the admin-supplied fields for a new account.
type CreateUser struct {
	Email     string
	Role      types.Role
	Name      *string
	StudentID *string
	ClassName *string
}

// UpdateUser carries a partial update; nil fields are left unchanged.
type UpdateUser struct {
	Email     *string
	Role      *types.Role
	Name      *string
	StudentID *string
	ClassName *string
}

// UserService encapsulates user management use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns one page of users and the total count.
func (s *UserService) List(ctx context.Context, skip, limit int) ([]types.User, int, error) {
	users, err := s.repo.List(ctx, skip, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Create registers a new account. The email is checked for duplicates before
// any row is written; the store's unique constraint backstops the race.
func (s *UserService) Create(ctx context.Context, params CreateUser) (types.User, error) {
	if _, err := s.repo.GetByEmail(ctx, params.Email); err == nil {
		return types.User{}, store.ErrDuplicate
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}

	return s.repo.Create(ctx, types.User{
		Email:     params.Email,
		Role:      params.Role,
		Name:      params.Name,
		StudentID: params.StudentID,
		ClassName: params.ClassName,
	})
}

// Update applies a partial update. A changed email is checked for duplicates
// against other accounts first.
func (s *UserService) Update(ctx context.Context, id string, params UpdateUser) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}

	if params.Email != nil && *params.Email != user.Email {
		if _, err := s.repo.GetByEmail(ctx, *params.Email); err == nil {
			return types.User{}, store.ErrDuplicate
		} else if !errors.Is(err, store.ErrNotFound) {
			return types.User{}, err
		}
		user.Email = *params.Email
	}
	if params.Role != nil {
		user.Role = *params.Role
	}
	if params.Name != nil {
		user.Name = params.Name
	}
	if params.StudentID != nil {
		user.StudentID = params.StudentID
	}
	if params.ClassName != nil {
		user.ClassName = params.ClassName
	}

	return s.repo.Update(ctx, user)
}

// Delete removes an account. actorID is the authenticated admin performing
// the request; deleting oneself is rejected.
func (s *UserService) Delete(ctx context.Context, id, actorID string) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.ID == actorID {
		return ErrSelfDelete
	}
	return s.repo.Delete(ctx, user.ID)
}
