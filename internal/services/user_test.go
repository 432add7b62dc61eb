package services

import (
	"context"
	"testing"

	"github.com/hughigh/loginserver/internal/store"
	"github.com/hughigh/loginserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(types.User{Email: "taken@school.test", Role: types.RoleStudent})
	svc := NewUserService(repo)

	_, err := svc.Create(context.Background(), CreateUser{Email: "taken@school.test", Role: types.RoleStudent})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	// Rejected before any row is written.
	assert.Zero(t, repo.createCalls)
}

func TestCreateUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo)

	name := "Taro Yamada"
	user, err := svc.Create(context.Background(), CreateUser{
		Email: "new@school.test",
		Role:  types.RoleTeacher,
		Name:  &name,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, types.RoleTeacher, user.Role)
	assert.Nil(t, user.GoogleSubject)
}

func TestUpdateUserDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(types.User{Email: "a@school.test", Role: types.RoleStudent})
	target := repo.add(types.User{Email: "b@school.test", Role: types.RoleStudent})
	svc := NewUserService(repo)

	email := "a@school.test"
	_, err := svc.Update(context.Background(), target.ID, UpdateUser{Email: &email})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestUpdateUserPartial(t *testing.T) {
	repo := newFakeUserRepo()
	name := "Before"
	target := repo.add(types.User{Email: "c@school.test", Role: types.RoleStudent, Name: &name})
	svc := NewUserService(repo)

	role := types.RoleTeacher
	updated, err := svc.Update(context.Background(), target.ID, UpdateUser{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, types.RoleTeacher, updated.Role)
	// Untouched fields survive.
	require.NotNil(t, updated.Name)
	assert.Equal(t, "Before", *updated.Name)
	assert.Equal(t, "c@school.test", updated.Email)
}

func TestUpdateUserNotFound(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	_, err := svc.Update(context.Background(), "missing", UpdateUser{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteUserSelf(t *testing.T) {
	repo := newFakeUserRepo()
	admin := repo.add(types.User{Email: "admin@school.test", Role: types.RoleAdmin})
	svc := NewUserService(repo)

	err := svc.Delete(context.Background(), admin.ID, admin.ID)
	assert.ErrorIs(t, err, ErrSelfDelete)

	_, err = repo.GetByID(context.Background(), admin.ID)
	assert.NoError(t, err)
}

func TestDeleteUser(t *testing.T) {
	repo := newFakeUserRepo()
	admin := repo.add(types.User{Email: "admin@school.test", Role: types.RoleAdmin})
	other := repo.add(types.User{Email: "other@school.test", Role: types.RoleStudent})
	svc := NewUserService(repo)

	require.NoError(t, svc.Delete(context.Background(), other.ID, admin.ID))

	_, err := repo.GetByID(context.Background(), other.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListUsers(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(types.User{Email: "a@school.test", Role: types.RoleStudent})
	repo.add(types.User{Email: "b@school.test", Role: types.RoleTeacher})
	svc := NewUserService(repo)

	users, total, err := svc.List(context.Background(), 0, 100)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, 2, total)
}
