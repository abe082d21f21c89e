package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/autohub-api/internal/models"
	appErrors "github.com/noah-isme/autohub-api/pkg/errors"
)

func newUserFixture(t *testing.T) (*memStore, *UserService) {
	t.Helper()
	store := newMemStore()
	store.users["u-1"] = &models.User{ID: "u-1", Username: "alice", Role: models.RoleInspector, Active: false, PasswordHash: "old"}
	activity := NewActivityService(ledgerMem{store}, nil, nil)
	return store, NewUserService(userMem{store}, activity, nil, nil)
}

func TestUserServiceSetActive(t *testing.T) {
	store, svc := newUserFixture(t)

	user, err := svc.SetActive(context.Background(), adminActor, "u-1", true)
	require.NoError(t, err)
	assert.True(t, user.Active)
	assert.True(t, store.users["u-1"].Active)

	require.Len(t, store.ledger, 1)
	entry := store.ledger[0]
	assert.Equal(t, models.ActivityUserStatus, entry.Action)
	assert.Equal(t, adminActor.ID, entry.UserID)
	assert.Equal(t, "changed status of alice from disabled to active", entry.Details)

	_, err = svc.SetActive(context.Background(), adminActor, "missing", true)
	assert.True(t, errors.Is(err, appErrors.ErrUserNotFound))
	assert.Len(t, store.ledger, 1)
}

func TestUserServiceSetRole(t *testing.T) {
	store, svc := newUserFixture(t)

	_, err := svc.SetRole(context.Background(), adminActor, "u-1", "OWNER")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	user, err := svc.SetRole(context.Background(), adminActor, "u-1", models.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, user.Role)
	require.Len(t, store.ledger, 1)
	assert.Equal(t, "changed role of alice from INSPECTOR to MODERATOR", store.ledger[0].Details)
}

func TestUserServiceSetPassword(t *testing.T) {
	store, svc := newUserFixture(t)

	err := svc.SetPassword(context.Background(), adminActor, "u-1", "x")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	err = svc.SetPassword(context.Background(), adminActor, "u-1", strings.Repeat("ك", 40))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, "old", store.users["u-1"].PasswordHash)

	require.NoError(t, svc.SetPassword(context.Background(), adminActor, "u-1", "newpass"))
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(store.users["u-1"].PasswordHash), []byte("newpass")))
	require.Len(t, store.ledger, 1)
	assert.Equal(t, models.ActivityUserPassword, store.ledger[0].Action)
	assert.NotContains(t, store.ledger[0].Details, "newpass")
}

func TestUserServiceDelete(t *testing.T) {
	store, svc := newUserFixture(t)

	require.NoError(t, svc.DeleteUser(context.Background(), adminActor, "u-1"))
	assert.Empty(t, store.users)
	require.Len(t, store.ledger, 1)
	assert.Equal(t, models.ActivityDeleteUser, store.ledger[0].Action)

	err := svc.DeleteUser(context.Background(), adminActor, "u-1")
	assert.True(t, errors.Is(err, appErrors.ErrUserNotFound))
}

func TestUserServiceListPagination(t *testing.T) {
	_, svc := newUserFixture(t)

	users, page, err := svc.List(context.Background(), models.UserFilter{Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 1, page.TotalCount)
}
