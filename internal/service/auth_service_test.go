package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/autohub-api/internal/models"
	appErrors "github.com/noah-isme/autohub-api/pkg/errors"
)

func newAuthFixture(t *testing.T) (*memStore, *AuthService) {
	t.Helper()
	store := newMemStore()
	activity := NewActivityService(ledgerMem{store}, nil, nil)
	svc := NewAuthService(userMem{store}, activity, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "autohub-test",
	})
	return store, svc
}

func TestRegisterSetsActiveByRole(t *testing.T) {
	store, svc := newAuthFixture(t)
	ctx := context.Background()

	inspector, err := svc.Register(ctx, models.RegisterRequest{Username: " alice ", Password: "pw1", Role: models.RoleInspector})
	require.NoError(t, err)
	assert.Equal(t, "alice", inspector.Username)
	assert.False(t, inspector.Active)
	assert.NotEqual(t, "pw1", inspector.PasswordHash)

	viewer, err := svc.Register(ctx, models.RegisterRequest{Username: "bob", Password: "pw2", Role: models.RoleUser, NationalID: "3201"})
	require.NoError(t, err)
	assert.True(t, viewer.Active)
	require.NotNil(t, viewer.NationalID)
	assert.Equal(t, "3201", *viewer.NationalID)

	require.Len(t, store.ledger, 2)
	assert.Equal(t, models.ActivityRegister, store.ledger[0].Action)
	assert.Equal(t, inspector.ID, store.ledger[0].UserID)
	assert.Equal(t, "registered as INSPECTOR", store.ledger[0].Details)
}

func TestRegisterRejectsDuplicateAndInvalid(t *testing.T) {
	store, svc := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, models.RegisterRequest{Username: "alice", Password: "pw1", Role: models.RoleUser})
	require.NoError(t, err)

	_, err = svc.Register(ctx, models.RegisterRequest{Username: "alice", Password: "other", Role: models.RoleUser})
	assert.True(t, errors.Is(err, appErrors.ErrDuplicateUsername))

	_, err = svc.Register(ctx, models.RegisterRequest{Username: "carol", Password: "pw", Role: "OWNER"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Register(ctx, models.RegisterRequest{Username: "dave", Password: "  ", Role: models.RoleUser})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	assert.Len(t, store.ledger, 1)
}

func TestPasswordLimitCountsBytes(t *testing.T) {
	store, svc := newAuthFixture(t)
	ctx := context.Background()
	arabic := strings.Repeat("ك", 40)

	_, err := svc.Register(ctx, models.RegisterRequest{Username: "layla", Password: arabic, Role: models.RoleUser})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, store.users)

	_, err = svc.EnsureBootstrapAdmin(ctx, "root", arabic)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	user, err := svc.Register(ctx, models.RegisterRequest{Username: "layla", Password: strings.Repeat("ك", 36), Role: models.RoleUser})
	require.NoError(t, err)
	assert.True(t, user.Active)
}

func TestAuthenticate(t *testing.T) {
	store, svc := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, models.RegisterRequest{Username: "alice", Password: "secret1", Role: models.RoleInspector})
	require.NoError(t, err)
	_, err = svc.Register(ctx, models.RegisterRequest{Username: "bob", Password: "secret2", Role: models.RoleUser})
	require.NoError(t, err)
	before := len(store.ledger)

	_, err = svc.Authenticate(ctx, "alice", "secret1")
	assert.True(t, errors.Is(err, appErrors.ErrAccountDisabled))

	_, err = svc.Authenticate(ctx, "bob", "wrong")
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Authenticate(ctx, "nobody", "secret2")
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Authenticate(ctx, "", "")
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))
	assert.Len(t, store.ledger, before)

	user, err := svc.Authenticate(ctx, " bob ", " secret2 ")
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
	require.Len(t, store.ledger, before+1)
	assert.Equal(t, models.ActivityLogin, store.lastEntry().Action)
	assert.Equal(t, user.ID, store.lastEntry().UserID)
}

func TestLoginIssuesValidToken(t *testing.T) {
	_, svc := newAuthFixture(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, models.RegisterRequest{Username: "mod", Password: "pw123", Role: models.RoleModerator})
	require.NoError(t, err)

	res, err := svc.Login(ctx, models.LoginRequest{Username: "mod", Password: "pw123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, models.RoleModerator, res.User.Role)

	claims, err := svc.ValidateToken(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)
	assert.Equal(t, models.RoleModerator, claims.Role)
	assert.Equal(t, "autohub-test", claims.Issuer)

	_, err = svc.ValidateToken(ctx, res.AccessToken + "x")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	me, err := svc.Me(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "mod", me.Username)

	_, err = svc.Me(ctx, "missing")
	assert.True(t, errors.Is(err, appErrors.ErrUserNotFound))
}

func TestValidateTokenReflectsCurrentAccount(t *testing.T) {
	store, svc := newAuthFixture(t)
	ctx := context.Background()

	admin, err := svc.Register(ctx, models.RegisterRequest{Username: "boss", Password: "pw123", Role: models.RoleAdmin})
	require.NoError(t, err)
	res, err := svc.Login(ctx, models.LoginRequest{Username: "boss", Password: "pw123"})
	require.NoError(t, err)

	users := userMem{store}
	require.NoError(t, users.UpdateRole(ctx, admin.ID, models.RoleUser, time.Now()))
	claims, err := svc.ValidateToken(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, claims.Role)

	require.NoError(t, users.UpdateActive(ctx, admin.ID, false, time.Now()))
	_, err = svc.ValidateToken(ctx, res.AccessToken)
	assert.True(t, errors.Is(err, appErrors.ErrAccountDisabled))

	delete(store.users, admin.ID)
	_, err = svc.ValidateToken(ctx, res.AccessToken)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestEnsureBootstrapAdmin(t *testing.T) {
	store, svc := newAuthFixture(t)
	ctx := context.Background()

	created, err := svc.EnsureBootstrapAdmin(ctx, "", "")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = svc.EnsureBootstrapAdmin(ctx, "root", "rootpw")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureBootstrapAdmin(ctx, "root2", "rootpw")
	require.NoError(t, err)
	assert.False(t, created)

	user, err := svc.Authenticate(ctx, "root", "rootpw")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.True(t, user.Active)
	assert.Len(t, store.users, 1)
}
